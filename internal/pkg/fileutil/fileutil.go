package fileutil

import "fmt"

// FormatSize renders a byte count in a human readable unit.
func FormatSize(sizeBytes int64) string {
	switch {
	case sizeBytes < 1024:
		return fmt.Sprintf("%d B", sizeBytes)
	case sizeBytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(sizeBytes)/1024)
	case sizeBytes < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(sizeBytes)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(sizeBytes)/(1024*1024*1024))
	}
}

// TruncateText shortens text to maxLength runes, spending the last three on
// an ellipsis marker when truncation happens.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
