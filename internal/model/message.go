package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn within a chat session. Immutable once written.
type Message struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SessionID       string    `gorm:"size:64;not null;index" json:"session_id"`
	Role            string    `gorm:"size:16;not null" json:"role"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	RemoteMessageID string    `gorm:"size:64" json:"remote_message_id,omitempty"`
	Metadata        string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
