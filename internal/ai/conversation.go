package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CreateAssistant allocates a remote assistant bound to the given vector
// store, configured for retrieval over the organization's documents.
func (c *Client) CreateAssistant(ctx context.Context, vectorStoreID string) (string, error) {
	payload := map[string]interface{}{
		"name":         c.cfg.AssistantName,
		"instructions": c.cfg.Instructions,
		"model":        c.cfg.Model,
		"tools": []map[string]string{
			{"type": "file_search"},
		},
		"tool_resources": map[string]interface{}{
			"file_search": map[string]interface{}{
				"vector_store_ids": []string{vectorStoreID},
			},
		},
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/assistants", payload, &parsed); err != nil {
		return "", fmt.Errorf("create assistant failed: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("create assistant returned empty id")
	}
	return parsed.ID, nil
}

// CreateThread opens a fresh remote conversation context with no history.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/threads", map[string]interface{}{}, &parsed); err != nil {
		return "", fmt.Errorf("create thread failed: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("create thread returned empty id")
	}
	return parsed.ID, nil
}

// AppendMessage adds the user turn to the remote thread and returns the
// remote message identifier.
func (c *Client) AppendMessage(ctx context.Context, threadID, content string) (string, error) {
	payload := map[string]string{
		"role":    "user",
		"content": content,
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/threads/"+threadID+"/messages", payload, &parsed); err != nil {
		return "", fmt.Errorf("append message failed: %w", err)
	}
	return parsed.ID, nil
}

// StreamRun starts a streaming run on the thread and relays each text
// fragment to onChunk as it arrives. The stream is forward-only and cannot
// be restarted; the accumulated reply is returned once the run completes.
func (c *Client) StreamRun(
	ctx context.Context,
	threadID, assistantID string,
	onChunk func(chunk string) error,
) (string, error) {
	payload := map[string]interface{}{
		"assistant_id": assistantID,
		"stream":       true,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal run request failed: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/threads/"+threadID+"/runs", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("run stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("run stream status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var full strings.Builder
	var event string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		switch event {
		case "thread.message.delta":
			text := parseMessageDelta(payload)
			if text == "" {
				continue
			}
			full.WriteString(text)
			if onChunk != nil {
				if err := onChunk(text); err != nil {
					return "", err
				}
			}
		case "thread.run.failed", "thread.run.expired", "thread.run.cancelled":
			return "", fmt.Errorf("run ended: %s", event)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan run stream failed: %w", err)
	}
	return full.String(), nil
}

// parseMessageDelta extracts the concatenated text values from one
// thread.message.delta payload; unparseable payloads yield "".
func parseMessageDelta(payload string) string {
	var chunk struct {
		Delta struct {
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"delta"`
	}
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range chunk.Delta.Content {
		if part.Type == "text" {
			b.WriteString(part.Text.Value)
		}
	}
	return b.String()
}
