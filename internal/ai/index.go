package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// CreateVectorStore allocates a new remote index. The expiry policy is
// anchored to last activity so idle tenants do not accumulate remote state
// forever.
func (c *Client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	payload := map[string]interface{}{
		"name": name,
		"expires_after": map[string]interface{}{
			"anchor": "last_active_at",
			"days":   c.cfg.IndexExpireDay,
		},
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/vector_stores", payload, &parsed); err != nil {
		return "", fmt.Errorf("create vector store failed: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("create vector store returned empty id")
	}
	return parsed.ID, nil
}

// RetrieveVectorStore confirms the remote index still exists. Any error,
// not-found or transient, tells the caller the cached identifier cannot be
// trusted.
func (c *Client) RetrieveVectorStore(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodGet, "/vector_stores/"+id, nil, nil); err != nil {
		return fmt.Errorf("retrieve vector store %s failed: %w", id, err)
	}
	return nil
}

// UploadFile pushes raw file bytes to the remote file storage and returns
// the remote file identifier.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write purpose field failed: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file failed: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file payload failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer failed: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload file status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse upload response failed: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("upload file returned empty id")
	}
	return parsed.ID, nil
}

// RegisterFile attaches an uploaded file to the vector store and waits for
// indexing to settle.
func (c *Client) RegisterFile(ctx context.Context, vectorStoreID, fileID string) error {
	payload := map[string]string{"file_id": fileID}
	var created struct {
		Status string `json:"status"`
	}
	path := "/vector_stores/" + vectorStoreID + "/files"
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &created); err != nil {
		return fmt.Errorf("register file failed: %w", err)
	}
	if created.Status == "completed" {
		return nil
	}

	// Indexing is asynchronous on the remote side; poll until it resolves.
	statusPath := path + "/" + fileID
	for attempt := 0; attempt < 30; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("register file cancelled: %w", ctx.Err())
		case <-time.After(time.Second):
		}

		var polled struct {
			Status    string `json:"status"`
			LastError *struct {
				Message string `json:"message"`
			} `json:"last_error"`
		}
		if err := c.doJSON(ctx, http.MethodGet, statusPath, nil, &polled); err != nil {
			return fmt.Errorf("poll file registration failed: %w", err)
		}
		switch polled.Status {
		case "completed":
			return nil
		case "failed", "cancelled":
			reason := polled.Status
			if polled.LastError != nil && polled.LastError.Message != "" {
				reason = polled.LastError.Message
			}
			return fmt.Errorf("file registration %s: %s", fileID, reason)
		}
	}
	return fmt.Errorf("file registration %s timed out", fileID)
}

// DeleteFile removes the remote file. Deleting the file also drops it from
// any vector store it was registered with.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/files/"+fileID, nil, nil); err != nil {
		return fmt.Errorf("delete file %s failed: %w", fileID, err)
	}
	return nil
}
