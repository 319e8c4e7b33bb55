// Package ai implements the HTTP client for the remote assistant platform:
// the vector-store index the documents live in, and the assistant/thread
// conversation surface. All calls are plain request/response against an
// OpenAI-compatible Assistants API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	AssistantName  string
	Instructions   string
	IndexExpireDay int
}

type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		cfg:        cfg,
	}
}

// IsConfigured reports whether the client has credentials; used by the
// health surface, never consulted by the coordinator itself.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	return req, nil
}

// doJSON posts payload (when non-nil) and decodes the JSON response into
// out (when non-nil). Non-2xx statuses become errors carrying the body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response json failed: %w", err)
		}
	}
	return nil
}
