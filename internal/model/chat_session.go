package model

import "time"

const (
	SessionStatusActive = "active"
	DefaultSessionTitle = "New Chat"
)

// ChatSession binds a local user to the remote thread, assistant and vector
// store that serve one conversation. The remote identifiers are references
// only; the remote side may expire them independently.
type ChatSession struct {
	ID            string    `gorm:"primaryKey;size:64" json:"session_id"`
	UserID        string    `gorm:"size:64;index" json:"user_id"`
	ThreadID      string    `gorm:"size:64" json:"thread_id"`
	AssistantID   string    `gorm:"size:64" json:"assistant_id"`
	VectorStoreID string    `gorm:"size:64" json:"vector_store_id"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	Status        string    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `gorm:"index" json:"last_activity"`
}
