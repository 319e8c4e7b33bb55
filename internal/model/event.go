package model

import "time"

const (
	EventSessionStarted  = "session.started"
	EventTurnCompleted   = "turn.completed"
	EventDocumentAdded   = "document.uploaded"
	EventDocumentDeleted = "document.deleted"
)

// Event is one entry in the best-effort activity trail. Events travel
// through the message queue before they land here, so ordering and delivery
// are not guaranteed.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:64;not null;index" json:"type"`
	SessionID string    `gorm:"size:64;index" json:"session_id,omitempty"`
	Actor     string    `gorm:"size:64" json:"actor,omitempty"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
