package model

import "time"

const (
	VectorStoreStatusActive  = "active"
	VectorStoreStatusRetired = "retired"
)

// VectorStore records the organization's remote document index. The cached
// identifier is advisory only: the remote resource can expire or be deleted
// out of band, so callers re-validate it before reuse.
type VectorStore struct {
	ID            string    `gorm:"primaryKey;size:64" json:"vector_store_id"`
	Name          string    `gorm:"size:256;not null" json:"name"`
	DocumentCount int       `json:"document_count"`
	Status        string    `gorm:"size:16;not null" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
