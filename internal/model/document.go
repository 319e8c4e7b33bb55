package model

import "time"

const (
	DocumentStatusActive  = "active"
	DocumentStatusDeleted = "deleted"
)

// Document is one uploaded file. Its primary key equals the remote file
// identifier; RemoteFileID is kept as its own column so the record survives
// any future re-keying of the remote service.
type Document struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Filename      string    `gorm:"size:256;not null" json:"filename"`
	RemoteFileID  string    `gorm:"size:64;not null;index" json:"remote_file_id"`
	VectorStoreID string    `gorm:"size:64;not null;index" json:"vector_store_id"`
	Size          int64     `json:"size"`
	Preview       string    `gorm:"type:text" json:"-"`
	Status        string    `gorm:"size:16;not null;index" json:"status"`
	UploadedBy    string    `gorm:"size:64" json:"uploaded_by"`
	UploadDate    time.Time `gorm:"autoCreateTime" json:"upload_date"`
}
