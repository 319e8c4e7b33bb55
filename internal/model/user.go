package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"user_id"`
	Email        string    `gorm:"size:128;index" json:"email"`
	Name         string    `gorm:"size:128" json:"name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Preferences  string    `gorm:"type:text" json:"preferences,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}
