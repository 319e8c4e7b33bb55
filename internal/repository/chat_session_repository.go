package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"knowdesk/internal/model"
)

type ChatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

func (r *ChatSessionRepository) Create(session *model.ChatSession) error {
	if session.Title == "" {
		session.Title = model.DefaultSessionTitle
	}
	if session.Status == "" {
		session.Status = model.SessionStatusActive
	}
	if session.LastActivity.IsZero() {
		session.LastActivity = time.Now()
	}
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) GetByID(sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat session failed: %w", err)
	}
	return &session, nil
}

// ListByUserID returns the user's active sessions, most recently active first.
func (r *ChatSessionRepository) ListByUserID(userID string, limit int) ([]model.ChatSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var sessions []model.ChatSession
	if err := r.db.Where("user_id = ? AND status = ?", userID, model.SessionStatusActive).
		Order("last_activity DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return sessions, nil
}

// Touch refreshes the session's last-activity timestamp.
func (r *ChatSessionRepository) Touch(sessionID string) error {
	if err := r.db.Model(&model.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_activity", time.Now()).Error; err != nil {
		return fmt.Errorf("touch chat session failed: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) UpdateTitle(sessionID, title string) error {
	if err := r.db.Model(&model.ChatSession{}).
		Where("id = ?", sessionID).
		Update("title", title).Error; err != nil {
		return fmt.Errorf("update chat title failed: %w", err)
	}
	return nil
}
