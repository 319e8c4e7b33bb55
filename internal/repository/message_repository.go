package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"knowdesk/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create saves the message and touches the owning session's last-activity
// timestamp in one transaction.
func (r *MessageRepository) Create(message *model.Message) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", message.SessionID).
			Update("last_activity", time.Now()).Error
	})
	if err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListBySessionID returns the session's messages in chronological order.
func (r *MessageRepository) ListBySessionID(sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []model.Message
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) CountBySessionID(sessionID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return count, nil
}
