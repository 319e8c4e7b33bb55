package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"knowdesk/internal/model"
)

// Stats are the aggregate counts exposed on the operational surface.
type Stats struct {
	Documents  int64 `json:"documents"`
	Sessions   int64 `json:"sessions"`
	Messages   int64 `json:"messages"`
	Users      int64 `json:"users"`
	Messages24 int64 `json:"messages_24h"`
}

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Collect() (*Stats, error) {
	var stats Stats

	if err := r.db.Model(&model.Document{}).
		Where("status = ?", model.DocumentStatusActive).
		Count(&stats.Documents).Error; err != nil {
		return nil, fmt.Errorf("count documents failed: %w", err)
	}
	if err := r.db.Model(&model.ChatSession{}).
		Where("status = ?", model.SessionStatusActive).
		Count(&stats.Sessions).Error; err != nil {
		return nil, fmt.Errorf("count sessions failed: %w", err)
	}
	if err := r.db.Model(&model.Message{}).Count(&stats.Messages).Error; err != nil {
		return nil, fmt.Errorf("count messages failed: %w", err)
	}
	if err := r.db.Model(&model.User{}).Count(&stats.Users).Error; err != nil {
		return nil, fmt.Errorf("count users failed: %w", err)
	}

	since := time.Now().Add(-24 * time.Hour)
	if err := r.db.Model(&model.Message{}).
		Where("created_at >= ?", since).
		Count(&stats.Messages24).Error; err != nil {
		return nil, fmt.Errorf("count recent messages failed: %w", err)
	}

	return &stats, nil
}
