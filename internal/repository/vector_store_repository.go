package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"knowdesk/internal/model"
)

type VectorStoreRepository struct {
	db *gorm.DB
}

func NewVectorStoreRepository(db *gorm.DB) *VectorStoreRepository {
	return &VectorStoreRepository{db: db}
}

// Save records a vector store with insert-or-replace semantics. Concurrent
// index resolution can create two remote stores for the organization; the
// most recently created row wins on subsequent Active reads.
func (r *VectorStoreRepository) Save(store *model.VectorStore) error {
	if store.Status == "" {
		store.Status = model.VectorStoreStatusActive
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(store).Error; err != nil {
		return fmt.Errorf("save vector store failed: %w", err)
	}
	return nil
}

// Active returns the authoritative vector store for the organization, or nil
// when none has been recorded yet.
func (r *VectorStoreRepository) Active() (*model.VectorStore, error) {
	var store model.VectorStore
	err := r.db.Where("status = ?", model.VectorStoreStatusActive).
		Order("created_at DESC").
		First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active vector store failed: %w", err)
	}
	return &store, nil
}

func (r *VectorStoreRepository) Retire(id string) error {
	if err := r.db.Model(&model.VectorStore{}).
		Where("id = ?", id).
		Update("status", model.VectorStoreStatusRetired).Error; err != nil {
		return fmt.Errorf("retire vector store failed: %w", err)
	}
	return nil
}
