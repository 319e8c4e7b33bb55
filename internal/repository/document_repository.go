package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowdesk/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts the document and bumps the owning vector store's document
// counter in the same transaction, so the two can never drift apart on a
// partial failure. Program logic never trusts the counter; CountActive is
// the authoritative read.
func (r *DocumentRepository) Create(doc *model.Document) error {
	if doc.Status == "" {
		doc.Status = model.DocumentStatusActive
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return tx.Model(&model.VectorStore{}).
			Where("id = ?", doc.VectorStoreID).
			UpdateColumn("document_count", gorm.Expr("document_count + 1")).Error
	})
	if err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// List returns active documents, newest upload first.
func (r *DocumentRepository) List() ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("status = ?", model.DocumentStatusActive).
		Order("upload_date DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// GetByID resolves a document regardless of status, so soft-deleted rows
// stay reachable by direct lookup.
func (r *DocumentRepository) GetByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// SoftDelete flips the document to deleted and decrements the counter
// atomically. The row is never physically removed.
func (r *DocumentRepository) SoftDelete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var doc model.Document
		if err := tx.Where("id = ? AND status = ?", id, model.DocumentStatusActive).First(&doc).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Document{}).
			Where("id = ?", id).
			Update("status", model.DocumentStatusDeleted).Error; err != nil {
			return err
		}
		return tx.Model(&model.VectorStore{}).
			Where("id = ? AND document_count > 0", doc.VectorStoreID).
			UpdateColumn("document_count", gorm.Expr("document_count - 1")).Error
	})
	if err != nil {
		return fmt.Errorf("soft delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) CountActive() (int64, error) {
	var count int64
	if err := r.db.Model(&model.Document{}).
		Where("status = ?", model.DocumentStatusActive).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return count, nil
}
