package repository

import (
	"testing"
	"time"

	"knowdesk/internal/model"
)

func seedVectorStore(t *testing.T, repo *VectorStoreRepository, id string) {
	t.Helper()
	if err := repo.Save(&model.VectorStore{
		ID:     id,
		Name:   "test-knowledge-base",
		Status: model.VectorStoreStatusActive,
	}); err != nil {
		t.Fatalf("seed vector store: %v", err)
	}
}

func TestDocumentRepository_CreateBumpsCounter(t *testing.T) {
	db := openTestDB(t)
	docs := NewDocumentRepository(db)
	stores := NewVectorStoreRepository(db)
	seedVectorStore(t, stores, "vs_1")

	for i, id := range []string{"file_1", "file_2"} {
		if err := docs.Create(&model.Document{
			ID:            id,
			Filename:      "doc.txt",
			RemoteFileID:  id,
			VectorStoreID: "vs_1",
			Size:          int64(i + 1),
		}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	store, err := stores.Active()
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if store.DocumentCount != 2 {
		t.Errorf("document_count = %d, want 2", store.DocumentCount)
	}
}

func TestDocumentRepository_ListNewestFirstAndActiveOnly(t *testing.T) {
	db := openTestDB(t)
	docs := NewDocumentRepository(db)
	stores := NewVectorStoreRepository(db)
	seedVectorStore(t, stores, "vs_1")

	old := time.Now().Add(-time.Hour)
	for _, doc := range []model.Document{
		{ID: "file_old", Filename: "old.txt", RemoteFileID: "file_old", VectorStoreID: "vs_1", UploadDate: old},
		{ID: "file_new", Filename: "new.txt", RemoteFileID: "file_new", VectorStoreID: "vs_1", UploadDate: time.Now()},
		{ID: "file_gone", Filename: "gone.txt", RemoteFileID: "file_gone", VectorStoreID: "vs_1", Status: model.DocumentStatusDeleted},
	} {
		d := doc
		if err := docs.Create(&d); err != nil {
			t.Fatalf("create %s: %v", d.ID, err)
		}
	}

	listed, err := docs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed = %d, want 2 active", len(listed))
	}
	if listed[0].ID != "file_new" || listed[1].ID != "file_old" {
		t.Errorf("order = [%s %s], want newest first", listed[0].ID, listed[1].ID)
	}
}

func TestDocumentRepository_SoftDelete(t *testing.T) {
	db := openTestDB(t)
	docs := NewDocumentRepository(db)
	stores := NewVectorStoreRepository(db)
	seedVectorStore(t, stores, "vs_1")

	if err := docs.Create(&model.Document{
		ID: "file_1", Filename: "doc.txt", RemoteFileID: "file_1", VectorStoreID: "vs_1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := docs.SoftDelete("file_1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Row stays resolvable by id but drops out of listings and counts.
	doc, err := docs.GetByID("file_1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if doc == nil || doc.Status != model.DocumentStatusDeleted {
		t.Errorf("doc = %+v, want deleted status", doc)
	}
	count, err := docs.CountActive()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("active count = %d, want 0", count)
	}
	store, err := stores.Active()
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if store.DocumentCount != 0 {
		t.Errorf("document_count = %d, want decremented to 0", store.DocumentCount)
	}

	// Deleting again fails: only active rows are eligible.
	if err := docs.SoftDelete("file_1"); err == nil {
		t.Error("expected error on double delete")
	}
}

func TestDocumentRepository_GetByIDUnknown(t *testing.T) {
	docs := NewDocumentRepository(openTestDB(t))
	doc, err := docs.GetByID("missing")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if doc != nil {
		t.Errorf("doc = %+v, want nil for unknown id", doc)
	}
}
