package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"knowdesk/internal/model"
	"knowdesk/internal/repository"
)

func newDocumentService(t *testing.T, gateway *fakeIndexGateway, publisher ActivityPublisher) (*DocumentService, *repository.DocumentRepository) {
	t.Helper()
	db := openTestDB(t)
	documents := repository.NewDocumentRepository(db)
	stores := repository.NewVectorStoreRepository(db)
	index := NewIndexService(stores, gateway, "acme-knowledge-base", slog.Default())
	svc := NewDocumentService(documents, index, gateway, publisher, 20, []string{"pdf", "txt", "md"}, slog.Default())
	return svc, documents
}

func TestDocumentServiceValidate(t *testing.T) {
	svc, _ := newDocumentService(t, &fakeIndexGateway{}, nil)

	tests := []struct {
		name     string
		filename string
		size     int64
		wantOK   bool
		wantMsg  string
	}{
		{"allowed type", "report.pdf", 1024, true, "file is valid"},
		{"uppercase extension", "NOTES.TXT", 1024, true, "file is valid"},
		{"disallowed type", "malware.exe", 1024, false, "file type 'exe' not allowed"},
		{"no extension", "README", 1024, false, "file type '' not allowed"},
		{"oversized", "big.pdf", 25 * 1024 * 1024, false, "exceeds maximum allowed size (20MB)"},
		{"at limit", "exact.pdf", 20 * 1024 * 1024, true, "file is valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := svc.Validate(tt.filename, tt.size)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("msg = %q, want to contain %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestDocumentServiceValidate_OversizedMessageReportsActualSize(t *testing.T) {
	svc, _ := newDocumentService(t, &fakeIndexGateway{}, nil)

	_, msg := svc.Validate("big.pdf", 25*1024*1024)
	if !strings.Contains(msg, "25.0MB") {
		t.Errorf("msg = %q, want to report the 25.0MB size", msg)
	}
}

func TestDocumentServiceUpload_EmptyBatch(t *testing.T) {
	gateway := &fakeIndexGateway{}
	svc, _ := newDocumentService(t, gateway, nil)

	report := svc.Upload(context.Background(), nil, "u1")
	if report.Success {
		t.Error("expected failure for empty batch")
	}
	if len(report.Errors) != 1 || report.Errors[0] != "no files provided" {
		t.Errorf("errors = %v, want [no files provided]", report.Errors)
	}
	if gateway.createCalls+gateway.retrieveCalls+gateway.uploadCalls != 0 {
		t.Error("empty batch must not touch the remote service")
	}
}

func TestDocumentServiceUpload_MixedBatch(t *testing.T) {
	gateway := &fakeIndexGateway{}
	publisher := &fakePublisher{}
	svc, documents := newDocumentService(t, gateway, publisher)

	files := []FileInput{
		{Filename: "good.txt", Data: []byte("hello world")},
		{Filename: "bad.exe", Data: []byte("MZ")},
		{Filename: "empty.txt", Data: nil},
		{Filename: "notes.md", Data: []byte("# notes")},
	}
	report := svc.Upload(context.Background(), files, "u1")

	if !report.Success {
		t.Error("expected success when at least one file uploads")
	}
	if report.TotalFiles != 4 {
		t.Errorf("total = %d, want 4", report.TotalFiles)
	}
	if report.SuccessfulUploads != 2 {
		t.Errorf("successful = %d, want 2", report.SuccessfulUploads)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("errors = %v, want 2 entries", report.Errors)
	}
	if !strings.Contains(report.Errors[0], "bad.exe") || !strings.Contains(report.Errors[0], "not allowed") {
		t.Errorf("first error = %q, want the bad.exe rejection", report.Errors[0])
	}
	if !strings.Contains(report.Errors[1], "empty.txt") || !strings.Contains(report.Errors[1], "empty or corrupted") {
		t.Errorf("second error = %q, want the empty file rejection", report.Errors[1])
	}

	docs, err := documents.List()
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("persisted docs = %d, want 2", len(docs))
	}
	if got := len(publisher.byType(model.EventDocumentAdded)); got != 2 {
		t.Errorf("uploaded events = %d, want 2", got)
	}
}

func TestDocumentServiceUpload_IndexResolutionFailure(t *testing.T) {
	gateway := &fakeIndexGateway{createErr: errors.New("upstream down")}
	svc, _ := newDocumentService(t, gateway, nil)

	report := svc.Upload(context.Background(), []FileInput{
		{Filename: "good.txt", Data: []byte("hello")},
	}, "u1")

	if report.Success {
		t.Error("expected failure when the index cannot be resolved")
	}
	if gateway.uploadCalls != 0 {
		t.Errorf("upload calls = %d, want 0 when resolution fails", gateway.uploadCalls)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "resolve document index failed") {
		t.Errorf("errors = %v, want a resolution failure entry", report.Errors)
	}
}

func TestDocumentServiceUpload_RegisterFailureIsPerFile(t *testing.T) {
	gateway := &fakeIndexGateway{registerErr: errors.New("indexing timed out")}
	svc, documents := newDocumentService(t, gateway, nil)

	report := svc.Upload(context.Background(), []FileInput{
		{Filename: "good.txt", Data: []byte("hello")},
	}, "u1")

	if report.Success {
		t.Error("expected failure when indexing fails")
	}
	docs, err := documents.List()
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("persisted docs = %d, want 0 for an unindexed file", len(docs))
	}
}

func TestDocumentServiceDelete(t *testing.T) {
	gateway := &fakeIndexGateway{}
	publisher := &fakePublisher{}
	svc, documents := newDocumentService(t, gateway, publisher)

	report := svc.Upload(context.Background(), []FileInput{
		{Filename: "doomed.txt", Data: []byte("bye")},
	}, "u1")
	if report.SuccessfulUploads != 1 {
		t.Fatalf("seed upload failed: %v", report.Errors)
	}
	docID := report.UploadedFiles[0].ID

	if !svc.Delete(context.Background(), docID) {
		t.Fatal("delete returned false")
	}
	if gateway.deleteCalls != 1 {
		t.Errorf("remote delete calls = %d, want 1", gateway.deleteCalls)
	}

	// The record survives as soft-deleted and stays resolvable by id.
	doc, err := documents.GetByID(docID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if doc == nil {
		t.Fatal("soft-deleted document no longer resolvable")
	}
	if doc.Status != model.DocumentStatusDeleted {
		t.Errorf("status = %q, want %q", doc.Status, model.DocumentStatusDeleted)
	}
	if len(svc.List()) != 0 {
		t.Error("soft-deleted document still listed")
	}
	if got := len(publisher.byType(model.EventDocumentDeleted)); got != 1 {
		t.Errorf("deleted events = %d, want 1", got)
	}
}

func TestDocumentServiceDelete_RemoteFailureKeepsRecord(t *testing.T) {
	gateway := &fakeIndexGateway{}
	svc, documents := newDocumentService(t, gateway, nil)

	report := svc.Upload(context.Background(), []FileInput{
		{Filename: "sticky.txt", Data: []byte("keep me")},
	}, "u1")
	docID := report.UploadedFiles[0].ID

	gateway.deleteErr = errors.New("503 service unavailable")
	if svc.Delete(context.Background(), docID) {
		t.Fatal("delete succeeded despite remote failure")
	}

	doc, err := documents.GetByID(docID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if doc == nil || doc.Status != model.DocumentStatusActive {
		t.Errorf("doc = %+v, want still active for retry", doc)
	}
}

func TestDocumentServiceCountActive_RecomputedAfterDelete(t *testing.T) {
	gateway := &fakeIndexGateway{}
	svc, _ := newDocumentService(t, gateway, nil)

	report := svc.Upload(context.Background(), []FileInput{
		{Filename: "a.txt", Data: []byte("a")},
		{Filename: "b.txt", Data: []byte("b")},
	}, "u1")
	if report.SuccessfulUploads != 2 {
		t.Fatalf("seed upload failed: %v", report.Errors)
	}
	if got := svc.CountActive(); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	if !svc.Delete(context.Background(), report.UploadedFiles[0].ID) {
		t.Fatal("delete failed")
	}
	if got := svc.CountActive(); got != 1 {
		t.Errorf("count after delete = %d, want 1", got)
	}
}
