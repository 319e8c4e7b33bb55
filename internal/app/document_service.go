package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"knowdesk/internal/model"
	"knowdesk/internal/pkg/pdfextract"
	"knowdesk/internal/repository"
)

const previewMaxRunes = 2000

// DocumentService owns the document lifecycle: validation, upload into the
// remote index, and later retirement. Remote failures never escape this
// service; they become per-file error strings or a false return.
type DocumentService struct {
	documents *repository.DocumentRepository
	index     *IndexService
	gateway   IndexGateway
	publisher ActivityPublisher

	maxFileSize  int64
	maxFileSizeM int
	allowedTypes []string
	logger       *slog.Logger
}

type FileInput struct {
	Filename string
	Data     []byte
}

type UploadedFile struct {
	Filename string `json:"filename"`
	ID       string `json:"id"`
	Size     int64  `json:"size"`
}

type UploadReport struct {
	Success           bool           `json:"success"`
	UploadedFiles     []UploadedFile `json:"uploaded_files"`
	Errors            []string       `json:"errors"`
	TotalFiles        int            `json:"total_files"`
	SuccessfulUploads int            `json:"successful_uploads"`
}

func NewDocumentService(
	documents *repository.DocumentRepository,
	index *IndexService,
	gateway IndexGateway,
	publisher ActivityPublisher,
	maxFileSizeMB int,
	allowedTypes []string,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		documents:    documents,
		index:        index,
		gateway:      gateway,
		publisher:    publisher,
		maxFileSize:  int64(maxFileSizeMB) * 1024 * 1024,
		maxFileSizeM: maxFileSizeMB,
		allowedTypes: allowedTypes,
		logger:       logger,
	}
}

// Validate checks a candidate upload against the size ceiling and the
// extension allow-list. Pure function of (filename, size, config).
func (s *DocumentService) Validate(filename string, size int64) (bool, string) {
	if size > s.maxFileSize {
		return false, fmt.Sprintf("file size (%.1fMB) exceeds maximum allowed size (%dMB)",
			float64(size)/1024/1024, s.maxFileSizeM)
	}

	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx+1:])
	}
	for _, allowed := range s.allowedTypes {
		if ext == allowed {
			return true, "file is valid"
		}
	}
	return false, fmt.Sprintf("file type '%s' not allowed. Supported types: %s",
		ext, strings.Join(s.allowedTypes, ", "))
}

// Upload processes a batch of files. Each file succeeds or fails
// independently: one bad file never aborts the batch. An empty batch fails
// immediately without touching any remote service.
func (s *DocumentService) Upload(ctx context.Context, files []FileInput, uploadedBy string) *UploadReport {
	report := &UploadReport{
		UploadedFiles: []UploadedFile{},
		Errors:        []string{},
		TotalFiles:    len(files),
	}
	if len(files) == 0 {
		report.Errors = append(report.Errors, "no files provided")
		return report
	}

	vectorStoreID, err := s.index.Resolve(ctx)
	if err != nil {
		s.logger.Error("resolve index for upload failed", "error", err)
		report.Errors = append(report.Errors, "resolve document index failed: "+err.Error())
		return report
	}

	for _, file := range files {
		if uploaded, uploadErr := s.uploadOne(ctx, vectorStoreID, file, uploadedBy); uploadErr != nil {
			report.Errors = append(report.Errors, file.Filename+": "+uploadErr.Error())
			s.logger.Error("upload document failed", "filename", file.Filename, "error", uploadErr)
		} else {
			report.UploadedFiles = append(report.UploadedFiles, *uploaded)
			report.SuccessfulUploads++
			s.logger.Info("uploaded document",
				"filename", uploaded.Filename, "file_id", uploaded.ID, "size", uploaded.Size)
		}
	}

	report.Success = report.SuccessfulUploads > 0
	return report
}

func (s *DocumentService) uploadOne(ctx context.Context, vectorStoreID string, file FileInput, uploadedBy string) (*UploadedFile, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("file content is empty or corrupted")
	}
	if ok, reason := s.Validate(file.Filename, int64(len(file.Data))); !ok {
		return nil, fmt.Errorf("%s", reason)
	}

	fileID, err := s.gateway.UploadFile(ctx, file.Filename, file.Data)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.RegisterFile(ctx, vectorStoreID, fileID); err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:            fileID,
		Filename:      file.Filename,
		RemoteFileID:  fileID,
		VectorStoreID: vectorStoreID,
		Size:          int64(len(file.Data)),
		Preview:       s.extractPreview(file),
		Status:        model.DocumentStatusActive,
		UploadedBy:    uploadedBy,
	}
	if err := s.documents.Create(doc); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, model.Event{
		Type:   model.EventDocumentAdded,
		Actor:  uploadedBy,
		Detail: file.Filename,
	})

	return &UploadedFile{
		Filename: file.Filename,
		ID:       fileID,
		Size:     int64(len(file.Data)),
	}, nil
}

// Delete removes the remote file first and only then soft-deletes the local
// record, so a failed remote delete leaves the document visible and
// retryable. Returns false on any failure.
func (s *DocumentService) Delete(ctx context.Context, documentID string) bool {
	if err := s.gateway.DeleteFile(ctx, documentID); err != nil {
		s.logger.Error("delete remote file failed", "document_id", documentID, "error", err)
		return false
	}
	if err := s.documents.SoftDelete(documentID); err != nil {
		s.logger.Error("soft delete document failed", "document_id", documentID, "error", err)
		return false
	}

	s.publishEvent(ctx, model.Event{
		Type:   model.EventDocumentDeleted,
		Detail: documentID,
	})
	s.logger.Info("deleted document", "document_id", documentID)
	return true
}

// List returns the active documents, newest first. Store errors surface as
// an empty list.
func (s *DocumentService) List() []model.Document {
	docs, err := s.documents.List()
	if err != nil {
		s.logger.Error("list documents failed", "error", err)
		return []model.Document{}
	}
	return docs
}

func (s *DocumentService) Get(documentID string) (*model.Document, error) {
	return s.documents.GetByID(documentID)
}

func (s *DocumentService) CountActive() int64 {
	count, err := s.documents.CountActive()
	if err != nil {
		s.logger.Error("count documents failed", "error", err)
		return 0
	}
	return count
}

// extractPreview pulls a short plain-text preview out of PDF uploads.
// Best-effort: extraction failures only cost the preview.
func (s *DocumentService) extractPreview(file FileInput) string {
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return ""
	}
	text, err := pdfextract.ExtractText(file.Data)
	if err != nil {
		s.logger.Warn("extract pdf preview failed", "filename", file.Filename, "error", err)
		return ""
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > previewMaxRunes {
		runes = runes[:previewMaxRunes]
	}
	return string(runes)
}

func (s *DocumentService) publishEvent(ctx context.Context, ev model.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish activity event failed", "type", ev.Type, "error", err)
	}
}
