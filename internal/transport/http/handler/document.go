package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"knowdesk/internal/app"
	"knowdesk/internal/pkg/fileutil"
	"knowdesk/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, _ := getUserIDFromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}

	var inputs []app.FileInput
	for _, header := range form.File["files"] {
		f, openErr := header.Open()
		if openErr != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
			return
		}
		data, readErr := io.ReadAll(f)
		_ = f.Close()
		if readErr != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
			return
		}
		inputs = append(inputs, app.FileInput{Filename: header.Filename, Data: data})
	}

	report := h.documentService.Upload(c.Request.Context(), inputs, userID)
	response.OK(c, report)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs := h.documentService.List()

	items := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		items = append(items, gin.H{
			"id":          doc.ID,
			"filename":    doc.Filename,
			"size":        doc.Size,
			"size_human":  fileutil.FormatSize(doc.Size),
			"uploaded_by": doc.UploadedBy,
			"upload_date": doc.UploadDate,
			"status":      doc.Status,
		})
	}
	response.OK(c, items)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID := strings.TrimSpace(c.Param("id"))
	if documentID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	doc, err := h.documentService.Get(documentID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "lookup document failed")
		return
	}
	if doc == nil {
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "document not found")
		return
	}

	if !h.documentService.Delete(c.Request.Context(), documentID) {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": documentID})
}
