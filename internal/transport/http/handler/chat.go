package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"knowdesk/internal/app"
	"knowdesk/internal/transport/http/response"
)

type ChatHandler struct {
	sessionService *app.SessionService
}

// TurnRequest carries the full session context back from the client; the
// coordinator validates it before anything is written or forwarded.
type TurnRequest struct {
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	ThreadID      string `json:"thread_id"`
	AssistantID   string `json:"assistant_id"`
	VectorStoreID string `json:"vector_store_id"`
	Content       string `json:"content" binding:"required"`
}

func NewChatHandler(sessionService *app.SessionService) *ChatHandler {
	return &ChatHandler{sessionService: sessionService}
}

func (h *ChatHandler) StartSession(c *gin.Context) {
	sc, err := h.sessionService.Start(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "start session failed")
		return
	}
	response.OK(c, sc)
}

func (h *ChatHandler) StreamTurn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if req.SessionID == "" || req.ThreadID == "" || req.AssistantID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeSessionIncomplete, app.ErrSessionIntegrity.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	sc := app.SessionContext{
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		ThreadID:      req.ThreadID,
		AssistantID:   req.AssistantID,
		VectorStoreID: req.VectorStoreID,
	}
	full, err := h.sessionService.HandleTurn(c.Request.Context(), sc, req.Content, func(chunk string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(chunk) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if _, writeErr := c.Writer.Write([]byte(fmt.Sprintf("event: error\ndata: %s\n\n", sanitizeSSE(err.Error())))); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + sanitizeSSE(full) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessions, err := h.sessionService.ListSessions(userID, parseLimit(c, 50))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sessions failed")
		}
		return
	}

	response.OK(c, sessions)
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session_id")
		return
	}

	history, err := h.sessionService.History(c.Request.Context(), sessionID, parseLimit(c, 100))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		}
		return
	}

	response.OK(c, history)
}

func parseLimit(c *gin.Context, fallback int) int {
	limit := fallback
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	return limit
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
