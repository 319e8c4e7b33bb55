package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"knowdesk/internal/model"
	"knowdesk/internal/pkg/fileutil"
	"knowdesk/internal/repository"
)

var (
	ErrSessionIntegrity = errors.New("session context is incomplete, please start a new chat")
	ErrSessionNotFound  = errors.New("session not found")
	ErrMessageEmpty     = errors.New("message content is empty")
)

// Identity is what the auth collaborator knows about the caller. A nil
// identity means an anonymous session.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// SessionContext binds one conversation's identifiers. It is constructed
// once at session start, returned to the caller, and passed back explicitly
// on every turn; the coordinator holds no ambient per-session state.
type SessionContext struct {
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	ThreadID      string `json:"thread_id"`
	AssistantID   string `json:"assistant_id"`
	VectorStoreID string `json:"vector_store_id"`
}

// SessionService coordinates chat sessions across the Record Store, the
// remote index and the remote conversation service.
type SessionService struct {
	sessions     *repository.ChatSessionRepository
	messages     *repository.MessageRepository
	users        *repository.UserRepository
	index        *IndexService
	conversation ConversationGateway
	publisher    ActivityPublisher
	historyCache HistoryCache

	titleMaxLength int
	logger         *slog.Logger
}

func NewSessionService(
	sessions *repository.ChatSessionRepository,
	messages *repository.MessageRepository,
	users *repository.UserRepository,
	index *IndexService,
	conversation ConversationGateway,
	publisher ActivityPublisher,
	historyCache HistoryCache,
	titleMaxLength int,
	logger *slog.Logger,
) *SessionService {
	if titleMaxLength <= 0 {
		titleMaxLength = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions:       sessions,
		messages:       messages,
		users:          users,
		index:          index,
		conversation:   conversation,
		publisher:      publisher,
		historyCache:   historyCache,
		titleMaxLength: titleMaxLength,
		logger:         logger,
	}
}

// Start opens a new chat session: resolves the caller's identity, the
// organization's index, a bound assistant and a fresh thread, then persists
// the session row tying them together. The returned context is the caller's
// handle for the session's lifetime.
func (s *SessionService) Start(ctx context.Context, identity *Identity) (*SessionContext, error) {
	userID := s.resolveUser(identity)

	vectorStoreID, err := s.index.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	assistantID, err := s.conversation.CreateAssistant(ctx, vectorStoreID)
	if err != nil {
		return nil, err
	}
	threadID, err := s.conversation.CreateThread(ctx)
	if err != nil {
		return nil, err
	}

	session := &model.ChatSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		ThreadID:      threadID,
		AssistantID:   assistantID,
		VectorStoreID: vectorStoreID,
		Title:         model.DefaultSessionTitle,
		Status:        model.SessionStatusActive,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, model.Event{
		Type:      model.EventSessionStarted,
		SessionID: session.ID,
		Actor:     userID,
	})
	s.logger.Info("started chat session",
		"session_id", session.ID, "user_id", userID, "thread_id", threadID)

	return &SessionContext{
		SessionID:     session.ID,
		UserID:        userID,
		ThreadID:      threadID,
		AssistantID:   assistantID,
		VectorStoreID: vectorStoreID,
	}, nil
}

// HandleTurn runs one question/answer exchange. The user turn is durably
// saved before anything is forwarded upstream; the assistant turn is saved
// only after the stream has fully drained, so a crash mid-stream leaves a
// user turn without a matching reply, which is safe to resume.
func (s *SessionService) HandleTurn(
	ctx context.Context,
	sc SessionContext,
	content string,
	onChunk func(chunk string) error,
) (string, error) {
	if sc.SessionID == "" || sc.ThreadID == "" || sc.AssistantID == "" {
		return "", ErrSessionIntegrity
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrMessageEmpty
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sc.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, sc.SessionID)
	}

	userMessage := &model.Message{
		SessionID: sc.SessionID,
		Role:      model.RoleUser,
		Content:   content,
	}
	if err := s.messages.Create(userMessage); err != nil {
		return "", err
	}

	remoteMessageID, err := s.conversation.AppendMessage(ctx, sc.ThreadID, content)
	if err != nil {
		return "", err
	}

	full, err := s.conversation.StreamRun(ctx, sc.ThreadID, sc.AssistantID, onChunk)
	if err != nil {
		return "", err
	}
	full = strings.TrimSpace(full)
	if full == "" {
		full = "The model returned an empty response."
	}

	assistantMessage := &model.Message{
		SessionID:       sc.SessionID,
		Role:            model.RoleAssistant,
		Content:         full,
		RemoteMessageID: remoteMessageID,
	}
	if err := s.messages.Create(assistantMessage); err != nil {
		return "", err
	}

	// A history read landing mid-stream may have cached a reply-less
	// snapshot; invalidate again now that the assistant turn is durable.
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sc.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, sc.SessionID)
	}

	s.maybeAssignTitle(sc.SessionID, content)

	s.publishEvent(ctx, model.Event{
		Type:      model.EventTurnCompleted,
		SessionID: sc.SessionID,
		Actor:     sc.UserID,
	})

	return full, nil
}

// History returns the session's messages in order, going through the cache
// when one is configured.
func (s *SessionService) History(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messages.ListBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

// ListSessions returns the user's sessions, most recently active first.
func (s *SessionService) ListSessions(userID string, limit int) ([]model.ChatSession, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListByUserID(userID, limit)
}

// resolveUser upserts the authenticated identity, or synthesizes an
// anonymous identifier that never touches the users table.
func (s *SessionService) resolveUser(identity *Identity) string {
	if identity == nil {
		return uuid.NewString()
	}

	userID := identity.ID
	if userID == "" {
		userID = identity.Email
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	if err := s.users.Upsert(&model.User{
		ID:    userID,
		Email: identity.Email,
		Name:  identity.Name,
	}); err != nil {
		s.logger.Error("upsert user failed", "user_id", userID, "error", err)
	}
	return userID
}

// maybeAssignTitle derives the session title from the first user message,
// exactly once, after the first user/assistant exchange is persisted.
func (s *SessionService) maybeAssignTitle(sessionID, firstUserContent string) {
	count, err := s.messages.CountBySessionID(sessionID)
	if err != nil {
		s.logger.Error("count messages for title failed", "session_id", sessionID, "error", err)
		return
	}
	if count != 2 {
		return
	}

	title := fileutil.TruncateText(firstUserContent, s.titleMaxLength)
	if err := s.sessions.UpdateTitle(sessionID, title); err != nil {
		s.logger.Error("update session title failed", "session_id", sessionID, "error", err)
		return
	}
	s.logger.Info("assigned session title", "session_id", sessionID, "title", title)
}

func (s *SessionService) publishEvent(ctx context.Context, ev model.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish activity event failed", "type", ev.Type, "error", err)
	}
}

// trimMessages keeps the oldest limit messages, matching the store's
// chronological read so the cache and store paths agree.
func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[:limit]
}
