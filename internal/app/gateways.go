package app

import (
	"context"

	"knowdesk/internal/model"
)

// IndexGateway is the narrow contract against the remote vector-index
// service.
type IndexGateway interface {
	CreateVectorStore(ctx context.Context, name string) (string, error)
	RetrieveVectorStore(ctx context.Context, id string) error
	UploadFile(ctx context.Context, filename string, data []byte) (string, error)
	RegisterFile(ctx context.Context, vectorStoreID, fileID string) error
	DeleteFile(ctx context.Context, fileID string) error
}

// ConversationGateway is the narrow contract against the remote
// assistant/thread service.
type ConversationGateway interface {
	CreateAssistant(ctx context.Context, vectorStoreID string) (string, error)
	CreateThread(ctx context.Context) (string, error)
	AppendMessage(ctx context.Context, threadID, content string) (string, error)
	StreamRun(ctx context.Context, threadID, assistantID string, onChunk func(chunk string) error) (string, error)
}

// ActivityPublisher emits best-effort activity events. Implementations may
// drop events; callers only log publish failures.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// HistoryCache fronts the message history reads.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}
