package app

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"knowdesk/internal/model"
)

// openTestDB opens an in-memory SQLite DB with all tables migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.ChatSession{},
		&model.Message{},
		&model.VectorStore{},
		&model.Event{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// fakeIndexGateway counts calls and fails on demand.
type fakeIndexGateway struct {
	mu sync.Mutex

	createCalls   int
	retrieveCalls int
	uploadCalls   int
	registerCalls int
	deleteCalls   int

	createErr   error
	retrieveErr error
	uploadErr   error
	registerErr error
	deleteErr   error

	nextID int
}

func (f *fakeIndexGateway) CreateVectorStore(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	return fmt.Sprintf("vs_%d", f.nextID), nil
}

func (f *fakeIndexGateway) RetrieveVectorStore(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveCalls++
	return f.retrieveErr
}

func (f *fakeIndexGateway) UploadFile(_ context.Context, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.nextID++
	return fmt.Sprintf("file_%d", f.nextID), nil
}

func (f *fakeIndexGateway) RegisterFile(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	return f.registerErr
}

func (f *fakeIndexGateway) DeleteFile(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

// fakeConversationGateway records interactions and streams canned chunks.
type fakeConversationGateway struct {
	assistantCalls int
	threadCalls    int
	appendCalls    int
	streamCalls    int

	assistantErr error
	threadErr    error
	appendErr    error
	streamErr    error

	chunks []string
}

func (f *fakeConversationGateway) CreateAssistant(_ context.Context, _ string) (string, error) {
	f.assistantCalls++
	if f.assistantErr != nil {
		return "", f.assistantErr
	}
	return "asst_1", nil
}

func (f *fakeConversationGateway) CreateThread(_ context.Context) (string, error) {
	f.threadCalls++
	if f.threadErr != nil {
		return "", f.threadErr
	}
	return "thread_1", nil
}

func (f *fakeConversationGateway) AppendMessage(_ context.Context, _, _ string) (string, error) {
	f.appendCalls++
	if f.appendErr != nil {
		return "", f.appendErr
	}
	return "msg_remote_1", nil
}

func (f *fakeConversationGateway) StreamRun(_ context.Context, _, _ string, onChunk func(chunk string) error) (string, error) {
	f.streamCalls++
	if f.streamErr != nil {
		return "", f.streamErr
	}
	full := ""
	for _, chunk := range f.chunks {
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return "", err
			}
		}
		full += chunk
	}
	return full, nil
}

// fakeHistoryCache is a map-backed stand-in for the Redis history cache.
// Dirty markers never expire on their own; tests drop them with expireDirty
// to model the marker TTL running out.
type fakeHistoryCache struct {
	mu sync.Mutex

	histories map[string][]model.Message
	dirty     map[string]bool

	markDirtyCalls int
	deleteCalls    int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{
		histories: map[string][]model.Message{},
		dirty:     map[string]bool{},
	}
}

func (f *fakeHistoryCache) GetHistory(_ context.Context, sessionID string) ([]model.Message, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	messages, ok := f.histories[sessionID]
	return messages, ok, nil
}

func (f *fakeHistoryCache) SetHistory(_ context.Context, sessionID string, messages []model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories[sessionID] = messages
	return nil
}

func (f *fakeHistoryCache) DeleteHistory(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	delete(f.histories, sessionID)
	return nil
}

func (f *fakeHistoryCache) MarkDirty(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markDirtyCalls++
	f.dirty[sessionID] = true
	return nil
}

func (f *fakeHistoryCache) IsDirty(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty[sessionID], nil
}

func (f *fakeHistoryCache) expireDirty(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dirty, sessionID)
}

// seed plants a cached history with no dirty marker, as if a reader cached
// it after the marker expired.
func (f *fakeHistoryCache) seed(sessionID string, messages []model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories[sessionID] = messages
	delete(f.dirty, sessionID)
}

// fakePublisher collects published events in memory.
type fakePublisher struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) byType(eventType string) []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, ev := range f.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}
