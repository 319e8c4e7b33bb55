package repository

import (
	"testing"
	"time"

	"knowdesk/internal/model"
)

func TestChatSessionRepository_CreateDefaults(t *testing.T) {
	sessions := NewChatSessionRepository(openTestDB(t))

	if err := sessions.Create(&model.ChatSession{ID: "s1", UserID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	session, err := sessions.GetByID("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.Title != model.DefaultSessionTitle {
		t.Errorf("title = %q, want %q", session.Title, model.DefaultSessionTitle)
	}
	if session.Status != model.SessionStatusActive {
		t.Errorf("status = %q, want %q", session.Status, model.SessionStatusActive)
	}
	if session.LastActivity.IsZero() {
		t.Error("last_activity not initialized")
	}
}

func TestChatSessionRepository_ListByUserID(t *testing.T) {
	db := openTestDB(t)
	sessions := NewChatSessionRepository(db)

	now := time.Now()
	for _, s := range []model.ChatSession{
		{ID: "stale", UserID: "u1", LastActivity: now.Add(-2 * time.Hour)},
		{ID: "fresh", UserID: "u1", LastActivity: now},
		{ID: "other", UserID: "u2", LastActivity: now},
	} {
		session := s
		if err := sessions.Create(&session); err != nil {
			t.Fatalf("create %s: %v", session.ID, err)
		}
	}

	listed, err := sessions.ListByUserID("u1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed = %d, want 2 for u1", len(listed))
	}
	if listed[0].ID != "fresh" || listed[1].ID != "stale" {
		t.Errorf("order = [%s %s], want most recent first", listed[0].ID, listed[1].ID)
	}
}

func TestChatSessionRepository_UpdateTitle(t *testing.T) {
	sessions := NewChatSessionRepository(openTestDB(t))

	if err := sessions.Create(&model.ChatSession{ID: "s1", UserID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := sessions.UpdateTitle("s1", "Leave policy"); err != nil {
		t.Fatalf("update title: %v", err)
	}

	session, err := sessions.GetByID("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.Title != "Leave policy" {
		t.Errorf("title = %q, want updated", session.Title)
	}
}

func TestChatSessionRepository_GetByIDUnknown(t *testing.T) {
	sessions := NewChatSessionRepository(openTestDB(t))

	session, err := sessions.GetByID("missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
}
