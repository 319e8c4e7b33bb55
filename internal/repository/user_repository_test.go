package repository

import (
	"testing"

	"knowdesk/internal/model"
)

func TestUserRepository_UpsertInsertsThenUpdates(t *testing.T) {
	users := NewUserRepository(openTestDB(t))

	if err := users.Upsert(&model.User{ID: "u1", Email: "a@b.c", Name: "Ada"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := users.Upsert(&model.User{ID: "u1", Email: "new@b.c", Name: "Ada L."}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	user, err := users.GetByID("u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user == nil {
		t.Fatal("user not found")
	}
	if user.Email != "new@b.c" || user.Name != "Ada L." {
		t.Errorf("user = %+v, want refreshed email and name", user)
	}
	if user.LastLogin.IsZero() {
		t.Error("last_login not set on upsert")
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	users := NewUserRepository(openTestDB(t))

	if err := users.Create(&model.User{ID: "u1", Email: "a@b.c"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	user, err := users.GetByEmail("a@b.c")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Errorf("user = %+v, want u1", user)
	}

	missing, err := users.GetByEmail("nobody@b.c")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("user = %+v, want nil", missing)
	}
}
