package account

import (
	"context"
	"testing"
)

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	s := NewInMemoryStore()

	u, err := s.Create(context.Background(), "Ana@Example.com", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.CreatedAt.IsZero() {
		t.Fatal("expected created_at set")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, "ana@example.com", "Ana"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, "ANA@example.com", "Other"); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreate_EmptyEmail(t *testing.T) {
	s := NewInMemoryStore()

	if _, err := s.Create(context.Background(), "  ", "x"); err != ErrEmailRequired {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first, _ := s.Create(ctx, "a@example.com", "A")
	second, _ := s.Create(ctx, "b@example.com", "B")

	users, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].CreatedAt.Before(users[1].CreatedAt) {
		t.Fatal("expected newest first")
	}
	_ = first
	_ = second
}

func TestGetByID_Missing(t *testing.T) {
	s := NewInMemoryStore()

	u, _ := s.Create(context.Background(), "a@example.com", "A")
	got, err := s.GetByID(context.Background(), u.ID)
	if err != nil || got.Email != "a@example.com" {
		t.Fatalf("expected user back, got %+v err %v", got, err)
	}
}
