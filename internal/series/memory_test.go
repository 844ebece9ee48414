package series

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestEnsure_CreatesLazily(t *testing.T) {
	s := NewInMemoryStore()

	created, err := s.Ensure(context.Background(), Series{ExternalID: "1396", Source: SourceTMDB})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected id assigned")
	}
	if created.Type != TypeTV {
		t.Fatalf("expected default type tv, got %s", created.Type)
	}
	if created.Title != "" {
		t.Fatalf("expected bare record without metadata, got title %q", created.Title)
	}
}

func TestEnsure_SameExternalIDSameRecord(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first, _ := s.Ensure(ctx, Series{ExternalID: "1396", Source: SourceTMDB})
	second, err := s.Ensure(ctx, Series{ExternalID: "1396", Source: SourceTMDB})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the same record for the same (source, external_id)")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("expected created_at preserved")
	}
}

func TestEnsure_MetadataRefreshDoesNotClobber(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_, err := s.Ensure(ctx, Series{
		ExternalID:   "1396",
		Source:       SourceTMDB,
		Title:        "Breaking Bad",
		Overview:     "A chemistry teacher.",
		PosterURL:    "https://img/poster.jpg",
		TotalSeasons: 5,
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// Lazy progress-path ensure carries no metadata; it must not blank any.
	got, err := s.Ensure(ctx, Series{ExternalID: "1396", Source: SourceTMDB})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got.Title != "Breaking Bad" || got.Overview == "" || got.PosterURL == "" || got.TotalSeasons != 5 {
		t.Fatalf("expected metadata preserved, got %+v", got)
	}
}

func TestEnsure_RequiresExternalID(t *testing.T) {
	s := NewInMemoryStore()

	if _, err := s.Ensure(context.Background(), Series{Source: SourceTMDB}); err == nil {
		t.Fatal("expected error for missing external id")
	}
}

func TestGetByIDs_OmitsMissing(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	a, _ := s.Ensure(ctx, Series{ExternalID: "1", Source: SourceTMDB, Title: "A"})
	b, _ := s.Ensure(ctx, Series{ExternalID: "2", Source: SourceTMDB, Title: "B"})
	missing := uuid.New()

	got, err := s.GetByIDs(ctx, []uuid.UUID{a.ID, b.ID, missing})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 found, got %d", len(got))
	}
	if _, ok := got[missing]; ok {
		t.Fatal("expected missing id omitted")
	}
}

func TestGetByExternalID(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	created, _ := s.Ensure(ctx, Series{ExternalID: "603", Source: SourceTMDB, Type: TypeMovie, Title: "The Matrix"})

	got, err := s.GetByExternalID(ctx, SourceTMDB, "603")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || got.Type != TypeMovie {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, err := s.GetByExternalID(ctx, SourceTMDB, "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
