package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/example/seriestrack/internal/account"
	"github.com/example/seriestrack/internal/progress"
	"github.com/example/seriestrack/internal/series"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "seriestrack.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ensureSeries(t *testing.T, db *DB, externalID string) series.Series {
	t.Helper()
	rec, err := NewSeriesStore(db).Ensure(context.Background(), series.Series{
		ExternalID: externalID,
		Source:     series.SourceTMDB,
		Title:      "Show " + externalID,
	})
	if err != nil {
		t.Fatalf("ensure series: %v", err)
	}
	return rec
}

func TestSeriesStore_EnsureIsStable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewSeriesStore(db)

	first, err := store.Ensure(ctx, series.Series{ExternalID: "1396", Source: series.SourceTMDB, Title: "Breaking Bad", TotalSeasons: 5})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// Bare re-ensure must keep id and metadata.
	second, err := store.Ensure(ctx, series.Series{ExternalID: "1396", Source: series.SourceTMDB})
	if err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected stable id across ensures")
	}
	if second.Title != "Breaking Bad" || second.TotalSeasons != 5 {
		t.Fatalf("expected metadata preserved, got %+v", second)
	}

	got, err := store.GetByExternalID(ctx, series.SourceTMDB, "1396")
	if err != nil || got.ID != first.ID {
		t.Fatalf("get by external id: %+v err %v", got, err)
	}
}

func TestProgressStore_UpsertIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sr := ensureSeries(t, db, "1396")
	store := NewProgressStore(db)
	key := progress.Key{UserID: "user-a", SeriesID: sr.ID, Season: 1, Episode: 1}

	first, err := store.Upsert(ctx, key, progress.StatusInProgress)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := store.Upsert(ctx, key, progress.StatusCompleted)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatal("expected one record per key")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("expected created_at preserved on update")
	}
	if second.Status != progress.StatusCompleted {
		t.Fatalf("expected completed, got %s", second.Status)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Fatal("expected updated_at to advance")
	}
}

func TestProgressStore_ListBySeriesOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sr := ensureSeries(t, db, "1396")
	store := NewProgressStore(db)

	for _, r := range []struct{ season, episode int }{{2, 1}, {1, 2}, {1, 1}, {0, 3}} {
		key := progress.Key{UserID: "user-a", SeriesID: sr.ID, Season: r.season, Episode: r.episode}
		if _, err := store.Upsert(ctx, key, progress.StatusCompleted); err != nil {
			t.Fatalf("upsert s%de%d: %v", r.season, r.episode, err)
		}
	}

	recs, err := store.ListBySeries(ctx, "user-a", sr.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []struct{ season, episode int }{{0, 3}, {1, 1}, {1, 2}, {2, 1}}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, w := range want {
		if recs[i].Season != w.season || recs[i].Episode != w.episode {
			t.Fatalf("position %d: expected s%de%d, got s%de%d", i, w.season, w.episode, recs[i].Season, recs[i].Episode)
		}
	}
}

func TestProgressStore_GetAbsent(t *testing.T) {
	db := openTestDB(t)
	sr := ensureSeries(t, db, "1396")

	_, err := NewProgressStore(db).Get(context.Background(), progress.Key{UserID: "u", SeriesID: sr.ID, Season: 1, Episode: 1})
	if err != progress.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProgressStore_RecentlyUpdated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sr := ensureSeries(t, db, "1396")
	store := NewProgressStore(db)

	for ep := 1; ep <= 5; ep++ {
		key := progress.Key{UserID: "user-a", SeriesID: sr.ID, Season: 1, Episode: ep}
		if _, err := store.Upsert(ctx, key, progress.StatusCompleted); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	recs, err := store.ListRecentlyUpdated(ctx, "user-a", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].UpdatedAt.Before(recs[1].UpdatedAt) {
		t.Fatal("expected updated_at descending")
	}
}

func TestAccountStore_UniqueEmail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewAccountStore(db)

	u, err := store.Create(ctx, "Ana@Example.com", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}

	if _, err := store.Create(ctx, "ana@example.com", "Dup"); err != account.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil || got.Email != u.Email {
		t.Fatalf("get by id: %+v err %v", got, err)
	}
	if _, err := store.GetByID(ctx, uuid.New()); err != account.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
