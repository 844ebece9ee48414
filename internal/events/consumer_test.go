package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/example/seriestrack/internal/progress"
)

func TestApplyReport_Valid(t *testing.T) {
	store := progress.NewInMemoryStore()
	svc := progress.NewService(store, nil)
	seriesID := uuid.New()

	ev := ReportEvent{
		EventID:  uuid.NewString(),
		UserID:   "user-a",
		SeriesID: seriesID.String(),
		Season:   1,
		Episode:  3,
		Status:   "completed",
	}
	data, _ := json.Marshal(ev)

	if err := ApplyReport(context.Background(), svc, data); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec, err := store.Get(context.Background(), progress.Key{UserID: "user-a", SeriesID: seriesID, Season: 1, Episode: 3})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != progress.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
}

// Redelivering the same event must not create a second record.
func TestApplyReport_RedeliveryIdempotent(t *testing.T) {
	store := progress.NewInMemoryStore()
	svc := progress.NewService(store, nil)
	seriesID := uuid.New()

	ev := ReportEvent{UserID: "user-a", SeriesID: seriesID.String(), Season: 1, Episode: 1, Status: "in_progress"}
	data, _ := json.Marshal(ev)

	for i := 0; i < 3; i++ {
		if err := ApplyReport(context.Background(), svc, data); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	recs, _ := store.ListBySeries(context.Background(), "user-a", seriesID)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after redelivery, got %d", len(recs))
	}
}

func TestApplyReport_TerminalErrors(t *testing.T) {
	svc := progress.NewService(progress.NewInMemoryStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		data []byte
	}{
		{"bad json", []byte("{not json")},
		{"bad series id", mustMarshal(t, ReportEvent{UserID: "u", SeriesID: "nope", Season: 1, Episode: 1, Status: "completed"})},
		{"bad status", mustMarshal(t, ReportEvent{UserID: "u", SeriesID: uuid.NewString(), Season: 1, Episode: 1, Status: "watched"})},
		{"bad episode", mustMarshal(t, ReportEvent{UserID: "u", SeriesID: uuid.NewString(), Season: 1, Episode: 0, Status: "completed"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ApplyReport(ctx, svc, tc.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !terminal(err) {
				t.Fatalf("expected terminal error, got retryable: %v", err)
			}
		})
	}
}

func TestApplyReport_StorageFailureIsRetryable(t *testing.T) {
	svc := progress.NewService(failingStore{}, nil)
	data := mustMarshal(t, ReportEvent{UserID: "u", SeriesID: uuid.NewString(), Season: 1, Episode: 1, Status: "completed"})

	err := ApplyReport(context.Background(), svc, data)
	if err == nil {
		t.Fatal("expected error")
	}
	if terminal(err) {
		t.Fatalf("storage failure must be retryable, got terminal: %v", err)
	}
}

type failingStore struct{}

func (failingStore) Upsert(context.Context, progress.Key, progress.Status) (progress.EpisodeProgress, error) {
	return progress.EpisodeProgress{}, errors.New("db down")
}
func (failingStore) Get(context.Context, progress.Key) (progress.EpisodeProgress, error) {
	return progress.EpisodeProgress{}, errors.New("db down")
}
func (failingStore) ListBySeries(context.Context, string, uuid.UUID) ([]progress.EpisodeProgress, error) {
	return nil, errors.New("db down")
}
func (failingStore) ListRecentlyUpdated(context.Context, string, int) ([]progress.EpisodeProgress, error) {
	return nil, errors.New("db down")
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
