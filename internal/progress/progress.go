// Package progress implements per-user episode watch tracking. One record
// exists per (user, series, season, episode) key; reports mutate it in place
// and never append.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the watch state of a single episode.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", &InvalidRequestError{Field: "status", Reason: fmt.Sprintf("unrecognized status %q", s)}
}

func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Key is the composite key identifying one progress record.
// Season 0 conventionally denotes specials; episodes start at 1.
type Key struct {
	UserID   string
	SeriesID uuid.UUID
	Season   int
	Episode  int
}

// EpisodeProgress is one watch-progress record.
type EpisodeProgress struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	SeriesID  uuid.UUID `json:"series_id"`
	Season    int       `json:"season"`
	Episode   int       `json:"episode"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("progress not found")

// ErrStorageUnavailable marks store I/O failures. Callers may retry; the
// service itself does not.
var ErrStorageUnavailable = errors.New("storage unavailable")

// InvalidRequestError rejects malformed input before any store access.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Field + ": " + e.Reason
}

// EpisodeFailure records one failed write inside a batch.
type EpisodeFailure struct {
	Episode int
	Err     error
}

// BatchError reports the episodes a best-effort batch could not update.
// Successful writes are kept; nothing is rolled back.
type BatchError struct {
	Season int
	Failed []EpisodeFailure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("season %d: %d episode write(s) failed", e.Season, len(e.Failed))
}

// FailedEpisodes returns the episode numbers that failed, in report order.
func (e *BatchError) FailedEpisodes() []int {
	out := make([]int, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Episode
	}
	return out
}

// Store is the durable mapping of Key to watch status. Upsert must be atomic
// per key: concurrent writers for the same key must not lose updates, and the
// last write by commit order wins.
type Store interface {
	// Upsert inserts the record if absent, else updates status and updated_at.
	// created_at is preserved on update.
	Upsert(ctx context.Context, key Key, status Status) (EpisodeProgress, error)
	// Get returns the record for key, or ErrNotFound.
	Get(ctx context.Context, key Key) (EpisodeProgress, error)
	// ListBySeries returns the user's records for a series ordered by
	// (season asc, episode asc).
	ListBySeries(ctx context.Context, userID string, seriesID uuid.UUID) ([]EpisodeProgress, error)
	// ListRecentlyUpdated returns up to limit records ordered by updated_at
	// desc. Backs the continue-watching view.
	ListRecentlyUpdated(ctx context.Context, userID string, limit int) ([]EpisodeProgress, error)
}
