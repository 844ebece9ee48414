package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a development and test implementation of Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[Key]EpisodeProgress
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[Key]EpisodeProgress)}
}

func (s *InMemoryStore) Upsert(_ context.Context, key Key, status Status) (EpisodeProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec, ok := s.records[key]
	if !ok {
		rec = EpisodeProgress{
			ID:        uuid.New(),
			UserID:    key.UserID,
			SeriesID:  key.SeriesID,
			Season:    key.Season,
			Episode:   key.Episode,
			CreatedAt: now,
		}
	}
	// updated_at must strictly increase even within one clock tick.
	if !now.After(rec.UpdatedAt) {
		now = rec.UpdatedAt.Add(time.Nanosecond)
	}
	rec.Status = status
	rec.UpdatedAt = now
	s.records[key] = rec
	return rec, nil
}

func (s *InMemoryStore) Get(_ context.Context, key Key) (EpisodeProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return EpisodeProgress{}, ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) ListBySeries(_ context.Context, userID string, seriesID uuid.UUID) ([]EpisodeProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []EpisodeProgress
	for _, rec := range s.records {
		if rec.UserID == userID && rec.SeriesID == seriesID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out, nil
}

func (s *InMemoryStore) ListRecentlyUpdated(_ context.Context, userID string, limit int) ([]EpisodeProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 25
	}

	var out []EpisodeProgress
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
