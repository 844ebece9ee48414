package series

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type extKey struct {
	source     string
	externalID string
}

// InMemoryStore is a development and test implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]Series
	byExtern map[extKey]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[uuid.UUID]Series),
		byExtern: make(map[extKey]uuid.UUID),
	}
}

func (s *InMemoryStore) Ensure(_ context.Context, in Series) (Series, error) {
	if err := validate(in); err != nil {
		return Series{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := extKey{source: in.Source, externalID: in.ExternalID}

	id, ok := s.byExtern[key]
	if !ok {
		in.ID = uuid.New()
		if in.Type == "" {
			in.Type = TypeTV
		}
		in.CreatedAt = now
		in.UpdatedAt = now
		s.byID[in.ID] = in
		s.byExtern[key] = in.ID
		return in, nil
	}

	cur := s.byID[id]
	cur.UpdatedAt = now
	if in.Type != "" {
		cur.Type = in.Type
	}
	if in.Title != "" {
		cur.Title = in.Title
	}
	if in.Overview != "" {
		cur.Overview = in.Overview
	}
	if in.PosterURL != "" {
		cur.PosterURL = in.PosterURL
	}
	if in.BackdropURL != "" {
		cur.BackdropURL = in.BackdropURL
	}
	if in.TotalSeasons > 0 {
		cur.TotalSeasons = in.TotalSeasons
	}
	s.byID[id] = cur
	return cur, nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id uuid.UUID) (Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.byID[id]
	if !ok {
		return Series{}, ErrNotFound
	}
	return out, nil
}

func (s *InMemoryStore) GetByExternalID(_ context.Context, source, externalID string) (Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExtern[extKey{source: source, externalID: externalID}]
	if !ok {
		return Series{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemoryStore) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]Series, len(ids))
	for _, id := range ids {
		if rec, ok := s.byID[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}
