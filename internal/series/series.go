// Package series maintains the local registry of tracked shows. A series is
// created lazily the first time a user records progress against it, or cached
// explicitly from a catalog lookup; it is never deleted while progress
// references it.
package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	TypeTV    MediaType = "tv"
	TypeMovie MediaType = "movie"
)

// Source tags which external catalog an id belongs to.
const SourceTMDB = "tmdb"

// Series is the internal representation of a tracked show.
// TotalSeasons 0 means unknown.
type Series struct {
	ID           uuid.UUID `json:"id"`
	ExternalID   string    `json:"external_id"`
	Source       string    `json:"source"`
	Type         MediaType `json:"type"`
	Title        string    `json:"title"`
	Overview     string    `json:"overview,omitempty"`
	PosterURL    string    `json:"poster_url,omitempty"`
	BackdropURL  string    `json:"backdrop_url,omitempty"`
	TotalSeasons int       `json:"total_seasons,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("series not found")

// ErrStorageUnavailable marks store I/O failures.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Store persists the series registry.
type Store interface {
	// Ensure inserts the series if absent, keyed by (source, external_id), and
	// refreshes metadata otherwise. Empty metadata fields in the input never
	// blank existing values; created_at is preserved on update.
	Ensure(ctx context.Context, s Series) (Series, error)
	GetByID(ctx context.Context, id uuid.UUID) (Series, error)
	GetByExternalID(ctx context.Context, source, externalID string) (Series, error)
	// GetByIDs returns the found subset keyed by id; missing ids are omitted.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Series, error)
}

func validate(s Series) error {
	if s.ExternalID == "" {
		return fmt.Errorf("series external id is required")
	}
	if s.Source == "" {
		return fmt.Errorf("series source is required")
	}
	return nil
}
