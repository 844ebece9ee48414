package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Postgres-backed implementation.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ensure(ctx context.Context, in Series) (Series, error) {
	if err := validate(in); err != nil {
		return Series{}, err
	}
	if in.Type == "" {
		in.Type = TypeTV
	}

	// NULLIF keeps empty input from blanking previously cached metadata.
	q := `
INSERT INTO series (id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (source, external_id)
DO UPDATE SET
  media_type    = series.media_type,
  title         = COALESCE(NULLIF(EXCLUDED.title, ''), series.title),
  overview      = COALESCE(NULLIF(EXCLUDED.overview, ''), series.overview),
  poster_url    = COALESCE(NULLIF(EXCLUDED.poster_url, ''), series.poster_url),
  backdrop_url  = COALESCE(NULLIF(EXCLUDED.backdrop_url, ''), series.backdrop_url),
  total_seasons = CASE WHEN EXCLUDED.total_seasons > 0 THEN EXCLUDED.total_seasons ELSE series.total_seasons END,
  updated_at    = EXCLUDED.updated_at
RETURNING id, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at`

	out := Series{ExternalID: in.ExternalID, Source: in.Source}
	err := s.db.QueryRow(ctx, q,
		uuid.New(), in.ExternalID, in.Source, in.Type, in.Title, in.Overview,
		in.PosterURL, in.BackdropURL, in.TotalSeasons, time.Now().UTC(),
	).Scan(&out.ID, &out.Type, &out.Title, &out.Overview, &out.PosterURL, &out.BackdropURL,
		&out.TotalSeasons, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Series{}, storageErr("ensure series", err)
	}
	return out, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (Series, error) {
	q := `SELECT id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at
	      FROM series WHERE id=$1`
	return s.scanOne(s.db.QueryRow(ctx, q, id))
}

func (s *PostgresStore) GetByExternalID(ctx context.Context, source, externalID string) (Series, error) {
	q := `SELECT id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at
	      FROM series WHERE source=$1 AND external_id=$2`
	return s.scanOne(s.db.QueryRow(ctx, q, source, externalID))
}

func (s *PostgresStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Series, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Series{}, nil
	}
	q := `SELECT id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at
	      FROM series WHERE id = ANY($1)`

	rows, err := s.db.Query(ctx, q, ids)
	if err != nil {
		return nil, storageErr("get series by ids", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]Series, len(ids))
	for rows.Next() {
		var rec Series
		if err := rows.Scan(&rec.ID, &rec.ExternalID, &rec.Source, &rec.Type, &rec.Title, &rec.Overview,
			&rec.PosterURL, &rec.BackdropURL, &rec.TotalSeasons, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, storageErr("scan series", err)
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get series by ids", err)
	}
	return out, nil
}

func (s *PostgresStore) scanOne(row pgx.Row) (Series, error) {
	var rec Series
	err := row.Scan(&rec.ID, &rec.ExternalID, &rec.Source, &rec.Type, &rec.Title, &rec.Overview,
		&rec.PosterURL, &rec.BackdropURL, &rec.TotalSeasons, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Series{}, ErrNotFound
		}
		return Series{}, storageErr("get series", err)
	}
	return rec, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
