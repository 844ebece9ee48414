package progress

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

func (s *PostgresStore) Upsert(ctx context.Context, key Key, status Status) (EpisodeProgress, error) {
	q := `
INSERT INTO episode_progress (id, user_id, series_id, season_number, episode_number, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (user_id, series_id, season_number, episode_number)
DO UPDATE SET
  status     = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at
RETURNING id, status, created_at, updated_at`

	rec := EpisodeProgress{
		UserID:   key.UserID,
		SeriesID: key.SeriesID,
		Season:   key.Season,
		Episode:  key.Episode,
	}
	err := s.db.QueryRow(ctx, q,
		uuid.New(), key.UserID, key.SeriesID, key.Season, key.Episode, status, time.Now().UTC(),
	).Scan(&rec.ID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return EpisodeProgress{}, storageErr("upsert progress", err)
	}
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (EpisodeProgress, error) {
	q := `SELECT id, status, created_at, updated_at
	      FROM episode_progress
	      WHERE user_id=$1 AND series_id=$2 AND season_number=$3 AND episode_number=$4`

	rec := EpisodeProgress{
		UserID:   key.UserID,
		SeriesID: key.SeriesID,
		Season:   key.Season,
		Episode:  key.Episode,
	}
	err := s.db.QueryRow(ctx, q, key.UserID, key.SeriesID, key.Season, key.Episode).
		Scan(&rec.ID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EpisodeProgress{}, ErrNotFound
		}
		return EpisodeProgress{}, storageErr("get progress", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListBySeries(ctx context.Context, userID string, seriesID uuid.UUID) ([]EpisodeProgress, error) {
	q := `SELECT id, season_number, episode_number, status, created_at, updated_at
	      FROM episode_progress
	      WHERE user_id=$1 AND series_id=$2
	      ORDER BY season_number ASC, episode_number ASC`

	rows, err := s.db.Query(ctx, q, userID, seriesID)
	if err != nil {
		return nil, storageErr("list series progress", err)
	}
	defer rows.Close()

	var out []EpisodeProgress
	for rows.Next() {
		rec := EpisodeProgress{UserID: userID, SeriesID: seriesID}
		if err := rows.Scan(&rec.ID, &rec.Season, &rec.Episode, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, storageErr("scan series progress", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list series progress", err)
	}
	return out, nil
}

func (s *PostgresStore) ListRecentlyUpdated(ctx context.Context, userID string, limit int) ([]EpisodeProgress, error) {
	if limit <= 0 {
		limit = 25
	}
	q := `SELECT id, series_id, season_number, episode_number, status, created_at, updated_at
	      FROM episode_progress
	      WHERE user_id=$1
	      ORDER BY updated_at DESC, id DESC
	      LIMIT $2`

	rows, err := s.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, storageErr("list recent progress", err)
	}
	defer rows.Close()

	var out []EpisodeProgress
	for rows.Next() {
		rec := EpisodeProgress{UserID: userID}
		if err := rows.Scan(&rec.ID, &rec.SeriesID, &rec.Season, &rec.Episode, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, storageErr("scan recent progress", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list recent progress", err)
	}
	return out, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
