package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/seriestrack/internal/progress"
)

// ProgressStore implements progress.Store on the embedded database.
type ProgressStore struct {
	db *DB
}

func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) Upsert(ctx context.Context, key progress.Key, status progress.Status) (progress.EpisodeProgress, error) {
	q := `
INSERT INTO episode_progress (id, user_id, series_id, season_number, episode_number, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, series_id, season_number, episode_number)
DO UPDATE SET
  status     = excluded.status,
  updated_at = excluded.updated_at
RETURNING id, status, created_at, updated_at`

	now := toNanos(time.Now())
	rec := progress.EpisodeProgress{
		UserID:   key.UserID,
		SeriesID: key.SeriesID,
		Season:   key.Season,
		Episode:  key.Episode,
	}
	var (
		id                   string
		st                   string
		createdAt, updatedAt int64
	)
	err := s.db.db.QueryRowContext(ctx, q,
		uuid.NewString(), key.UserID, key.SeriesID.String(), key.Season, key.Episode, string(status), now, now,
	).Scan(&id, &st, &createdAt, &updatedAt)
	if err != nil {
		return progress.EpisodeProgress{}, storageErr("upsert progress", progress.ErrStorageUnavailable, err)
	}
	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return progress.EpisodeProgress{}, storageErr("upsert progress", progress.ErrStorageUnavailable, err)
	}
	rec.Status = progress.Status(st)
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	return rec, nil
}

func (s *ProgressStore) Get(ctx context.Context, key progress.Key) (progress.EpisodeProgress, error) {
	q := `SELECT id, status, created_at, updated_at
	      FROM episode_progress
	      WHERE user_id=? AND series_id=? AND season_number=? AND episode_number=?`

	rec := progress.EpisodeProgress{
		UserID:   key.UserID,
		SeriesID: key.SeriesID,
		Season:   key.Season,
		Episode:  key.Episode,
	}
	var (
		id                   string
		st                   string
		createdAt, updatedAt int64
	)
	err := s.db.db.QueryRowContext(ctx, q, key.UserID, key.SeriesID.String(), key.Season, key.Episode).
		Scan(&id, &st, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.EpisodeProgress{}, progress.ErrNotFound
		}
		return progress.EpisodeProgress{}, storageErr("get progress", progress.ErrStorageUnavailable, err)
	}
	rec.ID, _ = uuid.Parse(id)
	rec.Status = progress.Status(st)
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	return rec, nil
}

func (s *ProgressStore) ListBySeries(ctx context.Context, userID string, seriesID uuid.UUID) ([]progress.EpisodeProgress, error) {
	q := `SELECT id, season_number, episode_number, status, created_at, updated_at
	      FROM episode_progress
	      WHERE user_id=? AND series_id=?
	      ORDER BY season_number ASC, episode_number ASC`

	rows, err := s.db.db.QueryContext(ctx, q, userID, seriesID.String())
	if err != nil {
		return nil, storageErr("list series progress", progress.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []progress.EpisodeProgress
	for rows.Next() {
		rec := progress.EpisodeProgress{UserID: userID, SeriesID: seriesID}
		var (
			id                   string
			st                   string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&id, &rec.Season, &rec.Episode, &st, &createdAt, &updatedAt); err != nil {
			return nil, storageErr("scan series progress", progress.ErrStorageUnavailable, err)
		}
		rec.ID, _ = uuid.Parse(id)
		rec.Status = progress.Status(st)
		rec.CreatedAt = fromNanos(createdAt)
		rec.UpdatedAt = fromNanos(updatedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list series progress", progress.ErrStorageUnavailable, err)
	}
	return out, nil
}

func (s *ProgressStore) ListRecentlyUpdated(ctx context.Context, userID string, limit int) ([]progress.EpisodeProgress, error) {
	if limit <= 0 {
		limit = 25
	}
	q := `SELECT id, series_id, season_number, episode_number, status, created_at, updated_at
	      FROM episode_progress
	      WHERE user_id=?
	      ORDER BY updated_at DESC, id DESC
	      LIMIT ?`

	rows, err := s.db.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, storageErr("list recent progress", progress.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []progress.EpisodeProgress
	for rows.Next() {
		rec := progress.EpisodeProgress{UserID: userID}
		var (
			id, sid              string
			st                   string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&id, &sid, &rec.Season, &rec.Episode, &st, &createdAt, &updatedAt); err != nil {
			return nil, storageErr("scan recent progress", progress.ErrStorageUnavailable, err)
		}
		rec.ID, _ = uuid.Parse(id)
		rec.SeriesID, _ = uuid.Parse(sid)
		rec.Status = progress.Status(st)
		rec.CreatedAt = fromNanos(createdAt)
		rec.UpdatedAt = fromNanos(updatedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list recent progress", progress.ErrStorageUnavailable, err)
	}
	return out, nil
}

func storageErr(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}
