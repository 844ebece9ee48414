package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/seriestrack/internal/series"
)

// SeriesStore implements series.Store on the embedded database.
type SeriesStore struct {
	db *DB
}

func NewSeriesStore(db *DB) *SeriesStore {
	return &SeriesStore{db: db}
}

func (s *SeriesStore) Ensure(ctx context.Context, in series.Series) (series.Series, error) {
	if in.ExternalID == "" || in.Source == "" {
		return series.Series{}, errors.New("series source and external id are required")
	}
	if in.Type == "" {
		in.Type = series.TypeTV
	}

	q := `
INSERT INTO series (id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source, external_id)
DO UPDATE SET
  title         = CASE WHEN excluded.title <> '' THEN excluded.title ELSE series.title END,
  overview      = CASE WHEN excluded.overview <> '' THEN excluded.overview ELSE series.overview END,
  poster_url    = CASE WHEN excluded.poster_url <> '' THEN excluded.poster_url ELSE series.poster_url END,
  backdrop_url  = CASE WHEN excluded.backdrop_url <> '' THEN excluded.backdrop_url ELSE series.backdrop_url END,
  total_seasons = CASE WHEN excluded.total_seasons > 0 THEN excluded.total_seasons ELSE series.total_seasons END,
  updated_at    = excluded.updated_at
RETURNING id, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at`

	now := toNanos(time.Now())
	out := series.Series{ExternalID: in.ExternalID, Source: in.Source}
	var (
		id, mt               string
		createdAt, updatedAt int64
	)
	err := s.db.db.QueryRowContext(ctx, q,
		uuid.NewString(), in.ExternalID, in.Source, string(in.Type), in.Title, in.Overview,
		in.PosterURL, in.BackdropURL, in.TotalSeasons, now, now,
	).Scan(&id, &mt, &out.Title, &out.Overview, &out.PosterURL, &out.BackdropURL,
		&out.TotalSeasons, &createdAt, &updatedAt)
	if err != nil {
		return series.Series{}, storageErr("ensure series", series.ErrStorageUnavailable, err)
	}
	out.ID, _ = uuid.Parse(id)
	out.Type = series.MediaType(mt)
	out.CreatedAt = fromNanos(createdAt)
	out.UpdatedAt = fromNanos(updatedAt)
	return out, nil
}

func (s *SeriesStore) GetByID(ctx context.Context, id uuid.UUID) (series.Series, error) {
	q := `SELECT id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at
	      FROM series WHERE id=?`
	return s.scanOne(s.db.db.QueryRowContext(ctx, q, id.String()))
}

func (s *SeriesStore) GetByExternalID(ctx context.Context, source, externalID string) (series.Series, error) {
	q := `SELECT id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at
	      FROM series WHERE source=? AND external_id=?`
	return s.scanOne(s.db.db.QueryRowContext(ctx, q, source, externalID))
}

func (s *SeriesStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]series.Series, error) {
	out := make(map[uuid.UUID]series.Series, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := `SELECT id, external_id, source, media_type, title, overview, poster_url, backdrop_url, total_seasons, created_at, updated_at
	      FROM series WHERE id IN (` + placeholders + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	rows, err := s.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("get series by ids", series.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanSeries(rows.Scan)
		if err != nil {
			return nil, storageErr("scan series", series.ErrStorageUnavailable, err)
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get series by ids", series.ErrStorageUnavailable, err)
	}
	return out, nil
}

func (s *SeriesStore) scanOne(row *sql.Row) (series.Series, error) {
	rec, err := scanSeries(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return series.Series{}, series.ErrNotFound
		}
		return series.Series{}, storageErr("get series", series.ErrStorageUnavailable, err)
	}
	return rec, nil
}

func scanSeries(scan func(dest ...any) error) (series.Series, error) {
	var (
		rec                  series.Series
		id, mt               string
		createdAt, updatedAt int64
	)
	if err := scan(&id, &rec.ExternalID, &rec.Source, &mt, &rec.Title, &rec.Overview,
		&rec.PosterURL, &rec.BackdropURL, &rec.TotalSeasons, &createdAt, &updatedAt); err != nil {
		return series.Series{}, err
	}
	rec.ID, _ = uuid.Parse(id)
	rec.Type = series.MediaType(mt)
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)
	return rec, nil
}
