package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSeasonEpisodes bounds one season batch; no real season comes close, and
// the loop below runs one write per episode.
const maxSeasonEpisodes = 500

// Service is the only writer-facing entry point for progress. It validates
// requests before they reach the store and never retries storage failures.
type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// ReportProgress applies a single watch report. Reporting the same status
// twice is a no-op write that still bumps updated_at. Reporting in_progress
// after completed is permitted and resets the status (re-watch semantics);
// there is deliberately no rejection of backward transitions.
func (s *Service) ReportProgress(ctx context.Context, userID string, seriesID uuid.UUID, season, episode int, status Status) (EpisodeProgress, error) {
	key := Key{UserID: userID, SeriesID: seriesID, Season: season, Episode: episode}
	if err := validateKey(key); err != nil {
		return EpisodeProgress{}, err
	}
	if !status.Valid() {
		return EpisodeProgress{}, &InvalidRequestError{Field: "status", Reason: "unrecognized status"}
	}

	rec, err := s.store.Upsert(ctx, key, status)
	if err != nil {
		return EpisodeProgress{}, err
	}
	return rec, nil
}

// MarkSeasonWatched marks episodes 1..episodeCount of a season completed.
// Best-effort: it continues past individual episode failures and returns the
// successfully-updated subset together with a *BatchError naming the episodes
// that failed. Successful writes are never rolled back.
func (s *Service) MarkSeasonWatched(ctx context.Context, userID string, seriesID uuid.UUID, season, episodeCount int) ([]EpisodeProgress, error) {
	if userID == "" {
		return nil, &InvalidRequestError{Field: "user_id", Reason: "must not be empty"}
	}
	if season < 0 {
		return nil, &InvalidRequestError{Field: "season", Reason: "must be >= 0"}
	}
	if episodeCount < 1 {
		return nil, &InvalidRequestError{Field: "episode_count", Reason: "must be >= 1"}
	}
	if episodeCount > maxSeasonEpisodes {
		return nil, &InvalidRequestError{Field: "episode_count", Reason: fmt.Sprintf("must be <= %d", maxSeasonEpisodes)}
	}

	updated := make([]EpisodeProgress, 0, episodeCount)
	var failed []EpisodeFailure
	for ep := 1; ep <= episodeCount; ep++ {
		key := Key{UserID: userID, SeriesID: seriesID, Season: season, Episode: ep}
		rec, err := s.store.Upsert(ctx, key, StatusCompleted)
		if err != nil {
			s.log.Warn("season batch episode write failed",
				zap.String("user_id", userID),
				zap.String("series_id", seriesID.String()),
				zap.Int("season", season),
				zap.Int("episode", ep),
				zap.Error(err))
			failed = append(failed, EpisodeFailure{Episode: ep, Err: err})
			// The caller walked away; completed writes stay durable but there
			// is no point reporting further episodes.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		updated = append(updated, rec)
	}

	if len(failed) > 0 {
		return updated, &BatchError{Season: season, Failed: failed}
	}
	return updated, nil
}

// GetSeriesProgress returns the user's records for a series ordered by
// (season, episode).
func (s *Service) GetSeriesProgress(ctx context.Context, userID string, seriesID uuid.UUID) ([]EpisodeProgress, error) {
	if userID == "" {
		return nil, &InvalidRequestError{Field: "user_id", Reason: "must not be empty"}
	}
	return s.store.ListBySeries(ctx, userID, seriesID)
}

// ContinueWatching returns the user's most recently updated records.
func (s *Service) ContinueWatching(ctx context.Context, userID string, limit int) ([]EpisodeProgress, error) {
	if userID == "" {
		return nil, &InvalidRequestError{Field: "user_id", Reason: "must not be empty"}
	}
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListRecentlyUpdated(ctx, userID, limit)
}

func validateKey(key Key) error {
	if key.UserID == "" {
		return &InvalidRequestError{Field: "user_id", Reason: "must not be empty"}
	}
	if key.SeriesID == uuid.Nil {
		return &InvalidRequestError{Field: "series_id", Reason: "must not be empty"}
	}
	if key.Season < 0 {
		return &InvalidRequestError{Field: "season", Reason: "must be >= 0"}
	}
	if key.Episode < 1 {
		return &InvalidRequestError{Field: "episode", Reason: "must be >= 1"}
	}
	return nil
}
