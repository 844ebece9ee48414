package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/seriestrack/internal/events"
	"github.com/example/seriestrack/internal/platform/api"
	"github.com/example/seriestrack/internal/platform/auth"
	"github.com/example/seriestrack/internal/platform/httpserver"
	"github.com/example/seriestrack/internal/progress"
	"github.com/example/seriestrack/internal/series"
)

type reportProgressRequest struct {
	SeriesExternalID string `json:"series_external_id"`
	Season           int    `json:"season"`
	Episode          int    `json:"episode"`
	Status           string `json:"status"`
}

type markSeasonRequest struct {
	SeriesExternalID string `json:"series_external_id"`
	Season           int    `json:"season"`
	EpisodeCount     int    `json:"episode_count"`
}

type batchFailureEntry struct {
	Episode int    `json:"episode"`
	Error   string `json:"error"`
}

// ReportPublisher is the async write path for progress reports. *events.Publisher
// implements it; handlers accept the interface so tests can substitute a double.
type ReportPublisher interface {
	Enabled() bool
	PublishReport(ev events.ReportEvent) (string, error)
}

// ReportProgress handles POST /v1/progress. When a publisher is available the
// report is accepted onto the event stream and applied asynchronously;
// otherwise it is written through synchronously. Requests are validated in
// full before a report is accepted either way: a 202 means the report will be
// applied, so nothing the consumer would reject may reach the stream.
func ReportProgress(svc *progress.Service, registry series.Store, pub ReportPublisher, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "missing user identity", rid)
			return
		}

		var req reportProgressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_REQUEST", "malformed JSON body", rid, nil)
			return
		}

		status, err := progress.ParseStatus(req.Status)
		if err != nil {
			api.BadRequest(w, "INVALID_REQUEST", "unrecognized status", rid, map[string]any{"field": "status"})
			return
		}
		if req.Season < 0 {
			api.BadRequest(w, "INVALID_REQUEST", "season must be >= 0", rid, map[string]any{"field": "season"})
			return
		}
		if req.Episode < 1 {
			api.BadRequest(w, "INVALID_REQUEST", "episode must be >= 1", rid, map[string]any{"field": "episode"})
			return
		}

		s, err := ensureSeries(r, registry, req.SeriesExternalID, rid, w)
		if err != nil {
			return
		}

		if pub != nil && pub.Enabled() {
			eventID, err := pub.PublishReport(events.ReportEvent{
				UserID:   userID,
				SeriesID: s.ID.String(),
				Season:   req.Season,
				Episode:  req.Episode,
				Status:   string(status),
			})
			if err == nil {
				api.WriteJSON(w, http.StatusAccepted, map[string]any{"event_id": eventID})
				return
			}
			// The stream being down must not lose the report.
			log.Warn("event publish failed, writing synchronously",
				zap.String("request_id", rid), zap.Error(err))
		}

		rec, err := svc.ReportProgress(r.Context(), userID, s.ID, req.Season, req.Episode, status)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, rec)
	}
}

// MarkSeasonWatched handles POST /v1/progress/season. Partial failures come
// back as 207 with the updated subset and the failed episode list.
func MarkSeasonWatched(svc *progress.Service, registry series.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "missing user identity", rid)
			return
		}

		var req markSeasonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_REQUEST", "malformed JSON body", rid, nil)
			return
		}

		s, err := ensureSeries(r, registry, req.SeriesExternalID, rid, w)
		if err != nil {
			return
		}

		updated, err := svc.MarkSeasonWatched(r.Context(), userID, s.ID, req.Season, req.EpisodeCount)
		if err != nil {
			var batchErr *progress.BatchError
			if errors.As(err, &batchErr) {
				failed := make([]batchFailureEntry, 0, len(batchErr.Failed))
				for _, f := range batchErr.Failed {
					failed = append(failed, batchFailureEntry{Episode: f.Episode, Error: f.Err.Error()})
				}
				api.WriteJSON(w, http.StatusMultiStatus, map[string]any{
					"code":    "PARTIAL_BATCH_FAILURE",
					"season":  batchErr.Season,
					"updated": updated,
					"failed":  failed,
				})
				return
			}
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"updated": updated})
	}
}

// SeriesProgress handles GET /v1/series/{external_id}/progress. A series the
// user never reported against yields an empty list, not 404.
func SeriesProgress(svc *progress.Service, registry series.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "missing user identity", rid)
			return
		}

		externalID := strings.TrimSpace(chi.URLParam(r, "external_id"))
		if externalID == "" {
			api.BadRequest(w, "INVALID_REQUEST", "series id is required", rid, nil)
			return
		}

		s, err := registry.GetByExternalID(r.Context(), series.SourceTMDB, externalID)
		if err != nil {
			if errors.Is(err, series.ErrNotFound) {
				api.WriteJSON(w, http.StatusOK, map[string]any{"progress": []progress.EpisodeProgress{}})
				return
			}
			writeServiceError(w, rid, err)
			return
		}

		records, err := svc.GetSeriesProgress(r.Context(), userID, s.ID)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"progress": records})
	}
}

type continueWatchingEntry struct {
	progress.EpisodeProgress
	Series *series.Series `json:"series,omitempty"`
}

// ContinueWatching handles GET /v1/continue-watching?limit=. Series metadata is
// joined in at render time; a record whose series row is missing is still
// returned without it.
func ContinueWatching(svc *progress.Service, registry series.Store, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "missing user identity", rid)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				api.BadRequest(w, "INVALID_REQUEST", "limit must be an integer", rid, map[string]any{"field": "limit"})
				return
			}
			limit = n
		}

		records, err := svc.ContinueWatching(r.Context(), userID, limit)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}

		ids := make([]uuid.UUID, 0, len(records))
		seen := make(map[uuid.UUID]struct{}, len(records))
		for _, rec := range records {
			if _, ok := seen[rec.SeriesID]; !ok {
				seen[rec.SeriesID] = struct{}{}
				ids = append(ids, rec.SeriesID)
			}
		}

		meta, err := registry.GetByIDs(r.Context(), ids)
		if err != nil {
			// Progress is the payload; metadata is decoration.
			log.Warn("series metadata lookup failed", zap.String("request_id", rid), zap.Error(err))
			meta = nil
		}

		entries := make([]continueWatchingEntry, 0, len(records))
		for _, rec := range records {
			entry := continueWatchingEntry{EpisodeProgress: rec}
			if s, ok := meta[rec.SeriesID]; ok {
				sc := s
				entry.Series = &sc
			}
			entries = append(entries, entry)
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": entries})
	}
}

// ensureSeries resolves an external id to the local registry row, creating it
// lazily. It writes the error response itself and returns a non-nil error to
// signal the handler to stop.
func ensureSeries(r *http.Request, registry series.Store, externalID, rid string, w http.ResponseWriter) (series.Series, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		api.BadRequest(w, "INVALID_REQUEST", "series_external_id is required", rid, map[string]any{"field": "series_external_id"})
		return series.Series{}, errors.New("missing series id")
	}
	s, err := registry.Ensure(r.Context(), series.Series{
		ExternalID: externalID,
		Source:     series.SourceTMDB,
		Type:       series.TypeTV,
	})
	if err != nil {
		writeServiceError(w, rid, err)
		return series.Series{}, err
	}
	return s, nil
}
