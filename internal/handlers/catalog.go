package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/seriestrack/internal/platform/api"
	"github.com/example/seriestrack/internal/platform/httpserver"
	"github.com/example/seriestrack/internal/series"
	"github.com/example/seriestrack/internal/tmdb"
)

// SearchSeries handles GET /v1/series/search?q=
func SearchSeries(catalog tmdb.Provider, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			api.BadRequest(w, "MISSING_QUERY", "query parameter 'q' is required", rid, nil)
			return
		}

		key := "search:" + strings.ToLower(q)
		if cached, ok := cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		results, err := catalog.Search(r.Context(), q)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}

		resp := map[string]any{"results": results}
		cache.Set(key, resp)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// SeriesDetails handles GET /v1/series/{external_id}. On success the local
// series registry is refreshed as a side effect; a registry failure degrades
// to display-only rather than failing the request.
func SeriesDetails(catalog tmdb.Provider, registry series.Store, cache Cache, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		externalID := strings.TrimSpace(chi.URLParam(r, "external_id"))
		if externalID == "" {
			api.BadRequest(w, "MISSING_ID", "series id is required", rid, nil)
			return
		}

		key := "details:" + externalID
		if cached, ok := cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		details, err := catalog.GetDetails(r.Context(), externalID)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}

		if _, err := registry.Ensure(r.Context(), series.Series{
			ExternalID:   details.ExternalID,
			Source:       series.SourceTMDB,
			Type:         series.TypeTV,
			Title:        details.Title,
			Overview:     details.Overview,
			PosterURL:    details.PosterURL,
			BackdropURL:  details.BackdropURL,
			TotalSeasons: details.TotalSeasons,
		}); err != nil {
			log.Warn("series metadata refresh failed",
				zap.String("external_id", details.ExternalID),
				zap.String("request_id", rid),
				zap.Error(err))
		}

		cache.Set(key, details)
		api.WriteJSON(w, http.StatusOK, details)
	}
}

// SeasonEpisodes handles GET /v1/series/{external_id}/season/{season}
func SeasonEpisodes(catalog tmdb.Provider, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		externalID := strings.TrimSpace(chi.URLParam(r, "external_id"))
		season, err := strconv.Atoi(chi.URLParam(r, "season"))
		if externalID == "" || err != nil || season < 0 {
			api.BadRequest(w, "INVALID_REQUEST", "series id and a non-negative season are required", rid, nil)
			return
		}

		key := "season:" + externalID + ":" + strconv.Itoa(season)
		if cached, ok := cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		episodes, err := catalog.GetSeasonEpisodes(r.Context(), externalID, season)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}

		resp := map[string]any{"episodes": episodes}
		cache.Set(key, resp)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
