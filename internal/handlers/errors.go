package handlers

import (
	"errors"
	"net/http"

	"github.com/example/seriestrack/internal/account"
	"github.com/example/seriestrack/internal/platform/api"
	"github.com/example/seriestrack/internal/progress"
	"github.com/example/seriestrack/internal/series"
	"github.com/example/seriestrack/internal/tmdb"
)

// writeServiceError maps domain errors onto the API envelope. Every error
// kind is stable so clients can branch on it; catalog and storage failures
// stay distinct so the two subsystems degrade independently.
func writeServiceError(w http.ResponseWriter, rid string, err error) {
	var ire *progress.InvalidRequestError
	if errors.As(err, &ire) {
		api.BadRequest(w, "INVALID_REQUEST", ire.Error(), rid, map[string]any{
			"field":  ire.Field,
			"reason": ire.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, tmdb.ErrGatewayUnavailable):
		api.BadGateway(w, "CATALOG_UNAVAILABLE", "Show catalog is temporarily unavailable", rid)
	case errors.Is(err, progress.ErrStorageUnavailable),
		errors.Is(err, series.ErrStorageUnavailable),
		errors.Is(err, account.ErrStorageUnavailable):
		api.Unavailable(w, "STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", rid)
	case errors.Is(err, progress.ErrNotFound),
		errors.Is(err, series.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "Not found", rid)
	default:
		api.Internal(w, rid)
	}
}
