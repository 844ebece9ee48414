package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/seriestrack/internal/account"
	"github.com/example/seriestrack/internal/platform/api"
	"github.com/example/seriestrack/internal/platform/httpserver"
)

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateUser handles POST /v1/users.
func CreateUser(accounts account.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_REQUEST", "malformed JSON body", rid, nil)
			return
		}

		user, err := accounts.Create(r.Context(), req.Email, req.Name)
		if err != nil {
			switch {
			case errors.Is(err, account.ErrEmailRequired):
				api.BadRequest(w, "INVALID_REQUEST", "email is required", rid, map[string]any{"field": "email"})
			case errors.Is(err, account.ErrEmailTaken):
				api.Conflict(w, "EMAIL_TAKEN", "email already registered", rid, nil)
			default:
				writeServiceError(w, rid, err)
			}
			return
		}
		api.WriteJSON(w, http.StatusCreated, user)
	}
}

// ListUsers handles GET /v1/users.
func ListUsers(accounts account.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		users, err := accounts.List(r.Context())
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
	}
}
