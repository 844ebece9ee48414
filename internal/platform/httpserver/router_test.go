package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestRouter(cfg ...RouterConfig) chi.Router {
	r := chi.NewRouter()
	SetupRouter(r, cfg...)
	return r
}

func TestHealthz(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected body 'ok', got %q", rr.Body.String())
	}
}

func TestReadyz_NoReadyFunc(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestReadyz_ReadyFuncError(t *testing.T) {
	r := newTestRouter(RouterConfig{ReadyFunc: func() error { return errors.New("db down") }})
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	r := newTestRouter()
	r.Get("/echo", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(RequestIDFromContext(req.Context())))
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Body.String() != "rid-123" {
		t.Fatalf("expected request id to round-trip, got %q", rr.Body.String())
	}
	if rr.Header().Get("X-Request-Id") != "rid-123" {
		t.Fatalf("expected response header to carry request id")
	}
}

func TestRequestIDReplacesUnusableInbound(t *testing.T) {
	r := newTestRouter()
	r.Get("/echo", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(RequestIDFromContext(req.Context())))
	})

	cases := []struct {
		name string
		rid  string
	}{
		{"empty", ""},
		{"oversized", strings.Repeat("a", 65)},
		{"control chars", "rid\r\nSet-Cookie: x"},
		{"non-ascii", "rid-é"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			if tc.rid != "" {
				req.Header.Set("X-Request-Id", tc.rid)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			got := rr.Body.String()
			if got == "" || got == tc.rid {
				t.Fatalf("request id %q, want a freshly minted one", got)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("minted id %q is not a uuid: %v", got, err)
			}
		})
	}
}
