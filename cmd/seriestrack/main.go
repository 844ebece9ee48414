package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/seriestrack/internal/account"
	"github.com/example/seriestrack/internal/events"
	"github.com/example/seriestrack/internal/handlers"
	"github.com/example/seriestrack/internal/platform/auth"
	"github.com/example/seriestrack/internal/platform/config"
	"github.com/example/seriestrack/internal/platform/db"
	"github.com/example/seriestrack/internal/platform/httpserver"
	"github.com/example/seriestrack/internal/platform/logging"
	"github.com/example/seriestrack/internal/platform/natsconn"
	"github.com/example/seriestrack/internal/platform/run"
	"github.com/example/seriestrack/internal/progress"
	"github.com/example/seriestrack/internal/series"
	"github.com/example/seriestrack/internal/sqlite"
	"github.com/example/seriestrack/internal/tmdb"
	"github.com/example/seriestrack/internal/web"
)

type stores struct {
	progress progress.Store
	series   series.Store
	accounts account.Store
	ready    func() error
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("config error:", err)
		run.Exit(1)
	}

	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Println("logger error:", err)
		run.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	runner := run.New(log)
	run.Exit(runner.WithSignals(func(ctx context.Context) error {
		return serve(ctx, cfg, log)
	}))
}

func serve(ctx context.Context, cfg config.AppConfig, log *zap.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	svc := progress.NewService(st.progress, log)

	catalog := tmdb.New(tmdb.Config{
		APIKey:            cfg.TMDB.APIKey,
		BaseURL:           cfg.TMDB.BaseURL,
		ImageBaseURL:      cfg.TMDB.ImageBaseURL,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
	})

	// NATS is optional: without it reports are written synchronously and the
	// catalog cache falls back to TTL-only expiry.
	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = natsconn.Connect(natsconn.Options{
			URL:           cfg.NATS.URL,
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
		})
		if err != nil {
			log.Warn("NATS unavailable, continuing without events", zap.Error(err))
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	pub, err := events.NewPublisher(nc, log)
	if err != nil {
		return fmt.Errorf("events publisher: %w", err)
	}
	if nc != nil {
		if err := events.StartConsumer(ctx, nc, svc, log); err != nil {
			return fmt.Errorf("events consumer: %w", err)
		}
	}

	cache := handlers.NewTTLCache(cfg.CacheTTL, nc, "catalog.invalidate")
	limiter := web.NewRateLimiter(cfg.CatalogRateLimit, cfg.CatalogBurst)
	requireUser := auth.RequireUser(auth.JWTVerifier{Secret: cfg.JWTSecret})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: st.ready})

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Get("/series/search", handlers.SearchSeries(catalog, cache))
			r.Get("/series/{external_id}", handlers.SeriesDetails(catalog, st.series, cache, log))
			r.Get("/series/{external_id}/season/{season}", handlers.SeasonEpisodes(catalog, cache))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/progress", handlers.ReportProgress(svc, st.series, pub, log))
			r.Post("/progress/season", handlers.MarkSeasonWatched(svc, st.series))
			r.Get("/series/{external_id}/progress", handlers.SeriesProgress(svc, st.series))
			r.Get("/continue-watching", handlers.ContinueWatching(svc, st.series, log))
		})

		r.Post("/users", handlers.CreateUser(st.accounts))
		r.Get("/users", handlers.ListUsers(st.accounts))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: r})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
	}()

	if err := srv.Start(log); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func openStores(ctx context.Context, cfg config.AppConfig, log *zap.Logger) (stores, error) {
	switch {
	case cfg.Storage.DatabaseURL != "":
		pool, err := db.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return stores{}, fmt.Errorf("postgres: %w", err)
		}
		log.Info("storage backend selected", zap.String("backend", "postgres"))
		return stores{
			progress: progress.NewPostgresStore(pool),
			series:   series.NewPostgresStore(pool),
			accounts: account.NewPostgresStore(pool),
			ready:    func() error { return pool.Ping(context.Background()) },
			close:    pool.Close,
		}, nil

	case cfg.Storage.SQLitePath != "":
		sdb, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("sqlite: %w", err)
		}
		log.Info("storage backend selected",
			zap.String("backend", "sqlite"),
			zap.String("path", cfg.Storage.SQLitePath))
		return stores{
			progress: sqlite.NewProgressStore(sdb),
			series:   sqlite.NewSeriesStore(sdb),
			accounts: sqlite.NewAccountStore(sdb),
			ready:    func() error { return sdb.Ping(context.Background()) },
			close:    func() { _ = sdb.Close() },
		}, nil

	default:
		// Dev fallback: everything is lost on restart.
		log.Warn("no DATABASE_URL or SQLITE_PATH set, using in-memory storage")
		return stores{
			progress: progress.NewInMemoryStore(),
			series:   series.NewInMemoryStore(),
			accounts: account.NewInMemoryStore(),
			ready:    func() error { return nil },
			close:    func() {},
		}, nil
	}
}
