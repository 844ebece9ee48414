// Package config loads service configuration from the environment into an
// explicit struct that is passed to component constructors. Components never
// read the environment themselves.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type StorageConfig struct {
	// DatabaseURL selects the Postgres backend when set.
	DatabaseURL string
	// SQLitePath selects the embedded backend when DatabaseURL is empty.
	SQLitePath string
}

type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	// RequestsPerSecond caps outbound catalog calls.
	RequestsPerSecond int
}

type NATSConfig struct {
	URL string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	Storage     StorageConfig
	TMDB        TMDBConfig
	NATS        NATSConfig

	JWTSecret []byte

	// CacheTTL bounds staleness of cached catalog responses.
	CacheTTL time.Duration
	// CatalogRateLimit is the per-IP request budget (req/s) on catalog routes.
	CatalogRateLimit float64
	CatalogBurst     int
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: envStr("SERVICE_NAME", "seriestrack"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Addr: envStr("HTTP_ADDR", ":8080"),
		},
		Storage: StorageConfig{
			DatabaseURL: envStr("DATABASE_URL", ""),
			SQLitePath:  envStr("SQLITE_PATH", ""),
		},
		TMDB: TMDBConfig{
			APIKey:            envStr("TMDB_API_KEY", ""),
			BaseURL:           envStr("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			ImageBaseURL:      envStr("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
			RequestsPerSecond: envInt("TMDB_RPS", 4),
		},
		NATS: NATSConfig{
			URL: envStr("NATS_URL", ""),
		},
		JWTSecret:        []byte(envStr("JWT_SECRET", "")),
		CacheTTL:         envDuration("CATALOG_CACHE_TTL", 60*time.Second),
		CatalogRateLimit: envFloat("CATALOG_RATE_LIMIT", 5),
		CatalogBurst:     envInt("CATALOG_RATE_BURST", 10),
	}
	if cfg.TMDB.APIKey == "" {
		return AppConfig{}, errors.New("TMDB_API_KEY is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
