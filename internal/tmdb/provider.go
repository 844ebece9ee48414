package tmdb

import "context"

// SearchResult is one ranked hit from a catalog text search.
type SearchResult struct {
	ExternalID   string `json:"external_id"`
	Title        string `json:"title"`
	Overview     string `json:"overview"`
	PosterURL    string `json:"poster_url,omitempty"`
	FirstAirDate string `json:"first_air_date,omitempty"`
}

// Season summarises one season inside show details.
type Season struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterURL    string `json:"poster_url,omitempty"`
}

// Details is the full show record for a single external id.
type Details struct {
	ExternalID   string   `json:"external_id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	PosterURL    string   `json:"poster_url,omitempty"`
	BackdropURL  string   `json:"backdrop_url,omitempty"`
	TotalSeasons int      `json:"total_seasons,omitempty"`
	Seasons      []Season `json:"seasons"`
}

// Episode is one episode inside a season listing.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	StillURL      string `json:"still_url,omitempty"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
}

// Provider is the port for the external show catalog. Handlers depend on this
// so tests can substitute a double.
type Provider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	GetDetails(ctx context.Context, externalID string) (Details, error)
	GetSeasonEpisodes(ctx context.Context, externalID string, seasonNumber int) ([]Episode, error)
}
