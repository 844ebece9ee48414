// Package tmdb is the TMDB v3 catalog client. The gateway is rate limited and
// occasionally failing; every transport or HTTP error wraps
// ErrGatewayUnavailable so callers can degrade catalog display without
// touching progress writes.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/seriestrack/internal/ratelimit"
)

// ErrGatewayUnavailable marks catalog transport and HTTP failures.
var ErrGatewayUnavailable = errors.New("catalog gateway unavailable")

// Config carries the injected TMDB settings; no process-wide state.
type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	// RequestsPerSecond caps outbound calls; 0 disables pacing.
	RequestsPerSecond int
}

type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *ratelimit.Limiter
}

func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	imageBaseURL := cfg.ImageBaseURL
	if imageBaseURL == "" {
		imageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	var limiter *ratelimit.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = ratelimit.NewRPS(cfg.RequestsPerSecond)
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		limiter:      limiter,
	}
}

type searchTVResponse struct {
	Results []struct {
		ID           int    `json:"id"`
		Name         string `json:"name"`
		Overview     string `json:"overview"`
		PosterPath   string `json:"poster_path"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

type tvDetailsResponse struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Overview        string `json:"overview"`
	PosterPath      string `json:"poster_path"`
	BackdropPath    string `json:"backdrop_path"`
	NumberOfSeasons int    `json:"number_of_seasons"`
	Seasons         []struct {
		SeasonNumber int    `json:"season_number"`
		EpisodeCount int    `json:"episode_count"`
		Name         string `json:"name"`
		Overview     string `json:"overview"`
		PosterPath   string `json:"poster_path"`
	} `json:"seasons"`
}

type seasonResponse struct {
	Episodes []struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		Overview      string `json:"overview"`
		StillPath     string `json:"still_path"`
		EpisodeNumber int    `json:"episode_number"`
		SeasonNumber  int    `json:"season_number"`
	} `json:"episodes"`
}

func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var out searchTVResponse
	if err := c.get(ctx, "/search/tv", url.Values{"query": []string{query}}, &out); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, SearchResult{
			ExternalID:   strconv.Itoa(r.ID),
			Title:        r.Name,
			Overview:     r.Overview,
			PosterURL:    c.imageURL(r.PosterPath),
			FirstAirDate: r.FirstAirDate,
		})
	}
	return results, nil
}

func (c *Client) GetDetails(ctx context.Context, externalID string) (Details, error) {
	var out tvDetailsResponse
	if err := c.get(ctx, "/tv/"+url.PathEscape(externalID), nil, &out); err != nil {
		return Details{}, err
	}

	d := Details{
		ExternalID:   strconv.Itoa(out.ID),
		Title:        out.Name,
		Overview:     out.Overview,
		PosterURL:    c.imageURL(out.PosterPath),
		BackdropURL:  c.imageURL(out.BackdropPath),
		TotalSeasons: out.NumberOfSeasons,
		Seasons:      make([]Season, 0, len(out.Seasons)),
	}
	for _, s := range out.Seasons {
		d.Seasons = append(d.Seasons, Season{
			SeasonNumber: s.SeasonNumber,
			EpisodeCount: s.EpisodeCount,
			Name:         s.Name,
			Overview:     s.Overview,
			PosterURL:    c.imageURL(s.PosterPath),
		})
	}
	return d, nil
}

func (c *Client) GetSeasonEpisodes(ctx context.Context, externalID string, seasonNumber int) ([]Episode, error) {
	path := "/tv/" + url.PathEscape(externalID) + "/season/" + strconv.Itoa(seasonNumber)
	var out seasonResponse
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}

	episodes := make([]Episode, 0, len(out.Episodes))
	for _, ep := range out.Episodes {
		episodes = append(episodes, Episode{
			ID:            ep.ID,
			Name:          ep.Name,
			Overview:      ep.Overview,
			StillURL:      c.imageURL(ep.StillPath),
			EpisodeNumber: ep.EpisodeNumber,
			SeasonNumber:  ep.SeasonNumber,
		})
	}
	return episodes, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: bad url: %v", ErrGatewayUnavailable, err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "seriestrack/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d body=%q", ErrGatewayUnavailable, resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: decode: %v body=%q", ErrGatewayUnavailable, err, string(b[:min(len(b), 200)]))
	}
	return nil
}

func (c *Client) imageURL(path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + path
}
