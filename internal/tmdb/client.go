package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.themoviedb.org"
const defaultCacheTTL = 24 * time.Hour
const defaultLanguage = "en-US"

var (
	// ErrNotFound is returned when a record doesn't exist in TMDB.
	ErrNotFound = errors.New("tmdb: not found")

	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("tmdb: invalid api key")
)

// Client is a TMDB API client.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	movies     *cache[*Movie]
	shows      *cache[*TV]
	episodes   *cache[*Episode]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCacheTTL sets the cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.movies = newCache[*Movie](ttl)
		c.shows = newCache[*TV](ttl)
		c.episodes = newCache[*Episode](ttl)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLanguage sets the response language, e.g. "de-DE".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithRateLimiter throttles outgoing requests. Cached responses do not
// consume tokens.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: defaultLanguage,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	WithCacheTTL(defaultCacheTTL)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMovie searches movies by title. An empty year searches all years.
func (c *Client) SearchMovie(ctx context.Context, query, year string) ([]MovieResult, error) {
	params := url.Values{"query": {query}}
	if year != "" {
		params.Set("year", year)
	}
	var resp searchResponse[MovieResult]
	if err := c.get(ctx, "/3/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("search movie %q: %w", query, err)
	}
	return resp.Results, nil
}

// SearchTV searches shows by name. An empty year searches all years.
func (c *Client) SearchTV(ctx context.Context, query, year string) ([]TVResult, error) {
	params := url.Values{"query": {query}}
	if year != "" {
		params.Set("first_air_date_year", year)
	}
	var resp searchResponse[TVResult]
	if err := c.get(ctx, "/3/search/tv", params, &resp); err != nil {
		return nil, fmt.Errorf("search tv %q: %w", query, err)
	}
	return resp.Results, nil
}

// GetMovie fetches movie metadata by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	key := strconv.FormatInt(tmdbID, 10)
	if movie, ok := c.movies.get(key); ok {
		return movie, nil
	}

	params := url.Values{
		"append_to_response":     {"credits,external_ids,release_dates,images"},
		"include_image_language": {"en,null"},
	}
	var movie Movie
	if err := c.get(ctx, "/3/movie/"+key, params, &movie); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", tmdbID, err)
	}

	c.movies.set(key, &movie)
	return &movie, nil
}

// GetTV fetches show metadata by TMDB ID.
func (c *Client) GetTV(ctx context.Context, tmdbID int64) (*TV, error) {
	key := strconv.FormatInt(tmdbID, 10)
	if show, ok := c.shows.get(key); ok {
		return show, nil
	}

	params := url.Values{
		"append_to_response":     {"credits,external_ids,content_ratings,images"},
		"include_image_language": {"en,null"},
	}
	var show TV
	if err := c.get(ctx, "/3/tv/"+key, params, &show); err != nil {
		return nil, fmt.Errorf("get tv %d: %w", tmdbID, err)
	}

	c.shows.set(key, &show)
	return &show, nil
}

// GetEpisode fetches one episode of a show.
func (c *Client) GetEpisode(ctx context.Context, tvID int64, season, episode int) (*Episode, error) {
	key := fmt.Sprintf("%d/%d/%d", tvID, season, episode)
	if ep, ok := c.episodes.get(key); ok {
		return ep, nil
	}

	path := fmt.Sprintf("/3/tv/%d/season/%d/episode/%d", tvID, season, episode)
	params := url.Values{"append_to_response": {"credits,external_ids"}}
	var ep Episode
	if err := c.get(ctx, path, params, &ep); err != nil {
		return nil, fmt.Errorf("get episode %s: %w", key, err)
	}

	c.episodes.set(key, &ep)
	return &ep, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("TMDB API error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
