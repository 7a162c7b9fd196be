package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/iptvstrm/internal/tmdb"
)

//go:generate mockgen -destination=mocks/catalog.go -package=mocks github.com/vmunix/iptvstrm/internal/metadata Catalog

// Catalog is the external metadata catalog. *tmdb.Client satisfies it.
type Catalog interface {
	SearchMovie(ctx context.Context, query, year string) ([]tmdb.MovieResult, error)
	SearchTV(ctx context.Context, query, year string) ([]tmdb.TVResult, error)
	GetMovie(ctx context.Context, id int64) (*tmdb.Movie, error)
	GetTV(ctx context.Context, id int64) (*tmdb.TV, error)
	GetEpisode(ctx context.Context, tvID int64, season, episode int) (*tmdb.Episode, error)
}

const (
	// Cache TTLs
	detailTTL  = 7 * 24 * time.Hour // 7 days
	episodeTTL = 3 * 24 * time.Hour // 3 days
	searchTTL  = 24 * time.Hour     // 24 hours
)

// Cache key prefixes
const (
	keyPrefixSearchMovie = "tmdb:search:movie:"
	keyPrefixSearchTV    = "tmdb:search:tv:"
	keyPrefixMovie       = "tmdb:movie:"
	keyPrefixTV          = "tmdb:tv:"
	keyPrefixEpisode     = "tmdb:episode:"
)

// CachedCatalog wraps a Catalog with the persistent cache. Identical
// requests within the TTL return the stored response without a network call.
type CachedCatalog struct {
	next      Catalog
	cache     *Cache
	detailTTL time.Duration
	log       *slog.Logger
}

// NewCachedCatalog creates a cache-through catalog. A zero ttl uses the
// default detail TTL.
func NewCachedCatalog(next Catalog, cache *Cache, ttl time.Duration, log *slog.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = detailTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedCatalog{
		next:      next,
		cache:     cache,
		detailTTL: ttl,
		log:       log.With("component", "metadata-cache"),
	}
}

// SearchMovie searches movies by title (cached).
func (c *CachedCatalog) SearchMovie(ctx context.Context, query, year string) ([]tmdb.MovieResult, error) {
	key := keyPrefixSearchMovie + searchKey(query, year)
	return cached(ctx, c, key, searchTTL, func() ([]tmdb.MovieResult, error) {
		return c.next.SearchMovie(ctx, query, year)
	})
}

// SearchTV searches shows by name (cached).
func (c *CachedCatalog) SearchTV(ctx context.Context, query, year string) ([]tmdb.TVResult, error) {
	key := keyPrefixSearchTV + searchKey(query, year)
	return cached(ctx, c, key, searchTTL, func() ([]tmdb.TVResult, error) {
		return c.next.SearchTV(ctx, query, year)
	})
}

// GetMovie fetches movie details by id (cached).
func (c *CachedCatalog) GetMovie(ctx context.Context, id int64) (*tmdb.Movie, error) {
	key := fmt.Sprintf("%s%d", keyPrefixMovie, id)
	return cached(ctx, c, key, c.detailTTL, func() (*tmdb.Movie, error) {
		return c.next.GetMovie(ctx, id)
	})
}

// GetTV fetches show details by id (cached).
func (c *CachedCatalog) GetTV(ctx context.Context, id int64) (*tmdb.TV, error) {
	key := fmt.Sprintf("%s%d", keyPrefixTV, id)
	return cached(ctx, c, key, c.detailTTL, func() (*tmdb.TV, error) {
		return c.next.GetTV(ctx, id)
	})
}

// GetEpisode fetches one episode (cached).
func (c *CachedCatalog) GetEpisode(ctx context.Context, tvID int64, season, episode int) (*tmdb.Episode, error) {
	key := fmt.Sprintf("%s%d:%d:%d", keyPrefixEpisode, tvID, season, episode)
	return cached(ctx, c, key, episodeTTL, func() (*tmdb.Episode, error) {
		return c.next.GetEpisode(ctx, tvID, season, episode)
	})
}

// InvalidateShow removes cached details for a show.
func (c *CachedCatalog) InvalidateShow(ctx context.Context, id int64) error {
	if err := c.cache.Delete(ctx, fmt.Sprintf("%s%d", keyPrefixTV, id)); err != nil {
		return fmt.Errorf("invalidate show %d: %w", id, err)
	}
	c.log.Debug("invalidated show cache", "tmdb_id", id)
	return nil
}

func cached[T any](ctx context.Context, c *CachedCatalog, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	// Check cache first
	if data, ok := c.cache.Get(ctx, key).Get(); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.log.Debug("cache hit", "key", key)
			return v, nil
		}
		// If unmarshal fails, treat as cache miss and fetch fresh data
		c.log.Warn("failed to unmarshal cached value", "key", key)
	}

	c.log.Debug("cache miss, calling API", "key", key)
	v, err := fetch()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the operation
		c.log.Warn("failed to marshal value for cache", "key", key, "error", err)
		return v, nil
	}
	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.log.Warn("failed to cache value", "key", key, "error", err)
	}
	return v, nil
}

func searchKey(query, year string) string {
	return strings.ToLower(strings.TrimSpace(query)) + ":" + year
}
