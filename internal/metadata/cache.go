package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Cache provides SQLite-backed caching for metadata API responses.
type Cache struct {
	db *sql.DB
}

// NewCache creates a new metadata cache.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Get retrieves a cached value by key. Missing and expired keys are None.
func (c *Cache) Get(ctx context.Context, key string) mo.Option[[]byte] {
	var value string
	var expiresAt time.Time

	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM metadata_cache WHERE key = ?", key,
	).Scan(&value, &expiresAt)

	if err != nil || time.Now().After(expiresAt) {
		return mo.None[[]byte]()
	}

	return mo.Some([]byte(value))
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO metadata_cache (key, value, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, string(value), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM metadata_cache WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Prune removes all expired entries.
// Returns the number of entries removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM metadata_cache WHERE expires_at < ?", time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return result.RowsAffected()
}

// Clear removes every entry. Returns the number of entries removed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM metadata_cache")
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return result.RowsAffected()
}

// Stats reports the number of live and expired entries.
func (c *Cache) Stats(ctx context.Context) (live, expired int64, err error) {
	err = c.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN expires_at >= ? THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN expires_at < ? THEN 1 ELSE 0 END), 0)
		 FROM metadata_cache`,
		time.Now(), time.Now(),
	).Scan(&live, &expired)
	if err != nil {
		return 0, 0, fmt.Errorf("cache stats: %w", err)
	}
	return live, expired, nil
}
