package source

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// DefaultMaxAge is how long a downloaded catalog is reused.
const DefaultMaxAge = 24 * time.Hour

// DiskCache keeps the last downloaded catalog in the data directory.
type DiskCache struct {
	fs     afero.Fs
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewDiskCache creates a cache under dir. A non-positive maxAge uses
// DefaultMaxAge.
func NewDiskCache(fsys afero.Fs, dir string, maxAge time.Duration) *DiskCache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &DiskCache{fs: fsys, dir: dir, maxAge: maxAge, now: time.Now}
}

// Path returns the cache file for a catalog extension, e.g. "m3u".
func (c *DiskCache) Path(ext string) string {
	return filepath.Join(c.dir, "catalog."+ext)
}

// Load returns the cached catalog when it exists, is not empty and is
// younger than the max age.
func (c *DiskCache) Load(ext string) ([]byte, bool) {
	p := c.Path(ext)
	info, err := c.fs.Stat(p)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return nil, false
	}
	if c.now().Sub(info.ModTime()) >= c.maxAge {
		return nil, false
	}
	data, err := afero.ReadFile(c.fs, p)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Store replaces the cached catalog. The data is written to a temporary
// file first so a reader never sees a partial catalog.
func (c *DiskCache) Store(ext string, data []byte) error {
	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp := c.Path(ext) + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write catalog cache: %w", err)
	}
	if err := c.fs.Rename(tmp, c.Path(ext)); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("replace catalog cache: %w", err)
	}
	return nil
}

// CachedFile describes one cached catalog.
type CachedFile struct {
	Path    string
	Size    int64
	ModTime time.Time
	Fresh   bool
}

// Files lists the cached catalogs for the given extensions.
func (c *DiskCache) Files(exts ...string) []CachedFile {
	var out []CachedFile
	for _, ext := range exts {
		info, err := c.fs.Stat(c.Path(ext))
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, CachedFile{
			Path:    c.Path(ext),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Fresh:   info.Size() > 0 && c.now().Sub(info.ModTime()) < c.maxAge,
		})
	}
	return out
}

// Clear removes the cached catalogs for the given extensions and returns
// how many were removed.
func (c *DiskCache) Clear(exts ...string) (int, error) {
	removed := 0
	for _, ext := range exts {
		err := c.fs.Remove(c.Path(ext))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove catalog cache: %w", err)
		}
	}
	return removed, nil
}
