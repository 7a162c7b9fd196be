// Package source downloads the provider catalog, either an M3U playlist or
// an Xtream player_api listing, and keeps a dated copy on disk.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vmunix/iptvstrm/internal/catalog"
)

// Source yields the raw catalog bytes for one provider format.
type Source struct {
	format  catalog.Format
	m3uURL  string
	fetcher *Fetcher
	xtream  *XtreamClient
	cache   *DiskCache
	refresh bool
	log     *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithCache reuses a recent download from cache.
func WithCache(c *DiskCache) Option {
	return func(s *Source) {
		s.cache = c
	}
}

// WithRefresh ignores the cached copy and always downloads.
func WithRefresh(refresh bool) Option {
	return func(s *Source) {
		s.refresh = refresh
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(log *slog.Logger) Option {
	return func(s *Source) {
		if log != nil {
			s.log = log
		}
	}
}

// NewM3U creates a source that downloads the playlist at playlistURL.
func NewM3U(fetcher *Fetcher, playlistURL string, opts ...Option) *Source {
	return newSource(catalog.FormatM3U, fetcher, playlistURL, nil, opts)
}

// NewXtream creates a source backed by an Xtream client.
func NewXtream(client *XtreamClient, opts ...Option) *Source {
	return newSource(catalog.FormatXtream, client.fetcher, "", client, opts)
}

func newSource(format catalog.Format, f *Fetcher, m3uURL string, x *XtreamClient, opts []Option) *Source {
	s := &Source{format: format, m3uURL: m3uURL, fetcher: f, xtream: x, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "source", "format", format)
	return s
}

// Format returns the format of the bytes Fetch returns.
func (s *Source) Format() catalog.Format {
	return s.format
}

// Fetch returns the catalog, from the disk cache when fresh. A download
// that fails is never replaced by a stale copy.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	ext := s.format.Extension()
	if s.cache != nil && !s.refresh {
		if data, ok := s.cache.Load(ext); ok {
			s.log.Info("using cached catalog", "path", s.cache.Path(ext), "bytes", len(data))
			return data, nil
		}
	}

	data, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("catalog downloaded", "bytes", len(data))

	if s.cache != nil {
		if err := s.cache.Store(ext, data); err != nil {
			s.log.Warn("cache catalog failed", "error", err)
		}
	}
	return data, nil
}

func (s *Source) download(ctx context.Context) ([]byte, error) {
	switch s.format {
	case catalog.FormatM3U:
		return s.fetcher.Get(ctx, s.m3uURL)
	case catalog.FormatXtream:
		payload, err := s.xtream.FetchCatalog(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode xtream catalog: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownFormat, s.format)
}
