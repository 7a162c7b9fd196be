// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/pkg/title"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[strings.ToLower(c.General.LogLevel)] {
		errs = append(errs, fmt.Sprintf("general.log_level: must be one of debug, info, warn, error; got %q", c.General.LogLevel))
	}

	errs = append(errs, c.validateProvider()...)
	errs = append(errs, c.validateLibraries()...)

	if c.TMDB.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.requests_per_second: must not be negative, got %g", c.TMDB.RequestsPerSecond))
	}

	for name, v := range map[string]int{
		"sync.batch_size":         c.Sync.BatchSize,
		"sync.max_connections":    c.Sync.MaxConnections,
		"sync.enrich_concurrency": c.Sync.EnrichConcurrency,
		"sync.write_concurrency":  c.Sync.WriteConcurrency,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s: must not be negative, got %d", name, v))
		}
	}

	if k := c.Notifications.Kodi; k != nil {
		if err := checkURL(k.URL); err != "" {
			errs = append(errs, "notifications.kodi.url: "+err)
		}
	}
	if p := c.Notifications.Plex; p != nil {
		if err := checkURL(p.URL); err != "" {
			errs = append(errs, "notifications.plex.url: "+err)
		}
		if p.Token == "" {
			errs = append(errs, "notifications.plex.token: required when plex is configured")
		}
	}

	return errs
}

func (c *Config) validateProvider() []string {
	var errs []string
	p := c.Provider

	format, err := catalog.ParseFormat(p.Format)
	if err != nil {
		return append(errs, fmt.Sprintf("provider.format: must be m3u or xtream; got %q", p.Format))
	}

	if p.Retries < 0 {
		errs = append(errs, fmt.Sprintf("provider.retries: must not be negative, got %d", p.Retries))
	}

	if format == catalog.FormatM3U && p.M3UURL != "" {
		if err := checkURL(p.M3UURL); err != "" {
			errs = append(errs, "provider.m3u_url: "+err)
		}
		return errs
	}

	if err := checkURL(p.Server); err != "" {
		errs = append(errs, "provider.server: "+err)
	}
	if p.Username == "" {
		errs = append(errs, "provider.username: required")
	}
	if p.Password == "" {
		errs = append(errs, "provider.password: required (set it in the file, the environment or with 'iptvstrm credentials set')")
	}
	return errs
}

// validateLibraries requires at least one root and rejects roots that are
// equal or nested, since a scan of one would see the other's files.
func (c *Config) validateLibraries() []string {
	roots := c.Roots()
	if len(roots) == 0 {
		return []string{"libraries: at least one library (movies, tv or sports) must be configured"}
	}

	var errs []string
	for i, a := range title.Kinds {
		for _, b := range title.Kinds[i+1:] {
			ra, rb := roots[a], roots[b]
			if ra == "" || rb == "" {
				continue
			}
			if nested(ra, rb) || nested(rb, ra) {
				errs = append(errs, fmt.Sprintf("libraries: %s root %q and %s root %q must be distinct and not nested", a, ra, b, rb))
			}
		}
	}
	return errs
}

// nested reports whether child is parent or lies below it.
func nested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func checkURL(raw string) string {
	if raw == "" {
		return "required"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("must be an http(s) URL, got %q", raw)
	}
	return ""
}
