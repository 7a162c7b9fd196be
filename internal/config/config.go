// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/vmunix/iptvstrm/pkg/title"
)

// Config is the root configuration structure.
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Database      DatabaseConfig      `toml:"database"`
	Provider      ProviderConfig      `toml:"provider"`
	Libraries     LibrariesConfig     `toml:"libraries"`
	TMDB          TMDBConfig          `toml:"tmdb"`
	Sync          SyncConfig          `toml:"sync"`
	Notifications NotificationsConfig `toml:"notifications"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `toml:"log_level"`
	DataDir  string `toml:"data_dir"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ProviderConfig describes the IPTV provider. For m3u either M3UURL or
// the server credentials are required; xtream always needs credentials.
type ProviderConfig struct {
	Format            string        `toml:"format"`
	Server            string        `toml:"server"`
	Username          string        `toml:"username"`
	Password          string        `toml:"password"`
	M3UURL            string        `toml:"m3u_url"`
	MaxAge            time.Duration `toml:"max_age"`
	StreamExt         string        `toml:"stream_ext"`
	SportKeywords     []string      `toml:"sport_keywords"`
	ExcludeGroups     []string      `toml:"exclude_groups"`
	UserAgent         string        `toml:"user_agent"`
	Timeout           time.Duration `toml:"timeout"`
	Retries           int           `toml:"retries"`
	SeriesConcurrency int           `toml:"series_concurrency"`
}

type LibrariesConfig struct {
	Movies string `toml:"movies"`
	TV     string `toml:"tv"`
	Sports string `toml:"sports"`
}

type TMDBConfig struct {
	APIKey            string        `toml:"api_key"`
	Language          string        `toml:"language"`
	Country           string        `toml:"country"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	CacheTTL          time.Duration `toml:"cache_ttl"`
}

type SyncConfig struct {
	BatchSize         int  `toml:"batch_size"`
	MaxConnections    int  `toml:"max_connections"`
	EnrichConcurrency int  `toml:"enrich_concurrency"`
	WriteConcurrency  int  `toml:"write_concurrency"`
	WriteNFO          bool `toml:"write_nfo"`
	Prune             bool `toml:"prune"`
	ConfirmDeletes    bool `toml:"confirm_deletes"`
}

type NotificationsConfig struct {
	Kodi *KodiConfig `toml:"kodi"`
	Plex *PlexConfig `toml:"plex"`
}

type KodiConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type PlexConfig struct {
	URL        string   `toml:"url"`
	Token      string   `toml:"token"`
	Libraries  []string `toml:"libraries"`
	LocalPath  string   `toml:"local_path"`
	RemotePath string   `toml:"remote_path"`
}

type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// Roots returns the configured library root per kind. Unset kinds are absent.
func (c *Config) Roots() map[title.Kind]string {
	roots := make(map[title.Kind]string)
	for kind, root := range map[title.Kind]string{
		title.KindMovie: c.Libraries.Movies,
		title.KindTV:    c.Libraries.TV,
		title.KindSport: c.Libraries.Sports,
	} {
		if root != "" {
			roots[kind] = filepath.Clean(root)
		}
	}
	return roots
}

// SlogLevel converts general.log_level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.General.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// defaults returns a config pre-filled with the values used for keys the
// file leaves out. Decoding overlays the file on top.
func defaults() *Config {
	return &Config{
		Provider: ProviderConfig{Format: "m3u"},
		Sync: SyncConfig{
			WriteNFO:       true,
			Prune:          true,
			ConfirmDeletes: true,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.General.DataDir, "iptvstrm.db")
	}
	if c.Provider.MaxAge == 0 {
		c.Provider.MaxAge = 24 * time.Hour
	}
	if c.Provider.StreamExt == "" {
		c.Provider.StreamExt = "ts"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 5 * time.Minute
	}
	if c.Provider.Retries == 0 {
		c.Provider.Retries = 3
	}
	if c.Provider.SeriesConcurrency == 0 {
		c.Provider.SeriesConcurrency = 8
	}
	if c.TMDB.Language == "" {
		c.TMDB.Language = "en-US"
	}
	if c.TMDB.Country == "" {
		c.TMDB.Country = "US"
	}
	if c.TMDB.RequestsPerSecond == 0 {
		c.TMDB.RequestsPerSecond = 40
	}
	if c.TMDB.CacheTTL == 0 {
		c.TMDB.CacheTTL = 7 * 24 * time.Hour
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 100
	}
	if c.Sync.MaxConnections == 0 {
		c.Sync.MaxConnections = 500
	}
	if c.Sync.EnrichConcurrency == 0 {
		c.Sync.EnrichConcurrency = 200
	}
	if c.Sync.WriteConcurrency == 0 {
		c.Sync.WriteConcurrency = 100
	}
}

// Load reads, substitutes, defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadWithoutValidation loads the configuration without running Validate.
func LoadWithoutValidation(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, validate bool) (*Config, error) {
	// A .env in the working directory never overrides the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	cfg := defaults()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	cfg.resolvePassword()

	if validate {
		if errs := cfg.Validate(); len(errs) > 0 {
			return nil, &ConfigError{Path: path, Errors: errs}
		}
	}
	return cfg, nil
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references. Unresolvable
// references are left in place and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
