package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/config"
	"github.com/vmunix/iptvstrm/internal/importer"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/migrations"
	"github.com/vmunix/iptvstrm/internal/pipeline"
	"github.com/vmunix/iptvstrm/internal/source"
	"github.com/vmunix/iptvstrm/internal/tmdb"
)

const (
	mediaServerTimeout = 30 * time.Second
	tmdbTimeout        = 15 * time.Second
)

// resolveConfigPath returns --config or the discovered config file.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Discover()
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// openDB opens the state database and applies the schema.
func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; enrichment writes cache rows from many goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func xtreamAccount(cfg *config.Config) catalog.XtreamAccount {
	return catalog.XtreamAccount{
		Server:    cfg.Provider.Server,
		Username:  cfg.Provider.Username,
		Password:  cfg.Provider.Password,
		StreamExt: cfg.Provider.StreamExt,
	}
}

func newFetcher(cfg *config.Config, hc *http.Client, log *slog.Logger) *source.Fetcher {
	return source.NewFetcher(
		source.WithHTTPClient(hc),
		source.WithUserAgent(cfg.Provider.UserAgent),
		source.WithRetries(cfg.Provider.Retries),
		source.WithLogger(log),
	)
}

func newXtreamClient(cfg *config.Config, fetcher *source.Fetcher, log *slog.Logger) *source.XtreamClient {
	limiter := rate.NewLimiter(rate.Limit(cfg.Provider.SeriesConcurrency), cfg.Provider.SeriesConcurrency)
	return source.NewXtreamClient(fetcher, xtreamAccount(cfg), limiter, log).
		WithConcurrency(cfg.Provider.SeriesConcurrency)
}

// newSource builds the catalog source for the configured provider format.
func newSource(cfg *config.Config, hc *http.Client, refresh bool, log *slog.Logger) (*source.Source, error) {
	format, err := catalog.ParseFormat(cfg.Provider.Format)
	if err != nil {
		return nil, err
	}
	fetcher := newFetcher(cfg, hc, log)
	opts := []source.Option{
		source.WithCache(catalogCache(cfg)),
		source.WithRefresh(refresh),
		source.WithSourceLogger(log),
	}

	if format == catalog.FormatXtream {
		return source.NewXtream(newXtreamClient(cfg, fetcher, log), opts...), nil
	}
	playlist := cfg.Provider.M3UURL
	if playlist == "" {
		playlist = source.M3UURL(cfg.Provider.Server, cfg.Provider.Username, cfg.Provider.Password, cfg.Provider.StreamExt)
	}
	return source.NewM3U(fetcher, playlist, opts...), nil
}

func newParser(cfg *config.Config, log *slog.Logger) *catalog.Parser {
	return catalog.NewParser(
		catalog.WithSportKeywords(cfg.Provider.SportKeywords),
		catalog.WithXtreamAccount(xtreamAccount(cfg)),
		catalog.WithExcludeGroups(cfg.Provider.ExcludeGroups),
		catalog.WithLogger(log),
	)
}

// newEnricher returns nil when no metadata API key is configured.
func newEnricher(cfg *config.Config, db *sql.DB, rt http.RoundTripper, log *slog.Logger) *metadata.Enricher {
	if cfg.TMDB.APIKey == "" {
		log.Info("tmdb api key not set, metadata enrichment disabled")
		return nil
	}
	limit := rate.Inf
	if cfg.TMDB.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.TMDB.RequestsPerSecond)
	}
	client := tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithHTTPClient(pipeline.NewHTTPClient(rt, tmdbTimeout)),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRateLimiter(rate.NewLimiter(limit, max(1, int(cfg.TMDB.RequestsPerSecond)))),
	)
	cached := metadata.NewCachedCatalog(client, metadata.NewCache(db), cfg.TMDB.CacheTTL, log)
	return metadata.NewEnricher(cached,
		metadata.WithConcurrency(cfg.Sync.EnrichConcurrency),
		metadata.WithCertificationCountry(cfg.TMDB.Country),
		metadata.WithLogger(log),
	)
}

// mediaServers builds a client for every configured media server.
func mediaServers(cfg *config.Config, rt http.RoundTripper, log *slog.Logger) []importer.MediaServer {
	var servers []importer.MediaServer
	hc := pipeline.NewHTTPClient(rt, mediaServerTimeout)
	if k := cfg.Notifications.Kodi; k != nil {
		servers = append(servers, importer.NewKodiClient(k.URL, k.Username, k.Password, log).WithHTTPClient(hc))
	}
	if p := cfg.Notifications.Plex; p != nil {
		plex := importer.NewPlexClientWithPathMapping(p.URL, p.Token, p.LocalPath, p.RemotePath, log).
			WithLibraries(p.Libraries...).
			WithHTTPClient(hc)
		servers = append(servers, plex)
	}
	return servers
}

// syncOptions are the command line switches of a sync.
type syncOptions struct {
	assumeYes bool
	dryRun    bool
	refresh   bool
	noPrune   bool
	noRescan  bool
}

// app holds the long-lived resources of one command invocation.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	db        *sql.DB
	transport *http.Transport
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		log:       newLogger(cfg),
		db:        db,
		transport: pipeline.NewTransport(cfg.Sync.MaxConnections),
	}, nil
}

func (a *app) Close() error {
	a.transport.CloseIdleConnections()
	return a.db.Close()
}

// runner wires every stage of a sync.
func (a *app) runner(opts syncOptions) (*pipeline.Runner, error) {
	cfg := a.cfg
	src, err := newSource(cfg, pipeline.NewHTTPClient(a.transport, cfg.Provider.Timeout), opts.refresh, a.log)
	if err != nil {
		return nil, err
	}

	fsys := afero.NewOsFs()
	roots := cfg.Roots()
	imp := importer.New(roots,
		importer.WithFs(fsys),
		importer.WithNFO(cfg.Sync.WriteNFO),
		importer.WithWriteConcurrency(cfg.Sync.WriteConcurrency),
		importer.WithLogger(a.log),
	)

	confirm := importer.NewConfirmer(opts.assumeYes || !cfg.Sync.ConfirmDeletes, a.log)
	runOpts := []pipeline.Option{
		pipeline.WithLedger(library.NewStore(a.db)),
		pipeline.WithCleaner(importer.NewCleaner(fsys, confirm, a.log)),
		pipeline.WithBatchSize(cfg.Sync.BatchSize),
		pipeline.WithDryRun(opts.dryRun),
		pipeline.WithPrune(cfg.Sync.Prune && !opts.noPrune),
		pipeline.WithLogger(a.log),
	}
	if e := newEnricher(cfg, a.db, a.transport, a.log); e != nil {
		runOpts = append(runOpts, pipeline.WithEnricher(e))
	}
	if !opts.noRescan {
		runOpts = append(runOpts, pipeline.WithMediaServers(mediaServers(cfg, a.transport, a.log)...))
	}
	if cfg.Metrics.Textfile != "" {
		runOpts = append(runOpts, pipeline.WithMetrics(pipeline.NewMetrics(), cfg.Metrics.Textfile))
	}

	return pipeline.New(src, newParser(cfg, a.log), imp, roots, runOpts...), nil
}

// errConfigInvalid is returned after validation problems were printed.
var errConfigInvalid = errors.New("configuration invalid")
