package metadata

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/mo"
	"golang.org/x/sync/semaphore"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/tmdb"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// DefaultConcurrency caps in-flight enrichment lookups.
const DefaultConcurrency = 200

// Enricher resolves catalog entries against the metadata catalog.
type Enricher struct {
	catalog Catalog
	sem     *semaphore.Weighted
	country string
	log     *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithConcurrency sets the maximum number of concurrent enrichments.
func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithCertificationCountry sets the ISO 3166-1 country used for certifications.
func WithCertificationCountry(country string) EnricherOption {
	return func(e *Enricher) {
		if country != "" {
			e.country = strings.ToUpper(country)
		}
	}
}

// WithLogger sets the enricher logger.
func WithLogger(log *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if log != nil {
			e.log = log.With("component", "enricher")
		}
	}
}

// NewEnricher creates an Enricher over catalog.
func NewEnricher(c Catalog, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		catalog: c,
		sem:     semaphore.NewWeighted(DefaultConcurrency),
		country: "US",
		log:     slog.Default().With("component", "enricher"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich looks up entry in the metadata catalog. haveID is a catalog id
// supplied by the provider; when present it is used instead of searching.
// Any failure along the way yields None and the caller falls back to the
// parsed title.
func (e *Enricher) Enrich(ctx context.Context, entry catalog.Entry, haveID string) mo.Option[Metadata] {
	if entry.Kind != title.KindMovie && entry.Kind != title.KindTV {
		return mo.None[Metadata]()
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return mo.None[Metadata]()
	}
	defer e.sem.Release(1)

	log := e.log.With("title", entry.CleanTitle, "year", entry.Year, "kind", entry.Kind)

	if entry.Kind == title.KindMovie {
		return e.enrichMovie(ctx, entry, haveID, log)
	}
	return e.enrichShow(ctx, entry, haveID, log)
}

func (e *Enricher) enrichMovie(ctx context.Context, entry catalog.Entry, haveID string, log *slog.Logger) mo.Option[Metadata] {
	id, ok := e.movieID(ctx, entry, haveID, log).Get()
	if !ok {
		return mo.None[Metadata]()
	}

	movie, err := e.catalog.GetMovie(ctx, id)
	if isNotFound(err) && haveID != "" {
		// Provider ids go stale; search as if none was supplied.
		log.Debug("provider id not found, searching", "tmdb_id", id)
		if id, ok = e.movieID(ctx, entry, "", log).Get(); !ok {
			return mo.None[Metadata]()
		}
		movie, err = e.catalog.GetMovie(ctx, id)
	}
	if err != nil {
		log.Debug("movie details failed", "tmdb_id", id, "error", err)
		return mo.None[Metadata]()
	}
	if movie.Title == "" {
		log.Debug("movie details missing title", "tmdb_id", id)
		return mo.None[Metadata]()
	}
	return mo.Some(fromMovie(movie, e.country))
}

func (e *Enricher) enrichShow(ctx context.Context, entry catalog.Entry, haveID string, log *slog.Logger) mo.Option[Metadata] {
	id, ok := e.showID(ctx, entry, haveID, log).Get()
	if !ok {
		return mo.None[Metadata]()
	}

	show, err := e.catalog.GetTV(ctx, id)
	if isNotFound(err) && haveID != "" {
		log.Debug("provider id not found, searching", "tmdb_id", id)
		if id, ok = e.showID(ctx, entry, "", log).Get(); !ok {
			return mo.None[Metadata]()
		}
		show, err = e.catalog.GetTV(ctx, id)
	}
	if err != nil {
		log.Debug("show details failed", "tmdb_id", id, "error", err)
		return mo.None[Metadata]()
	}
	if show.Name == "" {
		log.Debug("show details missing name", "tmdb_id", id)
		return mo.None[Metadata]()
	}
	md := fromTV(show, e.country)

	// Episode details are optional; the show match alone is enough to name the file.
	if entry.HasEpisode() {
		ep, err := e.catalog.GetEpisode(ctx, id, *entry.Season, *entry.Episode)
		if err != nil {
			log.Debug("episode details failed", "tmdb_id", id, "season", *entry.Season, "episode", *entry.Episode, "error", err)
			if isNotFound(err) {
				e.invalidateShow(ctx, id, log)
			}
		} else {
			md.Episode = fromEpisode(ep)
		}
	}
	return mo.Some(md)
}

func (e *Enricher) movieID(ctx context.Context, entry catalog.Entry, haveID string, log *slog.Logger) mo.Option[int64] {
	if id, ok := parseID(haveID).Get(); ok {
		return mo.Some(id)
	}

	query, year := searchTerms(entry)
	results, err := searchWithFallback(ctx, query, year, e.catalog.SearchMovie)
	if err != nil {
		log.Debug("movie search failed", "error", err)
		return mo.None[int64]()
	}

	candidates := make([]candidate, len(results))
	for i, r := range results {
		candidates[i] = candidate{id: r.ID, title: r.Title, original: r.OriginalTitle, year: r.Year()}
	}
	return pick(query, year, candidates, log)
}

func (e *Enricher) showID(ctx context.Context, entry catalog.Entry, haveID string, log *slog.Logger) mo.Option[int64] {
	if id, ok := parseID(haveID).Get(); ok {
		return mo.Some(id)
	}

	query, year := searchTerms(entry)
	results, err := searchWithFallback(ctx, query, year, e.catalog.SearchTV)
	if err != nil {
		log.Debug("show search failed", "error", err)
		return mo.None[int64]()
	}

	candidates := make([]candidate, len(results))
	for i, r := range results {
		candidates[i] = candidate{id: r.ID, title: r.Name, original: r.OriginalName, year: r.Year()}
	}
	return pick(query, year, candidates, log)
}

// searchTerms drops the year filter when the title is itself a bare year.
func searchTerms(entry catalog.Entry) (string, string) {
	query := entry.CleanTitle
	year := entry.Year
	if title.IsBareYear(query) {
		year = ""
	}
	return query, year
}

// searchWithFallback searches restricted by year first, then without the
// year when the restricted search finds nothing.
func searchWithFallback[T any](ctx context.Context, query, year string, search func(context.Context, string, string) ([]T, error)) ([]T, error) {
	if year != "" {
		results, err := search(ctx, query, year)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return search(ctx, query, "")
}

type candidate struct {
	id       int64
	title    string
	original string
	year     string
}

// pick prefers an exact normalized-title match (same year first), then the
// best fuzzy match at or above the confidence threshold.
func pick(query, year string, candidates []candidate, log *slog.Logger) mo.Option[int64] {
	if len(candidates) == 0 {
		log.Debug("no search results")
		return mo.None[int64]()
	}

	want := title.CleanTitle(query)
	exact := -1
	for i, c := range candidates {
		if title.CleanTitle(c.title) != want && title.CleanTitle(c.original) != want {
			continue
		}
		if year == "" || c.year == year {
			exact = i
			break
		}
		if exact < 0 {
			exact = i
		}
	}
	if exact >= 0 {
		return mo.Some(candidates[exact].id)
	}

	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.title
	}
	match := title.MatchTitle(query, titles)
	if !match.Accepted() {
		log.Debug("rejected fuzzy match", "best", match.Title, "score", match.Score)
		return mo.None[int64]()
	}
	log.Debug("fuzzy match", "matched", match.Title, "score", match.Score, "confidence", match.Confidence)
	return mo.Some(candidates[match.Index].id)
}

func parseID(s string) mo.Option[int64] {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return mo.None[int64]()
	}
	return mo.Some(id)
}

// showInvalidator is implemented by catalogs that cache show details.
type showInvalidator interface {
	InvalidateShow(ctx context.Context, id int64) error
}

// invalidateShow drops cached show details once an episode the provider
// lists is unknown, so the next run sees newly announced seasons.
func (e *Enricher) invalidateShow(ctx context.Context, id int64, log *slog.Logger) {
	inv, ok := e.catalog.(showInvalidator)
	if !ok {
		return
	}
	if err := inv.InvalidateShow(ctx, id); err != nil {
		log.Warn("invalidate show cache failed", "tmdb_id", id, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, tmdb.ErrNotFound)
}
