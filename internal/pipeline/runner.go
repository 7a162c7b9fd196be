// Package pipeline runs one sync: fetch the catalog, plan a library path
// per entry, write what is missing, record it in the ledger, remove what
// disappeared and ask the media servers to rescan.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/importer"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// DefaultBatchSize is the number of entries fanned out at once.
const DefaultBatchSize = 100

// CatalogSource yields raw catalog bytes. *source.Source satisfies it.
type CatalogSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	Format() catalog.Format
}

// Enricher resolves metadata for an entry. *metadata.Enricher satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, entry catalog.Entry, haveID string) mo.Option[metadata.Metadata]
}

// Runner wires the sync stages together.
type Runner struct {
	source      CatalogSource
	parser      *catalog.Parser
	importer    *importer.Importer
	roots       map[title.Kind]string
	enricher    Enricher
	ledger      *library.Store
	cleaner     *importer.Cleaner
	servers     []importer.MediaServer
	metrics     *Metrics
	metricsPath string
	batchSize   int
	dryRun      bool
	prune       bool
	log         *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithEnricher enables metadata lookups. Without one every entry is named
// from its parsed title.
func WithEnricher(e Enricher) Option {
	return func(r *Runner) {
		r.enricher = e
	}
}

// WithLedger records written paths across runs.
func WithLedger(s *library.Store) Option {
	return func(r *Runner) {
		r.ledger = s
	}
}

// WithCleaner enables removal of stale files and empty folders.
func WithCleaner(c *importer.Cleaner) Option {
	return func(r *Runner) {
		r.cleaner = c
	}
}

// WithMediaServers sets the servers notified after a run with changes.
func WithMediaServers(servers ...importer.MediaServer) Option {
	return func(r *Runner) {
		r.servers = append(r.servers, servers...)
	}
}

// WithMetrics records every run in m and, when path is set, writes the
// textfile after the run.
func WithMetrics(m *Metrics, path string) Option {
	return func(r *Runner) {
		r.metrics = m
		r.metricsPath = path
	}
}

// WithBatchSize sets the fan-out batch size.
func WithBatchSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithDryRun plans the run without writing, deleting or recording anything.
func WithDryRun(dry bool) Option {
	return func(r *Runner) {
		r.dryRun = dry
	}
}

// WithPrune controls whether stale files are deleted.
func WithPrune(prune bool) Option {
	return func(r *Runner) {
		r.prune = prune
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a runner writing through imp into roots.
func New(src CatalogSource, parser *catalog.Parser, imp *importer.Importer, roots map[title.Kind]string, opts ...Option) *Runner {
	r := &Runner{
		source:    src,
		parser:    parser,
		importer:  imp,
		roots:     roots,
		batchSize: DefaultBatchSize,
		prune:     true,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "pipeline")
	return r
}

// Run performs one sync. Per-entry failures are counted in the summary;
// an error is returned when the catalog is unusable, the library cannot
// be scanned, cleanup cannot be confirmed or ctx is cancelled. The summary
// is never nil and is logged for failed runs too.
func (r *Runner) Run(ctx context.Context) (sum *Summary, err error) {
	start := time.Now()
	sum = newSummary()
	sum.DryRun = r.dryRun
	defer func() {
		sum.Duration = time.Since(start)
		r.observe(sum, err)
	}()

	cat, err := r.load(ctx)
	if err != nil {
		return sum, err
	}
	entries := cat.Entries
	sum.Entries = len(entries)

	var (
		version int64
		ledger  map[library.LedgerKey]library.LedgerEntry
	)
	if r.ledger != nil {
		if ledger, err = r.ledger.ListEntries(); err != nil {
			return sum, fmt.Errorf("load ledger: %w", err)
		}
		if !r.dryRun {
			if version, err = r.ledger.BeginRun(); err != nil {
				return sum, err
			}
		}
	}

	snap, err := library.Scan(r.importer.Fs(), r.roots)
	if err != nil {
		return sum, err
	}

	planned, err := r.plan(ctx, entries, ledger, snap, sum)
	if err != nil {
		return sum, err
	}

	diff := library.Diff(planned, snap)
	sum.Duplicates = diff.Duplicates
	sum.Stale = len(diff.ToDelete)
	diff.ToDelete, sum.Held = holdIncomplete(diff.ToDelete, cat)
	if sum.Held > 0 {
		r.log.Warn("catalog incomplete, keeping stale files", "kinds", cat.Incomplete, "count", sum.Held)
	}
	for _, p := range diff.Skipped {
		sum.update(p.Path.Kind, func(c *Counts) { c.Skipped++ })
	}
	r.log.Info("plan ready",
		"to_create", len(diff.ToCreate),
		"skipped", len(diff.Skipped),
		"duplicates", diff.Duplicates,
		"stale", len(diff.ToDelete))

	if r.dryRun {
		sum.Plan = &diff
		return sum, nil
	}

	failed, err := r.materialize(ctx, diff.ToCreate, sum)
	if err != nil {
		return sum, err
	}

	if r.ledger != nil {
		if err := r.record(version, planned, ledger, failed, len(cat.Incomplete) == 0); err != nil {
			r.log.Warn("update ledger failed", "error", err)
		}
	}

	if err := r.cleanup(ctx, diff.ToDelete, sum); err != nil {
		return sum, err
	}

	if r.ledger != nil {
		t := sum.Totals()
		if err := r.ledger.FinishRun(version, library.RunStats{Created: t.Created, Deleted: t.Deleted, Failed: t.Failed}); err != nil {
			r.log.Warn("record run failed", "error", err)
		}
	}

	if sum.Changed() && len(r.servers) > 0 {
		sum.Notified = importer.Notify(ctx, r.servers, r.rootList(), r.log)
	}
	return sum, nil
}

func (r *Runner) load(ctx context.Context) (*catalog.Catalog, error) {
	raw, err := r.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	cat, err := r.parser.ParseCatalog(r.source.Format(), raw)
	switch {
	case errors.Is(err, catalog.ErrEmptyCatalog):
		return nil, fmt.Errorf("%w: %w", ErrEmptyCatalog, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return cat, nil
}

// holdIncomplete removes stale files of kinds the catalog returned only in
// part and reports how many were held back.
func holdIncomplete(stale []library.Stale, cat *catalog.Catalog) ([]library.Stale, int) {
	if len(cat.Incomplete) == 0 {
		return stale, 0
	}
	kept := lo.Reject(stale, func(s library.Stale, _ int) bool {
		return cat.IsIncomplete(s.Kind)
	})
	return kept, len(stale) - len(kept)
}

// plan resolves metadata and a canonical path for every entry. Lookups fan
// out per batch; path building runs after each batch completes.
func (r *Runner) plan(ctx context.Context, entries []catalog.Entry, ledger map[library.LedgerKey]library.LedgerEntry, snap *library.Snapshot, sum *Summary) ([]library.Planned, error) {
	seen := lo.CountValuesBy(entries, ledgerKey)
	planned := make([]library.Planned, len(entries))
	metas := make([]mo.Option[metadata.Metadata], len(entries))
	reused := make([]bool, len(entries))
	var enriched atomic.Int64

	offset := 0
	for _, batch := range lo.Chunk(entries, r.batchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for i, e := range batch {
			idx := offset + i
			if p, ok := fromLedger(e, ledger, seen, snap); ok {
				planned[idx] = p
				reused[idx] = true
				continue
			}
			if r.enricher == nil {
				continue
			}
			g.Go(func() error {
				metas[idx] = r.enricher.Enrich(gctx, e, e.ExternalID)
				if metas[idx].IsPresent() {
					enriched.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i, e := range batch {
			idx := offset + i
			if reused[idx] {
				continue
			}
			planned[idx] = library.Planned{Entry: e, Path: naming.Build(e, metas[idx]), Meta: metas[idx]}
		}
		offset += len(batch)
		r.log.Debug("batch planned", "done", offset, "total", len(entries))
	}

	sum.Enriched = int(enriched.Load())
	sum.Reused = lo.Count(reused, true)
	return planned, nil
}

func ledgerKey(e catalog.Entry) library.LedgerKey {
	return library.LedgerKey{SourceID: e.SourceID, Kind: e.Kind}
}

// fromLedger reuses the recorded path of an entry that was written before
// and is still on disk, so a metadata outage never renames existing files.
// Source ids repeated within the catalog are not trusted.
func fromLedger(e catalog.Entry, ledger map[library.LedgerKey]library.LedgerEntry, seen map[library.LedgerKey]int, snap *library.Snapshot) (library.Planned, bool) {
	key := ledgerKey(e)
	if e.SourceID == "" || seen[key] != 1 {
		return library.Planned{}, false
	}
	rec, ok := ledger[key]
	if !ok || rec.Path == "" {
		return library.Planned{}, false
	}
	p := naming.FromRel(e.Kind, rec.Path)
	if !snap.Contains(e.Kind, p.Key()) {
		return library.Planned{}, false
	}
	return library.Planned{Entry: e, Path: p, Meta: mo.None[metadata.Metadata]()}, true
}

// materialize writes the planned entries and returns the keys of the
// paths that failed.
func (r *Runner) materialize(ctx context.Context, todo []library.Planned, sum *Summary) (map[string]bool, error) {
	outcomes := make([]importer.Outcome, len(todo))

	offset := 0
	for _, batch := range lo.Chunk(todo, r.batchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range batch {
			idx := offset + i
			g.Go(func() error {
				outcomes[idx] = r.importer.Materialize(gctx, p)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		offset += len(batch)
	}

	failed := make(map[string]bool)
	var shows []string
	for i, o := range outcomes {
		p := todo[i]
		switch o.Status {
		case importer.StatusCreated:
			sum.update(p.Path.Kind, func(c *Counts) { c.Created++ })
			if o.ShowCreated {
				shows = append(shows, p.Path.ShowDir())
			}
		case importer.StatusSkipped:
			sum.update(p.Path.Kind, func(c *Counts) { c.Skipped++ })
		case importer.StatusFailed:
			sum.update(p.Path.Kind, func(c *Counts) { c.Failed++ })
			failed[pathKey(p)] = true
		}
	}
	sum.ShowsAdded = len(lo.Uniq(shows))
	return failed, nil
}

func pathKey(p library.Planned) string {
	return string(p.Path.Kind) + ":" + p.Path.Key()
}

// record stamps every entry that is now on disk with this run's version
// and, when prune is set, drops rows for entries that left the catalog.
func (r *Runner) record(version int64, planned []library.Planned, prev map[library.LedgerKey]library.LedgerEntry, failed map[string]bool, prune bool) error {
	tx, err := r.ledger.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range planned {
		if failed[pathKey(p)] {
			continue
		}
		e := &library.LedgerEntry{
			SourceID:   p.Entry.SourceID,
			Kind:       p.Path.Kind,
			ExternalID: p.Entry.ExternalID,
			Version:    version,
			Path:       p.Path.Rel(naming.ExtStream),
		}
		if e.SourceID == "" {
			e.SourceID = "path:" + p.Path.Key()
		}
		if md, ok := p.Meta.Get(); ok && md.ID != "" {
			e.ExternalID = md.ID
		} else if old, ok := prev[library.LedgerKey{SourceID: e.SourceID, Kind: e.Kind}]; ok && old.ExternalID != "" {
			e.ExternalID = old.ExternalID
		}
		if err := tx.UpsertEntry(e); err != nil {
			return err
		}
	}

	var pruned int64
	if prune {
		if pruned, err = tx.PruneEntries(version); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	r.log.Debug("ledger updated", "entries", len(planned)-len(failed), "pruned", pruned)
	return nil
}

func (r *Runner) cleanup(ctx context.Context, stale []library.Stale, sum *Summary) error {
	if !r.prune || r.cleaner == nil {
		if len(stale) > 0 {
			r.log.Info("stale files kept", "count", len(stale))
		}
		return nil
	}

	if len(stale) > 0 {
		report, err := r.cleaner.Delete(ctx, r.roots, stale)
		for kind, n := range report.Deleted {
			sum.update(kind, func(c *Counts) { c.Deleted += n })
		}
		sum.Declined = report.Declined
		if report.Failed > 0 {
			r.log.Warn("some stale files could not be deleted", "count", report.Failed)
		}
		if err != nil {
			return fmt.Errorf("confirm deletion: %w", err)
		}
	}

	n, err := r.cleaner.PruneEmptyDirs(ctx, r.roots)
	if err != nil {
		return fmt.Errorf("prune folders: %w", err)
	}
	sum.PrunedDirs = n
	return nil
}

func (r *Runner) rootList() []string {
	return lo.FilterMap(title.Kinds, func(k title.Kind, _ int) (string, bool) {
		root := r.roots[k]
		return root, root != ""
	})
}

func (r *Runner) observe(sum *Summary, err error) {
	sum.Log(r.log)
	if err != nil {
		r.log.Error("run failed", "error", err, "duration", sum.Duration.Round(time.Millisecond))
	}
	if r.metrics == nil || r.dryRun {
		return
	}
	r.metrics.Observe(sum, err)
	if r.metricsPath == "" {
		return
	}
	if werr := r.metrics.WriteTextfile(r.metricsPath); werr != nil {
		r.log.Warn("write metrics failed", "path", r.metricsPath, "error", werr)
	}
}
