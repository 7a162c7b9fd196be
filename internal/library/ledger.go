package library

import (
	"fmt"
	"time"

	"github.com/vmunix/iptvstrm/pkg/title"
)

// LedgerEntry records where a catalog entry was written and in which run it
// was last seen.
type LedgerEntry struct {
	SourceID   string
	Kind       title.Kind
	ExternalID string
	Version    int64
	Path       string // relative to the kind root, with extension
	UpdatedAt  time.Time
}

// LedgerKey identifies a ledger row.
type LedgerKey struct {
	SourceID string
	Kind     title.Kind
}

func getEntry(q querier, sourceID string, kind title.Kind) (*LedgerEntry, error) {
	e := &LedgerEntry{}
	err := q.QueryRow(`
		SELECT source_id, kind, external_id, version, path, updated_at
		FROM processed_entries WHERE source_id = ? AND kind = ?`, sourceID, kind,
	).Scan(&e.SourceID, &e.Kind, &e.ExternalID, &e.Version, &e.Path, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get ledger entry %s/%s: %w", kind, sourceID, mapSQLiteError(err))
	}
	return e, nil
}

// GetEntry retrieves a ledger row.
// Returns ErrNotFound if the entry has never been processed.
func (s *Store) GetEntry(sourceID string, kind title.Kind) (*LedgerEntry, error) {
	return getEntry(s.db, sourceID, kind)
}

// GetEntry retrieves a ledger row within a transaction.
func (t *Tx) GetEntry(sourceID string, kind title.Kind) (*LedgerEntry, error) {
	return getEntry(t.tx, sourceID, kind)
}

func listEntries(q querier) (map[LedgerKey]LedgerEntry, error) {
	rows, err := q.Query(`
		SELECT source_id, kind, external_id, version, path, updated_at
		FROM processed_entries`)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[LedgerKey]LedgerEntry)
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.SourceID, &e.Kind, &e.ExternalID, &e.Version, &e.Path, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out[LedgerKey{SourceID: e.SourceID, Kind: e.Kind}] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return out, nil
}

// ListEntries returns every ledger row keyed by source id and kind.
func (s *Store) ListEntries() (map[LedgerKey]LedgerEntry, error) { return listEntries(s.db) }

// ListEntries returns every ledger row within a transaction.
func (t *Tx) ListEntries() (map[LedgerKey]LedgerEntry, error) { return listEntries(t.tx) }

func upsertEntry(q querier, e *LedgerEntry) error {
	now := time.Now()
	_, err := q.Exec(`
		INSERT INTO processed_entries (source_id, kind, external_id, version, path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, kind) DO UPDATE SET
			external_id = excluded.external_id,
			version = excluded.version,
			path = excluded.path,
			updated_at = excluded.updated_at`,
		e.SourceID, e.Kind, e.ExternalID, e.Version, e.Path, now,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger entry %s/%s: %w", e.Kind, e.SourceID, mapSQLiteError(err))
	}
	e.UpdatedAt = now
	return nil
}

// UpsertEntry inserts or replaces a ledger row. For repeated keys the last
// write wins.
func (s *Store) UpsertEntry(e *LedgerEntry) error { return upsertEntry(s.db, e) }

// UpsertEntry inserts or replaces a ledger row within a transaction.
func (t *Tx) UpsertEntry(e *LedgerEntry) error { return upsertEntry(t.tx, e) }

func pruneEntries(q querier, version int64) (int64, error) {
	result, err := q.Exec(`DELETE FROM processed_entries WHERE version < ?`, version)
	if err != nil {
		return 0, fmt.Errorf("prune ledger: %w", err)
	}
	return result.RowsAffected()
}

// PruneEntries deletes rows not seen in the run with the given version,
// i.e. entries whose source id disappeared from the catalog.
func (s *Store) PruneEntries(version int64) (int64, error) { return pruneEntries(s.db, version) }

// PruneEntries deletes unseen rows within a transaction.
func (t *Tx) PruneEntries(version int64) (int64, error) { return pruneEntries(t.tx, version) }

// RunStats are the counters recorded for a finished sync run.
type RunStats struct {
	Created int
	Deleted int
	Failed  int
}

// BeginRun records a new sync run and returns its id, which serves as the
// ledger version for that run.
func (s *Store) BeginRun() (int64, error) {
	result, err := s.db.Exec(`INSERT INTO sync_runs (started_at) VALUES (?)`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get run id: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counters for a run.
func (s *Store) FinishRun(id int64, stats RunStats) error {
	result, err := s.db.Exec(`
		UPDATE sync_runs SET finished_at = ?, created = ?, deleted = ?, failed = ?
		WHERE id = ?`,
		time.Now(), stats.Created, stats.Deleted, stats.Failed, id,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %d: %w", id, ErrNotFound)
	}
	return nil
}

// LastRun returns the most recent finished run.
func (s *Store) LastRun() (time.Time, RunStats, error) {
	var finished time.Time
	var stats RunStats
	err := s.db.QueryRow(`
		SELECT finished_at, created, deleted, failed FROM sync_runs
		WHERE finished_at IS NOT NULL ORDER BY id DESC LIMIT 1`,
	).Scan(&finished, &stats.Created, &stats.Deleted, &stats.Failed)
	if err != nil {
		return time.Time{}, RunStats{}, fmt.Errorf("last run: %w", mapSQLiteError(err))
	}
	return finished, stats, nil
}
