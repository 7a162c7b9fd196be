package pipeline

import (
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// Counts are the per-kind results of a run.
type Counts struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

func (c Counts) add(o Counts) Counts {
	return Counts{
		Created: c.Created + o.Created,
		Skipped: c.Skipped + o.Skipped,
		Deleted: c.Deleted + o.Deleted,
		Failed:  c.Failed + o.Failed,
	}
}

// Summary describes a finished run. It is produced even when the run
// fails part way, with whatever was counted up to that point.
type Summary struct {
	Kinds      map[title.Kind]Counts
	Entries    int // parsed catalog entries
	Enriched   int // entries with metadata
	Reused     int // entries placed from the ledger without enrichment
	Duplicates int // entries resolving to an already planned path
	ShowsAdded int
	Stale      int // files no catalog entry accounts for
	Declined   int // stale files the operator chose to keep
	Held       int // stale files kept because the catalog was incomplete for their kind
	PrunedDirs int
	Notified   int
	DryRun     bool
	Plan       *library.DiffResult // set for dry runs
	Duration   time.Duration
}

func newSummary() *Summary {
	return &Summary{Kinds: make(map[title.Kind]Counts)}
}

func (s *Summary) update(kind title.Kind, fn func(*Counts)) {
	c := s.Kinds[kind]
	fn(&c)
	s.Kinds[kind] = c
}

// Totals sums the counts over all kinds.
func (s *Summary) Totals() Counts {
	return lo.Reduce(lo.Values(s.Kinds), func(acc Counts, c Counts, _ int) Counts {
		return acc.add(c)
	}, Counts{})
}

// Changed reports whether the run created or deleted any file.
func (s *Summary) Changed() bool {
	t := s.Totals()
	return t.Created > 0 || t.Deleted > 0
}

// Log writes the summary as one structured line per kind and a total.
func (s *Summary) Log(log *slog.Logger) {
	for _, kind := range title.Kinds {
		c := s.Kinds[kind]
		log.Info("kind summary",
			"kind", kind,
			"created", c.Created,
			"skipped", c.Skipped,
			"deleted", c.Deleted,
			"failed", c.Failed)
	}
	t := s.Totals()
	log.Info("run summary",
		"entries", s.Entries,
		"created", t.Created,
		"skipped", t.Skipped,
		"deleted", t.Deleted,
		"failed", t.Failed,
		"enriched", s.Enriched,
		"reused", s.Reused,
		"duplicates", s.Duplicates,
		"shows_added", s.ShowsAdded,
		"declined", s.Declined,
		"held", s.Held,
		"dry_run", s.DryRun,
		"duration", s.Duration.Round(time.Millisecond))
}
