package library

import (
	"path"
	"regexp"
	"sort"

	"github.com/samber/mo"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// Planned is an entry with its computed library path.
type Planned struct {
	Entry catalog.Entry
	Path  naming.CanonicalPath
	Meta  mo.Option[metadata.Metadata]
}

// Reason explains why a file is scheduled for deletion.
type Reason string

const (
	// ReasonStale marks a file with no matching catalog entry.
	ReasonStale Reason = "stale"
	// ReasonMisplaced marks a file that belongs to a different kind's root.
	ReasonMisplaced Reason = "misplaced"
)

// Stale is an on-disk file scheduled for deletion.
type Stale struct {
	Kind   title.Kind
	Rel    string
	Reason Reason
}

// DiffResult is the outcome of comparing planned entries to a snapshot.
type DiffResult struct {
	ToCreate   []Planned
	Skipped    []Planned // already on disk, or a duplicate of an earlier entry
	Duplicates int
	ToDelete   []Stale
}

var (
	episodeFileRegex = regexp.MustCompile(`(?i)\bS\d{1,2}E\d{1,3}\b`)
	seasonDirRegex   = regexp.MustCompile(`(?i)^season \d+$`)
)

// Diff classifies each planned entry as create or skip and collects every
// on-disk file that no planned entry accounts for. Matching is on the
// case-insensitive path without extension, within the entry kind's root.
// When two entries resolve to the same path the first one wins.
func Diff(planned []Planned, snap *Snapshot) DiffResult {
	var res DiffResult
	wanted := make(map[title.Kind]map[string]bool)

	for _, p := range planned {
		kind := p.Path.Kind
		key := p.Path.Key()
		if wanted[kind] == nil {
			wanted[kind] = make(map[string]bool)
		}
		if wanted[kind][key] {
			res.Duplicates++
			res.Skipped = append(res.Skipped, p)
			continue
		}
		wanted[kind][key] = true

		if snap.Contains(kind, key) {
			res.Skipped = append(res.Skipped, p)
			continue
		}
		res.ToCreate = append(res.ToCreate, p)
	}

	for _, kind := range title.Kinds {
		for _, f := range snap.Files(kind) {
			if wanted[kind][f.Key] {
				continue
			}
			reason := ReasonStale
			if misplaced(kind, f) {
				reason = ReasonMisplaced
			}
			res.ToDelete = append(res.ToDelete, Stale{Kind: kind, Rel: f.Rel, Reason: reason})
		}
	}

	sort.SliceStable(res.ToDelete, func(i, j int) bool {
		if res.ToDelete[i].Kind != res.ToDelete[j].Kind {
			return res.ToDelete[i].Kind < res.ToDelete[j].Kind
		}
		return res.ToDelete[i].Rel < res.ToDelete[j].Rel
	})
	return res
}

// misplaced applies the layout heuristics: episode-looking files or nested
// folders do not belong in the flat movies root, and a file directly in the
// TV root is a movie.
func misplaced(kind title.Kind, f StreamFile) bool {
	switch kind {
	case title.KindMovie:
		if f.Depth() > 0 || episodeFileRegex.MatchString(path.Base(f.Rel)) {
			return true
		}
	case title.KindTV:
		if f.Depth() == 0 {
			return true
		}
		// A season folder directly under the root has no show folder.
		if f.Depth() == 1 && seasonDirRegex.MatchString(path.Dir(f.Rel)) {
			return true
		}
	}
	return false
}
