// internal/importer/cleanup.go
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// DeleteReport counts the results of a cleanup.
type DeleteReport struct {
	Deleted  map[title.Kind]int
	Failed   int
	Declined int
}

// Total returns the number of deleted files across kinds.
func (r DeleteReport) Total() int {
	return lo.Sum(lo.Values(r.Deleted))
}

// Cleaner removes stale library files and empty folders.
type Cleaner struct {
	fs      afero.Fs
	confirm Confirmer
	log     *slog.Logger
}

// NewCleaner creates a cleaner. Every destructive step is approved by confirm.
func NewCleaner(fsys afero.Fs, confirm Confirmer, log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{fs: fsys, confirm: confirm, log: log.With("component", "cleaner")}
}

// Delete removes stale .strm files and their .nfo siblings. Files are
// confirmed once per kind. A failure on one file does not stop the rest.
// Only a confirmer error is returned.
func (c *Cleaner) Delete(ctx context.Context, roots map[title.Kind]string, stale []library.Stale) (DeleteReport, error) {
	report := DeleteReport{Deleted: make(map[title.Kind]int)}
	byKind := lo.GroupBy(stale, func(s library.Stale) title.Kind { return s.Kind })

	for _, kind := range title.Kinds {
		batch := byKind[kind]
		if len(batch) == 0 {
			continue
		}
		root := roots[kind]
		if root == "" {
			report.Failed += len(batch)
			c.log.Warn("no root for stale files", "kind", kind, "count", len(batch))
			continue
		}

		items := lo.Map(batch, func(s library.Stale, _ int) string {
			return fmt.Sprintf("[%s] %s", s.Reason, s.Rel)
		})
		msg := fmt.Sprintf("Delete %s stale %s files from %s?", humanize.Comma(int64(len(batch))), kind, root)
		ok, err := c.confirm.Confirm(ctx, msg, items)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Declined += len(batch)
			c.log.Info("deletion declined", "kind", kind, "count", len(batch))
			continue
		}

		for _, s := range batch {
			if err := c.remove(root, s.Rel); err != nil {
				report.Failed++
				c.log.Warn("delete failed", "kind", kind, "path", s.Rel, "error", err)
				continue
			}
			report.Deleted[kind]++
			c.log.Debug("deleted", "kind", kind, "path", s.Rel, "reason", s.Reason)
		}
	}
	return report, nil
}

func (c *Cleaner) remove(root, rel string) error {
	strm := filepath.Join(root, filepath.FromSlash(rel))
	if err := naming.ValidatePath(strm, root); err != nil {
		return err
	}
	if err := c.fs.Remove(strm); err != nil {
		return fmt.Errorf("remove %s: %w", strm, err)
	}
	nfo := strings.TrimSuffix(strm, filepath.Ext(strm)) + "." + naming.ExtNFO
	if err := c.fs.Remove(nfo); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Warn("remove sidecar failed", "path", nfo, "error", err)
	}
	return nil
}

// PruneEmptyDirs removes folders under the roots that hold nothing but
// other removable folders or a lone tvshow.nfo. The roots themselves are
// kept. Returns the number of folders removed.
func (c *Cleaner) PruneEmptyDirs(ctx context.Context, roots map[title.Kind]string) (int, error) {
	var candidates []string
	for _, kind := range title.Kinds {
		root := roots[kind]
		if root == "" {
			continue
		}
		dirs, err := c.emptyDirs(root)
		if err != nil {
			return 0, fmt.Errorf("find empty %s folders: %w", kind, err)
		}
		candidates = append(candidates, dirs...)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	msg := fmt.Sprintf("Remove %s empty folders?", humanize.Comma(int64(len(candidates))))
	ok, err := c.confirm.Confirm(ctx, msg, candidates)
	if err != nil || !ok {
		return 0, err
	}

	removed := 0
	for _, dir := range candidates {
		if err := c.fs.RemoveAll(dir); err != nil {
			c.log.Warn("remove folder failed", "path", dir, "error", err)
			continue
		}
		removed++
	}
	c.log.Info("pruned empty folders", "count", removed)
	return removed, nil
}

// emptyDirs returns removable folders below root, deepest first.
func (c *Cleaner) emptyDirs(root string) ([]string, error) {
	exists, err := afero.DirExists(c.fs, root)
	if err != nil || !exists {
		return nil, err
	}

	var dirs []string
	err = afero.Walk(c.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && p != root {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], string(filepath.Separator)), strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	removable := make(map[string]bool)
	var out []string
	for _, dir := range dirs {
		infos, err := afero.ReadDir(c.fs, dir)
		if err != nil {
			return nil, err
		}
		empty := true
		for _, fi := range infos {
			full := filepath.Join(dir, fi.Name())
			if fi.IsDir() {
				if !removable[full] {
					empty = false
					break
				}
				continue
			}
			if !strings.EqualFold(fi.Name(), ShowNFOName) {
				empty = false
				break
			}
		}
		if empty {
			removable[dir] = true
			out = append(out, dir)
		}
	}
	return out, nil
}
