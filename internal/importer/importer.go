// Package importer materializes planned catalog entries into the library:
// .strm pointer files, NFO sidecars, stale file cleanup and media server
// notification.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// DefaultWriteConcurrency bounds simultaneous file writes.
const DefaultWriteConcurrency = 100

// Status is the result of materializing one entry.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome describes what happened to one planned entry.
type Outcome struct {
	Status      Status
	Path        string // absolute .strm path
	Rel         string // .strm path relative to the kind root
	NFO         bool   // episode or movie sidecar written
	ShowCreated bool   // the show folder did not exist before this write
	Err         error
}

// Importer writes planned entries under their kind roots.
type Importer struct {
	fs       afero.Fs
	roots    map[title.Kind]string
	writeNFO bool
	sem      *semaphore.Weighted
	log      *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithFs sets the filesystem, afero.NewOsFs by default.
func WithFs(fsys afero.Fs) Option {
	return func(i *Importer) {
		i.fs = fsys
	}
}

// WithNFO enables or disables sidecar generation.
func WithNFO(enabled bool) Option {
	return func(i *Importer) {
		i.writeNFO = enabled
	}
}

// WithWriteConcurrency bounds simultaneous writes.
func WithWriteConcurrency(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(i *Importer) {
		if log != nil {
			i.log = log
		}
	}
}

// New creates an importer for the given kind roots.
func New(roots map[title.Kind]string, opts ...Option) *Importer {
	i := &Importer{
		fs:       afero.NewOsFs(),
		roots:    roots,
		writeNFO: true,
		sem:      semaphore.NewWeighted(DefaultWriteConcurrency),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = i.log.With("component", "importer")
	return i
}

// Fs returns the filesystem the importer writes to.
func (i *Importer) Fs() afero.Fs {
	return i.fs
}

// job is a validated write.
type job struct {
	planned  library.Planned
	root     string
	strmPath string
	showDir  string // absolute show folder for TV, empty otherwise
}

// Materialize writes the .strm file for p and, when metadata is present,
// its sidecars. An existing .strm is a skip, never an overwrite. Failures
// are reported in the Outcome rather than returned.
func (i *Importer) Materialize(ctx context.Context, p library.Planned) Outcome {
	// Phase 1: Prepare - resolve root, build and validate paths
	j, err := i.prepare(p)
	if err != nil {
		return i.failed(p, "", err)
	}

	if err := i.sem.Acquire(ctx, 1); err != nil {
		return i.failed(p, j.strmPath, err)
	}
	defer i.sem.Release(1)

	// Phase 2: Execute - write the pointer file
	out := Outcome{Path: j.strmPath, Rel: p.Path.Rel(naming.ExtStream)}
	if j.showDir != "" {
		exists, _ := afero.DirExists(i.fs, j.showDir)
		out.ShowCreated = !exists
	}

	err = WriteFile(i.fs, j.strmPath, []byte(p.Entry.StreamURL))
	switch {
	case errors.Is(err, ErrDestinationExists):
		out.Status = StatusSkipped
		out.ShowCreated = false
		i.log.Debug("stream file exists, skipping", "path", j.strmPath)
		return out
	case err != nil:
		return i.failed(p, j.strmPath, err)
	}
	out.Status = StatusCreated
	i.log.Debug("stream file written", "path", j.strmPath, "kind", p.Path.Kind)

	// Phase 3: Sidecars - best effort, never fail the entry
	if md, ok := p.Meta.Get(); ok && i.writeNFO && p.Path.Kind != title.KindSport {
		out.NFO = i.writeSidecars(j, md)
	}
	return out
}

func (i *Importer) prepare(p library.Planned) (*job, error) {
	root := i.roots[p.Path.Kind]
	if root == "" {
		return nil, fmt.Errorf("%s: %w", p.Path.Kind, library.ErrNoRoot)
	}
	if p.Entry.StreamURL == "" {
		return nil, ErrNoStreamURL
	}

	strmPath := filepath.Join(root, filepath.FromSlash(p.Path.Rel(naming.ExtStream)))
	// Validate path is within root (security check)
	if err := naming.ValidatePath(strmPath, root); err != nil {
		return nil, err
	}

	j := &job{planned: p, root: root, strmPath: strmPath}
	if show := p.Path.ShowDir(); show != "" {
		j.showDir = filepath.Join(root, show)
	}
	return j, nil
}

// writeSidecars writes the entry sidecar and, for episodes, the show's
// tvshow.nfo if no other writer created it first.
func (i *Importer) writeSidecars(j *job, md metadata.Metadata) bool {
	p := j.planned
	var (
		data []byte
		err  error
	)
	switch {
	case p.Path.Kind == title.KindMovie:
		data, err = MovieNFO(md)
	case p.Entry.HasEpisode():
		data, err = EpisodeNFO(md, *p.Entry.Season, *p.Entry.Episode)
	}
	if err != nil {
		i.log.Warn("render nfo failed", "title", md.Title, "error", err)
		return false
	}

	wrote := false
	if data != nil {
		nfoPath := filepath.Join(j.root, filepath.FromSlash(p.Path.Rel(naming.ExtNFO)))
		wrote = i.writeOptional(nfoPath, data)
	}

	if j.showDir != "" {
		show, err := ShowNFO(md)
		if err != nil {
			i.log.Warn("render show nfo failed", "title", md.Title, "error", err)
			return wrote
		}
		showPath := filepath.Join(j.showDir, ShowNFOName)
		if exists, _ := afero.Exists(i.fs, showPath); !exists {
			i.writeOptional(showPath, show)
		}
	}
	return wrote
}

func (i *Importer) writeOptional(path string, data []byte) bool {
	err := WriteFile(i.fs, path, data)
	switch {
	case errors.Is(err, ErrDestinationExists):
		return false
	case err != nil:
		i.log.Warn("write sidecar failed", "path", path, "error", err)
		return false
	}
	return true
}

func (i *Importer) failed(p library.Planned, path string, err error) Outcome {
	i.log.Warn("materialize failed",
		"title", p.Entry.CleanTitle,
		"kind", p.Path.Kind,
		"path", path,
		"error", err)
	return Outcome{Status: StatusFailed, Path: path, Rel: p.Path.Rel(naming.ExtStream), Err: err}
}
