package library

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// StreamFile is one .strm file found under a library root.
type StreamFile struct {
	Kind title.Kind
	Rel  string // slash-separated, relative to the kind root, with extension
	Key  string // naming.KeyOf the path without extension
}

// Depth is the number of directories between the root and the file.
func (f StreamFile) Depth() int {
	return strings.Count(f.Rel, "/")
}

// Snapshot is the set of .strm files present at run start, per kind root.
// It is read-only once built.
type Snapshot struct {
	roots map[title.Kind]string
	files map[title.Kind]map[string]StreamFile
}

// NewSnapshot builds a snapshot from relative paths, for callers that
// already know the library contents.
func NewSnapshot(roots map[title.Kind]string, rels map[title.Kind][]string) *Snapshot {
	s := &Snapshot{roots: roots, files: make(map[title.Kind]map[string]StreamFile)}
	for kind, list := range rels {
		for _, rel := range list {
			s.add(kind, rel)
		}
	}
	return s
}

// Scan walks each configured root and records every .strm file. A root
// that does not exist yet is treated as empty.
func Scan(fsys afero.Fs, roots map[title.Kind]string) (*Snapshot, error) {
	s := &Snapshot{roots: roots, files: make(map[title.Kind]map[string]StreamFile)}

	for kind, root := range roots {
		if root == "" {
			continue
		}
		exists, err := afero.DirExists(fsys, root)
		if err != nil {
			return nil, fmt.Errorf("stat %s library %s: %w", kind, root, err)
		}
		if !exists {
			continue
		}
		err = afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.EqualFold(filepath.Ext(p), "."+naming.ExtStream) {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			s.add(kind, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s library %s: %w", kind, root, err)
		}
	}
	return s, nil
}

func (s *Snapshot) add(kind title.Kind, rel string) {
	if s.files[kind] == nil {
		s.files[kind] = make(map[string]StreamFile)
	}
	f := StreamFile{
		Kind: kind,
		Rel:  rel,
		Key:  naming.KeyOf(strings.TrimSuffix(rel, path.Ext(rel))),
	}
	s.files[kind][f.Key] = f
}

// Root returns the root directory for kind.
func (s *Snapshot) Root(kind title.Kind) (string, error) {
	root, ok := s.roots[kind]
	if !ok || root == "" {
		return "", fmt.Errorf("%s: %w", kind, ErrNoRoot)
	}
	return root, nil
}

// Contains reports whether a file with key exists under the kind root.
func (s *Snapshot) Contains(kind title.Kind, key string) bool {
	_, ok := s.files[kind][key]
	return ok
}

// Files returns the files under the kind root in path order.
func (s *Snapshot) Files(kind title.Kind) []StreamFile {
	out := make([]StreamFile, 0, len(s.files[kind]))
	for _, f := range s.files[kind] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out
}

// Len returns the number of files under the kind root.
func (s *Snapshot) Len(kind title.Kind) int {
	return len(s.files[kind])
}
