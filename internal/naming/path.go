// internal/naming/path.go
package naming

import (
	"fmt"
	"path"
	"strings"

	"github.com/samber/mo"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// File extensions written into the library.
const (
	ExtStream = "strm"
	ExtNFO    = "nfo"
)

// DefaultSportCategory names the sports folder when an entry has no category.
const DefaultSportCategory = "Other"

// CanonicalPath is the library location of one entry, relative to the root
// for its kind.
type CanonicalPath struct {
	Kind title.Kind
	Dirs []string
	Base string // filename without extension
}

// Rel returns the slash-separated path relative to the kind root, with ext appended.
func (p CanonicalPath) Rel(ext string) string {
	parts := append(append([]string{}, p.Dirs...), p.Base+"."+ext)
	return path.Join(parts...)
}

// Key identifies the path for existence checks: relative, without
// extension, case-folded.
func (p CanonicalPath) Key() string {
	return KeyOf(path.Join(append(append([]string{}, p.Dirs...), p.Base)...))
}

// ShowDir returns the show folder for TV paths, or "" for other kinds.
func (p CanonicalPath) ShowDir() string {
	if p.Kind != title.KindTV || len(p.Dirs) == 0 {
		return ""
	}
	return p.Dirs[0]
}

func (p CanonicalPath) String() string {
	return p.Rel(ExtStream)
}

// KeyOf normalizes a relative path without extension into a lookup key.
func KeyOf(rel string) string {
	return strings.ToLower(path.Clean(strings.ReplaceAll(rel, "\\", "/")))
}

// Build computes the canonical path for entry. Metadata, when present,
// supplies the authoritative title, year and catalog id. Build is pure:
// the same entry and metadata always produce the same path.
func Build(entry catalog.Entry, meta mo.Option[metadata.Metadata]) CanonicalPath {
	switch entry.Kind {
	case title.KindTV:
		return buildEpisode(entry, meta)
	case title.KindSport:
		return buildSport(entry)
	default:
		return buildMovie(entry, meta)
	}
}

func buildMovie(entry catalog.Entry, meta mo.Option[metadata.Metadata]) CanonicalPath {
	name, year := entry.CleanTitle, entry.Year
	if md, ok := meta.Get(); ok && md.Title != "" {
		name = md.Title
		if md.Year != "" {
			year = md.Year
		}
	}
	return CanonicalPath{
		Kind: title.KindMovie,
		Base: withYear(Sanitize(name), name, year),
	}
}

func buildEpisode(entry catalog.Entry, meta mo.Option[metadata.Metadata]) CanonicalPath {
	name, year, id := title.StripEpisodeMarkers(entry.CleanTitle), entry.Year, entry.ExternalID
	if md, ok := meta.Get(); ok && md.Title != "" {
		name = md.Title
		if md.Year != "" {
			year = md.Year
		}
		id = md.ID
	}

	show := withYear(Sanitize(name), name, year)
	base := show
	if id != "" {
		base += fmt.Sprintf(" {tmdb=%s}", Sanitize(id))
	}

	if !entry.HasEpisode() {
		return CanonicalPath{Kind: title.KindTV, Dirs: []string{show}, Base: base}
	}
	return CanonicalPath{
		Kind: title.KindTV,
		Dirs: []string{show, fmt.Sprintf("Season %02d", *entry.Season)},
		Base: fmt.Sprintf("%s S%02dE%02d", base, *entry.Season, *entry.Episode),
	}
}

func buildSport(entry catalog.Entry) CanonicalPath {
	category := entry.SportCategory
	if category == "" {
		category = DefaultSportCategory
	}
	return CanonicalPath{
		Kind: title.KindSport,
		Dirs: []string{Sanitize(category)},
		Base: Sanitize(entry.CleanTitle),
	}
}

// withYear appends " (year)" unless the title is itself that year.
func withYear(sanitized, raw, year string) string {
	if year == "" || (title.IsBareYear(raw) && strings.Trim(raw, "() ") == year) {
		return sanitized
	}
	return fmt.Sprintf("%s (%s)", sanitized, year)
}

// FromRel rebuilds a CanonicalPath from a slash-separated relative path
// with extension, as recorded in the ledger.
func FromRel(kind title.Kind, rel string) CanonicalPath {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	dir, file := path.Split(rel)
	p := CanonicalPath{Kind: kind, Base: strings.TrimSuffix(file, path.Ext(file))}
	if dir = strings.Trim(dir, "/"); dir != "" {
		p.Dirs = strings.Split(dir, "/")
	}
	return p
}
