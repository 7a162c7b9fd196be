// Package catalog parses IPTV provider catalogs (M3U playlists and Xtream
// API payloads) into normalized entries.
package catalog

import (
	"fmt"
	"strings"

	"github.com/vmunix/iptvstrm/pkg/title"
)

// Format identifies the wire format of a catalog.
type Format string

const (
	FormatM3U    Format = "m3u"
	FormatXtream Format = "xtream"
)

// ParseFormat converts a config or flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m3u", "m3u8", "m3u_plus":
		return FormatM3U, nil
	case "xtream", "xtream_json", "json":
		return FormatXtream, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension is the file extension used when a catalog of this format is cached on disk.
func (f Format) Extension() string {
	if f == FormatXtream {
		return "json"
	}
	return "m3u"
}

// Entry is one normalized catalog record.
type Entry struct {
	RawTitle      string
	CleanTitle    string
	Year          string
	Season        *int
	Episode       *int
	Kind          title.Kind
	SourceID      string // provider stream or episode id, empty when unknown
	ExternalID    string // metadata catalog id supplied by the provider or resolved later
	StreamURL     string // written verbatim into the .strm file
	SportCategory string
	Group         string
	Logo          string
}

// HasEpisode reports whether season and episode are both known.
func (e Entry) HasEpisode() bool {
	return e.Season != nil && e.Episode != nil
}

func (e Entry) String() string {
	switch {
	case e.HasEpisode():
		return fmt.Sprintf("%s S%02dE%02d", e.CleanTitle, *e.Season, *e.Episode)
	case e.Year != "":
		return fmt.Sprintf("%s (%s)", e.CleanTitle, e.Year)
	default:
		return e.CleanTitle
	}
}
