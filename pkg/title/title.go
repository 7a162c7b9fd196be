// Package title turns raw IPTV catalog titles into canonical title, year,
// season/episode and content kind.
package title

// Kind is the library a catalog record belongs to.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindTV      Kind = "tv"
	KindSport   Kind = "sport"
	KindUnknown Kind = "unknown"
)

// Kinds lists the kinds that are materialized, in processing order.
var Kinds = []Kind{KindMovie, KindTV, KindSport}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the materialized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMovie, KindTV, KindSport:
		return true
	}
	return false
}

// Attribute keys understood by Normalize.
const (
	AttrTVGName     = "tvg-name"
	AttrDisplayName = "display-name" // text after the comma on an #EXTINF line
	AttrGroup       = "group-title"
	AttrTVGGroup    = "tvg-group"
	AttrCategory    = "category"
	AttrURL         = "url"
	AttrStreamType  = "stream-type" // movie, series or live
	AttrSeason      = "season"
	AttrEpisode     = "episode"
)

// Normalized is the result of normalizing one raw title.
type Normalized struct {
	Title         string
	Year          string // four digits or empty
	Season        *int
	Episode       *int
	Kind          Kind
	SportCategory string
}

// HasEpisode reports whether both season and episode were resolved.
func (n Normalized) HasEpisode() bool {
	return n.Season != nil && n.Episode != nil
}
