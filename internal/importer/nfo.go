// internal/importer/nfo.go
package importer

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/vmunix/iptvstrm/internal/metadata"
)

// ShowNFOName is the per-show sidecar in each show folder.
const ShowNFOName = "tvshow.nfo"

type nfoUniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr,omitempty"`
	Value   string `xml:",chardata"`
}

type nfoRating struct {
	Name    string  `xml:"name,attr"`
	Max     int     `xml:"max,attr"`
	Default bool    `xml:"default,attr"`
	Value   float64 `xml:"value"`
	Votes   int     `xml:"votes,omitempty"`
}

type nfoRatings struct {
	Rating []nfoRating `xml:"rating"`
}

type nfoThumb struct {
	Aspect string `xml:"aspect,attr,omitempty"`
	Value  string `xml:",chardata"`
}

type nfoFanart struct {
	Thumb []string `xml:"thumb"`
}

type nfoActor struct {
	Name  string `xml:"name"`
	Role  string `xml:"role,omitempty"`
	Order int    `xml:"order"`
	Thumb string `xml:"thumb,omitempty"`
}

type movieNFO struct {
	XMLName       xml.Name      `xml:"movie"`
	Title         string        `xml:"title"`
	OriginalTitle string        `xml:"originaltitle,omitempty"`
	Year          string        `xml:"year,omitempty"`
	Ratings       *nfoRatings   `xml:"ratings,omitempty"`
	Plot          string        `xml:"plot,omitempty"`
	Tagline       string        `xml:"tagline,omitempty"`
	Runtime       int           `xml:"runtime,omitempty"`
	Thumbs        []nfoThumb    `xml:"thumb"`
	Fanart        *nfoFanart    `xml:"fanart,omitempty"`
	MPAA          string        `xml:"mpaa,omitempty"`
	UniqueIDs     []nfoUniqueID `xml:"uniqueid"`
	Genres        []string      `xml:"genre"`
	Studios       []string      `xml:"studio"`
	Credits       []string      `xml:"credits"`
	Directors     []string      `xml:"director"`
	Premiered     string        `xml:"premiered,omitempty"`
	Actors        []nfoActor    `xml:"actor"`
}

type tvShowNFO struct {
	XMLName       xml.Name      `xml:"tvshow"`
	Title         string        `xml:"title"`
	OriginalTitle string        `xml:"originaltitle,omitempty"`
	Year          string        `xml:"year,omitempty"`
	Ratings       *nfoRatings   `xml:"ratings,omitempty"`
	Plot          string        `xml:"plot,omitempty"`
	Thumbs        []nfoThumb    `xml:"thumb"`
	Fanart        *nfoFanart    `xml:"fanart,omitempty"`
	MPAA          string        `xml:"mpaa,omitempty"`
	UniqueIDs     []nfoUniqueID `xml:"uniqueid"`
	Genres        []string      `xml:"genre"`
	Studios       []string      `xml:"studio"`
	Premiered     string        `xml:"premiered,omitempty"`
	Actors        []nfoActor    `xml:"actor"`
}

type episodeNFO struct {
	XMLName   xml.Name      `xml:"episodedetails"`
	Title     string        `xml:"title"`
	ShowTitle string        `xml:"showtitle"`
	Season    int           `xml:"season"`
	Episode   int           `xml:"episode"`
	Ratings   *nfoRatings   `xml:"ratings,omitempty"`
	Plot      string        `xml:"plot,omitempty"`
	Runtime   int           `xml:"runtime,omitempty"`
	Thumbs    []nfoThumb    `xml:"thumb"`
	MPAA      string        `xml:"mpaa,omitempty"`
	UniqueIDs []nfoUniqueID `xml:"uniqueid"`
	Credits   []string      `xml:"credits"`
	Directors []string      `xml:"director"`
	Aired     string        `xml:"aired,omitempty"`
	Actors    []nfoActor    `xml:"actor"`
}

// MovieNFO renders a Kodi movie sidecar.
func MovieNFO(md metadata.Metadata) ([]byte, error) {
	return render(movieNFO{
		Title:         md.Title,
		OriginalTitle: differs(md.OriginalTitle, md.Title),
		Year:          md.Year,
		Ratings:       ratings(md.Rating, md.Votes),
		Plot:          md.Overview,
		Tagline:       md.Tagline,
		Runtime:       md.Runtime,
		Thumbs:        thumbs(md.Poster, "poster"),
		Fanart:        fanart(md.Fanart),
		MPAA:          md.Certification,
		UniqueIDs:     uniqueIDs(md.ID, md.IMDBID, md.TVDBID),
		Genres:        md.Genres,
		Studios:       md.Studios,
		Credits:       md.Writers,
		Directors:     md.Directors,
		Premiered:     md.Premiered,
		Actors:        actors(md.Cast),
	})
}

// ShowNFO renders the tvshow.nfo for a show folder.
func ShowNFO(md metadata.Metadata) ([]byte, error) {
	return render(tvShowNFO{
		Title:         md.Title,
		OriginalTitle: differs(md.OriginalTitle, md.Title),
		Year:          md.Year,
		Ratings:       ratings(md.Rating, md.Votes),
		Plot:          md.Overview,
		Thumbs:        thumbs(md.Poster, "poster"),
		Fanart:        fanart(md.Fanart),
		MPAA:          md.Certification,
		UniqueIDs:     uniqueIDs(md.ID, md.IMDBID, md.TVDBID),
		Genres:        md.Genres,
		Studios:       md.Studios,
		Premiered:     md.Premiered,
		Actors:        actors(md.Cast),
	})
}

// EpisodeNFO renders an episode sidecar. When episode details are missing
// the show fields and the catalog numbering are used.
func EpisodeNFO(md metadata.Metadata, season, episode int) ([]byte, error) {
	nfo := episodeNFO{
		Title:     fmt.Sprintf("Episode %d", episode),
		ShowTitle: md.Title,
		Season:    season,
		Episode:   episode,
		MPAA:      md.Certification,
	}
	if ep := md.Episode; ep != nil {
		if ep.Title != "" {
			nfo.Title = ep.Title
		}
		nfo.Ratings = ratings(ep.Rating, ep.Votes)
		nfo.Plot = ep.Overview
		nfo.Runtime = ep.Runtime
		nfo.Thumbs = thumbs(ep.Thumb, "")
		nfo.UniqueIDs = uniqueIDs(ep.ID, ep.IMDBID, ep.TVDBID)
		nfo.Credits = ep.Writers
		nfo.Directors = ep.Directors
		nfo.Aired = ep.Aired
		nfo.Actors = actors(ep.Cast)
	}
	return render(nfo)
}

func render(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal nfo: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func differs(s, other string) string {
	if s == other {
		return ""
	}
	return s
}

func ratings(value float64, votes int) *nfoRatings {
	if value == 0 && votes == 0 {
		return nil
	}
	return &nfoRatings{Rating: []nfoRating{{Name: "themoviedb", Max: 10, Default: true, Value: value, Votes: votes}}}
}

func thumbs(url, aspect string) []nfoThumb {
	if url == "" {
		return nil
	}
	return []nfoThumb{{Aspect: aspect, Value: url}}
}

func fanart(url string) *nfoFanart {
	if url == "" {
		return nil
	}
	return &nfoFanart{Thumb: []string{url}}
}

func uniqueIDs(tmdbID, imdbID, tvdbID string) []nfoUniqueID {
	var ids []nfoUniqueID
	if tmdbID != "" {
		ids = append(ids, nfoUniqueID{Type: "tmdb", Default: true, Value: tmdbID})
	}
	if imdbID != "" {
		ids = append(ids, nfoUniqueID{Type: "imdb", Value: imdbID})
	}
	if tvdbID != "" {
		if _, err := strconv.ParseInt(tvdbID, 10, 64); err == nil {
			ids = append(ids, nfoUniqueID{Type: "tvdb", Value: tvdbID})
		}
	}
	return ids
}

func actors(cast []metadata.Actor) []nfoActor {
	return lo.Map(cast, func(a metadata.Actor, _ int) nfoActor {
		return nfoActor{Name: a.Name, Role: a.Role, Order: a.Order, Thumb: a.Thumb}
	})
}
