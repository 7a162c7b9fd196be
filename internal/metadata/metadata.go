// Package metadata enriches catalog entries with records from an external
// metadata catalog, with a persistent cache in front of every lookup.
package metadata

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vmunix/iptvstrm/internal/tmdb"
	"github.com/vmunix/iptvstrm/pkg/title"
)

const (
	posterSize = "w500"
	fanartSize = "original"
	stillSize  = "w300"
	maxCast    = 20
)

// Metadata is the enrichment result for one entry. For episodes the show
// fields describe the series and Episode carries the episode itself.
type Metadata struct {
	Kind          title.Kind
	ID            string // TMDB id
	Title         string
	OriginalTitle string
	Year          string
	Overview      string
	Tagline       string
	Runtime       int
	Rating        float64
	Votes         int
	Genres        []string
	Studios       []string
	Certification string
	IMDBID        string
	TVDBID        string
	Poster        string
	Fanart        string
	Premiered     string
	Cast          []Actor
	Directors     []string
	Writers       []string
	Episode       *EpisodeMetadata
}

// Actor is one cast credit.
type Actor struct {
	Name  string
	Role  string
	Order int
	Thumb string
}

// EpisodeMetadata describes a single episode.
type EpisodeMetadata struct {
	ID        string
	Title     string
	Overview  string
	Aired     string
	Season    int
	Episode   int
	Runtime   int
	Rating    float64
	Votes     int
	Thumb     string
	IMDBID    string
	TVDBID    string
	Directors []string
	Writers   []string
	Cast      []Actor
}

func fromMovie(m *tmdb.Movie, country string) Metadata {
	md := Metadata{
		Kind:          title.KindMovie,
		ID:            strconv.FormatInt(m.ID, 10),
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Overview:      m.Overview,
		Tagline:       m.Tagline,
		Runtime:       m.Runtime,
		Rating:        m.VoteAverage,
		Votes:         m.VoteCount,
		Certification: m.Certification(country),
		IMDBID:        firstNonEmpty(m.IMDBID, m.ExternalIDs.IMDBID),
		TVDBID:        tvdbID(m.ExternalIDs.TVDBID),
		Poster:        m.PosterURL(posterSize),
		Fanart:        m.BackdropURL(fanartSize),
		Premiered:     m.ReleaseDate,
		Cast:          actors(m.Credits.Cast),
		Directors:     crew(m.Credits.Crew, "Director"),
		Writers:       crew(m.Credits.Crew, "Screenplay", "Writer", "Story"),
	}
	if y := m.Year(); y > 0 {
		md.Year = strconv.Itoa(y)
	}
	for _, g := range m.Genres {
		md.Genres = append(md.Genres, g.Name)
	}
	for _, c := range m.ProductionCompanies {
		md.Studios = append(md.Studios, c.Name)
	}
	return md
}

func fromTV(s *tmdb.TV, country string) Metadata {
	md := Metadata{
		Kind:          title.KindTV,
		ID:            strconv.FormatInt(s.ID, 10),
		Title:         s.Name,
		OriginalTitle: s.OriginalName,
		Overview:      s.Overview,
		Tagline:       s.Tagline,
		Rating:        s.VoteAverage,
		Votes:         s.VoteCount,
		Certification: s.Certification(country),
		IMDBID:        s.ExternalIDs.IMDBID,
		TVDBID:        tvdbID(s.ExternalIDs.TVDBID),
		Poster:        s.PosterURL(posterSize),
		Fanart:        s.BackdropURL(fanartSize),
		Premiered:     s.FirstAirDate,
		Cast:          actors(s.Credits.Cast),
		Writers:       crew(s.CreatedBy, ""),
	}
	if y := s.Year(); y > 0 {
		md.Year = strconv.Itoa(y)
	}
	if len(s.EpisodeRunTime) > 0 {
		md.Runtime = s.EpisodeRunTime[0]
	}
	for _, g := range s.Genres {
		md.Genres = append(md.Genres, g.Name)
	}
	for _, n := range s.Networks {
		md.Studios = append(md.Studios, n.Name)
	}
	return md
}

func fromEpisode(e *tmdb.Episode) *EpisodeMetadata {
	return &EpisodeMetadata{
		ID:        strconv.FormatInt(e.ID, 10),
		Title:     e.Name,
		Overview:  e.Overview,
		Aired:     e.AirDate,
		Season:    e.SeasonNumber,
		Episode:   e.EpisodeNumber,
		Runtime:   e.Runtime,
		Rating:    e.VoteAverage,
		Votes:     e.VoteCount,
		Thumb:     e.StillURL(stillSize),
		IMDBID:    e.ExternalIDs.IMDBID,
		TVDBID:    tvdbID(e.ExternalIDs.TVDBID),
		Directors: crew(e.Crew, "Director"),
		Writers:   crew(e.Crew, "Writer", "Screenplay", "Teleplay"),
		Cast:      actors(e.GuestStars),
	}
}

func actors(cast []tmdb.CastMember) []Actor {
	sorted := append([]tmdb.CastMember(nil), cast...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	if len(sorted) > maxCast {
		sorted = sorted[:maxCast]
	}
	out := make([]Actor, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, Actor{
			Name:  c.Name,
			Role:  c.Character,
			Order: c.Order,
			Thumb: imageURL(c.ProfilePath),
		})
	}
	return out
}

// crew returns the names of crew members with one of jobs. An empty job matches everyone.
func crew(members []tmdb.CrewMember, jobs ...string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range members {
		if !matchesJob(m.Job, jobs) || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, m.Name)
	}
	return out
}

func matchesJob(job string, jobs []string) bool {
	for _, j := range jobs {
		if j == "" || j == job {
			return true
		}
	}
	return false
}

func imageURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w185" + path
}

func tvdbID(id int64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprint(id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
