package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/vmunix/iptvstrm/pkg/title"
)

// FlexID is an identifier that Xtream panels send either as a JSON number or a string.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = FlexID(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = FlexID(strconv.FormatInt(int64(f), 10))
	return nil
}

func (id FlexID) String() string { return string(id) }

// Int returns the id as an integer, or fallback when it is not numeric.
func (id FlexID) Int(fallback int) int {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return fallback
	}
	return n
}

// XtreamCategory maps a category id to its display name.
type XtreamCategory struct {
	CategoryID   FlexID `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// XtreamStream is a live channel or VOD record from get_live_streams / get_vod_streams.
type XtreamStream struct {
	StreamID           FlexID `json:"stream_id"`
	Name               string `json:"name"`
	StreamType         string `json:"stream_type"`
	StreamIcon         string `json:"stream_icon"`
	CategoryID         FlexID `json:"category_id"`
	CategoryName       string `json:"category_name,omitempty"`
	ContainerExtension string `json:"container_extension,omitempty"`
	TMDB               FlexID `json:"tmdb,omitempty"`
}

// XtreamSeries is a show record from get_series.
type XtreamSeries struct {
	SeriesID     FlexID `json:"series_id"`
	Name         string `json:"name"`
	Cover        string `json:"cover"`
	CategoryID   FlexID `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	ReleaseDate  string `json:"releaseDate,omitempty"`
	TMDB         FlexID `json:"tmdb,omitempty"`
}

// XtreamEpisode is one episode from get_series_info.
type XtreamEpisode struct {
	ID                 FlexID            `json:"id"`
	EpisodeNum         FlexID            `json:"episode_num"`
	Season             FlexID            `json:"season"`
	Title              string            `json:"title"`
	ContainerExtension string            `json:"container_extension"`
	Info               XtreamEpisodeInfo `json:"info"`
}

// XtreamEpisodeInfo holds optional episode details. Panels send [] when empty.
type XtreamEpisodeInfo struct {
	TMDBID      FlexID `json:"tmdb_id,omitempty"`
	Plot        string `json:"plot,omitempty"`
	ReleaseDate string `json:"releasedate,omitempty"`
	MovieImage  string `json:"movie_image,omitempty"`
}

// UnmarshalJSON ignores the empty-array form.
func (i *XtreamEpisodeInfo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*i = XtreamEpisodeInfo{}
		return nil
	}
	type plain XtreamEpisodeInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = XtreamEpisodeInfo(p)
	return nil
}

// EpisodeSet is the episodes field of get_series_info. Panels send either a
// map keyed by season number or a list indexed by season position; the shape
// is resolved once at decode time.
type EpisodeSet struct {
	BySeason map[string][]XtreamEpisode
	ByIndex  [][]XtreamEpisode
}

// UnmarshalJSON picks the representation from the first JSON token.
func (s *EpisodeSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = EpisodeSet{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '{':
		return json.Unmarshal(data, &s.BySeason)
	case '[':
		var nested [][]XtreamEpisode
		if err := json.Unmarshal(data, &nested); err == nil {
			s.ByIndex = nested
			return nil
		}
		var flat []XtreamEpisode
		if err := json.Unmarshal(data, &flat); err != nil {
			return fmt.Errorf("episodes: %w", err)
		}
		s.ByIndex = [][]XtreamEpisode{flat}
		return nil
	}
	return fmt.Errorf("episodes: unexpected JSON starting with %q", data[0])
}

// MarshalJSON writes the representation that was decoded.
func (s EpisodeSet) MarshalJSON() ([]byte, error) {
	if s.BySeason != nil {
		return json.Marshal(s.BySeason)
	}
	if s.ByIndex == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ByIndex)
}

// NumberedEpisode is an episode with its season and episode numbers resolved.
type NumberedEpisode struct {
	Season  int
	Number  int
	Episode XtreamEpisode
}

// All returns every episode ordered by season and episode number. An
// episode's own season field wins over the container position.
func (s EpisodeSet) All() []NumberedEpisode {
	var out []NumberedEpisode
	add := func(season int, eps []XtreamEpisode) {
		for i, ep := range eps {
			out = append(out, NumberedEpisode{
				Season:  ep.Season.Int(season),
				Number:  ep.EpisodeNum.Int(i + 1),
				Episode: ep,
			})
		}
	}
	for key, eps := range s.BySeason {
		season, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			season = 1
		}
		add(season, eps)
	}
	for i, eps := range s.ByIndex {
		add(i+1, eps)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Episode.ID < out[j].Episode.ID
	})
	return out
}

// XtreamSeriesInfo is the get_series_info response.
type XtreamSeriesInfo struct {
	Episodes EpisodeSet `json:"episodes"`
}

// XtreamPayload bundles every Xtream response needed to build a catalog. It
// is what the source fetcher stores on disk.
type XtreamPayload struct {
	LiveCategories   []XtreamCategory            `json:"live_categories,omitempty"`
	VODCategories    []XtreamCategory            `json:"vod_categories,omitempty"`
	SeriesCategories []XtreamCategory            `json:"series_categories,omitempty"`
	Live             []XtreamStream              `json:"live"`
	VOD              []XtreamStream              `json:"vod"`
	Series           []XtreamSeries              `json:"series"`
	SeriesInfo       map[string]XtreamSeriesInfo `json:"series_info"`
}

// XtreamAccount is used to synthesize stream locators, since Xtream catalogs
// do not embed playable URLs.
type XtreamAccount struct {
	Server    string
	Username  string
	Password  string
	StreamExt string // extension for live streams, e.g. "ts"
}

// StreamURL builds {server}/{kind}/{user}/{pass}/{id}.{ext}.
func (a XtreamAccount) StreamURL(kind, id, ext string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s",
		strings.TrimSuffix(a.Server, "/"),
		kind,
		url.PathEscape(a.Username),
		url.PathEscape(a.Password),
		url.PathEscape(id),
		ext,
	)
}

func categoryNames(cats []XtreamCategory) map[FlexID]string {
	m := make(map[FlexID]string, len(cats))
	for _, c := range cats {
		m[c.CategoryID] = c.CategoryName
	}
	return m
}

func categoryOf(name string, id FlexID, names map[FlexID]string) string {
	if name != "" {
		return name
	}
	return names[id]
}

// extOrDefault guards against panels that put junk in container_extension.
func extOrDefault(ext, fallback string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" || len(ext) > 5 {
		return fallback
	}
	return ext
}

// parseXtream returns the entries of payload and the number of series that
// have no episode list.
func (p *Parser) parseXtream(payload *XtreamPayload) ([]Entry, int) {
	var (
		entries []Entry
		missing int
	)

	vodCats := categoryNames(payload.VODCategories)
	for _, s := range payload.VOD {
		sid := s.StreamID.String()
		if sid == "" {
			p.log.Debug("dropping vod record without id", "name", s.Name)
			continue
		}
		group := categoryOf(s.CategoryName, s.CategoryID, vodCats)
		locator := p.account.StreamURL("movie", sid, extOrDefault(s.ContainerExtension, "mp4"))
		e, ok := p.newEntry(s.Name, map[string]string{
			title.AttrGroup:      group,
			title.AttrURL:        locator,
			title.AttrStreamType: "movie",
		})
		if !ok {
			continue
		}
		e.SourceID = sid
		e.ExternalID = s.TMDB.String()
		e.Logo = s.StreamIcon
		entries = append(entries, e)
	}

	seriesCats := categoryNames(payload.SeriesCategories)
	for _, s := range payload.Series {
		sid := s.SeriesID.String()
		if sid == "" {
			p.log.Debug("dropping series without id", "name", s.Name)
			continue
		}
		info, ok := payload.SeriesInfo[sid]
		if !ok {
			p.log.Debug("series without episode info", "name", s.Name, "series_id", sid)
			missing++
			continue
		}
		group := categoryOf(s.CategoryName, s.CategoryID, seriesCats)
		for _, ep := range info.Episodes.All() {
			eid := ep.Episode.ID.String()
			if eid == "" {
				continue
			}
			locator := p.account.StreamURL("series", eid, extOrDefault(ep.Episode.ContainerExtension, "mp4"))
			e, ok := p.newEntry(s.Name, map[string]string{
				title.AttrGroup:      group,
				title.AttrURL:        locator,
				title.AttrStreamType: "series",
				title.AttrSeason:     strconv.Itoa(ep.Season),
				title.AttrEpisode:    strconv.Itoa(ep.Number),
			})
			if !ok {
				continue
			}
			e.SourceID = eid
			e.ExternalID = s.TMDB.String()
			e.Logo = s.Cover
			entries = append(entries, e)
		}
	}

	liveCats := categoryNames(payload.LiveCategories)
	liveExt := extOrDefault(p.account.StreamExt, "ts")
	for _, s := range payload.Live {
		sid := s.StreamID.String()
		if sid == "" {
			continue
		}
		group := categoryOf(s.CategoryName, s.CategoryID, liveCats)
		locator := p.account.StreamURL("live", sid, liveExt)
		// Only sport channels survive; everything else classifies as unknown.
		e, ok := p.newEntry(s.Name, map[string]string{
			title.AttrGroup:      group,
			title.AttrURL:        locator,
			title.AttrStreamType: "live",
		})
		if !ok {
			continue
		}
		e.SourceID = sid
		e.Logo = s.StreamIcon
		entries = append(entries, e)
	}

	return entries, missing
}

// DecodeXtream decodes a stored Xtream payload.
func DecodeXtream(raw []byte) (*XtreamPayload, error) {
	var payload XtreamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &payload, nil
}
