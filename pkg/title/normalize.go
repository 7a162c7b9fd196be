package title

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultSportKeywords are the grouping keywords that mark a live channel as sport.
var DefaultSportKeywords = []string{"soccer"}

// bareYearRegex matches a title that is nothing but a year, e.g. "1925" or "(1925)".
var bareYearRegex = regexp.MustCompile(`^\(?(\d{4})\)?$`)

// parenYearRegex matches a parenthesized year anywhere in the title.
var parenYearRegex = regexp.MustCompile(`\s*\((\d{4})\)`)

// looseYearRegex matches a four digit whole word delimited by whitespace.
// "1000-lb" does not match because the hyphen is not whitespace.
var looseYearRegex = regexp.MustCompile(`(?:^|\s)(\d{4})(?:\s|$)`)

// prefixPatterns are applied in order, each at most once.
var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\[[^\]]*\]\s*`),      // [VOD]
	regexp.MustCompile(`^[A-Z]{2,3}\s*\|\s*`), // EN |
	regexp.MustCompile(`^[A-Z]{2,3}\s*-\s*`),  // US -
	regexp.MustCompile(`^\d+\.\s*`),           // 01.
	regexp.MustCompile(`^\d+\s*\|\s*`),        // 12 |
	regexp.MustCompile(`^[A-Z]{2,3}\s*:\s*`),  // FR:
}

var countryRegex = regexp.MustCompile(`(?i)\s*\((?:US|UK|GB|AU|TR|JO|CA|KR|ES|JP|ZA|IT|CZ|BR|AE|DK|FR|DE|NL|IN|MX|NZ|IE|SE|NO|PL)\)`)

// episodePatterns are tried in priority order; the first match wins.
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]*E(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`),
	regexp.MustCompile(`(?i)\bSeason[\s._-]*(\d{1,3})[\s._-]*Episode[\s._-]*(\d{1,4})\b`),
}

var trailingSeasonRegex = regexp.MustCompile(`(?i)\s+S\d{1,2}$`)

var suffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\|.*$`),  // " | HD"
	regexp.MustCompile(`\s+-\s+.*$`), // " - Live"
	regexp.MustCompile(`\s*"$`),
}

// broadcasterTagRegex strips a leading tag such as "SOC - " from sport labels.
var broadcasterTagRegex = regexp.MustCompile(`^[A-Z]{2,4}\s*[-|:]\s*`)

var multiSpace = regexp.MustCompile(`\s+`)

// Normalizer normalizes raw titles. The zero value is not usable; use NewNormalizer.
type Normalizer struct {
	sportKeywords []string
	maxYear       int
}

// NewNormalizer creates a Normalizer. Empty keywords fall back to DefaultSportKeywords.
func NewNormalizer(sportKeywords []string) *Normalizer {
	if len(sportKeywords) == 0 {
		sportKeywords = DefaultSportKeywords
	}
	kws := make([]string, 0, len(sportKeywords))
	for _, kw := range sportKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Normalizer{
		sportKeywords: kws,
		maxYear:       time.Now().Year() + 1,
	}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize normalizes raw with the default sport keywords.
func Normalize(raw string, attrs map[string]string) Normalized {
	return defaultNormalizer.Normalize(raw, attrs)
}

// Normalize maps a raw catalog title plus its source attributes to a
// canonical title, year, season/episode and kind. It never fails: missing
// fields are left empty and an unusable title becomes a stable placeholder.
func (n *Normalizer) Normalize(raw string, attrs map[string]string) Normalized {
	var out Normalized

	s := collapse(Transliterate(raw))
	bare := bareYearRegex.MatchString(s)

	if !bare {
		if m := parenYearRegex.FindStringSubmatch(s); m != nil {
			out.Year = m[1]
			s = parenYearRegex.ReplaceAllString(s, " ")
			s = collapse(s)
		}
	}

	for _, p := range prefixPatterns {
		if stripped := strings.TrimSpace(p.ReplaceAllString(s, "")); stripped != "" {
			s = stripped
		}
	}

	s = countryRegex.ReplaceAllString(s, " ")

	var found bool
	s, out.Season, out.Episode, found = extractEpisode(s)
	if found {
		s = trailingSeasonRegex.ReplaceAllString(s, "")
	} else {
		out.Season, out.Episode = episodeFromAttrs(attrs)
	}
	if season, episode, ok := explicitEpisode(attrs); ok {
		out.Season, out.Episode = season, episode
	}

	for _, p := range suffixPatterns {
		if stripped := strings.TrimSpace(p.ReplaceAllString(s, "")); stripped != "" {
			s = stripped
		}
	}
	s = collapse(strings.Trim(s, " -:|\""))

	if bareYearRegex.MatchString(s) {
		s = bareYearRegex.ReplaceAllString(s, "$1")
	} else if out.Year == "" {
		s, out.Year = n.extractLooseYear(s)
	}

	out.Title = s
	n.classify(&out, attrs)

	if out.Kind == KindSport {
		out.Title = sportLabel(raw)
	}
	if out.Title == "" {
		out.Title = placeholder(raw, attrs)
	}
	return out
}

// extractEpisode finds the first season/episode marker and returns the title
// with the marker removed. Text after the marker is treated as an episode
// title and dropped unless nothing precedes the marker.
func extractEpisode(s string) (string, *int, *int, bool) {
	for _, p := range episodePatterns {
		loc := p.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		season, err1 := strconv.Atoi(s[loc[2]:loc[3]])
		episode, err2 := strconv.Atoi(s[loc[4]:loc[5]])
		if err1 != nil || err2 != nil {
			continue
		}
		before := strings.TrimSpace(s[:loc[0]])
		if before == "" {
			before = strings.TrimSpace(s[loc[1]:])
		}
		return before, &season, &episode, true
	}
	return s, nil, nil, false
}

// episodeFromAttrs looks for season/episode markers in the secondary title
// attributes when the primary title carried none.
func episodeFromAttrs(attrs map[string]string) (*int, *int) {
	for _, key := range []string{AttrDisplayName, AttrTVGName} {
		v, ok := attrs[key]
		if !ok || v == "" {
			continue
		}
		if _, season, episode, found := extractEpisode(Transliterate(v)); found {
			return season, episode
		}
	}
	return nil, nil
}

// explicitEpisode reads numeric season/episode attributes supplied by
// structured sources.
func explicitEpisode(attrs map[string]string) (*int, *int, bool) {
	sv, ok1 := attrs[AttrSeason]
	ev, ok2 := attrs[AttrEpisode]
	if !ok1 || !ok2 {
		return nil, nil, false
	}
	season, err := strconv.Atoi(strings.TrimSpace(sv))
	if err != nil || season < 0 {
		return nil, nil, false
	}
	episode, err := strconv.Atoi(strings.TrimSpace(ev))
	if err != nil || episode < 0 {
		return nil, nil, false
	}
	return &season, &episode, true
}

// extractLooseYear takes the last plausible whitespace-delimited year out of
// s. It runs after season/episode markers are gone so their digits are never
// mistaken for a year.
func (n *Normalizer) extractLooseYear(s string) (string, string) {
	matches := looseYearRegex.FindAllStringSubmatchIndex(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		year, _ := strconv.Atoi(s[m[2]:m[3]])
		if year < 1900 || year > n.maxYear {
			continue
		}
		rest := collapse(s[:m[2]] + " " + s[m[3]:])
		if rest == "" {
			return s, ""
		}
		return rest, s[m[2]:m[3]]
	}
	return s, ""
}

func (n *Normalizer) classify(out *Normalized, attrs map[string]string) {
	streamType := strings.ToLower(attrs[AttrStreamType])
	groups := []string{attrs[AttrGroup], attrs[AttrTVGGroup], attrs[AttrCategory]}

	// Live channels are kept only when a group names a sport.
	if streamType == "live" {
		out.Season, out.Episode = nil, nil
		out.Kind = KindUnknown
		n.classifySport(out, groups)
		return
	}

	if out.HasEpisode() {
		out.Kind = KindTV
		return
	}
	out.Season, out.Episode = nil, nil

	if n.classifySport(out, groups) {
		return
	}

	url := strings.ToLower(attrs[AttrURL])
	switch {
	case strings.Contains(url, "/movie/") || strings.Contains(url, "/vod/"):
		out.Kind = KindMovie
	case strings.Contains(url, "/series/") || streamType == "series":
		out.Kind = KindTV
	case containsAny(strings.ToLower(strings.Join(groups, " ")), "movie", "vod"):
		out.Kind = KindMovie
	case streamType == "movie" || streamType == "vod":
		out.Kind = KindMovie
	default:
		out.Kind = KindUnknown
	}
}

func (n *Normalizer) classifySport(out *Normalized, groups []string) bool {
	for _, g := range groups {
		if category, ok := n.sportCategory(g); ok {
			out.Kind = KindSport
			out.SportCategory = category
			return true
		}
	}
	return false
}

// sportCategory returns the text following a sport keyword in a group name,
// or the capitalized keyword when nothing follows it.
func (n *Normalizer) sportCategory(group string) (string, bool) {
	if group == "" {
		return "", false
	}
	lower := strings.ToLower(group)
	for _, kw := range n.sportKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		suffix := collapse(strings.Trim(Transliterate(group[idx+len(kw):]), " |:-_/"))
		if suffix != "" {
			return suffix, true
		}
		return strings.ToUpper(kw[:1]) + kw[1:], true
	}
	return "", false
}

func sportLabel(raw string) string {
	s := collapse(Transliterate(raw))
	if stripped := strings.TrimSpace(broadcasterTagRegex.ReplaceAllString(s, "")); stripped != "" {
		s = stripped
	}
	return s
}

// placeholder derives a stable name from the record so reruns map the same
// record to the same file.
func placeholder(raw string, attrs map[string]string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(raw))
	_, _ = h.Write([]byte(attrs[AttrURL]))
	return fmt.Sprintf("Unknown %08x", h.Sum32())
}

func collapse(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// StripEpisodeMarkers removes any season/episode marker and what follows it,
// along with a dangling season tag.
func StripEpisodeMarkers(s string) string {
	for _, p := range episodePatterns {
		if loc := p.FindStringIndex(s); loc != nil {
			if before := strings.TrimSpace(s[:loc[0]]); before != "" {
				s = before
			}
		}
	}
	s = trailingSeasonRegex.ReplaceAllString(s, "")
	return collapse(strings.Trim(s, " -:|"))
}
