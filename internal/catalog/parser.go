package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/vmunix/iptvstrm/pkg/title"
)

// Parser turns raw catalog bytes into entries.
type Parser struct {
	normalizer    *title.Normalizer
	account       XtreamAccount
	excludeGroups map[string]struct{}
	log           *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithSportKeywords sets the group keywords that mark an entry as sport.
func WithSportKeywords(keywords []string) ParserOption {
	return func(p *Parser) {
		p.normalizer = title.NewNormalizer(keywords)
	}
}

// WithXtreamAccount sets the account used to build Xtream stream locators.
func WithXtreamAccount(account XtreamAccount) ParserOption {
	return func(p *Parser) {
		p.account = account
	}
}

// WithExcludeGroups drops entries whose group matches one of groups (case-insensitive).
func WithExcludeGroups(groups []string) ParserOption {
	return func(p *Parser) {
		for _, g := range groups {
			if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
				p.excludeGroups[g] = struct{}{}
			}
		}
	}
}

// WithLogger sets the parser logger.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.log = logger.With("component", "catalog")
		}
	}
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		normalizer:    title.NewNormalizer(nil),
		excludeGroups: make(map[string]struct{}),
		log:           slog.Default().With("component", "catalog"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog is a parsed catalog.
type Catalog struct {
	Entries []Entry
	// Incomplete lists the kinds the provider returned only in part, e.g.
	// series whose episode list could not be fetched. Files of these kinds
	// that are missing from Entries are not known to be gone.
	Incomplete []title.Kind
}

// IsIncomplete reports whether kind was returned only in part.
func (c *Catalog) IsIncomplete(kind title.Kind) bool {
	return lo.Contains(c.Incomplete, kind)
}

// Parse decodes raw in the given format and returns its entries.
func (p *Parser) Parse(format Format, raw []byte) ([]Entry, error) {
	c, err := p.ParseCatalog(format, raw)
	if err != nil {
		return nil, err
	}
	return c.Entries, nil
}

// ParseCatalog decodes raw in the given format. Malformed records are
// skipped and logged; ErrEmptyCatalog is returned when nothing usable
// remains.
func (p *Parser) ParseCatalog(format Format, raw []byte) (*Catalog, error) {
	c := &Catalog{}
	switch format {
	case FormatM3U:
		c.Entries = p.parseM3U(raw)
	case FormatXtream:
		payload, err := DecodeXtream(raw)
		if err != nil {
			return nil, err
		}
		var missing int
		c.Entries, missing = p.parseXtream(payload)
		if missing > 0 {
			p.log.Warn("series without episode list, keeping their files", "series", missing)
			c.Incomplete = append(c.Incomplete, title.KindTV)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if len(c.Entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	counts := lo.CountValuesBy(c.Entries, func(e Entry) title.Kind { return e.Kind })
	p.log.Info("catalog parsed",
		"format", format,
		"entries", len(c.Entries),
		"movies", counts[title.KindMovie],
		"episodes", counts[title.KindTV],
		"sports", counts[title.KindSport],
	)
	return c, nil
}

// Classify runs one raw title through the same rules as a catalog record.
// It reports false when the record would be dropped.
func (p *Parser) Classify(rawTitle string, attrs map[string]string) (Entry, bool) {
	return p.newEntry(rawTitle, attrs)
}

// newEntry normalizes rawTitle and builds an Entry. It reports false for
// records that should not reach the library.
func (p *Parser) newEntry(rawTitle string, attrs map[string]string) (Entry, bool) {
	group := firstNonEmpty(attrs[title.AttrGroup], attrs[title.AttrTVGGroup], attrs[title.AttrCategory])
	if _, excluded := p.excludeGroups[strings.ToLower(strings.TrimSpace(group))]; excluded && group != "" {
		p.log.Debug("dropping excluded group", "title", rawTitle, "group", group)
		return Entry{}, false
	}

	n := p.normalizer.Normalize(rawTitle, attrs)
	if n.Kind == title.KindUnknown {
		p.log.Debug("dropping unclassified record", "title", rawTitle, "group", group)
		return Entry{}, false
	}

	return Entry{
		RawTitle:      rawTitle,
		CleanTitle:    n.Title,
		Year:          n.Year,
		Season:        n.Season,
		Episode:       n.Episode,
		Kind:          n.Kind,
		StreamURL:     attrs[title.AttrURL],
		SportCategory: n.SportCategory,
		Group:         group,
	}, true
}
