package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vmunix/iptvstrm/pkg/title"
	"golang.org/x/text/encoding/charmap"
)

const maxLineSize = 1 << 20 // 1 MiB per line

// exclusionMarker marks disabled or separator records such as "##### MOVIES #####".
const exclusionMarker = "###"

var attrRegex = regexp.MustCompile(`([A-Za-z0-9_-]+)="([^"]*)"`)

// urlIDRegex pulls a numeric id from the last path segment, e.g. /movie/u/p/12345.mkv.
var urlIDRegex = regexp.MustCompile(`/(\d+)(?:\.[A-Za-z0-9]+)?(?:[?#].*)?$`)

// m3uRecord is one #EXTINF line paired with its URL.
type m3uRecord struct {
	line    int
	attrs   map[string]string
	display string
	url     string
}

// scanM3U pairs each #EXTINF line with the next non-blank, non-comment line.
// Records without a usable URL are reported through onDrop and skipped.
func scanM3U(r io.Reader, onDrop func(line int, extinf string, err error)) ([]m3uRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineSize)

	var (
		records []m3uRecord
		pending *m3uRecord
		extinf  string
		lineNo  int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(decodeLine(sc.Bytes()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			if pending != nil {
				onDrop(pending.line, extinf, errNoURL)
			}
			attrs, display := splitExtinf(line)
			pending = &m3uRecord{line: lineNo, attrs: attrs, display: display}
			extinf = line
			continue
		}
		if strings.HasPrefix(line, "#EXTGRP:") && pending != nil {
			if _, ok := pending.attrs[title.AttrGroup]; !ok {
				pending.attrs[title.AttrGroup] = strings.TrimSpace(strings.TrimPrefix(line, "#EXTGRP:"))
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if pending == nil {
			continue
		}
		if !isStreamURL(line) {
			onDrop(pending.line, extinf, fmt.Errorf("%w: %q", errNoURL, line))
			pending = nil
			continue
		}
		pending.url = line
		records = append(records, *pending)
		pending = nil
	}
	if pending != nil {
		onDrop(pending.line, extinf, errNoURL)
	}
	return records, sc.Err()
}

// decodeLine returns the line as UTF-8, reading invalid byte sequences as Windows-1252.
func decodeLine(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, nil))
	}
	return string(decoded)
}

// splitExtinf separates the attribute list from the display title. The title
// follows the first comma that is not inside a quoted attribute value.
func splitExtinf(line string) (map[string]string, string) {
	body := strings.TrimPrefix(line, "#EXTINF:")

	split := -1
	inQuotes := false
	for i, r := range body {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if r == ',' && !inQuotes {
			split = i
			break
		}
	}

	head, display := body, ""
	if split >= 0 {
		head, display = body[:split], body[split+1:]
	}

	attrs := make(map[string]string)
	for _, m := range attrRegex.FindAllStringSubmatch(head, -1) {
		attrs[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
	}
	return attrs, strings.TrimSpace(display)
}

func isStreamURL(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range []string{"http://", "https://", "rtmp://", "rtsp://", "udp://"} {
		if strings.HasPrefix(lower, scheme) && len(s) > len(scheme) {
			return true
		}
	}
	return strings.HasPrefix(s, "/")
}

// m3uSourceID resolves the provider id: stream-id, then tvg-id, then a
// numeric id embedded in the URL path.
func m3uSourceID(attrs map[string]string, url string) string {
	if id := attrs["stream-id"]; id != "" {
		return id
	}
	if id := attrs["tvg-id"]; id != "" {
		return id
	}
	if m := urlIDRegex.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

func (p *Parser) parseM3U(raw []byte) []Entry {
	records, err := scanM3U(bytes.NewReader(raw), func(line int, extinf string, err error) {
		p.log.Debug("dropping m3u record", "line", line, "extinf", extinf, "error", err)
	})
	if err != nil {
		// A scanner error (e.g. a line over 1 MiB) ends the scan; keep what was read.
		p.log.Warn("m3u scan stopped early", "records", len(records), "error", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		rawTitle := rec.attrs[title.AttrTVGName]
		if rawTitle == "" {
			rawTitle = rec.display
		}
		if strings.Contains(rawTitle, exclusionMarker) || strings.Contains(rec.display, exclusionMarker) {
			p.log.Debug("dropping excluded record", "line", rec.line, "title", rawTitle)
			continue
		}

		attrs := map[string]string{
			title.AttrTVGName:     rec.attrs[title.AttrTVGName],
			title.AttrDisplayName: rec.display,
			title.AttrGroup:       rec.attrs[title.AttrGroup],
			title.AttrTVGGroup:    rec.attrs[title.AttrTVGGroup],
			title.AttrURL:         rec.url,
		}

		e, ok := p.newEntry(rawTitle, attrs)
		if !ok {
			continue
		}
		e.SourceID = m3uSourceID(rec.attrs, rec.url)
		e.ExternalID = firstNonEmpty(rec.attrs["tmdb-id"], rec.attrs["tmdb"])
		e.Logo = rec.attrs["tvg-logo"]
		entries = append(entries, e)
	}
	return entries
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
