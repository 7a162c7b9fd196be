package title

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold covers letters that do not decompose into a base letter plus a mark.
var asciiFold = map[rune]string{
	'ß': "ss", 'ẞ': "SS",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'ø': "o", 'Ø': "O",
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "TH",
	'ı': "i",
	'‘': "'", '’': "'", '‚': "'",
	'“': "\"", '”': "\"", '„': "\"",
	'–': "-", '—': "-", '‐': "-",
	'…': "...",
	' ': " ",
}

// Transliterate maps s to its nearest ASCII representation. Accents are
// stripped, a few ligatures are expanded and anything left outside ASCII is
// dropped.
func Transliterate(s string) string {
	s = removeAccents(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
			continue
		}
		if rep, ok := asciiFold[r]; ok {
			b.WriteString(rep)
		}
	}
	return b.String()
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
