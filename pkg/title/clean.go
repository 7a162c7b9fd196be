package title

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// romanNumeralRegex matches Roman numerals II-IX preceded by a space.
// Standalone "I" and "X" are left alone ("I Robot", "American History X").
var romanNumeralRegex = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanToArabic = map[string]string{
	"II": "2", "III": "3", "IV": "4", "V": "5",
	"VI": "6", "VII": "7", "VIII": "8", "IX": "9",
}

// NormalizeRomanNumerals converts Roman numerals (II-IX) to Arabic numbers.
func NormalizeRomanNumerals(s string) string {
	return romanNumeralRegex.ReplaceAllStringFunc(s, func(match string) string {
		roman := strings.TrimSpace(match)
		if arabic, ok := romanToArabic[strings.ToUpper(roman)]; ok {
			return " " + arabic
		}
		return match
	})
}

// CleanTitle reduces a title to a comparison key: lowercase ASCII, no
// articles, no punctuation, single spaces.
func CleanTitle(title string) string {
	s := strings.ToLower(Transliterate(title))
	s = NormalizeRomanNumerals(s)

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", " ")

	// "Léon: The Professional" strips the article of every part.
	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripLeadingArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// TokenSort returns the clean title with its words sorted, so word order does
// not affect similarity.
func TokenSort(title string) string {
	fields := strings.Fields(CleanTitle(title))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// IsBareYear reports whether a title is only a year, e.g. "1925" or "(1925)".
func IsBareYear(title string) bool {
	return bareYearRegex.MatchString(strings.TrimSpace(title))
}

func stripLeadingArticle(s string) string {
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, art) {
			return strings.TrimPrefix(s, art)
		}
	}
	return s
}
