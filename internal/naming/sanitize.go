// internal/naming/sanitize.go
package naming

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vmunix/iptvstrm/pkg/title"
)

// Placeholder replaces a name that sanitizes to nothing.
const Placeholder = "Unknown"

// maxNameLen keeps a single path segment under common filesystem limits
// once the extension is appended.
const maxNameLen = 200

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)

// multiSpace matches multiple consecutive spaces.
var multiSpace = regexp.MustCompile(`\s+`)

// multiDot matches multiple consecutive dots.
var multiDot = regexp.MustCompile(`\.{2,}`)

// leadingEnumeration matches a "01. " remnant at the start of a name.
var leadingEnumeration = regexp.MustCompile(`^\d{1,3}\.\s+`)

// Sanitize makes name safe to use as a single path segment on any target
// filesystem. A name with nothing usable left becomes Placeholder.
func Sanitize(name string) string {
	// Transliterate also drops anything left outside ASCII.
	name = title.Transliterate(name)

	// Whitespace controls become spaces before the remaining illegal
	// characters are stripped, so "Face/Off" becomes "FaceOff".
	name = multiSpace.ReplaceAllString(name, " ")
	name = illegalChars.ReplaceAllString(name, "")

	name = multiDot.ReplaceAllString(name, ".")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")
	name = strings.TrimSpace(leadingEnumeration.ReplaceAllString(name, ""))

	if len(name) > maxNameLen {
		name = strings.TrimRight(name[:maxNameLen], " .")
	}
	if name == "" {
		return Placeholder
	}
	return name
}

// ValidatePath ensures the path is within the expected root directory.
// Returns ErrPathTraversal if the path would escape the root.
func ValidatePath(path, expectedRoot string) error {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(expectedRoot)

	// Ensure root ends with separator for prefix check
	prefix := cleanRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	if cleanPath != cleanRoot && !strings.HasPrefix(cleanPath, prefix) {
		return ErrPathTraversal
	}

	return nil
}
