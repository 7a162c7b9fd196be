// internal/naming/sanitize_test.go
package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Movie Name", "Movie Name"},
		{"path separators", "Movie/Name\\Here", "MovieNameHere"},
		{"slash inside title", "Face/Off", "FaceOff"},
		{"path traversal", "../../../etc/passwd", "etcpasswd"},
		{"double dots", "Movie..Name", "Movie.Name"},
		{"illegal chars", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"illegal chars with spaces", "Movie: The *Best*   <One>", "Movie The Best One"},
		{"null bytes", "Movie\x00Name", "MovieName"},
		{"control chars", "Movie\tName\n", "Movie Name"},
		{"leading/trailing", "  .Movie Name.  ", "Movie Name"},
		{"enumeration remnant", "01. Movie", "Movie"},
		{"non-ascii", "Amélie ★", "Amelie"},
		{"only illegal", `<>:"/\|?*`, Placeholder},
		{"empty", "", Placeholder},
		{"only non-ascii", "日本語", Placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			assert.Equal(t, tt.want, got, "Sanitize(%q)", tt.input)
		})
	}
}

func TestSanitize_OutputHasNoIllegalCharacters(t *testing.T) {
	got := Sanitize(`What?  Is <this> "thing"  |  really*  a\/name:`)
	assert.NotContains(t, got, "  ")
	assert.False(t, strings.ContainsAny(got, `<>:"/\|?*`), "got %q", got)
}

func TestSanitize_Truncates(t *testing.T) {
	got := Sanitize(strings.Repeat("a", 500))
	assert.Len(t, got, maxNameLen)
}

func TestValidatePath(t *testing.T) {
	root := "/library/movies"

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid subpath", "/library/movies/Heat (1995).strm", false},
		{"valid nested", "/library/movies/A/B/movie.strm", false},
		{"exact root", "/library/movies", false},
		{"traversal attempt", "/library/movies/../etc/passwd", true},
		{"outside root", "/library/tv/show.strm", true},
		{"sibling with shared prefix", "/library/movies2/x.strm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, root)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathTraversal)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
