package library

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/iptvstrm/pkg/title"
)

func writeFiles(t *testing.T, fsys afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(fsys, p, []byte("http://example/stream"), 0o644))
	}
}

func TestScan_CollectsStreamFilesPerRoot(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys,
		"/lib/movies/Heat (1995).strm",
		"/lib/movies/Heat (1995).nfo",
		"/lib/tv/Show (2020)/Season 01/Show (2020) S01E02.STRM",
		"/lib/tv/Show (2020)/tvshow.nfo",
		"/lib/sports/Premier League/Arsenal vs Chelsea.strm",
	)

	snap, err := Scan(fsys, map[title.Kind]string{
		title.KindMovie: "/lib/movies",
		title.KindTV:    "/lib/tv",
		title.KindSport: "/lib/sports",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Len(title.KindMovie))
	assert.Equal(t, 1, snap.Len(title.KindTV))
	assert.Equal(t, 1, snap.Len(title.KindSport))
	assert.True(t, snap.Contains(title.KindMovie, "heat (1995)"))
	assert.True(t, snap.Contains(title.KindTV, "show (2020)/season 01/show (2020) s01e02"))
	assert.True(t, snap.Contains(title.KindSport, "premier league/arsenal vs chelsea"))
	assert.False(t, snap.Contains(title.KindMovie, "show (2020)/season 01/show (2020) s01e02"))
}

func TestScan_MissingRootIsEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()

	snap, err := Scan(fsys, map[title.Kind]string{
		title.KindMovie: "/does/not/exist",
		title.KindSport: "",
	})
	require.NoError(t, err)
	assert.Zero(t, snap.Len(title.KindMovie))
	assert.Empty(t, snap.Files(title.KindMovie))
}

func TestSnapshot_FilesSorted(t *testing.T) {
	snap := NewSnapshot(nil, map[title.Kind][]string{
		title.KindMovie: {"b.strm", "a.strm", "c.strm"},
	})

	files := snap.Files(title.KindMovie)
	require.Len(t, files, 3)
	assert.Equal(t, "a.strm", files[0].Rel)
	assert.Equal(t, "b.strm", files[1].Rel)
	assert.Equal(t, "c.strm", files[2].Rel)
}

func TestSnapshot_Root(t *testing.T) {
	snap := NewSnapshot(map[title.Kind]string{title.KindMovie: "/lib/movies"}, nil)

	root, err := snap.Root(title.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, "/lib/movies", root)

	_, err = snap.Root(title.KindTV)
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestStreamFile_Depth(t *testing.T) {
	assert.Equal(t, 0, StreamFile{Rel: "Heat (1995).strm"}.Depth())
	assert.Equal(t, 2, StreamFile{Rel: "Show/Season 01/Show S01E01.strm"}.Depth())
}
