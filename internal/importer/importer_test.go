package importer

import (
	"context"
	"testing"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/pkg/title"
)

func newTestImporter(fsys afero.Fs, opts ...Option) *Importer {
	opts = append([]Option{WithFs(fsys), WithLogger(testLogger()), WithWriteConcurrency(4)}, opts...)
	return New(testRoots, opts...)
}

func TestMaterialize_EpisodeWithoutMetadata(t *testing.T) {
	fsys := afero.NewMemMapFs()
	imp := newTestImporter(fsys)

	entry := catalog.Entry{
		CleanTitle: "Show", Year: "2020", Kind: title.KindTV,
		Season: intPtr(1), Episode: intPtr(2), StreamURL: "http://provider/series/u/p/101.mkv",
	}
	out := imp.Materialize(context.Background(), planned(entry, mo.None[metadata.Metadata]()))

	require.Equal(t, StatusCreated, out.Status, "err: %v", out.Err)
	assert.Equal(t, "/lib/tv/Show (2020)/Season 01/Show (2020) S01E02.strm", out.Path)
	assert.Equal(t, "Show (2020)/Season 01/Show (2020) S01E02.strm", out.Rel)
	assert.True(t, out.ShowCreated)
	assert.False(t, out.NFO)
	assert.Equal(t, "http://provider/series/u/p/101.mkv", readFile(t, fsys, out.Path))

	exists, _ := afero.Exists(fsys, "/lib/tv/Show (2020)/tvshow.nfo")
	assert.False(t, exists, "no sidecars without metadata")
}

func TestMaterialize_MovieWithMetadata(t *testing.T) {
	fsys := afero.NewMemMapFs()
	imp := newTestImporter(fsys)

	entry := catalog.Entry{CleanTitle: "Heat", Year: "1995", Kind: title.KindMovie, StreamURL: "http://x/949.mp4"}
	out := imp.Materialize(context.Background(), planned(entry, mo.Some(heatMetadata())))

	require.Equal(t, StatusCreated, out.Status)
	assert.True(t, out.NFO)
	assert.False(t, out.ShowCreated)
	assert.Contains(t, readFile(t, fsys, "/lib/movies/Heat (1995).nfo"), "<movie>")
}

func TestMaterialize_EpisodeWritesShowNFOOnce(t *testing.T) {
	fsys := afero.NewMemMapFs()
	imp := newTestImporter(fsys)
	md := metadata.Metadata{Kind: title.KindTV, ID: "1396", Title: "Breaking Bad", Year: "2008"}

	for ep := 1; ep <= 3; ep++ {
		entry := catalog.Entry{
			CleanTitle: "Breaking Bad", Kind: title.KindTV,
			Season: intPtr(1), Episode: intPtr(ep), StreamURL: "http://x/ep",
		}
		out := imp.Materialize(context.Background(), planned(entry, mo.Some(md)))
		require.Equal(t, StatusCreated, out.Status)
		assert.Equal(t, ep == 1, out.ShowCreated)
		assert.True(t, out.NFO)
	}

	assert.Contains(t, readFile(t, fsys, "/lib/tv/Breaking Bad (2008)/tvshow.nfo"), "<tvshow>")
	assert.Contains(t, readFile(t, fsys,
		"/lib/tv/Breaking Bad (2008)/Season 01/Breaking Bad (2008) {tmdb=1396} S01E03.nfo"), "<episodedetails>")
}

func TestMaterialize_ExistingFileIsSkipped(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/lib/movies/Heat (1995).strm", []byte("http://old"), 0o644))
	imp := newTestImporter(fsys)

	entry := catalog.Entry{CleanTitle: "Heat", Year: "1995", Kind: title.KindMovie, StreamURL: "http://new"}
	out := imp.Materialize(context.Background(), planned(entry, mo.Some(heatMetadata())))

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, "http://old", readFile(t, fsys, "/lib/movies/Heat (1995).strm"))
	exists, _ := afero.Exists(fsys, "/lib/movies/Heat (1995).nfo")
	assert.False(t, exists)
}

func TestMaterialize_ExistingSidecarNotRegenerated(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/lib/movies/Heat (1995).nfo", []byte("<movie>custom</movie>"), 0o644))
	imp := newTestImporter(fsys)

	entry := catalog.Entry{CleanTitle: "Heat", Year: "1995", Kind: title.KindMovie, StreamURL: "http://x"}
	out := imp.Materialize(context.Background(), planned(entry, mo.Some(heatMetadata())))

	assert.Equal(t, StatusCreated, out.Status)
	assert.False(t, out.NFO)
	assert.Equal(t, "<movie>custom</movie>", readFile(t, fsys, "/lib/movies/Heat (1995).nfo"))
}

func TestMaterialize_SportHasNoSidecar(t *testing.T) {
	fsys := afero.NewMemMapFs()
	imp := newTestImporter(fsys)

	entry := catalog.Entry{CleanTitle: "Arsenal vs Chelsea", Kind: title.KindSport, SportCategory: "Premier League", StreamURL: "http://x/live"}
	md := metadata.Metadata{Title: "ignored"}
	out := imp.Materialize(context.Background(), planned(entry, mo.Some(md)))

	require.Equal(t, StatusCreated, out.Status)
	assert.Equal(t, "/lib/sports/Premier League/Arsenal vs Chelsea.strm", out.Path)
	assert.False(t, out.NFO)
}

func TestMaterialize_NFODisabled(t *testing.T) {
	fsys := afero.NewMemMapFs()
	imp := newTestImporter(fsys, WithNFO(false))

	entry := catalog.Entry{CleanTitle: "Heat", Year: "1995", Kind: title.KindMovie, StreamURL: "http://x"}
	out := imp.Materialize(context.Background(), planned(entry, mo.Some(heatMetadata())))

	assert.Equal(t, StatusCreated, out.Status)
	assert.False(t, out.NFO)
}

func TestMaterialize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fsys    afero.Fs
		roots   map[title.Kind]string
		entry   catalog.Entry
		wantErr error
	}{
		{
			name:    "missing stream url",
			fsys:    afero.NewMemMapFs(),
			roots:   testRoots,
			entry:   catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie},
			wantErr: ErrNoStreamURL,
		},
		{
			name:    "no root for kind",
			fsys:    afero.NewMemMapFs(),
			roots:   map[title.Kind]string{title.KindMovie: "/lib/movies"},
			entry:   catalog.Entry{CleanTitle: "Match", Kind: title.KindSport, StreamURL: "http://x"},
			wantErr: library.ErrNoRoot,
		},
		{
			name:    "read-only filesystem",
			fsys:    afero.NewReadOnlyFs(afero.NewMemMapFs()),
			roots:   testRoots,
			entry:   catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie, StreamURL: "http://x"},
			wantErr: ErrWriteFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := New(tt.roots, WithFs(tt.fsys), WithLogger(testLogger()))
			out := imp.Materialize(context.Background(), planned(tt.entry, mo.None[metadata.Metadata]()))

			assert.Equal(t, StatusFailed, out.Status)
			assert.ErrorIs(t, out.Err, tt.wantErr)
		})
	}
}

func TestMaterialize_CancelledContext(t *testing.T) {
	fsys := afero.NewMemMapFs()
	imp := newTestImporter(fsys, WithWriteConcurrency(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the only slot so Acquire must observe the cancellation.
	require.NoError(t, imp.sem.Acquire(context.Background(), 1))
	defer imp.sem.Release(1)

	entry := catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie, StreamURL: "http://x"}
	out := imp.Materialize(ctx, planned(entry, mo.None[metadata.Metadata]()))

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
}
