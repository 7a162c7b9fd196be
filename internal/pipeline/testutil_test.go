package pipeline

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/importer"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/migrations"
	"github.com/vmunix/iptvstrm/pkg/title"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="101" tvg-name="Show (2020)" group-title="Series",Show S01E02
http://provider.example/series/user/pass/101.mkv
#EXTINF:-1 tvg-id="202" tvg-name="EN| The Matrix (1999)" group-title="Movies",The Matrix (1999)
http://provider.example/movie/user/pass/202.mp4
#EXTINF:-1 tvg-id="303" tvg-name="BBC - Arsenal vs Chelsea" group-title="Soccer | Premier League",Arsenal vs Chelsea
http://provider.example/live/user/pass/303.ts
`

var testRoots = map[title.Kind]string{
	title.KindMovie: "/lib/movies",
	title.KindTV:    "/lib/tv",
	title.KindSport: "/lib/sports",
}

const (
	showPath  = "/lib/tv/Show (2020)/Season 01/Show (2020) S01E02.strm"
	moviePath = "/lib/movies/The Matrix (1999).strm"
	sportPath = "/lib/sports/Premier League/Arsenal vs Chelsea.strm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	data  string
	err   error
	calls int
}

func (s *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.data), nil
}

func (s *fakeSource) Format() catalog.Format { return catalog.FormatM3U }

type enricherFunc func(catalog.Entry) mo.Option[metadata.Metadata]

func (f enricherFunc) Enrich(_ context.Context, e catalog.Entry, _ string) mo.Option[metadata.Metadata] {
	return f(e)
}

func noMetadata(catalog.Entry) mo.Option[metadata.Metadata] {
	return mo.None[metadata.Metadata]()
}

func setupLedger(t *testing.T) *library.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return library.NewStore(db)
}

type harness struct {
	fs     afero.Fs
	source *fakeSource
	ledger *library.Store
	log    *slog.Logger
}

func newHarness(t *testing.T) *harness {
	return &harness{
		fs:     afero.NewMemMapFs(),
		source: &fakeSource{data: samplePlaylist},
		ledger: setupLedger(t),
		log:    testLogger(),
	}
}

// runner builds a runner with a ledger and an approving cleaner; opts are
// applied last.
func (h *harness) runner(opts ...Option) *Runner {
	imp := importer.New(testRoots, importer.WithFs(h.fs), importer.WithLogger(h.log))
	base := []Option{
		WithLedger(h.ledger),
		WithCleaner(importer.NewCleaner(h.fs, importer.AutoConfirmer{Answer: true}, h.log)),
		WithBatchSize(2),
		WithLogger(h.log),
	}
	return New(h.source, catalog.NewParser(catalog.WithLogger(h.log)), imp, testRoots, append(base, opts...)...)
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(h.fs, path)
	require.NoError(t, err)
	return string(data)
}

func (h *harness) exists(path string) bool {
	ok, _ := afero.Exists(h.fs, path)
	return ok
}
