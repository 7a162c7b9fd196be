// internal/importer/testutil_test.go
package importer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

var testRoots = map[title.Kind]string{
	title.KindMovie: "/lib/movies",
	title.KindTV:    "/lib/tv",
	title.KindSport: "/lib/sports",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func planned(e catalog.Entry, meta mo.Option[metadata.Metadata]) library.Planned {
	return library.Planned{Entry: e, Path: naming.Build(e, meta), Meta: meta}
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err, "read %s", path)
	return string(data)
}
