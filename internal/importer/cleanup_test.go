package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/iptvstrm/internal/importer/mocks"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/pkg/title"
)

func seedLibrary(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, p := range []string{
		"/lib/movies/Old Movie (2001).strm",
		"/lib/movies/Old Movie (2001).nfo",
		"/lib/movies/Kept (2002).strm",
		"/lib/tv/Gone Show/tvshow.nfo",
		"/lib/tv/Gone Show/Season 01/Gone Show S01E01.strm",
		"/lib/tv/Gone Show/Season 01/Gone Show S01E01.nfo",
		"/lib/tv/Kept Show/Season 01/Kept Show S01E01.strm",
		"/lib/sports/Other/Match.strm",
	} {
		require.NoError(t, afero.WriteFile(fsys, p, []byte("x"), 0o644))
	}
	return fsys
}

func exists(t *testing.T, fsys afero.Fs, p string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, p)
	require.NoError(t, err)
	return ok
}

func TestCleaner_DeleteConfirmedPerKind(t *testing.T) {
	fsys := seedLibrary(t)
	ctrl := gomock.NewController(t)
	confirm := mocks.NewMockConfirmer(ctrl)
	gomock.InOrder(
		confirm.EXPECT().Confirm(gomock.Any(), gomock.Any(), []string{"[stale] Old Movie (2001).strm"}).Return(true, nil),
		confirm.EXPECT().Confirm(gomock.Any(), gomock.Any(), gomock.Len(1)).Return(true, nil),  // tv
		confirm.EXPECT().Confirm(gomock.Any(), gomock.Any(), gomock.Len(1)).Return(false, nil), // sports
	)

	stale := []library.Stale{
		{Kind: title.KindTV, Rel: "Gone Show/Season 01/Gone Show S01E01.strm", Reason: library.ReasonStale},
		{Kind: title.KindMovie, Rel: "Old Movie (2001).strm", Reason: library.ReasonStale},
		{Kind: title.KindSport, Rel: "Other/Match.strm", Reason: library.ReasonStale},
	}

	report, err := NewCleaner(fsys, confirm, testLogger()).Delete(context.Background(), testRoots, stale)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted[title.KindMovie])
	assert.Equal(t, 1, report.Deleted[title.KindTV])
	assert.Equal(t, 2, report.Total())
	assert.Equal(t, 1, report.Declined)
	assert.Zero(t, report.Failed)

	assert.False(t, exists(t, fsys, "/lib/movies/Old Movie (2001).strm"))
	assert.False(t, exists(t, fsys, "/lib/movies/Old Movie (2001).nfo"), "sibling nfo removed")
	assert.True(t, exists(t, fsys, "/lib/movies/Kept (2002).strm"))
	assert.False(t, exists(t, fsys, "/lib/tv/Gone Show/Season 01/Gone Show S01E01.nfo"))
	assert.True(t, exists(t, fsys, "/lib/sports/Other/Match.strm"), "declined batch untouched")
}

func TestCleaner_DeleteContinuesAfterFailure(t *testing.T) {
	fsys := seedLibrary(t)

	stale := []library.Stale{
		{Kind: title.KindMovie, Rel: "Missing (1999).strm"},
		{Kind: title.KindMovie, Rel: "Old Movie (2001).strm"},
	}
	report, err := NewCleaner(fsys, AutoConfirmer{Answer: true}, testLogger()).Delete(context.Background(), testRoots, stale)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Deleted[title.KindMovie])
	assert.False(t, exists(t, fsys, "/lib/movies/Old Movie (2001).strm"))
}

func TestCleaner_DeleteRejectsTraversal(t *testing.T) {
	fsys := seedLibrary(t)

	stale := []library.Stale{{Kind: title.KindMovie, Rel: "../tv/Kept Show/Season 01/Kept Show S01E01.strm"}}
	report, err := NewCleaner(fsys, AutoConfirmer{Answer: true}, testLogger()).Delete(context.Background(), testRoots, stale)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.True(t, exists(t, fsys, "/lib/tv/Kept Show/Season 01/Kept Show S01E01.strm"))
}

func TestCleaner_ConfirmerError(t *testing.T) {
	fsys := seedLibrary(t)
	ctrl := gomock.NewController(t)
	confirm := mocks.NewMockConfirmer(ctrl)
	confirm.EXPECT().Confirm(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("interrupt"))

	stale := []library.Stale{{Kind: title.KindMovie, Rel: "Old Movie (2001).strm"}}
	_, err := NewCleaner(fsys, confirm, testLogger()).Delete(context.Background(), testRoots, stale)

	assert.Error(t, err)
	assert.True(t, exists(t, fsys, "/lib/movies/Old Movie (2001).strm"))
}

func TestCleaner_PruneEmptyDirs(t *testing.T) {
	fsys := seedLibrary(t)
	require.NoError(t, fsys.Remove("/lib/tv/Gone Show/Season 01/Gone Show S01E01.strm"))
	require.NoError(t, fsys.Remove("/lib/tv/Gone Show/Season 01/Gone Show S01E01.nfo"))
	require.NoError(t, fsys.Remove("/lib/sports/Other/Match.strm"))

	ctrl := gomock.NewController(t)
	confirm := mocks.NewMockConfirmer(ctrl)
	confirm.EXPECT().Confirm(gomock.Any(), gomock.Any(), []string{
		"/lib/tv/Gone Show/Season 01",
		"/lib/tv/Gone Show",
		"/lib/sports/Other",
	}).Return(true, nil)

	removed, err := NewCleaner(fsys, confirm, testLogger()).PruneEmptyDirs(context.Background(), testRoots)
	require.NoError(t, err)

	assert.Equal(t, 3, removed)
	assert.False(t, exists(t, fsys, "/lib/tv/Gone Show"))
	assert.True(t, exists(t, fsys, "/lib/tv/Kept Show/Season 01"))
	assert.True(t, exists(t, fsys, "/lib/sports"), "roots are kept")
}

func TestCleaner_PruneNothingToDo(t *testing.T) {
	fsys := seedLibrary(t)
	ctrl := gomock.NewController(t)
	confirm := mocks.NewMockConfirmer(ctrl) // no prompt expected

	removed, err := NewCleaner(fsys, confirm, testLogger()).PruneEmptyDirs(context.Background(), testRoots)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCleaner_PruneDeclined(t *testing.T) {
	fsys := seedLibrary(t)
	require.NoError(t, fsys.Remove("/lib/sports/Other/Match.strm"))

	removed, err := NewCleaner(fsys, AutoConfirmer{Answer: false}, testLogger()).PruneEmptyDirs(context.Background(), testRoots)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.True(t, exists(t, fsys, "/lib/sports/Other"))
}
