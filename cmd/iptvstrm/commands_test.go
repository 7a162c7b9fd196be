package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/iptvstrm/internal/pipeline"
	"github.com/vmunix/iptvstrm/pkg/title"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{fmt.Errorf("sync: %w", pipeline.ErrFetch), 2},
		{fmt.Errorf("sync: %w", pipeline.ErrEmptyCatalog), 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestPrintSummary(t *testing.T) {
	sum := &pipeline.Summary{
		Kinds: map[title.Kind]pipeline.Counts{
			title.KindMovie: {Created: 1200, Skipped: 3},
			title.KindTV:    {Deleted: 2, Failed: 1},
		},
		Entries:    1206,
		ShowsAdded: 4,
		Declined:   5,
		Duration:   1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	printSummary(&buf, sum)
	out := buf.String()

	assert.Contains(t, out, "1,206 entries")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "new shows: 4")
	assert.Contains(t, out, "5 stale files kept")
	assert.Contains(t, out, "1.5s")
}

func TestToSummaryJSON(t *testing.T) {
	sum := &pipeline.Summary{
		Kinds:  map[title.Kind]pipeline.Counts{title.KindSport: {Created: 2}},
		DryRun: true,
	}
	got := toSummaryJSON(sum)
	assert.Equal(t, 2, got.Kinds["sport"].Created)
	assert.Equal(t, 2, got.Totals.Created)
	assert.True(t, got.DryRun)
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iptvstrm", "config.toml")

	out, err := execute(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "init", path)
	assert.Error(t, err, "existing config is not overwritten")

	_, err = execute(t, "init", "--force", path)
	assert.NoError(t, err)
}

func TestConfigTestCmd(t *testing.T) {
	p := newProvider(t, samplePlaylist)
	w := newWorkspace(t, p.server.URL+"/playlist.m3u")

	out, err := execute(t, "config", "test", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid!")
	assert.Contains(t, out, w.root("movies"))
}

func TestConfigTestCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[provider]\nformat = \"xtream\"\nserver = \"${IPTVSTRM_T_UNSET_SERVER}\"\n"), 0600))

	out, err := execute(t, "config", "test", path)
	require.ErrorIs(t, err, errConfigInvalid)
	assert.Contains(t, out, "IPTVSTRM_T_UNSET_SERVER")
}

func TestCacheCmds(t *testing.T) {
	p := newProvider(t, samplePlaylist)
	w := newWorkspace(t, p.server.URL+"/playlist.m3u")

	out, err := execute(t, "cache", "stats", "--config", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "never")

	_, err = execute(t, "sync", "--config", w.config)
	require.NoError(t, err)

	out, err = execute(t, "cache", "stats", "--config", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "catalog.m3u")
	assert.Contains(t, out, "3 created")

	out, err = execute(t, "cache", "clear", "--config", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "1 cached catalogs")

	_, err = execute(t, "cache", "prune", "--config", w.config)
	assert.NoError(t, err)
}
