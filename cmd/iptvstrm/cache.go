package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/config"
	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/source"
)

var catalogExts = []string{catalog.FormatM3U.Extension(), catalog.FormatXtream.Extension()}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the metadata and catalog caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache sizes and the last sync run",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired metadata cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached metadata and the cached catalog",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
}

func catalogCache(cfg *config.Config) *source.DiskCache {
	return source.NewDiskCache(afero.NewOsFs(), cfg.General.DataDir, cfg.Provider.MaxAge)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	live, expired, err := metadata.NewCache(a.db).Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, styleHeading.Render("Metadata cache"))
	_, _ = fmt.Fprintf(out, "  %s live, %s expired\n", count(int(live)), count(int(expired)))

	_, _ = fmt.Fprintln(out, styleHeading.Render("Catalog cache"))
	files := catalogCache(cfg).Files(catalogExts...)
	if len(files) == 0 {
		_, _ = fmt.Fprintln(out, "  empty")
	}
	for _, f := range files {
		state := styleOK.Render("fresh")
		if !f.Fresh {
			state = styleWarn.Render("stale")
		}
		_, _ = fmt.Fprintf(out, "  %s  %s, saved %s (%s)\n",
			f.Path, humanize.Bytes(uint64(f.Size)), humanize.Time(f.ModTime), state)
	}

	_, _ = fmt.Fprintln(out, styleHeading.Render("Last sync"))
	finished, stats, err := library.NewStore(a.db).LastRun()
	switch {
	case errors.Is(err, library.ErrNotFound):
		_, _ = fmt.Fprintln(out, "  never")
	case err != nil:
		return err
	default:
		_, _ = fmt.Fprintf(out, "  %s: %s created, %s deleted, %s failed\n",
			humanize.Time(finished), count(stats.Created), count(stats.Deleted), count(stats.Failed))
	}
	return nil
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	n, err := metadata.NewCache(a.db).Prune(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s expired metadata entries\n", count(int(n)))
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	n, err := metadata.NewCache(a.db).Clear(cmd.Context())
	if err != nil {
		return err
	}
	files, err := catalogCache(cfg).Clear(catalogExts...)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s metadata entries and %d cached catalogs\n", count(int(n)), files)
	return nil
}
