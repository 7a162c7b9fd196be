package main

import (
	"errors"
	"fmt"
	"os"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"

	"github.com/vmunix/iptvstrm/internal/pipeline"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "iptvstrm",
	Short: "Build a .strm media library from an IPTV catalog",
	Long: `iptvstrm - turn an IPTV provider catalog into a media library

Fetches an M3U playlist or an Xtream Codes catalog, identifies movies,
TV episodes and sport events, and writes one .strm pointer file per
title (plus optional .nfo sidecars) so Kodi, Plex or Jellyfin can play
the streams as if they were local files.

Examples:
  iptvstrm init                          # Write a starter config
  iptvstrm config test                   # Validate the config
  iptvstrm sync --dry-run                # Show what a sync would change
  iptvstrm sync --yes                    # Sync, deleting stale files without asking
  iptvstrm parse "Breaking Bad S01E01"   # See how a title is classified`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrFetch), errors.Is(err, pipeline.ErrEmptyCatalog):
		return 2
	default:
		return 1
	}
}

func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", styleError.Render("error:"), err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("iptvstrm {{.Version}}\n")
}
