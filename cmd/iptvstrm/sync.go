package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var syncOpts syncOptions

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the catalog and bring the library up to date",
	Long: `Fetch the provider catalog, resolve metadata, write missing .strm files
and remove files whose titles left the catalog.

Stale files are only deleted after confirmation. Without a terminal the
deletion is declined unless --yes is given or sync.confirm_deletes is off.

Exit status is 2 when the catalog could not be fetched or was empty, so
a broken provider never empties the library.`,
	Example: `  iptvstrm sync
  iptvstrm sync --dry-run --json
  iptvstrm sync --yes --refresh`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncOpts.assumeYes, "yes", "y", false, "Delete stale files without asking")
	syncCmd.Flags().BoolVarP(&syncOpts.dryRun, "dry-run", "n", false, "Show the plan without writing anything")
	syncCmd.Flags().BoolVar(&syncOpts.refresh, "refresh", false, "Ignore the cached catalog and download it again")
	syncCmd.Flags().BoolVar(&syncOpts.noPrune, "no-prune", false, "Keep stale files")
	syncCmd.Flags().BoolVar(&syncOpts.noRescan, "no-rescan", false, "Do not notify media servers")
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	runner, err := a.runner(syncOpts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The summary is printed for failed runs too, with the counts so far.
	sum, err := runner.Run(ctx)
	if sum != nil {
		out := cmd.OutOrStdout()
		if jsonOutput {
			if jerr := printJSON(out, toSummaryJSON(sum)); jerr != nil {
				return jerr
			}
		} else {
			printSummary(out, sum)
			printPlan(out, sum.Plan)
		}
	}
	if err != nil {
		if ctx.Err() == context.Canceled {
			return fmt.Errorf("sync interrupted: %w", err)
		}
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}
