package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/iptvstrm/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long: `Write the annotated default config to path, or to the XDG config
location when no path is given. Credentials are read from the
environment (IPTV_SERVER, IPTV_USERNAME, IPTV_PASSWORD, TMDB_API_KEY)
or from the system keyring, see 'iptvstrm credentials set'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s\n", styleOK.Render("Wrote"), path)
	_, _ = fmt.Fprintln(out, "Edit the [provider] and [libraries] sections, then run 'iptvstrm config test'.")
	return nil
}
