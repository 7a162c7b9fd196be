package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/config"
	"github.com/vmunix/iptvstrm/internal/importer"
	"github.com/vmunix/iptvstrm/internal/pipeline"
	"github.com/vmunix/iptvstrm/internal/source"
	"github.com/vmunix/iptvstrm/pkg/title"
)

const onlineCheckTimeout = 30 * time.Second

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long: `Validates config.toml syntax, required fields and environment variable
substitution without fetching the catalog. With --online the provider
credentials and configured media servers are checked as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
	configTestCmd.Flags().Bool("online", false, "Also contact the provider and media servers")
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		var err error
		if path, err = config.Discover(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(out, configErr)
			return errConfigInvalid
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(out, cfg)

	if online, _ := cmd.Flags().GetBool("online"); online {
		ctx, cancel := context.WithTimeout(cmd.Context(), onlineCheckTimeout)
		defer cancel()
		if !checkOnline(ctx, out, cfg) {
			return errors.New("online checks failed")
		}
	}

	_, _ = fmt.Fprintln(out, "\n"+styleOK.Render("Configuration valid!"))
	return nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		_, _ = fmt.Fprintln(w, styleError.Render("Missing environment variables:"))
		for _, m := range e.Missing {
			_, _ = fmt.Fprintf(w, "  - %s\n", m)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		_, _ = fmt.Fprintln(w, styleError.Render("Validation errors:"))
		for _, err := range e.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", err)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintln(w, "Configuration Summary:")
	provider := cfg.Provider.Format
	if cfg.Provider.M3UURL != "" {
		provider += " " + source.Redact(cfg.Provider.M3UURL)
	} else {
		provider += " " + cfg.Provider.Server
	}
	_, _ = fmt.Fprintf(w, "  Provider:   %s\n", provider)
	_, _ = fmt.Fprintf(w, "  Database:   %s (log: %s)\n", cfg.Database.Path, cfg.General.LogLevel)

	roots := cfg.Roots()
	for _, kind := range title.Kinds {
		if root := roots[kind]; root != "" {
			_, _ = fmt.Fprintf(w, "  Library:    %-6s %s\n", kind, root)
		}
	}

	integrations := []string{}
	if cfg.TMDB.APIKey != "" {
		integrations = append(integrations, "tmdb")
	}
	if cfg.Notifications.Kodi != nil {
		integrations = append(integrations, "kodi")
	}
	if cfg.Notifications.Plex != nil {
		integrations = append(integrations, "plex")
	}
	if cfg.Metrics.Textfile != "" {
		integrations = append(integrations, "metrics")
	}
	if len(integrations) > 0 {
		_, _ = fmt.Fprintf(w, "  Integrations: %s\n", strings.Join(integrations, ", "))
	}
}

// checkOnline verifies provider credentials and media server reachability.
func checkOnline(ctx context.Context, w io.Writer, cfg *config.Config) bool {
	transport := pipeline.NewTransport(cfg.Sync.MaxConnections)
	defer transport.CloseIdleConnections()
	log := newLogger(cfg)
	ok := true

	report := func(name string, err error) {
		if err != nil {
			ok = false
			_, _ = fmt.Fprintf(w, "  %s %s: %v\n", styleError.Render("FAIL"), name, err)
			return
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", styleOK.Render("OK  "), name)
	}

	_, _ = fmt.Fprintln(w, "\nOnline checks:")
	hc := pipeline.NewHTTPClient(transport, onlineCheckTimeout)
	if format, _ := catalog.ParseFormat(cfg.Provider.Format); format == catalog.FormatXtream {
		report("provider login", newXtreamClient(cfg, newFetcher(cfg, hc, log), log).Authenticate(ctx))
	}

	for _, server := range mediaServers(cfg, transport, log) {
		switch s := server.(type) {
		case *importer.KodiClient:
			report("kodi", s.Ping(ctx))
		case *importer.PlexClient:
			_, err := s.GetIdentity(ctx)
			report("plex", err)
		}
	}
	return ok
}
