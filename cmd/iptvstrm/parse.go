package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/config"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/naming"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// ParseResult is the classification of one raw catalog title.
type ParseResult struct {
	Raw           string     `json:"raw"`
	Kept          bool       `json:"kept"`
	Kind          title.Kind `json:"kind,omitempty"`
	Title         string     `json:"title,omitempty"`
	Year          string     `json:"year,omitempty"`
	Season        *int       `json:"season,omitempty"`
	Episode       *int       `json:"episode,omitempty"`
	SportCategory string     `json:"sport_category,omitempty"`
	Path          string     `json:"path,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <title>",
	Short: "Show how a catalog title is classified (local, no network)",
	Long: `Run a raw catalog title through the normalizer and print the clean
title, year, episode, kind and the library path it would be written to.

Group and URL stand in for the group-title attribute and stream URL of
an M3U record, which both influence classification.`,
	Example: `  iptvstrm parse "Breaking Bad S01E02"
  iptvstrm parse --group "Soccer | Premier League" "Arsenal vs Chelsea"
  iptvstrm parse --file titles.txt --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParseCmd,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("file", "f", "", "Read titles from file (one per line)")
	parseCmd.Flags().StringP("group", "g", "", "Group title of the record")
	parseCmd.Flags().StringP("url", "u", "", "Stream URL of the record")
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("file")
	group, _ := cmd.Flags().GetString("group")
	streamURL, _ := cmd.Flags().GetString("url")

	var titles []string
	switch {
	case inputFile != "":
		names, err := readTitleFile(inputFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		titles = names
	case len(args) > 0:
		titles = []string{args[0]}
	default:
		return fmt.Errorf("usage: iptvstrm parse <title> or iptvstrm parse --file <filename>")
	}

	parser := catalog.NewParser(parserOptions()...)
	attrs := map[string]string{}
	if group != "" {
		attrs[title.AttrGroup] = group
	}
	if streamURL != "" {
		attrs[title.AttrURL] = streamURL
	}

	results := make([]ParseResult, 0, len(titles))
	for _, raw := range titles {
		results = append(results, classify(parser, raw, attrs))
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, results)
	}
	for i, r := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		printParseResult(out, r)
	}
	return nil
}

// parserOptions applies the configured sport keywords when a config can be
// found. parse never requires one.
func parserOptions() []catalog.ParserOption {
	opts := []catalog.ParserOption{catalog.WithLogger(slog.New(slog.DiscardHandler))}
	path, err := resolveConfigPath()
	if err != nil {
		return opts
	}
	cfg, err := config.LoadWithoutValidation(path)
	if err != nil {
		return opts
	}
	return append(opts, catalog.WithSportKeywords(cfg.Provider.SportKeywords))
}

func classify(p *catalog.Parser, raw string, attrs map[string]string) ParseResult {
	entry, ok := p.Classify(raw, attrs)
	if !ok {
		return ParseResult{Raw: raw}
	}
	return ParseResult{
		Raw:           raw,
		Kept:          true,
		Kind:          entry.Kind,
		Title:         entry.CleanTitle,
		Year:          entry.Year,
		Season:        entry.Season,
		Episode:       entry.Episode,
		SportCategory: entry.SportCategory,
		Path:          naming.Build(entry, mo.None[metadata.Metadata]()).String(),
	}
}

func printParseResult(w io.Writer, r ParseResult) {
	_, _ = fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Raw:     "), r.Raw)
	if !r.Kept {
		_, _ = fmt.Fprintln(w, styleWarn.Render("Dropped: not classified as movie, tv or sport (try --group or --url)"))
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Kind:    "), r.Kind)
	_, _ = fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Title:   "), r.Title)
	if r.Year != "" {
		_, _ = fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Year:    "), r.Year)
	}
	if r.Season != nil && r.Episode != nil {
		_, _ = fmt.Fprintf(w, "%s S%02dE%02d\n", styleLabel.Render("Episode: "), *r.Season, *r.Episode)
	}
	if r.SportCategory != "" {
		_, _ = fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Category:"), r.SportCategory)
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", styleLabel.Render("Path:    "), r.Path)
}

// readTitleFile reads titles from a file, one per line.
func readTitleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}
