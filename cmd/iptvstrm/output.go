package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vmunix/iptvstrm/internal/library"
	"github.com/vmunix/iptvstrm/internal/pipeline"
	"github.com/vmunix/iptvstrm/pkg/title"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleLabel   = lipgloss.NewStyle().Faint(true)
	styleCreated = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDeleted = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleOK      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// maxPlanLines caps how many paths a dry run lists per section.
const maxPlanLines = 50

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

// printSummary renders a run summary as a per-kind table.
func printSummary(w io.Writer, sum *pipeline.Summary) {
	heading := "Sync summary"
	if sum.DryRun {
		heading = "Dry run (nothing written)"
	}
	_, _ = fmt.Fprintln(w, styleHeading.Render(heading))
	_, _ = fmt.Fprintf(w, "  %s %s entries", styleLabel.Render("catalog:"), count(sum.Entries))
	if sum.Enriched > 0 || sum.Reused > 0 {
		_, _ = fmt.Fprintf(w, ", %s enriched, %s from ledger", count(sum.Enriched), count(sum.Reused))
	}
	if sum.Duplicates > 0 {
		_, _ = fmt.Fprintf(w, ", %s duplicates", count(sum.Duplicates))
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "  %-8s %10s %10s %10s %10s\n", "", "created", "skipped", "deleted", "failed")
	for _, kind := range title.Kinds {
		printCounts(w, kind.String(), sum.Kinds[kind])
	}
	printCounts(w, "total", sum.Totals())

	if sum.ShowsAdded > 0 {
		_, _ = fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("new shows:"), count(sum.ShowsAdded))
	}
	if sum.Declined > 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", styleWarn.Render(fmt.Sprintf("%s stale files kept (deletion declined)", count(sum.Declined))))
	}
	if sum.Held > 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", styleWarn.Render(fmt.Sprintf("%s stale files kept (catalog incomplete)", count(sum.Held))))
	}
	if sum.PrunedDirs > 0 {
		_, _ = fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("empty dirs removed:"), count(sum.PrunedDirs))
	}
	if sum.Notified > 0 {
		_, _ = fmt.Fprintf(w, "  %s %d\n", styleLabel.Render("media servers notified:"), sum.Notified)
	}
	_, _ = fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("took"), sum.Duration.Round(time.Millisecond))
}

func printCounts(w io.Writer, label string, c pipeline.Counts) {
	created := fmt.Sprintf("%10s", count(c.Created))
	if c.Created > 0 {
		created = styleCreated.Render(created)
	}
	deleted := fmt.Sprintf("%10s", count(c.Deleted))
	if c.Deleted > 0 {
		deleted = styleDeleted.Render(deleted)
	}
	failed := fmt.Sprintf("%10s", count(c.Failed))
	if c.Failed > 0 {
		failed = styleError.Render(failed)
	}
	_, _ = fmt.Fprintf(w, "  %-8s %s %10s %s %s\n", label, created, count(c.Skipped), deleted, failed)
}

// printPlan lists the files a dry run would create and delete.
func printPlan(w io.Writer, plan *library.DiffResult) {
	if plan == nil {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styleHeading.Render(fmt.Sprintf("Would create %s files", count(len(plan.ToCreate)))))
	for i, p := range plan.ToCreate {
		if i == maxPlanLines {
			_, _ = fmt.Fprintf(w, "  ... and %s more\n", count(len(plan.ToCreate)-maxPlanLines))
			break
		}
		_, _ = fmt.Fprintf(w, "  %s %s/%s\n", styleCreated.Render("+"), p.Path.Kind, p.Path.String())
	}

	_, _ = fmt.Fprintln(w, styleHeading.Render(fmt.Sprintf("Would delete %s files", count(len(plan.ToDelete)))))
	for i, s := range plan.ToDelete {
		if i == maxPlanLines {
			_, _ = fmt.Fprintf(w, "  ... and %s more\n", count(len(plan.ToDelete)-maxPlanLines))
			break
		}
		_, _ = fmt.Fprintf(w, "  %s %s/%s (%s)\n", styleDeleted.Render("-"), s.Kind, s.Rel, s.Reason)
	}
}

// summaryJSON is the machine readable form of a run summary.
type summaryJSON struct {
	Entries    int                        `json:"entries"`
	Enriched   int                        `json:"enriched"`
	Reused     int                        `json:"reused"`
	Duplicates int                        `json:"duplicates"`
	ShowsAdded int                        `json:"shows_added"`
	Declined   int                        `json:"declined"`
	Held       int                        `json:"held"`
	PrunedDirs int                        `json:"pruned_dirs"`
	Notified   int                        `json:"notified"`
	DryRun     bool                       `json:"dry_run"`
	Kinds      map[string]pipeline.Counts `json:"kinds"`
	Totals     pipeline.Counts            `json:"totals"`
	DurationMS int64                      `json:"duration_ms"`
	ToCreate   []string                   `json:"to_create,omitempty"`
	ToDelete   []string                   `json:"to_delete,omitempty"`
}

func toSummaryJSON(sum *pipeline.Summary) summaryJSON {
	out := summaryJSON{
		Entries:    sum.Entries,
		Enriched:   sum.Enriched,
		Reused:     sum.Reused,
		Duplicates: sum.Duplicates,
		ShowsAdded: sum.ShowsAdded,
		Declined:   sum.Declined,
		Held:       sum.Held,
		PrunedDirs: sum.PrunedDirs,
		Notified:   sum.Notified,
		DryRun:     sum.DryRun,
		Kinds:      make(map[string]pipeline.Counts, len(sum.Kinds)),
		Totals:     sum.Totals(),
		DurationMS: sum.Duration.Milliseconds(),
	}
	for kind, c := range sum.Kinds {
		out.Kinds[kind.String()] = c
	}
	if sum.Plan != nil {
		for _, p := range sum.Plan.ToCreate {
			out.ToCreate = append(out.ToCreate, string(p.Path.Kind)+"/"+p.Path.String())
		}
		for _, s := range sum.Plan.ToDelete {
			out.ToDelete = append(out.ToDelete, string(s.Kind)+"/"+s.Rel)
		}
	}
	return out
}
