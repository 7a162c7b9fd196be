// internal/importer/confirm.go
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

//go:generate mockgen -destination=mocks/confirmer.go -package=mocks github.com/vmunix/iptvstrm/internal/importer Confirmer

// Confirmer approves a destructive batch operation.
type Confirmer interface {
	// Confirm asks once for the whole batch. items are shown for context.
	Confirm(ctx context.Context, message string, items []string) (bool, error)
}

// AutoConfirmer answers every prompt with a fixed value.
type AutoConfirmer struct {
	Answer bool
}

// Confirm implements Confirmer.
func (a AutoConfirmer) Confirm(ctx context.Context, _ string, _ []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return a.Answer, nil
}

// maxListed caps how many items are printed before the prompt.
const maxListed = 20

// SurveyConfirmer prompts on the terminal.
type SurveyConfirmer struct {
	out io.Writer
}

// NewSurveyConfirmer creates a terminal confirmer that lists items to out.
func NewSurveyConfirmer(out io.Writer) *SurveyConfirmer {
	return &SurveyConfirmer{out: out}
}

// Confirm implements Confirmer.
func (s *SurveyConfirmer) Confirm(ctx context.Context, message string, items []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for idx, item := range items {
		if idx == maxListed {
			_, _ = fmt.Fprintf(s.out, "  ... and %s more\n", humanize.Comma(int64(len(items)-maxListed)))
			break
		}
		_, _ = fmt.Fprintf(s.out, "  %s\n", item)
	}

	var answer bool
	prompt := &survey.Confirm{Message: message, Default: false}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return answer, nil
}

// NewConfirmer picks a confirmer for the current process. assumeYes
// approves everything. Without a terminal on stdin every prompt is
// declined, so unattended runs never delete without --yes.
func NewConfirmer(assumeYes bool, log *slog.Logger) Confirmer {
	if assumeYes {
		return AutoConfirmer{Answer: true}
	}
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		if log != nil {
			log.Warn("stdin is not a terminal, deletions will be declined (use --yes)")
		}
		return AutoConfirmer{Answer: false}
	}
	return NewSurveyConfirmer(os.Stdout)
}

var (
	_ Confirmer = AutoConfirmer{}
	_ Confirmer = (*SurveyConfirmer)(nil)
)
