// Package check provides the check command.
package check

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/internal/view"
	"github.com/open-cli-collective/marco/pkg/md"
	"github.com/open-cli-collective/marco/pkg/md/analysis"
)

// ErrProblems is returned when a checked document has failing diagnostics.
var ErrProblems = errors.New("check failed")

type checkOptions struct {
	severity string
	strict   bool

	env *cmdutil.Env
}

// Problem is one diagnostic in a checked file.
type Problem struct {
	File string `json:"file"`
	analysis.Diagnostic
}

var severities = map[string]md.Severity{
	"error":   md.SeverityError,
	"warning": md.SeverityWarning,
	"info":    md.SeverityInfo,
	"hint":    md.SeverityHint,
}

// NewCmdCheck creates the check command.
func NewCmdCheck() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Report diagnostics for Markdown files",
		Long: `Parse Markdown files and report parse and analysis diagnostics.

The command exits with a non-zero status when any file has an error
diagnostic, or a warning when --strict is set.`,
		Example: `  # Check a file
  marco check README.md

  # Only warnings and errors, as JSON
  marco check docs/*.md --severity warning -o json

  # Fail on warnings too
  marco check README.md --strict`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completion.MarkdownFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.env = env
			return runCheck(args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.severity, "severity", "hint", "Minimum severity to report: error, warning, info, hint")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on warnings as well as errors")
	completion.RegisterFlagValues(cmd, "severity", "error", "warning", "info", "hint")

	return cmd
}

func runCheck(paths []string, opts *checkOptions, w io.Writer) error {
	minSeverity, ok := severities[strings.ToLower(opts.severity)]
	if opts.severity == "" {
		minSeverity, ok = md.SeverityHint, true
	}
	if !ok {
		return fmt.Errorf("invalid severity %q (valid: error, warning, info, hint)", opts.severity)
	}

	env := opts.env
	engine := env.Engine()

	problems := []Problem{}
	errorCount, failCount := 0, 0
	for _, path := range paths {
		src, err := env.Read(path)
		if err != nil {
			return err
		}
		for _, d := range analysis.ComputeDiagnostics(engine.Parse(src)) {
			if d.Severity == md.SeverityError {
				errorCount++
			}
			if d.Severity == md.SeverityError || (opts.strict && d.Severity == md.SeverityWarning) {
				failCount++
			}
			if d.Severity > minSeverity {
				continue
			}
			problems = append(problems, Problem{File: path, Diagnostic: d})
		}
	}
	env.Log.Debug().Int("files", len(paths)).Int("problems", len(problems)).Msg("checked")

	renderer := env.Renderer(w)
	switch env.Format {
	case view.FormatJSON:
		if err := renderer.RenderJSON(problems); err != nil {
			return err
		}
	default:
		if len(problems) > 0 {
			renderer.RenderTable(
				[]string{"FILE", "LOCATION", "SEVERITY", "CATEGORY", "MESSAGE"},
				problemRows(problems, env.Format == view.FormatTable),
			)
		}
		if env.Format == view.FormatTable {
			summarize(renderer, problems, errorCount)
		}
	}

	if failCount > 0 {
		return fmt.Errorf("%w: %d failing diagnostic(s)", ErrProblems, failCount)
	}
	return nil
}

func problemRows(problems []Problem, colored bool) [][]string {
	rows := make([][]string, 0, len(problems))
	for _, p := range problems {
		sev := p.Severity.String()
		if colored {
			sev = view.Severity(sev)
		}
		rows = append(rows, []string{
			p.File,
			cmdutil.Location(p.Start),
			sev,
			p.Category.String(),
			p.Message,
		})
	}
	return rows
}

func summarize(r *view.Renderer, problems []Problem, errorCount int) {
	switch {
	case len(problems) == 0:
		r.Success("No problems found")
	case errorCount > 0:
		r.Error(fmt.Sprintf("%d problem(s), %d error(s)", len(problems), errorCount))
	default:
		r.Warning(fmt.Sprintf("%d problem(s)", len(problems)))
	}
}
