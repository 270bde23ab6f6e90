// Package complete provides the complete command.
package complete

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/internal/view"
	"github.com/open-cli-collective/marco/pkg/md"
	"github.com/open-cli-collective/marco/pkg/md/analysis"
)

type completeOptions struct {
	line   int
	column int

	env *cmdutil.Env
}

// NewCmdComplete creates the complete command.
func NewCmdComplete() *cobra.Command {
	opts := &completeOptions{}

	cmd := &cobra.Command{
		Use:   "complete <file>",
		Short: "Suggest completions at a cursor position",
		Long: `Suggest Markdown and Marco syntax completions at a cursor position.

Lines and columns are 1-based. Columns count bytes.`,
		Example: `  # Completions after "@" on line 12
  marco complete notes.md --line 12 --col 2

  # As JSON for an editor integration
  marco complete notes.md --line 3 --col 9 -o json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.MarkdownFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.env = env
			return runComplete(args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.line, "line", "l", 1, "Cursor line (1-based)")
	cmd.Flags().IntVar(&opts.column, "col", 1, "Cursor column (1-based)")

	return cmd
}

func runComplete(path string, opts *completeOptions, w io.Writer) error {
	if opts.line < 1 || opts.column < 1 {
		return fmt.Errorf("--line and --col must be at least 1")
	}

	env := opts.env
	src, err := env.Read(path)
	if err != nil {
		return err
	}

	engine := env.Engine()
	doc := engine.Parse(src)
	pos := md.Position{Line: opts.line - 1, Column: opts.column - 1}
	suggestions := analysis.NewCompleter(engine.Emoji()).Complete(doc, pos)
	if suggestions == nil {
		suggestions = []analysis.Suggestion{}
	}

	renderer := env.Renderer(w)
	if env.Format == view.FormatJSON {
		return renderer.RenderJSON(suggestions)
	}

	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []string{s.Label, s.Kind.String(), s.Detail})
	}
	renderer.RenderTable([]string{"LABEL", "KIND", "DETAIL"}, rows)
	return nil
}
