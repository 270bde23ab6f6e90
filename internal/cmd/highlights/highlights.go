// Package highlights provides the highlights command.
package highlights

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/internal/view"
	"github.com/open-cli-collective/marco/pkg/md/analysis"
)

type highlightsOptions struct {
	tags []string

	env *cmdutil.Env
}

// NewCmdHighlights creates the highlights command.
func NewCmdHighlights() *cobra.Command {
	opts := &highlightsOptions{}

	cmd := &cobra.Command{
		Use:   "highlights <file>",
		Short: "List syntax highlight ranges",
		Long: `List the tagged source ranges an editor would use to color a Markdown
file, in source order.`,
		Example: `  # List all ranges
  marco highlights README.md

  # Only headings and links, as JSON
  marco highlights README.md --tag heading-1 --tag link -o json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.MarkdownFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.env = env
			return runHighlights(args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "Only show these tags (repeatable)")
	completion.RegisterFlagValues(cmd, "tag", analysis.TagNames()...)

	return cmd
}

func runHighlights(path string, opts *highlightsOptions, w io.Writer) error {
	env := opts.env
	src, err := env.Read(path)
	if err != nil {
		return err
	}

	all := analysis.ComputeHighlights(env.Engine().Parse(src))
	highlights := make([]analysis.Highlight, 0, len(all))
	for _, h := range all {
		if keepTag(opts.tags, h.Tag) {
			highlights = append(highlights, h)
		}
	}

	renderer := env.Renderer(w)
	if env.Format == view.FormatJSON {
		return renderer.RenderJSON(highlights)
	}

	rows := make([][]string, 0, len(highlights))
	for _, h := range highlights {
		rows = append(rows, []string{cmdutil.Location(h.Start), cmdutil.Location(h.End), h.Tag.String()})
	}
	renderer.RenderTable([]string{"START", "END", "TAG"}, rows)
	return nil
}

func keepTag(tags []string, tag analysis.Tag) bool {
	if len(tags) == 0 {
		return true
	}
	name := tag.String()
	for _, t := range tags {
		if t == name {
			return true
		}
	}
	return false
}
