// Package ast provides the ast command.
package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/pkg/md"
)

type astOptions struct {
	spans  bool
	events bool

	env *cmdutil.Env
}

// NewCmdAST creates the ast command.
func NewCmdAST() *cobra.Command {
	opts := &astOptions{}

	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the document tree",
		Long: `Print the parsed document as a portable JSON tree, or as the flat event
stream the HTML renderer consumes.`,
		Example: `  # JSON tree with source spans
  marco ast README.md --spans

  # Event stream
  marco ast README.md --events`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.MarkdownFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.env = env
			return runAST(args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.spans, "spans", false, "Include source spans of block nodes")
	cmd.Flags().BoolVar(&opts.events, "events", false, "Print the event stream instead of the tree")

	return cmd
}

func runAST(path string, opts *astOptions, w io.Writer) error {
	env := opts.env
	src, err := env.Read(path)
	if err != nil {
		return err
	}
	doc := env.Engine().Parse(src)

	if opts.events {
		for ev := range md.Emit(doc, md.EmitOptions{}) {
			if _, err := fmt.Fprintln(w, formatEvent(ev)); err != nil {
				return err
			}
		}
		return nil
	}

	out, err := md.ExportJSON(doc, md.ExportOptions{Spans: opts.spans})
	if err != nil {
		return fmt.Errorf("failed to export tree: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// formatEvent renders one event as a single line: kind, tag or group,
// attributes and quoted text.
func formatEvent(ev md.Event) string {
	parts := []string{ev.Kind.String()}
	switch ev.Kind {
	case md.EventStart, md.EventEnd:
		parts = append(parts, ev.Tag.String())
	case md.EventGroupStart, md.EventGroupEnd:
		parts = append(parts, ev.Group.String())
	}
	for _, a := range ev.Attrs {
		parts = append(parts, a.Key+"="+strconv.Quote(a.Value))
	}
	if ev.Text != "" {
		parts = append(parts, strconv.Quote(ev.Text))
	}
	if ev.Diagnostic != nil {
		parts = append(parts, strconv.Quote(ev.Diagnostic.Message))
	}
	return strings.Join(parts, " ")
}
