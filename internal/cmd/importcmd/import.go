// Package importcmd provides the import command.
package importcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/pkg/md"
	"github.com/open-cli-collective/marco/pkg/md/analysis"
)

type importOptions struct {
	out   string
	plain bool

	env *cmdutil.Env
}

// NewCmdImport creates the import command.
func NewCmdImport() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file.html>",
		Short: "Convert HTML to Markdown",
		Long: `Convert an HTML file to Markdown, then parse the result and report any
diagnostics on stderr.

HTML produced by marco render keeps its admonitions, tab groups and slide
decks unless --plain is set.`,
		Example: `  # Convert to stdout
  marco import page.html

  # Write to a file, dropping Marco widgets
  marco import page.html --plain --out page.md`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.HTMLFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.env = env
			return runImport(args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "", "Write Markdown to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Drop Marco widget markup and keep only its content")

	return cmd
}

func runImport(path string, opts *importOptions, w, errW io.Writer) error {
	env := opts.env
	src, err := env.Read(path)
	if err != nil {
		return err
	}

	markdown, err := md.FromHTMLWithOptions(src, md.ImportOptions{Plain: opts.plain})
	if err != nil {
		return fmt.Errorf("failed to convert html: %w", err)
	}
	if markdown != "" && !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}

	if opts.out != "" {
		if err := cmdutil.WriteFile(opts.out, markdown); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, markdown); err != nil {
		return err
	}

	diags := analysis.ComputeDiagnostics(env.Engine().Parse(markdown))
	renderer := env.Renderer(errW)
	for _, d := range diags {
		if d.Severity > md.SeverityWarning {
			continue
		}
		renderer.Warning(fmt.Sprintf("%s: %s", cmdutil.Location(d.Start), d.Message))
	}
	env.Log.Debug().Str("file", path).Int("diagnostics", len(diags)).Msg("imported")

	if opts.out != "" {
		renderer.Success(fmt.Sprintf("Converted %s to %s", path, opts.out))
	}
	return nil
}
