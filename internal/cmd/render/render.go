// Package render provides the render command.
package render

import (
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/pkg/md"
	"github.com/open-cli-collective/marco/pkg/md/cache"
)

type renderOptions struct {
	out         string
	reference   bool
	noHighlight bool
	sanitize    bool
	headingIDs  bool
	standalone  bool
	shift       int
	stats       bool

	env *cmdutil.Env
}

// NewCmdRender creates the render command.
func NewCmdRender() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render Markdown to HTML",
		Long: `Render one or more Markdown files to HTML.

Files are rendered in order and written to standard output, or to the file
named by --out. Use "-" to read from standard input.`,
		Example: `  # Render to stdout
  marco render README.md

  # Write a standalone page with highlight CSS
  marco render README.md --standalone --out README.html

  # Compare with the CommonMark reference renderer
  marco render README.md --reference`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completion.MarkdownFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Setup(cmd)
			if err != nil {
				return err
			}
			opts.env = env
			return runRender(args, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "", "Write HTML to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.reference, "reference", false, "Render with the CommonMark reference renderer")
	cmd.Flags().BoolVar(&opts.noHighlight, "no-highlight", false, "Disable syntax highlighting of code blocks")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Sanitize raw HTML")
	cmd.Flags().BoolVar(&opts.headingIDs, "heading-ids", false, "Write generated heading slugs as id attributes")
	cmd.Flags().BoolVar(&opts.standalone, "standalone", false, "Wrap output in an HTML page with highlight CSS")
	cmd.Flags().IntVar(&opts.shift, "shift-headings", 0, "Shift heading levels by this amount")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print size, timing and cache statistics to stderr")

	return cmd
}

func runRender(paths []string, opts *renderOptions, w, errW io.Writer) error {
	if opts.out != "" && len(paths) > 1 {
		return fmt.Errorf("--out requires a single input file")
	}
	if opts.reference && (opts.shift != 0 || opts.headingIDs) {
		return fmt.Errorf("--reference cannot be combined with --shift-headings or --heading-ids")
	}

	env := opts.env
	pc, err := cache.New(env.Engine(), env.Config.Cache())
	if err != nil {
		return err
	}

	renderOpts := env.Config.RenderOptions()
	if opts.noHighlight {
		renderOpts.NoHighlight = true
	}
	if opts.sanitize {
		renderOpts.Sanitize = true
	}
	renderOpts.HeadingIDs = opts.headingIDs
	if opts.shift != 0 {
		renderOpts.Filters = append(renderOpts.Filters, md.ShiftHeadings(opts.shift))
	}

	started := time.Now()
	var sb strings.Builder
	var inBytes int
	for _, path := range paths {
		src, err := env.Read(path)
		if err != nil {
			return err
		}
		inBytes += len(src)

		var out string
		if opts.reference {
			out, err = md.RenderReference(src)
			if err != nil {
				return err
			}
		} else {
			out = pc.RenderWithCache(src, renderOpts)
		}
		env.Log.Debug().Str("file", path).Int("bytes", len(src)).Msg("rendered")
		sb.WriteString(out)
	}

	body := sb.String()
	if opts.standalone {
		body, err = standalone(titleFor(paths), renderOpts.HighlightStyle, body, renderOpts.NoHighlight || opts.reference)
		if err != nil {
			return err
		}
	}

	if opts.out != "" {
		if err := cmdutil.WriteFile(opts.out, body); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, body); err != nil {
		return err
	}

	if opts.stats {
		r := env.Renderer(errW)
		r.RenderKeyValue("Files", humanize.Comma(int64(len(paths))))
		r.RenderKeyValue("Input", humanize.Bytes(uint64(inBytes)))
		r.RenderKeyValue("Output", humanize.Bytes(uint64(len(body))))
		r.RenderKeyValue("Elapsed", time.Since(started).Round(time.Microsecond).String())
		if !opts.reference {
			r.RenderKeyValue("Cache", pc.Stats().String())
		}
	}

	if opts.out != "" {
		env.Renderer(errW).Success(fmt.Sprintf("Wrote %s to %s", humanize.Bytes(uint64(len(body))), opts.out))
	}

	return nil
}

func titleFor(paths []string) string {
	if len(paths) == 1 && paths[0] != "-" {
		return strings.TrimSuffix(filepath.Base(paths[0]), filepath.Ext(paths[0]))
	}
	return "marco"
}

func standalone(title, style, body string, plain bool) (string, error) {
	var css string
	if !plain {
		var err error
		css, err = md.HighlightCSS(style)
		if err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	if css != "" {
		fmt.Fprintf(&sb, "<style>\n%s</style>\n", css)
	}
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}
