package configcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/config"
	"github.com/open-cli-collective/marco/pkg/md"
	"github.com/open-cli-collective/marco/pkg/md/cache"
)

const sampleDocument = "# marco\n\n> [!NOTE]\n> Configuration check.\n\n```go\nfmt.Println(\"ok\")\n```\n"

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the current configuration",
		Long:  `Validate the current configuration and render a sample document with it.`,
		Example: `  # Test configuration
  marco config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runTest(configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runTest(configPath string, noColor bool, w io.Writer, cfgs ...*config.Config) error {
	if noColor {
		color.NoColor = true
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	var cfg *config.Config
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	} else {
		var err error
		cfg, err = config.LoadWithEnv(configPath)
		if err != nil {
			_, _ = red.Fprintln(w, "✗ Failed to load configuration:", err)
			return fmt.Errorf("failed to load config: %w (run 'marco init' to configure)", err)
		}
	}

	fmt.Fprintf(w, "Testing configuration from %s...\n", configPath)

	if err := cfg.Validate(); err != nil {
		_, _ = red.Fprintln(w, "✗ Invalid configuration:", err)
		fmt.Fprintln(w, "\nCheck your settings with: marco config show")
		fmt.Fprintln(w, "Reconfigure with: marco init")
		return fmt.Errorf("invalid config: %w", err)
	}
	_, _ = green.Fprintln(w, "✓ Configuration valid")

	if cfg.Highlight() {
		if _, err := md.HighlightCSS(cfg.Style()); err != nil {
			_, _ = red.Fprintln(w, "✗ Highlight style unavailable:", err)
			return err
		}
		_, _ = green.Fprintf(w, "✓ Highlight style %q available\n", cfg.Style())
	}

	engine := md.NewEngine(md.WithMaxNesting(cfg.MaxNesting))
	pc, err := cache.New(engine, cfg.Cache())
	if err != nil {
		_, _ = red.Fprintln(w, "✗ Parser cache unavailable:", err)
		return err
	}

	html := pc.RenderWithCache(sampleDocument, cfg.RenderOptions())
	if !strings.Contains(html, "<h1") {
		_, _ = red.Fprintln(w, "✗ Sample document did not render")
		return fmt.Errorf("sample render failed")
	}
	_, _ = green.Fprintf(w, "✓ Rendered sample document (%s)\n", humanize.Bytes(uint64(len(html))))
	_, _ = green.Fprintf(w, "✓ Parser cache ready (%s entries)\n", humanize.Comma(int64(cfg.Cache())))

	return nil
}
