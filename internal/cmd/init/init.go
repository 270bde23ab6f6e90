// Package init provides the init command for marco.
package init

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/internal/config"
	"github.com/open-cli-collective/marco/internal/view"
)

type initOptions struct {
	configPath string
	theme      string
	style      string
	force      bool
	noInput    bool
	noColor    bool
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize marco configuration",
		Long: `Initialize marco with your rendering preferences.

This command will guide you through choosing a theme, a code highlight
style and HTML safety options. The configuration will be saved to
~/.config/marco/config.yml.`,
		Example: `  # Interactive setup
  marco init

  # Non-interactive setup with a dark theme
  marco init --theme dark --no-input`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runInit(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.theme, "theme", "", "Theme: light or dark")
	cmd.Flags().StringVar(&opts.style, "style", "", "Code highlight style (e.g., github, monokai)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing configuration without asking")
	cmd.Flags().BoolVar(&opts.noInput, "no-input", false, "Skip prompts and use flags and defaults")
	completion.RegisterFlagValues(cmd, "theme", config.ThemeLight, config.ThemeDark)
	completion.RegisterFlagValues(cmd, "style", styles.Names()...)

	return cmd
}

func runInit(opts *initOptions, w io.Writer) error {
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !opts.force {
		if opts.noInput {
			return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
		}
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(w, "Initialization cancelled.")
			return nil
		}
	}

	cfg := config.Default()

	// Use prefilled values or prompt
	if opts.theme != "" {
		cfg.Theme = opts.theme
	}
	if opts.style != "" {
		cfg.HighlightStyle = opts.style
	}

	if !opts.noInput {
		if err := runForm(cfg); err != nil {
			return err
		}
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Save configuration
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	r := view.NewRenderer(view.FormatTable, opts.noColor)
	r.SetWriter(w)
	r.Success("Configuration saved to " + configPath)
	fmt.Fprintln(w, "\nYou're all set! Try running:")
	fmt.Fprintln(w, "  marco render README.md")
	fmt.Fprintln(w, "  marco check README.md")

	return nil
}

func runForm(cfg *config.Config) error {
	highlight := cfg.Highlight()
	cacheSize := strconv.Itoa(cfg.Cache())

	styleOptions := []huh.Option[string]{huh.NewOption("Theme default", "")}
	for _, name := range styles.Names() {
		styleOptions = append(styleOptions, huh.NewOption(name, name))
	}

	// Build the form
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Description("Selects the default code highlight style").
				Options(
					huh.NewOption("Light", config.ThemeLight),
					huh.NewOption("Dark", config.ThemeDark),
				).
				Value(&cfg.Theme),

			huh.NewSelect[string]().
				Title("Highlight style").
				Description("Chroma style used for highlighted code").
				Options(styleOptions...).
				Height(8).
				Value(&cfg.HighlightStyle),

			huh.NewConfirm().
				Title("Highlight code blocks?").
				Value(&highlight),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Sanitize raw HTML?").
				Description("Recommended when rendering untrusted documents").
				Value(&cfg.SanitizeHTML),

			huh.NewConfirm().
				Title("Use random widget IDs?").
				Description("Avoids ID clashes when several documents share a page").
				Value(&cfg.UniqueIDs),

			huh.NewInput().
				Title("Parser cache size").
				Description("Number of parsed documents kept in memory").
				Value(&cacheSize).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return errors.New("cache size must be a positive number")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.HighlightCode = &highlight
	cfg.CacheSize, _ = strconv.Atoi(cacheSize)
	return nil
}
