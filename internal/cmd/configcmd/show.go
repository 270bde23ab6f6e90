package configcmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/marco/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the effective marco configuration with the source of each value.`,
		Example: `  # Show current config
  marco config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

type field struct {
	label  string
	key    string
	envVar string
	value  string
}

func runShow(configPath string, noColor bool, w io.Writer) error {
	if noColor {
		color.NoColor = true
	}

	// Keys present in the file (may not exist)
	fileKeys, fileErr := readKeys(configPath)

	// Load full config with env overrides
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	output := cfg.OutputFormat
	if output == "" {
		output = "table"
	}

	fields := []field{
		{"Theme", "theme", "MARCO_THEME", cfg.Theme},
		{"Style", "highlight_style", "MARCO_HIGHLIGHT_STYLE", cfg.Style()},
		{"Highlight", "highlight_code", "MARCO_HIGHLIGHT_CODE", strconv.FormatBool(cfg.Highlight())},
		{"Sanitize", "sanitize_html", "MARCO_SANITIZE_HTML", strconv.FormatBool(cfg.SanitizeHTML)},
		{"Unique IDs", "unique_ids", "MARCO_UNIQUE_IDS", strconv.FormatBool(cfg.UniqueIDs)},
		{"Cache size", "cache_size", "MARCO_CACHE_SIZE", strconv.Itoa(cfg.Cache())},
		{"Max nesting", "max_nesting", "MARCO_MAX_NESTING", strconv.Itoa(cfg.MaxNesting)},
		{"Log level", "log_level", "MARCO_LOG_LEVEL", cfg.LogLevel},
		{"Output", "output_format", "MARCO_OUTPUT", output},
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for _, f := range fields {
		_, _ = bold.Fprintf(w, "%-13s", f.label+":")
		fmt.Fprint(w, f.value)

		// Determine source
		source := "default"
		if fileKeys[f.key] {
			source = "config"
		}
		if os.Getenv(f.envVar) != "" {
			source = f.envVar
		}
		_, _ = dim.Fprintf(w, "  (source: %s)\n", source)
	}

	fmt.Fprintln(w)
	_, _ = dim.Fprintf(w, "Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Fprintln(w, "(file not found)")
	}

	return nil
}

// readKeys returns the top-level keys set in the config file.
func readKeys(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(raw))
	for k := range raw {
		keys[k] = true
	}
	return keys, nil
}
