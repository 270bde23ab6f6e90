package configcmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/config"
	"github.com/open-cli-collective/marco/internal/view"
)

// NewCmdClear creates the config clear command.
func NewCmdClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove stored configuration",
		Long: `Delete the marco configuration file.

Rendering falls back to built-in defaults afterwards. MARCO_* environment
variables still apply if set.`,
		Example: `  # Clear config
  marco config clear

  # Clear a config file at a custom location
  marco config clear --config ./marco.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runClear(configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}
}

func runClear(path string, noColor bool, w io.Writer) error {
	r := view.NewRenderer(view.FormatTable, noColor)
	r.SetWriter(w)

	switch err := os.Remove(path); {
	case errors.Is(err, fs.ErrNotExist):
		r.Success("No config file to remove")
	case err != nil:
		return fmt.Errorf("failed to remove config file: %w", err)
	default:
		r.Success("Configuration cleared from " + path)
	}

	if active := activeEnvVars(); len(active) > 0 {
		r.RenderText("\nNote: Environment variables will still be used: " + strings.Join(active, ", "))
	}
	return nil
}

func activeEnvVars() []string {
	var active []string
	for _, name := range config.EnvVars {
		if os.Getenv(name) != "" {
			active = append(active, name)
		}
	}
	return active
}
