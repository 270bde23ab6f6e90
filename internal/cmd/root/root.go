// Package root provides the root command for the marco CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/cmd/ast"
	"github.com/open-cli-collective/marco/internal/cmd/check"
	"github.com/open-cli-collective/marco/internal/cmd/complete"
	"github.com/open-cli-collective/marco/internal/cmd/completion"
	"github.com/open-cli-collective/marco/internal/cmd/configcmd"
	"github.com/open-cli-collective/marco/internal/cmd/highlights"
	"github.com/open-cli-collective/marco/internal/cmd/importcmd"
	initcmd "github.com/open-cli-collective/marco/internal/cmd/init"
	"github.com/open-cli-collective/marco/internal/cmd/render"
	"github.com/open-cli-collective/marco/internal/version"
	"github.com/open-cli-collective/marco/internal/view"
)

// NewCmdRoot creates the root command for marco.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marco",
		Short: "A Markdown parser, renderer and linter",
		Long: `marco parses Markdown with the Marco dialect extensions: admonitions,
tab groups, slide decks, platform mentions, emoji shortcodes and math.

It renders HTML, reports diagnostics, and exposes the highlight and
completion analysis an editor integration needs.

Get started by running: marco init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/marco/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: table, json, plain (default: table)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error, disabled")

	completion.RegisterFlagValues(cmd, "output", view.ValidFormats()...)
	completion.RegisterFlagValues(cmd, "log-level", "trace", "debug", "info", "warn", "error", "disabled")

	// Set version template
	cmd.SetVersionTemplate("marco version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(render.NewCmdRender())
	cmd.AddCommand(check.NewCmdCheck())
	cmd.AddCommand(highlights.NewCmdHighlights())
	cmd.AddCommand(complete.NewCmdComplete())
	cmd.AddCommand(ast.NewCmdAST())
	cmd.AddCommand(importcmd.NewCmdImport())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
