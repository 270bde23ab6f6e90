// Package cmdutil holds the setup shared by marco subcommands: global flags,
// configuration, logging and source reading.
package cmdutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/marco/internal/config"
	"github.com/open-cli-collective/marco/internal/logging"
	"github.com/open-cli-collective/marco/internal/view"
	"github.com/open-cli-collective/marco/pkg/md"
)

// Env is the resolved state a command runs with.
type Env struct {
	Config  *config.Config
	Log     zerolog.Logger
	Format  view.Format
	NoColor bool
	Stdin   io.Reader
}

// NewEnv returns an Env for cfg with a silent logger and table output.
func NewEnv(cfg *config.Config) *Env {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Env{
		Config:  cfg,
		Log:     zerolog.Nop(),
		Format:  view.FormatTable,
		NoColor: true,
		Stdin:   strings.NewReader(""),
	}
}

// Setup reads the global flags of cmd, loads the configuration and builds
// the logger.
func Setup(cmd *cobra.Command) (*Env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w (run 'marco init' to configure)", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w (run 'marco init' to configure)", err)
	}

	if output == "" {
		output = cfg.OutputFormat
	}
	if err := view.ValidateFormat(output); err != nil {
		return nil, err
	}
	if output == "" {
		output = string(view.FormatTable)
	}

	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	log, err := logging.New(cmd.ErrOrStderr(), logLevel, noColor)
	if err != nil {
		return nil, err
	}

	return &Env{
		Config:  cfg,
		Log:     logging.Component(log, cmd.Name()),
		Format:  view.Format(output),
		NoColor: noColor,
		Stdin:   cmd.InOrStdin(),
	}, nil
}

// Engine builds a parser configured from the environment.
func (e *Env) Engine() *md.Engine {
	opts := []md.Option{md.WithLogger(e.Log)}
	if e.Config.MaxNesting > 0 {
		opts = append(opts, md.WithMaxNesting(e.Config.MaxNesting))
	}
	return md.NewEngine(opts...)
}

// Renderer returns a view renderer writing to w.
func (e *Env) Renderer(w io.Writer) *view.Renderer {
	r := view.NewRenderer(e.Format, e.NoColor)
	r.SetWriter(w)
	return r
}

// Read returns the contents of path. A path of "-" reads standard input.
func (e *Env) Read(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(e.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// WriteFile writes content to path with the permissions rendered output
// gets.
func WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Location formats a position as a 1-based line:column pair.
func Location(p md.Position) string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}
