package init

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/marco/internal/config"
)

func TestRunInit_NoInput(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "marco", "config.yml")
	opts := &initOptions{configPath: configPath, noInput: true, noColor: true}

	var buf bytes.Buffer
	require.NoError(t, runInit(opts, &buf))

	assert.Contains(t, buf.String(), "✓ Configuration saved to "+configPath)
	assert.Contains(t, buf.String(), "marco render README.md")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestRunInit_Flags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	opts := &initOptions{configPath: configPath, theme: "dark", style: "dracula", noInput: true, noColor: true}

	require.NoError(t, runInit(opts, &bytes.Buffer{}))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.ThemeDark, cfg.Theme)
	assert.Equal(t, "dracula", cfg.HighlightStyle)
}

func TestRunInit_InvalidFlags(t *testing.T) {
	tests := []struct {
		name   string
		opts   initOptions
		errMsg string
	}{
		{name: "theme", opts: initOptions{theme: "sepia"}, errMsg: "theme must be"},
		{name: "style", opts: initOptions{style: "no-such-style"}, errMsg: "unknown highlight style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yml")
			opts := tt.opts
			opts.configPath = configPath
			opts.noInput = true

			err := runInit(&opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.errMsg)

			_, statErr := os.Stat(configPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRunInit_ExistingConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{Theme: config.ThemeDark}).Save(configPath))

	t.Run("refuses without force", func(t *testing.T) {
		err := runInit(&initOptions{configPath: configPath, noInput: true}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--force")
	})

	t.Run("force overwrites", func(t *testing.T) {
		opts := &initOptions{configPath: configPath, noInput: true, force: true}
		require.NoError(t, runInit(opts, &bytes.Buffer{}))

		cfg, err := config.Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, config.ThemeLight, cfg.Theme)
	})
}

func TestNewCmdInit(t *testing.T) {
	cmd := NewCmdInit()
	assert.Equal(t, "init", cmd.Use)
	for _, name := range []string{"theme", "style", "force", "no-input"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
