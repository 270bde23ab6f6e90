// Package config provides configuration management for marco.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/marco/pkg/md"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	// DefaultCacheSize is the parser cache capacity in documents.
	DefaultCacheSize = 128
	// MaxNestingLimit caps the configurable nesting depth.
	MaxNestingLimit = 256
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

// Config holds the marco configuration.
type Config struct {
	Theme          string `yaml:"theme,omitempty"`
	HighlightStyle string `yaml:"highlight_style,omitempty"`
	HighlightCode  *bool  `yaml:"highlight_code,omitempty"`
	SanitizeHTML   bool   `yaml:"sanitize_html,omitempty"`
	UniqueIDs      bool   `yaml:"unique_ids,omitempty"`
	CacheSize      int    `yaml:"cache_size,omitempty"`
	MaxNesting     int    `yaml:"max_nesting,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
	OutputFormat   string `yaml:"output_format,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Theme:      ThemeLight,
		CacheSize:  DefaultCacheSize,
		MaxNesting: md.DefaultMaxNesting,
		LogLevel:   "warn",
	}
}

// Validate checks that all fields hold usable values. Zero values are
// accepted and mean "use the default".
func (c *Config) Validate() error {
	switch c.Theme {
	case "", ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("theme must be %q or %q", ThemeLight, ThemeDark)
	}
	if c.CacheSize < 0 {
		return errors.New("cache_size must be at least 1")
	}
	if c.MaxNesting < 0 || c.MaxNesting > MaxNestingLimit {
		return fmt.Errorf("max_nesting must be between 1 and %d", MaxNestingLimit)
	}
	if c.LogLevel != "" && !validLogLevel(c.LogLevel) {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.HighlightStyle != "" {
		if _, err := md.HighlightCSS(c.HighlightStyle); err != nil {
			return err
		}
	}
	return nil
}

func validLogLevel(level string) bool {
	for _, l := range logLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Highlight reports whether fenced code is syntax highlighted.
func (c *Config) Highlight() bool {
	return c.HighlightCode == nil || *c.HighlightCode
}

// Style returns the chroma style for the configured theme.
func (c *Config) Style() string {
	if c.HighlightStyle != "" {
		return c.HighlightStyle
	}
	if c.Theme == ThemeDark {
		return "monokai"
	}
	return md.DefaultHighlightStyle
}

// RenderOptions returns the HTML options the configuration selects.
func (c *Config) RenderOptions() md.RenderOptions {
	return md.RenderOptions{
		NoHighlight:    !c.Highlight(),
		HighlightStyle: c.Style(),
		Sanitize:       c.SanitizeHTML,
		UniqueIDs:      c.UniqueIDs,
	}
}

// Cache returns the parser cache capacity.
func (c *Config) Cache() int {
	if c.CacheSize <= 0 {
		return DefaultCacheSize
	}
	return c.CacheSize
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("MARCO_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("MARCO_HIGHLIGHT_STYLE"); v != "" {
		c.HighlightStyle = v
	}
	if b, ok := envBool("MARCO_HIGHLIGHT_CODE"); ok {
		c.HighlightCode = &b
	}
	if b, ok := envBool("MARCO_SANITIZE_HTML"); ok {
		c.SanitizeHTML = b
	}
	if b, ok := envBool("MARCO_UNIQUE_IDS"); ok {
		c.UniqueIDs = b
	}
	if n, ok := envInt("MARCO_CACHE_SIZE"); ok {
		c.CacheSize = n
	}
	if n, ok := envInt("MARCO_MAX_NESTING"); ok {
		c.MaxNesting = n
	}
	if v := os.Getenv("MARCO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MARCO_OUTPUT"); v != "" {
		c.OutputFormat = v
	}
}

// EnvVars lists the environment variables LoadFromEnv reads.
var EnvVars = []string{
	"MARCO_THEME", "MARCO_HIGHLIGHT_STYLE", "MARCO_HIGHLIGHT_CODE", "MARCO_SANITIZE_HTML",
	"MARCO_UNIQUE_IDS", "MARCO_CACHE_SIZE", "MARCO_MAX_NESTING", "MARCO_LOG_LEVEL", "MARCO_OUTPUT",
}

// envBool parses a boolean variable. Unparseable values are ignored.
func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "marco", "config.yml")
	}

	// Fall back to ~/.config/marco/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".marco", "config.yml")
	}

	return filepath.Join(home, ".config", "marco", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with restricted permissions (user read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path. Fields missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// If file doesn't exist, start with defaults
		cfg = Default()
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
