// Package config loads pricelens configuration from .pricelens/config.yaml,
// a .env file, and environment variables (in increasing precedence).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pricelens/internal/types"
)

// DirName is the per-workspace state directory.
const DirName = ".pricelens"

// Config holds all pricelens configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Generative content provider
	LLM LLMConfig `yaml:"llm"`

	// Persisted artifact list
	Archive ArchiveConfig `yaml:"archive"`

	// PDF export and capture
	Export ExportConfig `yaml:"export"`

	// Native share surface
	Share ShareConfig `yaml:"share"`

	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the content provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// ArchiveConfig selects the key-value backend holding the artifact list.
type ArchiveConfig struct {
	Backend  string `yaml:"backend"` // sqlite, redis, file
	Path     string `yaml:"path"`    // sqlite database file or file-backend directory
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`
}

// ExportConfig configures view capture and downloads.
type ExportConfig struct {
	DownloadsDir   string `yaml:"downloads_dir"`
	Background     string `yaml:"background"`
	ViewportWidth  int    `yaml:"viewport_width"`
	Headless       bool   `yaml:"headless"`
	BrowserBin     string `yaml:"browser_bin"`
	DebuggerURL    string `yaml:"debugger_url"`
	CaptureTimeout string `yaml:"capture_timeout"`
}

// ShareConfig configures the share hand-off. An empty command means the
// platform has no share capability. Arguments may use {file}, {title}, {text}.
type ShareConfig struct {
	Command []string `yaml:"command"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`   // empty = stderr
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pricelens",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
			Timeout:     "60s",
		},

		Archive: ArchiveConfig{
			Backend: "sqlite",
			Path:    filepath.Join(DirName, "archive.db"),
			Key:     "savedPdfs",
		},

		Export: ExportConfig{
			DownloadsDir:   "downloads",
			Background:     "#f9fafb",
			ViewportWidth:  672,
			Headless:       true,
			CaptureTimeout: "30s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultPath returns the config path inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, DirName, "config.yaml")
}

// Load loads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// .env next to the workspace; a missing file is not an error.
	envPath := filepath.Join(filepath.Dir(filepath.Dir(path)), ".env")
	if _, statErr := os.Stat(envPath); statErr == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Credential, in increasing priority
	for _, name := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		if key := os.Getenv(name); key != "" {
			c.LLM.APIKey = key
		}
	}
	if model := os.Getenv("PRICELENS_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if path := os.Getenv("PRICELENS_DB"); path != "" {
		c.Archive.Path = path
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		c.Archive.RedisURL = url
		c.Archive.Backend = "redis"
	}

	if dir := os.Getenv("PRICELENS_DOWNLOADS"); dir != "" {
		c.Export.DownloadsDir = dir
	}
	if cmd := strings.Fields(os.Getenv("PRICELENS_SHARE_COMMAND")); len(cmd) > 0 {
		c.Share.Command = cmd
	}
}

// GetLLMTimeout returns the provider timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetCaptureTimeout returns the capture timeout as a duration.
func (c *Config) GetCaptureTimeout() time.Duration {
	d, err := time.ParseDuration(c.Export.CaptureTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ResolvePaths makes relative storage paths absolute against workspace.
func (c *Config) ResolvePaths(workspace string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(workspace, p)
	}
	c.Archive.Path = resolve(c.Archive.Path)
	c.Export.DownloadsDir = resolve(c.Export.DownloadsDir)
	c.Logging.File = resolve(c.Logging.File)
}

// ValidBackends lists the supported archive backends.
var ValidBackends = []string{"sqlite", "redis", "file"}

// Validate validates settings that do not depend on the provider credential.
func (c *Config) Validate() error {
	valid := false
	for _, b := range ValidBackends {
		if c.Archive.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid archive backend: %s (valid: %v)", c.Archive.Backend, ValidBackends)
	}
	if c.Archive.Backend == "redis" && c.Archive.RedisURL == "" {
		return fmt.Errorf("archive backend redis requires redis_url")
	}
	if c.Archive.Key == "" {
		return fmt.Errorf("archive key must not be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %.2f out of range [0,2]", c.LLM.Temperature)
	}
	return nil
}

// RequireCredential reports a configuration error when no API key is set.
// Commands that talk to the provider call it once at startup.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("%w: no API key (set API_KEY or GEMINI_API_KEY)", types.ErrConfiguration)
	}
	return nil
}
