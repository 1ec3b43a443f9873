package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/mediabatch/internal/presets"
)

// Config is the process-wide configuration, read from the optional
// config file and overridable through environment variables.
type Config struct {
	FFmpegPath string            `yaml:"ffmpeg_path,omitempty"`
	LogLevel   string            `yaml:"log_level,omitempty"`
	OutputDir  string            `yaml:"output_dir,omitempty"`
	Quality    int               `yaml:"quality,omitempty"`
	Format     string            `yaml:"format,omitempty"`
	Presets    map[string]Preset `yaml:"presets,omitempty"`
}

// Preset is a user-defined conversion shortcut.
type Preset struct {
	Format  string `yaml:"format,omitempty"`
	Quality int    `yaml:"quality,omitempty"`
	Width   int    `yaml:"width,omitempty"`
	Height  int    `yaml:"height,omitempty"`
	Tag     string `yaml:"tag,omitempty"`
}

const (
	EnvFFmpegPath = "MEDIABATCH_FFMPEG"
	EnvLogLevel   = "MEDIABATCH_LOG_LEVEL"
	EnvOutputDir  = "MEDIABATCH_OUTPUT_DIR"
	EnvQuality    = "MEDIABATCH_QUALITY"
)

var BuiltinPresets = map[string]Preset{
	"web":       {Format: "webp", Quality: 80, Width: 1920},
	"thumbnail": {Format: "jpg", Quality: 85, Width: 300},
	"archive":   {Format: "png"},
	"icon":      {Format: "ico", Width: 256},
}

// Dir returns the configuration directory, creating nothing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mediabatch"), nil
}

// Load reads the config file if present, then applies environment
// overrides and defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	dir, err := Dir()
	if err == nil {
		path := filepath.Join(dir, "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: invalid %s: %w", path, err)
			}
		}
	}

	cfg.FFmpegPath = getEnvString(EnvFFmpegPath, cfg.FFmpegPath)
	cfg.LogLevel = getEnvString(EnvLogLevel, cfg.LogLevel)
	cfg.OutputDir = getEnvString(EnvOutputDir, cfg.OutputDir)
	cfg.Quality = getEnvInt(EnvQuality, cfg.Quality)

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Quality == 0 {
		c.Quality = presets.DefaultQuality
	}
	if c.Format == "" {
		c.Format = "jpg"
	}
}

func (c *Config) validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("config: quality %d out of range 1-100", c.Quality)
	}
	if !presets.IsImageFormat(c.Format) {
		return fmt.Errorf("config: unsupported image format %q", c.Format)
	}
	for name, p := range c.Presets {
		if p.Format != "" && !presets.IsImageFormat(p.Format) {
			return fmt.Errorf("config: preset %q: unsupported format %q", name, p.Format)
		}
		if p.Quality < 0 || p.Quality > 100 {
			return fmt.Errorf("config: preset %q: quality %d out of range", name, p.Quality)
		}
	}
	return nil
}

// GetPreset looks up a user preset first, then the builtins.
func (c *Config) GetPreset(name string) (Preset, bool) {
	if p, ok := c.Presets[name]; ok {
		return p, true
	}
	p, ok := BuiltinPresets[name]
	return p, ok
}

// Save writes the config file, creating the directory when needed.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600)
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
