package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config represents persisted teeter settings. Pointer booleans
// distinguish "unset" from an explicit false so a project file only
// overrides what it names.
type Config struct {
	Category     string `json:"category,omitempty"`
	Pattern      string `json:"pattern,omitempty"`
	Path         string `json:"path,omitempty"`
	Format       string `json:"format,omitempty"`
	ExcludeSlow  *bool  `json:"excludeSlow,omitempty"`
	ExcludeCI    *bool  `json:"excludeCI,omitempty"`
	NoColor      *bool  `json:"noColor,omitempty"`
	Quiet        *bool  `json:"quiet,omitempty"`
	Verbosity    int    `json:"verbosity,omitempty"`
	LogDir       string `json:"logDir,omitempty"`
	LogFormat    string `json:"logFormat,omitempty"`
	LogVerbosity int    `json:"logVerbosity,omitempty"`
	LogAppend    *bool  `json:"logAppend,omitempty"`
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetExcludeSlow returns the exclude-slow setting, defaulting to false.
func (c *Config) GetExcludeSlow() bool {
	return getBool(c.ExcludeSlow, false)
}

// GetExcludeCI returns the exclude-ci setting, defaulting to false.
func (c *Config) GetExcludeCI() bool {
	return getBool(c.ExcludeCI, false)
}

// GetNoColor returns the no color setting, defaulting to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetQuiet returns the quiet setting, defaulting to false.
func (c *Config) GetQuiet() bool {
	return getBool(c.Quiet, false)
}

// GetLogAppend returns the log append setting, defaulting to false.
func (c *Config) GetLogAppend() bool {
	return getBool(c.LogAppend, false)
}

// ConfigFilenames contains the possible config file names, searched in
// order.
var ConfigFilenames = []string{
	".teeter.config.json",
	"teeter.config.json",
	".teeterrc",
	".teeterrc.json",
}

// LoadConfig loads configuration from the specified path, or searches
// the current directory when the path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory,
// returning defaults when none exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge merges another config into this one, with other taking
// precedence.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Category != "" {
		result.Category = other.Category
	}
	if other.Pattern != "" {
		result.Pattern = other.Pattern
	}
	if other.Path != "" {
		result.Path = other.Path
	}
	if other.Format != "" {
		result.Format = other.Format
	}
	if other.Verbosity > 0 {
		result.Verbosity = other.Verbosity
	}
	if other.LogDir != "" {
		result.LogDir = other.LogDir
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}
	if other.LogVerbosity > 0 {
		result.LogVerbosity = other.LogVerbosity
	}

	if other.ExcludeSlow != nil {
		result.ExcludeSlow = other.ExcludeSlow
	}
	if other.ExcludeCI != nil {
		result.ExcludeCI = other.ExcludeCI
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Quiet != nil {
		result.Quiet = other.Quiet
	}
	if other.LogAppend != nil {
		result.LogAppend = other.LogAppend
	}

	return &result
}

// SaveConfig saves the configuration to a file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
