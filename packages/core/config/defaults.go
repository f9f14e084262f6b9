package config

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Category:     "",
		Pattern:      "test*",
		Path:         "",
		Format:       "standard",
		Verbosity:    0,
		LogDir:       "",
		LogFormat:    "json",
		LogVerbosity: 1,
	}
}

// IsDefault returns true if the config matches defaults.
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Category == defaults.Category &&
		c.Pattern == defaults.Pattern &&
		c.Path == defaults.Path &&
		c.Format == defaults.Format &&
		c.Verbosity == defaults.Verbosity &&
		c.LogDir == defaults.LogDir &&
		c.LogFormat == defaults.LogFormat &&
		c.LogVerbosity == defaults.LogVerbosity &&
		c.ExcludeSlow == nil &&
		c.ExcludeCI == nil &&
		c.NoColor == nil &&
		c.Quiet == nil &&
		c.LogAppend == nil
}
