// Package config loads and merges teeter configuration files so runs
// can share defaults for category filters, output formats and log
// settings without repeating flags.
package config
