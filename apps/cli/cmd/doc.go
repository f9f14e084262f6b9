// Package cmd implements the teeter command line interface.
package cmd
