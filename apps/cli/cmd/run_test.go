package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teeterhq/teeter/packages/core/discovery"
	"github.com/teeterhq/teeter/packages/core/registry"
	"github.com/teeterhq/teeter/packages/output"
)

func TestReconstructCommandMinimal(t *testing.T) {
	s := &runSettings{
		pattern: discovery.DefaultPattern,
		format:  output.FormatStandard,
	}
	assert.Equal(t, "teeter run", reconstructCommand(s))
}

func TestReconstructCommandFullFlags(t *testing.T) {
	s := &runSettings{
		category: registry.CategoryRegression,
		filter: discovery.Filter{
			Category:    registry.CategoryRegression,
			ExcludeSlow: true,
			ExcludeCI:   true,
		},
		pattern:      "spec*",
		format:       output.FormatMinimal,
		quiet:        true,
		logPath:      "results.json",
		logFormat:    output.FileFormatJSON,
		logVerbosity: 2,
		logAppend:    true,
	}
	got := reconstructCommand(s)

	assert.True(t, strings.HasPrefix(got, "teeter run "))
	assert.Contains(t, got, "--category regression")
	assert.Contains(t, got, "--exclude-slow")
	assert.Contains(t, got, "--exclude-ci")
	assert.Contains(t, got, "--pattern spec*")
	assert.Contains(t, got, "--format minimal")
	assert.Contains(t, got, "--log-file results.json")
	assert.Contains(t, got, "--log-verbosity 2")
	assert.Contains(t, got, "--log-append")
}

func TestAutoLogName(t *testing.T) {
	name := autoLogName("", output.FileFormatJSON)
	assert.True(t, strings.HasPrefix(name, "teeter_run_"))
	assert.True(t, strings.HasSuffix(name, ".json"))

	txt := autoLogName("logs", output.FileFormatText)
	assert.True(t, strings.HasPrefix(txt, "logs/") || strings.Contains(txt, "logs"))
	assert.True(t, strings.HasSuffix(txt, ".txt"))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEETER_TEST_STR", "value")
	t.Setenv("TEETER_TEST_BOOL", "true")
	t.Setenv("TEETER_TEST_INT", "7")

	assert.Equal(t, "value", getEnvString("TEETER_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnvString("TEETER_TEST_MISSING", "fallback"))
	assert.True(t, getEnvBool("TEETER_TEST_BOOL", false))
	assert.False(t, getEnvBool("TEETER_TEST_MISSING", false))
	assert.Equal(t, 7, getEnvInt("TEETER_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TEETER_TEST_MISSING", 1))
}
