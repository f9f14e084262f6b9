package main

import (
	"github.com/teeterhq/teeter/apps/cli/cmd"

	// Registered test suites shipped with the binary.
	_ "github.com/teeterhq/teeter/examples/development"
	_ "github.com/teeterhq/teeter/examples/integration"
	_ "github.com/teeterhq/teeter/examples/regression"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cmd.Execute(version, buildTime)
}
