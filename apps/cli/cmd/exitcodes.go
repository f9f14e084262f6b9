package cmd

// Exit codes for the teeter CLI
const (
	// ExitSuccess indicates all tests passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more tests failed or errored
	ExitTestFailure = 1

	// ExitConfigError indicates a configuration fault detected before
	// the run started
	ExitConfigError = 2

	// ExitInterrupted indicates the run was cancelled by a signal
	ExitInterrupted = 130

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
