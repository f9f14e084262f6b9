package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teeterhq/teeter/packages/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <result-file>",
	Short: "Re-run the command recorded in a result file",
	Long: `Re-execute the test run recorded in a persisted result file
(text or JSON). Flags that would overwrite the source recording are
adjusted and reported before execution.

Examples:
  teeter replay teeter_run_20260829_143000.json
  teeter replay logs/last_run.txt --dry-run`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          replayCommand,
}

var replayDryRunFlag bool

func init() {
	replayCmd.Flags().BoolVar(&replayDryRunFlag, "dry-run", false, "Show the reconstructed command without executing it")
}

func replayCommand(cmd *cobra.Command, args []string) error {
	plan, err := replay.Load(args[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "teeter: %v\n", err)
		os.Exit(ExitConfigError)
	}

	for _, w := range plan.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	rec := plan.Recorded
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded run: %d tests, %d failures, %d errors, %d skipped\n",
		rec.TotalTests, rec.Failures, rec.Errors, rec.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "Replaying: %s\n\n", plan.Command())

	if replayDryRunFlag {
		return nil
	}

	code, err := plan.Run(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "teeter: %v\n", err)
		os.Exit(ExitConfigError)
	}
	os.Exit(code)
	return nil
}
