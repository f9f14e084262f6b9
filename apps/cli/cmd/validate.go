package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teeterhq/teeter/packages/resultfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate <result-file>...",
	Short: "Validate persisted JSON result files against the schema",
	Long: `Validate persisted JSON result files for structural correctness
without replaying them.

Examples:
  teeter validate teeter_run_20260829_143000.json
  teeter validate logs/*.json`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	invalid := 0
	for _, path := range args {
		if filepath.Ext(path) != ".json" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped (not a JSON result file)\n", path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
			invalid++
			continue
		}
		if err := resultfile.Validate(data); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid: %v\n", path, err)
			invalid++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	}

	if invalid > 0 {
		os.Exit(ExitTestFailure)
	}
	return nil
}
