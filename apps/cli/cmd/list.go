package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teeterhq/teeter/packages/core/discovery"
	"github.com/teeterhq/teeter/packages/core/harness"
	"github.com/teeterhq/teeter/packages/core/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered tests and their categories",
	Long: `List the registered test units discovery would select, with their
resolved categories, without running anything.

Examples:
  teeter list
  teeter list --categories
  teeter list --path ./tests --pattern "test*"`,
	Args: cobra.NoArgs,
	RunE: listCommand,
}

var (
	listPathFlag       string
	listPatternFlag    string
	listCategoriesFlag bool
)

func init() {
	listCmd.Flags().StringVarP(&listPathFlag, "path", "p", "", "Root directory to discover from")
	listCmd.Flags().StringVar(&listPatternFlag, "pattern", discovery.DefaultPattern, "Source file name pattern")
	listCmd.Flags().BoolVar(&listCategoriesFlag, "categories", false, "Show per-category counts instead of individual tests")
}

func listCommand(cmd *cobra.Command, args []string) error {
	root := listPathFlag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if detected, ok := discovery.DetectRoot(cwd); ok {
			root = detected
		} else {
			root = cwd
		}
	}

	engine := discovery.New(harness.NewInProcess(registry.Default()), root, discovery.WithPattern(listPatternFlag))
	mapping, err := engine.Discover()
	if err != nil {
		return err
	}

	if listCategoriesFlag {
		printCategories(cmd, mapping)
		return nil
	}

	var file string
	for _, u := range mapping.Units() {
		if u.File != file {
			file = u.File
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s [%s]\n", u.ID(), mapping.CategoryOf(u))
		if tags := u.Meta.Tags(); tags != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "    tags: %s\n", tags)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d tests\n", len(mapping.Units()))
	return nil
}
