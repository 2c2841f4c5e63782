package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [workflow]",
	Short: "Check the published workflow for errors",
	Long: `Loads the workflow from the configured source and reports structural
errors (missing start, dangling edges) and warnings (unreachable nodes,
options without branches).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunValidate(cmd.Context(), options(cmd, args), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
