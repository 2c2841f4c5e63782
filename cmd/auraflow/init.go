package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample workflow document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "flow.json"
		if len(args) > 0 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if err := cli.RunInit(path, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s. Try: auraflow chat -f %s\n", path, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
