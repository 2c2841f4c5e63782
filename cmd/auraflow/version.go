package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of auraflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "auraflow version %s\n", auraflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
