package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph [workflow]",
	Short: "Print the workflow as a Mermaid diagram",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		return cli.RunGraph(cmd.Context(), options(cmd, args), sessionID, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight where this session is")
}
