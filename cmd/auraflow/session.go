package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove conversations kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := cli.Setup(cmd.Context(), options(cmd, nil))
		if err != nil {
			return err
		}
		defer host.Close()
		return cli.ListSessions(cmd.Context(), host, cmd.OutOrStdout())
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored conversation of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := cli.Setup(cmd.Context(), options(cmd, nil))
		if err != nil {
			return err
		}
		defer host.Close()
		return cli.InspectSession(cmd.Context(), host, args[0], cmd.OutOrStdout())
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Remove a session and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := cli.Setup(cmd.Context(), options(cmd, nil))
		if err != nil {
			return err
		}
		defer host.Close()
		if err := cli.RemoveSession(cmd.Context(), host, args[0]); err != nil {
			return err
		}
		cmd.Printf("Session '%s' removed.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
