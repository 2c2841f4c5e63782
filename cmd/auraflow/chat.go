package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat [workflow]",
	Short: "Chat with the published workflow in the terminal",
	Long: `Starts an interactive conversation with the published workflow.
The session is persisted in the configured store, so it can be resumed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		headless, _ := cmd.Flags().GetBool("headless")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		host, err := cli.Setup(sigCtx, options(cmd, args))
		if err != nil {
			return err
		}
		defer host.Close()

		return cli.RunChat(sigCtx, host, cli.ChatOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			Headless:  headless,
			Input:     os.Stdin,
			Output:    os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "terminal", "Session id to use")
	chatCmd.Flags().Bool("fresh", false, "Start over, discarding the stored conversation")
	chatCmd.Flags().Bool("headless", false, "No banner or prompt, plain text only")

	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
