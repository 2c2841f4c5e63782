package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [workflow]",
	Short: "Start the chat HTTP API",
	Long: `Serves the chat API used by the web widget, with a server-sent event
stream per session and Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		host, err := cli.Setup(sigCtx, options(cmd, args))
		if err != nil {
			return err
		}
		defer host.Close()

		addr := host.Config.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		return cli.RunServe(sigCtx, host, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
