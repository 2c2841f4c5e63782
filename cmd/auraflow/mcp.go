package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow"
	"github.com/aretw0/auraflow/internal/cli"
	"github.com/aretw0/auraflow/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [workflow]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the chat as MCP tools, so agents can hold conversations with
the published workflow.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		host, err := cli.Setup(sigCtx, options(cmd, args))
		if err != nil {
			return err
		}
		defer host.Close()

		srv := mcp.NewServer(host.Engine, auraflow.Version, mcp.WithLogger(host.Logger))

		switch transport {
		case "stdio":
			host.Logger.Info("starting MCP server", "transport", "stdio")
			return srv.ServeStdio()
		case "sse":
			host.Logger.Info("starting MCP server", "transport", "sse", "port", port)
			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			host.Logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
