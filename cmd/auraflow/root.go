package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/auraflow/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "auraflow",
	Short: "auraflow runs the conversation workflows of the workshop chat",
	Long: `auraflow interprets the workflow published from the visual editor and
talks to visitors through the terminal, an HTTP API or MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringP("workflow", "f", "", "Workflow document (overrides the configured source)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
}

func options(cmd *cobra.Command, args []string) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	workflow, _ := cmd.Flags().GetString("workflow")
	debug, _ := cmd.Flags().GetBool("debug")
	if workflow == "" && len(args) > 0 {
		workflow = args[0]
	}
	return cli.Options{ConfigPath: configPath, Workflow: workflow, Debug: debug}
}
