// Package main starts the QA agent.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	debug      bool
	configPath string
	listenAddr string
)

// main is the entrypoint for the QA agent.
func main() {
	rootCmd := &cobra.Command{
		Use:   "qaagent",
		Short: "Remote UI automation agent",
		Long: `qaagent synthesizes touch, mouse and key input on the host and accepts
gesture commands over a control websocket, a WebRTC data channel or MCP.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default <DATA_DIR>/qaagent.yaml)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides LISTEN_ADDR)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Serve the gesture tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
