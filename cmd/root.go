package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "autofiler",
	Short: "Adaptive destination suggestions for incoming files",
	Long: `Autofiler suggests a destination folder for newly observed files from
their name, extension and a small content peek, restricted to an
allow-list of destinations. Accepted and corrected suggestions are
learned, so suggestions keep improving. It exposes an HTTP API, a
websocket event feed and an MCP server for AI agent integration.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".autofiler.yml", "config file path")
}
