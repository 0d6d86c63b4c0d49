package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/MakiNampei/Desktop-Auto-Filer/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing placement suggestion tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, database, err := openEngine(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer database.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "autofiler MCP server started on stdio (allowed folders=%d)\n",
			eng.Status().AllowlistCount)

		srv := mcpserver.NewServer(eng)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
