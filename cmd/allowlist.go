package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/engine"
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage the folders the engine may suggest",
	Long: `The allow-list is the closed set of destination folders suggestions are
drawn from. A running server reads it at startup; restart the server to
pick up changes made here.`,
}

var allowlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List allowed folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		entries := eng.AllowlistEntries()
		if len(entries) == 0 {
			fmt.Println("No allowed folders configured. Add one with `autofiler allowlist add <dir>`.")
			return nil
		}
		for i, e := range entries {
			if e.Description != "" {
				fmt.Printf("  %d. %s  (%s)\n", i+1, e.Path, e.Description)
			} else {
				fmt.Printf("  %d. %s\n", i+1, e.Path)
			}
		}
		return nil
	},
}

var allowlistDescription string

var allowlistAddCmd = &cobra.Command{
	Use:   "add [dir]",
	Short: "Add a folder to the allow-list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		ack, err := eng.AllowlistAdd(cmd.Context(), args[0], allowlistDescription)
		if err != nil {
			return err
		}
		if ack.Status != engine.StatusOK {
			return fmt.Errorf("%s is not an existing directory", args[0])
		}

		fmt.Printf("Added %s\n", args[0])
		return nil
	},
}

var allowlistRemoveCmd = &cobra.Command{
	Use:   "remove [dir]",
	Short: "Remove a folder and forget what was learned about it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		ack, err := eng.AllowlistRemove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ack.Status != engine.StatusOK {
			return fmt.Errorf("%s is not on the allow-list", args[0])
		}

		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var allowlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every allowed folder and the rules learned for them",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		if _, err := eng.AllowlistClear(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Allow-list cleared.")
		return nil
	},
}

var allowlistReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the semantic folder index",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		ack := eng.Reindex(cmd.Context())
		if ack.Status != engine.StatusOK {
			fmt.Println("Index not built: no embedding provider available or no existing folders.")
			return nil
		}

		fmt.Println("Vector index rebuilt.")
		return nil
	},
}

func init() {
	allowlistAddCmd.Flags().StringVar(&allowlistDescription, "description", "", "what belongs in this folder, used for semantic matching")
	allowlistCmd.AddCommand(allowlistListCmd, allowlistAddCmd, allowlistRemoveCmd, allowlistClearCmd, allowlistReindexCmd)
	rootCmd.AddCommand(allowlistCmd)
}
