package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/engine"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [file]",
	Short: "Suggest a destination folder for a file",
	Long:  `Runs the engine once for the given file and prints the suggested destination, confidence and rationale.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		sg := eng.Suggest(cmd.Context(), engine.FileEvent{Path: args[0]})

		fmt.Printf("Suggested folder: %s\n", sg.Folder)
		fmt.Printf("Confidence:       %.0f%%\n", sg.Confidence*100)
		fmt.Printf("Rationale:        %s\n", sg.Rationale)
		if sg.NeedsAllowlist {
			fmt.Println("\nNo allowed folders are configured. Add one with `autofiler allowlist add <dir>`.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
