package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var feedbackSuggested string

var feedbackCmd = &cobra.Command{
	Use:   "feedback [file] [folder]",
	Short: "Teach the engine where a file ended up",
	Long: `Records that the given file was filed into the given folder, reinforcing
its extension and name keywords toward that destination. When --suggested
names a different folder the engine had proposed, that proposal is
penalized like a live correction.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		fileName, folder := args[0], args[1]
		accepted := feedbackSuggested == "" || strings.EqualFold(feedbackSuggested, folder)
		if err := eng.LearnFromMove(cmd.Context(), fileName, folder, feedbackSuggested, accepted); err != nil {
			return err
		}

		fmt.Printf("Learned: %s -> %s\n", fileName, folder)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackSuggested, "suggested", "", "folder the engine had suggested, when different")
	rootCmd.AddCommand(feedbackCmd)
}
