package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/history"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/progress"
)

var replayCmd = &cobra.Command{
	Use:   "replay [moves.csv]",
	Short: "Warm the engine from a move history log",
	Long: `Replays a moves.csv ledger produced by the desktop mover. Accepted and
chosen moves teach the engine as if the feedback had been given live;
skipped, cancelled and failed rows are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		moves, err := history.ReadMoves(args[0])
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		var trainable []history.MoveRecord
		for _, m := range moves {
			if m.Trainable() {
				trainable = append(trainable, m)
			}
		}
		if len(trainable) == 0 {
			fmt.Println("No trainable rows found.")
			return nil
		}

		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		reporter := progress.NewReporter()
		reporter.Start(len(trainable))

		applied, skipped := 0, 0
		for i, m := range trainable {
			accepted := m.Action == "accept" || strings.EqualFold(m.SuggestedFolder, m.DstPath)
			if err := eng.LearnFromMove(cmd.Context(), m.FileName, m.DstPath, m.SuggestedFolder, accepted); err != nil {
				skipped++
				continue
			}
			applied++
			reporter.Update(i+1, m.FileName)
		}
		reporter.Finish()

		fmt.Printf("Replayed %d of %d rows", applied, len(moves))
		if skipped > 0 {
			fmt.Printf(" (%d malformed rows skipped)", skipped)
		}
		fmt.Println(".")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
