package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/rules"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show learned associations and engine readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, database, err := engineFromConfig(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		report := eng.Status()
		fmt.Printf("Allowed folders:  %d\n", report.AllowlistCount)
		fmt.Printf("Embeddings ready: %v\n", report.Embeddings)

		if len(report.Learned.Ext) == 0 && len(report.Learned.Token) == 0 {
			fmt.Println("\nNothing learned yet. Accepted and corrected suggestions train the engine.")
			return nil
		}

		if len(report.Learned.Ext) > 0 {
			fmt.Println("\nStrongest extension associations:")
			printAssociations(report.Learned.Ext)
		}
		if len(report.Learned.Token) > 0 {
			fmt.Println("\nStrongest keyword associations:")
			printAssociations(report.Learned.Token)
		}
		return nil
	},
}

func printAssociations(table map[string][]rules.Association) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, a := range table[k] {
			fmt.Printf("  %-18s -> %s (%.2f)\n", k, a.Folder, a.Weight)
		}
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
