package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize autofiler configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the suggestion engine and generates a .autofiler.yml file plus an optional starter seeds.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
