package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opencubicles/healthkart-dubai/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the engine configuration with an interactive wizard",
	Long:  `Runs an interactive wizard asking for the shop URL, theme, and cart setup, and writes a .storefront.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
