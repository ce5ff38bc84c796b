package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "stonks-manager",
	Short: "Market analysis task coordinator and data pipeline",
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
