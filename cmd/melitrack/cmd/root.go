// Package cmd implements the CLI commands for the melitrack server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "melitrack",
	Short: "Sync MercadoLibre seller accounts into Postgres",
	Long: "An API-first service that connects MercadoLibre seller accounts via OAuth, " +
		"keeps their tokens fresh, and mirrors their publications and sales into PostgreSQL " +
		"on a schedule.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand(), migrateCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
