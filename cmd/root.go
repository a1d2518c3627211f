package cmd

import (
	"autovid-worker/config"

	"github.com/spf13/cobra"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(server(config))
	return rootCmd
}
