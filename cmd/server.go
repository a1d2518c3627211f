package cmd

import (
	"autovid-worker/config"
	server2 "autovid-worker/server"

	"github.com/spf13/cobra"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and pipeline workers",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
