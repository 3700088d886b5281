package cmd

import (
	"github.com/spf13/cobra"

	"github.com/imap-mag/magvault/pkg/api"
	"github.com/imap-mag/magvault/pkg/app"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.NewApp(configPath)
			api.RegisterGroup(a.Engine)

			defer func() { _ = a.Scheduler.Stop() }()

			return a.Run()
		},
	}
)

// registerServeCommands registers the serve command.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
