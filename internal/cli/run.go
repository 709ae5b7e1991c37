package cli

import (
	"github.com/spf13/cobra"

	"earnings-watch/internal/app"
)

var runServe bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch symbols and alert when their best earnings session moves",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context(), app.RunOptions{Serve: runServe})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve estimates and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Serve(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&runServe, "serve", false, "Also start the HTTP API")
}
