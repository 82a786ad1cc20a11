package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/figsync/internal/api"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the figsync HTTP server",
	Long: `Start the figsync HTTP server.

The server keeps one session per opened document and answers the plugin
message protocol at /api/sessions/{id}/messages. FIGSYNC_API_KEY must be
set.

Examples:
  figsync serve
  figsync serve --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return api.Run(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (default: PORT or 8091)")
}
