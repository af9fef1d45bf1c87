package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/regdesk/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the regdesk server",
	Long: `Start the regdesk HTTP server.

The server keeps analyst sessions in memory and proxies the API Gateway.
The config file is watched; edits rebuild the gateway client without a
restart.

The server provides:
  - /health        - Basic server health check
  - /ready         - Readiness check (includes gateway authentication)
  - /api/sessions  - Session, selection, analysis and export endpoints
  - /swagger       - API documentation

Examples:
  regdesk serve                    # Start on default port 8080
  regdesk serve --port 3000        # Start on custom port
  regdesk serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return err
		}

		// Get home directory
		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cm, err := loadConfig(h)
		if err != nil {
			return err
		}
		if used := cm.ConfigFileUsed(); used != "" {
			logger.Info("loaded config", "file", used)
			cm.WatchConfig()
		} else {
			logger.Warn("no config file found, using defaults and environment")
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cm,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
