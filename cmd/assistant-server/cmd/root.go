package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-assistant/internal/config"
	"github.com/oshokin/alarm-assistant/internal/service/server"
	"github.com/oshokin/alarm-assistant/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// databasePath where alarms are persisted.
	databasePath string

	// rootCmd represents the base command for running the assistant server.
	rootCmd = &cobra.Command{
		Use:   "assistant-server [listen-address]",
		Short: "Run the conversational alarm assistant server.",
		Long: `Starts the HTTP server that hosts the conversational alarm assistant.

The server exposes the chat dialogue, an alarm CRUD API, an idempotent due
check and a websocket notification stream for ringing alarms. Alarms are
persisted to a SQLite database for recovery across restarts.
The listen address can be provided as an argument to override the
configuration (e.g., :9090, 0.0.0.0:8080).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				DatabasePath:  databasePath,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the assistant-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&databasePath, "database", "d", "", "path to the SQLite alarm database")
}
