package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-assistant/internal/config"
	"github.com/oshokin/alarm-assistant/internal/service/notifier"
	"github.com/oshokin/alarm-assistant/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the notifier.
	rootCmd = &cobra.Command{
		Use:   "assistant-notifier [stream-url]",
		Short: "Listen for ringing alarms from the assistant server.",
		Long: `Connects to the assistant server's websocket notification stream and
announces every alarm that fires. The stream URL can be provided as an
argument (e.g., ws://alarm.example.com:8080/api/v1/notifications); otherwise
it is derived from the configured listen address on the local machine.
The notifier reconnects automatically when the server goes away.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use stream URL argument if provided, otherwise rely on config.
			var streamURL string
			if len(args) > 0 {
				streamURL = args[0]
			}

			options := &notifier.Options{
				ConfigPath: configPath,
				StreamURL:  streamURL,
			}

			return notifier.Run(ctx, options)
		},
	}
)

// Execute runs the assistant-notifier CLI and exits with non-zero status on error.
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
}
