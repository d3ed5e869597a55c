package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/service/server"
	"github.com/oshokin/crew-alert/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// storePath overrides the store location from settings.
	storePath string

	// rootCmd represents the base command for running the gRPC server.
	rootCmd = &cobra.Command{
		Use:   "crew-server [listen-address]",
		Short: "Run the crew registration and alert dispatch server.",
		Long: `Starts the gRPC server that keeps the station roster and dispatches alert tickets.

The server listens on the specified address or uses settings from configuration file.
Only the port from ServerAddress config is used for listening (e.g., :7070).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:7070).
State is saved after every change to a file or a SQLite database and restored on start.`,
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
				StorePath:     storePath,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the crew-server CLI and exits with non-zero status on error.
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
		StringVarP(&storePath, "store", "s", "", "override the state file or database path from settings")
}
