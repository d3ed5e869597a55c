package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/service/checker"
	"github.com/oshokin/crew-alert/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// memberID is the crew member whose alerts are watched.
	memberID uint64
	// retryInterval is the reconnect delay.
	retryInterval = checker.DefaultRetryInterval
	// debug enables debug logging.
	debug bool

	// rootCmd represents the base command for watching alerts.
	rootCmd = &cobra.Command{
		Use:   "crew-checker [server-address]",
		Short: "Ring the terminal when an alert ticket reaches your vehicle.",
		Long: `Background watcher for a crew member.

Keeps a stream to crew-server open and receives every ticket sent to the
vehicle the member is assigned to. Each ticket rings the terminal bell and is
printed and logged. Lost connections are retried at a fixed interval.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			checkerOptions := &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				MemberID:      memberID,
				RetryInterval: retryInterval,
				Debug:         debug,
			}

			return checker.Run(ctx, checkerOptions)
		},
	}
)

// Execute runs the crew-checker CLI and exits with non-zero status on error.
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
	rootCmd.Flags().Uint64VarP(&memberID, "member", "m", 0, "your crew member id")
	rootCmd.Flags().DurationVarP(&retryInterval, "retry", "r", checker.DefaultRetryInterval, "delay before reconnecting")

	// Hidden debug flag for troubleshooting.
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	err := rootCmd.Flags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}

	if err = rootCmd.MarkFlagRequired("member"); err != nil {
		panic(err)
	}
}
