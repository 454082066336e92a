package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sdb-bridge/internal/config"
	"github.com/oshokin/sdb-bridge/internal/service/deployer"
	"github.com/oshokin/sdb-bridge/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:   "sdb-bridge",
		Short: "Deploy build artifacts to a device over sdb.",
		Long: `Pushes locally built packages to a device reachable through sdb.

Files that already exist on the device are kept unless overwriting is enabled,
pushed files can be made executable, and remote files can be located by pattern.
Connection settings come from the configuration file and SDB_* environment variables.`,
		SilenceUsage: true,
	}
)

// Execute runs the sdb-bridge CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// commonOptions collects the persistent flags.
func commonOptions() deployer.Options {
	return deployer.Options{
		ConfigPath: configPath,
		LogLevel:   logLevel,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(pushCmd, lsCmd, existsCmd, chmodCmd, forwardCmd)
}
