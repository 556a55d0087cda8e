package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/config"
	"github.com/SmitUplenchwar2687/Rewind/internal/logging"
)

// NewRootCmd creates the root rewind command.
func NewRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "rewind",
		Short: "Capture and replay fighter-state streaming sessions",
		Long: `Rewind records a live fighter-state stream into a compact session file and
replays that file to a single client with the original bytes and timing.

Record a match once, then replay it as often as you like at any speed.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error, disabled)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "log format (console, json)")

	root.AddCommand(
		newRecordCmd(),
		newPlayCmd(),
		newInspectCmd(),
		newVerifyCmd(),
		newGenerateCmd(),
		newArchiveCmd(),
		newMonitorCmd(),
	)

	return root
}

// loadConfig returns the defaults, or the file at path merged over them.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

// newLogger builds the process logger. Precedence: flags, environment,
// config file, defaults.
func newLogger(cmd *cobra.Command, opts logging.Options) (zerolog.Logger, error) {
	logging.ApplyEnv(&opts)
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		opts.Level = f.Value.String()
	}
	if f := cmd.Flag("log-format"); f != nil && f.Changed {
		opts.Format = f.Value.String()
	}
	opts.Out = cmd.ErrOrStderr()
	log, err := logging.New(opts)
	if err != nil {
		return log, fmt.Errorf("configuring logger: %w", err)
	}
	return log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
