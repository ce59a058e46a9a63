// Package cmd implements the command line interface for training,
// plotting, and inspecting NAF agents
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool
)

// NewRootCommand returns the root command with all subcommands added
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "naf",
		Short:         "Train and inspect Normalized Advantage Function agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Minimum level of logged messages")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Log JSON lines instead of human readable messages")

	root.AddCommand(TrainCommand())
	root.AddCommand(PlotCommand())
	root.AddCommand(InspectCommand())
	return root
}

// Execute runs the root command, logging any error it returns
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		logger, _ := newLogger()
		logger.Error().Err(err).Msg("command failed")
	}
	return err
}

// newLogger returns the logger described by the persistent flags
func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
		err = fmt.Errorf("newLogger: %w", err)
	}

	var logger zerolog.Logger
	if logJSON {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
	return logger.Level(level).With().Timestamp().Logger(), err
}
