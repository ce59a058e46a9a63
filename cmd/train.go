package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samuelfneumann/naf/experiment"
	"github.com/samuelfneumann/naf/metrics"
	"github.com/spf13/cobra"
)

// TrainCommand returns the command that trains an agent
func TrainCommand() *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a NAF agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return train(cmd, c, plotPath)
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringVar(&plotPath, "plot", "",
		"Plot the training and test rewards to this image file")
	return cmd
}

// train runs the experiment described by c until it finishes or the
// process is interrupted
func train(cmd *cobra.Command, c experiment.Config, plotPath string) error {
	logger, err := newLogger()
	if err != nil {
		logger.Warn().Err(err).Msg("using the default log level")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	memory := metrics.NewMemory()
	sink := metrics.NewMulti(memory)
	if c.MetricsDB != "" {
		config, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("train: could not encode config: %w", err)
		}
		db, err := metrics.OpenSQLite(ctx, c.MetricsDB, string(config))
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		sink = append(sink, db)
		logger.Info().
			Str("db", c.MetricsDB).
			Str("run", db.RunID()).
			Msg("recording metrics")
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error().Err(err).Msg("could not close metrics")
		}
	}()

	env, err := c.CreateEnv()
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	a, err := c.CreateAgent(env, sink)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	logger.Info().
		Str("env", string(c.Env)).
		Str("agent", fmt.Sprint(a)).
		Uint64("seed", c.Seed).
		Msg("starting experiment")

	exp, err := experiment.NewEpisodic(env, a, c, sink, logger)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := exp.Run(ctx); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if plotPath == "" {
		return nil
	}
	if err := metrics.Plot(plotPath, "NAF "+string(c.Env), "Episode",
		"Reward",
		metrics.Series{Name: "train", Points: memory.Series(metrics.RewardTrain)},
		metrics.Series{Name: "test", Points: memory.Series(metrics.RewardTest)},
	); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	logger.Info().Str("path", plotPath).Msg("saved reward plot")
	return nil
}
