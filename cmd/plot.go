package cmd

import (
	"fmt"

	"github.com/samuelfneumann/naf/metrics"
	"github.com/spf13/cobra"
)

// PlotCommand returns the command that plots metrics recorded in a
// SQLite database
func PlotCommand() *cobra.Command {
	var (
		db     string
		runID  string
		out    string
		window int
		tags   []string
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot metrics recorded during training",
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotRun(cmd, db, runID, out, window, tags)
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "SQLite database of recorded metrics")
	cmd.Flags().StringVar(&runID, "run", "",
		"Run to plot, defaults to the latest run")
	cmd.Flags().StringVarP(&out, "out", "o", "rewards.png", "Output image file")
	cmd.Flags().IntVar(&window, "window", 1, "Moving average window")
	cmd.Flags().StringSliceVar(&tags, "tags",
		[]string{metrics.RewardTrain, metrics.RewardTest}, "Metrics to plot")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// plotRun plots the series recorded with tags during a run
func plotRun(cmd *cobra.Command, db, runID, out string, window int,
	tags []string) error {
	logger, _ := newLogger()
	ctx := cmd.Context()

	r, err := metrics.OpenReader(ctx, db)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	defer r.Close()

	if runID == "" {
		runs, err := r.Runs(ctx)
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		if len(runs) == 0 {
			return fmt.Errorf("plot: no runs recorded in %v", db)
		}
		runID = runs[len(runs)-1].ID
	}

	series := make([]metrics.Series, 0, len(tags))
	for _, tag := range tags {
		points, err := r.Series(ctx, runID, tag)
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		if len(points) == 0 {
			logger.Warn().Str("tag", tag).Msg("no events recorded")
		}
		series = append(series, metrics.Series{
			Name:   tag,
			Points: metrics.MovingAverage(points, window),
		})
	}

	if err := metrics.Plot(out, "Run "+runID, "Step", "Value",
		series...); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	logger.Info().Str("run", runID).Str("path", out).Msg("saved plot")
	return nil
}
