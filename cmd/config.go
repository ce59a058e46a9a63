package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/naf/experiment"
	"github.com/spf13/cobra"
)

// configFlag binds a command line flag to a field of an experiment
// configuration. Flags override the configuration file only when set.
type configFlag struct {
	name  string
	add   func(cmd *cobra.Command, def experiment.Config)
	apply func(cmd *cobra.Command, c *experiment.Config) error
}

func float64Flag(name, usage string,
	field func(*experiment.Config) *float64) configFlag {
	return configFlag{
		name: name,
		add: func(cmd *cobra.Command, def experiment.Config) {
			cmd.Flags().Float64(name, *field(&def), usage)
		},
		apply: func(cmd *cobra.Command, c *experiment.Config) (err error) {
			*field(c), err = cmd.Flags().GetFloat64(name)
			return err
		},
	}
}

func intFlag(name, usage string,
	field func(*experiment.Config) *int) configFlag {
	return configFlag{
		name: name,
		add: func(cmd *cobra.Command, def experiment.Config) {
			cmd.Flags().Int(name, *field(&def), usage)
		},
		apply: func(cmd *cobra.Command, c *experiment.Config) (err error) {
			*field(c), err = cmd.Flags().GetInt(name)
			return err
		},
	}
}

func boolFlag(name, usage string,
	field func(*experiment.Config) *bool) configFlag {
	return configFlag{
		name: name,
		add: func(cmd *cobra.Command, def experiment.Config) {
			cmd.Flags().Bool(name, *field(&def), usage)
		},
		apply: func(cmd *cobra.Command, c *experiment.Config) (err error) {
			*field(c), err = cmd.Flags().GetBool(name)
			return err
		},
	}
}

func stringFlag(name, usage string,
	field func(*experiment.Config) *string) configFlag {
	return configFlag{
		name: name,
		add: func(cmd *cobra.Command, def experiment.Config) {
			cmd.Flags().String(name, *field(&def), usage)
		},
		apply: func(cmd *cobra.Command, c *experiment.Config) (err error) {
			*field(c), err = cmd.Flags().GetString(name)
			return err
		},
	}
}

// configFlags lists every experiment option that can be set from the
// command line
var configFlags = []configFlag{
	float64Flag("gamma", "Discount factor",
		func(c *experiment.Config) *float64 { return &c.Gamma }),
	float64Flag("tau", "Target smoothing rate",
		func(c *experiment.Config) *float64 { return &c.Tau }),
	intFlag("hidden-size", "Width of the hidden layers",
		func(c *experiment.Config) *int { return &c.HiddenSize }),
	intFlag("batch-size", "Number of transitions per update",
		func(c *experiment.Config) *int { return &c.BatchSize }),
	intFlag("replay-size", "Capacity of the replay buffer",
		func(c *experiment.Config) *int { return &c.ReplaySize }),
	float64Flag("noise-scale", "Initial exploration noise scale",
		func(c *experiment.Config) *float64 { return &c.NoiseScale }),
	float64Flag("final-noise-scale", "Final exploration noise scale",
		func(c *experiment.Config) *float64 { return &c.FinalNoiseScale }),
	intFlag("exploration-end", "Episode at which noise annealing ends",
		func(c *experiment.Config) *int { return &c.ExplorationEnd }),
	boolFlag("ou-noise", "Explore with Ornstein-Uhlenbeck noise",
		func(c *experiment.Config) *bool { return &c.OUNoise }),
	float64Flag("clip-norm", "Gradient norm bound",
		func(c *experiment.Config) *float64 { return &c.ClipNorm }),
	float64Flag("learning-rate", "Learning rate of the default solver",
		func(c *experiment.Config) *float64 { return &c.LearningRate }),
	stringFlag("env", "Environment, one of reach or pendulum",
		func(c *experiment.Config) *string { return (*string)(&c.Env) }),
	float64Flag("action-scale", "Scale of reach displacements",
		func(c *experiment.Config) *float64 { return &c.ActionScale }),
	intFlag("num-steps", "Maximum number of steps per episode",
		func(c *experiment.Config) *int { return &c.NumSteps }),
	intFlag("num-episodes", "Index of the last training episode",
		func(c *experiment.Config) *int { return &c.NumEpisodes }),
	intFlag("updates-per-step", "Updates after each episode",
		func(c *experiment.Config) *int { return &c.UpdatesPerStep }),
	intFlag("eval-interval", "Episodes between greedy evaluations",
		func(c *experiment.Config) *int { return &c.EvalInterval }),
	intFlag("checkpoint-interval", "Episodes between checkpoints",
		func(c *experiment.Config) *int { return &c.CheckpointInterval }),
	boolFlag("train-model", "Update the agent",
		func(c *experiment.Config) *bool { return &c.TrainModel }),
	boolFlag("save-agent", "Save the model and experience on exit",
		func(c *experiment.Config) *bool { return &c.SaveAgent }),
	boolFlag("load-agent", "Load the model before training",
		func(c *experiment.Config) *bool { return &c.LoadAgent }),
	boolFlag("load-exp", "Load the experience before training",
		func(c *experiment.Config) *bool { return &c.LoadExp }),
	stringFlag("model-path", "File of the saved model",
		func(c *experiment.Config) *string { return &c.ModelPath }),
	stringFlag("exp-path", "File of the saved experience",
		func(c *experiment.Config) *string { return &c.ExpPath }),
	stringFlag("metrics-db", "SQLite database to record metrics in",
		func(c *experiment.Config) *string { return &c.MetricsDB }),
	stringFlag("returns-path", "File to save the training returns in",
		func(c *experiment.Config) *string { return &c.ReturnsPath }),
}

// addConfigFlags adds the configuration file flag and every
// configuration option flag to cmd
func addConfigFlags(cmd *cobra.Command) {
	def := experiment.DefaultConfig()
	cmd.Flags().String("config", "", "JSON configuration file")
	cmd.Flags().Uint64("seed", def.Seed, "Random seed")
	for _, f := range configFlags {
		f.add(cmd, def)
	}
}

// loadConfig returns the default configuration, overwritten by the
// configuration file and then by the flags that were set
func loadConfig(cmd *cobra.Command) (experiment.Config, error) {
	c := experiment.DefaultConfig()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return c, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("loadConfig: could not read config: %w", err)
		}
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("loadConfig: could not decode config: %w",
				err)
		}
	}

	if cmd.Flags().Changed("seed") {
		if c.Seed, err = cmd.Flags().GetUint64("seed"); err != nil {
			return c, err
		}
	}
	for _, f := range configFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if err := f.apply(cmd, &c); err != nil {
			return c, fmt.Errorf("loadConfig: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("loadConfig: %w", err)
	}
	return c, nil
}
