// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/naf/agent"
	"github.com/samuelfneumann/naf/agent/naf"
	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/environment/envconfig"
	"github.com/samuelfneumann/naf/metrics"
)

// Experiment outlines structs that can run experiments. The Run method
// runs all episodes until the episode limit is reached or the context
// is cancelled, after which Shutdown saves whatever the experiment is
// configured to keep. RunEpisode runs a single training episode and
// Evaluate a single greedy episode.
type Experiment interface {
	Run(ctx context.Context) error
	RunEpisode(ctx context.Context, episode int) (float64, error)
	Evaluate(ctx context.Context) (float64, error)
	Shutdown() error
}

// Config represents a configuration of an experiment. The agent's
// hyperparameters are embedded so that a Config serializes to a single
// flat JSON object.
type Config struct {
	naf.Config

	Env         envconfig.EnvName `json:"env"`
	ActionScale float64           `json:"action_scale"`
	Seed        uint64            `json:"seed"`

	NumSteps           int `json:"num_steps"` // Step limit of an episode
	NumEpisodes        int `json:"num_episodes"`
	UpdatesPerStep     int `json:"updates_per_step"`    // Updates after each episode
	EvalInterval       int `json:"eval_interval"`       // 0 disables evaluation
	CheckpointInterval int `json:"checkpoint_interval"` // 0 disables checkpoints

	TrainModel bool   `json:"train_model"`
	SaveAgent  bool   `json:"save_agent"`
	LoadAgent  bool   `json:"load_agent"`
	LoadExp    bool   `json:"load_exp"`
	ModelPath  string `json:"model_path"`
	ExpPath    string `json:"exp_path"`

	MetricsDB   string `json:"metrics_db,omitempty"`   // SQLite event store
	ReturnsPath string `json:"returns_path,omitempty"` // Gob encoded returns
}

// DefaultConfig returns the default experiment configuration
func DefaultConfig() Config {
	return Config{
		Config:         naf.DefaultConfig(),
		Env:            envconfig.Reach,
		ActionScale:    1.0,
		Seed:           4,
		NumSteps:       100,
		NumEpisodes:    500,
		UpdatesPerStep: 10,
		EvalInterval:   10,
		TrainModel:     true,
		ModelPath:      "models/naf.model",
		ExpPath:        "models/naf.exp",
	}
}

// Validate checks a Config to ensure it describes a runnable experiment
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := c.EnvConfig().Validate(); err != nil {
		return err
	}

	if c.NumEpisodes < 0 {
		return fmt.Errorf("validate: number of episodes cannot be negative "+
			"\n\twant(>=0) \n\thave(%v)", c.NumEpisodes)
	}
	if c.UpdatesPerStep < 0 {
		return fmt.Errorf("validate: updates per step cannot be negative "+
			"\n\twant(>=0) \n\thave(%v)", c.UpdatesPerStep)
	}
	if c.EvalInterval < 0 {
		return fmt.Errorf("validate: evaluation interval cannot be "+
			"negative \n\twant(>=0) \n\thave(%v)", c.EvalInterval)
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("validate: checkpoint interval cannot be "+
			"negative \n\twant(>=0) \n\thave(%v)", c.CheckpointInterval)
	}

	needModel := c.SaveAgent || c.LoadAgent || c.CheckpointInterval > 0
	if needModel && c.ModelPath == "" {
		return fmt.Errorf("validate: a model path is required to save, " +
			"load, or checkpoint the agent")
	}
	needExp := c.SaveAgent || c.LoadExp || c.CheckpointInterval > 0
	if needExp && c.ExpPath == "" {
		return fmt.Errorf("validate: an experience path is required to " +
			"save, load, or checkpoint experience")
	}
	return nil
}

// EnvConfig returns the configuration of the environment the
// experiment runs in. Episodes are cut off by the environment after
// NumSteps steps, and the environment discount is the agent's.
func (c Config) EnvConfig() envconfig.Config {
	return envconfig.Config{
		Environment:   c.Env,
		EpisodeCutoff: c.NumSteps,
		Discount:      c.Gamma,
		ActionScale:   c.ActionScale,
	}
}

// CreateEnv returns the environment the experiment runs in
func (c Config) CreateEnv() (environment.Environment, error) {
	return c.EnvConfig().Create(c.Seed)
}

// CreateAgent returns the agent of the experiment acting in env.
// Training metrics are written to sink.
func (c Config) CreateAgent(env environment.Environment,
	sink metrics.Sink) (agent.Agent, error) {
	return c.Config.CreateAgent(env, c.Seed, sink)
}
