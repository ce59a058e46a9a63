package naf

import (
	"fmt"

	"github.com/samuelfneumann/naf/agent"
	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/expreplay"
	"github.com/samuelfneumann/naf/initwfn"
	"github.com/samuelfneumann/naf/metrics"
	"github.com/samuelfneumann/naf/network"
	"github.com/samuelfneumann/naf/noise"
	"github.com/samuelfneumann/naf/solver"
	"golang.org/x/exp/rand"
)

func init() {
	agent.Register(agent.NAF, Config{})
}

// Config implements a configuration of a NAF agent
type Config struct {
	Gamma      float64 `json:"gamma"`       // Discount factor
	Tau        float64 `json:"tau"`         // Target smoothing rate
	HiddenSize int     `json:"hidden_size"` // Width of the hidden layers
	BatchSize  int     `json:"batch_size"`
	ReplaySize int     `json:"replay_size"` // Replay buffer capacity

	// Exploration noise annealing
	NoiseScale      float64 `json:"noise_scale"`
	FinalNoiseScale float64 `json:"final_noise_scale"`
	ExplorationEnd  int     `json:"exploration_end"`

	// Ornstein-Uhlenbeck exploration. If OUNoise is false, the agent
	// acts greedily.
	OUNoise bool    `json:"ou_noise"`
	OUTheta float64 `json:"ou_theta"`
	OUSigma float64 `json:"ou_sigma"`

	ClipNorm     float64 `json:"clip_norm"` // Gradient norm bound
	LearningRate float64 `json:"learning_rate"`

	// Transitions with a reward below MinReward are not stored. A nil
	// MinReward stores every transition.
	MinReward *float64 `json:"min_reward,omitempty"`

	// Solver overrides the default Adam solver with LearningRate
	Solver *solver.Solver `json:"solver,omitempty"`

	// InitWFn overrides the default fan in uniform weight initializer
	InitWFn *initwfn.InitWFn `json:"init_w_fn,omitempty"`
}

// DefaultConfig returns the default configuration of a NAF agent
func DefaultConfig() Config {
	return Config{
		Gamma:           0.99,
		Tau:             0.001,
		HiddenSize:      128,
		BatchSize:       128,
		ReplaySize:      1_000_000,
		NoiseScale:      0.5,
		FinalNoiseScale: 0.2,
		ExplorationEnd:  100,
		OUNoise:         true,
		OUTheta:         0.15,
		OUSigma:         0.2,
		ClipNorm:        1.0,
		LearningRate:    1e-3,
	}
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.NAF
}

// Validate checks a Config to ensure it is a valid configuration of a
// NAF agent
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma >= 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1) "+
			"\n\twant(0 <= gamma < 1) \n\thave(%v)", c.Gamma)
	}
	if c.Tau < 0 || c.Tau > 1 {
		return fmt.Errorf("validate: tau must be in [0, 1] "+
			"\n\twant(0 <= tau <= 1) \n\thave(%v)", c.Tau)
	}
	if c.HiddenSize < 1 {
		return fmt.Errorf("validate: hidden size must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.HiddenSize)
	}
	if c.BatchSize < 2 {
		return fmt.Errorf("validate: batch size must be at least 2 "+
			"\n\twant(>=2) \n\thave(%v)", c.BatchSize)
	}
	if c.ReplaySize < c.BatchSize {
		return fmt.Errorf("validate: replay size must be at least the "+
			"batch size \n\twant(>=%v) \n\thave(%v)", c.BatchSize,
			c.ReplaySize)
	}
	if err := c.schedule().Validate(); err != nil {
		return err
	}
	if c.OUNoise {
		if err := c.ouConfig().Validate(); err != nil {
			return err
		}
	}
	if c.ClipNorm <= 0 {
		return fmt.Errorf("validate: gradient clipping norm must be "+
			"positive \n\twant(>0) \n\thave(%v)", c.ClipNorm)
	}
	if c.Solver == nil && c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.LearningRate)
	}
	return nil
}

// schedule returns the noise annealing schedule of the Config
func (c Config) schedule() noise.Schedule {
	return noise.Schedule{
		Initial: c.NoiseScale,
		Final:   c.FinalNoiseScale,
		End:     c.ExplorationEnd,
	}
}

// ouConfig returns the OU process configuration of the Config
func (c Config) ouConfig() noise.OUConfig {
	return noise.OUConfig{Theta: c.OUTheta, Sigma: c.OUSigma,
		Scale: c.NoiseScale}
}

// newSolver returns the solver of the Config. The loss already averages
// over the batch, so the default Adam solver uses a batch size of 1.
func (c Config) newSolver() (*solver.Solver, error) {
	if c.Solver != nil {
		return c.Solver, nil
	}
	return solver.NewDefaultAdam(c.LearningRate, 1)
}

// initWFn returns the weight initializer of the Config
func (c Config) initWFn() (*initwfn.InitWFn, error) {
	if c.InitWFn != nil {
		return c.InitWFn, nil
	}
	return initwfn.NewFanInU(1.0)
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*NAF)
	return ok
}

// CreateAgent creates a new NAF agent based on the configuration
func (c Config) CreateAgent(e environment.Environment, seed uint64,
	sink metrics.Sink) (agent.Agent, error) {
	return New(e, c, seed, sink)
}

// newModels creates the policy/value model and its target for states
// and actions of the given dimensions. The target starts as an exact
// copy of the model.
func (c Config) newModels(features, actions int, seed uint64) (*Model,
	*Model, []network.Pair, error) {
	init, err := c.initWFn()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create weight "+
			"initializer: %v", err)
	}
	s, err := c.newSolver()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create solver: %v", err)
	}

	src := rand.NewSource(seed)
	params := network.NewParams(network.Layout(features, actions,
		c.HiddenSize))
	if err := params.Initialize(init.InitWFn(src), src); err != nil {
		return nil, nil, nil, err
	}
	targetParams := network.NewParams(params.Specs())

	pairs, err := network.Pairs(params, targetParams)
	if err != nil {
		return nil, nil, nil, err
	}
	network.HardCopy(pairs)
	targetParams.Touch()

	model, err := NewModel(params, s, c.ClipNorm)
	if err != nil {
		return nil, nil, nil, err
	}
	target, err := NewModel(targetParams, nil, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	return model, target, pairs, nil
}

// newReplay returns the replay buffer of the Config
func (c Config) newReplay(features, actions int,
	seed uint64) (*expreplay.Ring, error) {
	return expreplay.Config{Capacity: c.ReplaySize}.Create(features, actions,
		seed)
}
