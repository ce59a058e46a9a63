// Package naf implements the Normalized Advantage Function algorithm,
// an off-policy value iteration method for continuous actions.
//
// NAF decomposes the action value into a state value and an advantage
// that is a negative semidefinite quadratic in the action:
//
//	Q(s, a) = V(s) - ½ (a - μ(s))ᵀ L(s) L(s)ᵀ (a - μ(s))
//
// so that μ(s) is always the greedy action. The model is regressed
// onto one-step targets computed by a target model, whose parameters
// trail those of the model through exponential smoothing.
package naf

import (
	"fmt"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/expreplay"
	"github.com/samuelfneumann/naf/metrics"
	"github.com/samuelfneumann/naf/network"
	"github.com/samuelfneumann/naf/noise"
	ts "github.com/samuelfneumann/naf/timestep"
	"github.com/samuelfneumann/naf/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// actionBounds bounds every component of a selected action
var actionBounds = r1.Interval{Min: -1, Max: 1}

// NAF implements the Normalized Advantage Function algorithm. The
// model is only ever changed by gradient steps and the target model
// only by smoothing towards the model.
//
// NAF implements the agent.Explorer, agent.Persister, and agent.Trainer
// interfaces.
type NAF struct {
	model  *Model
	target *Model
	pairs  []network.Pair // (model, target) parameter pairs

	replay    *expreplay.Ring
	batchSize int
	minReward *float64

	ou       *noise.OU // nil if the agent explores without noise
	schedule noise.Schedule

	gamma float64
	tau   float64

	sink    metrics.Sink
	updates int // Number of gradient steps taken

	prevStep ts.TimeStep
	started  bool // Whether prevStep holds a step of the current episode
	eval     bool
}

// New creates and returns a new NAF agent acting in env. Training
// metrics are written to sink, which may be nil.
func New(env environment.Environment, c Config, seed uint64,
	sink metrics.Sink) (*NAF, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	actionSpec := env.ActionSpec()
	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("new: cannot use non-continuous actions")
	}
	features := env.ObservationSpec().Len()
	actions := actionSpec.Len()

	model, target, pairs, err := c.newModels(features, actions, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	replay, err := c.newReplay(features, actions, seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v",
			err)
	}

	var ou *noise.OU
	if c.OUNoise {
		ou, err = c.ouConfig().Create(actions, seed+2)
		if err != nil {
			return nil, fmt.Errorf("new: could not create noise process: %v",
				err)
		}
	}

	if sink == nil {
		sink = metrics.Discard
	}

	return &NAF{
		model:     model,
		target:    target,
		pairs:     pairs,
		replay:    replay,
		batchSize: c.BatchSize,
		minReward: c.MinReward,
		ou:        ou,
		schedule:  c.schedule(),
		gamma:     c.Gamma,
		tau:       c.Tau,
		sink:      sink,
	}, nil
}

// Act returns the greedy action μ(state) perturbed by the next sample
// of ou, if ou is not nil. Every component of the action is clipped to
// [-1, 1]. The model is evaluated in inference mode, so Act has no side
// effects other than advancing ou.
func (n *NAF) Act(state []float64, ou *noise.OU) (*mat.VecDense, error) {
	out, err := n.model.Forward(network.Inference, state, nil)
	if err != nil {
		return nil, fmt.Errorf("act: %v", err)
	}

	action := mat.NewVecDense(len(out.Mu), out.Mu)
	if ou != nil {
		action.AddVec(action, ou.Sample())
	}
	floatutils.ClipSlice(action.RawVector().Data, actionBounds)

	return action, nil
}

// SelectAction selects an action in the state of t. In training mode
// the action is perturbed by exploration noise, and in evaluation mode
// it is greedy.
func (n *NAF) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	var ou *noise.OU
	if !n.eval {
		ou = n.ou
	}
	return n.Act(t.Observation.RawVector().Data, ou)
}

// Targets computes the one-step targets
//
//	r + γ · mask · V′(s′)
//
// of a batch, where V′ is the state value of the target model evaluated
// in inference mode.
func (n *NAF) Targets(b expreplay.Batch) ([]float64, error) {
	out, err := n.target.Forward(network.Inference, b.NextStates, nil)
	if err != nil {
		return nil, fmt.Errorf("targets: %v", err)
	}

	targets := make([]float64, b.Size)
	for i := range targets {
		targets[i] = b.Rewards[i] + n.gamma*b.Masks[i]*out.V[i]
	}
	return targets, nil
}

// Update performs one gradient step on a batch of transitions, then
// smooths the target model towards the model. The loss before the step
// is returned and recorded under metrics.LossValue.
func (n *NAF) Update(transitions []ts.Transition) (float64, error) {
	b, err := expreplay.NewBatch(transitions)
	if err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}

	targets, err := n.Targets(b)
	if err != nil {
		return 0, fmt.Errorf("update: could not compute targets: %v", err)
	}

	loss, err := n.model.Fit(b.States, b.Actions, targets)
	if err != nil {
		return 0, fmt.Errorf("update: could not fit model: %v", err)
	}

	if err := n.sink.Scalar(metrics.LossValue, n.updates, loss); err != nil {
		return 0, fmt.Errorf("update: could not record loss: %v", err)
	}
	n.updates++

	network.Smooth(n.pairs, n.tau)
	n.target.Params().Touch()

	return loss, nil
}

// Step samples a batch from the replay buffer and updates the model.
// If the buffer does not yet hold a full batch, Step does nothing.
func (n *NAF) Step() error {
	transitions, err := n.replay.Sample(n.batchSize)
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	if _, err := n.Update(transitions); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	return nil
}

// Ready returns whether the replay buffer holds a full batch
func (n *NAF) Ready() bool {
	return n.replay.Len() >= n.batchSize
}

// ObserveFirst records the first timestep of an episode
func (n *NAF) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observeFirst: timestep %v is not the first of "+
			"an episode", t.Number)
	}
	n.prevStep = t
	n.started = true
	return nil
}

// Observe records that action taken in the previously observed
// timestep led to next. The transition is stored in the replay buffer
// unless its reward falls below the minimum reward.
func (n *NAF) Observe(action mat.Vector, next ts.TimeStep) error {
	if !n.started {
		return fmt.Errorf("observe: no previous timestep, ObserveFirst " +
			"must be called at the start of each episode")
	}

	a := make([]float64, action.Len())
	for i := range a {
		a[i] = action.AtVec(i)
	}
	transition := ts.FromSteps(n.prevStep, a, next)
	n.prevStep = next

	if n.minReward != nil && transition.Reward < *n.minReward {
		return nil
	}
	if err := n.replay.Push(transition); err != nil {
		return fmt.Errorf("observe: %v", err)
	}
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (n *NAF) EndEpisode() {
	n.started = false
}

// BeginEpisode sets the noise scale for the episode from the annealing
// schedule and resets the noise process. The scale is returned.
func (n *NAF) BeginEpisode(episode int) float64 {
	if n.ou == nil {
		return 0
	}
	scale := n.schedule.Scale(episode)
	n.ou.SetScale(scale)
	n.ou.Reset()
	return scale
}

// Eval sets the agent into evaluation mode
func (n *NAF) Eval() {
	n.eval = true
}

// Train sets the agent into training mode
func (n *NAF) Train() {
	n.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (n *NAF) IsEval() bool {
	return n.eval
}

// SaveModel saves the model parameters to the file at path
func (n *NAF) SaveModel(path string) error {
	if err := n.model.Save(path); err != nil {
		return fmt.Errorf("saveModel: %w", err)
	}
	return nil
}

// LoadModel loads the model parameters from the file at path. The
// target model is reset to an exact copy of the loaded model.
func (n *NAF) LoadModel(path string) error {
	if err := n.model.Load(path); err != nil {
		return fmt.Errorf("loadModel: %w", err)
	}
	network.HardCopy(n.pairs)
	n.target.Params().Touch()
	return nil
}

// SaveExperience saves the contents of the replay buffer to the file
// at path
func (n *NAF) SaveExperience(path string) error {
	if err := n.replay.Save(path); err != nil {
		return fmt.Errorf("saveExperience: %w", err)
	}
	return nil
}

// LoadExperience replaces the contents of the replay buffer with those
// saved at path
func (n *NAF) LoadExperience(path string) error {
	if err := n.replay.Load(path); err != nil {
		return fmt.Errorf("loadExperience: %w", err)
	}
	return nil
}

// Model returns the policy/value model
func (n *NAF) Model() *Model {
	return n.model
}

// Target returns the target model
func (n *NAF) Target() *Model {
	return n.target
}

// Replay returns the replay buffer
func (n *NAF) Replay() *expreplay.Ring {
	return n.replay
}

// Noise returns the exploration noise process, or nil if the agent
// does not explore
func (n *NAF) Noise() *noise.OU {
	return n.ou
}

// Updates returns the number of gradient steps taken
func (n *NAF) Updates() int {
	return n.updates
}

func (n *NAF) String() string {
	return fmt.Sprintf("NAF | γ: %v  |  τ: %v  |  Batch: %v  |  Updates: %v"+
		"  |  %v", n.gamma, n.tau, n.batchSize, n.updates, n.replay)
}
