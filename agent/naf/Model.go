package naf

import (
	"fmt"

	"github.com/samuelfneumann/naf/network"
	"github.com/samuelfneumann/naf/solver"
	G "gorgonia.org/gorgonia"
)

// Output holds the results of a forward pass over a batch of states.
// Mu is stored in row major order, one row of action components per
// state. Q is nil unless actions were given.
type Output struct {
	V  []float64
	Mu []float64
	Q  []float64
}

// graphKey identifies a compiled graph
type graphKey struct {
	mode       network.Mode
	batch      int
	withAction bool
}

// Model is a NAF policy/value model. Its parameters are owned by the
// Model and compiled lazily into one Gorgonia graph per combination of
// mode, batch size, and action input. Graphs copy the parameters only
// when they have changed since the graph last saw them.
//
// Models are not safe for concurrent use.
type Model struct {
	params   *network.Params
	features int
	actions  int

	graphs  map[graphKey]*network.Graph
	solvers map[graphKey]G.Solver

	solver   *solver.Solver // nil for models that are never fit
	clipNorm float64
}

// NewModel returns a new Model owning params. If s is nil, the Model
// can be evaluated but not fit. Gradients are clipped to a joint norm
// of clipNorm before each step, and clipping is disabled if clipNorm
// is not positive.
func NewModel(params *network.Params, s *solver.Solver,
	clipNorm float64) (*Model, error) {
	i, ok := params.Index(network.NormScale)
	if !ok {
		return nil, fmt.Errorf("newModel: parameters have no %v",
			network.NormScale)
	}
	j, ok := params.Index(network.MuWeight)
	if !ok {
		return nil, fmt.Errorf("newModel: parameters have no %v",
			network.MuWeight)
	}

	return &Model{
		params:   params,
		features: params.Spec(i).Shape[1],
		actions:  params.Spec(j).Shape[1],
		graphs:   make(map[graphKey]*network.Graph),
		solvers:  make(map[graphKey]G.Solver),
		solver:   s,
		clipNorm: clipNorm,
	}, nil
}

// Params returns the parameters of the Model
func (m *Model) Params() *network.Params {
	return m.params
}

// Features returns the dimension of the states the Model takes
func (m *Model) Features() int {
	return m.features
}

// Actions returns the dimension of the actions the Model outputs
func (m *Model) Actions() int {
	return m.actions
}

// graph returns the graph for the given key, compiling it if needed
func (m *Model) graph(key graphKey) (*network.Graph, error) {
	if gr, ok := m.graphs[key]; ok {
		return gr, nil
	}

	gr, err := network.NewGraph(m.params, key.mode, key.batch, key.withAction)
	if err != nil {
		return nil, err
	}
	m.graphs[key] = gr
	return gr, nil
}

// batchSize returns the number of states in states
func (m *Model) batchSize(states []float64) (int, error) {
	if len(states) == 0 || len(states)%m.features != 0 {
		return 0, fmt.Errorf("invalid number of state features %v for "+
			"states of dimension %v", len(states), m.features)
	}
	return len(states) / m.features, nil
}

// Forward evaluates the Model on a batch of states given in row major
// order. If actions is non-nil, Q is also computed for each
// state-action pair.
//
// In Inference mode the normalization running statistics are used and
// the outputs of a state do not depend on the rest of the batch. In
// Training mode the batch statistics are used and folded into the
// running statistics.
func (m *Model) Forward(mode network.Mode, states,
	actions []float64) (Output, error) {
	batch, err := m.batchSize(states)
	if err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}

	key := graphKey{mode: mode, batch: batch, withAction: actions != nil}
	gr, err := m.graph(key)
	if err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}
	if err := gr.Sync(m.params); err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}

	var targets []float64
	if mode == network.Training && actions != nil {
		targets = make([]float64, batch)
	}
	err = gr.Run(states, actions, targets)
	if targets != nil {
		// The gradient toward the zero targets must not reach Fit
		gr.ZeroGrad()
	}
	if err != nil {
		return Output{}, fmt.Errorf("forward: %v", err)
	}

	if mode == network.Training {
		if err := gr.UpdateRunningStats(m.params); err != nil {
			return Output{}, fmt.Errorf("forward: %v", err)
		}
		m.params.Touch()
		gr.MarkSynced(m.params.Version())
	}

	return Output{V: gr.V(), Mu: gr.Mu(), Q: gr.Q()}, nil
}

// Fit performs one gradient step on the mean squared error between
// Q(states, actions) and targets, evaluated in Training mode. The
// gradient is clipped by its joint norm before the solver steps. The
// loss before the step is returned.
func (m *Model) Fit(states, actions, targets []float64) (float64, error) {
	if m.solver == nil {
		return 0, fmt.Errorf("fit: model has no solver")
	}

	batch, err := m.batchSize(states)
	if err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}

	key := graphKey{mode: network.Training, batch: batch, withAction: true}
	gr, err := m.graph(key)
	if err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	if err := gr.Sync(m.params); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}

	// Only the gradient of this run may be stepped with. Gradients of a
	// run that fails before the step are discarded.
	stepped := false
	defer func() {
		if !stepped {
			gr.ZeroGrad()
		}
	}()
	gr.ZeroGrad()
	if err := gr.Run(states, actions, targets); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	loss := gr.Loss()

	model := gr.Model()
	if _, err := solver.ClipGradNorm(model, m.clipNorm); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}

	s, ok := m.solvers[key]
	if !ok {
		s = m.solver.New()
		m.solvers[key] = s
	}
	if err := s.Step(model); err != nil {
		return 0, fmt.Errorf("fit: could not step solver: %v", err)
	}
	stepped = true

	// The graph now holds the newest learnable parameters. Copy them
	// back along with the updated running statistics, which the graph
	// does not hold, so it remains in sync.
	if err := gr.Pull(m.params); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	if err := gr.UpdateRunningStats(m.params); err != nil {
		return 0, fmt.Errorf("fit: %v", err)
	}
	m.params.Touch()
	gr.MarkSynced(m.params.Version())

	return loss, nil
}

// Save saves the parameters of the Model to the file at path
func (m *Model) Save(path string) error {
	return network.Save(path, m.params)
}

// Load loads parameters saved with Save into the Model. Loading fails
// with a shape mismatch if the saved parameters describe a Model of a
// different size.
func (m *Model) Load(path string) error {
	return network.Load(path, m.params)
}

func (m *Model) String() string {
	return fmt.Sprintf("Model | Features: %v  |  Actions: %v  |  Graphs: %v",
		m.features, m.actions, len(m.graphs))
}
