package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Graph is a NAF network compiled into a Gorgonia computational graph
// for a single Mode and batch size. Its parameter nodes hold a copy of
// a Params, which Sync refreshes whenever the Params have changed since
// the last copy.
//
// Inference graphs read the normalization running statistics from the
// Params. Training graphs never hold the running statistics: they
// expose the statistics of the last batch through BatchStats so that
// the caller can fold them into the Params. Training graphs that take
// actions also compute the mean squared error between Q and a target
// and its gradient with respect to every learnable parameter.
type Graph struct {
	g  *G.ExprGraph
	vm G.VM

	mode       Mode
	batch      int
	features   int
	actions    int
	withAction bool

	stateIn  *G.Node
	actionIn *G.Node
	targetIn *G.Node

	nodes      []*G.Node // Indexed like the Params, nil if not in graph
	learnables G.Nodes

	v, mu, q, loss             *G.Node
	vVal, muVal, qVal, lossVal G.Value
	meanVal, varVal            G.Value

	version uint64
	synced  bool
}

// NewGraph compiles the NAF network described by p for the given mode
// and batch size. If withAction is true, the graph also takes a batch
// of actions as input and computes Q for each state-action pair.
// Training graphs require a batch size of at least 2.
func NewGraph(p *Params, mode Mode, batch int, withAction bool) (*Graph,
	error) {
	if batch < 1 {
		return nil, fmt.Errorf("newGraph: batch size must be positive "+
			"\n\twant(>0) \n\thave(%v)", batch)
	}
	if mode == Training && batch < 2 {
		return nil, fmt.Errorf("newGraph: training requires a batch size of "+
			"at least 2 \n\twant(>=2) \n\thave(%v)", batch)
	}

	features := p.Spec(p.MustIndex(NormScale)).Shape[1]
	actions := p.Spec(p.MustIndex(MuWeight)).Shape[1]

	gr := &Graph{
		g:          G.NewGraph(),
		mode:       mode,
		batch:      batch,
		features:   features,
		actions:    actions,
		withAction: withAction,
		nodes:      make([]*G.Node, p.Len()),
	}

	// Parameter nodes
	for i, spec := range p.specs {
		if !spec.Kind.Learnable() && mode == Training {
			continue
		}

		value := tensor.New(
			tensor.WithShape(spec.Shape...),
			tensor.WithBacking(append([]float64(nil), p.values[i]...)),
		)
		gr.nodes[i] = G.NewMatrix(gr.g, tensor.Float64,
			G.WithShape(spec.Shape...), G.WithName(spec.Name),
			G.WithValue(value))

		if spec.Kind.Learnable() {
			gr.learnables = append(gr.learnables, gr.nodes[i])
		}
	}
	gr.version = p.Version()
	gr.synced = true

	param := func(name string) *G.Node {
		return gr.nodes[p.MustIndex(name)]
	}

	gr.stateIn = G.NewMatrix(gr.g, tensor.Float64,
		G.WithShape(batch, features), G.WithName("states"),
		G.WithInit(G.Zeroes()))

	// Forward pass
	norm := &normLayer{
		scale:       param(NormScale),
		shift:       param(NormShift),
		runningMean: param(NormRunningMean),
		runningVar:  param(NormRunningVar),
	}
	x, err := norm.fwd(gr.stateIn, mode)
	if err != nil {
		return nil, fmt.Errorf("newGraph: could not normalize input: %v", err)
	}

	hidden := []*fcLayer{
		newFCLayer(param(Linear1Weight), param(Linear1Bias), G.Tanh),
		newFCLayer(param(Linear2Weight), param(Linear2Bias), G.Tanh),
	}
	for i, layer := range hidden {
		if x, err = layer.fwd(x); err != nil {
			return nil, fmt.Errorf("newGraph: could not compute forward pass "+
				"of hidden layer %v: %v", i, err)
		}
	}

	gr.v, err = newFCLayer(param(VWeight), param(VBias), nil).fwd(x)
	if err != nil {
		return nil, fmt.Errorf("newGraph: could not compute V: %v", err)
	}
	gr.mu, err = newFCLayer(param(MuWeight), param(MuBias), G.Tanh).fwd(x)
	if err != nil {
		return nil, fmt.Errorf("newGraph: could not compute mu: %v", err)
	}
	G.Read(gr.v, &gr.vVal)
	G.Read(gr.mu, &gr.muVal)

	if withAction {
		lRaw, err := newFCLayer(param(LWeight), param(LBias), nil).fwd(x)
		if err != nil {
			return nil, fmt.Errorf("newGraph: could not compute L: %v", err)
		}

		gr.actionIn = G.NewMatrix(gr.g, tensor.Float64,
			G.WithShape(batch, actions), G.WithName("actions"),
			G.WithInit(G.Zeroes()))

		gr.q, err = qValue(lRaw, gr.mu, gr.actionIn, gr.v, batch, actions)
		if err != nil {
			return nil, fmt.Errorf("newGraph: could not compute Q: %v", err)
		}
		G.Read(gr.q, &gr.qVal)
	}

	if mode == Training {
		G.Read(norm.batchMean, &gr.meanVal)
		G.Read(norm.batchVar, &gr.varVal)
	}

	if mode == Training && withAction {
		gr.targetIn = G.NewVector(gr.g, tensor.Float64, G.WithShape(batch),
			G.WithName("targets"), G.WithInit(G.Zeroes()))

		// The targets are inputs, so no gradient flows into them
		diff := G.Must(G.Sub(gr.q, gr.targetIn))
		gr.loss = G.Must(G.Mean(G.Must(G.Square(diff))))
		G.Read(gr.loss, &gr.lossVal)

		if _, err := G.Grad(gr.loss, gr.learnables...); err != nil {
			return nil, fmt.Errorf("newGraph: could not compute gradient: %v",
				err)
		}
		gr.vm = G.NewTapeMachine(gr.g, G.BindDualValues(gr.learnables...))
	} else {
		gr.vm = G.NewTapeMachine(gr.g)
	}

	return gr, nil
}

// Sync copies p into the parameter nodes if p has been modified since
// the last copy
func (gr *Graph) Sync(p *Params) error {
	if gr.synced && gr.version == p.Version() {
		return nil
	}

	for i, n := range gr.nodes {
		if n == nil {
			continue
		}
		if err := assign(n, p.values[i]); err != nil {
			return fmt.Errorf("sync: could not set %v: %v", p.specs[i].Name,
				err)
		}
	}
	gr.MarkSynced(p.Version())
	return nil
}

// MarkSynced records that the parameter nodes hold the given version
// of the Params
func (gr *Graph) MarkSynced(version uint64) {
	gr.version = version
	gr.synced = true
}

// Pull copies the learnable parameter nodes into p. Pull does not call
// Touch on p.
func (gr *Graph) Pull(p *Params) error {
	for i, n := range gr.nodes {
		if n == nil || !p.specs[i].Kind.Learnable() {
			continue
		}
		data, err := floats64(n.Value())
		if err != nil {
			return fmt.Errorf("pull: %v: %v", p.specs[i].Name, err)
		}
		copy(p.values[i], data)
	}
	return nil
}

// Run evaluates the graph. The actions are required for graphs
// constructed with actions, and the targets are required for training
// graphs constructed with actions. Unneeded inputs are ignored.
func (gr *Graph) Run(states, actions, targets []float64) error {
	if len(states) != gr.batch*gr.features {
		return fmt.Errorf("run: invalid number of state features "+
			"\n\twant(%v) \n\thave(%v)", gr.batch*gr.features, len(states))
	}
	if err := G.Let(gr.stateIn, tensor.New(
		tensor.WithShape(gr.batch, gr.features),
		tensor.WithBacking(states),
	)); err != nil {
		return fmt.Errorf("run: could not set states: %v", err)
	}

	if gr.actionIn != nil {
		if len(actions) != gr.batch*gr.actions {
			return fmt.Errorf("run: invalid number of action components "+
				"\n\twant(%v) \n\thave(%v)", gr.batch*gr.actions, len(actions))
		}
		if err := G.Let(gr.actionIn, tensor.New(
			tensor.WithShape(gr.batch, gr.actions),
			tensor.WithBacking(actions),
		)); err != nil {
			return fmt.Errorf("run: could not set actions: %v", err)
		}
	}

	if gr.targetIn != nil {
		if len(targets) != gr.batch {
			return fmt.Errorf("run: invalid number of targets "+
				"\n\twant(%v) \n\thave(%v)", gr.batch, len(targets))
		}
		if err := G.Let(gr.targetIn, tensor.New(
			tensor.WithShape(gr.batch),
			tensor.WithBacking(targets),
		)); err != nil {
			return fmt.Errorf("run: could not set targets: %v", err)
		}
	}

	defer gr.vm.Reset()
	if err := gr.vm.RunAll(); err != nil {
		return fmt.Errorf("run: could not run graph: %v", err)
	}
	return nil
}

// ZeroGrad zeroes the gradients of the learnable nodes. Gradients
// accumulate over runs of a training graph with actions until they are
// zeroed or a solver steps.
func (gr *Graph) ZeroGrad() {
	for _, n := range gr.learnables {
		grad, err := n.Grad()
		if err != nil {
			continue // Not yet computed
		}
		if t, ok := grad.(tensor.Tensor); ok {
			t.Zero()
		}
	}
}

// V returns the state values computed by the last run
func (gr *Graph) V() []float64 {
	return mustFloats64(gr.vVal)
}

// Mu returns the mean actions computed by the last run, in row major
// order
func (gr *Graph) Mu() []float64 {
	return mustFloats64(gr.muVal)
}

// Q returns the state-action values computed by the last run, or nil if
// the graph does not take actions
func (gr *Graph) Q() []float64 {
	if gr.q == nil {
		return nil
	}
	return mustFloats64(gr.qVal)
}

// Loss returns the loss computed by the last run of a training graph
// with actions
func (gr *Graph) Loss() float64 {
	if gr.loss == nil {
		return 0
	}
	return mustFloats64(gr.lossVal)[0]
}

// BatchStats returns the mean and biased variance of the state features
// of the last batch run through a training graph
func (gr *Graph) BatchStats() ([]float64, []float64) {
	if gr.mode != Training {
		return nil, nil
	}
	return mustFloats64(gr.meanVal), mustFloats64(gr.varVal)
}

// UpdateRunningStats folds the statistics of the last batch run through
// a training graph into the normalization running statistics of p.
// UpdateRunningStats does not call Touch on p.
func (gr *Graph) UpdateRunningStats(p *Params) error {
	if gr.mode != Training {
		return fmt.Errorf("updateRunningStats: %v graphs do not compute "+
			"batch statistics", gr.mode)
	}
	if gr.meanVal == nil || gr.varVal == nil {
		return fmt.Errorf("updateRunningStats: graph has not been run")
	}

	mean, variance := gr.BatchStats()
	runningMean := p.Named(NormRunningMean)
	runningVar := p.Named(NormRunningVar)
	if len(mean) != len(runningMean) || len(variance) != len(runningVar) {
		return fmt.Errorf("updateRunningStats: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", len(runningMean), len(mean))
	}

	updateRunning(runningMean, runningVar, mean, variance, gr.batch)
	return nil
}

// Model returns the learnable nodes with their gradients
func (gr *Graph) Model() []G.ValueGrad {
	return G.NodesToValueGrads(gr.learnables)
}

// Learnables returns the learnable nodes of the graph
func (gr *Graph) Learnables() G.Nodes {
	return gr.learnables
}

// Mode returns the Mode the graph was compiled for
func (gr *Graph) Mode() Mode {
	return gr.mode
}

// BatchSize returns the batch size the graph was compiled for
func (gr *Graph) BatchSize() int {
	return gr.batch
}

// WithAction returns whether the graph takes actions as input
func (gr *Graph) WithAction() bool {
	return gr.withAction
}

// ExprGraph returns the underlying Gorgonia computational graph
func (gr *Graph) ExprGraph() *G.ExprGraph {
	return gr.g
}

func (gr *Graph) String() string {
	return fmt.Sprintf("Graph | Mode: %v  |  Batch: %v  |  Actions: %v",
		gr.mode, gr.batch, gr.withAction)
}

// assign sets the value of an input node to data, in place when the
// node already holds a tensor of the right size
func assign(n *G.Node, data []float64) error {
	if n.Value() != nil {
		if backing, ok := n.Value().Data().([]float64); ok &&
			len(backing) == len(data) {
			copy(backing, data)
			return nil
		}
	}

	value := tensor.New(
		tensor.WithShape(n.Shape()...),
		tensor.WithBacking(append([]float64(nil), data...)),
	)
	return G.Let(n, value)
}

// floats64 returns a copy of the data of a float64 Value
func floats64(v G.Value) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("floats64: no value")
	}
	switch data := v.Data().(type) {
	case []float64:
		return append([]float64(nil), data...), nil
	case float64:
		return []float64{data}, nil
	default:
		return nil, fmt.Errorf("floats64: value is not float64 but %T", data)
	}
}

func mustFloats64(v G.Value) []float64 {
	data, err := floats64(v)
	if err != nil {
		panic(err)
	}
	return data
}
