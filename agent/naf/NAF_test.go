package naf

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/naf/agent"
	"github.com/samuelfneumann/naf/environment/envconfig"
	"github.com/samuelfneumann/naf/expreplay"
	"github.com/samuelfneumann/naf/initwfn"
	"github.com/samuelfneumann/naf/metrics"
	"github.com/samuelfneumann/naf/network"
	ts "github.com/samuelfneumann/naf/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// testConfig returns a small configuration for a 3-D reach task
func testConfig() Config {
	c := DefaultConfig()
	c.HiddenSize = 8
	c.BatchSize = 4
	c.ReplaySize = 16
	return c
}

func newAgent(t *testing.T, c Config, seed uint64,
	sink metrics.Sink) *NAF {
	t.Helper()

	env, err := envconfig.CreateReach(10, seed, 0.99, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	n, err := New(env, c, seed, sink)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// randomTransitions returns n transitions with 3-D states and actions
func randomTransitions(n int, seed uint64) []ts.Transition {
	rng := rand.New(rand.NewSource(seed))
	vec := func(scale float64) []float64 {
		v := make([]float64, 3)
		for i := range v {
			v[i] = scale * (2*rng.Float64() - 1)
		}
		return v
	}

	transitions := make([]ts.Transition, n)
	for i := range transitions {
		transitions[i] = ts.NewTransition(vec(0.5), vec(1), i%3 != 0,
			vec(0.5), -rng.Float64())
	}
	return transitions
}

func paramsEqual(p, q *network.Params) bool {
	for i := 0; i < p.Len(); i++ {
		a, b := p.Value(i), q.Value(i)
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

func TestTargetStartsAsCopy(t *testing.T) {
	n := newAgent(t, testConfig(), 1, nil)
	if !paramsEqual(n.Model().Params(), n.Target().Params()) {
		t.Errorf("target parameters should equal model parameters")
	}
	if n.Target().Params() == n.Model().Params() {
		t.Errorf("target and model should not share parameters")
	}
}

func TestSelectActionWithinBounds(t *testing.T) {
	c := testConfig()
	c.NoiseScale = 100
	c.OUSigma = 10
	n := newAgent(t, c, 2, nil)
	n.BeginEpisode(0)

	step := ts.New(ts.First, 0, 0.99, mat.NewVecDense(3, []float64{0.1,
		-0.2, 0.3}), 0)
	for i := 0; i < 50; i++ {
		action, err := n.SelectAction(step)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < action.Len(); j++ {
			if a := action.AtVec(j); a < -1 || a > 1 {
				t.Fatalf("action component out of bounds: %v", a)
			}
		}
	}
}

func TestEvalActsGreedily(t *testing.T) {
	n := newAgent(t, testConfig(), 3, nil)
	n.BeginEpisode(0)
	n.Eval()

	state := []float64{0.1, 0.2, -0.1}
	step := ts.New(ts.First, 0, 0.99, mat.NewVecDense(3, state), 0)
	action, err := n.SelectAction(step)
	if err != nil {
		t.Fatal(err)
	}

	out, err := n.Model().Forward(network.Inference, state, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out.Mu {
		if action.AtVec(i) != out.Mu[i] {
			t.Errorf("greedy action \n\twant(%v) \n\thave(%v)", out.Mu,
				action.RawVector().Data)
			break
		}
	}
	if mat.Norm(n.Noise().State(), 2) != 0 {
		t.Errorf("evaluation should not advance the noise process")
	}
}

func TestBeginEpisode(t *testing.T) {
	n := newAgent(t, testConfig(), 4, nil)

	if scale := n.BeginEpisode(0); scale != 0.5 {
		t.Errorf("initial scale \n\twant(0.5) \n\thave(%v)", scale)
	}
	n.Noise().Sample()
	if scale := n.BeginEpisode(100); scale != 0.2 {
		t.Errorf("final scale \n\twant(0.2) \n\thave(%v)", scale)
	}
	if mat.Norm(n.Noise().State(), 2) != 0 {
		t.Errorf("noise should be reset at the start of an episode")
	}

	c := testConfig()
	c.OUNoise = false
	if n := newAgent(t, c, 4, nil); n.BeginEpisode(0) != 0 ||
		n.Noise() != nil {
		t.Errorf("agent without noise should not explore")
	}
}

func TestTargets(t *testing.T) {
	n := newAgent(t, testConfig(), 5, nil)
	transitions := randomTransitions(4, 5)
	b, err := expreplay.NewBatch(transitions)
	if err != nil {
		t.Fatal(err)
	}

	targets, err := n.Targets(b)
	if err != nil {
		t.Fatal(err)
	}
	out, err := n.Target().Forward(network.Inference, b.NextStates, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i, tr := range transitions {
		want := tr.Reward
		if tr.Mask {
			want += 0.99 * out.V[i]
		}
		if math.Abs(targets[i]-want) > 1e-12 {
			t.Errorf("target %v \n\twant(%v) \n\thave(%v)", i, want,
				targets[i])
		}
	}
}

func TestStepSkipsWithoutBatch(t *testing.T) {
	sink := metrics.NewMemory()
	n := newAgent(t, testConfig(), 6, sink)

	if err := n.Step(); err != nil {
		t.Fatalf("step on empty buffer: %v", err)
	}
	for _, tr := range randomTransitions(3, 6) {
		n.Replay().Push(tr)
	}
	if n.Ready() {
		t.Errorf("agent should not be ready with 3 of 4 transitions")
	}
	if err := n.Step(); err != nil {
		t.Fatalf("step on insufficient buffer: %v", err)
	}
	if n.Updates() != 0 || len(sink.Series(metrics.LossValue)) != 0 {
		t.Errorf("no update should be performed")
	}

	n.Replay().Push(randomTransitions(1, 7)[0])
	if !n.Ready() {
		t.Errorf("agent should be ready with a full batch")
	}
	if err := n.Step(); err != nil {
		t.Fatal(err)
	}
	if n.Updates() != 1 || len(sink.Series(metrics.LossValue)) != 1 {
		t.Errorf("updates \n\twant(1) \n\thave(%v)", n.Updates())
	}
}

func TestUpdateOnlySmoothsTarget(t *testing.T) {
	c := testConfig()
	c.Tau = 0
	n := newAgent(t, c, 7, nil)
	before := n.Target().Params().Clone()

	if _, err := n.Update(randomTransitions(4, 7)); err != nil {
		t.Fatal(err)
	}
	if !paramsEqual(before, n.Target().Params()) {
		t.Errorf("target should not change with tau = 0")
	}
	if paramsEqual(before, n.Model().Params()) {
		t.Errorf("model should change after an update")
	}

	c.Tau = 1
	n = newAgent(t, c, 7, nil)
	if _, err := n.Update(randomTransitions(4, 7)); err != nil {
		t.Fatal(err)
	}
	if !paramsEqual(n.Model().Params(), n.Target().Params()) {
		t.Errorf("target should equal the model with tau = 1")
	}
}

func TestFitReducesLoss(t *testing.T) {
	c := testConfig()
	c.LearningRate = 1e-2
	n := newAgent(t, c, 8, nil)

	b, err := expreplay.NewBatch(randomTransitions(4, 8))
	if err != nil {
		t.Fatal(err)
	}
	targets := []float64{1, -1, 0.5, -0.5}

	first, err := n.Model().Fit(b.States, b.Actions, targets)
	if err != nil {
		t.Fatal(err)
	}
	var last float64
	for i := 0; i < 300; i++ {
		if last, err = n.Model().Fit(b.States, b.Actions, targets); err != nil {
			t.Fatal(err)
		}
	}
	if last >= first {
		t.Errorf("loss should decrease \n\twant(<%v) \n\thave(%v)", first,
			last)
	}
}

func TestForwardDoesNotChangeFit(t *testing.T) {
	b, err := expreplay.NewBatch(randomTransitions(4, 11))
	if err != nil {
		t.Fatal(err)
	}
	targets := []float64{1, -1, 0.5, -0.5}

	// Both models fold the same batch into their running statistics,
	// but only one does so through the graph that computes the loss
	withAction := newAgent(t, testConfig(), 11, nil)
	if _, err := withAction.Model().Forward(network.Training, b.States,
		b.Actions); err != nil {
		t.Fatal(err)
	}
	withoutAction := newAgent(t, testConfig(), 11, nil)
	if _, err := withoutAction.Model().Forward(network.Training, b.States,
		nil); err != nil {
		t.Fatal(err)
	}

	for _, n := range []*NAF{withAction, withoutAction} {
		if _, err := n.Model().Fit(b.States, b.Actions, targets); err != nil {
			t.Fatal(err)
		}
	}

	have := withAction.Model().Params()
	want := withoutAction.Model().Params()
	for i := 0; i < have.Len(); i++ {
		for j, w := range want.Value(i) {
			if h := have.Value(i)[j]; math.Abs(h-w) > 1e-12 {
				t.Fatalf("%v[%v] after fit \n\twant(%v) \n\thave(%v)",
					have.Spec(i).Name, j, w, h)
			}
		}
	}
}

func TestModeRunningStats(t *testing.T) {
	n := newAgent(t, testConfig(), 9, nil)
	params := n.Model().Params()
	mean := params.Named(network.NormRunningMean)
	before := append([]float64(nil), mean...)

	b, _ := expreplay.NewBatch(randomTransitions(4, 9))
	if _, err := n.Model().Forward(network.Inference, b.States,
		b.Actions); err != nil {
		t.Fatal(err)
	}
	for i := range mean {
		if mean[i] != before[i] {
			t.Fatalf("inference should not change running statistics")
		}
	}

	if _, err := n.Model().Forward(network.Training, b.States,
		nil); err != nil {
		t.Fatal(err)
	}
	changed := false
	for i := range mean {
		changed = changed || mean[i] != before[i]
	}
	if !changed {
		t.Errorf("training should update running statistics")
	}
}

func TestQAtMuEqualsV(t *testing.T) {
	n := newAgent(t, testConfig(), 10, nil)
	states := []float64{0.1, 0.2, 0.3, -0.3, 0.0, 0.2}

	out, err := n.Model().Forward(network.Inference, states, nil)
	if err != nil {
		t.Fatal(err)
	}
	withMu, err := n.Model().Forward(network.Inference, states, out.Mu)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out.V {
		if withMu.Q[i] != out.V[i] {
			t.Errorf("Q(s, mu(s)) \n\twant(%v) \n\thave(%v)", out.V[i],
				withMu.Q[i])
		}
	}
}

func TestObserve(t *testing.T) {
	minReward := -0.5
	c := testConfig()
	c.MinReward = &minReward
	n := newAgent(t, c, 11, nil)

	first := ts.New(ts.First, 0, 0.99, mat.NewVecDense(3, nil), 0)
	mid := ts.New(ts.Mid, -1, 0.99, mat.NewVecDense(3, nil), 1)
	action := mat.NewVecDense(3, []float64{0.1, 0.2, 0.3})

	if err := n.Observe(action, mid); err == nil {
		t.Errorf("observe before observeFirst should return an error")
	}
	if err := n.ObserveFirst(mid); err == nil {
		t.Errorf("observeFirst on a middle step should return an error")
	}

	if err := n.ObserveFirst(first); err != nil {
		t.Fatal(err)
	}
	if err := n.Observe(action, mid); err != nil {
		t.Fatal(err)
	}
	if n.Replay().Len() != 0 {
		t.Errorf("transitions below the minimum reward should be dropped")
	}

	last := ts.New(ts.Last, 0, 0.99, mat.NewVecDense(3, []float64{1, 2, 3}),
		2)
	last.SetEnd(ts.TerminalStateReached)
	if err := n.Observe(action, last); err != nil {
		t.Fatal(err)
	}
	if n.Replay().Len() != 1 {
		t.Fatalf("length \n\twant(1) \n\thave(%v)", n.Replay().Len())
	}
	if tr := n.Replay().At(0); tr.Mask || tr.NextState[2] != 3 {
		t.Errorf("terminal transition stored as %v", tr)
	}

	n.EndEpisode()
	if err := n.Observe(action, mid); err == nil {
		t.Errorf("observe after the end of an episode should return an " +
			"error")
	}
}

func TestSaveLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "naf.model")

	n := newAgent(t, testConfig(), 12, nil)
	if _, err := n.Update(randomTransitions(4, 12)); err != nil {
		t.Fatal(err)
	}
	if err := n.SaveModel(path); err != nil {
		t.Fatal(err)
	}

	loaded := newAgent(t, testConfig(), 13, nil)
	if err := loaded.LoadModel(path); err != nil {
		t.Fatal(err)
	}
	if !paramsEqual(n.Model().Params(), loaded.Model().Params()) {
		t.Errorf("loaded parameters should equal saved parameters")
	}
	if !paramsEqual(loaded.Model().Params(), loaded.Target().Params()) {
		t.Errorf("target should equal the loaded model")
	}

	state := []float64{0.3, -0.1, 0.2}
	want, _ := n.Model().Forward(network.Inference, state, nil)
	have, err := loaded.Model().Forward(network.Inference, state, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want.V[0] != have.V[0] {
		t.Errorf("V \n\twant(%v) \n\thave(%v)", want.V[0], have.V[0])
	}

	c := testConfig()
	c.HiddenSize = 16
	if err := newAgent(t, c, 12, nil).LoadModel(path); !network.IsShapeMismatch(err) {
		t.Errorf("loading into a larger model \n\twant(shape mismatch) "+
			"\n\thave(%v)", err)
	}
	if err := loaded.LoadModel(filepath.Join(dir, "missing")); err == nil {
		t.Errorf("loading a missing model should return an error")
	}
}

func TestSaveLoadExperience(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naf.exp")

	n := newAgent(t, testConfig(), 14, nil)
	for _, tr := range randomTransitions(5, 14) {
		n.Replay().Push(tr)
	}
	if err := n.SaveExperience(path); err != nil {
		t.Fatal(err)
	}

	loaded := newAgent(t, testConfig(), 15, nil)
	if err := loaded.LoadExperience(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Replay().Len() != 5 || loaded.Replay().Cursor() != 5 {
		t.Errorf("length, cursor \n\twant(5, 5) \n\thave(%v, %v)",
			loaded.Replay().Len(), loaded.Replay().Cursor())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"gamma", func(c *Config) { c.Gamma = 1 }},
		{"tau", func(c *Config) { c.Tau = 1.5 }},
		{"batch", func(c *Config) { c.BatchSize = 1 }},
		{"replay", func(c *Config) { c.ReplaySize = 2 }},
		{"hidden", func(c *Config) { c.HiddenSize = 0 }},
		{"exploration", func(c *Config) { c.ExplorationEnd = 0 }},
		{"noise", func(c *Config) { c.FinalNoiseScale = -1 }},
	}

	if err := testConfig().Validate(); err != nil {
		t.Fatalf("test configuration should be valid: %v", err)
	}
	for _, test := range tests {
		c := testConfig()
		test.modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%v: expected an error", test.name)
		}
	}
}

func TestTypedConfigKeepsDefaults(t *testing.T) {
	typed := agent.NewTypedConfig(DefaultConfig())
	data := []byte(`{"Type": "NAF", "Config": {"batch_size": 32}}`)

	if err := json.Unmarshal(data, &typed); err != nil {
		t.Fatal(err)
	}
	c, ok := typed.Config.(Config)
	if !ok {
		t.Fatalf("config type \n\twant(Config) \n\thave(%T)", typed.Config)
	}

	want := DefaultConfig()
	want.BatchSize = 32
	if c.BatchSize != 32 || c.Gamma != want.Gamma || c.Tau != want.Tau ||
		c.ReplaySize != want.ReplaySize {
		t.Errorf("config \n\twant(%+v) \n\thave(%+v)", want, c)
	}
	if !c.ValidAgent(newAgent(t, testConfig(), 16, nil)) {
		t.Errorf("config should be valid for a NAF agent")
	}
}

func TestConfigInitWFn(t *testing.T) {
	c := testConfig()
	init, err := initwfn.NewConstant(0.05)
	if err != nil {
		t.Fatal(err)
	}
	c.InitWFn = init
	n := newAgent(t, c, 12, nil)

	for _, w := range n.Model().Params().Named(network.Linear1Weight) {
		if w != 0.05 {
			t.Fatalf("weight \n\twant(%v) \n\thave(%v)", 0.05, w)
		}
	}
}
