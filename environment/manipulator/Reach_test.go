package manipulator

import (
	"math"
	"testing"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// newReach returns a Reach environment that always starts at start with
// a single goal
func newReach(t *testing.T, start, goal r3.Vec, cutoff int,
	scale float64) *Reach {
	t.Helper()

	s := environment.NewUniformStarter([]r1.Interval{
		{Min: start.X, Max: start.X},
		{Min: start.Y, Max: start.Y},
		{Min: start.Z, Max: start.Z},
	}, 1)
	task, err := NewInsertion(s, []r3.Vec{goal}, cutoff, 2)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReach(task, scale, 0.99)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestResetObservesOffset(t *testing.T) {
	r := newReach(t, r3.Vec{X: 0.5, Y: 0.1, Z: 0.3},
		r3.Vec{X: 0.5, Y: 0, Z: 0.1}, 10, 1)

	first, err := r.Reset()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.1, 0.2}
	for i := range want {
		if math.Abs(first.Observation.AtVec(i)-want[i]) > 1e-12 {
			t.Errorf("offset \n\twant(%v) \n\thave(%v)", want,
				first.Observation.RawVector().Data)
			break
		}
	}
	if !first.First() {
		t.Errorf("step type \n\twant(First) \n\thave(%v)", first.StepType)
	}
}

func TestReachGoal(t *testing.T) {
	goal := r3.Vec{X: 0.5, Y: 0, Z: 0.1}
	r := newReach(t, r3.Vec{X: 0.5, Y: 0, Z: 0.15}, goal, 10, 1)
	r.Reset()

	// One full step down covers the 5cm to the goal
	step, last, err := r.Step(mat.NewVecDense(3, []float64{0, 0, -1}))
	if err != nil {
		t.Fatal(err)
	}
	if !last || !step.Terminal() {
		t.Fatalf("reaching the goal should be terminal, have(%v, %v)",
			step.StepType, step.EndType())
	}

	want := DefaultGoalBonus - DefaultControlCost
	if math.Abs(step.Reward-want) > 1e-9 {
		t.Errorf("reward \n\twant(%v) \n\thave(%v)", want, step.Reward)
	}
	if r.Reached() != 1 {
		t.Errorf("reached \n\twant(1) \n\thave(%v)", r.Reached())
	}
}

func TestReachTimeout(t *testing.T) {
	r := newReach(t, r3.Vec{X: 0.5, Y: 0, Z: 0.5},
		r3.Vec{X: 0.5, Y: 0, Z: 0.1}, 2, 1)
	r.Reset()

	action := mat.NewVecDense(3, nil)
	if _, last, _ := r.Step(action); last {
		t.Fatalf("episode ended early")
	}
	step, last, _ := r.Step(action)
	if !last || step.EndType() != timestep.Timeout {
		t.Errorf("end \n\twant(true, Timeout) \n\thave(%v, %v)", last,
			step.EndType())
	}
	if want := -0.4; math.Abs(step.Reward-want) > 1e-12 {
		t.Errorf("reward \n\twant(%v) \n\thave(%v)", want, step.Reward)
	}
	if r.Reached() != 0 {
		t.Errorf("reached \n\twant(0) \n\thave(%v)", r.Reached())
	}
}

func TestReachWorkspaceClipped(t *testing.T) {
	r := newReach(t, r3.Vec{X: 0.79, Y: 0, Z: 0.3},
		r3.Vec{X: 0.5, Y: 0, Z: 0.1}, 10, 2)
	r.Reset()

	// Actions beyond 1 are clipped, and the position to the workspace
	r.Step(mat.NewVecDense(3, []float64{5, 0, 0}))
	if r.Position().X != Workspace[0].Max {
		t.Errorf("x \n\twant(%v) \n\thave(%v)", Workspace[0].Max,
			r.Position().X)
	}
	if !r.ObservationSpec().Contains(r.offset()) {
		t.Errorf("observation %v outside observation spec",
			r.offset().RawVector().Data)
	}
}

func TestReachErrors(t *testing.T) {
	r := newReach(t, r3.Vec{X: 0.5, Y: 0, Z: 0.3},
		r3.Vec{X: 0.5, Y: 0, Z: 0.1}, 10, 1)

	if _, _, err := r.Step(mat.NewVecDense(3, nil)); err == nil {
		t.Errorf("step before reset should return an error")
	}
	r.Reset()
	if _, _, err := r.Step(mat.NewVecDense(2, nil)); err == nil {
		t.Errorf("2-dimensional action should return an error")
	}

	if _, err := NewReach(r.task, 0, 0.99); err == nil {
		t.Errorf("zero action scale should return an error")
	}
	if _, err := NewInsertion(nil, nil, 10, 1); err == nil {
		t.Errorf("insertion without goals should return an error")
	}
}
