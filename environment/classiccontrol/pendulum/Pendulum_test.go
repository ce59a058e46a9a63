package pendulum

import (
	"math"
	"testing"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newPendulum(start float64, cutoff int) *Continuous {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: start, Max: start},
		{Min: 0, Max: 0},
	}, 1)
	return NewContinuous(NewSwingUp(s, cutoff), 0.99)
}

func TestStepBeforeReset(t *testing.T) {
	p := newPendulum(0, 10)
	if _, _, err := p.Step(mat.NewVecDense(1, nil)); err == nil {
		t.Errorf("step before reset should return an error")
	}
}

func TestActionDims(t *testing.T) {
	p := newPendulum(0, 10)
	if _, err := p.Reset(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Step(mat.NewVecDense(2, nil)); err == nil {
		t.Errorf("2-dimensional action should return an error")
	}
}

func TestActionRescaled(t *testing.T) {
	clipped := newPendulum(1, 10)
	unit := newPendulum(1, 10)
	clipped.Reset()
	unit.Reset()

	a, _, err := clipped.Step(mat.NewVecDense(1, []float64{5}))
	if err != nil {
		t.Fatal(err)
	}
	b, _, _ := unit.Step(mat.NewVecDense(1, []float64{1}))
	if !mat.Equal(a.Observation, b.Observation) {
		t.Errorf("actions beyond 1 should be clipped \n\twant(%v) "+
			"\n\thave(%v)", b.Observation.RawVector().Data,
			a.Observation.RawVector().Data)
	}

	// An action of 1 applies the full torque
	want := 0.0 + (-3*Gravity/(2*Length)*math.Sin(1+math.Pi)+
		3.0/(Mass*Length*Length)*TorqueBound)*dt
	if math.Abs(b.Observation.AtVec(1)-want) > 1e-12 {
		t.Errorf("angular velocity \n\twant(%v) \n\thave(%v)", want,
			b.Observation.AtVec(1))
	}
}

func TestTimeout(t *testing.T) {
	p := newPendulum(0.5, 3)
	p.Reset()

	var (
		step timestep.TimeStep
		last bool
	)
	for i := 0; i < 3; i++ {
		var err error
		step, last, err = p.Step(mat.NewVecDense(1, []float64{0}))
		if err != nil {
			t.Fatal(err)
		}
		if i < 2 && last {
			t.Fatalf("episode ended early at step %v", i+1)
		}
	}

	if !last || step.EndType() != timestep.Timeout {
		t.Errorf("end \n\twant(true, Timeout) \n\thave(%v, %v)", last,
			step.EndType())
	}
	if want := math.Cos(step.Observation.AtVec(0)); step.Reward != want {
		t.Errorf("reward \n\twant(%v) \n\thave(%v)", want, step.Reward)
	}
}

func TestNormalizeAngle(t *testing.T) {
	bounds := r1.Interval{Min: -math.Pi, Max: math.Pi}
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{math.Pi + 0.5, -math.Pi + 0.5},
		{-math.Pi - 0.5, math.Pi - 0.5},
	}

	for _, test := range tests {
		have := normalizeAngle(test.in, bounds)
		if math.Abs(have-test.want) > 1e-9 {
			t.Errorf("normalize(%v) \n\twant(%v) \n\thave(%v)", test.in,
				test.want, have)
		}
	}
}

func TestInvalidStart(t *testing.T) {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: 0, Max: 0},
		{Min: 10, Max: 10},
	}, 1)
	p := NewContinuous(NewSwingUp(s, 10), 0.99)
	if _, err := p.Reset(); err == nil {
		t.Errorf("start speed beyond bounds should return an error")
	}
}
