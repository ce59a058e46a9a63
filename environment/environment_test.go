package environment

import (
	"testing"

	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func step(n int, obs ...float64) timestep.TimeStep {
	return timestep.New(timestep.Mid, 0, 0.99,
		mat.NewVecDense(len(obs), obs), n)
}

func TestStepLimitTimeout(t *testing.T) {
	limit := NewStepLimit(3)

	s := step(2, 0)
	if limit.End(&s) || s.Last() {
		t.Errorf("step 2 should not end the episode")
	}

	s = step(3, 0)
	if !limit.End(&s) {
		t.Fatalf("step 3 should end the episode")
	}
	if !s.Last() || s.EndType() != timestep.Timeout {
		t.Errorf("end \n\twant(Last, Timeout) \n\thave(%v, %v)", s.StepType,
			s.EndType())
	}
	if s.Terminal() {
		t.Errorf("a timeout should not be terminal")
	}
}

func TestEndersPrecedence(t *testing.T) {
	goal := NewCondition(func(v mat.Vector) bool {
		return v.AtVec(0) == 0
	}, timestep.TerminalStateReached)
	enders := Enders{goal, NewStepLimit(5)}

	s := step(5, 0)
	if !enders.End(&s) {
		t.Fatalf("episode should end")
	}
	if s.EndType() != timestep.TerminalStateReached {
		t.Errorf("end type \n\twant(%v) \n\thave(%v)",
			timestep.TerminalStateReached, s.EndType())
	}

	s = step(5, 1)
	enders.End(&s)
	if s.EndType() != timestep.Timeout {
		t.Errorf("end type \n\twant(%v) \n\thave(%v)", timestep.Timeout,
			s.EndType())
	}

	s = step(1, 1)
	if enders.End(&s) {
		t.Errorf("episode should not end")
	}
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}, {Min: 2, Max: 2}}
	s := NewUniformStarter(bounds, 1)

	for i := 0; i < 100; i++ {
		start := s.Start()
		if start.Len() != 2 {
			t.Fatalf("start length \n\twant(2) \n\thave(%v)", start.Len())
		}
		if start.AtVec(0) < -1 || start.AtVec(0) > 1 {
			t.Errorf("start out of bounds: %v", start.AtVec(0))
		}
		if start.AtVec(1) != 2 {
			t.Errorf("degenerate bound \n\twant(2) \n\thave(%v)",
				start.AtVec(1))
		}
	}
}

func TestChoiceStarter(t *testing.T) {
	options := []mat.Vector{
		mat.NewVecDense(2, []float64{0, 1}),
		mat.NewVecDense(2, []float64{2, 3}),
		mat.NewVecDense(2, []float64{4, 5}),
	}
	s, err := NewChoiceStarter(options, nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[float64]bool)
	for i := 0; i < 300; i++ {
		v := s.Start()
		if v.AtVec(1) != v.AtVec(0)+1 {
			t.Fatalf("start %v is not an option", v.RawVector().Data)
		}
		seen[v.AtVec(0)] = true

		// Starts are copies
		v.SetVec(0, -1)
	}
	if len(seen) != 3 {
		t.Errorf("options sampled \n\twant(3) \n\thave(%v)", len(seen))
	}

	s, err = NewChoiceStarter(options, []float64{0, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := s.Start().AtVec(0); v != 2 {
		t.Errorf("weighted start \n\twant(2) \n\thave(%v)", v)
	}

	if _, err := NewChoiceStarter(nil, nil, 1); err == nil {
		t.Errorf("expected an error without options")
	}
	if _, err := NewChoiceStarter(options, []float64{1}, 1); err == nil {
		t.Errorf("expected an error with too few weights")
	}
}

func TestSpecContains(t *testing.T) {
	spec := NewBoxSpec(Action, []r1.Interval{{Min: -1, Max: 1},
		{Min: -1, Max: 1}})

	tests := []struct {
		v    []float64
		want bool
	}{
		{[]float64{0, 0}, true},
		{[]float64{-1, 1}, true},
		{[]float64{1.01, 0}, false},
		{[]float64{0}, false},
	}

	for _, test := range tests {
		have := spec.Contains(mat.NewVecDense(len(test.v), test.v))
		if have != test.want {
			t.Errorf("contains %v \n\twant(%v) \n\thave(%v)", test.v,
				test.want, have)
		}
	}
}
