package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFromStepsMask(t *testing.T) {
	start := New(First, 0, 0.99, mat.NewVecDense(2, []float64{0, 1}), 0)

	tests := []struct {
		name     string
		stepType StepType
		end      EndType
		mask     bool
	}{
		{"mid", Mid, Unknown, true},
		{"timeout", Last, Timeout, true},
		{"terminal", Last, TerminalStateReached, false},
	}

	for _, test := range tests {
		next := New(test.stepType, -1.5, 0.99,
			mat.NewVecDense(2, []float64{2, 3}), 1)
		next.SetEnd(test.end)

		tr := FromSteps(start, []float64{0.5}, next)
		if tr.Mask != test.mask {
			t.Errorf("%v: mask \n\twant(%v) \n\thave(%v)", test.name,
				test.mask, tr.Mask)
		}
		if tr.Reward != -1.5 {
			t.Errorf("%v: reward \n\twant(%v) \n\thave(%v)", test.name,
				-1.5, tr.Reward)
		}
	}
}

func TestNewTransitionCopies(t *testing.T) {
	state := []float64{1, 2}
	action := []float64{0.1}
	tr := NewTransition(state, action, true, state, 0)

	state[0] = 100
	action[0] = 100
	if tr.State[0] != 1 || tr.NextState[0] != 1 || tr.Action[0] != 0.1 {
		t.Errorf("transition should not alias its inputs: %v", tr)
	}
	if tr.MaskValue() != 1.0 {
		t.Errorf("mask value \n\twant(1) \n\thave(%v)", tr.MaskValue())
	}
}
