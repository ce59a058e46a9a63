package timestep

import "fmt"

// Transition is one step of experience (S, A, mask, S', R). Mask is
// true while the episode continues past NextState, and false when
// NextState is terminal so that no value is bootstrapped from it.
//
// Transitions are immutable once created: NewTransition copies the
// argument slices.
type Transition struct {
	State     []float64
	Action    []float64
	Mask      bool
	NextState []float64
	Reward    float64
}

// NewTransition returns a new Transition holding copies of its
// arguments
func NewTransition(state, action []float64, mask bool, nextState []float64,
	reward float64) Transition {
	return Transition{
		State:     append([]float64(nil), state...),
		Action:    append([]float64(nil), action...),
		Mask:      mask,
		NextState: append([]float64(nil), nextState...),
		Reward:    reward,
	}
}

// FromSteps creates a Transition between two consecutive TimeSteps
// where action was taken in step to produce next.
func FromSteps(step TimeStep, action []float64, next TimeStep) Transition {
	return NewTransition(
		step.Observation.RawVector().Data,
		action,
		!next.Terminal(),
		next.Observation.RawVector().Data,
		next.Reward,
	)
}

// MaskValue returns the mask as a float, 1 if the episode continues
// and 0 otherwise
func (t Transition) MaskValue() float64 {
	if t.Mask {
		return 1.0
	}
	return 0.0
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | S: %v  |  A: %v  |  Mask: %v  |  "+
		"S': %v  |  R: %.3f", t.State, t.Action, t.Mask, t.NextState,
		t.Reward)
}
