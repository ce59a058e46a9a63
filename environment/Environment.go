// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. If an episode should end, End
// modifies the TimeStep so that its StepType is timestep.Last and its
// EndType records the reason, then returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment as well as the start and end conditions of episodes
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action in state and
	// transitioning to next
	GetReward(state, action, next mat.Vector) float64

	// AtGoal returns whether state is a goal state
	AtGoal(state mat.Vector) bool
	RewardSpec() Spec
}

// Environment implements a simulated environment. Reset must be called
// before the first call to Step.
type Environment interface {
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step with the given action,
	// returning the next TimeStep and whether the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec
}
