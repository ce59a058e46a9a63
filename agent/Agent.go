// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// In evaluation mode a Policy acts greedily, without exploration. The
// evaluation mode of a Policy only controls exploration; it never
// changes how the underlying model computes its outputs.
type Policy interface {
	SelectAction(t timestep.TimeStep) (*mat.VecDense, error)
	Eval()        // Act greedily
	Train()       // Act with exploration
	IsEval() bool // Indicates if in evaluation mode
}

// Explorer is an Agent whose exploration is annealed over episodes
type Explorer interface {
	Agent

	// BeginEpisode prepares exploration for the given episode and
	// returns the exploration scale that will be used
	BeginEpisode(episode int) float64
}

// Persister is an Agent whose model and experience can be saved and
// restored
type Persister interface {
	Agent

	SaveModel(path string) error
	LoadModel(path string) error
	SaveExperience(path string) error
	LoadExperience(path string) error
}

// Trainer is an Agent that can report whether it holds enough
// experience to update
type Trainer interface {
	Agent

	// Ready returns whether enough experience has been collected for
	// an update
	Ready() bool
}
