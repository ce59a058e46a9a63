package pendulum

import (
	"fmt"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/timestep"
	"github.com/samuelfneumann/naf/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// actionBounds are the bounds of the normalized actions the
// environment accepts
var actionBounds = r1.Interval{Min: -1, Max: 1}

// Continuous implements the classic control environment Pendulum with
// continuous actions.
//
// Actions are 1-dimensional and normalized to [-1, 1]. An action is
// clipped to [-1, 1] and then rescaled linearly onto the torque bounds
// [-TorqueBound, TorqueBound] before being applied at the fixed base.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Continuous environment. Reset
// must be called before the first Step.
func NewContinuous(t environment.Task, discount float64) *Continuous {
	return &Continuous{newBase(t, discount)}
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (p *Continuous) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if !p.started {
		return timestep.TimeStep{}, false, fmt.Errorf("step: environment " +
			"must be reset before stepping")
	}
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, false, fmt.Errorf("step: actions "+
			"should be %v-dimensional, have(%v)", ActionDims, action.Len())
	}

	a := floatutils.ClipInterval(action.AtVec(0), actionBounds)
	torque := floatutils.Rescale(a, actionBounds, p.torqueBounds)

	nextState := p.nextState(p.lastStep, torque)
	nextStep, last := p.update(action, nextState)

	return nextStep, last, nil
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action,
		[]r1.Interval{actionBounds})
}

// String converts the environment to a string representation
func (p *Continuous) String() string {
	if !p.started {
		return "Continuous Pendulum  |  not started"
	}
	str := "Continuous Pendulum  |  theta: %v  |  theta dot: %v"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}
