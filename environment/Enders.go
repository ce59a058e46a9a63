package environment

import (
	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
)

// Condition ends an episode when a predicate of the observation holds.
// The ended timestep is given the Condition's end type.
type Condition struct {
	holds   func(obs mat.Vector) bool
	endType timestep.EndType
}

// NewCondition returns a Condition that ends episodes with end type
// endType once holds returns true
func NewCondition(holds func(obs mat.Vector) bool,
	endType timestep.EndType) *Condition {
	return &Condition{holds: holds, endType: endType}
}

// End implements the Ender interface
func (c *Condition) End(t *timestep.TimeStep) bool {
	if !c.holds(t.Observation) {
		return false
	}
	t.StepType = timestep.Last
	t.SetEnd(c.endType)
	return true
}

// Enders ends an episode as soon as any of its Enders does. Enders are
// checked in order so that a terminal condition listed before a step
// limit takes precedence when both hold on the same step.
type Enders []Ender

// End implements the Ender interface
func (e Enders) End(t *timestep.TimeStep) bool {
	for _, ender := range e {
		if ender.End(t) {
			return true
		}
	}
	return false
}
