package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a
// reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	default:
		return "Reward"
	}
}

// Cardinality determines the cardinality of a number (discrete or
// continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification.
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewBoxSpec returns a continuous Spec whose dimension i is bounded by
// bounds[i]
func NewBoxSpec(t SpecType, bounds []r1.Interval) Spec {
	lower := mat.NewVecDense(len(bounds), nil)
	upper := mat.NewVecDense(len(bounds), nil)
	for i, b := range bounds {
		lower.SetVec(i, b.Min)
		upper.SetVec(i, b.Max)
	}
	return NewSpec(mat.NewVecDense(len(bounds), nil), t, lower, upper,
		Continuous)
}

// NewScalarSpec returns a continuous Spec of a single value in the
// interval [min, max]
func NewScalarSpec(t SpecType, min, max float64) Spec {
	return NewBoxSpec(t, []r1.Interval{{Min: min, Max: max}})
}

// Len returns the number of dimensions the Spec describes
func (s Spec) Len() int {
	return s.Shape.Len()
}

// Contains returns whether v has the dimension of the Spec and lies
// within its bounds
func (s Spec) Contains(v mat.Vector) bool {
	if v.Len() != s.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < s.LowerBound.AtVec(i) ||
			v.AtVec(i) > s.UpperBound.AtVec(i) {
			return false
		}
	}
	return true
}

func (s Spec) String() string {
	return fmt.Sprintf("Spec | Type: %v  |  Cardinality: %v  |  Low: %v  |  "+
		"High: %v", s.Type, s.Cardinality, mat.Formatted(s.LowerBound.T()),
		mat.Formatted(s.UpperBound.T()))
}
