package network

import (
	"errors"
	"fmt"
)

// ShapeError reports that stored parameters do not match the
// parameters of a network. Loading parameters of the wrong shape is not
// recoverable.
type ShapeError struct {
	Op   string
	Name string
	Want string
	Have string
}

// Error satisfies the error interface
func (s *ShapeError) Error() string {
	if s.Name == "" {
		return fmt.Sprintf("%v: shape mismatch \n\twant(%v) \n\thave(%v)",
			s.Op, s.Want, s.Have)
	}
	return fmt.Sprintf("%v: shape mismatch for %v \n\twant(%v) \n\thave(%v)",
		s.Op, s.Name, s.Want, s.Have)
}

// IsShapeMismatch returns whether an error reports mismatched
// parameter shapes
func IsShapeMismatch(err error) bool {
	var s *ShapeError
	return errors.As(err, &s)
}

// matchSpec returns a *ShapeError if name and shape do not match spec
func matchSpec(op string, spec ParamSpec, name string, shape []int) error {
	if spec.Name != name {
		return &ShapeError{Op: op, Name: spec.Name, Want: spec.Name,
			Have: name}
	}
	if len(spec.Shape) != len(shape) {
		return &ShapeError{Op: op, Name: spec.Name,
			Want: fmt.Sprint(spec.Shape), Have: fmt.Sprint(shape)}
	}
	for i := range shape {
		if spec.Shape[i] != shape[i] {
			return &ShapeError{Op: op, Name: spec.Name,
				Want: fmt.Sprint(spec.Shape), Have: fmt.Sprint(shape)}
		}
	}
	return nil
}
