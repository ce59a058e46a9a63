package initwfn

import (
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ConstantConfig implements a configuration of a weight initializer
// that sets every weight to Value
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight initializer
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Value: value})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn. No random numbers are drawn from src.
func (c ConstantConfig) Create(rand.Source) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		return fill(func() float64 { return c.Value }, dt, s...)
	}
}
