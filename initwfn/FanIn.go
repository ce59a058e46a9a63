package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gonum.org/v1/gonum/stat/distuv"
)

// FanInUConfig implements a configuration of the fan in uniform
// initialization algorithm, which draws weights from
// U(-gain/√fan_in, gain/√fan_in).
type FanInUConfig struct {
	Gain float64
}

// NewFanInU returns a new fan in uniform weight initializer
func NewFanInU(gain float64) (*InitWFn, error) {
	return newInitWFn(FanInUConfig{Gain: gain})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (f FanInUConfig) Type() Type {
	return FanInU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (f FanInUConfig) Create(src rand.Source) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		fanIn, _ := fans(s...)
		bound := f.Gain / math.Sqrt(float64(fanIn))
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
		return fill(dist.Rand, dt, s...)
	}
}
