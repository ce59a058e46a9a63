// Package network implements the Normalized Advantage Function network:
// its ordered parameter set, the Gorgonia computational graphs that
// evaluate and train it, parameter smoothing, and persistence.
package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gonum.org/v1/gonum/stat/distuv"
)

// Kind describes the role of a parameter in the network
type Kind int

const (
	Weight Kind = iota
	Bias
	Scale // Affine scale of the input normalization
	Shift // Affine shift of the input normalization
	RunningMean
	RunningVariance
)

// Learnable returns whether parameters of this Kind are updated by
// gradient descent
func (k Kind) Learnable() bool {
	return k != RunningMean && k != RunningVariance
}

// Names of the parameters of a NAF network, in parameter order
const (
	NormScale       = "norm.gamma"
	NormShift       = "norm.beta"
	Linear1Weight   = "linear1.weight"
	Linear1Bias     = "linear1.bias"
	Linear2Weight   = "linear2.weight"
	Linear2Bias     = "linear2.bias"
	VWeight         = "V.weight"
	VBias           = "V.bias"
	MuWeight        = "mu.weight"
	MuBias          = "mu.bias"
	LWeight         = "L.weight"
	LBias           = "L.bias"
	NormRunningMean = "norm.running_mean"
	NormRunningVar  = "norm.running_var"
)

// headInitScale scales the initial weights of the output heads
const headInitScale = 0.1

// ParamSpec describes a single named parameter tensor
type ParamSpec struct {
	Name  string
	Shape []int
	Kind  Kind

	// FanIn is the number of inputs of the linear layer the parameter
	// belongs to, 0 if it does not belong to a linear layer.
	FanIn int

	// InitScale multiplies the parameter after initialization
	InitScale float64
}

// Size returns the number of elements in the parameter
func (p ParamSpec) Size() int {
	return tensor.Shape(p.Shape).TotalSize()
}

// Layout returns the ordered parameter specifications of a NAF network
// with the given number of state features, action dimensions, and
// hidden units per layer.
//
// Weights have shape (in, out) so that a layer computes x·W + b.
// Biases and normalization parameters have shape (1, out).
func Layout(features, actions, hidden int) []ParamSpec {
	linear := func(name string, in, out int, scale float64) []ParamSpec {
		return []ParamSpec{
			{name + ".weight", []int{in, out}, Weight, in, scale},
			{name + ".bias", []int{1, out}, Bias, in, scale},
		}
	}

	specs := []ParamSpec{
		{NormScale, []int{1, features}, Scale, 0, 1},
		{NormShift, []int{1, features}, Shift, 0, 1},
	}
	specs = append(specs, linear("linear1", features, hidden, 1)...)
	specs = append(specs, linear("linear2", hidden, hidden, 1)...)
	specs = append(specs, linear("V", hidden, 1, headInitScale)...)
	specs = append(specs, linear("mu", hidden, actions, headInitScale)...)
	specs = append(specs, linear("L", hidden, actions*actions,
		headInitScale)...)
	specs = append(specs,
		ParamSpec{NormRunningMean, []int{1, features}, RunningMean, 0, 1},
		ParamSpec{NormRunningVar, []int{1, features}, RunningVariance, 0, 1},
	)

	return specs
}

// Params is an ordered set of named parameter tensors, stored as flat
// row major float64 slices. The slices are allocated once and only ever
// modified in place, so references to them remain valid for the
// lifetime of the Params.
//
// Every modification must be followed by a call to Touch, which
// advances the version that computational graphs compare against to
// decide whether their copy of the parameters is stale.
type Params struct {
	specs   []ParamSpec
	values  [][]float64
	index   map[string]int
	version uint64
}

// NewParams returns a new set of parameters with the given
// specifications. Normalization scales and running variances are set
// to 1. All other parameters are set to 0.
func NewParams(specs []ParamSpec) *Params {
	p := &Params{
		specs:  make([]ParamSpec, len(specs)),
		values: make([][]float64, len(specs)),
		index:  make(map[string]int, len(specs)),
	}

	for i, spec := range specs {
		if _, ok := p.index[spec.Name]; ok {
			panic(fmt.Sprintf("newParams: duplicate parameter %v", spec.Name))
		}
		spec.Shape = append([]int(nil), spec.Shape...)
		p.specs[i] = spec
		p.index[spec.Name] = i

		p.values[i] = make([]float64, spec.Size())
		if spec.Kind == Scale || spec.Kind == RunningVariance {
			for j := range p.values[i] {
				p.values[i][j] = 1.0
			}
		}
	}

	return p
}

// Initialize draws the weights of every linear layer from init, and
// their biases from U(-1/√fan_in, 1/√fan_in). Each parameter is then
// multiplied by its InitScale.
func (p *Params) Initialize(init G.InitWFn, src rand.Source) error {
	for i, spec := range p.specs {
		switch spec.Kind {
		case Weight:
			w, ok := init(tensor.Float64, spec.Shape...).([]float64)
			if !ok || len(w) != spec.Size() {
				return fmt.Errorf("initialize: invalid initial weights for %v",
					spec.Name)
			}
			copy(p.values[i], w)

		case Bias:
			bound := 1 / math.Sqrt(float64(spec.FanIn))
			dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
			for j := range p.values[i] {
				p.values[i][j] = dist.Rand()
			}

		default:
			continue
		}

		if spec.InitScale != 1 {
			for j := range p.values[i] {
				p.values[i][j] *= spec.InitScale
			}
		}
	}

	p.Touch()
	return nil
}

// Len returns the number of parameter tensors
func (p *Params) Len() int {
	return len(p.specs)
}

// Spec returns the specification of the parameter at index i
func (p *Params) Spec(i int) ParamSpec {
	return p.specs[i]
}

// Specs returns a copy of the parameter specifications
func (p *Params) Specs() []ParamSpec {
	specs := make([]ParamSpec, len(p.specs))
	copy(specs, p.specs)
	return specs
}

// Value returns the backing data of the parameter at index i. Callers
// that modify the returned slice must call Touch afterwards.
func (p *Params) Value(i int) []float64 {
	return p.values[i]
}

// Index returns the index of the named parameter
func (p *Params) Index(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// MustIndex returns the index of the named parameter and panics if
// there is no such parameter
func (p *Params) MustIndex(name string) int {
	i, ok := p.index[name]
	if !ok {
		panic(fmt.Sprintf("mustIndex: no parameter named %v", name))
	}
	return i
}

// Named returns the backing data of the named parameter
func (p *Params) Named(name string) []float64 {
	return p.values[p.MustIndex(name)]
}

// Touch records that the parameters have been modified
func (p *Params) Touch() {
	p.version++
}

// Version returns a counter that changes each time the parameters are
// modified
func (p *Params) Version() uint64 {
	return p.version
}

// Clone returns a deep copy of the parameters
func (p *Params) Clone() *Params {
	clone := NewParams(p.specs)
	for i := range p.values {
		copy(clone.values[i], p.values[i])
	}
	clone.Touch()
	return clone
}

// Compatible returns an error if q does not have the same names and
// shapes as p, in the same order
func (p *Params) Compatible(q *Params) error {
	if p.Len() != q.Len() {
		return &ShapeError{
			Op:   "compatible",
			Want: fmt.Sprintf("%v parameters", p.Len()),
			Have: fmt.Sprintf("%v parameters", q.Len()),
		}
	}
	for i := range p.specs {
		if err := matchSpec("compatible", p.specs[i], q.specs[i].Name,
			q.specs[i].Shape); err != nil {
			return err
		}
	}
	return nil
}

func (p *Params) String() string {
	var total int
	for _, spec := range p.specs {
		total += spec.Size()
	}
	return fmt.Sprintf("Params | Tensors: %v  |  Elements: %v  |  "+
		"Version: %v", p.Len(), total, p.version)
}
