// Package noise implements exploration noise processes for continuous
// action selection.
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OUConfig implements a specific configuration of an OU process
type OUConfig struct {
	Theta float64 // Rate of mean reversion
	Sigma float64 // Volatility
	Scale float64 // Initial scale of the noise
}

// DefaultOUConfig returns the standard configuration of an OU process
func DefaultOUConfig() OUConfig {
	return OUConfig{Theta: 0.15, Sigma: 0.2, Scale: 1.0}
}

// Validate returns an error if the configuration is invalid
func (c OUConfig) Validate() error {
	if c.Theta < 0 {
		return fmt.Errorf("validate: theta must be non-negative \n\t"+
			"want(>=0) \n\thave(%v)", c.Theta)
	}
	if c.Sigma < 0 {
		return fmt.Errorf("validate: sigma must be non-negative \n\t"+
			"want(>=0) \n\thave(%v)", c.Sigma)
	}
	if c.Scale < 0 {
		return fmt.Errorf("validate: scale must be non-negative \n\t"+
			"want(>=0) \n\thave(%v)", c.Scale)
	}
	return nil
}

// Create returns an OU process of the given dimension described by the
// configuration
func (c OUConfig) Create(dim int, seed uint64) (*OU, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	if dim < 1 {
		return nil, fmt.Errorf("create: dimension must be positive "+
			"\n\twant(>0) \n\thave(%v)", dim)
	}
	ou := NewOU(dim, c.Theta, c.Sigma, seed)
	ou.SetScale(c.Scale)
	return ou, nil
}

// OU is an Ornstein-Uhlenbeck process producing temporally correlated
// noise. Each call to Sample performs one step
//
//	x ← x + θ(μ - x) + σ·scale·ξ,	ξ ~ N(0, I)
//
// with mean μ = 0. Reset returns the process to its mean and should be
// called only at the start of an episode.
type OU struct {
	theta float64
	sigma float64
	scale float64

	mu    *mat.VecDense
	state *mat.VecDense

	normal distuv.Normal
	xi     *mat.VecDense
}

// NewOU returns a new OU process of the given dimension with scale 1
func NewOU(dim int, theta, sigma float64, seed uint64) *OU {
	normal := distuv.Normal{
		Mu:    0.0,
		Sigma: 1.0,
		Src:   rand.NewSource(seed),
	}

	return &OU{
		theta:  theta,
		sigma:  sigma,
		scale:  1.0,
		mu:     mat.NewVecDense(dim, nil),
		state:  mat.NewVecDense(dim, nil),
		normal: normal,
		xi:     mat.NewVecDense(dim, nil),
	}
}

// Sample advances the process one step and returns a copy of the new
// noise vector
func (o *OU) Sample() *mat.VecDense {
	for i := 0; i < o.xi.Len(); i++ {
		o.xi.SetVec(i, o.normal.Rand())
	}

	// dx = θ(μ - x) + σ·scale·ξ
	dx := mat.NewVecDense(o.state.Len(), nil)
	dx.SubVec(o.mu, o.state)
	dx.ScaleVec(o.theta, dx)
	dx.AddScaledVec(dx, o.sigma*o.scale, o.xi)

	o.state.AddVec(o.state, dx)

	return mat.VecDenseCopyOf(o.state)
}

// Reset sets the process back to its mean
func (o *OU) Reset() {
	o.state.CopyVec(o.mu)
}

// SetScale sets the scale applied to the random component of each step
func (o *OU) SetScale(scale float64) {
	o.scale = scale
}

// Scale returns the current scale
func (o *OU) Scale() float64 {
	return o.scale
}

// State returns a copy of the current noise vector
func (o *OU) State() *mat.VecDense {
	return mat.VecDenseCopyOf(o.state)
}

// Dim returns the dimension of the noise vectors
func (o *OU) Dim() int {
	return o.state.Len()
}

func (o *OU) String() string {
	return fmt.Sprintf("OU | θ: %v  |  σ: %v  |  Scale: %v", o.theta,
		o.sigma, o.scale)
}
