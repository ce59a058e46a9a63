package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChoiceStarter returns one of a fixed set of vectors, chosen at random
// according to a categorical distribution
type ChoiceStarter struct {
	options []*mat.VecDense
	dist    distuv.Categorical
}

// NewChoiceStarter returns a new ChoiceStarter over options. If weights
// is nil each option is equally likely. All options must have the same
// length.
func NewChoiceStarter(options []mat.Vector, weights []float64,
	seed uint64) (*ChoiceStarter, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("newChoiceStarter: at least one option " +
			"required")
	}
	if weights == nil {
		weights = make([]float64, len(options))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(options) {
		return nil, fmt.Errorf("newChoiceStarter: one weight per option "+
			"required \n\twant(%v) \n\thave(%v)", len(options), len(weights))
	}

	opts := make([]*mat.VecDense, len(options))
	for i, o := range options {
		if o.Len() != options[0].Len() {
			return nil, fmt.Errorf("newChoiceStarter: option %v has length "+
				"%v, want(%v)", i, o.Len(), options[0].Len())
		}
		opts[i] = mat.VecDenseCopyOf(o)
	}

	return &ChoiceStarter{
		options: opts,
		dist:    distuv.NewCategorical(weights, rand.NewSource(seed)),
	}, nil
}

// Start returns a copy of a randomly chosen option
func (c *ChoiceStarter) Start() *mat.VecDense {
	return mat.VecDenseCopyOf(c.options[int(c.dist.Rand())])
}
