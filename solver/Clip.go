package solver

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gonum.org/v1/gonum/floats"
)

// clipEps keeps the rescaled norm strictly below the bound
const clipEps = 1e-6

// ClipGradNorm rescales the gradients of model in place so that their
// joint L2 norm, taken over every gradient as a single vector, is at
// most maxNorm. Gradients already within the bound are left untouched.
// The norm before clipping is returned.
func ClipGradNorm(model []G.ValueGrad, maxNorm float64) (float64, error) {
	grads := make([][]float64, 0, len(model))
	var sumSq float64

	for i, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return 0, fmt.Errorf("clipGradNorm: could not get gradient of "+
				"parameter %v: %v", i, err)
		}

		data, ok := grad.Data().([]float64)
		if !ok {
			return 0, fmt.Errorf("clipGradNorm: gradient %v is not a "+
				"float64 tensor", i)
		}
		n := floats.Norm(data, 2)
		sumSq += n * n
		grads = append(grads, data)
	}

	norm := math.Sqrt(sumSq)
	if maxNorm <= 0 || norm <= maxNorm {
		return norm, nil
	}

	scale := maxNorm / (norm + clipEps)
	for _, g := range grads {
		floats.Scale(scale, g)
	}
	return norm, nil
}
