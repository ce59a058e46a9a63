package network

import "fmt"

// Pair couples a source parameter with the destination parameter it is
// blended into
type Pair struct {
	Name string
	Src  []float64
	Dst  []float64
}

// Pairs returns the order-preserving list of (source, destination)
// parameter pairs between two parameter sets. The pairs reference the
// backing data of src and dst, so the list only needs to be built once.
func Pairs(src, dst *Params) ([]Pair, error) {
	if err := src.Compatible(dst); err != nil {
		return nil, fmt.Errorf("pairs: %w", err)
	}

	pairs := make([]Pair, src.Len())
	for i := range pairs {
		pairs[i] = Pair{
			Name: src.Spec(i).Name,
			Src:  src.Value(i),
			Dst:  dst.Value(i),
		}
	}
	return pairs, nil
}

// Smooth blends each source into its destination:
//
//	dst ← (1 - τ)·dst + τ·src
//
// With τ = 0 the destinations are left untouched, and with τ = 1 they
// become exact copies of the sources. Smooth does not call Touch on the
// destination parameters.
func Smooth(pairs []Pair, tau float64) {
	switch tau {
	case 0:
		return
	case 1:
		HardCopy(pairs)
		return
	}

	for _, p := range pairs {
		for i := range p.Dst {
			p.Dst[i] = (1-tau)*p.Dst[i] + tau*p.Src[i]
		}
	}
}

// HardCopy copies each source into its destination
func HardCopy(pairs []Pair) {
	for _, p := range pairs {
		copy(p.Dst, p.Src)
	}
}
