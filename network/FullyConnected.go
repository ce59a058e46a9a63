package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// activation is an elementwise nonlinearity added to a graph. A nil
// activation is the identity.
type activation func(x *G.Node) (*G.Node, error)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     activation
}

// newFCLayer returns a new fcLayer over existing weight and bias nodes
func newFCLayer(weights, bias *G.Node, act activation) *fcLayer {
	return &fcLayer{weights: weights, bias: bias, act: act}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	out, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights of %v: %v",
			f.weights.Name(), err)
	}

	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		out, err = G.BroadcastAdd(out, f.bias, nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: could not add bias %v: %v",
				f.bias.Name(), err)
		}
	}

	if f.act == nil {
		return out, nil
	}
	return f.act(out)
}
