package network

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Input normalization constants
const (
	normEps      = 1e-5
	normMomentum = 0.1
)

// normLayer normalizes each input feature and then applies a learned
// affine transformation
type normLayer struct {
	scale *G.Node
	shift *G.Node

	// Running statistics, used only in Inference mode
	runningMean *G.Node
	runningVar  *G.Node

	// Batch statistics, computed only in Training mode
	batchMean *G.Node
	batchVar  *G.Node
}

// fwd adds the forward pass of the normLayer in the given mode to the
// computational graph
func (n *normLayer) fwd(x *G.Node, mode Mode) (*G.Node, error) {
	features := x.Shape()[1]
	eps := G.NewConstant(normEps, G.WithName("normEps"))

	var centred, variance *G.Node
	switch mode {
	case Training:
		mean, err := G.Mean(x, 0)
		if err != nil {
			return nil, err
		}
		n.batchMean = G.Must(G.Reshape(mean, tensor.Shape{1, features}))
		centred = G.Must(G.BroadcastSub(x, n.batchMean, nil, []byte{0}))

		// Biased batch variance
		sq := G.Must(G.Square(centred))
		n.batchVar = G.Must(G.Reshape(G.Must(G.Mean(sq, 0)),
			tensor.Shape{1, features}))
		variance = n.batchVar

	default:
		centred = G.Must(G.BroadcastSub(x, n.runningMean, nil, []byte{0}))
		variance = n.runningVar
	}

	std := G.Must(G.Sqrt(G.Must(G.Add(variance, eps))))
	normalized := G.Must(G.BroadcastHadamardDiv(centred, std, nil,
		[]byte{0}))

	out := G.Must(G.BroadcastHadamardProd(normalized, n.scale, nil,
		[]byte{0}))
	return G.BroadcastAdd(out, n.shift, nil, []byte{0})
}

// updateRunning folds batch statistics of a batch of the given size
// into running statistics. The running variance accumulates the
// unbiased estimate of the batch variance.
func updateRunning(runningMean, runningVar, mean, variance []float64,
	batch int) {
	correction := float64(batch) / float64(batch-1)
	for i := range runningMean {
		runningMean[i] = (1-normMomentum)*runningMean[i] +
			normMomentum*mean[i]
		runningVar[i] = (1-normMomentum)*runningVar[i] +
			normMomentum*variance[i]*correction
	}
}
