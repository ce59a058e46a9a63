package network

// Mode determines how the input normalization of a network behaves
// during a forward pass. Every forward evaluation names its Mode
// explicitly.
type Mode int

const (
	// Inference normalizes inputs with the accumulated running
	// statistics. Outputs for one input do not depend on the rest of
	// the batch, and no statistics are updated.
	Inference Mode = iota

	// Training normalizes inputs with the statistics of the current
	// batch and updates the running statistics.
	Training
)

func (m Mode) String() string {
	switch m {
	case Inference:
		return "Inference"
	case Training:
		return "Training"
	default:
		return "Unknown"
	}
}
