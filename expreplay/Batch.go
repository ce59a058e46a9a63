package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/naf/timestep"
)

// Batch holds a batch of Transitions flattened in row major order so
// that each field can be used directly as the backing of a tensor.
type Batch struct {
	Size        int
	FeatureSize int
	ActionSize  int

	States     []float64 // Size × FeatureSize
	Actions    []float64 // Size × ActionSize
	Masks      []float64 // 1 if the episode continues, 0 otherwise
	NextStates []float64 // Size × FeatureSize
	Rewards    []float64
}

// NewBatch flattens transitions into a Batch
func NewBatch(transitions []timestep.Transition) (Batch, error) {
	if len(transitions) == 0 {
		return Batch{}, fmt.Errorf("newbatch: no transitions given")
	}

	size := len(transitions)
	features := len(transitions[0].State)
	actions := len(transitions[0].Action)

	b := Batch{
		Size:        size,
		FeatureSize: features,
		ActionSize:  actions,
		States:      make([]float64, 0, size*features),
		Actions:     make([]float64, 0, size*actions),
		Masks:       make([]float64, size),
		NextStates:  make([]float64, 0, size*features),
		Rewards:     make([]float64, size),
	}

	for i, t := range transitions {
		if len(t.State) != features || len(t.NextState) != features {
			return Batch{}, fmt.Errorf("newbatch: transition %v has invalid "+
				"feature size \n\twant(%v) \n\thave(%v)", i, features,
				len(t.State))
		}
		if len(t.Action) != actions {
			return Batch{}, fmt.Errorf("newbatch: transition %v has invalid "+
				"action size \n\twant(%v) \n\thave(%v)", i, actions,
				len(t.Action))
		}

		b.States = append(b.States, t.State...)
		b.Actions = append(b.Actions, t.Action...)
		b.NextStates = append(b.NextStates, t.NextState...)
		b.Masks[i] = t.MaskValue()
		b.Rewards[i] = t.Reward
	}

	return b, nil
}
