package tracker

import (
	ts "github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Return tracks and saves the episodic return in an experiment. Rewards
// are summed undiscounted from the first timestep of an episode until
// its last. An episode must finish for its return to be tracked.
type Return struct {
	started bool
	current float64
	returns []float64
}

// NewReturn creates and returns a new Return Tracker
func NewReturn() *Return {
	return &Return{}
}

// Track accumulates the reward of step. A first timestep starts a new
// episode and discards any unfinished one, and a last timestep caches
// the episodic return.
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.started = true
		r.current = 0
	}
	if !r.started {
		return
	}

	r.current += step.Reward
	if step.Last() {
		r.returns = append(r.returns, r.current)
		r.current = 0
		r.started = false
	}
}

// Returns returns the returns of all finished episodes
func (r *Return) Returns() []float64 {
	return append([]float64(nil), r.returns...)
}

// Summary returns the mean, maximum, and minimum of the tracked
// returns. All are zero if no episode has finished.
func (r *Return) Summary() (mean, max, min float64) {
	if len(r.returns) == 0 {
		return 0, 0, 0
	}
	return stat.Mean(r.returns, nil), floats.Max(r.returns),
		floats.Min(r.returns)
}

// Save gob encodes the tracked returns into the file at path
func (r *Return) Save(path string) error {
	return save(path, r.returns)
}
