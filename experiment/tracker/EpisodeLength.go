package tracker

import (
	ts "github.com/samuelfneumann/naf/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. An episode must finish for its length to be tracked.
type EpisodeLength struct {
	lengths []int
}

// NewEpisodeLength returns a new EpisodeLength Tracker
func NewEpisodeLength() *EpisodeLength {
	return &EpisodeLength{}
}

// Track caches the episode length if t is the last timestep of an
// episode
func (e *EpisodeLength) Track(t ts.TimeStep) {
	if t.Last() {
		e.lengths = append(e.lengths, t.Number)
	}
}

// Lengths returns the lengths of all finished episodes
func (e *EpisodeLength) Lengths() []int {
	return append([]int(nil), e.lengths...)
}

// Save gob encodes the tracked episode lengths into the file at path
func (e *EpisodeLength) Save(path string) error {
	return save(path, e.lengths)
}
