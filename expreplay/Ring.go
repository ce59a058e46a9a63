// Package expreplay implements a fixed-capacity experience replay
// buffer with uniform sampling.
package expreplay

import (
	"fmt"
	"sync"

	"github.com/samuelfneumann/naf/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Config implements a specific configuration of a Ring
type Config struct {
	Capacity int
}

// Validate returns an error if the Config cannot create a Ring
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("validate: capacity must be >= 1 \n\twant(>0)"+
			"\n\thave(%v)", c.Capacity)
	}
	return nil
}

// Create creates and returns the Ring described by the Config
func (c Config) Create(featureSize, actionSize int, seed uint64) (*Ring,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return New(c.Capacity, featureSize, actionSize, seed), nil
}

// Ring is a FIFO ring buffer of Transitions. Until the buffer is full,
// Push appends. Once full, each Push overwrites the slot at the write
// cursor, which always holds the oldest Transition, and advances the
// cursor modulo the capacity.
//
// Push and Sample are serialized with a mutex so that collection and
// training may run on separate goroutines.
type Ring struct {
	mu       sync.Mutex // Guards buffer and cursor
	buffer   []timestep.Transition
	capacity int
	cursor   int

	src rand.Source

	// Sizes of the state and action vectors of every Transition.
	// A size of 0 disables the check.
	featureSize int
	actionSize  int
}

// New returns a new Ring holding at most capacity Transitions. If
// featureSize or actionSize is positive, Push rejects Transitions whose
// states or actions have a different length. The seed determines
// the sampling order.
func New(capacity, featureSize, actionSize int, seed uint64) *Ring {
	if capacity < 1 {
		panic(fmt.Sprintf("new: capacity must be positive, have(%v)",
			capacity))
	}

	return &Ring{
		buffer:      make([]timestep.Transition, 0, initialSize(capacity)),
		capacity:    capacity,
		src:         rand.NewSource(seed),
		featureSize: featureSize,
		actionSize:  actionSize,
	}
}

// initialSize returns the initial allocation of a Ring's buffer. Very
// large buffers grow on demand rather than being allocated up front.
func initialSize(capacity int) int {
	const maxInitial = 1 << 16
	if capacity > maxInitial {
		return maxInitial
	}
	return capacity
}

// Push adds a Transition to the buffer, evicting the oldest Transition
// if the buffer is full.
func (r *Ring) Push(t timestep.Transition) error {
	if err := r.validate(t); err != nil {
		return &ExpReplayError{Op: "push", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buffer) < r.capacity {
		r.buffer = append(r.buffer, t)
	} else {
		r.buffer[r.cursor] = t
	}
	r.cursor = (r.cursor + 1) % r.capacity

	return nil
}

// validate checks the state and action sizes of a Transition
func (r *Ring) validate(t timestep.Transition) error {
	if r.featureSize > 0 && (len(t.State) != r.featureSize ||
		len(t.NextState) != r.featureSize) {
		return fmt.Errorf("invalid feature size \n\twant(%v)\n\thave(%v, %v)",
			r.featureSize, len(t.State), len(t.NextState))
	}
	if r.actionSize > 0 && len(t.Action) != r.actionSize {
		return fmt.Errorf("invalid action size \n\twant(%v)\n\thave(%v)",
			r.actionSize, len(t.Action))
	}
	return nil
}

// Sample returns k distinct Transitions drawn uniformly at random
// without replacement. Sampling more Transitions than are stored is an
// error; the buffer never pads or samples with replacement.
func (r *Ring) Sample(k int) ([]timestep.Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buffer) == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if k > len(r.buffer) || k < 1 {
		return nil, &ExpReplayError{
			Op: "sample",
			Err: fmt.Errorf("%w: requested %v of %v", errInsufficientSamples,
				k, len(r.buffer)),
		}
	}

	indices := make([]int, k)
	sampleuv.WithoutReplacement(indices, len(r.buffer), r.src)

	batch := make([]timestep.Transition, k)
	for i, index := range indices {
		batch[i] = r.buffer[index]
	}
	return batch, nil
}

// Len returns the number of Transitions stored, which saturates at the
// capacity
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Capacity returns the maximum number of Transitions the buffer holds
func (r *Ring) Capacity() int {
	return r.capacity
}

// Cursor returns the slot the next Push writes to
func (r *Ring) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// At returns the Transition stored in slot i
func (r *Ring) At(i int) timestep.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer[i]
}

// Transitions returns the stored Transitions in insertion order, from
// oldest to newest.
func (r *Ring) Transitions() []timestep.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordered()
}

// ordered returns the buffer contents oldest first. The caller must
// hold the lock.
func (r *Ring) ordered() []timestep.Transition {
	out := make([]timestep.Transition, 0, len(r.buffer))
	if len(r.buffer) < r.capacity {
		return append(out, r.buffer...)
	}
	out = append(out, r.buffer[r.cursor:]...)
	return append(out, r.buffer[:r.cursor]...)
}

// restore replaces the buffer contents with transitions, given oldest
// first. If more Transitions than the capacity are given, only the
// newest are kept. The cursor is set to the restored length so that
// subsequent pushes resume overwriting from the oldest Transition.
func (r *Ring) restore(transitions []timestep.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(transitions) > r.capacity {
		transitions = transitions[len(transitions)-r.capacity:]
	}

	r.buffer = make([]timestep.Transition, len(transitions),
		max(len(transitions), initialSize(r.capacity)))
	copy(r.buffer, transitions)
	r.cursor = len(r.buffer) % r.capacity
}

// String returns the string representation of the Ring
func (r *Ring) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("Ring | Capacity: %v  |  Length: %v  |  Cursor: %v",
		r.capacity, len(r.buffer), r.cursor)
}
