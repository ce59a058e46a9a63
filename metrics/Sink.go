// Package metrics implements write-only sinks for named scalar events
// emitted during training, and tools to read the events back and plot
// them.
package metrics

import (
	"errors"
	"fmt"
)

// Scalar event tags emitted during training
const (
	LossValue   = "loss/value"
	RewardTrain = "reward/train"
	RewardTest  = "reward/test"
	NoiseScale  = "noise/scale"
)

// Sink records named scalar events. Each event is tagged with a step
// counter that increases monotonically per tag.
type Sink interface {
	Scalar(tag string, step int, value float64) error
	Close() error
}

// Point is a single recorded scalar event
type Point struct {
	Step  int
	Value float64
}

// discard is a Sink that drops every event
type discard struct{}

// Discard is a Sink that drops every event
var Discard Sink = discard{}

func (discard) Scalar(string, int, float64) error { return nil }

func (discard) Close() error { return nil }

// Multi is a Sink that records each event in several Sinks
type Multi []Sink

// NewMulti returns a Sink that records events in each of sinks
func NewMulti(sinks ...Sink) Multi {
	return Multi(sinks)
}

// Scalar records the event in each Sink, returning the joined errors
func (m Multi) Scalar(tag string, step int, value float64) error {
	var errs []error
	for _, s := range m {
		if err := s.Scalar(tag, step, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scalar: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes each Sink, returning the joined errors
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
