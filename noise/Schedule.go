package noise

import (
	"fmt"
	"math"
)

// Schedule linearly anneals the noise scale over episodes, from Initial
// at episode 0 to Final at episode End, after which it stays at Final.
type Schedule struct {
	Initial float64
	Final   float64
	End     int
}

// NewSchedule returns a new Schedule
func NewSchedule(initial, final float64, end int) (Schedule, error) {
	s := Schedule{Initial: initial, Final: final, End: end}
	if err := s.Validate(); err != nil {
		return Schedule{}, fmt.Errorf("newSchedule: %v", err)
	}
	return s, nil
}

// Validate returns an error if the Schedule is invalid
func (s Schedule) Validate() error {
	if s.End < 1 {
		return fmt.Errorf("validate: end episode must be positive "+
			"\n\twant(>0) \n\thave(%v)", s.End)
	}
	if s.Initial < 0 || s.Final < 0 {
		return fmt.Errorf("validate: scales must be non-negative "+
			"\n\thave(%v, %v)", s.Initial, s.Final)
	}
	return nil
}

// Scale returns the noise scale to use for the given episode
func (s Schedule) Scale(episode int) float64 {
	remaining := math.Max(0, float64(s.End-episode))
	return (s.Initial-s.Final)*remaining/float64(s.End) + s.Final
}
