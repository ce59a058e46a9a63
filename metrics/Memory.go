package metrics

import (
	"sort"
	"sync"
)

// Memory is a Sink that keeps every event in memory
type Memory struct {
	mu     sync.Mutex
	series map[string][]Point
}

// NewMemory returns a new, empty Memory Sink
func NewMemory() *Memory {
	return &Memory{series: make(map[string][]Point)}
}

// Scalar records an event
func (m *Memory) Scalar(tag string, step int, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[tag] = append(m.series[tag], Point{Step: step, Value: value})
	return nil
}

// Close implements the Sink interface
func (m *Memory) Close() error {
	return nil
}

// Series returns a copy of the events recorded with a tag, in the order
// they were recorded
func (m *Memory) Series(tag string) []Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Point(nil), m.series[tag]...)
}

// Last returns the last event recorded with a tag
func (m *Memory) Last(tag string) (Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.series[tag]
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Tags returns the sorted tags of all recorded events
func (m *Memory) Tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tags := make([]string, 0, len(m.series))
	for tag := range m.series {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
