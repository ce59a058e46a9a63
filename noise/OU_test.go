package noise

import (
	"math"
	"testing"
)

func TestOUReset(t *testing.T) {
	ou := NewOU(3, 0.15, 0.2, 11)
	for i := 0; i < 50; i++ {
		ou.Sample()
	}

	nonzero := false
	for i := 0; i < ou.Dim(); i++ {
		if ou.State().AtVec(i) != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatal("process state should be nonzero after sampling")
	}

	ou.Reset()
	for i := 0; i < ou.Dim(); i++ {
		if v := ou.State().AtVec(i); v != 0 {
			t.Errorf("state after reset at %v \n\twant(0) \n\thave(%v)", i, v)
		}
	}
}

func TestOUZeroScaleDecays(t *testing.T) {
	ou := NewOU(1, 0.5, 0.2, 1)
	ou.Sample()
	start := math.Abs(ou.State().AtVec(0))

	// With no random component the process reverts geometrically
	ou.SetScale(0)
	next := ou.Sample().AtVec(0)
	if want := start * 0.5; math.Abs(math.Abs(next)-want) > 1e-12 {
		t.Errorf("mean reversion \n\twant(%v) \n\thave(%v)", want,
			math.Abs(next))
	}
}

func TestOUSeeded(t *testing.T) {
	a := NewOU(2, 0.15, 0.2, 3)
	b := NewOU(2, 0.15, 0.2, 3)
	for i := 0; i < 10; i++ {
		x, y := a.Sample(), b.Sample()
		for j := 0; j < 2; j++ {
			if x.AtVec(j) != y.AtVec(j) {
				t.Fatalf("same seed produced different noise at step %v", i)
			}
		}
	}
}

func TestScheduleEndpoints(t *testing.T) {
	s, err := NewSchedule(0.5, 0.2, 100)
	if err != nil {
		t.Fatal(err)
	}

	if have := s.Scale(0); have != 0.5 {
		t.Errorf("scale at episode 0 \n\twant(0.5) \n\thave(%v)", have)
	}
	for _, ep := range []int{100, 101, 1000} {
		if have := s.Scale(ep); have != 0.2 {
			t.Errorf("scale at episode %v \n\twant(0.2) \n\thave(%v)", ep, have)
		}
	}
	if have := s.Scale(50); math.Abs(have-0.35) > 1e-12 {
		t.Errorf("scale at episode 50 \n\twant(0.35) \n\thave(%v)", have)
	}

	prev := s.Scale(0)
	for ep := 1; ep <= 120; ep++ {
		cur := s.Scale(ep)
		if cur > prev {
			t.Errorf("schedule increased at episode %v: %v -> %v", ep, prev, cur)
		}
		prev = cur
	}
}

func TestScheduleValidate(t *testing.T) {
	if _, err := NewSchedule(0.5, 0.2, 0); err == nil {
		t.Error("schedule with end 0 should be rejected")
	}
	if _, err := NewSchedule(-1, 0.2, 10); err == nil {
		t.Error("schedule with negative scale should be rejected")
	}
}
