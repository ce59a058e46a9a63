package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClipSlice(t *testing.T) {
	values := []float64{-3, -0.5, 0, 0.9, 7}
	want := []float64{-1, -0.5, 0, 0.9, 1}

	ClipSlice(values, r1.Interval{Min: -1, Max: 1})
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("index %v \n\twant(%v) \n\thave(%v)", i, want[i],
				values[i])
		}
	}
}

func TestRescale(t *testing.T) {
	unit := r1.Interval{Min: -1, Max: 1}
	torque := r1.Interval{Min: -2, Max: 2}

	tests := []struct{ in, want float64 }{
		{-1, -2}, {0, 0}, {0.5, 1}, {1, 2},
	}
	for _, test := range tests {
		if have := Rescale(test.in, unit, torque); math.Abs(have-test.want) >
			1e-12 {
			t.Errorf("rescale(%v) \n\twant(%v) \n\thave(%v)", test.in,
				test.want, have)
		}
	}
}
