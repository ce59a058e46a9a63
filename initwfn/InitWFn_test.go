package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

func TestFanInUBounds(t *testing.T) {
	init, err := NewFanInU(1.0)
	if err != nil {
		t.Fatal(err)
	}

	weights := init.InitWFn(rand.NewSource(1))(tensor.Float64, 16, 4).([]float64)
	if len(weights) != 64 {
		t.Fatalf("number of weights \n\twant(64) \n\thave(%v)", len(weights))
	}

	bound := 1 / math.Sqrt(16)
	for _, w := range weights {
		if w < -bound || w > bound {
			t.Errorf("weight %v outside of [-%v, %v]", w, bound, bound)
		}
	}
}

func TestInitWFnSeeded(t *testing.T) {
	init, _ := NewGlorotU(1.0)
	a := init.InitWFn(rand.NewSource(3))(tensor.Float64, 3, 3).([]float64)
	b := init.InitWFn(rand.NewSource(3))(tensor.Float64, 3, 3).([]float64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different weights: %v, %v", a, b)
		}
	}
}

func TestInitWFnJSON(t *testing.T) {
	var init InitWFn
	data := []byte(`{"Type": "FanInU", "Config": {"Gain": 0.5}}`)
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatal(err)
	}

	if init.Type != FanInU {
		t.Errorf("type \n\twant(%v) \n\thave(%v)", FanInU, init.Type)
	}
	if gain := init.Config.(FanInUConfig).Gain; gain != 0.5 {
		t.Errorf("gain \n\twant(0.5) \n\thave(%v)", gain)
	}

	if err := json.Unmarshal([]byte(`{"Type": "Zeroes"}`), &init); err != nil {
		t.Errorf("configuration-free initializer: %v", err)
	}
}

func TestInitializers(t *testing.T) {
	uniform, _ := NewUniform(-0.5, 0.25)
	glorotN, _ := NewGlorotN(1.0)
	he, _ := NewHeU(1.0)
	zeroes, _ := NewZeroes()
	gaussian, _ := NewGaussian(0, 0.1)
	constant, _ := NewConstant(0.3)

	tests := []struct {
		name     string
		init     *InitWFn
		min, max float64
	}{
		{"uniform", uniform, -0.5, 0.25},
		{"glorot normal", glorotN, math.Inf(-1), math.Inf(1)},
		{"he uniform", he, -math.Sqrt(3.0 / 8), math.Sqrt(3.0 / 8)},
		{"zeroes", zeroes, 0, 0},
		{"gaussian", gaussian, math.Inf(-1), math.Inf(1)},
		{"constant", constant, 0.3, 0.3},
	}

	for _, test := range tests {
		weights := test.init.InitWFn(rand.NewSource(1))(tensor.Float64, 8,
			4).([]float64)
		if len(weights) != 32 {
			t.Fatalf("%v: weights \n\twant(32) \n\thave(%v)", test.name,
				len(weights))
		}
		for _, w := range weights {
			if math.IsNaN(w) || w < test.min || w > test.max {
				t.Errorf("%v: weight \n\twant(%v <= w <= %v) \n\thave(%v)",
					test.name, test.min, test.max, w)
				break
			}
		}
	}
}

func TestGaussianInitWFnJSON(t *testing.T) {
	var init InitWFn
	data := []byte(`{"Type": "Gaussian", "Config": {"Mean": 1, "StdDev": 0.01}}`)
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatal(err)
	}

	weights := init.InitWFn(rand.NewSource(2))(tensor.Float64, 10,
		10).([]float64)
	var mean float64
	for _, w := range weights {
		mean += w / float64(len(weights))
	}
	if math.Abs(mean-1) > 0.01 {
		t.Errorf("mean weight \n\twant(%v) \n\thave(%v)", 1, mean)
	}
}
