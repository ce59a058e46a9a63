package envconfig

import (
	"encoding/json"
	"testing"
)

func TestCreate(t *testing.T) {
	for _, name := range []EnvName{Reach, Pendulum} {
		c := Config{
			Environment:   name,
			EpisodeCutoff: 100,
			Discount:      0.99,
			ActionScale:   1.0,
		}

		env, err := c.Create(4)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		first, err := env.Reset()
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		if !env.ObservationSpec().Contains(first.Observation) {
			t.Errorf("%v: first observation %v outside the observation spec",
				name, first.Observation.RawVector().Data)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"unknown env", Config{Environment: "cartpole", EpisodeCutoff: 1}},
		{"no cutoff", Config{Environment: Pendulum}},
		{"no scale", Config{Environment: Reach, EpisodeCutoff: 1}},
	}

	for _, test := range tests {
		if err := test.config.Validate(); err == nil {
			t.Errorf("%v: expected an error", test.name)
		}
	}
}

func TestUnmarshal(t *testing.T) {
	data := []byte(`{"env": "reach", "num_steps": 50, "discount": 0.9,
		"action_scale": 0.5}`)

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	want := Config{Reach, 50, 0.9, 0.5}
	if c != want {
		t.Errorf("unmarshal \n\twant(%v) \n\thave(%v)", want, c)
	}
}
