// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/naf/environment/manipulator"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Reach    EnvName = "reach"
	Pendulum EnvName = "pendulum"
)

// Config implements a specific configuration of a specific environment
type Config struct {
	Environment   EnvName `json:"env"`
	EpisodeCutoff int     `json:"num_steps"`
	Discount      float64 `json:"discount"`
	ActionScale   float64 `json:"action_scale"`
}

// Validate returns an error if the Config cannot create an environment
func (c Config) Validate() error {
	switch c.Environment {
	case Reach, Pendulum:
	default:
		return fmt.Errorf("validate: no such environment %q", c.Environment)
	}

	if c.EpisodeCutoff < 1 {
		return fmt.Errorf("validate: episode cutoff must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.EpisodeCutoff)
	}
	if c.Environment == Reach && c.ActionScale <= 0 {
		return fmt.Errorf("validate: action scale must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.ActionScale)
	}
	return nil
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (environment.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	switch c.Environment {
	case Pendulum:
		return CreatePendulum(c.EpisodeCutoff, seed, c.Discount), nil
	default:
		reach, err := CreateReach(c.EpisodeCutoff, seed, c.Discount,
			c.ActionScale)
		if err != nil {
			return nil, fmt.Errorf("create: %v", err)
		}
		return reach, nil
	}
}

// CreatePendulum is a factory for creating the Pendulum environment
// with the SwingUp task and default physical parameters.
func CreatePendulum(cutoff int, seed uint64,
	discount float64) *pendulum.Continuous {
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := environment.NewUniformStarter([]r1.Interval{angle, speed}, seed)
	task := pendulum.NewSwingUp(s, cutoff)

	return pendulum.NewContinuous(task, discount)
}

// CreateReach is a factory for creating the Reach environment with the
// Insertion task over the default insertion holes. The end effector
// starts above the fixture.
func CreateReach(cutoff int, seed uint64, discount,
	actionScale float64) (*manipulator.Reach, error) {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: 0.3, Max: 0.7},
		{Min: -0.3, Max: 0.3},
		{Min: 0.3, Max: 0.5},
	}, seed)

	task, err := manipulator.NewInsertion(s, manipulator.DefaultHoles, cutoff,
		seed+1)
	if err != nil {
		return nil, fmt.Errorf("createReach: %v", err)
	}

	return manipulator.NewReach(task, actionScale, discount)
}
