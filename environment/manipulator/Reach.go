// Package manipulator implements a point model of a robotic
// manipulator's end effector moving in Cartesian space
package manipulator

import (
	"fmt"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/timestep"
	"github.com/samuelfneumann/naf/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Dims is the dimension of the state and action spaces
	Dims int = 3

	// MaxDisplacement is the largest distance in metres the end effector
	// moves along one axis in a single step with an action scale of 1
	MaxDisplacement float64 = 0.05
)

// Workspace bounds the end effector position along the x, y, and z
// axes, in metres
var Workspace = [Dims]r1.Interval{
	{Min: 0.2, Max: 0.8},
	{Min: -0.4, Max: 0.4},
	{Min: 0.0, Max: 0.6},
}

var actionBounds = r1.Interval{Min: -1, Max: 1}

// Reach implements an end effector reaching task. Each action in
// [-1, 1]³ is clipped, multiplied by the action scale and
// MaxDisplacement, and added to the end effector position, which is
// then clipped to the Workspace. Observations are the (Δx, Δy, Δz)
// offset of the end effector from the goal of the current episode.
//
// Reach implements the environment.Environment interface
type Reach struct {
	task        *Insertion
	actionScale float64
	discount    float64

	position r3.Vec
	lastStep timestep.TimeStep
	started  bool

	reached int // Number of episodes that ended at the goal
}

// NewReach returns a new Reach environment. Reset must be called before
// the first Step.
func NewReach(task *Insertion, actionScale, discount float64) (*Reach,
	error) {
	if actionScale <= 0 {
		return nil, fmt.Errorf("newReach: action scale must be positive, "+
			"have(%v)", actionScale)
	}
	return &Reach{
		task:        task,
		actionScale: actionScale,
		discount:    discount,
	}, nil
}

// Reset samples a new goal and end effector position and returns the
// first TimeStep of the episode
func (r *Reach) Reset() (timestep.TimeStep, error) {
	r.task.NextGoal()

	start := r.task.Start()
	if start.Len() != Dims {
		return timestep.TimeStep{}, fmt.Errorf("reset: start position "+
			"should have %v dimensions, have(%v)", Dims, start.Len())
	}
	r.position = clipWorkspace(r3.Vec{
		X: start.AtVec(0),
		Y: start.AtVec(1),
		Z: start.AtVec(2),
	})

	r.lastStep = timestep.New(timestep.First, 0, r.discount, r.offset(), 0)
	r.started = true
	return r.lastStep, nil
}

// Step moves the end effector by the displacement that action encodes
// and returns the next TimeStep along with whether the episode ended
func (r *Reach) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if !r.started {
		return timestep.TimeStep{}, false, fmt.Errorf("step: environment " +
			"must be reset before stepping")
	}
	if action.Len() != Dims {
		return timestep.TimeStep{}, false, fmt.Errorf("step: actions "+
			"should be %v-dimensional, have(%v)", Dims, action.Len())
	}

	a := mat.NewVecDense(Dims, nil)
	a.CopyVec(action)
	floatutils.ClipSlice(a.RawVector().Data, actionBounds)

	displacement := r3.Scale(r.actionScale*MaxDisplacement, r3.Vec{
		X: a.AtVec(0),
		Y: a.AtVec(1),
		Z: a.AtVec(2),
	})
	r.position = clipWorkspace(r3.Add(r.position, displacement))

	next := r.offset()
	reward := r.task.GetReward(r.lastStep.Observation, a, next)
	nextStep := timestep.New(timestep.Mid, reward, r.discount, next,
		r.lastStep.Number+1)

	r.task.End(&nextStep)
	if nextStep.Terminal() {
		r.reached++
	}

	r.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// offset returns the observation of the end effector offset from the
// goal
func (r *Reach) offset() *mat.VecDense {
	d := r3.Sub(r.position, r.task.Goal())
	return mat.NewVecDense(Dims, []float64{d.X, d.Y, d.Z})
}

// Position returns the position of the end effector
func (r *Reach) Position() r3.Vec {
	return r.position
}

// Goal returns the goal of the current episode
func (r *Reach) Goal() r3.Vec {
	return r.task.Goal()
}

// Reached returns the number of episodes that ended at the goal
func (r *Reach) Reached() int {
	return r.reached
}

// ObservationSpec returns the observation specification of the
// environment. Offsets are bounded by the extent of the Workspace.
func (r *Reach) ObservationSpec() environment.Spec {
	bounds := make([]r1.Interval, Dims)
	for i, w := range Workspace {
		extent := w.Max - w.Min
		bounds[i] = r1.Interval{Min: -extent, Max: extent}
	}
	return environment.NewBoxSpec(environment.Observation, bounds)
}

// ActionSpec returns the action specification of the environment
func (r *Reach) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action, []r1.Interval{
		actionBounds, actionBounds, actionBounds,
	})
}

// DiscountSpec returns the discount specification of the environment
func (r *Reach) DiscountSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Discount, r.discount,
		r.discount)
}

func (r *Reach) String() string {
	return fmt.Sprintf("Reach  |  Position: %v  |  Goal: %v  |  Reached: %v",
		r.position, r.task.Goal(), r.reached)
}

// clipWorkspace clips p to the Workspace
func clipWorkspace(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: floatutils.ClipInterval(p.X, Workspace[0]),
		Y: floatutils.ClipInterval(p.Y, Workspace[1]),
		Z: floatutils.ClipInterval(p.Z, Workspace[2]),
	}
}
