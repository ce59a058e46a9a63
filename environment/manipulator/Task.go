package manipulator

import (
	"fmt"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default task parameters
const (
	DefaultTolerance   float64 = 0.01 // Goal radius in metres
	DefaultControlCost float64 = 0.01
	DefaultGoalBonus   float64 = 10.0
)

// DefaultHoles are the positions of the insertion holes on the fixture,
// one of which is chosen uniformly as the goal of each episode
var DefaultHoles = []r3.Vec{
	{X: 0.5, Y: 0.0, Z: 0.1},
	{X: 0.45, Y: 0.15, Z: 0.1},
	{X: 0.55, Y: -0.15, Z: 0.1},
}

// Insertion implements the task of bringing the end effector into one
// of a set of insertion holes. States are the offset of the end
// effector from the goal. The reward for entering state s' with action
// a is
//
//	r = -‖s'‖ - c‖a‖² + bonus·[‖s'‖ < tolerance]
//
// Episodes end in a terminal state once the end effector is within the
// tolerance of the goal and are truncated at the step limit otherwise.
type Insertion struct {
	environment.Starter // Absolute start positions of the end effector
	ender               environment.Enders

	holes *environment.ChoiceStarter
	goal  r3.Vec

	tolerance   float64
	controlCost float64
	goalBonus   float64
}

// NewInsertion returns a new Insertion task with the default tolerance,
// control cost, and goal bonus. Start positions are sampled from start
// and goals uniformly from goals.
func NewInsertion(start environment.Starter, goals []r3.Vec, maxSteps int,
	seed uint64) (*Insertion, error) {
	if maxSteps < 1 {
		return nil, fmt.Errorf("newInsertion: step limit must be positive, "+
			"have(%v)", maxSteps)
	}

	options := make([]mat.Vector, len(goals))
	for i, g := range goals {
		options[i] = mat.NewVecDense(Dims, []float64{g.X, g.Y, g.Z})
	}
	holes, err := environment.NewChoiceStarter(options, nil, seed)
	if err != nil {
		return nil, fmt.Errorf("newInsertion: %v", err)
	}

	t := &Insertion{
		Starter:     start,
		holes:       holes,
		goal:        goals[0],
		tolerance:   DefaultTolerance,
		controlCost: DefaultControlCost,
		goalBonus:   DefaultGoalBonus,
	}

	t.ender = environment.Enders{
		environment.NewCondition(t.AtGoal, timestep.TerminalStateReached),
		environment.NewStepLimit(maxSteps),
	}
	return t, nil
}

// NextGoal samples and returns the goal of the next episode
func (t *Insertion) NextGoal() r3.Vec {
	g := t.holes.Start()
	t.goal = r3.Vec{X: g.AtVec(0), Y: g.AtVec(1), Z: g.AtVec(2)}
	return t.goal
}

// Goal returns the current goal
func (t *Insertion) Goal() r3.Vec {
	return t.goal
}

// End implements the environment.Ender interface
func (t *Insertion) End(step *timestep.TimeStep) bool {
	return t.ender.End(step)
}

// GetReward returns the reward for taking action and transitioning
// into the offset next
func (t *Insertion) GetReward(_, action, next mat.Vector) float64 {
	reward := -mat.Norm(next, 2) - t.controlCost*mat.Dot(action, action)
	if t.AtGoal(next) {
		reward += t.goalBonus
	}
	return reward
}

// AtGoal returns whether the offset state lies within the goal
// tolerance
func (t *Insertion) AtGoal(state mat.Vector) bool {
	return mat.Norm(state, 2) < t.tolerance
}

// RewardSpec returns the reward specification of the Task
func (t *Insertion) RewardSpec() environment.Spec {
	diagonal := r3.Vec{
		X: Workspace[0].Max - Workspace[0].Min,
		Y: Workspace[1].Max - Workspace[1].Min,
		Z: Workspace[2].Max - Workspace[2].Min,
	}
	min := -r3.Norm(diagonal) - t.controlCost*float64(Dims)
	return environment.NewScalarSpec(environment.Reward, min, t.goalBonus)
}
