package cmd

import (
	"fmt"

	"github.com/samuelfneumann/naf/agent/naf"
	"github.com/samuelfneumann/naf/experiment"
	"github.com/samuelfneumann/naf/metrics"
	"github.com/samuelfneumann/naf/network"
	"github.com/spf13/cobra"
)

// InspectCommand returns the command that loads a saved model, follows
// its greedy policy for one episode, and scores the path taken
func InspectCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Score the greedy path of a saved model",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return inspect(c, out)
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "",
		"Plot the values along the path to this image file")
	return cmd
}

// path is a sequence of states and the actions taken in them, stored in
// row major order
type path struct {
	states  []float64
	actions []float64
	rewards []float64
}

// inspect scores the greedy path of the model saved at c.ModelPath
func inspect(c experiment.Config, out string) error {
	logger, _ := newLogger()

	env, err := c.CreateEnv()
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	a, err := naf.New(env, c.Config, c.Seed, nil)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if err := a.LoadModel(c.ModelPath); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	a.Eval()

	var p path
	step, err := env.Reset()
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	for !step.Last() {
		action, err := a.SelectAction(step)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		p.states = append(p.states, step.Observation.RawVector().Data...)
		p.actions = append(p.actions, action.RawVector().Data...)

		if step, _, err = env.Step(action); err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		p.rewards = append(p.rewards, step.Reward)
	}

	if len(p.rewards) == 0 {
		return fmt.Errorf("inspect: episode ended before any action")
	}
	score, err := a.Model().Forward(network.Inference, p.states, p.actions)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	var ret float64
	m := a.Model().Actions()
	v := make([]metrics.Point, len(p.rewards))
	q := make([]metrics.Point, len(p.rewards))
	for i, r := range p.rewards {
		ret += r
		v[i] = metrics.Point{Step: i, Value: score.V[i]}
		q[i] = metrics.Point{Step: i, Value: score.Q[i]}

		logger.Debug().
			Int("step", i).
			Floats64("action", p.actions[i*m:(i+1)*m]).
			Float64("reward", r).
			Float64("v", score.V[i]).
			Float64("q", score.Q[i]).
			Msg("path")
	}
	logger.Info().
		Str("model", c.ModelPath).
		Int("steps", len(p.rewards)).
		Float64("return", ret).
		Float64("v0", score.V[0]).
		Msg("inspected greedy path")

	if out == "" {
		return nil
	}
	if err := metrics.Plot(out, "Greedy path", "Step", "Value",
		metrics.Series{Name: "V(s)", Points: v},
		metrics.Series{Name: "Q(s, a)", Points: q},
	); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	logger.Info().Str("path", out).Msg("saved path plot")
	return nil
}
