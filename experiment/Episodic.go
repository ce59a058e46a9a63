package experiment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/naf/agent"
	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/experiment/checkpointer"
	"github.com/samuelfneumann/naf/experiment/tracker"
	"github.com/samuelfneumann/naf/metrics"
	ts "github.com/samuelfneumann/naf/timestep"
)

// Episodic is an Experiment that alternates between collecting an
// episode of experience with an exploring agent and updating the agent
// on its stored experience. Every few episodes, the agent is evaluated
// greedily on a separate episode.
type Episodic struct {
	env    environment.Environment
	agent  agent.Agent
	config Config
	sink   metrics.Sink
	logger zerolog.Logger

	returns     *tracker.Return
	lengths     *tracker.EpisodeLength
	testReturns *tracker.Return

	checkpointers []checkpointer.Checkpointer
	episodes      int // Number of finished training episodes
}

// NewEpisodic creates and returns a new episodic experiment in which a
// runs in env. Metrics are written to sink, which may be nil, and
// progress is logged to logger.
//
// Saving, loading, and checkpointing require a to implement
// agent.Persister.
func NewEpisodic(env environment.Environment, a agent.Agent, c Config,
	sink metrics.Sink, logger zerolog.Logger) (*Episodic, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newEpisodic: %v", err)
	}
	if sink == nil {
		sink = metrics.Discard
	}

	e := &Episodic{
		env:         env,
		agent:       a,
		config:      c,
		sink:        sink,
		logger:      logger,
		returns:     tracker.NewReturn(),
		lengths:     tracker.NewEpisodeLength(),
		testReturns: tracker.NewReturn(),
	}

	persists := c.SaveAgent || c.LoadAgent || c.LoadExp ||
		c.CheckpointInterval > 0
	p, ok := a.(agent.Persister)
	if persists && !ok {
		return nil, fmt.Errorf("newEpisodic: agent %T cannot be saved or "+
			"loaded", a)
	}

	if c.CheckpointInterval > 0 {
		model, err := checkpointer.NewNEpisode(c.CheckpointInterval,
			checkpointer.SaverFunc(saveTo(p.SaveModel)),
			checkpointer.Fixed(c.ModelPath))
		if err != nil {
			return nil, fmt.Errorf("newEpisodic: %v", err)
		}
		exp, err := checkpointer.NewNEpisode(c.CheckpointInterval,
			checkpointer.SaverFunc(saveTo(p.SaveExperience)),
			checkpointer.Fixed(c.ExpPath))
		if err != nil {
			return nil, fmt.Errorf("newEpisodic: %v", err)
		}
		e.checkpointers = append(e.checkpointers, model, exp)
	}

	return e, nil
}

// saveTo wraps a save function so that the directory of the file is
// created before saving
func saveTo(save func(string) error) func(string) error {
	return func(path string) error {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		return save(path)
	}
}

// Load restores the agent's model and experience if the experiment is
// configured to. A missing file is an error only if its loading was
// requested.
func (e *Episodic) Load() error {
	p, ok := e.agent.(agent.Persister)
	if !ok {
		return nil
	}

	if e.config.LoadAgent {
		if err := p.LoadModel(e.config.ModelPath); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		e.logger.Info().Str("path", e.config.ModelPath).Msg("loaded model")
	}
	if e.config.LoadExp {
		if err := p.LoadExperience(e.config.ExpPath); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		e.logger.Info().Str("path", e.config.ExpPath).Msg("loaded experience")
	}
	return nil
}

// Run loads the agent if requested and then runs episodes 0 through
// NumEpisodes inclusive. If ctx is cancelled, Run stops at the next
// step and returns without error after shutting down. The agent is
// saved on exit if the experiment is configured to.
func (e *Episodic) Run(ctx context.Context) (err error) {
	if err := e.Load(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	start := time.Now()
	defer func() {
		e.summarize(time.Since(start))
		if shutdownErr := e.Shutdown(); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
	}()

	for episode := 0; episode <= e.config.NumEpisodes; episode++ {
		if ctx.Err() != nil {
			e.logger.Warn().Int("episode", episode).Msg("interrupted")
			return nil
		}

		if _, err := e.RunEpisode(ctx, episode); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				e.logger.Warn().Int("episode", episode).Msg("interrupted")
				return nil
			}
			return fmt.Errorf("run: %w", err)
		}
	}
	return nil
}

// RunEpisode runs a single training episode, then updates the agent
// and runs any evaluations and checkpoints that are due. The return of
// the training episode is returned.
func (e *Episodic) RunEpisode(ctx context.Context, episode int) (float64,
	error) {
	if explorer, ok := e.agent.(agent.Explorer); ok {
		scale := explorer.BeginEpisode(episode)
		if err := e.sink.Scalar(metrics.NoiseScale, episode, scale); err != nil {
			return 0, fmt.Errorf("runEpisode: %w", err)
		}
	}

	// Without training, experience is still collected but the agent
	// acts greedily
	if e.config.TrainModel {
		e.agent.Train()
	} else {
		e.agent.Eval()
	}
	episodeReturn, steps, err := e.rollout(ctx, true, func(t ts.TimeStep) {
		e.returns.Track(t)
		e.lengths.Track(t)
	})
	if err != nil {
		return 0, fmt.Errorf("runEpisode: %w", err)
	}
	e.episodes++

	if err := e.sink.Scalar(metrics.RewardTrain, episode,
		episodeReturn); err != nil {
		return 0, fmt.Errorf("runEpisode: %w", err)
	}

	updates, err := e.update()
	if err != nil {
		return 0, fmt.Errorf("runEpisode: %w", err)
	}

	e.logger.Info().
		Int("episode", episode).
		Int("steps", steps).
		Int("updates", updates).
		Float64("reward", episodeReturn).
		Msg("episode finished")

	if e.config.EvalInterval > 0 && episode%e.config.EvalInterval == 0 {
		testReturn, err := e.Evaluate(ctx)
		if err != nil {
			return 0, fmt.Errorf("runEpisode: %w", err)
		}
		if err := e.sink.Scalar(metrics.RewardTest, episode,
			testReturn); err != nil {
			return 0, fmt.Errorf("runEpisode: %w", err)
		}
		e.logger.Info().
			Int("episode", episode).
			Float64("reward", testReturn).
			Msg("evaluation finished")
	}

	for _, c := range e.checkpointers {
		if err := c.Checkpoint(episode); err != nil {
			return 0, fmt.Errorf("runEpisode: %w", err)
		}
	}

	return episodeReturn, nil
}

// update performs UpdatesPerStep updates if training is enabled and the
// agent is ready to update. The number of updates is returned.
func (e *Episodic) update() (int, error) {
	if !e.config.TrainModel {
		return 0, nil
	}
	if trainer, ok := e.agent.(agent.Trainer); ok && !trainer.Ready() {
		return 0, nil
	}

	for i := 0; i < e.config.UpdatesPerStep; i++ {
		if err := e.agent.Step(); err != nil {
			return i, err
		}
	}
	return e.config.UpdatesPerStep, nil
}

// Evaluate runs a single greedy episode and returns its return. The
// experience of the episode is not stored.
func (e *Episodic) Evaluate(ctx context.Context) (float64, error) {
	e.agent.Eval()
	defer e.agent.Train()

	testReturn, _, err := e.rollout(ctx, false, e.testReturns.Track)
	if err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	return testReturn, nil
}

// rollout runs an episode of at most NumSteps steps, passing each
// timestep to track. If observe is true, the agent observes the episode.
// The undiscounted return and the number of steps taken are returned.
func (e *Episodic) rollout(ctx context.Context, observe bool,
	track func(ts.TimeStep)) (float64, int, error) {
	step, err := e.env.Reset()
	if err != nil {
		return 0, 0, err
	}
	track(step)
	if observe {
		if err := e.agent.ObserveFirst(step); err != nil {
			return 0, 0, err
		}
		defer e.agent.EndEpisode()
	}

	var episodeReturn float64
	steps := 0
	for !step.Last() && steps < e.config.NumSteps {
		if err := ctx.Err(); err != nil {
			return episodeReturn, steps, err
		}

		action, err := e.agent.SelectAction(step)
		if err != nil {
			return episodeReturn, steps, err
		}
		step, _, err = e.env.Step(action)
		if err != nil {
			return episodeReturn, steps, err
		}
		steps++
		episodeReturn += step.Reward
		track(step)

		if observe {
			if err := e.agent.Observe(action, step); err != nil {
				return episodeReturn, steps, err
			}
		}
	}
	return episodeReturn, steps, nil
}

// Shutdown saves the agent if the experiment is configured to, and
// saves the tracked training returns if a returns path is set
func (e *Episodic) Shutdown() error {
	var errs []error

	if p, ok := e.agent.(agent.Persister); ok && e.config.SaveAgent {
		if err := saveTo(p.SaveModel)(e.config.ModelPath); err != nil {
			errs = append(errs, err)
		} else {
			e.logger.Info().Str("path", e.config.ModelPath).Msg("saved model")
		}
		if err := saveTo(p.SaveExperience)(e.config.ExpPath); err != nil {
			errs = append(errs, err)
		} else {
			e.logger.Info().Str("path", e.config.ExpPath).
				Msg("saved experience")
		}
	}

	if e.config.ReturnsPath != "" {
		if err := saveTo(e.returns.Save)(e.config.ReturnsPath); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %w", errors.Join(errs...))
	}
	return nil
}

// summarize logs the elapsed time and the statistics of the training
// returns
func (e *Episodic) summarize(elapsed time.Duration) {
	var perEpisode time.Duration
	if e.episodes > 0 {
		perEpisode = elapsed / time.Duration(e.episodes)
	}
	mean, max, min := e.returns.Summary()

	e.logger.Info().
		Int("episodes", e.episodes).
		Dur("elapsed", elapsed).
		Dur("per_episode", perEpisode).
		Float64("mean_reward", mean).
		Float64("max_reward", max).
		Float64("min_reward", min).
		Msg("experiment finished")
}

// Returns returns the returns of all finished training episodes
func (e *Episodic) Returns() []float64 {
	return e.returns.Returns()
}

// TestReturns returns the returns of all evaluation episodes
func (e *Episodic) TestReturns() []float64 {
	return e.testReturns.Returns()
}

// EpisodeLengths returns the lengths of all finished training episodes
func (e *Episodic) EpisodeLengths() []int {
	return e.lengths.Lengths()
}
