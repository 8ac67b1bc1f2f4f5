package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/httpsdash/internal/model"
)

// Step is one stage of site processing. Steps run in sequence, each seeing
// what the earlier steps stored in the run.
type Step interface {
	// Do executes the step. A returned error stops the site.
	Do(ctx context.Context, run *model.SiteRun) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes its steps in order for one site.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used during execution.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps against run. Cancellation is checked before each
// step. The first failing step stops the site; its error is stored in
// run.Err and returned. Failures are left to the caller to log.
func (p *Pipeline) Execute(ctx context.Context, run *model.SiteRun) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"site", run.Paths.Name,
				"reason", err,
			)
			run.Err = err
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"site", run.Paths.Name,
		)

		if err := step.Do(ctx, run); err != nil {
			run.Err = err
			return err
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of the steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
