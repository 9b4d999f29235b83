package jobs

import (
	"context"
	"time"

	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// DefaultInterval is the pause between scheduler passes.
const DefaultInterval = 60 * time.Second

// Runner drives the worker on a fixed interval. Passes run sequentially on
// one goroutine, so a slow pass delays the next instead of overlapping it.
type Runner struct {
	worker   *Worker
	queue    interfaces.TaskQueue
	interval time.Duration
	logger   interfaces.Logger
	clock    func() time.Time
}

// RunnerOption customizes the runner.
type RunnerOption func(*Runner)

// WithRunnerInterval overrides the tick interval.
func WithRunnerInterval(interval time.Duration) RunnerOption {
	return func(r *Runner) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithRunnerLogger attaches the scheduler logger.
func WithRunnerLogger(logger interfaces.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunnerClock pins the runner clock.
func WithRunnerClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRunner constructs a scheduler runner around a worker.
func NewRunner(worker *Worker, queue interfaces.TaskQueue, opts ...RunnerOption) *Runner {
	runner := &Runner{
		worker:   worker,
		queue:    queue,
		interval: DefaultInterval,
		logger:   logging.NoOp(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Start runs an immediate pass and then ticks until the context ends.
func (r *Runner) Start(ctx context.Context) error {
	if _, err := r.Tick(ctx); err != nil {
		r.logger.Error("scheduler pass failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil {
				r.logger.Error("scheduler pass failed", "error", err)
			}
		}
	}
}

// Tick runs a single worker pass.
func (r *Runner) Tick(ctx context.Context) (*ProcessReport, error) {
	return r.worker.Process(ctx)
}

// DryRun reports the tasks a pass would claim without touching them.
func (r *Runner) DryRun(ctx context.Context) ([]*interfaces.Task, error) {
	return r.queue.ListDue(ctx, r.clock(), r.worker.batchSize)
}
