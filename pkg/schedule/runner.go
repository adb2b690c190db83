package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Job is the unit of scheduled work. Errors are logged, never fatal: the
// next trigger retries the whole job.
type Job func(ctx context.Context) error

// Runner invokes a Job on a Schedule. It owns no persistence; jobs that must
// be idempotent across restarts (like the billing reconciler) get that from
// their own selection predicates, not from the runner.
type Runner struct {
	name        string
	job         Job
	schedule    Schedule
	interval    time.Duration
	maxDuration time.Duration
	logger      *slog.Logger

	nextRun time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCheckInterval sets how often the runner polls for the next due time.
func WithCheckInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxDuration sets the duration after which a run logs a timeout
// warning. In-flight work is not killed: per-item statements are
// independent and safe to let finish.
func WithMaxDuration(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.maxDuration = d
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner for the named job.
func NewRunner(name string, s Schedule, job Job, opts ...RunnerOption) *Runner {
	if s == nil {
		panic("schedule: Schedule is required")
	}
	if job == nil {
		panic("schedule: Job is required")
	}

	r := &Runner{
		name:        name,
		job:         job,
		schedule:    s,
		interval:    30 * time.Second,
		maxDuration: 10 * time.Minute,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start blocks until ctx is done, firing the job whenever its schedule is
// due. A run that overlaps the next due time simply delays it; runs never
// overlap each other.
func (r *Runner) Start(ctx context.Context) error {
	r.nextRun = r.schedule.Next(time.Now())
	r.logger.Info("scheduled job registered",
		slog.String("job", r.name),
		slog.String("schedule", r.schedule.String()),
		slog.Time("next_run", r.nextRun))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler shutting down", slog.String("job", r.name))
			return ctx.Err()
		case now := <-ticker.C:
			if now.Before(r.nextRun) {
				continue
			}
			r.fire(ctx)
			r.nextRun = r.schedule.Next(time.Now())
		}
	}
}

// Trigger runs the job immediately, outside its schedule. Used by the
// administrative recovery endpoint.
func (r *Runner) Trigger(ctx context.Context) error {
	return r.job(ctx)
}

func (r *Runner) fire(ctx context.Context) {
	started := time.Now()
	err := r.job(ctx)
	elapsed := time.Since(started)

	switch {
	case err != nil:
		r.logger.Error("scheduled job failed",
			slog.String("job", r.name),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
	case elapsed > r.maxDuration:
		r.logger.Warn("scheduled job exceeded max duration",
			slog.String("job", r.name),
			slog.Duration("elapsed", elapsed),
			slog.Duration("max", r.maxDuration))
	default:
		r.logger.Info("scheduled job completed",
			slog.String("job", r.name),
			slog.Duration("elapsed", elapsed))
	}
}
