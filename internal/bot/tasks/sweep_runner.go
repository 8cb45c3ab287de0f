package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// SweepExecutor runs a single sweep.
type SweepExecutor interface {
	Run(ctx context.Context) (SweepResult, error)
}

// SweepRunner serializes sweep requests. At most one request waits while a
// sweep runs; further requests are folded into it.
type SweepRunner struct {
	sweeper  SweepExecutor
	requests chan struct{}
	logger   *slog.Logger
}

// NewSweepRunner creates a runner for sweeper.
func NewSweepRunner(sweeper SweepExecutor, logger *slog.Logger) *SweepRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SweepRunner{
		sweeper:  sweeper,
		requests: make(chan struct{}, 1),
		logger:   logger.With("component", "sweep_runner"),
	}
}

// Request queues a sweep. It reports false when a request was already pending.
func (r *SweepRunner) Request() bool {
	select {
	case r.requests <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run executes queued sweeps one at a time until ctx is cancelled.
// Sweep failures are logged; they never stop the runner.
func (r *SweepRunner) Run(ctx context.Context) error {
	r.logger.Info("Sweep runner started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Sweep runner stopped")
			return nil
		case <-r.requests:
			res, err := r.sweeper.Run(ctx)
			switch {
			case errors.Is(err, ErrSweepInProgress):
				r.logger.Warn("Sweep skipped, another sweep is running")
			case err != nil:
				r.logger.Error("Cleanup sweep finished with errors", "error", err, "deleted", res.Deleted)
			}
		}
	}
}
