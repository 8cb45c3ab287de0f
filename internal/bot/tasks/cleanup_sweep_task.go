package tasks

import "context"

// newCleanupSweepTask returns the daily job. It only queues a sweep; the
// sweep itself runs on the SweepRunner goroutine.
func newCleanupSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "cleanup_sweep")

	return func(ctx context.Context) error {
		if deps.Sweeps.Request() {
			log.InfoContext(ctx, "Cleanup sweep queued")
		} else {
			log.InfoContext(ctx, "Cleanup sweep already queued, request coalesced")
		}
		return nil
	}
}
