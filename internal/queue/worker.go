package queue

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// HandleSweepTask runs one sweep. Per-entry failures stay in the summary; the
// task only fails when the due list could not be read, and the next tick
// retries it.
func (j *Queue) HandleSweepTask(ctx context.Context, task *asynq.Task) error {
	summary, err := j.sweeper.Run(ctx)
	if err != nil {
		return err
	}

	slog.Debug("sweep task done", "type", task.Type(), "processed", summary.Processed, "failed", len(summary.Failed))
	return nil
}

func (j *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSweepDuePosts, j.HandleSweepTask)
	return mux
}
