package queue

import (
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Registrar is satisfied by *asynq.Scheduler.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterSweep enqueues a sweep task on every tick of spec. The task is
// unique for uniqueFor so replicas sharing a Redis never queue the same tick
// twice.
func RegisterSweep(r Registrar, spec string, uniqueFor time.Duration) (string, error) {
	opts := []asynq.Option{asynq.MaxRetry(0)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}

	entryID, err := r.Register(spec, asynq.NewTask(TaskTypeSweepDuePosts, nil), opts...)
	if err != nil {
		slog.Error("registering sweep task failed", "spec", spec, "error", err)
		return "", err
	}

	slog.Info("sweep task registered", "spec", spec, "entry_id", entryID)
	return entryID, nil
}
