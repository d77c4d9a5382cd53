package queue

import (
	"context"

	job "github.com/maheshrc27/postcraft/internal/jobs"
)

const TaskTypeSweepDuePosts = "sweep:due-posts"

// Sweeper runs one pass over the due schedules.
type Sweeper interface {
	Run(ctx context.Context) (*job.SweepSummary, error)
}

type Queue struct {
	sweeper Sweeper
}

func NewQueue(sweeper Sweeper) *Queue {
	return &Queue{sweeper: sweeper}
}
