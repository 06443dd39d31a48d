package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"notebooklm-backend/internal/database"
	"notebooklm-backend/internal/models"
)

// Queue records jobs and pushes them onto their Redis list.
type Queue struct {
	redis broker
	jobs  jobStore
}

func NewQueue(redisClient broker, jobs jobStore) *Queue {
	return &Queue{redis: redisClient, jobs: jobs}
}

// Submit persists job as pending and enqueues it. A job whose push fails is
// marked failed.
func (q *Queue) Submit(ctx context.Context, job *models.Job) error {
	if err := q.jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.redis.LPush(ctx, database.QueueKey(job.Type), string(jobBytes)).Err(); err != nil {
		zap.L().Error("failed to enqueue job",
			zap.String("job_id", job.ID.String()),
			zap.String("type", job.Type),
			zap.Error(err),
		)
		_ = q.jobs.UpdateStatus(ctx, job.ID, "failed")
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}
