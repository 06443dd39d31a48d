package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/database"
	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/services"
	"notebooklm-backend/internal/storage"
)

const (
	defaultMaxRetries = 3
	lockTTL           = 10 * time.Minute
	popTimeout        = 5 * time.Second
)

// broker is the subset of the Redis client the queue and pool use.
type broker interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type jobStore interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type documentStore interface {
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Document, error)
	SetExtracted(ctx context.Context, id uuid.UUID, content string) error
	SetEnrichment(ctx context.Context, id uuid.UUID, summary string, tags []string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type textExtractor interface {
	Extract(filename, contentType string, data []byte) (string, error)
}

type featureDispatcher interface {
	Handle(ctx context.Context, req ai.Request) (any, error)
}

// Pool drains the document job queues with a fixed number of goroutines.
type Pool struct {
	redis       broker
	jobs        jobStore
	documents   documentStore
	store       storage.Store
	extractor   textExtractor
	dispatcher  featureDispatcher
	workerCount int
	retryBase   time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPool(
	redisClient broker,
	jobs jobStore,
	documents documentStore,
	store storage.Store,
	extractor textExtractor,
	dispatcher featureDispatcher,
	workerCount int,
) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		jobs:        jobs,
		documents:   documents,
		store:       store,
		extractor:   extractor,
		dispatcher:  dispatcher,
		workerCount: workerCount,
		retryBase:   time.Second,
		stopChan:    make(chan struct{}),
	}
}

func queues() []string {
	return []string{
		database.QueueKey(models.JobDocumentExtraction),
		database.QueueKey(models.JobDocumentEnrichment),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	zap.L().Info("worker pool started", zap.Int("workers", p.workerCount))
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := zap.L().With(zap.Int("worker", id))

	for {
		select {
		case <-p.stopChan:
			log.Info("worker shutting down")
			return
		default:
		}

		ctx := context.Background()
		result, err := p.redis.BLPop(ctx, popTimeout, queues()...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warn("queue pop failed", zap.Error(err))
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error("failed to parse job", zap.String("queue", result[0]), zap.Error(err))
			continue
		}

		p.processJob(ctx, &job)
	}
}

// processJob runs one popped job under its lock.
func (p *Pool) processJob(ctx context.Context, job *models.Job) {
	lockKey := database.JobLockKey(job.ID.String())
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return
	}
	defer p.redis.Del(ctx, lockKey)

	log := zap.L().With(zap.String("job_id", job.ID.String()), zap.String("type", job.Type))

	if stored, err := p.jobs.GetByID(ctx, job.ID); err == nil && (stored.Status == "failed" || stored.Status == "completed") {
		log.Info("skipping finished job", zap.String("status", stored.Status))
		return
	}

	log.Info("processing job", zap.Int("attempt", job.RetryCount+1))
	p.setStatus(ctx, job, "processing")
	p.publishStep(ctx, job, 1, "Preparing document")

	var processErr error
	switch job.Type {
	case models.JobDocumentExtraction:
		processErr = p.processExtraction(ctx, job)
	case models.JobDocumentEnrichment:
		processErr = p.processEnrichment(ctx, job)
	default:
		processErr = permanent(fmt.Errorf("unknown job type: %s", job.Type))
	}

	if processErr != nil {
		p.handleFailure(ctx, job, processErr)
		return
	}
	p.handleSuccess(ctx, job)
}

func (p *Pool) processExtraction(ctx context.Context, job *models.Job) error {
	doc, err := p.documents.GetByID(ctx, job.UserID, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if doc.FileKey == nil {
		return permanent(errors.New("document has no stored file"))
	}

	data, err := p.store.Get(ctx, *doc.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return permanent(err)
		}
		return fmt.Errorf("failed to read upload: %w", err)
	}

	p.publishStep(ctx, job, 2, "Extracting text")
	mimeType := ""
	if doc.MimeType != nil {
		mimeType = *doc.MimeType
	}
	text, err := p.extractor.Extract(*doc.FileKey, mimeType, data)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedType) || errors.Is(err, services.ErrNoText) {
			return permanent(err)
		}
		return err
	}

	return p.documents.SetExtracted(ctx, doc.ID, text)
}

// processEnrichment writes a summary and suggested tags back to the document.
func (p *Pool) processEnrichment(ctx context.Context, job *models.Job) error {
	doc, err := p.documents.GetByID(ctx, job.UserID, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	p.publishStep(ctx, job, 2, "Summarizing")
	summaryOut, err := p.dispatcher.Handle(ctx, ai.Request{Type: ai.FeatureSummarize.String(), Content: doc.Content})
	if err != nil {
		return classifyAI(err)
	}

	p.publishStep(ctx, job, 3, "Suggesting tags")
	tagsOut, err := p.dispatcher.Handle(ctx, ai.Request{Type: ai.FeatureSuggestTags.String(), Content: doc.Content})
	if err != nil {
		return classifyAI(err)
	}

	tags := append(append([]string{}, doc.Tags...), ai.TagNames(tagsOut)...)
	return p.documents.SetEnrichment(ctx, doc.ID, ai.SummaryText(summaryOut), tags)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.setStatus(ctx, job, "completed")
	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: "document",
		},
	})
	zap.L().Info("job completed", zap.String("job_id", job.ID.String()))
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()
	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if job.RetryCount < maxRetries && !isPermanent(err) {
		zap.L().Warn("job failed, retrying",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.RetryCount),
			zap.Error(err),
		)
		p.setStatus(ctx, job, "pending")
		p.recordError(ctx, job, errMsg)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * p.retryBase
		time.AfterFunc(backoff, func() { p.requeue(job, jobBytes) })
		return
	}

	zap.L().Error("job failed permanently", zap.String("job_id", job.ID.String()), zap.Error(err))
	p.setStatus(ctx, job, "failed")
	p.recordError(ctx, job, errMsg)
	if job.Type == models.JobDocumentExtraction {
		if err := p.documents.UpdateStatus(ctx, job.ReferenceID, models.DocumentFailed); err != nil {
			zap.L().Warn("document status update failed",
				zap.String("job_id", job.ID.String()),
				zap.String("document_id", job.ReferenceID.String()),
				zap.Error(err),
			)
		}
	}

	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "JOB_FAILED",
			ErrorMessage: errMsg,
		},
	})
}

// requeue pushes a retried job back onto its queue. A stopped pool drops it;
// the job row stays pending.
func (p *Pool) requeue(job *models.Job, jobBytes []byte) {
	log := zap.L().With(zap.String("job_id", job.ID.String()), zap.String("type", job.Type))

	select {
	case <-p.stopChan:
		log.Info("pool stopped, retry not requeued")
		return
	default:
	}

	if err := p.redis.LPush(context.Background(), database.QueueKey(job.Type), string(jobBytes)).Err(); err != nil {
		log.Error("failed to requeue job", zap.Error(err))
	}
}

func (p *Pool) setStatus(ctx context.Context, job *models.Job, status string) {
	if err := p.jobs.UpdateStatus(ctx, job.ID, status); err != nil {
		zap.L().Warn("job status update failed",
			zap.String("job_id", job.ID.String()),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (p *Pool) recordError(ctx context.Context, job *models.Job, errMsg string) {
	if err := p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount); err != nil {
		zap.L().Warn("job error update failed",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
	}
}

func (p *Pool) publishStep(ctx context.Context, job *models.Job, step int, name string) {
	p.publish(ctx, job.UserID, models.WSMessage{
		Type:    "status_update",
		Payload: models.StatusUpdate{JobID: job.ID, Step: step, StepName: name},
	})
}

func (p *Pool) publish(ctx context.Context, userID string, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	if err := p.redis.Publish(ctx, database.UserChannel(userID), string(data)).Err(); err != nil {
		zap.L().Warn("failed to publish job event", zap.String("user_id", userID), zap.Error(err))
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// permanent marks err as not worth retrying.
func permanent(err error) error { return permanentError{err: err} }

func isPermanent(err error) bool {
	var pe permanentError
	return errors.As(err, &pe)
}

// classifyAI treats request and configuration faults as permanent; upstream
// failures are retried.
func classifyAI(err error) error {
	switch ai.KindOf(err) {
	case ai.KindInvalidRequest, ai.KindConfiguration:
		return permanent(err)
	}
	return err
}
