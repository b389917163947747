package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mshelton/codegraph-mcp/internal/indexer"
	"github.com/mshelton/codegraph-mcp/internal/storage"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

const (
	// DefaultWorkers is the number of concurrent job workers
	DefaultWorkers = 3
	// DefaultPollInterval is how often an idle worker checks for work
	DefaultPollInterval = 2 * time.Second
	// RetryBackoff is the base backoff unit; the n-th retry waits n times this
	RetryBackoff = time.Minute
	// JobExpiry fails processing jobs that have been running this long
	JobExpiry = 24 * time.Hour
	// ArchiveRetention hides terminal jobs from queue queries after this long
	ArchiveRetention = time.Hour
	// sweepInterval is how often the maintenance loop runs
	sweepInterval = time.Minute
)

// ErrJobActive is returned by Enqueue when the repository already has a
// pending or processing job.
var ErrJobActive = errors.New("repository already has an active job")

// JobRunner executes one claimed job and returns its statistics
type JobRunner func(ctx context.Context, job *types.IndexJob) (*types.JobStats, error)

// Queue manages indexing job workers
type Queue struct {
	storage storage.Storage
	runner  JobRunner
	locks   *indexer.LockSet
	logger  *slog.Logger

	workers      int
	pollInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config contains configuration for the queue
type Config struct {
	Workers      int
	PollInterval time.Duration
}

// New creates a queue. The runner is invoked once per claimed job.
func New(store storage.Storage, runner JobRunner, logger *slog.Logger, config *Config) *Queue {
	q := &Queue{
		storage:      store,
		runner:       runner,
		locks:        indexer.NewLockSet(),
		logger:       logger,
		workers:      DefaultWorkers,
		pollInterval: DefaultPollInterval,
	}
	if config != nil {
		if config.Workers > 0 {
			q.workers = config.Workers
		}
		if config.PollInterval > 0 {
			q.pollInterval = config.PollInterval
		}
	}
	return q
}

// Enqueue creates a pending job for the repository. It fails fast with
// ErrJobActive when the repository's indexing slot is taken.
func (q *Queue) Enqueue(ctx context.Context, repositoryID int64, ref, commitSha string) (*types.IndexJob, error) {
	_, err := q.storage.GetActiveJob(ctx, repositoryID)
	if err == nil {
		return nil, ErrJobActive
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	job := &types.IndexJob{
		ID:           uuid.NewString(),
		RepositoryID: repositoryID,
		Ref:          ref,
		CommitSha:    commitSha,
		Status:       types.JobPending,
	}
	if err := q.storage.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.Info("job enqueued", "job_id", job.ID, "repository_id", repositoryID, "ref", ref)
	return job, nil
}

// Start launches the worker pool and the maintenance loop
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(worker int) {
			defer q.wg.Done()
			q.workerLoop(ctx, worker)
		}(i)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.maintenanceLoop(ctx)
	}()
}

// Stop cancels the workers and waits for in-flight jobs to settle
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *Queue) workerLoop(ctx context.Context, worker int) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		q.runNext(ctx, worker)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runNext claims and runs at most one job
func (q *Queue) runNext(ctx context.Context, worker int) {
	job, err := q.storage.ClaimNextJob(ctx, time.Now(), RetryBackoff)
	if err == storage.ErrNotFound {
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			q.logger.Error("failed to claim job", "worker", worker, "error", err)
		}
		return
	}

	if !q.locks.TryAcquire(job.RepositoryID) {
		// Should not happen while the one-active-job invariant holds
		q.failJob(ctx, job.ID, "repository is locked by another worker")
		return
	}
	defer q.locks.Release(job.RepositoryID)

	q.logger.Info("job started", "worker", worker, "job_id", job.ID,
		"repository_id", job.RepositoryID, "retry_count", job.RetryCount)

	stats, err := q.runner(ctx, job)
	if err != nil {
		q.logger.Warn("job failed", "worker", worker, "job_id", job.ID, "error", err)
		q.failJob(ctx, job.ID, err.Error())
		return
	}

	if err := q.storage.CompleteJob(ctx, job.ID, stats); err != nil {
		q.logger.Error("failed to record job completion", "job_id", job.ID, "error", err)
		return
	}
	q.logger.Info("job completed", "worker", worker, "job_id", job.ID,
		"files_indexed", stats.FilesIndexed, "duration_ms", stats.DurationMs)
}

// failJob records a failure without losing the original error on conflicts
func (q *Queue) failJob(ctx context.Context, jobID, message string) {
	// Shutdown must still be able to write the failure
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := q.storage.FailJob(ctx, jobID, message); err != nil {
		q.logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
}

func (q *Queue) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()
		if expired, err := q.storage.ExpireStaleJobs(ctx, now, JobExpiry); err != nil {
			q.logger.Error("failed to expire stale jobs", "error", err)
		} else if expired > 0 {
			q.logger.Warn("expired stale jobs", "count", expired)
		}

		if archived, err := q.storage.ArchiveCompletedJobs(ctx, now, ArchiveRetention); err != nil {
			q.logger.Error("failed to archive jobs", "error", err)
		} else if archived > 0 {
			q.logger.Info("archived terminal jobs", "count", archived)
		}
	}
}
