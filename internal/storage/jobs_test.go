package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

func newTestJob(t *testing.T, s *SQLiteStorage, repoID int64) *types.IndexJob {
	t.Helper()
	job := &types.IndexJob{
		ID:           uuid.NewString(),
		RepositoryID: repoID,
		Ref:          "main",
		Status:       types.JobPending,
	}
	require.NoError(t, s.CreateJob(context.Background(), job))
	return job
}

func TestJobLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	claimed, err := s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, types.JobProcessing, claimed.Status)
	assert.Equal(t, 0, claimed.RetryCount)

	stats := &types.JobStats{FilesIndexed: 10, SymbolsExtracted: 42}
	require.NoError(t, s.CompleteJob(ctx, job.ID, stats))

	final, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	require.NotNil(t, final.Stats)
	assert.Equal(t, 10, final.Stats.FilesIndexed)
	assert.Equal(t, 42, final.Stats.SymbolsExtracted)
}

func TestClaimNextJobEmptyQueue(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.ClaimNextJob(context.Background(), time.Now(), time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteJobRequiresProcessing(t *testing.T) {
	// pending -> completed is not a legal transition
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	err = s.CompleteJob(ctx, job.ID, nil)
	assert.ErrorIs(t, err, ErrJobConflict)
}

func TestFailedJobRetriesAfterBackoff(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	_, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.FailJob(ctx, job.ID, "parse worker crashed"))

	// Immediately after failing, the backoff has not elapsed
	_, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)

	// After the first backoff window the job is claimable again, and the
	// retry consumes an attempt
	claimed, err := s.ClaimNextJob(ctx, time.Now().Add(61*time.Second), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, 1, claimed.RetryCount)
	assert.Empty(t, claimed.ErrorMessage)
}

func TestFailedJobExhaustsAttemptBudget(t *testing.T) {
	// A job runs exactly MaxJobAttempts times in total, never a fourth
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	now := time.Now()
	for attempt := 0; attempt < types.MaxJobAttempts; attempt++ {
		// Backoff grows with the retry count; jump far enough ahead
		now = now.Add(time.Hour)
		claimed, err := s.ClaimNextJob(ctx, now, time.Minute)
		require.NoError(t, err, "attempt %d", attempt)
		assert.Equal(t, attempt, claimed.RetryCount)
		require.NoError(t, s.FailJob(ctx, job.ID, "still broken"))
	}

	_, err = s.ClaimNextJob(ctx, now.Add(time.Hour), time.Minute)
	assert.ErrorIs(t, err, ErrNotFound, "attempt budget exhausted")

	final, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, final.Status)
	assert.Equal(t, "still broken", final.ErrorMessage)
}

func TestClaimSkipsRepositoryBeingProcessed(t *testing.T) {
	// One repository never runs on two workers at once: while a job for it is
	// processing, its other jobs are not claimable
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	first := newTestJob(t, s, repo.ID)
	second := newTestJob(t, s, repo.ID)

	claimed, err := s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID)

	_, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	assert.ErrorIs(t, err, ErrNotFound, "repository slot is held")

	// Jobs for other repositories are unaffected
	other, err := s.GetOrCreateRepository(ctx, "/tmp/other")
	require.NoError(t, err)
	otherJob := newTestJob(t, s, other.ID)
	claimed, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, otherJob.ID, claimed.ID)

	// Finishing the first job releases the slot
	require.NoError(t, s.CompleteJob(ctx, first.ID, nil))
	claimed, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, second.ID, claimed.ID)
}

func TestGetActiveJob(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)

	_, err = s.GetActiveJob(ctx, repo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	job := newTestJob(t, s, repo.ID)
	active, err := s.GetActiveJob(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, active.ID)

	// Processing jobs still hold the slot
	_, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	_, err = s.GetActiveJob(ctx, repo.ID)
	require.NoError(t, err)

	// Terminal jobs release it
	require.NoError(t, s.CompleteJob(ctx, job.ID, nil))
	_, err = s.GetActiveJob(ctx, repo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpireStaleJobs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	_, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)

	// Not yet stale
	count, err := s.ExpireStaleJobs(ctx, time.Now(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Pretend a day passed
	count, err = s.ExpireStaleJobs(ctx, time.Now().Add(25*time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expired, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, expired.Status)
	assert.Equal(t, "job expired", expired.ErrorMessage)
	assert.Equal(t, types.MaxJobAttempts, expired.RetryCount, "expired jobs are not retried")
}

func TestExpireStaleJobsCoversPending(t *testing.T) {
	// A pending job no worker ever picked up eventually expires too
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	count, err := s.ExpireStaleJobs(ctx, time.Now(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = s.ExpireStaleJobs(ctx, time.Now().Add(25*time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expired, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, expired.Status)
	assert.Equal(t, "job expired", expired.ErrorMessage)

	// The repository's indexing slot is free again
	_, err = s.GetActiveJob(ctx, repo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveCompletedJobs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)
	job := newTestJob(t, s, repo.ID)

	_, err = s.ClaimNextJob(ctx, time.Now(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.CompleteJob(ctx, job.ID, nil))

	count, err := s.ArchiveCompletedJobs(ctx, time.Now().Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Archived jobs stay readable by id
	archived, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, archived.Status)
}
