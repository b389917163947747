package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

const jobColumns = `
	id, repository_id, ref, commit_sha, status, error_message, stats,
	retry_count, started_at, completed_at, created_at, updated_at
`

// scanJob reads one index_jobs row into a types.IndexJob
func scanJob(scan func(dest ...interface{}) error) (*types.IndexJob, error) {
	var job types.IndexJob
	var ref, commitSha, errMessage, stats sql.NullString
	var startedAt, completedAt sql.NullTime

	err := scan(
		&job.ID, &job.RepositoryID, &ref, &commitSha, &job.Status,
		&errMessage, &stats, &job.RetryCount,
		&startedAt, &completedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Ref = ref.String
	job.CommitSha = commitSha.String
	job.ErrorMessage = errMessage.String
	if startedAt.Valid {
		job.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if stats.Valid && stats.String != "" {
		var js types.JobStats
		if err := json.Unmarshal([]byte(stats.String), &js); err == nil {
			job.Stats = &js
		}
	}
	return &job, nil
}

// Job operations

// createJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createJobWithQuerier(ctx context.Context, q querier, job *types.IndexJob) error {
	query := `
		INSERT INTO index_jobs (id, repository_id, ref, commit_sha, status, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		job.ID, job.RepositoryID, job.Ref, job.CommitSha,
		string(job.Status), job.RetryCount, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateJob(ctx context.Context, job *types.IndexJob) error {
	return s.createJobWithQuerier(ctx, s.querier(), job)
}

// getJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getJobWithQuerier(ctx context.Context, q querier, jobID string) (*types.IndexJob, error) {
	query := `SELECT ` + jobColumns + ` FROM index_jobs WHERE id = ?`
	job, err := scanJob(q.QueryRowContext(ctx, query, jobID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLiteStorage) GetJob(ctx context.Context, jobID string) (*types.IndexJob, error) {
	return s.getJobWithQuerier(ctx, s.querier(), jobID)
}

// getActiveJobWithQuerier returns the repository's pending or processing job,
// if one exists. At most one can exist at a time.
func (s *SQLiteStorage) getActiveJobWithQuerier(ctx context.Context, q querier, repositoryID int64) (*types.IndexJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM index_jobs
		WHERE repository_id = ? AND status IN ('pending', 'processing') AND archived = 0
		ORDER BY created_at
		LIMIT 1
	`
	job, err := scanJob(q.QueryRowContext(ctx, query, repositoryID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLiteStorage) GetActiveJob(ctx context.Context, repositoryID int64) (*types.IndexJob, error) {
	return s.getActiveJobWithQuerier(ctx, s.querier(), repositoryID)
}

// claimNextJobWithQuerier claims the oldest eligible job. Pending jobs are
// always eligible; failed jobs become eligible once their backoff has elapsed
// and the attempt budget is not spent. A repository with a job already in
// processing contributes no candidates, so one repository never runs on two
// workers at once. The claim itself is a conditional UPDATE guarded on the
// current status, so two workers racing for the same job see exactly one
// winner.
func (s *SQLiteStorage) claimNextJobWithQuerier(ctx context.Context, q querier, now time.Time, retryBackoff time.Duration) (*types.IndexJob, error) {
	// retry_count counts consumed retries, so the last admissible value is
	// MaxJobAttempts-2: claiming it runs the final attempt
	candidates := `
		SELECT id, status, retry_count, updated_at
		FROM index_jobs
		WHERE archived = 0
		  AND (status = 'pending' OR (status = 'failed' AND retry_count < ?))
		  AND repository_id NOT IN (
		      SELECT repository_id FROM index_jobs
		      WHERE status = 'processing' AND archived = 0
		  )
		ORDER BY created_at
		LIMIT 10
	`
	rows, err := q.QueryContext(ctx, candidates, types.MaxJobAttempts-1)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		id         string
		status     string
		retryCount int
		updatedAt  time.Time
	}
	var cands []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.status, &c.retryCount, &c.updatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		cands = append(cands, c)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range cands {
		status := types.JobStatus(c.status)
		if !status.CanTransition(types.JobProcessing) {
			continue
		}
		if status == types.JobFailed {
			delay := retryBackoff * time.Duration(c.retryCount+1)
			if now.Sub(c.updatedAt) < delay {
				continue
			}
		}

		// Retries consume an attempt at claim time
		retryBump := 0
		if status == types.JobFailed {
			retryBump = 1
		}
		// The repository check is repeated inside the UPDATE so two workers
		// racing on different jobs of the same repository see one winner
		claim := `
			UPDATE index_jobs
			SET status = 'processing', retry_count = retry_count + ?,
			    error_message = NULL, started_at = ?, updated_at = ?
			WHERE id = ? AND status = ?
			  AND repository_id NOT IN (
			      SELECT repository_id FROM index_jobs
			      WHERE status = 'processing' AND archived = 0
			  )
		`
		result, err := q.ExecContext(ctx, claim, retryBump, now, now, c.id, c.status)
		if err != nil {
			return nil, fmt.Errorf("failed to claim job: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			continue // Another worker won the race
		}
		return s.getJobWithQuerier(ctx, q, c.id)
	}

	return nil, ErrNotFound
}

func (s *SQLiteStorage) ClaimNextJob(ctx context.Context, now time.Time, retryBackoff time.Duration) (*types.IndexJob, error) {
	return s.claimNextJobWithQuerier(ctx, s.querier(), now, retryBackoff)
}

// completeJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) completeJobWithQuerier(ctx context.Context, q querier, jobID string, stats *types.JobStats) error {
	statsJSON := ""
	if stats != nil {
		if data, err := json.Marshal(stats); err == nil {
			statsJSON = string(data)
		}
	}

	query := `
		UPDATE index_jobs
		SET status = 'completed', stats = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'processing'
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, statsJSON, now, now, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobConflict
	}
	return nil
}

func (s *SQLiteStorage) CompleteJob(ctx context.Context, jobID string, stats *types.JobStats) error {
	return s.completeJobWithQuerier(ctx, s.querier(), jobID, stats)
}

// failJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) failJobWithQuerier(ctx context.Context, q querier, jobID string, errMessage string) error {
	query := `
		UPDATE index_jobs
		SET status = 'failed', error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'processing'
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, errMessage, now, now, jobID)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobConflict
	}
	return nil
}

func (s *SQLiteStorage) FailJob(ctx context.Context, jobID string, errMessage string) error {
	return s.failJobWithQuerier(ctx, s.querier(), jobID, errMessage)
}

// expireStaleJobsWithQuerier fails jobs that have sat in the queue longer
// than maxAge: processing jobs whose worker has been gone, and pending jobs
// no worker ever picked up. Both free the repository's indexing slot.
func (s *SQLiteStorage) expireStaleJobsWithQuerier(ctx context.Context, q querier, now time.Time, maxAge time.Duration) (int, error) {
	cutoff := now.Add(-maxAge)
	query := `
		UPDATE index_jobs
		SET status = 'failed', error_message = 'job expired', completed_at = ?, updated_at = ?,
		    retry_count = ?
		WHERE archived = 0
		  AND ((status = 'processing' AND started_at < ?)
		    OR (status = 'pending' AND created_at < ?))
	`
	// retry_count is forced to the cap: an expired job is not retried
	result, err := q.ExecContext(ctx, query, now, now, types.MaxJobAttempts, cutoff, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale jobs: %w", err)
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (s *SQLiteStorage) ExpireStaleJobs(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	return s.expireStaleJobsWithQuerier(ctx, s.querier(), now, maxAge)
}

// archiveCompletedJobsWithQuerier hides terminal jobs older than the retention
// window from queue queries. Rows are kept for job history lookups.
func (s *SQLiteStorage) archiveCompletedJobsWithQuerier(ctx context.Context, q querier, now time.Time, retention time.Duration) (int, error) {
	cutoff := now.Add(-retention)
	query := `
		UPDATE index_jobs
		SET archived = 1, updated_at = ?
		WHERE status IN ('completed', 'failed') AND completed_at < ? AND archived = 0
	`
	result, err := q.ExecContext(ctx, query, now, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to archive jobs: %w", err)
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (s *SQLiteStorage) ArchiveCompletedJobs(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	return s.archiveCompletedJobsWithQuerier(ctx, s.querier(), now, retention)
}

// Transaction delegations

func (t *sqliteTx) CreateJob(ctx context.Context, job *types.IndexJob) error {
	return t.storage.createJobWithQuerier(ctx, t.querier(), job)
}

func (t *sqliteTx) GetJob(ctx context.Context, jobID string) (*types.IndexJob, error) {
	return t.storage.getJobWithQuerier(ctx, t.querier(), jobID)
}

func (t *sqliteTx) GetActiveJob(ctx context.Context, repositoryID int64) (*types.IndexJob, error) {
	return t.storage.getActiveJobWithQuerier(ctx, t.querier(), repositoryID)
}

func (t *sqliteTx) ClaimNextJob(ctx context.Context, now time.Time, retryBackoff time.Duration) (*types.IndexJob, error) {
	return t.storage.claimNextJobWithQuerier(ctx, t.querier(), now, retryBackoff)
}

func (t *sqliteTx) CompleteJob(ctx context.Context, jobID string, stats *types.JobStats) error {
	return t.storage.completeJobWithQuerier(ctx, t.querier(), jobID, stats)
}

func (t *sqliteTx) FailJob(ctx context.Context, jobID string, errMessage string) error {
	return t.storage.failJobWithQuerier(ctx, t.querier(), jobID, errMessage)
}

func (t *sqliteTx) ExpireStaleJobs(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	return t.storage.expireStaleJobsWithQuerier(ctx, t.querier(), now, maxAge)
}

func (t *sqliteTx) ArchiveCompletedJobs(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	return t.storage.archiveCompletedJobsWithQuerier(ctx, t.querier(), now, retention)
}
