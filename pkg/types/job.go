package types

import (
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of an IndexJob
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// MaxJobAttempts is the total attempt budget: a job runs at most this many
// times (the initial attempt plus MaxJobAttempts-1 retries) before it is left
// failed permanently.
const MaxJobAttempts = 3

// CanTransition reports whether moving from s to next is a legal state
// change. processing -> processing is never legal: each retry must pass
// through failed first.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobProcessing
	case JobProcessing:
		return next == JobCompleted || next == JobFailed
	case JobFailed:
		return next == JobProcessing
	default:
		return false
	}
}

// Terminal reports whether the status sets completedAt
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStats aggregates the outcome of one indexing run. Parse failures are
// absorbed here rather than failing the job: a completed job may carry a
// non-empty ParseErrors breakdown.
type JobStats struct {
	FilesIndexed          int      `json:"files_indexed"`
	SymbolsExtracted      int      `json:"symbols_extracted"`
	ReferencesFound       int      `json:"references_found"`
	DependenciesExtracted int      `json:"dependencies_extracted"`
	FilesSkipped          int      `json:"files_skipped"`
	ParseErrors           []string `json:"parse_errors,omitempty"`
	DurationMs            int64    `json:"duration_ms"`
}

// IndexJob is the unit of work representing one attempt to (re)index a
// repository at a given ref/commit. Jobs are created once per indexing
// request, mutated in place as the pipeline progresses, and never deleted.
type IndexJob struct {
	ID           string
	RepositoryID int64
	Ref          string
	CommitSha    string
	Status       JobStatus
	StartedAt    time.Time
	CompletedAt  *time.Time // Nil until a terminal state is reached
	ErrorMessage string
	Stats        *JobStats
	RetryCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate performs comprehensive validation of the job
func (j *IndexJob) Validate() error {
	if j.ID == "" {
		return errors.New("job id is required")
	}
	if j.RepositoryID == 0 {
		return errors.New("repository id is required")
	}
	switch j.Status {
	case JobPending, JobProcessing, JobCompleted, JobFailed:
	default:
		return errors.New("invalid job status")
	}
	if j.Status.Terminal() && j.CompletedAt == nil {
		return errors.New("terminal jobs must set completedAt")
	}
	if !j.Status.Terminal() && j.CompletedAt != nil {
		return errors.New("non-terminal jobs must not set completedAt")
	}
	return nil
}

// Active reports whether the job still occupies its repository's indexing
// slot. A repository may have at most one active job at a time.
func (j *IndexJob) Active() bool {
	return j.Status == JobPending || j.Status == JobProcessing
}
