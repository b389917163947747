// Package jobqueue runs indexing jobs through their lifecycle.
//
// Jobs move pending -> processing -> completed | failed; failed jobs are
// retried with a growing backoff until the total attempt budget runs out. A
// repository has at most one active (pending or processing) job at a time:
// Enqueue refuses a second request instead of queueing it, and storage skips
// a repository's jobs while one of them is processing.
//
// The queue is a pool of workers polling storage for claimable jobs. The
// claim is a conditional update in storage, so any number of workers can poll
// the same database safely. A maintenance loop expires processing jobs whose
// worker disappeared and pending jobs nothing ever claimed, and archives old
// terminal jobs.
//
// What a job actually does is supplied as a JobRunner, keeping the queue
// independent of the indexing pipeline.
package jobqueue
