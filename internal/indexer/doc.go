// Package indexer coordinates the indexing pipeline: discover -> parse ->
// graph -> store.
//
// A Pipeline run parses every discovered file concurrently, waits for all
// parses to finish, derives the dependency graph from the combined extraction,
// and then persists everything in chunks of files, each chunk one storage
// transaction. Dependency edges are submitted with the final chunk, after
// every file of the run has an assigned row id.
//
// Parse failures do not fail the run: a file with syntax errors is stored
// with its content and no symbols, and the error is reported in the job
// statistics. Only storage errors and context cancellation abort a run.
//
// LocalSource discovers source files under a repository root, honoring
// .gitignore and skipping dependency and build directories. Files outside the
// supported extension set or over the size cap are skipped and counted.
package indexer
