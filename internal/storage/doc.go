// Package storage provides SQLite-based persistence for indexed code data.
//
// The storage layer manages:
//   - Repository metadata
//   - File contents and languages
//   - Extracted symbols and references
//   - Dependency edges at file and symbol granularity
//   - Index jobs and their lifecycle
//   - Full-text search over file contents
//
// # Database Schema
//
// Tables:
//   - repositories: Repository metadata (root path, last index time)
//   - files: File paths, languages, and contents
//   - symbols: Extracted symbols (functions, classes, types, ...)
//   - symbol_references: Located usages of names within files
//   - dependency_edges: Directed file_import and symbol_usage edges
//   - index_jobs: Indexing job records with status and statistics
//   - files_fts: FTS5 full-text search index over file contents
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.codegraph/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo, err := db.GetOrCreateRepository(ctx, "/path/to/repo")
//
// # Batch Writes
//
// Indexing runs write through StoreIndexedData, which commits one chunk of
// files, symbols, references, and edges in a single transaction. The first
// chunk of a run clears the repository's dependency edges; every chunk
// replaces the stored data of the files it contains, so re-running a chunk
// after a failure converges to the same rows instead of duplicating them.
//
//	arena := storage.NewBatchArena()
//	stats, err := db.StoreIndexedData(ctx, &storage.IndexBatch{
//	    RepositoryID: repo.ID,
//	    Files:        files,
//	    Symbols:      symbols,
//	    References:   refs,
//	}, arena)
//
// The arena carries path-to-id and symbol-key-to-id assignments across chunks
// so edges submitted with the final chunk can resolve endpoints indexed
// earlier in the run; endpoints missing from the arena fall back to a lookup.
//
// # Jobs
//
// Index jobs move pending -> processing -> completed | failed. ClaimNextJob
// claims the oldest eligible job with a conditional update, so concurrent
// workers never process the same job twice. Failed jobs become claimable
// again after a backoff until their retry budget is exhausted.
package storage
