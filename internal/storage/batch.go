package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// IndexBatch is one chunk of an indexing run: the files to persist alongside
// the symbols and references extracted from them, plus any dependency edges
// whose endpoints are known. Edges are normally submitted with the final
// chunk, after every file of the run has an assigned id.
type IndexBatch struct {
	RepositoryID int64
	Files        []types.SourceFile
	Symbols      []types.Symbol
	References   []types.Reference
	Edges        []types.DependencyEdge

	// SkipDelete is false on the first chunk of a run, which clears the
	// repository's stored files (and, through them, symbols, references, and
	// dependency edges) before writing, so files removed from the repository
	// since the last run do not survive a re-index. Subsequent chunks set it
	// so earlier chunks' work survives.
	SkipDelete bool
}

// BatchArena carries id assignments across the chunks of one indexing run.
// Edge endpoints resolve against the arena first and fall back to a database
// lookup, covering retried chunks whose assignments were made by a previous
// attempt.
type BatchArena struct {
	fileIDs   map[string]int64
	symbolIDs map[types.SymbolKey]int64
}

// NewBatchArena creates an empty arena for one indexing run
func NewBatchArena() *BatchArena {
	return &BatchArena{
		fileIDs:   make(map[string]int64),
		symbolIDs: make(map[types.SymbolKey]int64),
	}
}

// BatchStats reports what one StoreIndexedData call wrote
type BatchStats struct {
	FilesStored      int
	SymbolsStored    int
	ReferencesStored int
	EdgesStored      int
	EdgesSkipped     int // Edges whose endpoints could not be resolved
}

// StoreIndexedData commits one chunk in a single transaction. Each file's
// stored symbols and references are deleted and rewritten, so re-running a
// chunk converges to the same rows. Edges insert idempotently against the
// unique endpoint index.
func (s *SQLiteStorage) StoreIndexedData(ctx context.Context, batch *IndexBatch, arena *BatchArena) (*BatchStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stats, err := s.storeIndexedDataWithQuerier(ctx, tx, batch, arena)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return stats, nil
}

func (t *sqliteTx) StoreIndexedData(ctx context.Context, batch *IndexBatch, arena *BatchArena) (*BatchStats, error) {
	return t.storage.storeIndexedDataWithQuerier(ctx, t.querier(), batch, arena)
}

// storeIndexedDataWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) storeIndexedDataWithQuerier(ctx context.Context, q querier, batch *IndexBatch, arena *BatchArena) (*BatchStats, error) {
	stats := &BatchStats{}

	if !batch.SkipDelete {
		if err := s.deleteEdgesByRepositoryWithQuerier(ctx, q, batch.RepositoryID); err != nil {
			return nil, fmt.Errorf("failed to clear stale edges: %w", err)
		}
		// Dropping the files cascades to their symbols and references and
		// keeps the full-text index in sync through the delete trigger
		if err := s.deleteFilesByRepositoryWithQuerier(ctx, q, batch.RepositoryID); err != nil {
			return nil, fmt.Errorf("failed to clear stale files: %w", err)
		}
	}

	symbolsByFile := make(map[string][]types.Symbol)
	for _, sym := range batch.Symbols {
		symbolsByFile[sym.FilePath] = append(symbolsByFile[sym.FilePath], sym)
	}
	refsByFile := make(map[string][]types.Reference)
	for _, ref := range batch.References {
		refsByFile[ref.FilePath] = append(refsByFile[ref.FilePath], ref)
	}

	for _, src := range batch.Files {
		file := &File{
			RepositoryID: batch.RepositoryID,
			Path:         src.Path,
			Language:     src.Language,
			Content:      src.Content,
			SizeBytes:    src.SizeBytes(),
		}
		if err := s.upsertFileWithQuerier(ctx, q, file); err != nil {
			return nil, err
		}
		arena.fileIDs[src.Path] = file.ID
		stats.FilesStored++

		// Replace the file's stored extraction wholesale
		if err := s.deleteSymbolsByFileWithQuerier(ctx, q, file.ID); err != nil {
			return nil, err
		}
		if err := s.deleteReferencesByFileWithQuerier(ctx, q, file.ID); err != nil {
			return nil, err
		}

		for _, sym := range symbolsByFile[src.Path] {
			record := FromTypesSymbol(sym, file.ID)
			if err := s.upsertSymbolWithQuerier(ctx, q, record); err != nil {
				return nil, err
			}
			arena.symbolIDs[sym.Key()] = record.ID
			stats.SymbolsStored++
		}

		for _, ref := range refsByFile[src.Path] {
			record := FromTypesReference(ref, file.ID)
			if err := s.upsertReferenceWithQuerier(ctx, q, record); err != nil {
				return nil, err
			}
			stats.ReferencesStored++
		}
	}

	for _, edge := range batch.Edges {
		record, ok, err := s.resolveEdge(ctx, q, batch.RepositoryID, edge, arena)
		if err != nil {
			return nil, err
		}
		if !ok {
			stats.EdgesSkipped++
			continue
		}
		if err := s.insertEdgeWithQuerier(ctx, q, record); err != nil {
			return nil, err
		}
		stats.EdgesStored++
	}

	return stats, nil
}

// resolveEdge maps an in-memory edge's path and symbol-key endpoints to row
// ids. Endpoints absent from both the arena and the database make the edge
// unresolvable; the caller skips it rather than failing the batch.
func (s *SQLiteStorage) resolveEdge(ctx context.Context, q querier, repositoryID int64, edge types.DependencyEdge, arena *BatchArena) (*Edge, bool, error) {
	fromFile, ok, err := s.resolveFileID(ctx, q, repositoryID, edge.FromFile, arena)
	if err != nil || !ok {
		return nil, false, err
	}
	toFile, ok, err := s.resolveFileID(ctx, q, repositoryID, edge.ToFile, arena)
	if err != nil || !ok {
		return nil, false, err
	}

	record := &Edge{
		DependencyType: string(edge.Type),
		FromFileID:     fromFile,
		ToFileID:       toFile,
	}
	if len(edge.Metadata) > 0 {
		if data, err := json.Marshal(edge.Metadata); err == nil {
			record.Metadata = string(data)
		}
	}

	if edge.FromSymbol != nil {
		id, ok, err := s.resolveSymbolID(ctx, q, repositoryID, *edge.FromSymbol, arena)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		record.FromSymbolID = id
	}
	if edge.ToSymbol != nil {
		id, ok, err := s.resolveSymbolID(ctx, q, repositoryID, *edge.ToSymbol, arena)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		record.ToSymbolID = id
	}

	return record, true, nil
}

func (s *SQLiteStorage) resolveFileID(ctx context.Context, q querier, repositoryID int64, path string, arena *BatchArena) (int64, bool, error) {
	if path == "" {
		return 0, false, nil
	}
	if id, ok := arena.fileIDs[path]; ok {
		return id, true, nil
	}
	id, err := s.fileIDByPathWithQuerier(ctx, q, repositoryID, path)
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	arena.fileIDs[path] = id
	return id, true, nil
}

func (s *SQLiteStorage) resolveSymbolID(ctx context.Context, q querier, repositoryID int64, key types.SymbolKey, arena *BatchArena) (int64, bool, error) {
	if id, ok := arena.symbolIDs[key]; ok {
		return id, true, nil
	}
	id, err := s.lookupSymbolIDWithQuerier(ctx, q, repositoryID, key)
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	arena.symbolIDs[key] = id
	return id, true, nil
}
