package indexer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mshelton/codegraph-mcp/internal/graph"
	"github.com/mshelton/codegraph-mcp/internal/parser"
	"github.com/mshelton/codegraph-mcp/internal/storage"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// Pipeline coordinates the indexing pipeline: parse -> graph -> store
type Pipeline struct {
	parser  *parser.Parser
	storage storage.Storage

	workers   int
	chunkSize int
}

// Config contains configuration for the pipeline
type Config struct {
	Workers   int // Number of concurrent parse workers (default: runtime.NumCPU())
	ChunkSize int // Number of files to commit per transaction (default: 50)
}

// New creates a new Pipeline instance
func New(store storage.Storage, config *Config) *Pipeline {
	p := &Pipeline{
		parser:    parser.New(),
		storage:   store,
		workers:   runtime.NumCPU(),
		chunkSize: 50,
	}
	if config != nil {
		if config.Workers > 0 {
			p.workers = config.Workers
		}
		if config.ChunkSize > 0 {
			p.chunkSize = config.ChunkSize
		}
	}
	return p
}

// Run indexes one repository's files end to end and returns the run's
// statistics. Parsing is concurrent; the graph is derived only after every
// file has parsed, because symbol-usage edges match names across the whole
// run. Storage happens in file chunks, edges with the last chunk.
func (p *Pipeline) Run(ctx context.Context, repositoryID int64, files []types.SourceFile, skipped int) (*types.JobStats, error) {
	startTime := time.Now()
	stats := &types.JobStats{FilesSkipped: skipped}

	results, err := p.parseFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	var symbols []types.Symbol
	var references []types.Reference
	for _, result := range results {
		symbols = append(symbols, result.Symbols...)
		references = append(references, result.References...)
		for _, parseErr := range result.Errors {
			stats.ParseErrors = append(stats.ParseErrors, parseErr.Error())
		}
	}
	stats.FilesIndexed = len(files)
	stats.SymbolsExtracted = len(symbols)
	stats.ReferencesFound = len(references)

	edges := graph.BuildDependencies(files, symbols, references)
	stats.DependenciesExtracted = len(edges)

	if err := p.storeChunks(ctx, repositoryID, files, symbols, references, edges); err != nil {
		return nil, err
	}

	if err := p.storage.TouchRepository(ctx, repositoryID, time.Now()); err != nil {
		return nil, err
	}

	stats.DurationMs = time.Since(startTime).Milliseconds()
	return stats, nil
}

// parseFiles parses all files concurrently with a bounded worker pool
func (p *Pipeline) parseFiles(ctx context.Context, files []types.SourceFile) ([]*types.ParseResult, error) {
	semaphore := make(chan struct{}, p.workers)
	results := make([]*types.ParseResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[i] = p.parser.Parse(gctx, files[i].Path, []byte(files[i].Content))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// storeChunks persists the run in transactions of chunkSize files. The first
// chunk clears the repository's previous edges; the new edges go in with the
// final chunk, once every endpoint has an id in the arena.
func (p *Pipeline) storeChunks(ctx context.Context, repositoryID int64,
	files []types.SourceFile, symbols []types.Symbol, references []types.Reference,
	edges []types.DependencyEdge) error {

	symbolsByFile := make(map[string][]types.Symbol)
	for _, s := range symbols {
		symbolsByFile[s.FilePath] = append(symbolsByFile[s.FilePath], s)
	}
	refsByFile := make(map[string][]types.Reference)
	for _, r := range references {
		refsByFile[r.FilePath] = append(refsByFile[r.FilePath], r)
	}

	arena := storage.NewBatchArena()

	if len(files) == 0 {
		// Still clear the previous run's files and edges
		_, err := p.storage.StoreIndexedData(ctx, &storage.IndexBatch{RepositoryID: repositoryID}, arena)
		return err
	}

	for start := 0; start < len(files); start += p.chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + p.chunkSize
		if end > len(files) {
			end = len(files)
		}
		chunk := files[start:end]
		final := end == len(files)

		batch := &storage.IndexBatch{
			RepositoryID: repositoryID,
			Files:        chunk,
			SkipDelete:   start > 0,
		}
		for _, f := range chunk {
			batch.Symbols = append(batch.Symbols, symbolsByFile[f.Path]...)
			batch.References = append(batch.References, refsByFile[f.Path]...)
		}
		if final {
			batch.Edges = edges
		}

		if _, err := p.storage.StoreIndexedData(ctx, batch, arena); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	return nil
}

// IndexRepository discovers and indexes a repository root in one call
func (p *Pipeline) IndexRepository(ctx context.Context, repositoryID int64, source FileSource) (*types.JobStats, error) {
	files, skipped, err := source.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	return p.Run(ctx, repositoryID, files, skipped)
}
