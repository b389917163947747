package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying indexed code data
type Storage interface {
	// Repository operations
	GetOrCreateRepository(ctx context.Context, rootPath string) (*Repository, error)
	GetRepository(ctx context.Context, rootPath string) (*Repository, error)
	GetRepositoryByID(ctx context.Context, repositoryID int64) (*Repository, error)
	TouchRepository(ctx context.Context, repositoryID int64, indexedAt time.Time) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, repositoryID int64, path string) (*File, error)
	ListRecentFiles(ctx context.Context, repositoryID int64, limit int) ([]*File, error)
	FilePathsByID(ctx context.Context, repositoryID int64) (map[int64]string, error)
	FileIDByPath(ctx context.Context, repositoryID int64, path string) (int64, error)

	// Symbol operations
	UpsertSymbol(ctx context.Context, symbol *Symbol) error
	ListSymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error)
	DeleteSymbolsByFile(ctx context.Context, fileID int64) error
	SymbolNamesByID(ctx context.Context, repositoryID int64) (map[int64]string, error)

	// Reference operations
	UpsertReference(ctx context.Context, ref *Reference) error
	ListReferencesByFile(ctx context.Context, fileID int64) ([]*Reference, error)
	DeleteReferencesByFile(ctx context.Context, fileID int64) error

	// Dependency edge operations
	InsertEdge(ctx context.Context, edge *Edge) error
	ListEdges(ctx context.Context, repositoryID int64) ([]Edge, error)
	DeleteEdgesByRepository(ctx context.Context, repositoryID int64) error

	// Search operations
	SearchFiles(ctx context.Context, repositoryID int64, query string, limit int) ([]types.SearchResult, error)

	// Job operations
	CreateJob(ctx context.Context, job *types.IndexJob) error
	GetJob(ctx context.Context, jobID string) (*types.IndexJob, error)
	GetActiveJob(ctx context.Context, repositoryID int64) (*types.IndexJob, error)
	ClaimNextJob(ctx context.Context, now time.Time, retryBackoff time.Duration) (*types.IndexJob, error)
	CompleteJob(ctx context.Context, jobID string, stats *types.JobStats) error
	FailJob(ctx context.Context, jobID string, errMessage string) error
	ExpireStaleJobs(ctx context.Context, now time.Time, maxAge time.Duration) (int, error)
	ArchiveCompletedJobs(ctx context.Context, now time.Time, retention time.Duration) (int, error)

	// Batch operations
	StoreIndexedData(ctx context.Context, batch *IndexBatch, arena *BatchArena) (*BatchStats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Repository represents an indexed codebase
type Repository struct {
	ID            int64
	RootPath      string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a tracked source file
type File struct {
	ID           int64
	RepositoryID int64
	Path         string // Relative to repository root
	Language     string
	Content      string
	SizeBytes    int64
	IndexedAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Symbol represents a code symbol from AST parsing
type Symbol struct {
	ID             int64
	FileID         int64
	Name           string
	Kind           string
	LineStart      int
	LineEnd        int
	ColumnStart    int
	ColumnEnd      int
	Signature      string
	Documentation  string
	IsExported     bool
	IsAsync        bool
	AccessModifier string
	CreatedAt      time.Time
}

// Reference represents a located usage of a name within a file. Metadata is
// stored as canonical JSON; MetadataHash is its SHA-256 digest and part of
// the row's identity.
type Reference struct {
	ID            int64
	FileID        int64
	TargetName    string
	ReferenceType string
	LineNumber    int
	ColumnNumber  int
	Metadata      string
	MetadataHash  string
	CreatedAt     time.Time
}

// Edge represents a stored dependency edge. File endpoints are always set;
// symbol endpoints are set on symbol_usage edges, with zero standing for a
// module-level source.
type Edge struct {
	ID             int64
	DependencyType string
	FromFileID     int64
	ToFileID       int64
	FromSymbolID   int64
	ToSymbolID     int64
	Metadata       string
	CreatedAt      time.Time
}

// ToTypesSymbol converts storage Symbol to types.Symbol
func (s *Symbol) ToTypesSymbol(filePath string) types.Symbol {
	return types.Symbol{
		Name:           s.Name,
		Kind:           types.SymbolKind(s.Kind),
		FilePath:       filePath,
		LineStart:      s.LineStart,
		LineEnd:        s.LineEnd,
		ColumnStart:    s.ColumnStart,
		ColumnEnd:      s.ColumnEnd,
		Signature:      s.Signature,
		Documentation:  s.Documentation,
		IsExported:     s.IsExported,
		IsAsync:        s.IsAsync,
		AccessModifier: types.AccessModifier(s.AccessModifier),
	}
}

// FromTypesSymbol converts types.Symbol to storage Symbol
func FromTypesSymbol(s types.Symbol, fileID int64) *Symbol {
	return &Symbol{
		FileID:         fileID,
		Name:           s.Name,
		Kind:           string(s.Kind),
		LineStart:      s.LineStart,
		LineEnd:        s.LineEnd,
		ColumnStart:    s.ColumnStart,
		ColumnEnd:      s.ColumnEnd,
		Signature:      s.Signature,
		Documentation:  s.Documentation,
		IsExported:     s.IsExported,
		IsAsync:        s.IsAsync,
		AccessModifier: string(s.AccessModifier),
	}
}

// FromTypesReference converts types.Reference to storage Reference. The
// metadata JSON and its hash are computed once here so the stored
// representation and the dedup key always agree.
func FromTypesReference(r types.Reference, fileID int64) *Reference {
	metadata := "{}"
	if len(r.Metadata) > 0 {
		if data, err := json.Marshal(r.Metadata); err == nil {
			metadata = string(data)
		}
	}
	return &Reference{
		FileID:        fileID,
		TargetName:    r.TargetName,
		ReferenceType: string(r.Type),
		LineNumber:    r.LineNumber,
		ColumnNumber:  r.ColumnNumber,
		Metadata:      metadata,
		MetadataHash:  r.MetadataHash(),
	}
}

// ToTypesReference converts storage Reference to types.Reference
func (r *Reference) ToTypesReference(filePath string) types.Reference {
	ref := types.Reference{
		FilePath:     filePath,
		TargetName:   r.TargetName,
		Type:         types.ReferenceType(r.ReferenceType),
		LineNumber:   r.LineNumber,
		ColumnNumber: r.ColumnNumber,
	}
	if r.Metadata != "" && r.Metadata != "{}" {
		_ = json.Unmarshal([]byte(r.Metadata), &ref.Metadata)
	}
	return ref
}
