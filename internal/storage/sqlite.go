package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrJobConflict is returned when a job cannot move to the requested state
	ErrJobConflict = errors.New("job state conflict")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Repository operations

// getOrCreateRepositoryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getOrCreateRepositoryWithQuerier(ctx context.Context, q querier, rootPath string) (*Repository, error) {
	query := `
		INSERT INTO repositories (root_path, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(root_path) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING id, root_path, last_indexed_at, created_at, updated_at
	`
	now := time.Now()
	var repo Repository
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, rootPath, now, now).Scan(
		&repo.ID, &repo.RootPath, &lastIndexedAt, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create repository: %w", err)
	}
	if lastIndexedAt.Valid {
		repo.LastIndexedAt = lastIndexedAt.Time
	}
	return &repo, nil
}

func (s *SQLiteStorage) GetOrCreateRepository(ctx context.Context, rootPath string) (*Repository, error) {
	return s.getOrCreateRepositoryWithQuerier(ctx, s.querier(), rootPath)
}

// getRepositoryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getRepositoryWithQuerier(ctx context.Context, q querier, rootPath string) (*Repository, error) {
	query := `
		SELECT id, root_path, last_indexed_at, created_at, updated_at
		FROM repositories
		WHERE root_path = ?
	`
	var repo Repository
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, rootPath).Scan(
		&repo.ID, &repo.RootPath, &lastIndexedAt, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		repo.LastIndexedAt = lastIndexedAt.Time
	}
	return &repo, nil
}

func (s *SQLiteStorage) GetRepository(ctx context.Context, rootPath string) (*Repository, error) {
	return s.getRepositoryWithQuerier(ctx, s.querier(), rootPath)
}

// getRepositoryByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getRepositoryByIDWithQuerier(ctx context.Context, q querier, repositoryID int64) (*Repository, error) {
	query := `
		SELECT id, root_path, last_indexed_at, created_at, updated_at
		FROM repositories
		WHERE id = ?
	`
	var repo Repository
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, repositoryID).Scan(
		&repo.ID, &repo.RootPath, &lastIndexedAt, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		repo.LastIndexedAt = lastIndexedAt.Time
	}
	return &repo, nil
}

func (s *SQLiteStorage) GetRepositoryByID(ctx context.Context, repositoryID int64) (*Repository, error) {
	return s.getRepositoryByIDWithQuerier(ctx, s.querier(), repositoryID)
}

// touchRepositoryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) touchRepositoryWithQuerier(ctx context.Context, q querier, repositoryID int64, indexedAt time.Time) error {
	query := `UPDATE repositories SET last_indexed_at = ?, updated_at = ? WHERE id = ?`
	_, err := q.ExecContext(ctx, query, indexedAt, time.Now(), repositoryID)
	if err != nil {
		return fmt.Errorf("failed to touch repository: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) TouchRepository(ctx context.Context, repositoryID int64, indexedAt time.Time) error {
	return s.touchRepositoryWithQuerier(ctx, s.querier(), repositoryID, indexedAt)
}

// File operations

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (repository_id, path, language, content, size_bytes, indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repository_id, path) DO UPDATE SET
			language = excluded.language,
			content = excluded.content,
			size_bytes = excluded.size_bytes,
			indexed_at = excluded.indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.RepositoryID, file.Path, file.Language, file.Content,
		file.SizeBytes, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.IndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, repositoryID int64, path string) (*File, error) {
	query := `
		SELECT id, repository_id, path, language, content, size_bytes,
		       indexed_at, created_at, updated_at
		FROM files
		WHERE repository_id = ? AND path = ?
	`
	var file File
	var indexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, repositoryID, path).Scan(
		&file.ID, &file.RepositoryID, &file.Path, &file.Language, &file.Content,
		&file.SizeBytes, &indexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if indexedAt.Valid {
		file.IndexedAt = indexedAt.Time
	}
	return &file, nil
}

func (s *SQLiteStorage) GetFile(ctx context.Context, repositoryID int64, path string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), repositoryID, path)
}

// listRecentFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listRecentFilesWithQuerier(ctx context.Context, q querier, repositoryID int64, limit int) ([]*File, error) {
	query := `
		SELECT id, repository_id, path, language, content, size_bytes,
		       indexed_at, created_at, updated_at
		FROM files
		WHERE repository_id = ?
		ORDER BY indexed_at DESC, path
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, repositoryID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		var file File
		var indexedAt sql.NullTime
		err := rows.Scan(
			&file.ID, &file.RepositoryID, &file.Path, &file.Language, &file.Content,
			&file.SizeBytes, &indexedAt, &file.CreatedAt, &file.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if indexedAt.Valid {
			file.IndexedAt = indexedAt.Time
		}
		files = append(files, &file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListRecentFiles(ctx context.Context, repositoryID int64, limit int) ([]*File, error) {
	return s.listRecentFilesWithQuerier(ctx, s.querier(), repositoryID, limit)
}

// filePathsByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) filePathsByIDWithQuerier(ctx context.Context, q querier, repositoryID int64) (map[int64]string, error) {
	query := `SELECT id, path FROM files WHERE repository_id = ?`
	rows, err := q.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	paths := make(map[int64]string)
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		paths[id] = path
	}
	return paths, rows.Err()
}

func (s *SQLiteStorage) FilePathsByID(ctx context.Context, repositoryID int64) (map[int64]string, error) {
	return s.filePathsByIDWithQuerier(ctx, s.querier(), repositoryID)
}

// fileIDByPathWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) fileIDByPathWithQuerier(ctx context.Context, q querier, repositoryID int64, path string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM files WHERE repository_id = ? AND path = ?`, repositoryID, path).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStorage) FileIDByPath(ctx context.Context, repositoryID int64, path string) (int64, error) {
	return s.fileIDByPathWithQuerier(ctx, s.querier(), repositoryID, path)
}

// Symbol operations

// upsertSymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertSymbolWithQuerier(ctx context.Context, q querier, symbol *Symbol) error {
	// Use atomic INSERT ... ON CONFLICT to avoid race conditions
	query := `
		INSERT INTO symbols (
			file_id, name, kind, line_start, line_end, column_start, column_end,
			signature, documentation, is_exported, is_async, access_modifier, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, name, line_start, column_start)
		DO UPDATE SET
			kind = excluded.kind,
			line_end = excluded.line_end,
			column_end = excluded.column_end,
			signature = excluded.signature,
			documentation = excluded.documentation,
			is_exported = excluded.is_exported,
			is_async = excluded.is_async,
			access_modifier = excluded.access_modifier
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		symbol.FileID, symbol.Name, symbol.Kind,
		symbol.LineStart, symbol.LineEnd, symbol.ColumnStart, symbol.ColumnEnd,
		symbol.Signature, symbol.Documentation,
		symbol.IsExported, symbol.IsAsync, symbol.AccessModifier, now,
	).Scan(&symbol.ID, &symbol.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return s.upsertSymbolWithQuerier(ctx, s.querier(), symbol)
}

// listSymbolsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listSymbolsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Symbol, error) {
	query := `
		SELECT id, file_id, name, kind, line_start, line_end, column_start, column_end,
		       signature, documentation, is_exported, is_async, access_modifier, created_at
		FROM symbols
		WHERE file_id = ?
		ORDER BY line_start, column_start
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		var symbol Symbol
		var signature, documentation, accessModifier sql.NullString
		err := rows.Scan(
			&symbol.ID, &symbol.FileID, &symbol.Name, &symbol.Kind,
			&symbol.LineStart, &symbol.LineEnd, &symbol.ColumnStart, &symbol.ColumnEnd,
			&signature, &documentation, &symbol.IsExported, &symbol.IsAsync,
			&accessModifier, &symbol.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		symbol.Signature = signature.String
		symbol.Documentation = documentation.String
		symbol.AccessModifier = accessModifier.String
		symbols = append(symbols, &symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) ListSymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	return s.listSymbolsByFileWithQuerier(ctx, s.querier(), fileID)
}

// deleteSymbolsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteSymbolsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM symbols WHERE file_id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByFile(ctx context.Context, fileID int64) error {
	return s.deleteSymbolsByFileWithQuerier(ctx, s.querier(), fileID)
}

// symbolNamesByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) symbolNamesByIDWithQuerier(ctx context.Context, q querier, repositoryID int64) (map[int64]string, error) {
	query := `
		SELECT s.id, s.name
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE f.repository_id = ?
	`
	rows, err := q.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (s *SQLiteStorage) SymbolNamesByID(ctx context.Context, repositoryID int64) (map[int64]string, error) {
	return s.symbolNamesByIDWithQuerier(ctx, s.querier(), repositoryID)
}

// lookupSymbolIDWithQuerier resolves a symbol key to its row id
func (s *SQLiteStorage) lookupSymbolIDWithQuerier(ctx context.Context, q querier, repositoryID int64, key types.SymbolKey) (int64, error) {
	query := `
		SELECT s.id
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE f.repository_id = ? AND f.path = ? AND s.name = ? AND s.line_start = ?
		LIMIT 1
	`
	var id int64
	err := q.QueryRowContext(ctx, query, repositoryID, key.FilePath, key.Name, key.LineStart).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Reference operations

// upsertReferenceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertReferenceWithQuerier(ctx context.Context, q querier, ref *Reference) error {
	// Duplicate references (same file, line, type, and metadata) collapse to
	// one row; re-running a chunk after a failure converges instead of
	// accumulating.
	query := `
		INSERT INTO symbol_references (
			file_id, target_name, reference_type, line_number, column_number,
			metadata, metadata_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, line_number, reference_type, metadata_hash)
		DO UPDATE SET
			target_name = excluded.target_name,
			column_number = excluded.column_number
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		ref.FileID, ref.TargetName, ref.ReferenceType, ref.LineNumber, ref.ColumnNumber,
		ref.Metadata, ref.MetadataHash, now,
	).Scan(&ref.ID, &ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert reference: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertReference(ctx context.Context, ref *Reference) error {
	return s.upsertReferenceWithQuerier(ctx, s.querier(), ref)
}

// listReferencesByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listReferencesByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Reference, error) {
	query := `
		SELECT id, file_id, target_name, reference_type, line_number, column_number,
		       metadata, metadata_hash, created_at
		FROM symbol_references
		WHERE file_id = ?
		ORDER BY line_number, column_number
	`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	refs := make([]*Reference, 0)
	for rows.Next() {
		var ref Reference
		var columnNumber sql.NullInt64
		err := rows.Scan(
			&ref.ID, &ref.FileID, &ref.TargetName, &ref.ReferenceType,
			&ref.LineNumber, &columnNumber, &ref.Metadata, &ref.MetadataHash, &ref.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		ref.ColumnNumber = int(columnNumber.Int64)
		refs = append(refs, &ref)
	}
	return refs, rows.Err()
}

func (s *SQLiteStorage) ListReferencesByFile(ctx context.Context, fileID int64) ([]*Reference, error) {
	return s.listReferencesByFileWithQuerier(ctx, s.querier(), fileID)
}

// deleteReferencesByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteReferencesByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM symbol_references WHERE file_id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeleteReferencesByFile(ctx context.Context, fileID int64) error {
	return s.deleteReferencesByFileWithQuerier(ctx, s.querier(), fileID)
}

// Dependency edge operations

// insertEdgeWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertEdgeWithQuerier(ctx context.Context, q querier, edge *Edge) error {
	// INSERT OR IGNORE against the unique endpoint index keeps edge inserts
	// idempotent across chunk retries.
	query := `
		INSERT OR IGNORE INTO dependency_edges (
			dependency_type, from_file_id, to_file_id, from_symbol_id, to_symbol_id,
			metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var fromSymbol, toSymbol interface{}
	if edge.FromSymbolID != 0 {
		fromSymbol = edge.FromSymbolID
	}
	if edge.ToSymbolID != 0 {
		toSymbol = edge.ToSymbolID
	}
	metadata := edge.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	result, err := q.ExecContext(ctx, query,
		edge.DependencyType, edge.FromFileID, edge.ToFileID,
		fromSymbol, toSymbol, metadata, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert edge: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		edge.ID = id
	}
	return nil
}

func (s *SQLiteStorage) InsertEdge(ctx context.Context, edge *Edge) error {
	return s.insertEdgeWithQuerier(ctx, s.querier(), edge)
}

// listEdgesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listEdgesWithQuerier(ctx context.Context, q querier, repositoryID int64) ([]Edge, error) {
	query := `
		SELECT e.id, e.dependency_type, e.from_file_id, e.to_file_id,
		       e.from_symbol_id, e.to_symbol_id, e.metadata, e.created_at
		FROM dependency_edges e
		JOIN files f ON f.id = e.from_file_id
		WHERE f.repository_id = ?
	`
	rows, err := q.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	edges := make([]Edge, 0)
	for rows.Next() {
		var edge Edge
		var fromSymbol, toSymbol sql.NullInt64
		err := rows.Scan(
			&edge.ID, &edge.DependencyType, &edge.FromFileID, &edge.ToFileID,
			&fromSymbol, &toSymbol, &edge.Metadata, &edge.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		edge.FromSymbolID = fromSymbol.Int64
		edge.ToSymbolID = toSymbol.Int64
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func (s *SQLiteStorage) ListEdges(ctx context.Context, repositoryID int64) ([]Edge, error) {
	return s.listEdgesWithQuerier(ctx, s.querier(), repositoryID)
}

// deleteEdgesByRepositoryWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteEdgesByRepositoryWithQuerier(ctx context.Context, q querier, repositoryID int64) error {
	query := `
		DELETE FROM dependency_edges
		WHERE from_file_id IN (SELECT id FROM files WHERE repository_id = ?)
	`
	_, err := q.ExecContext(ctx, query, repositoryID)
	return err
}

func (s *SQLiteStorage) DeleteEdgesByRepository(ctx context.Context, repositoryID int64) error {
	return s.deleteEdgesByRepositoryWithQuerier(ctx, s.querier(), repositoryID)
}

// deleteFilesByRepositoryWithQuerier removes every stored file of a
// repository. Symbols, references, and remaining edges go with them through
// the cascading foreign keys, and the files_ad trigger clears the FTS rows.
func (s *SQLiteStorage) deleteFilesByRepositoryWithQuerier(ctx context.Context, q querier, repositoryID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE repository_id = ?`, repositoryID)
	return err
}

// Search operations

// searchFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) searchFilesWithQuerier(ctx context.Context, q querier, repositoryID int64, query string, limit int) ([]types.SearchResult, error) {
	// Note: In FTS5, 'rank' is a built-in virtual column representing BM25
	// relevance score. Lower rank values indicate better matches.
	sqlQuery := `
		SELECT f.path, f.repository_id, f.language,
		       snippet(files_fts, 1, '[', ']', '...', 16), f.indexed_at
		FROM files f
		JOIN files_fts fts ON f.id = fts.rowid
		WHERE files_fts MATCH ? AND f.repository_id = ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, query, repositoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]types.SearchResult, 0)
	for rows.Next() {
		var r types.SearchResult
		var indexedAt sql.NullTime
		if err := rows.Scan(&r.FilePath, &r.RepositoryID, &r.Language, &r.Snippet, &indexedAt); err != nil {
			return nil, err
		}
		if indexedAt.Valid {
			r.IndexedAt = indexedAt.Time
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) SearchFiles(ctx context.Context, repositoryID int64, query string, limit int) ([]types.SearchResult, error) {
	return s.searchFilesWithQuerier(ctx, s.querier(), repositoryID, query, limit)
}

// Transaction delegations

func (t *sqliteTx) GetOrCreateRepository(ctx context.Context, rootPath string) (*Repository, error) {
	return t.storage.getOrCreateRepositoryWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) GetRepository(ctx context.Context, rootPath string) (*Repository, error) {
	return t.storage.getRepositoryWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) GetRepositoryByID(ctx context.Context, repositoryID int64) (*Repository, error) {
	return t.storage.getRepositoryByIDWithQuerier(ctx, t.querier(), repositoryID)
}

func (t *sqliteTx) TouchRepository(ctx context.Context, repositoryID int64, indexedAt time.Time) error {
	return t.storage.touchRepositoryWithQuerier(ctx, t.querier(), repositoryID, indexedAt)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, repositoryID int64, path string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), repositoryID, path)
}

func (t *sqliteTx) ListRecentFiles(ctx context.Context, repositoryID int64, limit int) ([]*File, error) {
	return t.storage.listRecentFilesWithQuerier(ctx, t.querier(), repositoryID, limit)
}

func (t *sqliteTx) FilePathsByID(ctx context.Context, repositoryID int64) (map[int64]string, error) {
	return t.storage.filePathsByIDWithQuerier(ctx, t.querier(), repositoryID)
}

func (t *sqliteTx) FileIDByPath(ctx context.Context, repositoryID int64, path string) (int64, error) {
	return t.storage.fileIDByPathWithQuerier(ctx, t.querier(), repositoryID, path)
}

func (t *sqliteTx) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return t.storage.upsertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) ListSymbolsByFile(ctx context.Context, fileID int64) ([]*Symbol, error) {
	return t.storage.listSymbolsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteSymbolsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteSymbolsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) SymbolNamesByID(ctx context.Context, repositoryID int64) (map[int64]string, error) {
	return t.storage.symbolNamesByIDWithQuerier(ctx, t.querier(), repositoryID)
}

func (t *sqliteTx) UpsertReference(ctx context.Context, ref *Reference) error {
	return t.storage.upsertReferenceWithQuerier(ctx, t.querier(), ref)
}

func (t *sqliteTx) ListReferencesByFile(ctx context.Context, fileID int64) ([]*Reference, error) {
	return t.storage.listReferencesByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteReferencesByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteReferencesByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) InsertEdge(ctx context.Context, edge *Edge) error {
	return t.storage.insertEdgeWithQuerier(ctx, t.querier(), edge)
}

func (t *sqliteTx) ListEdges(ctx context.Context, repositoryID int64) ([]Edge, error) {
	return t.storage.listEdgesWithQuerier(ctx, t.querier(), repositoryID)
}

func (t *sqliteTx) DeleteEdgesByRepository(ctx context.Context, repositoryID int64) error {
	return t.storage.deleteEdgesByRepositoryWithQuerier(ctx, t.querier(), repositoryID)
}

func (t *sqliteTx) SearchFiles(ctx context.Context, repositoryID int64, query string, limit int) ([]types.SearchResult, error) {
	return t.storage.searchFilesWithQuerier(ctx, t.querier(), repositoryID, query, limit)
}

func (t *sqliteTx) Close() error {
	return errors.New("cannot close storage from within a transaction")
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}
