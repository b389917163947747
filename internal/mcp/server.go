package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mshelton/codegraph-mcp/internal/indexer"
	"github.com/mshelton/codegraph-mcp/internal/jobqueue"
	"github.com/mshelton/codegraph-mcp/internal/search"
	"github.com/mshelton/codegraph-mcp/internal/storage"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "codegraph-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.codegraph"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	pipeline *indexer.Pipeline
	searcher *search.Searcher
	queue    *jobqueue.Queue
	logger   *slog.Logger

	// workspace, when set, confines index_repository to paths under it
	workspace string
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		// stdout carries the MCP protocol, logs go to stderr
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".codegraph")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbFile := filepath.Join(dbPath, "codegraph.db")

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		pipeline: indexer.New(store, nil),
		searcher: search.NewSearcher(store),
		logger:   logger,
	}
	if workspace := os.Getenv("CODEGRAPH_WORKSPACE"); workspace != "" {
		s.workspace = filepath.Clean(workspace)
	}
	s.queue = jobqueue.New(store, s.runIndexJob, logger, nil)

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the job workers and the MCP server on stdio, blocking until
// the client disconnects
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()

	s.queue.Start(ctx)
	defer s.queue.Stop()

	return server.ServeStdio(s.mcp)
}

// runIndexJob executes one claimed indexing job against the repository's
// working tree on disk
func (s *Server) runIndexJob(ctx context.Context, job *types.IndexJob) (*types.JobStats, error) {
	repo, err := s.storage.GetRepositoryByID(ctx, job.RepositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}

	stats, err := s.pipeline.IndexRepository(ctx, job.RepositoryID, indexer.NewLocalSource(repo.RootPath))
	if err != nil {
		return nil, err
	}

	// Cached search results may reference content that no longer exists
	s.searcher.Invalidate()
	return stats, nil
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getDependenciesTool(), s.handleGetDependencies)
	s.mcp.AddTool(detectCyclesTool(), s.handleDetectCycles)
	s.mcp.AddTool(getJobStatusTool(), s.handleGetJobStatus)
	s.mcp.AddTool(listRecentFilesTool(), s.handleListRecentFiles)
	return nil
}
