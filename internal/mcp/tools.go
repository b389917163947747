package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mshelton/codegraph-mcp/internal/graph"
	"github.com/mshelton/codegraph-mcp/internal/jobqueue"
	"github.com/mshelton/codegraph-mcp/internal/search"
	"github.com/mshelton/codegraph-mcp/internal/storage"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed         = -32001 // Repository not indexed
	ErrorCodeIndexingInProgress = -32002 // Repository already has an active job
	ErrorCodeJobNotFound        = -32003 // Unknown job identifier
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// maxTraversalDepth caps how far get_dependencies walks the import graph
const maxTraversalDepth = 25

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	if s.workspace != "" && !withinWorkspace(s.workspace, filepath.Clean(path)) {
		return nil, newMCPError(ErrorCodeInvalidParams, "path is outside the configured workspace", map[string]interface{}{
			"param":     "path",
			"workspace": s.workspace,
		})
	}

	ref := getStringDefault(args, "ref", "HEAD")
	commitSha := getStringDefault(args, "commit_sha", "")

	repo, err := s.storage.GetOrCreateRepository(ctx, filepath.Clean(path))
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to register repository", map[string]interface{}{
			"error": err.Error(),
		})
	}

	job, err := s.queue.Enqueue(ctx, repo.ID, ref, commitSha)
	if errors.Is(err, jobqueue.ErrJobActive) {
		data := map[string]interface{}{"repository_id": repo.ID}
		if active, aerr := s.storage.GetActiveJob(ctx, repo.ID); aerr == nil {
			data["job_id"] = active.ID
			data["status"] = string(active.Status)
		}
		return nil, newMCPError(ErrorCodeIndexingInProgress, "repository already has an active indexing job", data)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to enqueue indexing job", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"job_id":        job.ID,
		"repository_id": repo.ID,
		"path":          repo.RootPath,
		"status":        string(job.Status),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", search.DefaultLimit)
	if limit < 1 || limit > search.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", search.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	useCache := getBoolDefault(args, "use_cache", true)

	repo, err := s.lookupRepository(ctx, path)
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, search.Request{
		RepositoryID: repo.ID,
		Query:        query,
		Limit:        limit,
		UseCache:     useCache,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"file_path":  r.FilePath,
			"language":   r.Language,
			"snippet":    r.Snippet,
			"indexed_at": r.IndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	response := map[string]interface{}{
		"results":     results,
		"count":       len(results),
		"duration_ms": resp.Duration.Milliseconds(),
		"cache_hit":   resp.CacheHit,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDependencies handles the get_dependencies tool invocation
func (s *Server) handleGetDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "file_path parameter is required", map[string]interface{}{
			"param":  "file_path",
			"reason": "missing or empty",
		})
	}

	direction := graph.Direction(getStringDefault(args, "direction", string(graph.DirDependencies)))
	if !graph.ValidDirection(direction) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid direction", map[string]interface{}{
			"param":   "direction",
			"value":   string(direction),
			"allowed": []string{"dependencies", "dependents", "both"},
		})
	}

	depth := getIntDefault(args, "depth", 1)
	if depth < 1 || depth > maxTraversalDepth {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("depth must be between 1 and %d", maxTraversalDepth), map[string]interface{}{
			"param": "depth",
			"value": depth,
		})
	}
	includeCycles := getBoolDefault(args, "include_cycles", false)

	repo, err := s.lookupRepository(ctx, path)
	if err != nil {
		return nil, err
	}

	fileID, err := s.storage.FileIDByPath(ctx, repo.ID, filePath)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeInvalidParams, "file not indexed", map[string]interface{}{
			"param": "file_path",
			"value": filePath,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to look up file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	edges, filePaths, err := s.loadGraph(ctx, repo.ID)
	if err != nil {
		return nil, err
	}

	direct, indirect := graph.Neighborhood(edges, filePaths, fileID, direction, depth)
	report := types.DependencyReport{
		FilePath: filePath,
		Direct:   direct,
		Indirect: indirect,
		Count:    len(direct) + len(indirect),
	}
	// Encode empty levels as [] rather than null
	if report.Direct == nil {
		report.Direct = []string{}
	}
	if report.Indirect == nil {
		report.Indirect = []string{}
	}

	if includeCycles {
		symbolNames, err := s.storage.SymbolNamesByID(ctx, repo.ID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to load symbols", map[string]interface{}{
				"error": err.Error(),
			})
		}
		chains := graph.DetectCircularChains(edges, filePaths, symbolNames)
		report.Cycles = chainsThroughFile(chains, fileID)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode dependency report", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleDetectCycles handles the detect_cycles tool invocation
func (s *Server) handleDetectCycles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	repo, err := s.lookupRepository(ctx, path)
	if err != nil {
		return nil, err
	}

	edges, filePaths, err := s.loadGraph(ctx, repo.ID)
	if err != nil {
		return nil, err
	}
	symbolNames, err := s.storage.SymbolNamesByID(ctx, repo.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load symbols", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chains := graph.DetectCircularChains(edges, filePaths, symbolNames)

	response := map[string]interface{}{
		"cycles": chains,
		"count":  len(chains),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetJobStatus handles the get_job_status tool invocation
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	jobID, ok := args["job_id"].(string)
	if !ok || jobID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "job_id parameter is required", map[string]interface{}{
			"param":  "job_id",
			"reason": "missing or empty",
		})
	}

	job, err := s.storage.GetJob(ctx, jobID)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeJobNotFound, "job not found", map[string]interface{}{
			"job_id": jobID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load job", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"job_id":        job.ID,
		"repository_id": job.RepositoryID,
		"ref":           job.Ref,
		"status":        string(job.Status),
		"retry_count":   job.RetryCount,
		"created_at":    job.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if job.CommitSha != "" {
		response["commit_sha"] = job.CommitSha
	}
	if !job.StartedAt.IsZero() {
		response["started_at"] = job.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if job.CompletedAt != nil {
		response["completed_at"] = job.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if job.ErrorMessage != "" {
		response["error_message"] = job.ErrorMessage
	}
	if job.Stats != nil {
		response["stats"] = job.Stats
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListRecentFiles handles the list_recent_files tool invocation
func (s *Server) handleListRecentFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	repo, err := s.lookupRepository(ctx, path)
	if err != nil {
		return nil, err
	}

	files, err := s.storage.ListRecentFiles(ctx, repo.ID, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list files", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		entries = append(entries, map[string]interface{}{
			"path":       f.Path,
			"language":   f.Language,
			"size_bytes": f.SizeBytes,
			"indexed_at": f.IndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	response := map[string]interface{}{
		"files": entries,
		"count": len(entries),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// lookupRepository resolves a validated path to a previously indexed
// repository without creating one
func (s *Server) lookupRepository(ctx context.Context, path string) (*storage.Repository, error) {
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	repo, err := s.storage.GetRepository(ctx, filepath.Clean(path))
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeNotIndexed, "repository not indexed", map[string]interface{}{
			"path":   path,
			"reason": "use index_repository to index this repository first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load repository", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return repo, nil
}

// loadGraph fetches a repository's stored edges and file names for traversal
func (s *Server) loadGraph(ctx context.Context, repositoryID int64) ([]graph.EdgeIDs, map[int64]string, error) {
	edges, err := s.storage.ListEdges(ctx, repositoryID)
	if err != nil {
		return nil, nil, newMCPError(ErrorCodeInternalError, "failed to load dependency edges", map[string]interface{}{
			"error": err.Error(),
		})
	}
	filePaths, err := s.storage.FilePathsByID(ctx, repositoryID)
	if err != nil {
		return nil, nil, newMCPError(ErrorCodeInternalError, "failed to load files", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return edgeIDs(edges), filePaths, nil
}

// edgeIDs converts stored edges to the graph package's traversal form
func edgeIDs(edges []storage.Edge) []graph.EdgeIDs {
	ids := make([]graph.EdgeIDs, len(edges))
	for i, e := range edges {
		ids[i] = graph.EdgeIDs{
			Type:         types.DependencyType(e.DependencyType),
			FromFileID:   e.FromFileID,
			ToFileID:     e.ToFileID,
			FromSymbolID: e.FromSymbolID,
			ToSymbolID:   e.ToSymbolID,
		}
	}
	return ids
}

// chainsThroughFile keeps the import cycles that pass through one file
func chainsThroughFile(chains []types.CircularChain, fileID int64) []types.CircularChain {
	filtered := make([]types.CircularChain, 0)
	for _, chain := range chains {
		if chain.Type != types.DepFileImport {
			continue
		}
		for _, node := range chain.Chain {
			if node == fileID {
				filtered = append(filtered, chain)
				break
			}
		}
	}
	return filtered
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is an accessible directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// withinWorkspace reports whether path lies under root
func withinWorkspace(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
