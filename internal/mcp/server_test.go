package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := NewServer(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.storage.Close() })
	return server
}

// writeProject lays out a small TypeScript project with an import cycle
// between a.ts and b.ts
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/a.ts": "import { b } from './b';\nexport function a() { return b(); }\n",
		"src/b.ts": "import { a } from './a';\nexport function b() { return 1; }\n",
		"src/util.ts": "export function formatDate(d: Date) {\n" +
			"  return d.toISOString();\n}\n",
	}
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

// decodeResult parses a tool result's JSON text payload
func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results are text content")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func assertMCPErrorCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}

func TestServerInitialization(t *testing.T) {
	server := newTestServer(t)
	assert.NotNil(t, server.mcp)
	assert.NotNil(t, server.storage)
	assert.NotNil(t, server.pipeline)
	assert.NotNil(t, server.searcher)
	assert.NotNil(t, server.queue)
}

func TestIndexAndQueryLifecycle(t *testing.T) {
	server := newTestServer(t)
	root := writeProject(t)
	ctx := context.Background()

	// Queue the indexing job
	result, err := server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": root,
		"ref":  "main",
	}))
	require.NoError(t, err)
	response := decodeResult(t, result)
	jobID, _ := response["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "pending", response["status"])

	// The repository's indexing slot is taken until the job settles
	_, err = server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": root,
	}))
	assertMCPErrorCode(t, err, ErrorCodeIndexingInProgress)

	server.queue.Start(ctx)
	defer server.queue.Stop()
	status := waitForJob(t, server, jobID, "completed")

	stats, ok := status["stats"].(map[string]interface{})
	require.True(t, ok, "completed jobs carry stats")
	assert.Equal(t, float64(3), stats["files_indexed"])

	// Search the indexed content
	result, err = server.handleSearchCode(ctx, callRequest(map[string]interface{}{
		"path":  root,
		"query": "formatDate",
	}))
	require.NoError(t, err)
	response = decodeResult(t, result)
	results, _ := response["results"].([]interface{})
	require.NotEmpty(t, results)
	hit := results[0].(map[string]interface{})
	assert.Equal(t, "src/util.ts", hit["file_path"])

	// Walk the import graph
	result, err = server.handleGetDependencies(ctx, callRequest(map[string]interface{}{
		"path":           root,
		"file_path":      "src/a.ts",
		"direction":      "dependencies",
		"include_cycles": true,
	}))
	require.NoError(t, err)
	response = decodeResult(t, result)
	direct, _ := response["direct"].([]interface{})
	assert.Contains(t, direct, "src/b.ts")
	cycles, _ := response["cycles"].([]interface{})
	assert.NotEmpty(t, cycles, "a.ts and b.ts import each other")

	// Report all cycles
	result, err = server.handleDetectCycles(ctx, callRequest(map[string]interface{}{
		"path": root,
	}))
	require.NoError(t, err)
	response = decodeResult(t, result)
	assert.GreaterOrEqual(t, response["count"].(float64), float64(1))

	// Recently indexed files
	result, err = server.handleListRecentFiles(ctx, callRequest(map[string]interface{}{
		"path": root,
	}))
	require.NoError(t, err)
	response = decodeResult(t, result)
	assert.Equal(t, float64(3), response["count"])

	// The slot frees up after the job completes
	_, err = server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": root,
	}))
	assert.NoError(t, err)
}

func waitForJob(t *testing.T, server *Server, jobID, want string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		result, err := server.handleGetJobStatus(context.Background(), callRequest(map[string]interface{}{
			"job_id": jobID,
		}))
		require.NoError(t, err)
		status := decodeResult(t, result)
		if status["status"] == want {
			return status
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestSearchRequiresIndexedRepository(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleSearchCode(context.Background(), callRequest(map[string]interface{}{
		"path":  t.TempDir(),
		"query": "anything",
	}))
	assertMCPErrorCode(t, err, ErrorCodeNotIndexed)
}

func TestIndexRepositoryRejectsBadPaths(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, err := server.handleIndexRepository(ctx, callRequest(map[string]interface{}{}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)

	_, err = server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": "relative/path",
	}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)

	_, err = server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing"),
	}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)
}

func TestIndexRepositoryWorkspaceBoundary(t *testing.T) {
	workspace := t.TempDir()
	inside := filepath.Join(workspace, "project")
	require.NoError(t, os.MkdirAll(inside, 0755))
	outside := t.TempDir()

	t.Setenv("CODEGRAPH_WORKSPACE", workspace)
	server := newTestServer(t)
	ctx := context.Background()

	_, err := server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": outside,
	}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)

	_, err = server.handleIndexRepository(ctx, callRequest(map[string]interface{}{
		"path": inside,
	}))
	assert.NoError(t, err)
}

func TestSearchCodeRejectsEmptyQuery(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleSearchCode(context.Background(), callRequest(map[string]interface{}{
		"path": t.TempDir(),
	}))
	assertMCPErrorCode(t, err, ErrorCodeEmptyQuery)
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleGetJobStatus(context.Background(), callRequest(map[string]interface{}{
		"job_id": "no-such-job",
	}))
	assertMCPErrorCode(t, err, ErrorCodeJobNotFound)
}

func TestGetDependenciesValidation(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, err := server.handleGetDependencies(ctx, callRequest(map[string]interface{}{
		"path": t.TempDir(),
	}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)

	_, err = server.handleGetDependencies(ctx, callRequest(map[string]interface{}{
		"path":      t.TempDir(),
		"file_path": "src/a.ts",
		"direction": "sideways",
	}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)

	_, err = server.handleGetDependencies(ctx, callRequest(map[string]interface{}{
		"path":      t.TempDir(),
		"file_path": "src/a.ts",
		"depth":     0,
	}))
	assertMCPErrorCode(t, err, ErrorCodeInvalidParams)
}
