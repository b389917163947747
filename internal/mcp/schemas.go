package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Queue a background indexing job for a TypeScript/JavaScript repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"ref": map[string]interface{}{
					"type":        "string",
					"description": "Branch or ref label recorded on the job",
					"default":     "HEAD",
				},
				"commit_sha": map[string]interface{}{
					"type":        "string",
					"description": "Commit SHA recorded on the job, if known",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Full-text search over an indexed repository's file contents",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed repository",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "FTS5 match expression (words, phrases, prefix* terms)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
				"use_cache": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, serve repeated queries from the result cache",
					"default":     true,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getDependenciesTool returns the tool definition for get_dependencies
func getDependenciesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_dependencies",
		Description: "Walk the import graph around one file and report its neighbors",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed repository",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "File path relative to the repository root (e.g. 'src/auth.ts')",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Traversal direction over import edges",
					"enum":        []string{"dependencies", "dependents", "both"},
					"default":     "dependencies",
				},
				"depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum traversal depth (1-25)",
					"default":     1,
					"minimum":     1,
					"maximum":     25,
				},
				"include_cycles": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include circular import chains touching this file",
					"default":     false,
				},
			},
			Required: []string{"path", "file_path"},
		},
	}
}

// detectCyclesTool returns the tool definition for detect_cycles
func detectCyclesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "detect_cycles",
		Description: "Report all circular dependency chains in an indexed repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed repository",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getJobStatusTool returns the tool definition for get_job_status
func getJobStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_job_status",
		Description: "Query the status, retry count, and statistics of an indexing job",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"job_id": map[string]interface{}{
					"type":        "string",
					"description": "Job identifier returned by index_repository",
				},
			},
			Required: []string{"job_id"},
		},
	}
}

// listRecentFilesTool returns the tool definition for list_recent_files
func listRecentFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_recent_files",
		Description: "List the most recently indexed files in a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed repository",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of files to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path"},
		},
	}
}
