// Package mcp implements the Model Context Protocol (MCP) server for CodeGraph.
//
// The MCP server exposes six tools to AI coding assistants:
//   - index_repository: Queue a background indexing job for a TypeScript/JavaScript repository
//   - search_code: Full-text search over indexed file contents
//   - get_dependencies: Walk the import graph around one file
//   - detect_cycles: Report circular dependency chains
//   - get_job_status: Query an indexing job's status and statistics
//   - list_recent_files: List the most recently indexed files
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output. Logs
// go to stderr because stdout carries the protocol stream.
//
// # Tool: index_repository
//
// Indexing is asynchronous: the tool registers the repository, enqueues a
// job, and returns immediately with a job id:
//
//	Request:
//	{
//	  "name": "index_repository",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "ref": "main"
//	  }
//	}
//
//	Response:
//	{
//	  "job_id": "5f2c7f0e-...",
//	  "repository_id": 1,
//	  "status": "pending"
//	}
//
// A repository has at most one pending or processing job at a time; a second
// index_repository call while one is active fails with error -32002 and the
// active job's id in the error data. Poll get_job_status to observe the job
// move through pending → processing → completed/failed. Failed jobs are
// retried by the background workers with a growing backoff, up to the total
// attempt budget.
//
// # Tool: search_code
//
// Searches the SQLite FTS5 index over file contents:
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "query": "validateToken",
//	    "limit": 20
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "file_path": "src/token.ts",
//	      "language": "typescript",
//	      "snippet": "...export function [validateToken](token: string)..."
//	    }
//	  ],
//	  "count": 1,
//	  "cache_hit": false
//	}
//
// # Tool: get_dependencies
//
// Walks stored import edges from one file, in either or both directions:
//
//	Request:
//	{
//	  "name": "get_dependencies",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "file_path": "src/auth.ts",
//	    "direction": "dependencies",
//	    "depth": 2
//	  }
//	}
//
//	Response:
//	{
//	  "file_path": "src/auth.ts",
//	  "direct": ["src/token.ts"],
//	  "indirect": ["src/crypto.ts"],
//	  "count": 2
//	}
//
// With "include_cycles": true the response also carries the circular import
// chains passing through the file.
//
// # Tool: detect_cycles
//
// Reports every cycle in the repository's dependency graph, at both file and
// symbol granularity:
//
//	Response:
//	{
//	  "cycles": [
//	    {
//	      "type": "file_import",
//	      "chain": [3, 7, 3],
//	      "description": "src/a.ts -> src/b.ts -> src/a.ts"
//	    }
//	  ],
//	  "count": 1
//	}
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid path",
//	    "data": {
//	      "param": "path",
//	      "reason": "path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Repository not indexed
//   - -32002: Indexing already in progress
//   - -32003: Job not found
//   - -32004: Query parameter is empty
//
// # MCP Client Configuration
//
// Configure in an MCP client's settings:
//
//	{
//	  "mcpServers": {
//	    "codegraph": {
//	      "command": "/usr/local/bin/codegraph",
//	      "env": {
//	        "CODEGRAPH_DB_PATH": "~/.codegraph"
//	      }
//	    }
//	  }
//	}
package mcp
