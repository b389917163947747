//go:build fts5
// +build fts5

package storage

// This file is compiled when building with CGO and the fts5 tag.
// It uses the C SQLite implementation with FTS5 compiled in.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "fts5" ./...
//
// The CGO implementation provides:
//   - Fast C implementation of FTS5 full-text search
//   - Lower memory overhead on large indexes
//   - Recommended for production deployments
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
