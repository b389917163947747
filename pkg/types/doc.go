// Package types provides shared type definitions for the codegraph MCP server.
//
// This package defines domain types used across multiple components of the
// indexing engine, including source files, symbols, references, dependency
// edges, circular-dependency chains, index jobs, and search results.
//
// # Core Types
//
// Symbol represents a named code entity (function, class, type, etc.)
// extracted from one source file via AST parsing:
//
//	symbol := &types.Symbol{
//	    Name:      "createUser",
//	    Kind:      types.KindFunction,
//	    FilePath:  "src/users.ts",
//	    Signature: "createUser(name: string): User",
//	}
//
// Reference represents a located usage of a name within a file, such as an
// import, a call, a property access, or a type reference:
//
//	ref := &types.Reference{
//	    FilePath:   "src/app.ts",
//	    TargetName: "createUser",
//	    Type:       types.RefCall,
//	    LineNumber: 42,
//	}
//
// DependencyEdge is a directed edge between two files or two symbols, derived
// from references by the graph builder. CircularChain reports a closed loop in
// the dependency graph; it is computed on demand, never persisted.
//
// # Index Jobs
//
// IndexJob is the unit of work representing one attempt to (re)index a
// repository. Its status field is a small state machine:
//
//	pending -> processing -> completed
//	                      -> failed -> processing (retry)
//
// JobStatus.CanTransition encodes the legal transitions; the storage engine
// enforces them with conditional updates so two workers can never move the
// same job into processing concurrently.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := symbol.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Metadata hashing
//
// Reference metadata participates in the storage dedup key. MetadataHash
// produces a reproducible SHA-256 over the canonical JSON encoding (stable
// key order), so the same physical reference re-submitted from an overlapping
// chunk always hashes identically.
package types
