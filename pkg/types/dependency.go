package types

import (
	"errors"
	"fmt"
	"strings"
)

// DependencyType represents the granularity of a dependency edge
type DependencyType string

const (
	DepFileImport  DependencyType = "file_import"
	DepSymbolUsage DependencyType = "symbol_usage"
)

// DependencyEdge is a directed edge between two files or two symbols, derived
// from references. Before storage assigns row ids, endpoints are identified by
// file paths and symbol keys; the storage engine resolves them during insert.
// At least one endpoint pair (file or symbol) must be populated.
type DependencyEdge struct {
	Type DependencyType

	// File endpoints (file_import edges, and symbol_usage edges where the
	// owning files are known)
	FromFile string
	ToFile   string

	// Symbol endpoints (symbol_usage edges)
	FromSymbol *SymbolKey
	ToSymbol   *SymbolKey

	Metadata map[string]string
}

// Validate rejects edges with no resolvable endpoint pair
func (e *DependencyEdge) Validate() error {
	switch e.Type {
	case DepFileImport, DepSymbolUsage:
	default:
		return errors.New("invalid dependency type")
	}

	hasFilePair := e.FromFile != "" && e.ToFile != ""
	hasSymbolPair := e.FromSymbol != nil && e.ToSymbol != nil
	if !hasFilePair && !hasSymbolPair {
		return errors.New("dependency edge must connect a file pair or a symbol pair")
	}
	return nil
}

// CircularChain reports one closed loop in the dependency graph. Chain holds
// node ids in traversal order with the entry node repeated at the end, e.g.
// [a, b, c, a]. Chains are computed from current edges on demand and never
// persisted.
type CircularChain struct {
	Type        DependencyType `json:"type"`
	Chain       []int64        `json:"chain"`
	Description string         `json:"description"`
}

// DescribeChain renders a human-readable cycle description from node names,
// e.g. "a.ts -> b.ts -> a.ts".
func DescribeChain(names []string) string {
	return strings.Join(names, " -> ")
}

// String implements fmt.Stringer
func (c CircularChain) String() string {
	return fmt.Sprintf("%s cycle: %s", c.Type, c.Description)
}
