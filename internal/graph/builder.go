package graph

import (
	"fmt"
	"sort"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// BuildDependencies derives dependency edges from one indexing run's extracted
// data. Import references become file_import edges through ResolveImport;
// call, property access, type, and heritage references become symbol_usage
// edges by matching the target name against every symbol in the run. Edges
// are deduplicated; a file importing itself or a symbol referring to its own
// name produces a self-loop, which cycle detection reports as a two-element
// chain with the node repeated, [a, a].
func BuildDependencies(files []types.SourceFile, symbols []types.Symbol, references []types.Reference) []types.DependencyEdge {
	paths := make(map[string]struct{}, len(files))
	for _, f := range files {
		paths[f.Path] = struct{}{}
	}

	// Target lookup: every symbol in the run, keyed by name
	byName := make(map[string][]types.Symbol)
	// Source lookup: symbols of one file ordered by span, for enclosing lookup
	byFile := make(map[string][]types.Symbol)
	for _, s := range symbols {
		byName[s.Name] = append(byName[s.Name], s)
		byFile[s.FilePath] = append(byFile[s.FilePath], s)
	}
	for _, syms := range byFile {
		sort.Slice(syms, func(i, j int) bool {
			return spanOf(syms[i]) < spanOf(syms[j])
		})
	}

	var edges []types.DependencyEdge
	seen := make(map[string]struct{})
	add := func(edge types.DependencyEdge) {
		key := edgeKey(edge)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		edges = append(edges, edge)
	}

	for _, ref := range references {
		switch ref.Type {
		case types.RefImport:
			target, ok := ResolveImport(ref.ImportSource(), ref.FilePath, paths)
			if !ok {
				continue
			}
			add(types.DependencyEdge{
				Type:     types.DepFileImport,
				FromFile: ref.FilePath,
				ToFile:   target,
				Metadata: map[string]string{"source": ref.ImportSource()},
			})

		case types.RefCall, types.RefPropertyAccess, types.RefTypeReference,
			types.RefExtends, types.RefImplements:
			targets := byName[ref.TargetName]
			if len(targets) == 0 {
				continue
			}
			from := enclosingSymbol(byFile[ref.FilePath], ref.LineNumber)
			for _, target := range targets {
				edge := types.DependencyEdge{
					Type:     types.DepSymbolUsage,
					FromFile: ref.FilePath,
					ToFile:   target.FilePath,
					ToSymbol: keyPtr(target.Key()),
					Metadata: map[string]string{"reference_type": string(ref.Type)},
				}
				if from != nil {
					edge.FromSymbol = keyPtr(from.Key())
				}
				add(edge)
			}
		}
	}

	return edges
}

// enclosingSymbol returns the narrowest symbol in fileSymbols whose line span
// contains line, or nil when the reference sits at module level. fileSymbols
// must be sorted narrowest-first.
func enclosingSymbol(fileSymbols []types.Symbol, line int) *types.Symbol {
	for i := range fileSymbols {
		s := &fileSymbols[i]
		if s.LineStart <= line && line <= s.LineEnd {
			return s
		}
	}
	return nil
}

func spanOf(s types.Symbol) int {
	return s.LineEnd - s.LineStart
}

func keyPtr(k types.SymbolKey) *types.SymbolKey {
	return &k
}

// edgeKey renders the identity of an edge for in-run deduplication
func edgeKey(e types.DependencyEdge) string {
	from, to := "", ""
	if e.FromSymbol != nil {
		from = fmt.Sprintf("%s:%s:%d", e.FromSymbol.FilePath, e.FromSymbol.Name, e.FromSymbol.LineStart)
	}
	if e.ToSymbol != nil {
		to = fmt.Sprintf("%s:%s:%d", e.ToSymbol.FilePath, e.ToSymbol.Name, e.ToSymbol.LineStart)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", e.Type, e.FromFile, e.ToFile, from, to)
}
