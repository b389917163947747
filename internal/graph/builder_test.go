package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

func TestBuildDependenciesFileImports(t *testing.T) {
	files := []types.SourceFile{
		{Path: "src/app.ts"},
		{Path: "src/util.ts"},
	}
	refs := []types.Reference{
		{
			FilePath: "src/app.ts", TargetName: "helper", Type: types.RefImport, LineNumber: 1,
			Metadata: map[string]string{"source": "./util", "kind": types.ImportNamed},
		},
		{
			FilePath: "src/app.ts", TargetName: "react", Type: types.RefImport, LineNumber: 2,
			Metadata: map[string]string{"source": "react", "kind": types.ImportDefault},
		},
	}

	edges := BuildDependencies(files, nil, refs)
	require.Len(t, edges, 1, "external import must not produce an edge")
	assert.Equal(t, types.DepFileImport, edges[0].Type)
	assert.Equal(t, "src/app.ts", edges[0].FromFile)
	assert.Equal(t, "src/util.ts", edges[0].ToFile)
}

func TestBuildDependenciesDeduplicates(t *testing.T) {
	files := []types.SourceFile{
		{Path: "src/a.ts"},
		{Path: "src/b.ts"},
	}
	// Two named imports from the same module: one edge
	refs := []types.Reference{
		{
			FilePath: "src/a.ts", TargetName: "x", Type: types.RefImport, LineNumber: 1,
			Metadata: map[string]string{"source": "./b", "kind": types.ImportNamed},
		},
		{
			FilePath: "src/a.ts", TargetName: "y", Type: types.RefImport, LineNumber: 1,
			Metadata: map[string]string{"source": "./b", "kind": types.ImportNamed},
		},
	}

	edges := BuildDependencies(files, nil, refs)
	assert.Len(t, edges, 1)
}

func TestBuildDependenciesSymbolUsage(t *testing.T) {
	files := []types.SourceFile{
		{Path: "src/a.ts"},
		{Path: "src/b.ts"},
	}
	symbols := []types.Symbol{
		{Name: "caller", Kind: types.KindFunction, FilePath: "src/a.ts", LineStart: 1, LineEnd: 5},
		{Name: "helper", Kind: types.KindFunction, FilePath: "src/b.ts", LineStart: 1, LineEnd: 3},
	}
	refs := []types.Reference{
		{FilePath: "src/a.ts", TargetName: "helper", Type: types.RefCall, LineNumber: 3},
	}

	edges := BuildDependencies(files, symbols, refs)
	require.Len(t, edges, 1)

	edge := edges[0]
	assert.Equal(t, types.DepSymbolUsage, edge.Type)
	assert.Equal(t, "src/a.ts", edge.FromFile)
	assert.Equal(t, "src/b.ts", edge.ToFile)
	require.NotNil(t, edge.FromSymbol)
	require.NotNil(t, edge.ToSymbol)
	assert.Equal(t, "caller", edge.FromSymbol.Name)
	assert.Equal(t, "helper", edge.ToSymbol.Name)
}

func TestBuildDependenciesModuleLevelReference(t *testing.T) {
	// A reference outside any symbol span still produces an edge, with no
	// source symbol.
	files := []types.SourceFile{{Path: "src/a.ts"}, {Path: "src/b.ts"}}
	symbols := []types.Symbol{
		{Name: "helper", Kind: types.KindFunction, FilePath: "src/b.ts", LineStart: 1, LineEnd: 3},
	}
	refs := []types.Reference{
		{FilePath: "src/a.ts", TargetName: "helper", Type: types.RefCall, LineNumber: 10},
	}

	edges := BuildDependencies(files, symbols, refs)
	require.Len(t, edges, 1)
	assert.Nil(t, edges[0].FromSymbol)
	require.NotNil(t, edges[0].ToSymbol)
	assert.Equal(t, "helper", edges[0].ToSymbol.Name)
}

func TestBuildDependenciesNarrowestEnclosingSymbol(t *testing.T) {
	files := []types.SourceFile{{Path: "src/a.ts"}}
	symbols := []types.Symbol{
		{Name: "Outer", Kind: types.KindClass, FilePath: "src/a.ts", LineStart: 1, LineEnd: 20},
		{Name: "inner", Kind: types.KindMethod, FilePath: "src/a.ts", LineStart: 5, LineEnd: 10},
		{Name: "target", Kind: types.KindFunction, FilePath: "src/a.ts", LineStart: 25, LineEnd: 30},
	}
	refs := []types.Reference{
		{FilePath: "src/a.ts", TargetName: "target", Type: types.RefCall, LineNumber: 7},
	}

	edges := BuildDependencies(files, symbols, refs)
	require.Len(t, edges, 1)
	require.NotNil(t, edges[0].FromSymbol)
	assert.Equal(t, "inner", edges[0].FromSymbol.Name, "narrowest enclosing symbol wins")
}

func TestBuildDependenciesSelfReference(t *testing.T) {
	// Recursion: a function calling itself yields a symbol self-loop
	files := []types.SourceFile{{Path: "src/a.ts"}}
	symbols := []types.Symbol{
		{Name: "fib", Kind: types.KindFunction, FilePath: "src/a.ts", LineStart: 1, LineEnd: 5},
	}
	refs := []types.Reference{
		{FilePath: "src/a.ts", TargetName: "fib", Type: types.RefCall, LineNumber: 3},
	}

	edges := BuildDependencies(files, symbols, refs)
	require.Len(t, edges, 1)
	require.NotNil(t, edges[0].FromSymbol)
	require.NotNil(t, edges[0].ToSymbol)
	assert.Equal(t, *edges[0].FromSymbol, *edges[0].ToSymbol)
}

func TestBuildDependenciesGlobalNameMatching(t *testing.T) {
	// Name matching is repository-wide: two files declaring the same name
	// both receive an edge from one reference.
	files := []types.SourceFile{{Path: "src/a.ts"}, {Path: "src/b.ts"}, {Path: "src/c.ts"}}
	symbols := []types.Symbol{
		{Name: "run", Kind: types.KindFunction, FilePath: "src/b.ts", LineStart: 1, LineEnd: 3},
		{Name: "run", Kind: types.KindFunction, FilePath: "src/c.ts", LineStart: 1, LineEnd: 3},
	}
	refs := []types.Reference{
		{FilePath: "src/a.ts", TargetName: "run", Type: types.RefCall, LineNumber: 1},
	}

	edges := BuildDependencies(files, symbols, refs)
	assert.Len(t, edges, 2)
}
