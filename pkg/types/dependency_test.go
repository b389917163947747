package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDependencyEdgeValidate(t *testing.T) {
	filePair := DependencyEdge{Type: DepFileImport, FromFile: "src/a.ts", ToFile: "src/b.ts"}
	assert.NoError(t, filePair.Validate())

	symbolPair := DependencyEdge{
		Type:       DepSymbolUsage,
		FromSymbol: &SymbolKey{FilePath: "src/a.ts", Name: "run", LineStart: 2},
		ToSymbol:   &SymbolKey{FilePath: "src/b.ts", Name: "helper", LineStart: 1},
	}
	assert.NoError(t, symbolPair.Validate())

	badType := filePair
	badType.Type = DependencyType("bogus")
	assert.Error(t, badType.Validate())

	// Half a file pair and no symbol pair resolves to nothing
	dangling := DependencyEdge{Type: DepFileImport, FromFile: "src/a.ts"}
	assert.Error(t, dangling.Validate())
}

func TestDescribeChain(t *testing.T) {
	assert.Equal(t, "a.ts -> b.ts -> a.ts", DescribeChain([]string{"a.ts", "b.ts", "a.ts"}))

	chain := CircularChain{
		Type:        DepFileImport,
		Chain:       []int64{1, 2, 1},
		Description: "a.ts -> b.ts -> a.ts",
	}
	assert.Equal(t, "file_import cycle: a.ts -> b.ts -> a.ts", chain.String())
}
