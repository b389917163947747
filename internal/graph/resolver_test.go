package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveImport(t *testing.T) {
	paths := map[string]struct{}{
		"src/app.ts":            {},
		"src/util/math.ts":      {},
		"src/util/format.tsx":   {},
		"src/legacy/helpers.js": {},
		"src/components/index.ts": {},
		"src/both":              {},
		"src/both.ts":           {},
	}

	tests := []struct {
		name     string
		source   string
		fromPath string
		want     string
		found    bool
	}{
		{"external package", "react", "src/app.ts", "", false},
		{"scoped external package", "@scope/pkg", "src/app.ts", "", false},
		{"sibling with extension probe", "./util/math", "src/app.ts", "src/util/math.ts", true},
		{"tsx probe", "./util/format", "src/app.ts", "src/util/format.tsx", true},
		{"js probe", "./legacy/helpers", "src/app.ts", "src/legacy/helpers.js", true},
		{"parent traversal", "../util/math", "src/util/format.tsx", "src/util/math.ts", true},
		{"directory index", "./components", "src/app.ts", "src/components/index.ts", true},
		{"literal match wins over extension probe", "./both", "src/app.ts", "src/both", true},
		{"explicit extension", "./util/math.ts", "src/app.ts", "src/util/math.ts", true},
		{"unresolvable", "./missing", "src/app.ts", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveImport(tt.source, tt.fromPath, paths)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveImportExtensionOrder(t *testing.T) {
	// .ts wins over .js when both exist
	paths := map[string]struct{}{
		"src/dual.ts": {},
		"src/dual.js": {},
	}
	got, ok := ResolveImport("./dual", "src/app.ts", paths)
	assert.True(t, ok)
	assert.Equal(t, "src/dual.ts", got)
}
