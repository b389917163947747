package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// parse is a test helper that fails on any parse error
func parse(t *testing.T, path, src string) *types.ParseResult {
	t.Helper()
	result := New().Parse(context.Background(), path, []byte(src))
	require.Empty(t, result.Errors, "unexpected parse errors")
	return result
}

func TestLanguageForPath(t *testing.T) {
	tests := []struct {
		path     string
		language string
		ok       bool
	}{
		{"src/index.ts", "typescript", true},
		{"src/App.tsx", "typescript", true},
		{"lib/util.js", "javascript", true},
		{"lib/Button.jsx", "javascript", true},
		{"config.mjs", "javascript", true},
		{"legacy.cjs", "javascript", true},
		{"SRC/INDEX.TS", "typescript", true},
		{"styles.css", "", false},
		{"README.md", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		lang, ok := LanguageForPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.language, lang, tt.path)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	result := New().Parse(context.Background(), "styles.css", []byte("body { color: red; }"))

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "unsupported file extension")
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.References)
}

func TestParseSyntaxError(t *testing.T) {
	src := "export function valid() {}\nexport function broken( {{{\n"
	result := New().Parse(context.Background(), "src/broken.ts", []byte(src))

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "syntax error", result.Errors[0].Message)
	assert.Greater(t, result.Errors[0].Line, 0, "error carries a position")
	assert.Empty(t, result.Symbols, "broken files yield no partial symbols")
}

func TestParseSetsLanguage(t *testing.T) {
	result := parse(t, "src/ok.ts", "export const x = 1;\n")
	assert.Equal(t, "typescript", result.Language)

	result = parse(t, "src/ok.js", "const x = 1;\n")
	assert.Equal(t, "javascript", result.Language)
}

func TestParseTSX(t *testing.T) {
	src := `export function Button(props: { label: string }) {
  return <button>{props.label}</button>;
}
`
	result := parse(t, "src/Button.tsx", src)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "Button", result.Symbols[0].Name)
	assert.Equal(t, types.KindFunction, result.Symbols[0].Kind)
}

func TestParseEmptyFile(t *testing.T) {
	result := parse(t, "src/empty.ts", "")
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.References)
}
