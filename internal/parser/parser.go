package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// extLanguages is the extension allow-list. Files outside it are reported as
// unsupported rather than attempted.
var extLanguages = map[string]string{
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
}

// LanguageForPath returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not supported.
func LanguageForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extLanguages[ext]
	return lang, ok
}

// Parser handles AST-based parsing of TypeScript and JavaScript source files.
// Each Parse call creates its own tree-sitter parser instance, so a Parser is
// safe for concurrent use across goroutines.
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// grammarForPath selects the tree-sitter grammar: tsx for .tsx files,
// typescript for .ts, javascript otherwise.
func grammarForPath(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Parse parses one source file and extracts its symbols and references.
// The result is a discriminated outcome: a file outside the extension
// allow-list or with syntax errors yields a ParseResult whose Errors field is
// populated and whose symbol/reference lists are empty. Parse never panics.
func (p *Parser) Parse(ctx context.Context, filePath string, content []byte) *types.ParseResult {
	result := &types.ParseResult{FilePath: filePath}

	lang, ok := LanguageForPath(filePath)
	if !ok {
		result.AddError(filePath, 0, 0, fmt.Sprintf("unsupported file extension %q", filepath.Ext(filePath)))
		return result
	}
	result.Language = lang

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(grammarForPath(filePath))

	tree, err := tsParser.ParseCtx(ctx, nil, content)
	if err != nil {
		result.AddError(filePath, 0, 0, fmt.Sprintf("parse failed: %v", err))
		return result
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		result.AddError(filePath, 0, 0, "parser returned no syntax tree")
		return result
	}

	if root.HasError() {
		line, col := firstErrorPosition(root)
		result.AddError(filePath, line, col, "syntax error")
		return result
	}

	result.Symbols = ExtractSymbols(root, content, filePath)
	result.References = ExtractReferences(root, content, filePath)
	return result
}

// firstErrorPosition locates the first ERROR or missing node in the tree and
// returns its 1-indexed line and 0-indexed column.
func firstErrorPosition(node *sitter.Node) (int, int) {
	if node.Type() == "ERROR" || node.IsMissing() {
		return int(node.StartPoint().Row) + 1, int(node.StartPoint().Column)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if line, col := firstErrorPosition(child); line > 0 {
			return line, col
		}
	}
	return 0, 0
}

// text returns the source text covered by a node
func text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(content)
}

// startLine returns the node's 1-indexed start line
func startLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// startColumn returns the node's 0-indexed start column
func startColumn(node *sitter.Node) int {
	return int(node.StartPoint().Column)
}

// hasKeywordChild reports whether node has a direct anonymous child token
// with the given text, e.g. "async" or "const".
func hasKeywordChild(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == keyword {
			return true
		}
	}
	return false
}
