// Package parser turns raw TypeScript/JavaScript file content into a syntax
// tree and extracts symbols and references from it.
//
// Parsing is built on tree-sitter. A file extension allow-list decides
// eligibility; files outside it are reported as unsupported rather than
// attempted. Syntax errors are returned as structured ParseErrors, never as
// panics, so one broken file cannot abort indexing of the rest of the
// repository.
//
//	p := parser.New()
//	result := p.Parse(ctx, "src/users.ts", content)
//	if result.HasErrors() {
//	    // file is stored for full-text search but contributes no symbols
//	}
//
// Tree-sitter exposes node kinds as raw strings. This package maps them to a
// closed set of tagged NodeKind variants (kinds.go) so the extractors switch
// exhaustively and unsupported node shapes land in an explicit ignored branch
// instead of a silent fallthrough.
//
// Extraction is pure and total over any syntactically valid tree: both
// ExtractSymbols and ExtractReferences always return, and never error, given
// a well-formed parse.
package parser
