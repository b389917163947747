package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// ExtractSymbols walks a parsed tree and returns every named entity it
// declares: functions, classes and their members, interfaces, type aliases,
// enums, and variables. It is total over any syntactically valid tree;
// unrecognized node shapes are skipped, never errors.
func ExtractSymbols(root *sitter.Node, content []byte, filePath string) []types.Symbol {
	e := &symbolExtractor{
		content:  content,
		filePath: filePath,
		symbols:  make([]types.Symbol, 0),
	}
	e.visit(root, false)
	return e.symbols
}

// symbolExtractor carries extraction state through the tree walk
type symbolExtractor struct {
	content  []byte
	filePath string
	symbols  []types.Symbol
}

// visit dispatches on the tagged node kind. exported is true inside an
// export_statement wrapper. Declaration handlers do their own recursion into
// bodies, so visit returns after dispatching them.
func (e *symbolExtractor) visit(node *sitter.Node, exported bool) {
	switch kindOf(node.Type()) {
	case NodeExportStmt:
		for i := 0; i < int(node.NamedChildCount()); i++ {
			e.visit(node.NamedChild(i), true)
		}
		return
	case NodeFunctionDecl:
		e.extractFunction(node, exported)
		return
	case NodeClassDecl:
		e.extractClass(node, exported)
		return
	case NodeInterfaceDecl:
		e.extractNamedType(node, types.KindInterface, exported)
		return
	case NodeTypeAlias:
		e.extractNamedType(node, types.KindType, exported)
		return
	case NodeEnumDecl:
		e.extractNamedType(node, types.KindEnum, exported)
		return
	case NodeLexicalDecl, NodeVariableDecl:
		e.extractVariables(node, exported)
		return
	case NodeMethodDef, NodeFieldDef, NodeImportStmt, NodeCallExpr,
		NodeMemberExpr, NodeNewExpr, NodeTypeIdentifier,
		NodeExtendsClause, NodeImplementsClause, NodeComment:
		// Members are handled by extractClass; the rest is reference
		// territory, not declarations.
		return
	case NodeIgnored:
		// Unsupported shape: recurse, nested declarations may still appear
		// (namespaces, blocks, conditionals).
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		e.visit(node.NamedChild(i), false)
	}
}

func (e *symbolExtractor) extractFunction(node *sitter.Node, exported bool) {
	name := text(node.ChildByFieldName("name"), e.content)
	if name == "" {
		name = types.AnonymousName
	}

	e.symbols = append(e.symbols, types.Symbol{
		Name:          name,
		Kind:          types.KindFunction,
		FilePath:      e.filePath,
		LineStart:     startLine(node),
		LineEnd:       int(node.EndPoint().Row) + 1,
		ColumnStart:   startColumn(node),
		ColumnEnd:     int(node.EndPoint().Column),
		Signature:     e.callableSignature(name, node),
		Documentation: e.docComment(node),
		IsExported:    exported,
		IsAsync:       hasKeywordChild(node, "async"),
	})

	// Nested declarations inside the body
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			e.visit(body.NamedChild(i), false)
		}
	}
}

func (e *symbolExtractor) extractClass(node *sitter.Node, exported bool) {
	name := text(node.ChildByFieldName("name"), e.content)
	if name == "" {
		name = types.AnonymousName
	}

	e.symbols = append(e.symbols, types.Symbol{
		Name:          name,
		Kind:          types.KindClass,
		FilePath:      e.filePath,
		LineStart:     startLine(node),
		LineEnd:       int(node.EndPoint().Row) + 1,
		ColumnStart:   startColumn(node),
		ColumnEnd:     int(node.EndPoint().Column),
		Documentation: e.docComment(node),
		IsExported:    exported,
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch kindOf(member.Type()) {
		case NodeMethodDef:
			e.extractMember(member, types.KindMethod)
		case NodeFieldDef:
			e.extractMember(member, types.KindProperty)
		default:
			// index signatures, static blocks, decorators: skipped
		}
	}
}

func (e *symbolExtractor) extractMember(node *sitter.Node, kind types.SymbolKind) {
	name := text(node.ChildByFieldName("name"), e.content)
	if name == "" {
		name = types.AnonymousName
	}

	sym := types.Symbol{
		Name:           name,
		Kind:           kind,
		FilePath:       e.filePath,
		LineStart:      startLine(node),
		LineEnd:        int(node.EndPoint().Row) + 1,
		ColumnStart:    startColumn(node),
		ColumnEnd:      int(node.EndPoint().Column),
		Documentation:  e.docComment(node),
		IsExported:     false,
		AccessModifier: e.accessModifier(node),
	}

	if kind == types.KindMethod {
		sym.Signature = e.callableSignature(name, node)
		sym.IsAsync = hasKeywordChild(node, "async")
	}

	e.symbols = append(e.symbols, sym)

	// Method bodies can nest further declarations
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			e.visit(body.NamedChild(i), false)
		}
	}
}

func (e *symbolExtractor) extractNamedType(node *sitter.Node, kind types.SymbolKind, exported bool) {
	name := text(node.ChildByFieldName("name"), e.content)
	if name == "" {
		name = types.AnonymousName
	}

	e.symbols = append(e.symbols, types.Symbol{
		Name:          name,
		Kind:          kind,
		FilePath:      e.filePath,
		LineStart:     startLine(node),
		LineEnd:       int(node.EndPoint().Row) + 1,
		ColumnStart:   startColumn(node),
		ColumnEnd:     int(node.EndPoint().Column),
		Documentation: e.docComment(node),
		IsExported:    exported,
	})
}

// extractVariables handles lexical (let/const) and var declarations. A const
// binding initialized with a function expression is recorded as a function;
// other const bindings are constants; let/var bindings are variables.
func (e *symbolExtractor) extractVariables(node *sitter.Node, exported bool) {
	isConst := hasKeywordChild(node, "const")

	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}

		name := text(decl.ChildByFieldName("name"), e.content)
		if name == "" || strings.HasPrefix(name, "{") || strings.HasPrefix(name, "[") {
			// Destructuring patterns declare several names at once; they are
			// recorded under the anonymous sentinel rather than expanded.
			name = types.AnonymousName
		}

		value := decl.ChildByFieldName("value")
		sym := types.Symbol{
			Name:          name,
			FilePath:      e.filePath,
			LineStart:     startLine(decl),
			LineEnd:       int(decl.EndPoint().Row) + 1,
			ColumnStart:   startColumn(decl),
			ColumnEnd:     int(decl.EndPoint().Column),
			Documentation: e.docComment(node),
			IsExported:    exported,
		}

		switch {
		case value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function"):
			sym.Kind = types.KindFunction
			sym.Signature = e.callableSignature(name, value)
			sym.IsAsync = hasKeywordChild(value, "async")
		case isConst:
			sym.Kind = types.KindConstant
		default:
			sym.Kind = types.KindVariable
		}

		e.symbols = append(e.symbols, sym)

		// Function bodies assigned to variables can nest further declarations
		if value != nil {
			if body := value.ChildByFieldName("body"); body != nil {
				for j := 0; j < int(body.NamedChildCount()); j++ {
					e.visit(body.NamedChild(j), false)
				}
			}
		}
	}
}

// callableSignature renders "name(params): ret" from the parameter list and
// return type annotation of a function-like node.
func (e *symbolExtractor) callableSignature(name string, node *sitter.Node) string {
	var sig strings.Builder
	sig.WriteString(name)

	if params := node.ChildByFieldName("parameters"); params != nil {
		sig.WriteString(text(params, e.content))
	} else if param := node.ChildByFieldName("parameter"); param != nil {
		// Single-parameter arrow function without parentheses
		sig.WriteString("(" + text(param, e.content) + ")")
	} else {
		sig.WriteString("()")
	}

	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig.WriteString(text(ret, e.content))
	}

	return sig.String()
}

// accessModifier returns the declared visibility of a class member, if any
func (e *symbolExtractor) accessModifier(node *sitter.Node) types.AccessModifier {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == "accessibility_modifier" {
			return types.AccessModifier(text(child, e.content))
		}
	}
	return ""
}

// docComment returns the text of a block doc comment immediately preceding
// the declaration (or its export_statement wrapper), with comment markers
// stripped.
func (e *symbolExtractor) docComment(node *sitter.Node) string {
	target := node
	if parent := node.Parent(); parent != nil && kindOf(parent.Type()) == NodeExportStmt {
		target = parent
	}

	prev := target.PrevNamedSibling()
	if prev == nil || kindOf(prev.Type()) != NodeComment {
		return ""
	}

	raw := text(prev, e.content)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	return cleanDocComment(raw)
}

// cleanDocComment strips /** */ delimiters and leading asterisks
func cleanDocComment(raw string) string {
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimSuffix(raw, "*/")

	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
