package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// ExtractReferences walks a parsed tree and returns every cross-reference it
// records: imports (ES module and CommonJS require), call expressions,
// property accesses, type references, and extends/implements clauses. Like
// symbol extraction, it is total over any syntactically valid tree.
func ExtractReferences(root *sitter.Node, content []byte, filePath string) []types.Reference {
	e := &referenceExtractor{
		content:  content,
		filePath: filePath,
		refs:     make([]types.Reference, 0),
	}
	e.visit(root)
	return e.refs
}

// referenceExtractor carries extraction state through the tree walk
type referenceExtractor struct {
	content  []byte
	filePath string
	refs     []types.Reference
}

func (e *referenceExtractor) visit(node *sitter.Node) {
	switch kindOf(node.Type()) {
	case NodeImportStmt:
		e.extractImport(node)
		return
	case NodeCallExpr:
		e.extractCall(node)
	case NodeMemberExpr:
		e.extractPropertyAccess(node)
	case NodeNewExpr:
		e.extractNew(node)
	case NodeTypeIdentifier:
		e.extractTypeReference(node)
		return
	case NodeExtendsClause:
		e.extractHeritage(node, types.RefExtends)
		return
	case NodeImplementsClause:
		e.extractHeritage(node, types.RefImplements)
		return
	case NodeComment:
		return
	case NodeExportStmt, NodeFunctionDecl, NodeClassDecl, NodeInterfaceDecl,
		NodeTypeAlias, NodeEnumDecl, NodeLexicalDecl, NodeVariableDecl,
		NodeMethodDef, NodeFieldDef, NodeIgnored:
		// Declarations and unrecognized shapes: recurse, references can
		// appear anywhere inside them.
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		e.visit(node.NamedChild(i))
	}
}

func (e *referenceExtractor) add(ref types.Reference) {
	ref.FilePath = e.filePath
	e.refs = append(e.refs, ref)
}

// extractImport handles ES module import statements. One reference is
// emitted per imported binding; a bare side-effect import emits a single
// reference named after its source.
func (e *referenceExtractor) extractImport(node *sitter.Node) {
	source := stripQuotes(text(node.ChildByFieldName("source"), e.content))
	if source == "" {
		return
	}

	line, col := startLine(node), startColumn(node)
	emitted := false

	for i := 0; i < int(node.NamedChildCount()); i++ {
		clause := node.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			part := clause.NamedChild(j)
			switch part.Type() {
			case "identifier":
				// Default import: import foo from './bar'
				e.add(types.Reference{
					TargetName: text(part, e.content),
					Type:       types.RefImport,
					LineNumber: line, ColumnNumber: col,
					Metadata: map[string]string{"source": source, "kind": types.ImportDefault},
				})
				emitted = true
			case "namespace_import":
				// import * as foo from './bar'
				alias := ""
				for k := 0; k < int(part.NamedChildCount()); k++ {
					if part.NamedChild(k).Type() == "identifier" {
						alias = text(part.NamedChild(k), e.content)
					}
				}
				e.add(types.Reference{
					TargetName: alias,
					Type:       types.RefImport,
					LineNumber: line, ColumnNumber: col,
					Metadata: map[string]string{"source": source, "kind": types.ImportNamespace, "alias": alias},
				})
				emitted = true
			case "named_imports":
				for k := 0; k < int(part.NamedChildCount()); k++ {
					spec := part.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					name := text(spec.ChildByFieldName("name"), e.content)
					alias := text(spec.ChildByFieldName("alias"), e.content)
					if name == "" {
						continue
					}
					meta := map[string]string{"source": source, "kind": types.ImportNamed}
					if alias != "" {
						meta["alias"] = alias
					}
					e.add(types.Reference{
						TargetName: name,
						Type:       types.RefImport,
						LineNumber: line, ColumnNumber: col,
						Metadata: meta,
					})
					emitted = true
				}
			}
		}
	}

	if !emitted {
		// import './styles.css'
		e.add(types.Reference{
			TargetName: source,
			Type:       types.RefImport,
			LineNumber: line, ColumnNumber: col,
			Metadata: map[string]string{"source": source, "kind": types.ImportSideEffect},
		})
	}
}

// extractCall records a call reference for the callee name. require() calls
// are recorded as import references instead, preserving CommonJS modules in
// the dependency graph.
func (e *referenceExtractor) extractCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	switch fn.Type() {
	case "identifier":
		name := text(fn, e.content)
		if name == "require" {
			if source := e.requireSource(node); source != "" {
				e.add(types.Reference{
					TargetName: source,
					Type:       types.RefImport,
					LineNumber: startLine(node), ColumnNumber: startColumn(node),
					Metadata: map[string]string{"source": source, "kind": types.ImportRequire},
				})
			}
			return
		}
		e.add(types.Reference{
			TargetName: name,
			Type:       types.RefCall,
			LineNumber: startLine(node), ColumnNumber: startColumn(node),
		})
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		if prop == nil {
			return
		}
		e.add(types.Reference{
			TargetName: text(prop, e.content),
			Type:       types.RefCall,
			LineNumber: startLine(node), ColumnNumber: startColumn(node),
			Metadata: map[string]string{"object": text(fn.ChildByFieldName("object"), e.content)},
		})
	}
}

// requireSource returns the string literal argument of a require() call
func (e *referenceExtractor) requireSource(call *sitter.Node) string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "string" {
			return stripQuotes(text(arg, e.content))
		}
	}
	return ""
}

func (e *referenceExtractor) extractPropertyAccess(node *sitter.Node) {
	prop := node.ChildByFieldName("property")
	if prop == nil {
		return
	}
	e.add(types.Reference{
		TargetName: text(prop, e.content),
		Type:       types.RefPropertyAccess,
		LineNumber: startLine(node), ColumnNumber: startColumn(node),
		Metadata: map[string]string{"object": text(node.ChildByFieldName("object"), e.content)},
	})
}

// extractNew records `new Foo()` as a call reference to the constructor name
func (e *referenceExtractor) extractNew(node *sitter.Node) {
	ctor := node.ChildByFieldName("constructor")
	if ctor == nil || ctor.Type() != "identifier" {
		return
	}
	e.add(types.Reference{
		TargetName: text(ctor, e.content),
		Type:       types.RefCall,
		LineNumber: startLine(node), ColumnNumber: startColumn(node),
		Metadata: map[string]string{"new": "true"},
	})
}

// extractTypeReference records type_identifier nodes that appear in type
// positions. Declaration names (class/interface/alias/enum names are
// themselves type_identifier nodes) and heritage clauses are excluded; the
// former declare rather than reference, the latter are recorded separately.
func (e *referenceExtractor) extractTypeReference(node *sitter.Node) {
	parent := node.Parent()
	if parent != nil {
		switch kindOf(parent.Type()) {
		case NodeClassDecl, NodeInterfaceDecl, NodeTypeAlias, NodeEnumDecl:
			if nameChild := parent.ChildByFieldName("name"); nameChild != nil && nameChild.StartByte() == node.StartByte() {
				return
			}
		case NodeExtendsClause, NodeImplementsClause:
			return
		case NodeIgnored, NodeFunctionDecl, NodeLexicalDecl, NodeVariableDecl,
			NodeMethodDef, NodeFieldDef, NodeExportStmt, NodeImportStmt,
			NodeCallExpr, NodeMemberExpr, NodeNewExpr, NodeTypeIdentifier, NodeComment:
			// type position, fall through to record
		}
	}

	e.add(types.Reference{
		TargetName: text(node, e.content),
		Type:       types.RefTypeReference,
		LineNumber: startLine(node), ColumnNumber: startColumn(node),
	})
}

// extractHeritage records each named type in an extends or implements clause
func (e *referenceExtractor) extractHeritage(node *sitter.Node, refType types.ReferenceType) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		var name string
		switch child.Type() {
		case "identifier", "type_identifier":
			name = text(child, e.content)
		case "generic_type":
			name = text(child.ChildByFieldName("name"), e.content)
		default:
			continue
		}
		if name == "" {
			continue
		}
		e.add(types.Reference{
			TargetName: name,
			Type:       refType,
			LineNumber: startLine(child), ColumnNumber: startColumn(child),
		})
	}
}

// stripQuotes removes surrounding string literal quotes
func stripQuotes(s string) string {
	return strings.Trim(s, "'\"`")
}
