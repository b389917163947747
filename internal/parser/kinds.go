package parser

// NodeKind is the closed set of syntax-tree node shapes the extractors
// understand. Tree-sitter reports node types as strings; kindOf maps them
// into this sum type so every switch over NodeKind has a visible ignored
// branch instead of a silent runtime fallthrough.
type NodeKind int

const (
	// NodeIgnored is the explicit variant for every node shape the
	// extractors do not act on.
	NodeIgnored NodeKind = iota

	NodeFunctionDecl
	NodeClassDecl
	NodeInterfaceDecl
	NodeTypeAlias
	NodeEnumDecl
	NodeLexicalDecl
	NodeVariableDecl
	NodeMethodDef
	NodeFieldDef
	NodeExportStmt
	NodeImportStmt
	NodeCallExpr
	NodeMemberExpr
	NodeNewExpr
	NodeTypeIdentifier
	NodeExtendsClause
	NodeImplementsClause
	NodeComment
)

// kindOf maps a tree-sitter node type string to its tagged variant.
// Unrecognized shapes map to NodeIgnored.
func kindOf(nodeType string) NodeKind {
	switch nodeType {
	case "function_declaration", "generator_function_declaration":
		return NodeFunctionDecl
	case "class_declaration":
		return NodeClassDecl
	case "interface_declaration":
		return NodeInterfaceDecl
	case "type_alias_declaration":
		return NodeTypeAlias
	case "enum_declaration":
		return NodeEnumDecl
	case "lexical_declaration":
		return NodeLexicalDecl
	case "variable_declaration":
		return NodeVariableDecl
	case "method_definition":
		return NodeMethodDef
	case "public_field_definition", "field_definition":
		return NodeFieldDef
	case "export_statement":
		return NodeExportStmt
	case "import_statement":
		return NodeImportStmt
	case "call_expression":
		return NodeCallExpr
	case "member_expression":
		return NodeMemberExpr
	case "new_expression":
		return NodeNewExpr
	case "type_identifier":
		return NodeTypeIdentifier
	case "extends_clause", "extends_type_clause":
		return NodeExtendsClause
	case "implements_clause":
		return NodeImplementsClause
	case "comment":
		return NodeComment
	default:
		return NodeIgnored
	}
}
