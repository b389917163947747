package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

func findSymbol(t *testing.T, symbols []types.Symbol, name string, kind types.SymbolKind) types.Symbol {
	t.Helper()
	for _, s := range symbols {
		if s.Name == name && s.Kind == kind {
			return s
		}
	}
	t.Fatalf("symbol %s (%s) not found in %v", name, kind, symbols)
	return types.Symbol{}
}

func TestExtractFunctionDeclaration(t *testing.T) {
	src := `/**
 * Checks whether a token is still valid.
 */
export function validateToken(token: string): boolean {
  return token.length > 0;
}

function helper() {}
`
	result := parse(t, "src/token.ts", src)

	validate := findSymbol(t, result.Symbols, "validateToken", types.KindFunction)
	assert.True(t, validate.IsExported)
	assert.False(t, validate.IsAsync)
	assert.Equal(t, "validateToken(token: string): boolean", validate.Signature)
	assert.Equal(t, "Checks whether a token is still valid.", validate.Documentation)
	assert.Equal(t, 4, validate.LineStart)

	help := findSymbol(t, result.Symbols, "helper", types.KindFunction)
	assert.False(t, help.IsExported)
	assert.Empty(t, help.Documentation)
}

func TestExtractArrowFunctions(t *testing.T) {
	src := `export const fetchUser = async (id: number) => {
  return id;
};
const format = (s) => s.trim();
`
	result := parse(t, "src/users.ts", src)

	fetch := findSymbol(t, result.Symbols, "fetchUser", types.KindFunction)
	assert.True(t, fetch.IsExported)
	assert.True(t, fetch.IsAsync)

	format := findSymbol(t, result.Symbols, "format", types.KindFunction)
	assert.False(t, format.IsExported)
	assert.False(t, format.IsAsync)
}

func TestExtractClassWithMembers(t *testing.T) {
	src := `export class Session {
  private token: string = '';

  /** Refreshes the session token. */
  async refresh(): Promise<void> {}

  get expired() { return false; }
}
`
	result := parse(t, "src/session.ts", src)

	class := findSymbol(t, result.Symbols, "Session", types.KindClass)
	assert.True(t, class.IsExported)
	assert.Equal(t, 1, class.LineStart)
	assert.Equal(t, 8, class.LineEnd)

	token := findSymbol(t, result.Symbols, "token", types.KindProperty)
	assert.Equal(t, types.AccessModifier("private"), token.AccessModifier)

	refresh := findSymbol(t, result.Symbols, "refresh", types.KindMethod)
	assert.True(t, refresh.IsAsync)
	assert.Equal(t, "refresh(): Promise<void>", refresh.Signature)
	assert.Equal(t, "Refreshes the session token.", refresh.Documentation)

	// Accessors are method definitions too
	findSymbol(t, result.Symbols, "expired", types.KindMethod)
}

func TestExtractNamedTypes(t *testing.T) {
	src := `export interface User {
  id: number;
  name: string;
}

type UserID = number;

export enum Role {
  Admin,
  Member,
}
`
	result := parse(t, "src/model.ts", src)

	user := findSymbol(t, result.Symbols, "User", types.KindInterface)
	assert.True(t, user.IsExported)

	alias := findSymbol(t, result.Symbols, "UserID", types.KindType)
	assert.False(t, alias.IsExported)

	role := findSymbol(t, result.Symbols, "Role", types.KindEnum)
	assert.True(t, role.IsExported)
}

func TestExtractVariables(t *testing.T) {
	src := `export const MAX_RETRIES = 3;
let counter = 0;
var legacy = true;
`
	result := parse(t, "src/state.ts", src)

	max := findSymbol(t, result.Symbols, "MAX_RETRIES", types.KindConstant)
	assert.True(t, max.IsExported)

	findSymbol(t, result.Symbols, "counter", types.KindVariable)
	findSymbol(t, result.Symbols, "legacy", types.KindVariable)
}

func TestDestructuringUsesAnonymousSentinel(t *testing.T) {
	src := "const { host, port } = config;\n"
	result := parse(t, "src/env.ts", src)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, types.AnonymousName, result.Symbols[0].Name)
}

func TestNestedDeclarations(t *testing.T) {
	src := `export function outer() {
  function inner() {}
  const local = 1;
}
`
	result := parse(t, "src/nested.ts", src)

	findSymbol(t, result.Symbols, "outer", types.KindFunction)
	inner := findSymbol(t, result.Symbols, "inner", types.KindFunction)
	assert.False(t, inner.IsExported)
	findSymbol(t, result.Symbols, "local", types.KindConstant)
}

func TestDocCommentRequiresBlockForm(t *testing.T) {
	src := `// not a doc comment
export function plain() {}
`
	result := parse(t, "src/plain.ts", src)

	plain := findSymbol(t, result.Symbols, "plain", types.KindFunction)
	assert.Empty(t, plain.Documentation)
}
