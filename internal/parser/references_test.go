package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

func refsOfType(refs []types.Reference, refType types.ReferenceType) []types.Reference {
	var out []types.Reference
	for _, r := range refs {
		if r.Type == refType {
			out = append(out, r)
		}
	}
	return out
}

func findRef(t *testing.T, refs []types.Reference, refType types.ReferenceType, target string) types.Reference {
	t.Helper()
	for _, r := range refs {
		if r.Type == refType && r.TargetName == target {
			return r
		}
	}
	t.Fatalf("reference %s (%s) not found", target, refType)
	return types.Reference{}
}

func TestExtractImports(t *testing.T) {
	src := `import express from 'express';
import { readFile as read, writeFile } from './fs';
import * as path from 'node:path';
import './styles.css';
`
	result := parse(t, "src/app.ts", src)
	imports := refsOfType(result.References, types.RefImport)
	require.Len(t, imports, 5)

	def := findRef(t, imports, types.RefImport, "express")
	assert.Equal(t, "express", def.Metadata["source"])
	assert.Equal(t, types.ImportDefault, def.Metadata["kind"])

	aliased := findRef(t, imports, types.RefImport, "readFile")
	assert.Equal(t, "./fs", aliased.Metadata["source"])
	assert.Equal(t, types.ImportNamed, aliased.Metadata["kind"])
	assert.Equal(t, "read", aliased.Metadata["alias"])

	plain := findRef(t, imports, types.RefImport, "writeFile")
	assert.Empty(t, plain.Metadata["alias"])

	ns := findRef(t, imports, types.RefImport, "path")
	assert.Equal(t, types.ImportNamespace, ns.Metadata["kind"])

	side := findRef(t, imports, types.RefImport, "./styles.css")
	assert.Equal(t, types.ImportSideEffect, side.Metadata["kind"])
}

func TestExtractRequireAsImport(t *testing.T) {
	src := `const fs = require('fs');
const helper = require('./helper');
`
	result := parse(t, "lib/legacy.js", src)
	imports := refsOfType(result.References, types.RefImport)
	require.Len(t, imports, 2)

	fs := findRef(t, imports, types.RefImport, "fs")
	assert.Equal(t, types.ImportRequire, fs.Metadata["kind"])

	findRef(t, imports, types.RefImport, "./helper")

	// require itself is not recorded as a call
	assert.Empty(t, refsOfType(result.References, types.RefCall))
}

func TestExtractCalls(t *testing.T) {
	src := `function run() {
  validate(input);
  logger.info('started');
  const s = new Session();
}
`
	result := parse(t, "src/run.ts", src)
	calls := refsOfType(result.References, types.RefCall)

	findRef(t, calls, types.RefCall, "validate")

	info := findRef(t, calls, types.RefCall, "info")
	assert.Equal(t, "logger", info.Metadata["object"])

	ctor := findRef(t, calls, types.RefCall, "Session")
	assert.Equal(t, "true", ctor.Metadata["new"])
}

func TestExtractPropertyAccess(t *testing.T) {
	src := "const n = user.profile.name;\n"
	result := parse(t, "src/prop.ts", src)
	props := refsOfType(result.References, types.RefPropertyAccess)

	name := findRef(t, props, types.RefPropertyAccess, "name")
	assert.Equal(t, "user.profile", name.Metadata["object"])
	findRef(t, props, types.RefPropertyAccess, "profile")
}

func TestExtractTypeReferences(t *testing.T) {
	src := `interface Widget { id: number; }
function render(w: Widget): Widget {
  return w;
}
`
	result := parse(t, "src/widget.ts", src)
	typeRefs := refsOfType(result.References, types.RefTypeReference)

	require.Len(t, typeRefs, 2, "declaration names are not references")
	for _, r := range typeRefs {
		assert.Equal(t, "Widget", r.TargetName)
	}
	assert.NotEqual(t, typeRefs[0].LineNumber, 1, "the declaration on line 1 is excluded")
}

func TestExtractHeritage(t *testing.T) {
	src := `class Admin extends User implements Auditable {}
interface Auditable extends Traceable {}
`
	result := parse(t, "src/admin.ts", src)

	ext := refsOfType(result.References, types.RefExtends)
	findRef(t, ext, types.RefExtends, "User")
	findRef(t, ext, types.RefExtends, "Traceable")

	impl := refsOfType(result.References, types.RefImplements)
	require.Len(t, impl, 1)
	assert.Equal(t, "Auditable", impl[0].TargetName)
}

func TestHeritageWithGenerics(t *testing.T) {
	src := "class Box extends Container<string> {}\n"
	result := parse(t, "src/box.ts", src)

	ext := refsOfType(result.References, types.RefExtends)
	require.NotEmpty(t, ext)
	assert.Equal(t, "Container", ext[0].TargetName)
}

func TestReferencesCarryPositions(t *testing.T) {
	src := "import { a } from './a';\n\nconst x = a();\n"
	result := parse(t, "src/pos.ts", src)

	imp := findRef(t, result.References, types.RefImport, "a")
	assert.Equal(t, 1, imp.LineNumber)

	call := findRef(t, result.References, types.RefCall, "a")
	assert.Equal(t, 3, call.LineNumber)
}
