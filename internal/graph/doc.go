// Package graph derives the dependency graph from extracted files, symbols,
// and references, and answers questions about it.
//
// The package is pure and stateless. ResolveImport maps a raw import string
// plus the importing file's path onto the repository file set. BuildDependencies
// combines files, symbols, and references into directed edges at file and
// symbol granularity. DetectCircularChains runs a depth-first traversal over
// stored edges and reports every cycle as a closed chain. Neighborhood walks
// the file graph in either direction for dependency queries.
//
// Symbol-usage edges match a reference's target name against symbol names
// across the whole repository, not against the names visible through imports
// at the reference site. Symbols that merely share a name in unrelated files
// can therefore be connected. Downstream consumers rely on this loose
// matching, so it is kept as-is.
package graph
