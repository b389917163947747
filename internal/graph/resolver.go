package graph

import (
	"path"
	"strings"
)

// resolveExtensions is the fixed probe order for extensionless imports
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// ResolveImport maps a raw import source plus the importing file's path to a
// concrete file in the repository file set. Resolution order:
//
//  1. Non-relative sources (no leading ./ or ../) are external packages and
//     resolve to nothing; external dependencies are not graph nodes.
//  2. The source is joined onto the importing file's directory.
//  3. The literal path is tried, then each known extension appended.
//  4. Failing that, <path>/index.<ext> is tried for each extension.
//
// An unresolved import returns ("", false); callers drop it from the graph.
func ResolveImport(source, fromPath string, paths map[string]struct{}) (string, bool) {
	if !strings.HasPrefix(source, "./") && !strings.HasPrefix(source, "../") {
		return "", false
	}

	base := path.Join(path.Dir(fromPath), source)

	if _, ok := paths[base]; ok {
		return base, true
	}
	for _, ext := range resolveExtensions {
		if candidate := base + ext; contains(paths, candidate) {
			return candidate, true
		}
	}
	for _, ext := range resolveExtensions {
		if candidate := base + "/index" + ext; contains(paths, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func contains(paths map[string]struct{}, p string) bool {
	_, ok := paths[p]
	return ok
}
