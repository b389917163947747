package graph

import (
	"sort"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// Direction selects which way Neighborhood walks the file graph
type Direction string

const (
	DirDependencies Direction = "dependencies" // files the start file imports
	DirDependents   Direction = "dependents"   // files importing the start file
	DirBoth         Direction = "both"
)

// ValidDirection reports whether d is a recognized traversal direction
func ValidDirection(d Direction) bool {
	return d == DirDependencies || d == DirDependents || d == DirBoth
}

// Neighborhood walks file_import edges from startID up to depth hops and
// splits the reachable files into direct (one hop) and indirect (further)
// neighbors. The start file itself is never reported, even when a cycle leads
// back to it. Results are sorted for stable output.
func Neighborhood(edges []EdgeIDs, filePathsByID map[int64]string, startID int64, direction Direction, depth int) (direct, indirect []string) {
	if depth < 1 {
		depth = 1
	}

	forward := make(map[int64][]int64)
	reverse := make(map[int64][]int64)
	for _, e := range edges {
		if e.Type != types.DepFileImport || e.FromFileID == 0 || e.ToFileID == 0 {
			continue
		}
		forward[e.FromFileID] = append(forward[e.FromFileID], e.ToFileID)
		reverse[e.ToFileID] = append(reverse[e.ToFileID], e.FromFileID)
	}

	neighbors := func(id int64) []int64 {
		switch direction {
		case DirDependencies:
			return forward[id]
		case DirDependents:
			return reverse[id]
		default:
			return append(append([]int64{}, forward[id]...), reverse[id]...)
		}
	}

	visited := map[int64]bool{startID: true}
	frontier := []int64{startID}

	for hop := 1; hop <= depth && len(frontier) > 0; hop++ {
		var next []int64
		for _, id := range frontier {
			for _, n := range neighbors(id) {
				if visited[n] {
					continue
				}
				visited[n] = true
				next = append(next, n)

				path, ok := filePathsByID[n]
				if !ok {
					continue
				}
				if hop == 1 {
					direct = append(direct, path)
				} else {
					indirect = append(indirect, path)
				}
			}
		}
		frontier = next
	}

	sort.Strings(direct)
	sort.Strings(indirect)
	return direct, indirect
}
