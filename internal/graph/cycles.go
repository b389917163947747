package graph

import (
	"fmt"
	"sort"

	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// EdgeIDs is a dependency edge after storage has assigned row ids to its
// endpoints. A zero id means the endpoint is absent (symbol_usage edges from
// module-level code have no source symbol).
type EdgeIDs struct {
	Type         types.DependencyType
	FromFileID   int64
	ToFileID     int64
	FromSymbolID int64
	ToSymbolID   int64
}

// DetectCircularChains finds every cycle in the stored dependency edges.
// File-import cycles are detected over file endpoints, symbol-usage cycles
// over symbol endpoints; the two granularities never mix in one chain. Each
// chain lists node ids in traversal order with the entry node repeated at the
// end, so a self-loop reports as [n, n]. Descriptions are rendered from the
// supplied id-to-name maps.
func DetectCircularChains(edges []EdgeIDs, filePathsByID, symbolNamesByID map[int64]string) []types.CircularChain {
	var chains []types.CircularChain

	fileAdj := make(map[int64][]int64)
	symbolAdj := make(map[int64][]int64)
	for _, e := range edges {
		switch e.Type {
		case types.DepFileImport:
			if e.FromFileID != 0 && e.ToFileID != 0 {
				fileAdj[e.FromFileID] = append(fileAdj[e.FromFileID], e.ToFileID)
			}
		case types.DepSymbolUsage:
			if e.FromSymbolID != 0 && e.ToSymbolID != 0 {
				symbolAdj[e.FromSymbolID] = append(symbolAdj[e.FromSymbolID], e.ToSymbolID)
			}
		}
	}

	chains = append(chains, findCycles(fileAdj, types.DepFileImport, filePathsByID)...)
	chains = append(chains, findCycles(symbolAdj, types.DepSymbolUsage, symbolNamesByID)...)
	return chains
}

// findCycles runs a depth-first traversal with an explicit recursion stack
// over one adjacency map. Every back edge closes a cycle; rotating each chain
// to start at its smallest id deduplicates cycles discovered from different
// entry points.
func findCycles(adj map[int64][]int64, depType types.DependencyType, namesByID map[int64]string) []types.CircularChain {
	nodes := make([]int64, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, neighbors := range adj {
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
	}

	var chains []types.CircularChain
	visited := make(map[int64]bool)
	onStack := make(map[int64]bool)
	stack := make([]int64, 0)
	reported := make(map[string]struct{})

	var dfs func(node int64)
	dfs = func(node int64) {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, next := range adj[node] {
			if onStack[next] {
				chain := closeChain(stack, next)
				key := chainKey(chain)
				if _, dup := reported[key]; !dup {
					reported[key] = struct{}{}
					chains = append(chains, types.CircularChain{
						Type:        depType,
						Chain:       chain,
						Description: describe(chain, namesByID),
					})
				}
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[node] = false
	}

	for _, n := range nodes {
		if !visited[n] {
			dfs(n)
		}
	}
	return chains
}

// closeChain slices the recursion stack from the re-entered node onward and
// appends that node again to close the loop.
func closeChain(stack []int64, entry int64) []int64 {
	start := 0
	for i, n := range stack {
		if n == entry {
			start = i
			break
		}
	}
	chain := make([]int64, 0, len(stack)-start+1)
	chain = append(chain, stack[start:]...)
	chain = append(chain, entry)
	return chain
}

// chainKey canonicalizes a chain by rotating it to start at its smallest id,
// so the same cycle found from different entry points compares equal.
func chainKey(chain []int64) string {
	loop := chain[:len(chain)-1]
	minIdx := 0
	for i, n := range loop {
		if n < loop[minIdx] {
			minIdx = i
		}
	}
	key := ""
	for i := range loop {
		key += fmt.Sprintf("%d,", loop[(minIdx+i)%len(loop)])
	}
	return key
}

func describe(chain []int64, namesByID map[int64]string) string {
	names := make([]string, len(chain))
	for i, id := range chain {
		if name, ok := namesByID[id]; ok {
			names[i] = name
		} else {
			names[i] = fmt.Sprintf("#%d", id)
		}
	}
	return types.DescribeChain(names)
}
