// Package impact computes which files and symbols depend, directly or
// transitively, on a given symbol.
package impact

import (
	"scout/internal/errors"
	"scout/internal/graph"
	"scout/internal/index"
	"scout/internal/parser"
)

// Item is one impacted file or symbol. Symbol is empty when the dependency
// was made at module scope, in which case the file itself is the impacted
// unit. Depth 1 is a direct dependent.
type Item struct {
	Symbol string `json:"symbol,omitempty"` // Qualified name
	File   string `json:"file"`
	Depth  int    `json:"depth"`
	Via    string `json:"via"` // Edge kind that discovered this item
}

// Result is a complete impact analysis. Items appear in BFS discovery
// order, nearest impact first.
type Result struct {
	Target      string          `json:"target"`
	Definitions []parser.Symbol `json:"definitions"`
	Items       []Item          `json:"items"`
	MaxDepth    int             `json:"maxDepth,omitempty"`

	// DepthReached is the deepest level at which a dependent was found.
	DepthReached int `json:"depthReached"`

	// Truncated is set when the frontier was non-empty at the depth cutoff.
	Truncated bool `json:"truncated,omitempty"`
}

// node identifies one BFS position: a symbol definition or a whole file.
type node struct {
	symbol string // Qualified name, empty for file nodes
	file   string
}

// Analyze walks the reverse dependency graph from every definition matching
// symbolName. Each file or symbol is visited at most once, so cyclic
// dependencies terminate. maxDepth <= 0 means unlimited.
func Analyze(idx *index.SymbolIndex, g *graph.Graph, symbolName string, maxDepth int) (*Result, error) {
	defs := idx.Lookup(symbolName)
	if len(defs) == 0 {
		return nil, errors.Newf(errors.SymbolNotFound, "no definition matches %q", symbolName)
	}

	result := &Result{
		Target:      symbolName,
		Definitions: defs,
		MaxDepth:    maxDepth,
	}

	visited := make(map[node]struct{})
	var frontier []node
	for _, def := range defs {
		start := node{symbol: def.QualifiedName, file: def.Path}
		if _, seen := visited[start]; seen {
			continue
		}
		visited[start] = struct{}{}
		frontier = append(frontier, start)
	}

	for depth := 1; len(frontier) > 0; depth++ {
		if maxDepth > 0 && depth > maxDepth {
			result.Truncated = true
			break
		}

		var next []node
		for _, cur := range frontier {
			for _, n := range dependents(g, cur) {
				if _, seen := visited[n.node]; seen {
					continue
				}
				visited[n.node] = struct{}{}
				next = append(next, n.node)

				result.DepthReached = depth
				result.Items = append(result.Items, Item{
					Symbol: n.node.symbol,
					File:   n.node.file,
					Depth:  depth,
					Via:    string(n.kind),
				})
			}
		}
		frontier = next
	}

	return result, nil
}

type discovered struct {
	node node
	kind graph.EdgeKind
}

// dependents enumerates the reverse neighbors of a node: for symbols, every
// call/reference site plus every file importing the defining file; for
// files, every file importing them.
func dependents(g *graph.Graph, cur node) []discovered {
	var out []discovered

	if cur.symbol != "" {
		for _, e := range g.SymbolDependents(cur.symbol) {
			out = append(out, discovered{
				node: node{symbol: e.From, file: e.FromFile},
				kind: e.Kind,
			})
		}
	}

	for _, e := range g.FileDependents(cur.file) {
		out = append(out, discovered{
			node: node{file: e.From},
			kind: graph.EdgeImport,
		})
	}

	return out
}
