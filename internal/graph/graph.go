// Package graph derives file- and symbol-level dependency edges from a
// symbol index.
package graph

// EdgeKind classifies a dependency edge.
type EdgeKind string

const (
	// EdgeImport is a file-level import dependency
	EdgeImport EdgeKind = "import"
	// EdgeCall is a symbol-level call dependency
	EdgeCall EdgeKind = "call"
	// EdgeReference is a symbol-level name reference dependency
	EdgeReference EdgeKind = "reference"
)

// FileEdge is a file-level import dependency. Unresolvable imports are kept
// as dangling edges tagged with the raw target, never dropped.
type FileEdge struct {
	From     string `json:"from"`         // Root-relative path of the importing file
	To       string `json:"to,omitempty"` // Root-relative path of the imported file
	Target   string `json:"target"`       // Import target as written
	Line     int    `json:"line"`
	Dangling bool   `json:"dangling,omitempty"` // Target did not resolve within the root
}

// SymbolEdge is a symbol-level call or reference dependency. From is empty
// for references made at module scope; FromFile always identifies the
// referencing file.
type SymbolEdge struct {
	From     string   `json:"from,omitempty"` // Qualified name of the referencing symbol
	FromFile string   `json:"fromFile"`
	To       string   `json:"to"` // Qualified name of the referenced symbol
	ToFile   string   `json:"toFile"`
	Kind     EdgeKind `json:"kind"`
	Line     int      `json:"line"`
}

// Graph is a directed multigraph over the files and symbols of one tree
// snapshot. Edges never leave the snapshot; reverse adjacency is kept for
// impact traversal.
type Graph struct {
	Root        string       `json:"root"`
	Fingerprint string       `json:"fingerprint"`
	FileEdges   []FileEdge   `json:"fileEdges"`
	SymbolEdges []SymbolEdge `json:"symbolEdges"`

	fileDependents   map[string][]int // to-path -> FileEdges indices
	symbolDependents map[string][]int // to-qualified-name -> SymbolEdges indices
}

// buildReverse populates the reverse adjacency maps.
func (g *Graph) buildReverse() {
	g.fileDependents = make(map[string][]int)
	g.symbolDependents = make(map[string][]int)
	for i, e := range g.FileEdges {
		if e.Dangling {
			continue
		}
		g.fileDependents[e.To] = append(g.fileDependents[e.To], i)
	}
	for i, e := range g.SymbolEdges {
		g.symbolDependents[e.To] = append(g.symbolDependents[e.To], i)
	}
}

// FileDependents returns the import edges pointing at path, i.e. the files
// that import it.
func (g *Graph) FileDependents(path string) []FileEdge {
	ids := g.fileDependents[path]
	out := make([]FileEdge, len(ids))
	for i, id := range ids {
		out[i] = g.FileEdges[id]
	}
	return out
}

// SymbolDependents returns the call/reference edges pointing at the
// qualified symbol name.
func (g *Graph) SymbolDependents(qualified string) []SymbolEdge {
	ids := g.symbolDependents[qualified]
	out := make([]SymbolEdge, len(ids))
	for i, id := range ids {
		out[i] = g.SymbolEdges[id]
	}
	return out
}

// DanglingEdges returns the import edges that did not resolve within the
// root, in build order.
func (g *Graph) DanglingEdges() []FileEdge {
	var out []FileEdge
	for _, e := range g.FileEdges {
		if e.Dangling {
			out = append(out, e)
		}
	}
	return out
}

// Summary condenses a graph for transport-layer responses.
type Summary struct {
	Root        string     `json:"root"`
	Fingerprint string     `json:"fingerprint"`
	FileEdges   int        `json:"fileEdges"`
	SymbolEdges int        `json:"symbolEdges"`
	Dangling    []FileEdge `json:"dangling,omitempty"`
}

// Summarize produces the transport summary of the graph.
func (g *Graph) Summarize() *Summary {
	return &Summary{
		Root:        g.Root,
		Fingerprint: g.Fingerprint,
		FileEdges:   len(g.FileEdges),
		SymbolEdges: len(g.SymbolEdges),
		Dangling:    g.DanglingEdges(),
	}
}
