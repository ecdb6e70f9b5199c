// Package index builds symbol indexes for source trees.
package index

import (
	"sort"
	"time"

	"scout/internal/parser"
)

// FileError records a per-file indexing failure. Files that fail to parse
// are excluded from the index but never abort a build.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SymbolIndex is the structural index of one tree snapshot. It is built
// wholesale and never patched; a changed tree gets a new index.
type SymbolIndex struct {
	Root        string    `json:"root"`
	Fingerprint string    `json:"fingerprint"`
	Pattern     string    `json:"pattern"`
	Package     string    `json:"package,omitempty"` // pyproject project name, if declared
	BuiltAt     time.Time `json:"builtAt"`

	// Files holds per-file extraction results in lexical path order.
	Files []parser.FileResult `json:"files"`

	// Symbols holds all definitions: file path lexical order, then
	// source order within a file. Duplicate names are all retained.
	Symbols []parser.Symbol `json:"symbols"`

	// FileErrors lists files excluded from the index.
	FileErrors []FileError `json:"fileErrors,omitempty"`

	byQualified map[string][]int
	byName      map[string][]int
}

// NewFromFiles assembles an index from pre-extracted file results, applying
// the same ordering contract as a full build: files sorted by path, symbols
// in source order within each file.
func NewFromFiles(root, fingerprint, pattern string, files []parser.FileResult) *SymbolIndex {
	idx := &SymbolIndex{
		Root:        root,
		Fingerprint: fingerprint,
		Pattern:     pattern,
		BuiltAt:     time.Now().UTC(),
		Files:       append([]parser.FileResult(nil), files...),
	}
	sort.SliceStable(idx.Files, func(a, b int) bool {
		return idx.Files[a].Path < idx.Files[b].Path
	})
	for _, f := range idx.Files {
		idx.Symbols = append(idx.Symbols, f.Symbols...)
	}
	idx.buildLookups()
	return idx
}

// buildLookups populates the name lookup maps from Symbols.
func (idx *SymbolIndex) buildLookups() {
	idx.byQualified = make(map[string][]int)
	idx.byName = make(map[string][]int)
	for i, sym := range idx.Symbols {
		idx.byQualified[sym.QualifiedName] = append(idx.byQualified[sym.QualifiedName], i)
		idx.byName[sym.Name] = append(idx.byName[sym.Name], i)
	}
}

// Lookup returns all definitions matching name. An exact qualified-name
// match wins; otherwise all definitions sharing the base name are
// returned, across files, in index order.
func (idx *SymbolIndex) Lookup(name string) []parser.Symbol {
	if ids, ok := idx.byQualified[name]; ok {
		return idx.symbolsAt(ids)
	}
	if ids, ok := idx.byName[name]; ok {
		return idx.symbolsAt(ids)
	}
	return nil
}

func (idx *SymbolIndex) symbolsAt(ids []int) []parser.Symbol {
	out := make([]parser.Symbol, len(ids))
	for i, id := range ids {
		out[i] = idx.Symbols[id]
	}
	return out
}

// FileByPath returns the extraction result for a root-relative path.
func (idx *SymbolIndex) FileByPath(path string) *parser.FileResult {
	// Files are sorted by path
	i := sort.Search(len(idx.Files), func(i int) bool {
		return idx.Files[i].Path >= path
	})
	if i < len(idx.Files) && idx.Files[i].Path == path {
		return &idx.Files[i]
	}
	return nil
}

// Summary condenses an index for transport-layer responses.
type Summary struct {
	Root        string         `json:"root"`
	Fingerprint string         `json:"fingerprint"`
	Pattern     string         `json:"pattern"`
	Package     string         `json:"package,omitempty"`
	FileCount   int            `json:"fileCount"`
	SymbolCount int            `json:"symbolCount"`
	Kinds       map[string]int `json:"kinds"`
	FileErrors  []FileError    `json:"fileErrors,omitempty"`
}

// Summarize produces the transport summary of the index.
func (idx *SymbolIndex) Summarize() *Summary {
	kinds := make(map[string]int)
	for _, sym := range idx.Symbols {
		kinds[string(sym.Kind)]++
	}
	return &Summary{
		Root:        idx.Root,
		Fingerprint: idx.Fingerprint,
		Pattern:     idx.Pattern,
		Package:     idx.Package,
		FileCount:   len(idx.Files),
		SymbolCount: len(idx.Symbols),
		Kinds:       kinds,
		FileErrors:  idx.FileErrors,
	}
}
