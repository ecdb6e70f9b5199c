package graph

import (
	"context"
	"strings"

	"scout/internal/index"
	"scout/internal/parser"
)

// Build derives the dependency graph of an indexed tree. Import targets are
// resolved to sibling files by module name, trying the longest dotted prefix
// first (first match on the module search path); unresolved targets become
// dangling edges. Call and reference sites that resolve to indexed symbol
// definitions become symbol-level edges.
func Build(ctx context.Context, idx *index.SymbolIndex) (*Graph, error) {
	g := &Graph{
		Root:        idx.Root,
		Fingerprint: idx.Fingerprint,
	}

	moduleFiles := make(map[string]string, len(idx.Files))
	for _, f := range idx.Files {
		// First file in lexical path order wins on module collision
		if _, exists := moduleFiles[f.Module]; !exists {
			moduleFiles[f.Module] = f.Path
		}
	}

	for i := range idx.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := &idx.Files[i]
		buildFileEdges(g, f, moduleFiles)
		buildSymbolEdges(g, f, idx)
	}

	g.buildReverse()
	return g, nil
}

// buildFileEdges records one import edge per import statement of f.
func buildFileEdges(g *Graph, f *parser.FileResult, moduleFiles map[string]string) {
	for _, imp := range f.Imports {
		edge := FileEdge{From: f.Path, Target: importTarget(imp), Line: imp.Line}

		var resolved string
		for _, candidate := range importCandidates(f, imp) {
			if path, ok := moduleFiles[candidate]; ok && path != f.Path {
				resolved = path
				break
			}
		}

		if resolved == "" {
			edge.Dangling = true
		} else {
			edge.To = resolved
		}
		g.FileEdges = append(g.FileEdges, edge)
	}
}

// importTarget renders the import target as written.
func importTarget(imp parser.Import) string {
	if imp.Raw != "" {
		return imp.Raw
	}
	return imp.Module
}

// importCandidates lists dotted module names an import may refer to, most
// specific first.
func importCandidates(f *parser.FileResult, imp parser.Import) []string {
	var candidates []string

	if imp.Relative > 0 {
		base := relativeBase(f, imp.Relative)
		if base == "" && imp.Module == "" {
			return nil
		}
		target := joinModule(base, imp.Module)
		for _, name := range imp.Names {
			if name != "*" {
				candidates = append(candidates, joinModule(target, name))
			}
		}
		if target != "" {
			candidates = append(candidates, target)
		}
		return candidates
	}

	if imp.Module == "" {
		return nil
	}

	// from a.b import c: c may be the submodule a.b.c or a symbol in a.b
	for _, name := range imp.Names {
		if name != "*" {
			candidates = append(candidates, imp.Module+"."+name)
		}
	}
	// import a.b.c: longest prefix present in the tree wins
	parts := strings.Split(imp.Module, ".")
	for end := len(parts); end > 0; end-- {
		candidates = append(candidates, strings.Join(parts[:end], "."))
	}
	return candidates
}

// relativeBase resolves the package a relative import is anchored at.
// One dot is the importing file's own package.
func relativeBase(f *parser.FileResult, dots int) string {
	parts := strings.Split(f.Module, ".")
	if f.Module == "" {
		parts = nil
	}

	// A package __init__ module IS its package; other modules live one
	// level below theirs.
	if !strings.HasSuffix(f.Path, "__init__.py") && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	for i := 1; i < dots && len(parts) > 0; i++ {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

func joinModule(base, rest string) string {
	switch {
	case base == "":
		return rest
	case rest == "":
		return base
	default:
		return base + "." + rest
	}
}

// buildSymbolEdges records edges for call and reference sites of f that
// resolve to indexed definitions.
func buildSymbolEdges(g *Graph, f *parser.FileResult, idx *index.SymbolIndex) {
	imported := importedNames(f)

	for _, ref := range f.Refs {
		target := resolveRef(f, ref, imported, idx)
		if target == nil {
			continue
		}
		if target.QualifiedName == ref.Enclosing {
			// Self-recursion is not a dependency
			continue
		}
		g.SymbolEdges = append(g.SymbolEdges, SymbolEdge{
			From:     ref.Enclosing,
			FromFile: f.Path,
			To:       target.QualifiedName,
			ToFile:   target.Path,
			Kind:     refEdgeKind(ref.Kind),
			Line:     ref.Line,
		})
	}
}

// importedNames maps names bound by from-imports to their source module.
func importedNames(f *parser.FileResult) map[string]string {
	bound := make(map[string]string)
	for _, imp := range f.Imports {
		if len(imp.Names) == 0 {
			continue
		}
		module := imp.Module
		if imp.Relative > 0 {
			module = joinModule(relativeBase(f, imp.Relative), imp.Module)
		}
		if module == "" {
			continue
		}
		for _, name := range imp.Names {
			if name != "*" {
				bound[name] = module
			}
		}
	}
	return bound
}

// resolveRef finds the definition a reference points at: enclosing scopes
// first, then the defining module, then from-imports, then (for calls only)
// the first base-name match anywhere in the index.
func resolveRef(f *parser.FileResult, ref parser.Ref, imported map[string]string, idx *index.SymbolIndex) *parser.Symbol {
	for scope := ref.Enclosing; scope != ""; scope = parentScope(scope, f.Module) {
		if sym := qualifiedLookup(idx, scope+"."+ref.Name); sym != nil {
			return sym
		}
	}
	if sym := qualifiedLookup(idx, f.Module+"."+ref.Name); sym != nil {
		return sym
	}
	if module, ok := imported[ref.Name]; ok {
		if sym := qualifiedLookup(idx, module+"."+ref.Name); sym != nil {
			return sym
		}
	}
	// Plain name references resolve only through scope or imports; calls
	// may fall through to a global base-name match.
	if ref.Kind != parser.RefCall {
		return nil
	}
	if syms := idx.Lookup(ref.Name); len(syms) > 0 {
		return &syms[0]
	}
	return nil
}

// qualifiedLookup returns the definition with the exact qualified name.
func qualifiedLookup(idx *index.SymbolIndex, qualified string) *parser.Symbol {
	syms := idx.Lookup(qualified)
	for i := range syms {
		if syms[i].QualifiedName == qualified {
			return &syms[i]
		}
	}
	return nil
}

// parentScope strips one nesting level, stopping at the module boundary.
func parentScope(scope, module string) string {
	if scope == module {
		return ""
	}
	i := strings.LastIndex(scope, ".")
	if i < 0 {
		return ""
	}
	parent := scope[:i]
	if parent == module {
		return ""
	}
	return parent
}

func refEdgeKind(kind parser.RefKind) EdgeKind {
	if kind == parser.RefCall {
		return EdgeCall
	}
	return EdgeReference
}
