package impact

import (
	"context"
	"testing"

	"scout/internal/errors"
	"scout/internal/graph"
	"scout/internal/index"
	"scout/internal/parser"
)

func buildGraph(t *testing.T, files []parser.FileResult) (*index.SymbolIndex, *graph.Graph) {
	t.Helper()
	idx := index.NewFromFiles("/repo", "fp", "*.py", files)
	g, err := graph.Build(context.Background(), idx)
	if err != nil {
		t.Fatalf("graph.Build failed: %v", err)
	}
	return idx, g
}

func fn(module, name, path string, line int) parser.Symbol {
	return parser.Symbol{
		Name:          name,
		QualifiedName: module + "." + name,
		Kind:          parser.KindFunction,
		Path:          path,
		StartLine:     line,
		EndLine:       line + 1,
	}
}

func TestAnalyze_DirectDependent(t *testing.T) {
	// a.py defines foo; b.py imports and calls it at module scope.
	idx, g := buildGraph(t, []parser.FileResult{
		{
			Path:    "a.py",
			Module:  "a",
			Symbols: []parser.Symbol{fn("a", "foo", "a.py", 1)},
		},
		{
			Path:   "b.py",
			Module: "b",
			Imports: []parser.Import{
				{Module: "a", Names: []string{"foo"}, Raw: "a", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "foo", Kind: parser.RefCall, Line: 1},
			},
		},
	})

	result, err := Analyze(idx, g, "foo", 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.Definitions) != 1 || result.Definitions[0].Path != "a.py" {
		t.Fatalf("Definitions = %+v", result.Definitions)
	}
	if len(result.Items) == 0 {
		t.Fatal("expected at least one impacted item")
	}
	first := result.Items[0]
	if first.File != "b.py" || first.Depth != 1 {
		t.Errorf("first item = %+v, want b.py at depth 1", first)
	}
	if result.Truncated {
		t.Error("unlimited depth should never truncate")
	}
}

func TestAnalyze_SymbolNotFound(t *testing.T) {
	idx, g := buildGraph(t, []parser.FileResult{
		{Path: "a.py", Module: "a", Symbols: []parser.Symbol{fn("a", "foo", "a.py", 1)}},
	})

	_, err := Analyze(idx, g, "missing", 0)
	if !errors.IsCode(err, errors.SymbolNotFound) {
		t.Errorf("err = %v, want SYMBOL_NOT_FOUND", err)
	}
}

func TestAnalyze_TransitiveChainAndOrdering(t *testing.T) {
	// core.base <- mid.wrap <- top.entry: nearest impact first.
	idx, g := buildGraph(t, []parser.FileResult{
		{
			Path:    "core.py",
			Module:  "core",
			Symbols: []parser.Symbol{fn("core", "base", "core.py", 1)},
		},
		{
			Path:   "mid.py",
			Module: "mid",
			Symbols: []parser.Symbol{
				fn("mid", "wrap", "mid.py", 2),
			},
			Imports: []parser.Import{
				{Module: "core", Names: []string{"base"}, Raw: "core", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "base", Kind: parser.RefCall, Line: 3, Enclosing: "mid.wrap"},
			},
		},
		{
			Path:   "top.py",
			Module: "top",
			Symbols: []parser.Symbol{
				fn("top", "entry", "top.py", 2),
			},
			Imports: []parser.Import{
				{Module: "mid", Names: []string{"wrap"}, Raw: "mid", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "wrap", Kind: parser.RefCall, Line: 3, Enclosing: "top.entry"},
			},
		},
	})

	result, err := Analyze(idx, g, "core.base", 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Items) < 2 {
		t.Fatalf("Items = %+v, want the full chain", result.Items)
	}
	if result.Items[0].Symbol != "mid.wrap" || result.Items[0].Depth != 1 {
		t.Errorf("Items[0] = %+v, want mid.wrap at depth 1", result.Items[0])
	}
	var sawEntry bool
	for _, item := range result.Items {
		if item.Symbol == "top.entry" {
			sawEntry = true
			if item.Depth != 2 {
				t.Errorf("top.entry depth = %d, want 2", item.Depth)
			}
		}
		if item.Depth > 1 && item == result.Items[0] {
			t.Error("deeper items must not precede depth-1 items")
		}
	}
	if !sawEntry {
		t.Errorf("top.entry missing from %+v", result.Items)
	}
	if result.DepthReached != 2 {
		t.Errorf("DepthReached = %d, want 2", result.DepthReached)
	}
}

func TestAnalyze_DepthCutoffTruncates(t *testing.T) {
	idx, g := buildGraph(t, []parser.FileResult{
		{
			Path:    "core.py",
			Module:  "core",
			Symbols: []parser.Symbol{fn("core", "base", "core.py", 1)},
		},
		{
			Path:    "mid.py",
			Module:  "mid",
			Symbols: []parser.Symbol{fn("mid", "wrap", "mid.py", 2)},
			Imports: []parser.Import{
				{Module: "core", Names: []string{"base"}, Raw: "core", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "base", Kind: parser.RefCall, Line: 3, Enclosing: "mid.wrap"},
			},
		},
		{
			Path:    "top.py",
			Module:  "top",
			Symbols: []parser.Symbol{fn("top", "entry", "top.py", 2)},
			Imports: []parser.Import{
				{Module: "mid", Names: []string{"wrap"}, Raw: "mid", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "wrap", Kind: parser.RefCall, Line: 3, Enclosing: "top.entry"},
			},
		},
	})

	result, err := Analyze(idx, g, "core.base", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Truncated {
		t.Error("depth cutoff with a non-empty frontier should set Truncated")
	}
	for _, item := range result.Items {
		if item.Depth > 1 {
			t.Errorf("item beyond cutoff: %+v", item)
		}
	}
	if result.DepthReached != 1 {
		t.Errorf("DepthReached = %d, want 1", result.DepthReached)
	}
}

func TestAnalyze_CycleTerminates(t *testing.T) {
	// a.f and b.g call each other.
	idx, g := buildGraph(t, []parser.FileResult{
		{
			Path:    "a.py",
			Module:  "a",
			Symbols: []parser.Symbol{fn("a", "f", "a.py", 2)},
			Imports: []parser.Import{
				{Module: "b", Names: []string{"g"}, Raw: "b", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "g", Kind: parser.RefCall, Line: 3, Enclosing: "a.f"},
			},
		},
		{
			Path:    "b.py",
			Module:  "b",
			Symbols: []parser.Symbol{fn("b", "g", "b.py", 2)},
			Imports: []parser.Import{
				{Module: "a", Names: []string{"f"}, Raw: "a", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "f", Kind: parser.RefCall, Line: 3, Enclosing: "b.g"},
			},
		},
	})

	result, err := Analyze(idx, g, "a.f", 0)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]int)
	for _, item := range result.Items {
		key := item.Symbol + "|" + item.File
		seen[key]++
		if seen[key] > 1 {
			t.Errorf("item visited twice: %+v", item)
		}
	}
}

func TestAnalyze_NoDependents(t *testing.T) {
	idx, g := buildGraph(t, []parser.FileResult{
		{Path: "lone.py", Module: "lone", Symbols: []parser.Symbol{fn("lone", "orphan", "lone.py", 1)}},
	})

	result, err := Analyze(idx, g, "orphan", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Items) != 0 {
		t.Errorf("Items = %+v, want none", result.Items)
	}
	if result.Truncated {
		t.Error("empty result should not truncate")
	}
	if result.DepthReached != 0 {
		t.Errorf("DepthReached = %d, want 0", result.DepthReached)
	}
}
