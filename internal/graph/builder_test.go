package graph

import (
	"context"
	"testing"

	"scout/internal/index"
	"scout/internal/parser"
)

// twoFileIndex models a.py defining foo and b.py importing and calling it.
func twoFileIndex() *index.SymbolIndex {
	return index.NewFromFiles("/repo", "fp", "*.py", []parser.FileResult{
		{
			Path:   "a.py",
			Module: "a",
			Symbols: []parser.Symbol{
				{Name: "foo", QualifiedName: "a.foo", Kind: parser.KindFunction, Path: "a.py", StartLine: 1, EndLine: 2},
			},
		},
		{
			Path:   "b.py",
			Module: "b",
			Imports: []parser.Import{
				{Module: "a", Names: []string{"foo"}, Raw: "a", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "foo", Kind: parser.RefCall, Line: 2},
			},
		},
	})
}

func TestBuild_FileAndSymbolEdges(t *testing.T) {
	g, err := Build(context.Background(), twoFileIndex())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(g.FileEdges) != 1 {
		t.Fatalf("FileEdges = %+v, want 1 edge", g.FileEdges)
	}
	fe := g.FileEdges[0]
	if fe.From != "b.py" || fe.To != "a.py" || fe.Dangling {
		t.Errorf("file edge = %+v, want b.py -> a.py", fe)
	}

	if len(g.SymbolEdges) != 1 {
		t.Fatalf("SymbolEdges = %+v, want 1 edge", g.SymbolEdges)
	}
	se := g.SymbolEdges[0]
	if se.To != "a.foo" || se.FromFile != "b.py" || se.Kind != EdgeCall {
		t.Errorf("symbol edge = %+v, want call b.py -> a.foo", se)
	}
	if se.From != "" {
		t.Errorf("module-level call should have empty From, got %q", se.From)
	}

	deps := g.SymbolDependents("a.foo")
	if len(deps) != 1 || deps[0].FromFile != "b.py" {
		t.Errorf("SymbolDependents(a.foo) = %+v", deps)
	}
	fdeps := g.FileDependents("a.py")
	if len(fdeps) != 1 || fdeps[0].From != "b.py" {
		t.Errorf("FileDependents(a.py) = %+v", fdeps)
	}
}

func TestBuild_DanglingImportKept(t *testing.T) {
	idx := index.NewFromFiles("/repo", "fp", "*.py", []parser.FileResult{
		{
			Path:   "app.py",
			Module: "app",
			Imports: []parser.Import{
				{Module: "os", Raw: "os", Line: 1},
				{Module: "requests", Raw: "requests", Line: 2},
			},
		},
	})

	g, err := Build(context.Background(), idx)
	if err != nil {
		t.Fatal(err)
	}

	dangling := g.DanglingEdges()
	if len(dangling) != 2 {
		t.Fatalf("DanglingEdges = %+v, want 2", dangling)
	}
	if dangling[0].Target != "os" || dangling[1].Target != "requests" {
		t.Errorf("dangling targets = %+v", dangling)
	}
	for _, e := range dangling {
		if e.To != "" {
			t.Errorf("dangling edge should have no To: %+v", e)
		}
	}
}

func TestBuild_RelativeImport(t *testing.T) {
	idx := index.NewFromFiles("/repo", "fp", "*.py", []parser.FileResult{
		{
			Path:   "pkg/util.py",
			Module: "pkg.util",
			Symbols: []parser.Symbol{
				{Name: "helper", QualifiedName: "pkg.util.helper", Kind: parser.KindFunction, Path: "pkg/util.py", StartLine: 1, EndLine: 2},
			},
		},
		{
			Path:   "pkg/main.py",
			Module: "pkg.main",
			Imports: []parser.Import{
				// from .util import helper
				{Module: "util", Names: []string{"helper"}, Relative: 1, Raw: ".util", Line: 1},
			},
			Refs: []parser.Ref{
				{Name: "helper", Kind: parser.RefCall, Line: 3},
			},
		},
		{
			Path:   "pkg/__init__.py",
			Module: "pkg",
			Imports: []parser.Import{
				// from . import util
				{Names: []string{"util"}, Relative: 1, Raw: ".", Line: 1},
			},
		},
	})

	g, err := Build(context.Background(), idx)
	if err != nil {
		t.Fatal(err)
	}

	var mainEdge, initEdge *FileEdge
	for i := range g.FileEdges {
		switch g.FileEdges[i].From {
		case "pkg/main.py":
			mainEdge = &g.FileEdges[i]
		case "pkg/__init__.py":
			initEdge = &g.FileEdges[i]
		}
	}
	if mainEdge == nil || mainEdge.To != "pkg/util.py" || mainEdge.Dangling {
		t.Errorf("main.py edge = %+v, want pkg/util.py", mainEdge)
	}
	if initEdge == nil || initEdge.To != "pkg/util.py" || initEdge.Dangling {
		t.Errorf("__init__.py edge = %+v, want pkg/util.py", initEdge)
	}

	deps := g.SymbolDependents("pkg.util.helper")
	if len(deps) != 1 || deps[0].FromFile != "pkg/main.py" {
		t.Errorf("SymbolDependents(pkg.util.helper) = %+v", deps)
	}
}

func TestBuild_ScopeResolutionBeforeGlobal(t *testing.T) {
	// Both modules define "run"; the local one must win for the local call.
	idx := index.NewFromFiles("/repo", "fp", "*.py", []parser.FileResult{
		{
			Path:   "first.py",
			Module: "first",
			Symbols: []parser.Symbol{
				{Name: "run", QualifiedName: "first.run", Kind: parser.KindFunction, Path: "first.py", StartLine: 1, EndLine: 2},
			},
		},
		{
			Path:   "second.py",
			Module: "second",
			Symbols: []parser.Symbol{
				{Name: "run", QualifiedName: "second.run", Kind: parser.KindFunction, Path: "second.py", StartLine: 1, EndLine: 2},
				{Name: "main", QualifiedName: "second.main", Kind: parser.KindFunction, Path: "second.py", StartLine: 4, EndLine: 5},
			},
			Refs: []parser.Ref{
				{Name: "run", Kind: parser.RefCall, Line: 5, Enclosing: "second.main"},
			},
		},
	})

	g, err := Build(context.Background(), idx)
	if err != nil {
		t.Fatal(err)
	}

	if len(g.SymbolEdges) != 1 {
		t.Fatalf("SymbolEdges = %+v", g.SymbolEdges)
	}
	if g.SymbolEdges[0].To != "second.run" {
		t.Errorf("call resolved to %q, want second.run", g.SymbolEdges[0].To)
	}
}

func TestBuild_SelfRecursionSkipped(t *testing.T) {
	idx := index.NewFromFiles("/repo", "fp", "*.py", []parser.FileResult{
		{
			Path:   "r.py",
			Module: "r",
			Symbols: []parser.Symbol{
				{Name: "loop", QualifiedName: "r.loop", Kind: parser.KindFunction, Path: "r.py", StartLine: 1, EndLine: 3},
			},
			Refs: []parser.Ref{
				{Name: "loop", Kind: parser.RefCall, Line: 2, Enclosing: "r.loop"},
			},
		},
	})

	g, err := Build(context.Background(), idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.SymbolEdges) != 0 {
		t.Errorf("self-recursion should not produce edges: %+v", g.SymbolEdges)
	}
}

func TestMemo_SharesGraphs(t *testing.T) {
	idx := twoFileIndex()
	memo := NewMemo()

	first, err := memo.Get(context.Background(), idx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := memo.Get(context.Background(), idx)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Memo should return the same graph for one snapshot")
	}
}
