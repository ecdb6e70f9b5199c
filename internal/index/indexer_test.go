//go:build cgo

package index

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"scout/internal/config"
	"scout/internal/parser"
	"scout/internal/slogutil"
)

func testIndexer() *Indexer {
	cfg := config.DefaultConfig().Indexer
	return NewIndexer(cfg, slogutil.NewDiscardLogger())
}

func TestBuild_BasicTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.py":        "from pkg.util import helper\n\ndef main():\n    helper()\n",
		"pkg/util.py":   "def helper():\n    return 1\n",
		"pkg/consts.py": "LIMIT = 10\n",
	})

	idx, err := testIndexer().Build(context.Background(), root, "fp1", "*.py")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(idx.Files) != 3 {
		t.Fatalf("Files = %d, want 3", len(idx.Files))
	}
	if len(idx.FileErrors) != 0 {
		t.Fatalf("FileErrors = %v, want none", idx.FileErrors)
	}
	if idx.Fingerprint != "fp1" {
		t.Errorf("Fingerprint = %q", idx.Fingerprint)
	}

	// File path lexical order
	var paths []string
	for _, f := range idx.Files {
		paths = append(paths, f.Path)
	}
	want := []string{"app.py", "pkg/consts.py", "pkg/util.py"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("file order = %v, want %v", paths, want)
	}

	syms := idx.Lookup("helper")
	if len(syms) != 1 || syms[0].QualifiedName != "pkg.util.helper" {
		t.Errorf("Lookup(helper) = %+v", syms)
	}
	syms = idx.Lookup("pkg.consts.LIMIT")
	if len(syms) != 1 || syms[0].Kind != parser.KindModuleVariable {
		t.Errorf("Lookup(pkg.consts.LIMIT) = %+v", syms)
	}
}

func TestBuild_ParseErrorIsPartial(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"good.py":   "def ok():\n    pass\n",
		"broken.py": "def broken(:\n",
	})

	idx, err := testIndexer().Build(context.Background(), root, "fp1", "*.py")
	if err != nil {
		t.Fatalf("Build should not fail on a per-file parse error: %v", err)
	}
	if len(idx.Files) != 1 || idx.Files[0].Path != "good.py" {
		t.Errorf("Files = %+v, want only good.py", idx.Files)
	}
	if len(idx.FileErrors) != 1 || idx.FileErrors[0].Path != "broken.py" {
		t.Errorf("FileErrors = %+v, want broken.py", idx.FileErrors)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":        "def one():\n    pass\n\ndef two():\n    pass\n",
		"z.py":        "class Last:\n    def m(self):\n        pass\n",
		"pkg/b.py":    "VALUE = 3\n",
		"pkg/deep.py": "import a\n\ndef f():\n    one()\n",
	})

	ix := testIndexer()
	first, err := ix.Build(context.Background(), root, "fp", "*.py")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ix.Build(context.Background(), root, "fp", "*.py")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Symbols, second.Symbols) {
		t.Error("Two builds of an unchanged tree should yield identical symbols")
	}
	if !reflect.DeepEqual(first.Files, second.Files) {
		t.Error("Two builds of an unchanged tree should yield identical files")
	}
}

func TestBuild_SrcLayoutModules(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pyproject.toml":     "[project]\nname = \"widget\"\n",
		"src/widget/core.py": "def spin():\n    pass\n",
	})

	idx, err := testIndexer().Build(context.Background(), root, "fp", "*.py")
	if err != nil {
		t.Fatal(err)
	}
	if idx.Package != "widget" {
		t.Errorf("Package = %q, want widget", idx.Package)
	}
	syms := idx.Lookup("widget.core.spin")
	if len(syms) != 1 {
		t.Fatalf("Lookup(widget.core.spin) = %+v", syms)
	}
	if syms[0].Path != "src/widget/core.py" {
		t.Errorf("Path = %q, want src/widget/core.py", syms[0].Path)
	}
}

func TestBuild_Cancellation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "x = 1\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testIndexer().Build(ctx, root, "fp", "*.py"); err == nil {
		t.Error("Build with cancelled context should fail")
	}
}

func TestMemo_SharesBuilds(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "def f():\n    pass\n"})

	memo := NewMemo(testIndexer())

	const callers = 8
	results := make([]*SymbolIndex, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := memo.Get(context.Background(), root, "fp", "*.py")
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = idx
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatal("Concurrent Get calls for one snapshot should share one index")
		}
	}
	if memo.Len() != 1 {
		t.Errorf("Len = %d, want 1", memo.Len())
	}

	// A new fingerprint forces a fresh build
	other, err := memo.Get(context.Background(), root, "fp2", "*.py")
	if err != nil {
		t.Fatal(err)
	}
	if other == results[0] {
		t.Error("New fingerprint should not reuse the stale index")
	}

	memo.Invalidate("fp")
	if memo.Len() != 1 {
		t.Errorf("Len after Invalidate = %d, want 1", memo.Len())
	}
}
