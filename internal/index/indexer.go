package index

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"scout/internal/config"
	"scout/internal/errors"
	"scout/internal/parser"
	"scout/internal/paths"
)

// Indexer builds symbol indexes for source trees.
type Indexer struct {
	cfg    config.IndexerConfig
	logger *slog.Logger
}

// NewIndexer creates a new indexer.
func NewIndexer(cfg config.IndexerConfig, logger *slog.Logger) *Indexer {
	return &Indexer{cfg: cfg, logger: logger}
}

// Build walks root, parses every file matching pattern, and assembles a
// deterministic SymbolIndex. Files that fail to parse are recorded in
// FileErrors and excluded; only walk failures or cancellation abort the
// build. fingerprint identifies the tree snapshot being indexed.
func (ix *Indexer) Build(ctx context.Context, root, fingerprint, pattern string) (*SymbolIndex, error) {
	if !parser.Available() {
		return nil, errors.New(errors.InternalError, "tree-sitter parsing requires a cgo build")
	}

	if pattern == "" {
		pattern = ix.cfg.FilePattern
	}

	start := time.Now()

	files, err := CollectFiles(root, pattern, ix.cfg.IgnoreDirs)
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "tree walk failed", err)
	}

	layout := DetectLayout(root)

	// Per-file parsing is independent; edge resolution happens later in
	// the graph builder, after all files are parsed.
	results := make([]*parser.FileResult, len(files))
	fileErrs := make([]*FileError, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers())

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			source, readErr := os.ReadFile(paths.JoinRoot(root, rel))
			if readErr != nil {
				fileErrs[i] = &FileError{Path: rel, Message: readErr.Error()}
				return nil
			}

			module := parser.ModuleName(layout.ModulePath(rel), "")
			result, parseErr := parser.NewParser().ParseFile(gctx, rel, module, source)
			if parseErr != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fileErrs[i] = &FileError{Path: rel, Message: parseErr.Error()}
				return nil
			}

			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Cancellation: the partial build is discarded, never published
		return nil, errors.Wrap(errors.Timeout, "index build aborted", err)
	}

	idx := &SymbolIndex{
		Root:        root,
		Fingerprint: fingerprint,
		Pattern:     pattern,
		Package:     layout.ProjectName,
		BuiltAt:     time.Now().UTC(),
	}

	// files is sorted, so assembly order is deterministic: file path
	// lexical order, then source order within a file.
	for i := range files {
		if fileErrs[i] != nil {
			idx.FileErrors = append(idx.FileErrors, *fileErrs[i])
			continue
		}
		if results[i] == nil {
			continue
		}
		sortFileSymbols(results[i].Symbols)
		idx.Files = append(idx.Files, *results[i])
		idx.Symbols = append(idx.Symbols, results[i].Symbols...)
	}
	idx.buildLookups()

	ix.logger.Info("index built",
		"root", root,
		"files", len(idx.Files),
		"symbols", len(idx.Symbols),
		"errors", len(idx.FileErrors),
		"elapsed", time.Since(start))

	return idx, nil
}

func (ix *Indexer) workers() int {
	if ix.cfg.Workers > 0 {
		return ix.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// sortFileSymbols orders symbols by source position within one file.
// The extractor already emits them in walk order; this keeps the
// ordering contract explicit.
func sortFileSymbols(symbols []parser.Symbol) {
	sort.SliceStable(symbols, func(a, b int) bool {
		return symbols[a].StartLine < symbols[b].StartLine
	})
}
