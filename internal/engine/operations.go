package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scout/internal/blame"
	"scout/internal/graph"
	"scout/internal/impact"
	"scout/internal/index"
	"scout/internal/parser"
	"scout/internal/search"
	"scout/internal/source"
)

// ScanResult is the payload of a ScanDirectory response.
type ScanResult struct {
	Summary *index.Summary  `json:"summary"`
	Symbols []parser.Symbol `json:"symbols"`
}

// ScanDirectory indexes the tree and reports every symbol definition.
func (e *Engine) ScanDirectory(ctx context.Context, req Request) *Envelope {
	env, root, idx, done := e.indexedQuery(ctx, "scan", req)
	if done {
		return env
	}
	defer root.Close()

	env.Data = &ScanResult{Summary: idx.Summarize(), Symbols: idx.Symbols}
	return e.finish(env)
}

// FindSymbol looks a symbol name up in the index: exact qualified-name
// match first, then all definitions sharing the base name.
func (e *Engine) FindSymbol(ctx context.Context, req Request, name string) *Envelope {
	env, root, idx, done := e.indexedQuery(ctx, "symbol", req)
	if done {
		return env
	}
	defer root.Close()

	env.Data = idx.Lookup(name)
	return e.finish(env)
}

// AnalyzeImpact reports the files and symbols that depend on name,
// directly or transitively. maxDepth <= 0 means unlimited.
func (e *Engine) AnalyzeImpact(ctx context.Context, req Request, name string, maxDepth int) *Envelope {
	env, root, idx, done := e.indexedQuery(ctx, "impact", req)
	if done {
		return env
	}
	defer root.Close()

	g, err := e.graphMemo.Get(ctx, idx)
	if err != nil {
		return e.finish(env.fail(err))
	}

	result, err := impact.Analyze(idx, g, name, maxDepth)
	if err != nil {
		return e.finish(env.fail(err))
	}
	env.Data = result
	return e.finish(env)
}

// BuildDependencyGraph derives the file and symbol dependency edges of the
// tree.
func (e *Engine) BuildDependencyGraph(ctx context.Context, req Request) *Envelope {
	env, root, idx, done := e.indexedQuery(ctx, "graph", req)
	if done {
		return env
	}
	defer root.Close()

	g, err := e.graphMemo.Get(ctx, idx)
	if err != nil {
		return e.finish(env.fail(err))
	}
	env.Data = g
	return e.finish(env)
}

// GrepSearch scans the tree for a literal or regex pattern, returning at
// most maxResults matches. maxResults <= 0 means unlimited.
func (e *Engine) GrepSearch(ctx context.Context, req Request, query string, regex bool, maxResults int) *Envelope {
	env := e.newEnvelope("search", req)
	root, err := e.provider.Resolve(ctx, req.Root, req.Credential)
	if err != nil {
		return e.finish(env.fail(err))
	}
	defer root.Close()
	env.Root = root.Path
	env.Fingerprint = root.Fingerprint

	scanner := search.New(root.Path, query, search.Options{
		FilePattern: req.Pattern,
		Regex:       regex,
		MaxFileSize: e.cfg.Search.MaxFileSizeMB * 1024 * 1024,
		IgnoreDirs:  e.cfg.Indexer.IgnoreDirs,
	})

	matches := []search.Match{}
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return e.finish(env.fail(err))
		}
		matches = append(matches, scanner.Match())
		if maxResults > 0 && len(matches) >= maxResults {
			// Early stop: pull-based scanning leaves the rest unscanned
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return e.finish(env.fail(err))
	}

	env.Data = matches
	return e.finish(env)
}

// GitBlame resolves the authorship of one line.
func (e *Engine) GitBlame(ctx context.Context, req Request, path string, line int) *Envelope {
	env := e.newEnvelope("blame", req)
	root, err := e.provider.Resolve(ctx, req.Root, req.Credential)
	if err != nil {
		return e.finish(env.fail(err))
	}
	defer root.Close()
	env.Root = root.Path
	env.Fingerprint = root.Fingerprint

	record, err := blame.Resolve(ctx, root.Path, path, line)
	if err != nil {
		return e.finish(env.fail(err))
	}
	env.Data = record
	return e.finish(env)
}

// Graph resolves the tree and returns its raw graph, for exporters that
// need structures rather than envelopes.
func (e *Engine) Graph(ctx context.Context, req Request) (*index.SymbolIndex, *graph.Graph, *source.Root, error) {
	root, err := e.provider.Resolve(ctx, req.Root, req.Credential)
	if err != nil {
		return nil, nil, nil, err
	}
	idx, err := e.indexMemo.Get(ctx, root.Path, root.Fingerprint, req.Pattern)
	if err != nil {
		root.Close()
		return nil, nil, nil, err
	}
	g, err := e.graphMemo.Get(ctx, idx)
	if err != nil {
		root.Close()
		return nil, nil, nil, err
	}
	return idx, g, root, nil
}

// indexedQuery resolves the root and memoized index shared by the
// structural operations. done=true means env already carries the failure
// and the root (if any) is closed.
func (e *Engine) indexedQuery(ctx context.Context, operation string, req Request) (*Envelope, *source.Root, *index.SymbolIndex, bool) {
	env := e.newEnvelope(operation, req)

	root, err := e.provider.Resolve(ctx, req.Root, req.Credential)
	if err != nil {
		return e.finish(env.fail(err)), nil, nil, true
	}
	env.Root = root.Path
	env.Fingerprint = root.Fingerprint

	idx, err := e.indexMemo.Get(ctx, root.Path, root.Fingerprint, req.Pattern)
	if err != nil {
		root.Close()
		return e.finish(env.fail(err)), nil, nil, true
	}

	env.FileErrors = idx.FileErrors
	return env, root, idx, false
}

func (e *Engine) newEnvelope(operation string, req Request) *Envelope {
	env := &Envelope{
		QueryID:   uuid.NewString(),
		Operation: operation,
		started:   time.Now(),
	}
	e.logger.Info("query started",
		"queryId", env.QueryID, "operation", operation, "root", req.Root)
	return env
}

func (e *Engine) finish(env *Envelope) *Envelope {
	env.ElapsedMs = time.Since(env.started).Milliseconds()
	if env.Error != nil {
		e.logger.Warn("query failed",
			"queryId", env.QueryID, "operation", env.Operation,
			"code", env.Error.Code, "error", env.Error.Message)
	} else {
		e.logger.Info("query finished",
			"queryId", env.QueryID, "operation", env.Operation,
			"elapsedMs", env.ElapsedMs)
	}
	return env
}
