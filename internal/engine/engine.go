// Package engine wires the source provider, repository cache, indexer, and
// analyzers into the query operations the CLI and MCP server expose.
package engine

import (
	"log/slog"
	"time"

	"scout/internal/config"
	"scout/internal/errors"
	"scout/internal/graph"
	"scout/internal/index"
	"scout/internal/repocache"
	"scout/internal/source"
)

// Engine owns the long-lived analysis state: one repository cache and the
// per-snapshot index and graph memo tables.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	cache    *repocache.Cache
	provider *source.Provider

	indexMemo *index.Memo
	graphMemo *graph.Memo
}

// New builds an engine from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	fetcher := &repocache.GitFetcher{
		Timeout: time.Duration(cfg.Cache.CloneTimeoutSec) * time.Second,
		Shallow: cfg.Cache.Shallow,
	}

	cache, err := repocache.Open(cfg.Cache, fetcher, logger)
	if err != nil {
		return nil, err
	}

	hosts, err := source.LoadHosts(cfg.Cache.HostsFile)
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		cache:     cache,
		provider:  source.NewProvider(cache, cfg.Fetch, hosts, logger),
		indexMemo: index.NewMemo(index.NewIndexer(cfg.Indexer, logger)),
		graphMemo: graph.NewMemo(),
	}, nil
}

// Close releases the engine's cache resources.
func (e *Engine) Close() error {
	return e.cache.Close()
}

// Cache exposes the repository cache for maintenance operations.
func (e *Engine) Cache() *repocache.Cache {
	return e.cache
}

// Request names the tree a query runs against.
type Request struct {
	// Root is a local path or repository URL.
	Root string
	// Credential authenticates remote fetches; ambient host credentials
	// apply when empty.
	Credential string
	// Pattern overrides the configured indexable-file glob.
	Pattern string
}

// Envelope is the uniform response shape. A root-level failure sets Error
// and leaves Data empty; per-file indexing failures ride along in
// FileErrors next to the data they did not abort.
type Envelope struct {
	QueryID     string            `json:"queryId"`
	Operation   string            `json:"operation"`
	Root        string            `json:"root,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Data        any               `json:"data,omitempty"`
	FileErrors  []index.FileError `json:"fileErrors,omitempty"`
	Error       *ErrorBody        `json:"error,omitempty"`
	ElapsedMs   int64             `json:"elapsedMs"`

	started time.Time
}

// ErrorBody is the wire form of a root-level failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (env *Envelope) fail(err error) *Envelope {
	env.Error = &ErrorBody{
		Code:    string(errors.CodeOf(err)),
		Message: err.Error(),
	}
	return env
}
