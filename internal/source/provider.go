// Package source resolves root specifiers, local paths or repository URLs,
// to analyzable local directories.
package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"scout/internal/config"
	"scout/internal/errors"
	"scout/internal/repocache"
	"scout/internal/repostate"
)

// Origin tags how a root was resolved.
type Origin string

const (
	// OriginLocal is an existing local directory
	OriginLocal Origin = "local"
	// OriginRemote is a cached clone of a remote repository
	OriginRemote Origin = "remote"
)

// Root is a resolved source root. Immutable once resolved; a re-fetch
// produces a new Root. Remote roots hold a cache lease until Close.
type Root struct {
	Path        string              `json:"path"`
	Origin      Origin              `json:"origin"`
	Identity    *repocache.Identity `json:"identity,omitempty"` // Remote origins only
	Fingerprint string              `json:"fingerprint"`

	lease *repocache.Lease
}

// Close releases the cache lease held by a remote root. Safe on local
// roots and safe to call more than once.
func (r *Root) Close() {
	if r.lease != nil {
		r.lease.Release()
	}
}

// Provider resolves root specifiers, delegating remote fetches to the
// repository cache with a bounded retry policy.
type Provider struct {
	cache    *repocache.Cache
	fetchCfg config.FetchConfig
	hosts    Hosts
	logger   *slog.Logger
}

// NewProvider creates a provider around the shared repository cache.
func NewProvider(cache *repocache.Cache, fetchCfg config.FetchConfig, hosts Hosts, logger *slog.Logger) *Provider {
	return &Provider{cache: cache, fetchCfg: fetchCfg, hosts: hosts, logger: logger}
}

// Resolve maps spec, a filesystem path or repository URL, to a Root.
// An explicit credential wins over host-configured and ambient ones.
func (p *Provider) Resolve(ctx context.Context, spec, credential string) (*Root, error) {
	if repocache.IsRepositoryURL(spec) {
		return p.resolveRemote(ctx, spec, credential)
	}
	return p.resolveLocal(spec)
}

func (p *Provider) resolveLocal(spec string) (*Root, error) {
	absolute, err := filepath.Abs(spec)
	if err != nil {
		return nil, errors.Wrap(errors.NotFound, "invalid path: "+spec, err)
	}

	info, err := os.Stat(absolute)
	if err != nil {
		return nil, errors.Wrap(errors.NotFound, "path does not exist: "+spec, err)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.NotFound, "not a directory: %s", spec)
	}

	fingerprint, err := repostate.Fingerprint(absolute)
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "fingerprint failed: "+spec, err)
	}

	return &Root{
		Path:        absolute,
		Origin:      OriginLocal,
		Fingerprint: fingerprint,
	}, nil
}

func (p *Provider) resolveRemote(ctx context.Context, spec, credential string) (*Root, error) {
	id, err := repocache.ParseURL(spec)
	if err != nil {
		return nil, err
	}

	if credential == "" {
		credential = p.hosts.Credential(id.Host)
	}

	lease, err := p.fetchWithRetry(ctx, id, credential)
	if err != nil {
		return nil, err
	}

	return &Root{
		Path:        lease.Path,
		Origin:      OriginRemote,
		Identity:    &id,
		Fingerprint: lease.Fingerprint,
		lease:       lease,
	}, nil
}

// fetchWithRetry retries transient fetch failures with doubling backoff.
// Authentication and not-found failures are final on the first attempt.
func (p *Provider) fetchWithRetry(ctx context.Context, id repocache.Identity, credential string) (*repocache.Lease, error) {
	backoff := time.Duration(p.fetchCfg.BackoffMs) * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= p.fetchCfg.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("retrying fetch",
				"repo", id.String(), "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errors.Wrap(errors.Timeout, "fetch aborted: "+id.String(), ctx.Err())
			}
			backoff *= 2
		}

		lease, err := p.cache.GetOrFetch(ctx, id, credential)
		if err == nil {
			return lease, nil
		}
		if !errors.IsCode(err, errors.FetchFailed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
