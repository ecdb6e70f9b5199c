package repocache

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"scout/internal/config"
	"scout/internal/errors"
)

// Lease is a leased cache entry. The entry cannot be evicted until every
// lease on it is released.
type Lease struct {
	Path        string
	Fingerprint string
	Identity    Identity

	cache    *Cache
	key      string
	released sync.Once
}

// Release returns the lease, making the entry evictable again. Safe to
// call more than once.
func (l *Lease) Release() {
	l.released.Do(func() {
		l.cache.release(l.key)
	})
}

// Cache is the shared local repository cache: content-addressed directories
// under a budgeted cache dir, with a SQLite manifest tracking sizes and
// usage times for LRU/TTL eviction.
type Cache struct {
	dir      string
	cfg      config.CacheConfig
	fetcher  Fetcher
	manifest *Manifest
	logger   *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	leases map[string]int
}

// Open opens the cache rooted at cfg.Dir.
func Open(cfg config.CacheConfig, fetcher Fetcher, logger *slog.Logger) (*Cache, error) {
	dir := cfg.Dir
	reposDir := filepath.Join(dir, "repos")
	if err := os.MkdirAll(reposDir, 0755); err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to create cache directory", err)
	}

	manifest, err := OpenManifest(dir)
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to open cache manifest", err)
	}

	return &Cache{
		dir:      dir,
		cfg:      cfg,
		fetcher:  fetcher,
		manifest: manifest,
		logger:   logger,
		leases:   make(map[string]int),
	}, nil
}

// Close closes the cache manifest.
func (c *Cache) Close() error {
	return c.manifest.Close()
}

// GetOrFetch returns a leased local checkout of the repository. Concurrent
// callers for one identity collapse into a single fetch; a cached entry
// whose fingerprint no longer matches the remote ref is treated as a miss
// and re-fetched. Callers must Release the lease.
func (c *Cache) GetOrFetch(ctx context.Context, id Identity, credential string) (*Lease, error) {
	key := id.Key()

	// The lease is taken before resolving, so the slot is pinned through
	// the fetch's own eviction pass and the window before the caller sees
	// the entry. A fresh clone over budget evicts other entries, never
	// itself.
	c.acquire(key)

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.getOrFetch(ctx, id, key, credential)
	})
	if err != nil {
		c.release(key)
		return nil, err
	}

	entry := v.(*Entry)
	return &Lease{
		Path:        entry.Path,
		Fingerprint: entry.Fingerprint,
		Identity:    id,
		cache:       c,
		key:         key,
	}, nil
}

func (c *Cache) getOrFetch(ctx context.Context, id Identity, key, credential string) (*Entry, error) {
	now := time.Now().UTC()

	entry, err := c.manifest.Get(key)
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "cache manifest read failed", err)
	}

	remote, resolveErr := c.fetcher.ResolveRef(ctx, id, credential)
	if resolveErr != nil {
		// Offline or transient remote failure: a live cached entry is
		// still served, anything else propagates the failure.
		if entry != nil && !c.expired(entry, now) && dirExists(entry.Path) {
			c.logger.Warn("ref resolution failed, serving cached entry",
				"repo", id.String(), "error", resolveErr)
			c.manifest.Touch(key, now)
			return entry, nil
		}
		return nil, resolveErr
	}

	if entry != nil && entry.Fingerprint == remote && !c.expired(entry, now) && dirExists(entry.Path) {
		c.manifest.Touch(key, now)
		return entry, nil
	}

	// Miss, stale fingerprint, or expired entry: re-fetch
	dest := filepath.Join(c.dir, "repos", key)
	if err := os.RemoveAll(dest); err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to clear cache slot", err)
	}
	c.manifest.Delete(key)

	c.logger.Info("fetching repository", "repo", id.String(), "fingerprint", remote)
	if err := c.fetcher.Clone(ctx, id, credential, dest); err != nil {
		return nil, err
	}

	size, err := dirSize(dest)
	if err != nil {
		size = 0
	}

	entry = &Entry{
		Key:         key,
		Identity:    id,
		Fingerprint: remote,
		Path:        dest,
		SizeBytes:   size,
		FetchedAt:   now,
		LastUsedAt:  now,
	}
	if err := c.manifest.Put(entry); err != nil {
		return nil, errors.Wrap(errors.InternalError, "cache manifest write failed", err)
	}

	c.evict(now)
	return entry, nil
}

// evict removes expired entries and, while the cache exceeds its size
// budget, the least recently used ones. Leased entries are never evicted.
func (c *Cache) evict(now time.Time) {
	entries, err := c.manifest.List()
	if err != nil {
		c.logger.Warn("cache eviction skipped", "error", err)
		return
	}

	var total int64
	for _, e := range entries {
		total += e.SizeBytes
	}
	budget := c.cfg.MaxSizeMB * 1024 * 1024

	for _, e := range entries {
		overBudget := budget > 0 && total > budget
		if !overBudget && !c.expired(&e, now) {
			continue
		}
		if c.leased(e.Key) {
			continue
		}

		if err := os.RemoveAll(e.Path); err != nil {
			c.logger.Warn("cache eviction failed", "key", e.Key, "error", err)
			continue
		}
		c.manifest.Delete(e.Key)
		total -= e.SizeBytes
		c.logger.Info("evicted cache entry",
			"repo", e.Identity.String(), "sizeBytes", e.SizeBytes)
	}
}

// expired reports whether the entry's age exceeds the configured TTL.
func (c *Cache) expired(e *Entry, now time.Time) bool {
	if c.cfg.TTLHours <= 0 {
		return false
	}
	return now.Sub(e.FetchedAt) > time.Duration(c.cfg.TTLHours)*time.Hour
}

// Info summarizes cache contents for inspection.
type Info struct {
	Dir        string  `json:"dir"`
	Entries    []Entry `json:"entries"`
	TotalBytes int64   `json:"totalBytes"`
	BudgetMB   int64   `json:"budgetMB"`
	TTLHours   int     `json:"ttlHours"`
}

// Info reports the cache directory, entries, and usage.
func (c *Cache) Info() (*Info, error) {
	entries, err := c.manifest.List()
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "cache manifest read failed", err)
	}
	var total int64
	for _, e := range entries {
		total += e.SizeBytes
	}
	return &Info{
		Dir:        c.dir,
		Entries:    entries,
		TotalBytes: total,
		BudgetMB:   c.cfg.MaxSizeMB,
		TTLHours:   c.cfg.TTLHours,
	}, nil
}

// Clear removes every unleased entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	entries, err := c.manifest.List()
	if err != nil {
		return 0, errors.Wrap(errors.InternalError, "cache manifest read failed", err)
	}

	removed := 0
	for _, e := range entries {
		if c.leased(e.Key) {
			continue
		}
		if err := os.RemoveAll(e.Path); err != nil {
			c.logger.Warn("cache clear failed", "key", e.Key, "error", err)
			continue
		}
		c.manifest.Delete(e.Key)
		removed++
	}
	return removed, nil
}

func (c *Cache) acquire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leases[key]++
}

func (c *Cache) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leases[key] > 1 {
		c.leases[key]--
	} else {
		delete(c.leases, key)
	}
}

func (c *Cache) leased(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leases[key] > 0
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// dirSize sums regular file sizes under path.
func dirSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
