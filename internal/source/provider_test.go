package source

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"scout/internal/config"
	"scout/internal/errors"
	"scout/internal/repocache"
	"scout/internal/slogutil"
)

// flakyFetcher fails a configurable number of times before succeeding.
type flakyFetcher struct {
	failures    int
	fingerprint string
	attempts    atomic.Int64
	sawToken    atomic.Value
}

func (f *flakyFetcher) ResolveRef(_ context.Context, _ repocache.Identity, credential string) (string, error) {
	f.sawToken.Store(credential)
	if int(f.attempts.Add(1)) <= f.failures {
		return "", errors.New(errors.FetchFailed, "transient network error")
	}
	return f.fingerprint, nil
}

func (f *flakyFetcher) Clone(_ context.Context, _ repocache.Identity, _ string, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "app.py"), []byte("x = 1\n"), 0644)
}

func testProvider(t *testing.T, fetcher repocache.Fetcher, retries int) *Provider {
	t.Helper()
	cacheCfg := config.DefaultConfig().Cache
	cacheCfg.Dir = t.TempDir()
	cache, err := repocache.Open(cacheCfg, fetcher, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })

	fetchCfg := config.FetchConfig{MaxRetries: retries, BackoffMs: 1}
	return NewProvider(cache, fetchCfg, defaultHosts(), slogutil.NewDiscardLogger())
}

func TestResolve_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.py"), []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := testProvider(t, &flakyFetcher{}, 0)
	root, err := p.Resolve(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer root.Close()

	if root.Origin != OriginLocal {
		t.Errorf("Origin = %q, want local", root.Origin)
	}
	if root.Fingerprint == "" {
		t.Error("local root should carry a fingerprint")
	}
	if root.Identity != nil {
		t.Error("local root should not carry a repository identity")
	}
}

func TestResolve_MissingPath(t *testing.T) {
	p := testProvider(t, &flakyFetcher{}, 0)
	_, err := p.Resolve(context.Background(), filepath.Join(t.TempDir(), "absent"), "")
	if !errors.IsCode(err, errors.NotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestResolve_PathIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	if err := os.WriteFile(file, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := testProvider(t, &flakyFetcher{}, 0)
	if _, err := p.Resolve(context.Background(), file, ""); !errors.IsCode(err, errors.NotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestResolve_RemoteWithRetry(t *testing.T) {
	fetcher := &flakyFetcher{failures: 2, fingerprint: "abc"}
	p := testProvider(t, fetcher, 2)

	root, err := p.Resolve(context.Background(), "https://github.com/acme/widget", "")
	if err != nil {
		t.Fatalf("Resolve should succeed after retries: %v", err)
	}
	defer root.Close()

	if root.Origin != OriginRemote {
		t.Errorf("Origin = %q, want remote", root.Origin)
	}
	if root.Fingerprint != "abc" {
		t.Errorf("Fingerprint = %q", root.Fingerprint)
	}
	if root.Identity == nil || root.Identity.Name != "widget" {
		t.Errorf("Identity = %+v", root.Identity)
	}
	if got := fetcher.attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestResolve_RetriesExhausted(t *testing.T) {
	fetcher := &flakyFetcher{failures: 10, fingerprint: "abc"}
	p := testProvider(t, fetcher, 1)

	_, err := p.Resolve(context.Background(), "https://github.com/acme/widget", "")
	if !errors.IsCode(err, errors.FetchFailed) {
		t.Errorf("err = %v, want FETCH_FAILED", err)
	}
	if got := fetcher.attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2 (initial + 1 retry)", got)
	}
}

func TestResolve_EnvCredential(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ambient-token")

	fetcher := &flakyFetcher{fingerprint: "abc"}
	p := testProvider(t, fetcher, 0)

	root, err := p.Resolve(context.Background(), "https://github.com/acme/widget", "")
	if err != nil {
		t.Fatal(err)
	}
	root.Close()

	if got, _ := fetcher.sawToken.Load().(string); got != "ambient-token" {
		t.Errorf("credential = %q, want ambient GITHUB_TOKEN", got)
	}
}

func TestResolve_ExplicitCredentialWins(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ambient-token")

	fetcher := &flakyFetcher{fingerprint: "abc"}
	p := testProvider(t, fetcher, 0)

	root, err := p.Resolve(context.Background(), "https://github.com/acme/widget", "explicit-token")
	if err != nil {
		t.Fatal(err)
	}
	root.Close()

	if got, _ := fetcher.sawToken.Load().(string); got != "explicit-token" {
		t.Errorf("credential = %q, want explicit token", got)
	}
}

func TestLoadHosts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.toml")
	content := "[hosts.\"git.example.org\"]\ntokenEnv = \"EXAMPLE_TOKEN\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	hosts, err := LoadHosts(path)
	if err != nil {
		t.Fatalf("LoadHosts failed: %v", err)
	}

	if hosts["git.example.org"].TokenEnv != "EXAMPLE_TOKEN" {
		t.Errorf("hosts = %+v", hosts)
	}
	// Defaults survive the merge
	if hosts["github.com"].TokenEnv != "GITHUB_TOKEN" {
		t.Errorf("github.com default missing: %+v", hosts)
	}

	t.Setenv("EXAMPLE_TOKEN", "tok")
	if got := hosts.Credential("git.example.org"); got != "tok" {
		t.Errorf("Credential = %q", got)
	}
	if got := hosts.Credential("unknown.host"); got != "" {
		t.Errorf("Credential(unknown) = %q", got)
	}
}

func TestLoadHosts_MissingFile(t *testing.T) {
	if _, err := LoadHosts(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("missing hosts file should fail")
	}
}
