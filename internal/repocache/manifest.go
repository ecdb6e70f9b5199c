package repocache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Entry is one cached repository in the manifest.
type Entry struct {
	Key         string
	Identity    Identity
	Fingerprint string
	Path        string
	SizeBytes   int64
	FetchedAt   time.Time
	LastUsedAt  time.Time
}

// Manifest persists cache entry metadata in a SQLite database under the
// cache directory, so entry ages and sizes survive restarts.
type Manifest struct {
	conn *sql.DB
}

const manifestSchema = `
CREATE TABLE IF NOT EXISTS repos (
    key          TEXT PRIMARY KEY,
    host         TEXT NOT NULL,
    owner        TEXT NOT NULL,
    name         TEXT NOT NULL,
    ref          TEXT NOT NULL DEFAULT '',
    fingerprint  TEXT NOT NULL,
    path         TEXT NOT NULL,
    size_bytes   INTEGER NOT NULL,
    fetched_at   INTEGER NOT NULL,
    last_used_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_repos_last_used ON repos(last_used_at);
`

// OpenManifest opens or creates the manifest database in dir.
func OpenManifest(dir string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", filepath.Join(dir, "manifest.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(manifestSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}

	return &Manifest{conn: conn}, nil
}

// Close closes the manifest database.
func (m *Manifest) Close() error {
	return m.conn.Close()
}

// Get looks up an entry by cache key.
func (m *Manifest) Get(key string) (*Entry, error) {
	row := m.conn.QueryRow(`
		SELECT key, host, owner, name, ref, fingerprint, path, size_bytes, fetched_at, last_used_at
		FROM repos WHERE key = ?`, key)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// Put inserts or replaces an entry.
func (m *Manifest) Put(e *Entry) error {
	_, err := m.conn.Exec(`
		INSERT OR REPLACE INTO repos
		(key, host, owner, name, ref, fingerprint, path, size_bytes, fetched_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.Identity.Host, e.Identity.Owner, e.Identity.Name, e.Identity.Ref,
		e.Fingerprint, e.Path, e.SizeBytes, e.FetchedAt.Unix(), e.LastUsedAt.Unix())
	return err
}

// Touch updates an entry's last-used time.
func (m *Manifest) Touch(key string, now time.Time) error {
	_, err := m.conn.Exec(`UPDATE repos SET last_used_at = ? WHERE key = ?`, now.Unix(), key)
	return err
}

// Delete removes an entry.
func (m *Manifest) Delete(key string) error {
	_, err := m.conn.Exec(`DELETE FROM repos WHERE key = ?`, key)
	return err
}

// List returns all entries, least recently used first.
func (m *Manifest) List() ([]Entry, error) {
	rows, err := m.conn.Query(`
		SELECT key, host, owner, name, ref, fingerprint, path, size_bytes, fetched_at, last_used_at
		FROM repos ORDER BY last_used_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// TotalSize sums the recorded sizes of all entries.
func (m *Manifest) TotalSize() (int64, error) {
	var total sql.NullInt64
	err := m.conn.QueryRow(`SELECT SUM(size_bytes) FROM repos`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var fetchedAt, lastUsedAt int64
	err := row.Scan(&e.Key, &e.Identity.Host, &e.Identity.Owner, &e.Identity.Name,
		&e.Identity.Ref, &e.Fingerprint, &e.Path, &e.SizeBytes, &fetchedAt, &lastUsedAt)
	if err != nil {
		return nil, err
	}
	e.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	e.LastUsedAt = time.Unix(lastUsedAt, 0).UTC()
	return &e, nil
}
