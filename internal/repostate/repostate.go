// Package repostate computes content fingerprints for analyzed trees.
// Fingerprints key the index memoization table: an unchanged tree always
// produces the same fingerprint, a changed tree a different one.
package repostate

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Fingerprint computes a content-derived identifier for a local tree.
// Git repositories use HEAD plus working-tree state; other directories
// fall back to a walk hash over (path, size, mtime).
func Fingerprint(root string) (string, error) {
	if IsGitRepository(root) {
		return gitFingerprint(root)
	}
	return walkFingerprint(root)
}

// gitFingerprint combines HEAD with hashes of the staged diff, working
// tree diff, and untracked file list, so dirty trees fingerprint
// differently from their HEAD commit.
func gitFingerprint(root string) (string, error) {
	head, err := gitOutput(root, "rev-parse", "HEAD")
	if err != nil {
		// Repository without commits yet; hash the tree contents instead
		return walkFingerprint(root)
	}

	staged, err := gitOutput(root, "diff", "--cached")
	if err != nil {
		return "", err
	}
	working, err := gitOutput(root, "diff", "HEAD")
	if err != nil {
		return "", err
	}
	untracked, err := gitOutput(root, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return "", err
	}

	if staged == "" && working == "" && untracked == "" {
		return head, nil
	}

	return hashString(fmt.Sprintf("%s:%s:%s:%s",
		head, hashString(staged), hashString(working), hashString(untracked))), nil
}

// walkFingerprint hashes the directory listing: relative path, size, and
// modification time of every regular file in lexical order.
func walkFingerprint(root string) (string, error) {
	var entries []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries don't fail the fingerprint
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		entries = append(entries, fmt.Sprintf("%s\x00%d\x00%d",
			filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(entries)
	return hashString(strings.Join(entries, "\n")), nil
}

// HeadCommit returns the HEAD commit hash for a git tree.
func HeadCommit(root string) (string, error) {
	return gitOutput(root, "rev-parse", "HEAD")
}

// IsGitRepository checks if the given path is inside a git repository.
func IsGitRepository(root string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = root
	return cmd.Run() == nil
}

// IsShallow reports whether the repository at root is a shallow clone.
func IsShallow(root string) bool {
	gitDir, err := gitOutput(root, "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}
	_, err = os.Stat(filepath.Join(gitDir, "shallow"))
	return err == nil
}

// gitOutput runs a git command in root and returns trimmed stdout.
func gitOutput(root string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// hashString computes the SHA256 hash of a string.
func hashString(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}
