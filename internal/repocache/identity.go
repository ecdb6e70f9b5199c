// Package repocache fetches remote repositories into a bounded local
// cache shared by all queries.
package repocache

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"scout/internal/errors"
)

// Identity is the canonical coordinates of a remote repository at a
// reference. Two URLs naming the same repository and ref share one cache
// entry.
type Identity struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Ref   string `json:"ref,omitempty"` // Branch, tag, or commit; empty = default branch
}

var (
	// https://github.com/owner/repo/blob/ref/path/to/file.py
	blobURLPattern = regexp.MustCompile(`^https?://([^/]+)/([^/]+)/([^/]+)/blob/([^/]+)/`)
	// https://github.com/owner/repo/tree/ref[/subdir]
	treeURLPattern = regexp.MustCompile(`^https?://([^/]+)/([^/]+)/([^/]+)/tree/([^/]+)`)
	// https://github.com/owner/repo[.git]
	plainURLPattern = regexp.MustCompile(`^https?://([^/]+)/([^/]+)/([^/?#]+?)(\.git)?/?$`)
	// git@github.com:owner/repo.git
	sshURLPattern = regexp.MustCompile(`^git@([^:]+):([^/]+)/([^/]+?)(\.git)?$`)
)

// ParseURL canonicalizes a repository URL to an Identity. Deep links into
// blobs and trees resolve to the repository plus the linked ref.
func ParseURL(rawURL string) (Identity, error) {
	rawURL = strings.TrimSpace(rawURL)

	if m := blobURLPattern.FindStringSubmatch(rawURL); m != nil {
		return Identity{Host: m[1], Owner: m[2], Name: strings.TrimSuffix(m[3], ".git"), Ref: m[4]}, nil
	}
	if m := treeURLPattern.FindStringSubmatch(rawURL); m != nil {
		return Identity{Host: m[1], Owner: m[2], Name: strings.TrimSuffix(m[3], ".git"), Ref: m[4]}, nil
	}
	if m := sshURLPattern.FindStringSubmatch(rawURL); m != nil {
		return Identity{Host: m[1], Owner: m[2], Name: m[3]}, nil
	}
	if m := plainURLPattern.FindStringSubmatch(rawURL); m != nil {
		return Identity{Host: m[1], Owner: m[2], Name: m[3]}, nil
	}

	return Identity{}, errors.Newf(errors.NotFound, "not a repository URL: %s", rawURL)
}

// IsRepositoryURL reports whether the specifier looks like a remote
// repository rather than a local path.
func IsRepositoryURL(spec string) bool {
	return strings.HasPrefix(spec, "http://") ||
		strings.HasPrefix(spec, "https://") ||
		strings.HasPrefix(spec, "git@")
}

// CloneURL renders the HTTPS clone URL. A credential is embedded as a
// token user so private repositories clone without prompting.
func (id Identity) CloneURL(credential string) string {
	if credential != "" {
		return fmt.Sprintf("https://x-access-token:%s@%s/%s/%s.git",
			credential, id.Host, id.Owner, id.Name)
	}
	return fmt.Sprintf("https://%s/%s/%s.git", id.Host, id.Owner, id.Name)
}

// String renders the identity without any credential material.
func (id Identity) String() string {
	s := id.Host + "/" + id.Owner + "/" + id.Name
	if id.Ref != "" {
		s += "@" + id.Ref
	}
	return s
}

// Key derives the content-addressed cache key for this identity.
func (id Identity) Key() string {
	sum := sha256.Sum256([]byte(id.String()))
	return fmt.Sprintf("%s-%x", id.Name, sum[:8])
}
