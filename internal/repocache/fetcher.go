package repocache

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"scout/internal/errors"
)

// Fetcher materializes remote repositories. The git implementation is the
// default; tests substitute their own.
type Fetcher interface {
	// ResolveRef maps the identity's ref to a content fingerprint
	// (commit hash) without fetching. An empty ref resolves the remote
	// default branch.
	ResolveRef(ctx context.Context, id Identity, credential string) (string, error)

	// Clone materializes the repository at dest.
	Clone(ctx context.Context, id Identity, credential, dest string) error
}

// GitFetcher fetches over HTTPS with the git binary.
type GitFetcher struct {
	// Timeout bounds a single clone. Zero means no bound.
	Timeout time.Duration
	// Shallow clones with --depth 1. Blame queries need full history,
	// so this is off by default.
	Shallow bool
}

// ResolveRef runs ls-remote against the repository.
func (f *GitFetcher) ResolveRef(ctx context.Context, id Identity, credential string) (string, error) {
	args := []string{"ls-remote", id.CloneURL(credential)}
	if id.Ref != "" {
		args = append(args, id.Ref, id.Ref+"^{}")
	} else {
		args = append(args, "HEAD")
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.Output()
	if err != nil {
		return "", classifyGitError(id, err)
	}

	// A commit-hash ref produces no ls-remote output but is already a
	// fingerprint.
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	var resolved string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 2 {
			// Prefer the peeled tag object when present
			resolved = fields[0]
		}
	}
	if resolved == "" {
		if isCommitHash(id.Ref) {
			return id.Ref, nil
		}
		return "", errors.Newf(errors.NotFound, "reference not found: %s", id.String())
	}
	return resolved, nil
}

// Clone materializes the repository at dest, checking out the ref when one
// is named.
func (f *GitFetcher) Clone(ctx context.Context, id Identity, credential, dest string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := []string{"clone", "--quiet"}
	if f.Shallow {
		args = append(args, "--depth", "1")
		if id.Ref != "" && !isCommitHash(id.Ref) {
			args = append(args, "--branch", id.Ref)
		}
	}
	args = append(args, id.CloneURL(credential), dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(errors.Timeout, "clone timed out: "+id.String(), ctxErr)
		}
		return classifyGitError(id, gitError(output, err))
	}

	// Commit refs and non-shallow branch/tag refs check out after clone.
	// Shallow mode fetches the commit itself first: depth-1 history rarely
	// contains an arbitrary commit.
	if id.Ref != "" && isCommitHash(id.Ref) && f.Shallow {
		if err := f.fetchCommit(ctx, dest, id); err != nil {
			os.RemoveAll(dest)
			return err
		}
	}
	if id.Ref != "" && (isCommitHash(id.Ref) || !f.Shallow) {
		cmd := exec.CommandContext(ctx, "git", "checkout", "--quiet", id.Ref)
		cmd.Dir = dest
		if output, err := cmd.CombinedOutput(); err != nil {
			os.RemoveAll(dest)
			return errors.Wrap(errors.NotFound,
				"reference not found: "+id.String(), gitError(output, err))
		}
	}

	return nil
}

// fetchCommit pulls a single commit into a shallow clone. A remote that
// refuses the commit (or does not have it) makes the ref unreachable at
// depth 1, not missing.
func (f *GitFetcher) fetchCommit(ctx context.Context, dest string, id Identity) error {
	cmd := exec.CommandContext(ctx, "git", "fetch", "--quiet", "--depth", "1",
		"origin", id.Ref)
	cmd.Dir = dest
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrap(errors.HistoryUnavailable,
			"commit not reachable in shallow clone: "+id.String(), gitError(output, err))
	}
	return nil
}

// classifyGitError maps git failures onto the stable error taxonomy.
// Authentication failures and missing repositories both matter to callers;
// everything else is a fetch failure.
func classifyGitError(id Identity, err error) error {
	msg := err.Error()
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		msg = string(ee.Stderr)
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "invalid credentials"):
		return errors.Newf(errors.AuthRequired,
			"authentication required: %s", id.String())
	case strings.Contains(lower, "repository not found"),
		strings.Contains(lower, "not found"):
		return errors.Newf(errors.NotFound, "repository not found: %s", id.String())
	default:
		return errors.Wrap(errors.FetchFailed, "fetch failed: "+id.String(), err)
	}
}

// gitError keeps captured output attached to the exec error.
type capturedGitError struct {
	output []byte
	err    error
}

func gitError(output []byte, err error) error {
	if len(output) == 0 {
		return err
	}
	return &capturedGitError{output: output, err: err}
}

func (e *capturedGitError) Error() string {
	return strings.TrimSpace(string(e.output))
}

func (e *capturedGitError) Unwrap() error {
	return e.err
}

// isCommitHash reports whether ref looks like a full or abbreviated
// commit hash.
func isCommitHash(ref string) bool {
	if len(ref) < 7 || len(ref) > 40 {
		return false
	}
	for _, c := range ref {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
