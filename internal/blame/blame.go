// Package blame resolves file lines to authorship metadata through git
// history.
package blame

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"scout/internal/errors"
	"scout/internal/paths"
	"scout/internal/repostate"
)

// Record is the authorship of one line.
type Record struct {
	Path        string    `json:"path"` // Root-relative slash path
	Line        int       `json:"line"` // 1-indexed
	Commit      string    `json:"commit"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail,omitempty"`
	AuthorTime  time.Time `json:"authorTime"`
	Summary     string    `json:"summary"`
}

// Resolve blames a single line of a file under root. The tree must be a
// full-history git checkout: plain directories fail with
// NOT_UNDER_VERSION_CONTROL and shallow clones with HISTORY_UNAVAILABLE
// rather than returning empty data.
func Resolve(ctx context.Context, root, relPath string, line int) (*Record, error) {
	if !repostate.IsGitRepository(root) {
		return nil, errors.Newf(errors.NotUnderVersionControl,
			"%s is not under version control", root)
	}
	if repostate.IsShallow(root) {
		return nil, errors.New(errors.HistoryUnavailable,
			"shallow clone has no line history; re-fetch with full history")
	}

	absolute := paths.JoinRoot(root, relPath)
	total, err := countLines(absolute)
	if err != nil {
		return nil, errors.Wrap(errors.NotFound, "file not readable: "+relPath, err)
	}
	if line < 1 || line > total {
		return nil, errors.Newf(errors.LineOutOfRange,
			"line %d out of range: %s has %d lines", line, relPath, total)
	}

	lineRange := strconv.Itoa(line) + "," + strconv.Itoa(line)
	cmd := exec.CommandContext(ctx, "git", "blame", "-L", lineRange, "--porcelain", "--", relPath)
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(errors.Timeout, "blame aborted", ctxErr)
		}
		return nil, errors.Wrap(errors.HistoryUnavailable, "git blame failed: "+relPath, err)
	}

	record, err := parsePorcelain(output)
	if err != nil {
		return nil, err
	}
	record.Path = relPath
	record.Line = line
	return record, nil
}

// parsePorcelain extracts one record from git blame porcelain output.
func parsePorcelain(output []byte) (*Record, error) {
	record := &Record{}

	for _, rawLine := range strings.Split(string(output), "\n") {
		if strings.HasPrefix(rawLine, "\t") {
			// Content line, headers are done
			break
		}
		switch {
		case record.Commit == "":
			// First line: "<sha> <orig-line> <final-line> <group-size>"
			fields := strings.Fields(rawLine)
			if len(fields) < 3 || len(fields[0]) != 40 {
				return nil, errors.New(errors.InternalError,
					"unexpected blame output: "+rawLine)
			}
			record.Commit = fields[0]
		case strings.HasPrefix(rawLine, "author "):
			record.Author = strings.TrimPrefix(rawLine, "author ")
		case strings.HasPrefix(rawLine, "author-mail "):
			mail := strings.TrimPrefix(rawLine, "author-mail ")
			record.AuthorEmail = strings.Trim(mail, "<>")
		case strings.HasPrefix(rawLine, "author-time "):
			if seconds, err := strconv.ParseInt(strings.TrimPrefix(rawLine, "author-time "), 10, 64); err == nil {
				record.AuthorTime = time.Unix(seconds, 0).UTC()
			}
		case strings.HasPrefix(rawLine, "summary "):
			record.Summary = strings.TrimPrefix(rawLine, "summary ")
		}
	}

	if record.Commit == "" {
		return nil, errors.New(errors.InternalError, "empty blame output")
	}
	return record, nil
}

// countLines counts newline-terminated lines, treating a trailing
// fragment as a line.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	count := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		count++
	}
	return count, nil
}
