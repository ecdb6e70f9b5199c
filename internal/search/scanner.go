// Package search scans source trees for literal or regular-expression
// matches, independent of the structural index.
package search

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"scout/internal/errors"
	"scout/internal/index"
	"scout/internal/paths"
)

// binaryProbeSize is how many leading bytes are inspected for the
// non-text heuristic.
const binaryProbeSize = 8192

// Match is one matching line. Column is the 1-indexed byte offset of the
// first occurrence on the line.
type Match struct {
	Path   string `json:"path"` // Root-relative slash path
	Line   int    `json:"line"` // 1-indexed
	Column int    `json:"column"`
	Text   string `json:"text"` // The matching line without its newline
}

// Options control a scan.
type Options struct {
	// FilePattern restricts the walk by base name; "*" matches every file.
	FilePattern string
	// Regex interprets the query as a regular expression instead of a
	// literal substring.
	Regex bool
	// MaxFileSize skips files larger than this many bytes. 0 = no limit.
	MaxFileSize int64
	// IgnoreDirs lists directory names excluded from the walk.
	IgnoreDirs []string
}

// Scanner produces matches one pull at a time: callers that stop calling
// Scan stop the work. A Scanner is single-use; a fresh New re-scans.
type Scanner struct {
	root  string
	query string
	opts  Options
	re    *regexp.Regexp

	started bool
	files   []string
	fileIdx int
	lines   []string
	lineIdx int

	match Match
	err   error
	done  bool
}

// New prepares a scan of root for query. No I/O happens until the first
// Scan call.
func New(root, query string, opts Options) *Scanner {
	if opts.FilePattern == "" {
		opts.FilePattern = "*"
	}
	return &Scanner{root: root, query: query, opts: opts}
}

// Scan advances to the next match, returning false when the scan is
// exhausted or failed. Check Err after a false return.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	if !s.started {
		if err := s.start(); err != nil {
			s.fail(err)
			return false
		}
	}

	for {
		if s.lineIdx < len(s.lines) {
			line := s.lines[s.lineIdx]
			s.lineIdx++
			if col := s.matchColumn(line); col > 0 {
				s.match = Match{
					Path:   s.files[s.fileIdx],
					Line:   s.lineIdx,
					Column: col,
					Text:   line,
				}
				return true
			}
			continue
		}

		s.fileIdx++
		if !s.advanceFile() {
			s.done = true
			return false
		}
	}
}

// Match returns the match found by the last successful Scan.
func (s *Scanner) Match() Match {
	return s.match
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// start compiles the query and collects the file list.
func (s *Scanner) start() error {
	s.started = true

	if s.query == "" {
		return errors.New(errors.InternalError, "empty search query")
	}
	if s.opts.Regex {
		re, err := regexp.Compile(s.query)
		if err != nil {
			return errors.Wrap(errors.ParseError, "invalid search pattern", err)
		}
		s.re = re
	}

	files, err := index.CollectFiles(s.root, s.opts.FilePattern, s.opts.IgnoreDirs)
	if err != nil {
		return errors.Wrap(errors.InternalError, "search walk failed", err)
	}
	s.files = files
	s.fileIdx = 0
	if !s.advanceFile() {
		s.done = true
	}
	return nil
}

// advanceFile loads the next scannable file's lines, skipping binary,
// oversized, and unreadable files. Returns false when no files remain.
func (s *Scanner) advanceFile() bool {
	for ; s.fileIdx < len(s.files); s.fileIdx++ {
		path := paths.JoinRoot(s.root, s.files[s.fileIdx])

		if s.opts.MaxFileSize > 0 {
			if info, err := os.Stat(path); err != nil || info.Size() > s.opts.MaxFileSize {
				continue
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if isBinary(data) {
			continue
		}

		s.lines = splitLines(data)
		s.lineIdx = 0
		return true
	}
	return false
}

// matchColumn returns the 1-indexed column of the first occurrence on
// line, or 0 for no match.
func (s *Scanner) matchColumn(line string) int {
	if s.re != nil {
		if loc := s.re.FindStringIndex(line); loc != nil {
			return loc[0] + 1
		}
		return 0
	}
	if i := strings.Index(line, s.query); i >= 0 {
		return i + 1
	}
	return 0
}

func (s *Scanner) fail(err error) {
	s.err = err
	s.done = true
}

// isBinary applies the non-text heuristic: a NUL byte in the leading
// probe window marks the file binary.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

// splitLines splits file contents into lines without their terminators.
func splitLines(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
