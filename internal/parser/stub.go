//go:build !cgo

// This stub is used when CGO is not available.
package parser

import (
	"context"

	"scout/internal/errors"
)

// Parser wraps tree-sitter for Python parsing.
// This is a stub implementation when CGO is not available.
type Parser struct{}

// NewParser creates a new parser stub.
func NewParser() *Parser {
	return &Parser{}
}

// Available reports whether tree-sitter parsing is compiled in.
func Available() bool {
	return false
}

// ParseFile always fails when CGO is not available.
func (p *Parser) ParseFile(ctx context.Context, path, module string, source []byte) (*FileResult, error) {
	return nil, errors.New(errors.InternalError, "tree-sitter parsing requires a cgo build")
}
