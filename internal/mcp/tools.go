package mcp

import (
	"context"
	"fmt"

	"scout/internal/engine"
	"scout/internal/errors"
)

// Tool describes one MCP tool.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// rootProperty is shared by every tool: the tree to analyze.
func rootProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Local directory path or repository URL to analyze",
	}
}

func tokenProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Access token for private repositories (optional)",
	}
}

// ToolDefinitions returns all tool definitions.
func ToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "scan_directory",
			Description: "Index a source tree and list every function, class, method, and module variable with its location",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root":    rootProperty(),
					"token":   tokenProperty(),
					"pattern": map[string]interface{}{"type": "string", "description": "File glob to index (default *.py)"},
				},
				"required": []string{"root"},
			},
		},
		{
			Name:        "find_symbol",
			Description: "Find symbol definitions by name or qualified name",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root":   rootProperty(),
					"token":  tokenProperty(),
					"symbol": map[string]interface{}{"type": "string", "description": "Symbol name, e.g. 'helper' or 'pkg.util.helper'"},
				},
				"required": []string{"root", "symbol"},
			},
		},
		{
			Name:        "analyze_impact",
			Description: "List the files and symbols that depend on a symbol, directly or transitively",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root":      rootProperty(),
					"token":     tokenProperty(),
					"symbol":    map[string]interface{}{"type": "string", "description": "Symbol to analyze"},
					"max_depth": map[string]interface{}{"type": "integer", "description": "Traversal depth limit (0 = unlimited)"},
				},
				"required": []string{"root", "symbol"},
			},
		},
		{
			Name:        "grep_search",
			Description: "Search file contents for a literal string or regular expression",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root":        rootProperty(),
					"token":       tokenProperty(),
					"query":       map[string]interface{}{"type": "string", "description": "Search text"},
					"regex":       map[string]interface{}{"type": "boolean", "description": "Interpret query as a regular expression"},
					"pattern":     map[string]interface{}{"type": "string", "description": "File glob to search (default all files)"},
					"max_results": map[string]interface{}{"type": "integer", "description": "Stop after this many matches (0 = unlimited)"},
				},
				"required": []string{"root", "query"},
			},
		},
		{
			Name:        "git_blame",
			Description: "Resolve the commit, author, and summary for one line of a file",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root":  rootProperty(),
					"token": tokenProperty(),
					"file":  map[string]interface{}{"type": "string", "description": "Root-relative file path"},
					"line":  map[string]interface{}{"type": "integer", "description": "1-indexed line number"},
				},
				"required": []string{"root", "file", "line"},
			},
		},
		{
			Name:        "dependency_graph",
			Description: "Build the file and symbol dependency graph of a source tree",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"root":    rootProperty(),
					"token":   tokenProperty(),
					"pattern": map[string]interface{}{"type": "string", "description": "File glob to index (default *.py)"},
				},
				"required": []string{"root"},
			},
		},
	}
}

// handleTool routes one tools/call to the engine.
func (s *Server) handleTool(ctx context.Context, name string, args map[string]interface{}) (*engine.Envelope, error) {
	req := engine.Request{
		Root:       stringArg(args, "root"),
		Credential: stringArg(args, "token"),
		Pattern:    stringArg(args, "pattern"),
	}
	if req.Root == "" {
		return nil, errors.New(errors.NotFound, "missing required argument: root")
	}

	switch name {
	case "scan_directory":
		return s.engine.ScanDirectory(ctx, req), nil

	case "find_symbol":
		symbol := stringArg(args, "symbol")
		if symbol == "" {
			return nil, errors.New(errors.SymbolNotFound, "missing required argument: symbol")
		}
		return s.engine.FindSymbol(ctx, req, symbol), nil

	case "analyze_impact":
		symbol := stringArg(args, "symbol")
		if symbol == "" {
			return nil, errors.New(errors.SymbolNotFound, "missing required argument: symbol")
		}
		return s.engine.AnalyzeImpact(ctx, req, symbol, intArg(args, "max_depth")), nil

	case "grep_search":
		query := stringArg(args, "query")
		if query == "" {
			return nil, errors.New(errors.NotFound, "missing required argument: query")
		}
		return s.engine.GrepSearch(ctx, req, query, boolArg(args, "regex"), intArg(args, "max_results")), nil

	case "git_blame":
		file := stringArg(args, "file")
		line := intArg(args, "line")
		if file == "" || line == 0 {
			return nil, errors.New(errors.NotFound, "git_blame requires file and line")
		}
		return s.engine.GitBlame(ctx, req, file, line), nil

	case "dependency_graph":
		return s.engine.BuildDependencyGraph(ctx, req), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]interface{}, key string) int {
	// JSON numbers decode as float64
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return 0
}

func boolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}
