package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"scout/internal/engine"
	"scout/internal/version"
)

// MaxMessageSize is the maximum size for a single MCP message (1MB).
const MaxMessageSize = 1024 * 1024

// Server speaks MCP over stdio, one JSON-RPC message per line.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	engine  *engine.Engine
	logger  *slog.Logger
}

// NewServer creates an MCP server around an engine.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	return &Server{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		engine: eng,
		logger: logger,
	}
}

// SetStdin overrides the input stream (used by tests)
func (s *Server) SetStdin(r io.Reader) { s.stdin = r }

// SetStdout overrides the output stream (used by tests)
func (s *Server) SetStdout(w io.Writer) { s.stdout = w }

// Run processes messages until stdin closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server started", "version", version.Version)

	for {
		msg, err := s.readMessage()
		if err == io.EOF {
			s.logger.Info("mcp server stopped")
			return nil
		}
		if err != nil {
			s.writeError(nil, CodeParseError, err.Error())
			continue
		}

		if msg.IsNotification() {
			// Notifications (initialized, cancelled) need no reply
			continue
		}

		response := s.dispatch(ctx, msg)
		if err := s.writeMessage(response); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return NewResultMessage(msg.Id, map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "scout",
				"version": version.Version,
			},
		})

	case "tools/list":
		return NewResultMessage(msg.Id, map[string]interface{}{
			"tools": ToolDefinitions(),
		})

	case "tools/call":
		return s.callTool(ctx, msg)

	case "ping":
		return NewResultMessage(msg.Id, map[string]interface{}{})

	default:
		return NewErrorMessage(msg.Id, CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", msg.Method))
	}
}

// callToolParams is the tools/call parameter shape.
type callToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *Server) callTool(ctx context.Context, msg *Message) *Message {
	raw, err := json.Marshal(msg.Params)
	if err != nil {
		return NewErrorMessage(msg.Id, CodeInvalidParams, "invalid params")
	}
	var params callToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return NewErrorMessage(msg.Id, CodeInvalidParams, "invalid params")
	}

	env, err := s.handleTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return NewErrorMessage(msg.Id, CodeInvalidParams, err.Error())
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return NewErrorMessage(msg.Id, CodeInternalError, err.Error())
	}

	return NewResultMessage(msg.Id, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(payload)},
		},
		"isError": env.Error != nil,
	})
}

// readMessage reads one JSON-RPC message from the input stream.
func (s *Server) readMessage() (*Message, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.stdin)
		s.scanner.Buffer(make([]byte, MaxMessageSize), MaxMessageSize)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading from stdin: %w", err)
		}
		return nil, io.EOF
	}

	var msg Message
	if err := json.Unmarshal(s.scanner.Bytes(), &msg); err != nil {
		return nil, fmt.Errorf("error parsing JSON-RPC message: %w", err)
	}
	return &msg, nil
}

// writeMessage writes one JSON-RPC message to the output stream.
func (s *Server) writeMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshaling JSON-RPC message: %w", err)
	}
	if _, err := fmt.Fprintf(s.stdout, "%s\n", data); err != nil {
		return fmt.Errorf("error writing to stdout: %w", err)
	}
	return nil
}

func (s *Server) writeError(id interface{}, code int, message string) error {
	return s.writeMessage(NewErrorMessage(id, code, message))
}
