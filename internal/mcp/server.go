package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"inspectd/internal/logging"
)

// Server speaks line-delimited JSON-RPC 2.0 on a reader/writer pair,
// normally stdin/stdout. Requests are handled one at a time in arrival
// order; every tool call is synchronous.
type Server struct {
	name     string
	version  string
	registry *Registry

	in  io.Reader
	out io.Writer

	// requestTimeout bounds each tools/call; zero means no limit.
	requestTimeout time.Duration

	mu          sync.Mutex // guards out and initialized
	initialized bool
}

// NewServer creates a stdio MCP server for the given tool registry.
func NewServer(name, version string, registry *Registry) *Server {
	return &Server{
		name:     name,
		version:  version,
		registry: registry,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// SetRequestTimeout bounds each tool call's context. Zero disables the
// limit.
func (s *Server) SetRequestTimeout(d time.Duration) {
	s.requestTimeout = d
}

// Serve reads frames until the input stream closes or ctx is cancelled.
// A closed stdin is the normal shutdown path and returns nil.
func (s *Server) Serve(ctx context.Context) error {
	logging.MCP("MCP server %s %s listening on stdio (%d tools)", s.name, s.version, s.registry.Count())

	scanner := bufio.NewScanner(s.in)
	// Finding text arrives inline in tool arguments, so allow frames
	// well past the default 64KB line limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			logging.MCP("MCP server stopping: %v", ctx.Err())
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		s.handleLine(ctx, line)
	}

	if err := scanner.Err(); err != nil {
		logging.MCPError("MCP server read failed: %v", err)
		return fmt.Errorf("read stdio: %w", err)
	}
	logging.MCP("MCP server input closed, shutting down")
	return nil
}

// handleLine parses one frame and writes the response, if any.
func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		logging.MCPWarn("Discarding unparseable frame: %v", err)
		s.reply(&response{
			JSONRPC: jsonRPCVersion,
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}

	if resp := s.dispatch(ctx, &req); resp != nil {
		s.reply(resp)
	}
}

// dispatch routes a frame to its handler. Notifications return nil.
func (s *Server) dispatch(ctx context.Context, req *request) *response {
	logging.MCPDebug("<- %s", req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		logging.MCP("Client handshake complete")
		return nil
	case "ping":
		return s.ok(req, struct{}{})
	case "tools/list":
		return s.handleListTools(req)
	case "tools/call":
		return s.handleCallTool(ctx, req)
	default:
		if req.isNotification() {
			logging.MCPDebug("Ignoring notification %s", req.Method)
			return nil
		}
		return s.fail(req, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *request) *response {
	return s.ok(req, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    capabilities{Tools: toolsCapability{ListChanged: false}},
		ServerInfo:      serverInfo{Name: s.name, Version: s.version},
	})
}

func (s *Server) handleListTools(req *request) *response {
	tools := s.registry.All()
	descriptors := make([]toolDescriptor, 0, len(tools))
	for _, tool := range tools {
		required := tool.Schema.Required
		if required == nil {
			required = []string{}
		}
		properties := tool.Schema.Properties
		if properties == nil {
			properties = map[string]Property{}
		}
		descriptors = append(descriptors, toolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: wireSchema{
				Type:       "object",
				Properties: properties,
				Required:   required,
			},
		})
	}
	return s.ok(req, listToolsResult{Tools: descriptors})
}

func (s *Server) handleCallTool(ctx context.Context, req *request) *response {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return s.fail(req, codeInvalidParams, "tools/call requires a tool name")
	}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	result, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		switch {
		case errors.Is(err, ErrToolNotFound),
			errors.Is(err, ErrMissingRequiredArg),
			errors.Is(err, ErrInvalidArgType):
			return s.fail(req, codeInvalidParams, err.Error())
		default:
			// Domain failure: report inside the result envelope so the
			// client can show it to the model.
			return s.ok(req, errorResult(err))
		}
	}
	return s.ok(req, textResult(result.Result))
}

func (s *Server) ok(req *request, result any) *response {
	return &response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) fail(req *request, code int, message string) *response {
	id := req.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	}
}

// reply marshals and writes one frame followed by a newline.
func (s *Server) reply(resp *response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.MCPError("Failed to marshal response: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		logging.MCPError("Failed to write response: %v", err)
	}
}
