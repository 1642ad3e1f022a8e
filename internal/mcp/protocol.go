package mcp

import "encoding/json"

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

const jsonRPCVersion = "2.0"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// request is an incoming JSON-RPC frame. ID stays raw so integer and
// string ids are echoed back byte for byte; a missing ID marks a
// notification.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the frame expects no response.
func (r *request) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// response is an outgoing JSON-RPC frame.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is a JSON-RPC protocol-level failure.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// initializeResult answers the initialize handshake.
type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      serverInfo   `json:"serverInfo"`
}

type capabilities struct {
	Tools toolsCapability `json:"tools"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolDescriptor is one entry in the tools/list result.
type toolDescriptor struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema wireSchema `json:"inputSchema"`
}

// wireSchema is a ToolSchema in the JSON-schema object form clients
// expect under inputSchema.
type wireSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// listToolsResult is the tools/list result envelope.
type listToolsResult struct {
	Tools []toolDescriptor `json:"tools"`
}

// callParams are the tools/call parameters.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// textContent is a single text block in a tool result.
type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callResult is the tools/call result envelope. Domain failures travel
// here with IsError set, not as JSON-RPC errors.
type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

// textResult wraps plain text in a successful call envelope.
func textResult(text string) callResult {
	return callResult{
		Content: []textContent{{Type: "text", Text: text}},
	}
}

// errorResult wraps a tool failure in an isError envelope.
func errorResult(err error) callResult {
	return callResult{
		Content: []textContent{{Type: "text", Text: err.Error()}},
		IsError: true,
	}
}
