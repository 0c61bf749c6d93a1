// Package mcpserver implements the line-oriented JSON-RPC 2.0 stdio
// transport and tool registrar this server exposes to an MCP client
// (spec.md §6's "external tool registrar contract").
package mcpserver

import (
	"encoding/json"
	"fmt"
)

const jsonrpcVersion = "2.0"

// RequestID is the JSON-RPC id union: a string, a number, or absent
// (notifications carry no id).
type RequestID struct {
	str *string
	num *int64
}

// NewStringID wraps a string request id.
func NewStringID(s string) *RequestID { return &RequestID{str: &s} }

// NewNumberID wraps a numeric request id.
func NewNumberID(n int64) *RequestID { return &RequestID{num: &n} }

func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	if id.str != nil {
		return json.Marshal(*id.str)
	}
	if id.num != nil {
		return json.Marshal(*id.num)
	}
	return []byte("null"), nil
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.str = &s
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		id.num = &n
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	return fmt.Errorf("mcpserver: invalid request id %s", data)
}

func (id *RequestID) String() string {
	if id == nil {
		return "null"
	}
	if id.str != nil {
		return *id.str
	}
	if id.num != nil {
		return fmt.Sprintf("%d", *id.num)
	}
	return "null"
}

// Request is a JSON-RPC 2.0 request. ID is nil for notifications.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response; Result and Error are mutually
// exclusive.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Notification is a JSON-RPC 2.0 message with no id; the protocol's
// notifications/tools/list_changed is sent as one of these.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("mcp: %d %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

func newError(code int, message string) *RPCError {
	return &RPCError{Code: code, Message: message}
}

func marshalResponse(id *RequestID, result any, rpcErr *RPCError) ([]byte, error) {
	resp := Response{JSONRPC: jsonrpcVersion, ID: id, Error: rpcErr}
	if rpcErr == nil && result != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: marshal result: %w", err)
		}
		resp.Result = encoded
	}
	return json.Marshal(resp)
}

func marshalNotification(method string, params any) ([]byte, error) {
	n := Notification{JSONRPC: jsonrpcVersion, Method: method}
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: marshal notification params: %w", err)
		}
		n.Params = encoded
	}
	return json.Marshal(n)
}
