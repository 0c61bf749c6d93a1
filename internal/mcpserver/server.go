package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/azure-tools/arm-connector-mcp/internal/telemetry"
)

// ContentBlock is one unit of a tool call result (spec.md §4.G: a single
// text content block, optionally marked as an error).
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is what a ToolHandler returns.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult builds a single-block successful result.
func TextResult(text string) CallToolResult {
	return CallToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResult builds a single-block error result. A handler should return
// this instead of a Go error so a tool failure never propagates as a
// transport-level exception (spec.md §4.G).
func ErrorResult(text string) CallToolResult {
	return CallToolResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// ToolHandler executes a validated tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (CallToolResult, error)

type registeredTool struct {
	name        string
	description string
	inputSchema map[string]any
	compiled    *jsonschema.Schema
	handler     ToolHandler
}

// Server is the tool registrar and JSON-RPC dispatcher: the concrete
// implementation behind spec.md §6's external tool registrar contract.
// A single control thread processes one request at a time (spec.md §5) —
// Serve's loop never spawns a goroutine per incoming message.
type Server struct {
	name    string
	version string
	logger  telemetry.Logger

	mu       sync.RWMutex
	tools    map[string]*registeredTool
	order    []string
	handlers map[string]func(ctx context.Context, id *RequestID, params json.RawMessage) (any, *RPCError)

	notifyCh chan []byte
}

// New creates a Server advertising tools.listChanged = true, per spec.md §6.
func New(name, version string, logger telemetry.Logger) *Server {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	s := &Server{
		name:     name,
		version:  version,
		logger:   logger,
		tools:    map[string]*registeredTool{},
		handlers: map[string]func(context.Context, *RequestID, json.RawMessage) (any, *RPCError){},
		notifyCh: make(chan []byte, 16),
	}
	s.handlers["initialize"] = s.handleInitialize
	s.handlers["ping"] = s.handlePing
	s.handlers["tools/list"] = s.handleToolsList
	s.handlers["tools/call"] = s.handleToolsCall
	return s
}

// Register compiles inputSchema and stores the tool, overwriting any
// earlier registration under the same name (duplicate-name rejection is
// the Dynamic Tool Registry's job, one layer up, not the registrar's).
func (s *Server) Register(name, description string, inputSchema map[string]any, handler ToolHandler) error {
	compiled, err := compileSchema(name, inputSchema)
	if err != nil {
		return fmt.Errorf("mcpserver: register %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tools[name] = &registeredTool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		compiled:    compiled,
		handler:     handler,
	}
	return nil
}

func compileSchema(name string, doc map[string]any) (*jsonschema.Schema, error) {
	if doc == nil {
		doc = map[string]any{"type": "object"}
	}
	compiler := jsonschema.NewCompiler()
	resource := "mem://tool/" + name + ".json"
	if err := compiler.AddResource(resource, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// NotifyListChanged emits notifications/tools/list_changed. The method
// name is bit-exact per spec.md §6.
func (s *Server) NotifyListChanged() {
	msg, err := marshalNotification("notifications/tools/list_changed", nil)
	if err != nil {
		s.logger.Error(context.Background(), "failed to marshal list_changed notification", "err", err)
		return
	}
	select {
	case s.notifyCh <- msg:
	default:
		s.logger.Warn(context.Background(), "notification channel full, dropping list_changed")
	}
}

// HandleMessage processes one JSON-RPC message and returns the response
// bytes, or nil for a notification that needs no reply.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		resp, _ := marshalResponse(nil, nil, newError(CodeParseError, "invalid JSON"))
		return resp
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		resp, _ := marshalResponse(req.ID, nil, newError(CodeInvalidRequest, "invalid JSON-RPC request"))
		return resp
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		if req.ID == nil {
			return nil
		}
		resp, _ := marshalResponse(req.ID, nil, newError(CodeMethodNotFound, "method not found: "+req.Method))
		return resp
	}

	result, rpcErr := handler(ctx, req.ID, req.Params)
	if req.ID == nil {
		return nil
	}
	resp, err := marshalResponse(req.ID, result, rpcErr)
	if err != nil {
		fallback, _ := marshalResponse(req.ID, nil, newError(CodeInternalError, err.Error()))
		return fallback
	}
	return resp
}

// Serve reads messages from t until ctx is cancelled or the transport is
// exhausted, dispatching each to completion before reading the next —
// and interleaving any pending outbound notification, per the single
// control thread model of spec.md §5.
func (s *Server) Serve(ctx context.Context, t *StdioTransport) error {
	s.logger.Info(ctx, "mcp server starting", "name", s.name, "version", s.version)

	msgCh := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			msg, err := t.Receive(ctx)
			if err != nil {
				errCh <- err
				return
			}
			msgCh <- msg
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			for pending := true; pending; {
				select {
				case notif := <-s.notifyCh:
					if sendErr := t.Send(ctx, notif); sendErr != nil {
						return fmt.Errorf("mcpserver: send notification: %w", sendErr)
					}
				default:
					pending = false
				}
			}
			return fmt.Errorf("mcpserver: receive: %w", err)

		case msg := <-msgCh:
			resp := s.HandleMessage(ctx, msg)
			if resp == nil {
				continue
			}
			if err := t.Send(ctx, resp); err != nil {
				return fmt.Errorf("mcpserver: send: %w", err)
			}

		case notif := <-s.notifyCh:
			if err := t.Send(ctx, notif); err != nil {
				return fmt.Errorf("mcpserver: send notification: %w", err)
			}
		}
	}
}
