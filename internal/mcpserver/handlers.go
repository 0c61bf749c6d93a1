package mcpserver

import (
	"context"
	"encoding/json"
)

const protocolVersion = "2024-11-05"

type implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type serverCapabilities struct {
	Tools *toolsCapability `json:"tools,omitempty"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      implementation     `json:"serverInfo"`
}

// handleInitialize advertises tools.listChanged = true per spec.md §6.
func (s *Server) handleInitialize(_ context.Context, _ *RequestID, _ json.RawMessage) (any, *RPCError) {
	return initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    serverCapabilities{Tools: &toolsCapability{ListChanged: true}},
		ServerInfo:      implementation{Name: s.name, Version: s.version},
	}, nil
}

func (s *Server) handlePing(context.Context, *RequestID, json.RawMessage) (any, *RPCError) {
	return struct{}{}, nil
}

type toolDescriptorWire struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []toolDescriptorWire `json:"tools"`
}

func (s *Server) handleToolsList(context.Context, *RequestID, json.RawMessage) (any, *RPCError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]toolDescriptorWire, 0, len(s.order))
	for _, name := range s.order {
		t := s.tools[name]
		tools = append(tools, toolDescriptorWire{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema,
		})
	}
	return toolsListResult{Tools: tools}, nil
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, _ *RequestID, params json.RawMessage) (any, *RPCError) {
	var p toolsCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, newError(CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	s.mu.RLock()
	tool, ok := s.tools[p.Name]
	s.mu.RUnlock()
	if !ok {
		return nil, newError(CodeMethodNotFound, "unknown tool: "+p.Name)
	}

	args := p.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if tool.compiled != nil {
		if err := tool.compiled.Validate(args); err != nil {
			return ErrorResult("invalid arguments for " + p.Name + ": " + err.Error()), nil
		}
	}

	result, err := tool.handler(ctx, args)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return result, nil
}
