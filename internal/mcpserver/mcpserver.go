// Package mcpserver exposes the tool registry (§4.J) over the
// tool-invocation surface from §6, using the same mcp.NewServer/AddTool
// wiring the teacher's own MCP layer uses, with JSON request/response
// shapes narrowed to this system's sum type: {content:[...]} on success,
// {error:{code,message}} on failure.
package mcpserver

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ArthurDEV44/ctxopt/internal/session"
	"github.com/ArthurDEV44/ctxopt/internal/tools"
)

// Server wraps an mcp.Server with the tool registry and a table of live
// per-session state, keyed by the caller-supplied session_id. Entries are
// never removed while the server runs.
type Server struct {
	mcpServer *mcp.Server
	registry  *tools.Registry

	mu       sync.Mutex
	sessions map[string]*session.State
}

// NewServer builds an mcpServer with every tool in registry registered,
// wired to a fresh in-memory session table.
func NewServer(registry *tools.Registry) *Server {
	s := &Server{
		registry: registry,
		sessions: make(map[string]*session.State),
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "ctxopt-mcp-server",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	for _, t := range s.registry.List() {
		t := t
		s.mcpServer.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return s.CallTool(ctx, t.Name, req.Params.Arguments)
		})
	}
}

// Run speaks the MCP protocol over stdio until ctx is cancelled or the
// transport closes, the same surface cmd/ctxopt's "serve" subcommand
// starts.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// sessionIDEnvelope is the only field mcpserver itself reads out of a raw
// arguments object; everything else passes through to the tool verbatim.
type sessionIDEnvelope struct {
	SessionID string `json:"session_id"`
}

// CallTool dispatches one tool invocation, extracting session_id from the
// arguments object (when present) to bind a persistent session.State, and
// translating the registry's Result into the wire-level CallToolResult.
// Exported so in-process tests and other embedders can invoke tools
// without going through the stdio transport.
func (s *Server) CallTool(ctx context.Context, name string, rawArgs json.RawMessage) (*mcp.CallToolResult, error) {
	sessID, toolArgs := splitSessionID(rawArgs)

	var sess *session.State
	if sessID != "" {
		sess = s.sessionFor(sessID)
	}

	result := s.registry.Invoke(ctx, name, toolArgs, sess)
	return toCallToolResult(result), nil
}

// splitSessionID pulls session_id out of a raw JSON arguments object,
// returning the id (empty if absent or args is not an object) and the
// arguments unchanged — session_id is simply an extra field every tool's
// typed Execute ignores on unmarshal.
func splitSessionID(rawArgs json.RawMessage) (string, json.RawMessage) {
	if len(rawArgs) == 0 {
		return "", rawArgs
	}
	var envelope sessionIDEnvelope
	if err := json.Unmarshal(rawArgs, &envelope); err != nil {
		return "", rawArgs
	}
	return envelope.SessionID, rawArgs
}

// sessionFor resolves a non-empty sessID to a persistent session.State,
// minting one lazily on first use. Callers with no sessID at all should
// pass a nil *session.State through to Invoke instead of calling this —
// tools that require session state (session_stats, session_recent) treat
// nil as "no session bound to this call" and report it as an error.
func (s *Server) sessionFor(sessID string) *session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessID]
	if !ok {
		st = session.Begin(sessID)
		s.sessions[sessID] = st
	}
	return st
}

func toCallToolResult(result tools.Result) *mcp.CallToolResult {
	if result.Error != nil {
		data, err := json.Marshal(map[string]interface{}{
			"error": map[string]string{
				"code":    result.Error.Code,
				"message": result.Error.Message,
			},
		})
		if err != nil {
			data = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"failed to encode error response"}}`)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
			IsError: true,
		}
	}

	content := make([]mcp.Content, 0, len(result.Content))
	for _, c := range result.Content {
		content = append(content, &mcp.TextContent{Text: c.Text})
	}
	return &mcp.CallToolResult{Content: content}
}
