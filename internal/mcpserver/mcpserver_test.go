package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArthurDEV44/ctxopt/internal/ast"
	"github.com/ArthurDEV44/ctxopt/internal/compress"
	"github.com/ArthurDEV44/ctxopt/internal/pipeline"
	"github.com/ArthurDEV44/ctxopt/internal/tools"
)

func newTestServer() *Server {
	reg := compress.NewRegistry()
	return NewServer(tools.NewRegistry(tools.Deps{
		Compressors: reg,
		Pipeline:    pipeline.NewExecutor(reg),
		AST:         ast.New(),
	}))
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestCallToolDetectContentType(t *testing.T) {
	s := newTestServer()
	args, err := json.Marshal(map[string]string{"text": "panic: runtime error\n\tat main.go:10"})
	require.NoError(t, err)

	res, err := s.CallTool(context.Background(), "detect_content_type", args)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "stacktrace")
}

func TestCallToolUnknownToolSetsIsError(t *testing.T) {
	s := newTestServer()
	res, err := s.CallTool(context.Background(), "not_a_real_tool", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "UNKNOWN_TOOL")
}

func TestCallToolSessionIDPersistsAcrossCalls(t *testing.T) {
	s := newTestServer()
	compressArgs, err := json.Marshal(map[string]string{
		"text":          "2024-01-01T00:00:00Z INFO hello\n2024-01-01T00:00:00Z INFO hello\n",
		"declared_type": "logs",
		"session_id":    "sess-1",
	})
	require.NoError(t, err)

	_, err = s.CallTool(context.Background(), "compress", compressArgs)
	require.NoError(t, err)

	statsArgs, err := json.Marshal(map[string]string{"session_id": "sess-1"})
	require.NoError(t, err)
	res, err := s.CallTool(context.Background(), "session_stats", statsArgs)
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), `"CommandCount":1`)
}

func TestCallToolMissingSessionIDDoesNotPersist(t *testing.T) {
	s := newTestServer()
	res, err := s.CallTool(context.Background(), "session_stats", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
