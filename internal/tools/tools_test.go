package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArthurDEV44/ctxopt/internal/ast"
	"github.com/ArthurDEV44/ctxopt/internal/cache"
	"github.com/ArthurDEV44/ctxopt/internal/compress"
	"github.com/ArthurDEV44/ctxopt/internal/pipeline"
	"github.com/ArthurDEV44/ctxopt/internal/session"
)

func newTestRegistry() *Registry {
	reg := compress.NewRegistry()
	return NewRegistry(Deps{
		Compressors: reg,
		Pipeline:    pipeline.NewExecutor(reg),
		AST:         ast.New(),
	})
}

func TestInvokeUnknownToolReturnsStructuredError(t *testing.T) {
	r := newTestRegistry()
	res := r.Invoke(context.Background(), "does_not_exist", json.RawMessage(`{}`), nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, "UNKNOWN_TOOL", res.Error.Code)
	assert.Empty(t, res.Content)
}

func TestCompressToolRecordsSessionTokens(t *testing.T) {
	r := newTestRegistry()
	sess := session.Begin("")

	var lines string
	for i := 0; i < 50; i++ {
		lines += "2024-01-01T00:00:00Z INFO heartbeat tick\n"
	}
	args, err := json.Marshal(map[string]string{"text": lines, "declared_type": "logs"})
	require.NoError(t, err)

	res := r.Invoke(context.Background(), "compress", args, sess)
	require.Nil(t, res.Error)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].Text, "x50")

	stats := sess.Stats()
	assert.Equal(t, 1, stats.CommandCount)
	assert.Greater(t, stats.TokensSaved, 0)
}

func TestDetectContentTypeTool(t *testing.T) {
	r := newTestRegistry()
	args, err := json.Marshal(map[string]string{"text": "diff --git a/x b/x\n@@ -1 +1 @@\n"})
	require.NoError(t, err)
	res := r.Invoke(context.Background(), "detect_content_type", args, nil)
	require.Nil(t, res.Error)
	assert.Contains(t, res.Content[0].Text, "diff")
}

func TestValidatePathRejectsTraversal(t *testing.T) {
	r := newTestRegistry()
	args, err := json.Marshal(map[string]string{"path": "../../etc/passwd", "working_dir": "/work"})
	require.NoError(t, err)
	res := r.Invoke(context.Background(), "validate_path", args, nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, "PATH_VALIDATION", res.Error.Code)
}

func TestValidatePathAcceptsContainedPath(t *testing.T) {
	r := newTestRegistry()
	args, err := json.Marshal(map[string]string{"path": "src/x.ts", "working_dir": "/work"})
	require.NoError(t, err)
	res := r.Invoke(context.Background(), "validate_path", args, nil)
	require.Nil(t, res.Error)
	assert.Contains(t, res.Content[0].Text, "/work/src/x.ts")
}

func TestParseBuildOutputGroupsDuplicateSignatures(t *testing.T) {
	r := newTestRegistry()
	text := "src/a.ts(12,5): error TS2304: Cannot find name 'foo'.\n" +
		"src/b.ts(3,1): error TS2304: Cannot find name 'bar'.\n"
	args, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)
	res := r.Invoke(context.Background(), "parse_build_output", args, nil)
	require.Nil(t, res.Error)

	var parsed struct {
		Groups []struct {
			Count int `json:"Count"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &parsed))
	require.Len(t, parsed.Groups, 1)
	assert.Equal(t, 2, parsed.Groups[0].Count)
}

func TestSessionStatsRequiresSession(t *testing.T) {
	r := newTestRegistry()
	res := r.Invoke(context.Background(), "session_stats", json.RawMessage(`{}`), nil)
	require.NotNil(t, res.Error)
}

func TestParseASTCachesRepeatedParse(t *testing.T) {
	reg := compress.NewRegistry()
	c := cache.New(16)
	r := NewRegistry(Deps{
		Compressors: reg,
		Pipeline:    pipeline.NewExecutor(reg),
		AST:         ast.New(),
		Cache:       c,
	})

	args, err := json.Marshal(map[string]string{
		"path":     "widget.py",
		"language": "python",
		"content":  "def helper():\n    return 1\n",
	})
	require.NoError(t, err)

	res := r.Invoke(context.Background(), "parse_ast", args, nil)
	require.Nil(t, res.Error)
	assert.Equal(t, 1, c.Len())

	res = r.Invoke(context.Background(), "parse_ast", args, nil)
	require.Nil(t, res.Error)
	assert.Equal(t, 1, c.Len(), "second call with identical content should hit the cache, not add a new entry")
}

func TestInfoListsRegisteredTools(t *testing.T) {
	r := newTestRegistry()
	res := r.Invoke(context.Background(), "info", json.RawMessage(`{}`), nil)
	require.Nil(t, res.Error)
	assert.Contains(t, res.Content[0].Text, "compress")
	assert.Contains(t, res.Content[0].Text, "validate_path")
}
