package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/ArthurDEV44/ctxopt/internal/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEmptyInputShortCircuits(t *testing.T) {
	e := NewExecutor(compress.NewRegistry())
	out, stats, err := e.Run(context.Background(), blob.New(""))
	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.Equal(t, "", out.Text)
}

func TestRunLogsChainSummarizes(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "2024-01-01T00:00:00Z INFO routine heartbeat tick")
	}
	b := blob.New(strings.Join(lines, "\n"))
	b.Hints.DeclaredType = blob.TagLogs

	e := NewExecutor(compress.NewRegistry())
	out, stats, err := e.Run(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "summarize_logs", stats[0].Stage)
	assert.Contains(t, out.Text, "x50")
}

func TestRunBuildChainParsesAndDedupes(t *testing.T) {
	text := "src/a.ts(3,5): error TS2304: Cannot find name 'foo'.\n" +
		"src/b.ts(9,1): error TS2304: Cannot find name 'foo'.\n"
	b := blob.New(text)
	b.Hints.DeclaredType = blob.TagBuild

	e := NewExecutor(compress.NewRegistry())
	out, stats, err := e.Run(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "analyze_build_output", stats[0].Stage)
	assert.Contains(t, out.Text, "x2")
}

func TestRunGenericChainRecordsStage(t *testing.T) {
	e := NewExecutor(compress.NewRegistry())
	b := blob.New("some generic unclassified text content here")
	b.Hints.DeclaredType = blob.TagGeneric
	_, stats, err := e.Run(context.Background(), b)
	require.NoError(t, err)
	assert.NotEmpty(t, stats)
}
