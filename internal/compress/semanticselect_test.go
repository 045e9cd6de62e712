package compress

import (
	"regexp"
	"strings"
	"testing"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticSelectKeepsOrderAndThins(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, "the quick brown fox jumps over the lazy dog repeatedly")
	}
	lines = append(lines, "func uniqueHandlerForRareThing(ctx context.Context) error { return nil }")
	text := strings.Join(lines, "\n")

	res, err := SemanticSelect{}.Compress(blob.New(text), Options{TargetRatio: 0.3})
	require.NoError(t, err)

	assert.Contains(t, res.Text, "uniqueHandlerForRareThing")
	assert.Less(t, strings.Count(res.Text, "\n")+1, len(lines))
}

func TestSemanticSelectPreservesMarkedPatterns(t *testing.T) {
	lines := make([]string, 0, 20)
	for i := 0; i < 19; i++ {
		lines = append(lines, "filler line of no particular importance here")
	}
	lines = append(lines, "IMPORTANT: do not drop this line")
	text := strings.Join(lines, "\n")

	re := regexp.MustCompile(`IMPORTANT:`)
	res, err := SemanticSelect{}.Compress(blob.New(text), Options{TargetRatio: 0.1, PreservePatterns: []*regexp.Regexp{re}})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "IMPORTANT:")
}
