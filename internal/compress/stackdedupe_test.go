package compress

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pythonTraceback(addr string) string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for i := 0; i < 28; i++ {
		b.WriteString(fmt.Sprintf("  File \"app/module_%d.py\", line %d, in handler\n    handler_%d()\n", i, i*3, i))
	}
	b.WriteString("KeyError: 'missing_key' at " + addr + "\n")
	return b.String()
}

func TestStackDedupeCollapsesRepeatedTraceback(t *testing.T) {
	one := pythonTraceback("0x1000")
	text := one + "\n" + one + "\n" + one

	res, err := StackDedupe{}.Compress(blob.New(text), Options{})
	require.NoError(t, err)

	assert.Contains(t, res.Text, "repeated 3 times")
	assert.Equal(t, 1, strings.Count(res.Text, "Traceback (most recent call last):"))
}

func TestStackDedupeDistinctTracebacksNotMerged(t *testing.T) {
	text := "panic: boom\ngoroutine 1 [running]:\nmain.a()\n\npanic: other\ngoroutine 2 [running]:\nmain.b()"
	res, err := StackDedupe{}.Compress(blob.New(text), Options{})
	require.NoError(t, err)
	assert.NotContains(t, res.Text, "repeated")
}
