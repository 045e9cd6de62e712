package detector

import (
	"testing"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want blob.ContentTag
	}{
		{
			name: "typescript build",
			text: "src/a.ts(12,5): error TS2304: Cannot find name 'foo'.\nsrc/b.ts(3,1): error TS2304: Cannot find name 'bar'.",
			want: blob.TagBuild,
		},
		{
			name: "unified diff",
			text: "diff --git a/foo.go b/foo.go\n--- a/foo.go\n+++ b/foo.go\n@@ -1,2 +1,2 @@\n-old\n+new\n",
			want: blob.TagDiff,
		},
		{
			name: "python traceback",
			text: "Traceback (most recent call last):\n  File \"x.py\", line 1, in <module>\nValueError: boom",
			want: blob.TagStacktrace,
		},
		{
			name: "js error with frames",
			text: "TypeError: x is not a function\n    at foo (index.js:10:5)\n    at bar (index.js:20:1)",
			want: blob.TagStacktrace,
		},
		{
			name: "iso timestamp logs",
			text: "2024-01-02T03:04:05Z [ERROR] Connection refused to 10.0.0.1:80\n2024-01-02T03:04:06Z [ERROR] Connection refused to 10.0.0.2:80",
			want: blob.TagLogs,
		},
		{
			name: "json config",
			text: `{"name":"foo","version":"1.0.0"}`,
			want: blob.TagConfig,
		},
		{
			name: "yaml-ish config",
			text: "name: foo\nversion: 1.0\ndebug: true\n",
			want: blob.TagConfig,
		},
		{
			name: "go code",
			text: "package main\n\nfunc main() {\n\tvar x int\n}\n",
			want: blob.TagCode,
		},
		{
			name: "generic fallback",
			text: "just some prose about nothing in particular",
			want: blob.TagGeneric,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect(tc.text))
		})
	}
}

func TestDetectDeterministicAndWhitespaceIndependent(t *testing.T) {
	text := "package main\nfunc main() {}\n"
	a := Detect(text)
	b := Detect(text)
	assert.Equal(t, a, b)
	assert.Equal(t, a, Detect(text+"\n\n\t  "))
}

func TestLogsBeforeBuildOrdering(t *testing.T) {
	text := "2024-01-02T03:04:05Z error TS2304: Cannot find name 'x'."
	assert.Equal(t, blob.TagLogs, Detect(text))
}
