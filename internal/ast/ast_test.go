package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonSample = `import os
import sys

class Widget:
    """Represents a UI widget."""

    def render(self):
        return "<div></div>"

    def resize(self, w, h):
        pass


def helper_function():
    return 42
`

func TestParsePythonExtractsClassMethodsAndFunctions(t *testing.T) {
	f := New()
	require.True(t, f.SupportsLanguage("python"))

	fs, err := f.Parse("widget.py", "python", []byte(pythonSample))
	require.NoError(t, err)

	require.NotEmpty(t, fs.Elements)

	var widget *CodeElement
	for i := range fs.Elements {
		if fs.Elements[i].Name == "Widget" {
			widget = &fs.Elements[i]
		}
	}
	require.NotNil(t, widget, "expected to find Widget class element")
	assert.GreaterOrEqual(t, len(widget.Children), 1)
}

func TestSearchMatchesByName(t *testing.T) {
	f := New()
	fs, err := f.Parse("widget.py", "python", []byte(pythonSample))
	require.NoError(t, err)

	results := Search(fs, "helper")
	require.Len(t, results, 1)
	assert.Equal(t, "helper_function", results[0].Name)
}

func TestExtractReturnsFalseWhenMissing(t *testing.T) {
	f := New()
	fs, err := f.Parse("widget.py", "python", []byte(pythonSample))
	require.NoError(t, err)

	_, ok := Extract(fs, "does_not_exist")
	assert.False(t, ok)
}

func TestParseUnsupportedLanguageErrors(t *testing.T) {
	f := New()
	_, err := f.Parse("x.rb", "ruby", []byte("puts 1"))
	assert.Error(t, err)
}

const jsImportSample = `import A from "./a";
import B from "./b";

export function f() {
  return A();
}
`

func TestExtractContentIncludesOnlyReferencedImports(t *testing.T) {
	f := New()
	content := []byte(jsImportSample)
	fs, err := f.Parse("main.js", "javascript", content)
	require.NoError(t, err)

	extracted, ok := ExtractContent(fs, content, ExtractTarget{Kind: "function", Name: "f"}, ExtractOptions{IncludeImports: true})
	require.True(t, ok)
	assert.Contains(t, extracted.Text, "return A();")
	require.Len(t, extracted.ImportLines, 1)
	assert.Contains(t, extracted.ImportLines[0], `"./a"`)
}

func TestExtractContentReturnsFalseWhenMissing(t *testing.T) {
	f := New()
	content := []byte(jsImportSample)
	fs, err := f.Parse("main.js", "javascript", content)
	require.NoError(t, err)

	_, ok := ExtractContent(fs, content, ExtractTarget{Kind: "function", Name: "nope"}, ExtractOptions{})
	assert.False(t, ok)
}
