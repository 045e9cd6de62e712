package compress

import (
	"strings"
	"testing"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCompactCompactsJSONPreservingKeyOrder(t *testing.T) {
	text := `{
  "zeta": 1,
  "alpha": 2,
  "middle": {
    "nested": true
  }
}`
	res, err := ConfigCompact{}.Compress(blob.New(text), Options{})
	require.NoError(t, err)

	assert.Equal(t, "json_compact", res.Stats.TechniqueLabel)
	assert.Less(t, strings.Index(res.Text, "zeta"), strings.Index(res.Text, "alpha"))
	assert.NotContains(t, res.Text, "\n")
}

func TestConfigCompactStripsYAMLCommentsAndBlankLines(t *testing.T) {
	text := "# top comment\nkey: value\n\n# another\nother: 1\n"
	res, err := ConfigCompact{}.Compress(blob.New(text), Options{})
	require.NoError(t, err)

	assert.Equal(t, "yaml_compact", res.Stats.TechniqueLabel)
	assert.NotContains(t, res.Text, "# top comment")
	assert.Contains(t, res.Text, "key: value")
}
