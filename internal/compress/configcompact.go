package compress

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
)

// ConfigCompact shrinks configuration text: valid JSON is re-marshaled
// without indentation (key order preserved via json.RawMessage decoding
// isn't attempted — json.Compact preserves source key order exactly,
// unlike decode/re-encode through a map), while YAML/INI-style text has
// its comment and blank lines stripped.
type ConfigCompact struct{}

func (ConfigCompact) Name() string { return "compress_context" }

func (ConfigCompact) SupportedContentTypes() []blob.ContentTag {
	return []blob.ContentTag{blob.TagConfig}
}

func (ConfigCompact) CanCompress(b blob.Blob) bool { return strings.TrimSpace(b.Text) != "" }

var (
	yamlCommentLineRe = regexp.MustCompile(`^\s*#`)
	yamlBlankLineRe   = regexp.MustCompile(`^\s*$`)
)

func (ConfigCompact) Compress(b blob.Blob, opts Options) (Result, error) {
	trimmed := strings.TrimSpace(b.Text)

	if json.Valid([]byte(trimmed)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err == nil {
			return finalize(b.Text, buf.String(), "json_compact"), nil
		}
	}

	lines := strings.Split(b.Text, "\n")
	var out []string
	for _, line := range lines {
		if opts.preserved(line) {
			out = append(out, line)
			continue
		}
		if yamlCommentLineRe.MatchString(line) || yamlBlankLineRe.MatchString(line) {
			continue
		}
		out = append(out, line)
	}

	return finalize(b.Text, strings.Join(out, "\n"), "yaml_compact"), nil
}
