// Package compress implements the structural compressor family (§4.D):
// independently callable transformers operating on typed intermediate
// forms, each satisfying the same Compressor contract so the pipeline
// executor can dispatch to them uniformly.
package compress

import (
	"regexp"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/ArthurDEV44/ctxopt/internal/tokenizer"
)

// DetailLevel is the compression verbosity knob.
type DetailLevel string

const (
	DetailMinimal  DetailLevel = "minimal"
	DetailNormal   DetailLevel = "normal"
	DetailDetailed DetailLevel = "detailed"
)

// Options carries per-call compressor configuration.
type Options struct {
	Detail           DetailLevel
	TargetRatio      float64 // 0 means unset; compressors pick a sensible default
	PreservePatterns []*regexp.Regexp
}

func (o Options) detail() DetailLevel {
	if o.Detail == "" {
		return DetailNormal
	}
	return o.Detail
}

// preserved reports whether line matches any of opts' preserve patterns.
// SemanticSelect and the line-based path of ConfigCompact keep such lines
// verbatim regardless of compression decisions; LogDedupe, StackDedupe
// and DiffCompress do not consult the patterns.
func (o Options) preserved(line string) bool {
	for _, p := range o.PreservePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Result is a compressor's output: the compressed text plus the stats
// the tokenizer oracle derived from comparing it to the input.
type Result struct {
	Text  string
	Stats blob.CompressionStats
}

// Compressor is the shape every compressor in the family implements.
type Compressor interface {
	Name() string
	SupportedContentTypes() []blob.ContentTag
	CanCompress(b blob.Blob) bool
	Compress(b blob.Blob, opts Options) (Result, error)
}

// finalize builds a Result from original/compressed text, applying the
// identity-on-expansion rule: when compression would make the content
// larger (by token count), or leaves it unchanged, the compressor returns
// the input unchanged with technique "identity" and ReductionPercent 0.
func finalize(original, compressed, technique string) Result {
	origTokens := int(tokenizer.Count(original))
	compTokens := int(tokenizer.Count(compressed))

	if original != "" && (compTokens > origTokens || compressed == original) {
		return Result{
			Text: original,
			Stats: blob.NewStats(
				countLines(original), countLines(original),
				origTokens, origTokens,
				"identity",
			),
		}
	}

	return Result{
		Text: compressed,
		Stats: blob.NewStats(
			countLines(original), countLines(compressed),
			origTokens, compTokens,
			technique,
		),
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// Registry is the name-indexed compressor family used by the pipeline
// executor and tool registry (capability-indexed dispatch, §9).
type Registry struct {
	byName map[string]Compressor
	all    []Compressor
}

// NewRegistry builds the fixed registry of built-in compressors.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Compressor)}
	for _, c := range []Compressor{
		LogDedupe{},
		StackDedupe{},
		DiffCompress{},
		SemanticSelect{},
		ConfigCompact{},
	} {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a compressor by name.
func (r *Registry) Register(c Compressor) {
	if _, exists := r.byName[c.Name()]; exists {
		for i, existing := range r.all {
			if existing.Name() == c.Name() {
				r.all[i] = c
			}
		}
	} else {
		r.all = append(r.all, c)
	}
	r.byName[c.Name()] = c
}

// Get resolves a compressor by its registered name.
func (r *Registry) Get(name string) (Compressor, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// For returns every compressor that declares it can handle the given
// content tag, in registration order.
func (r *Registry) For(tag blob.ContentTag) []Compressor {
	var out []Compressor
	for _, c := range r.all {
		for _, t := range c.SupportedContentTypes() {
			if t == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
