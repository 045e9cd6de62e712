// Package pipeline implements the fixed content-type-to-compressor-chain
// executor (§4.E): given a Blob and optional hints, it classifies the
// content, looks up the stage chain for that classification, and runs
// each stage in order, capturing per-stage stats even when a stage
// errors rather than aborting the whole run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/ArthurDEV44/ctxopt/internal/builderrors"
	"github.com/ArthurDEV44/ctxopt/internal/compress"
	"github.com/ArthurDEV44/ctxopt/internal/debug"
	"github.com/ArthurDEV44/ctxopt/internal/detector"
)

// StageStat is one pipeline stage's before/after record, reusing the same
// CompressionStats shape a single compressor call produces.
type StageStat struct {
	Stage string
	Stats blob.CompressionStats
	Err   error
}

// Table maps a content classification to the ordered chain of compressor
// names run against it. Declared as a fixed table, not derived, so the
// behavior for each content type is auditable in one place.
var Table = map[blob.ContentTag][]string{
	blob.TagBuild:      {"analyze_build_output", "deduplicate_errors"},
	blob.TagLogs:       {"summarize_logs"},
	blob.TagStacktrace: {"deduplicate_errors", "semantic_compress"},
	blob.TagDiff:       {"diff_compress"},
	blob.TagConfig:     {"compress_context"},
	blob.TagCode:       {"semantic_compress"},
	blob.TagGeneric:    {"semantic_compress"},
}

// analyzeBuildOutputStageName is a synthetic stage, not a registry
// Compressor: it runs the build-error parser/grouper ahead of the
// compressor chain, shaping the blob before deduplicate_errors sees it.
const analyzeBuildOutputStageName = "analyze_build_output"

// Executor runs the fixed pipeline table against a compressor Registry.
type Executor struct {
	registry *compress.Registry
}

func NewExecutor(registry *compress.Registry) *Executor {
	return &Executor{registry: registry}
}

// Run classifies b (honoring hints.DeclaredType if set), executes the
// matching stage chain, and returns the final blob plus the per-stage
// stats. An empty input short-circuits to an empty, zero-stage result.
func (e *Executor) Run(ctx context.Context, b blob.Blob) (blob.Blob, []StageStat, error) {
	if b.Text == "" {
		return b, nil, nil
	}

	tag := b.Hints.DeclaredType
	if tag == "" {
		tag = detector.Detect(b.Text)
	}

	chain, ok := Table[tag]
	if !ok {
		chain = Table[blob.TagGeneric]
	}

	var stats []StageStat
	current := b

	for _, stageName := range chain {
		select {
		case <-ctx.Done():
			return current, stats, ctx.Err()
		default:
		}

		if stageName == analyzeBuildOutputStageName {
			current, stats = runBuildAnalysis(current, stats)
			continue
		}

		c, ok := e.registry.Get(stageName)
		if !ok {
			debug.Errorf("pipeline: unknown stage %q, skipping", stageName)
			continue
		}
		if !c.CanCompress(current) {
			continue
		}

		res, err := c.Compress(current, compress.Options{})
		if err != nil {
			stats = append(stats, StageStat{Stage: stageName, Err: err})
			debug.Errorf("pipeline: stage %q failed: %v", stageName, err)
			continue
		}
		stats = append(stats, StageStat{Stage: stageName, Stats: res.Stats})
		current = current.WithText(res.Text)
	}

	return current, stats, nil
}

// runBuildAnalysis parses and groups build-tool error output, replacing
// the blob's text with the grouped representation before the next stage
// (typically deduplicate_errors) runs against it.
func runBuildAnalysis(b blob.Blob, stats []StageStat) (blob.Blob, []StageStat) {
	if !builderrors.CanParse(b.Text) {
		return b, stats
	}
	parsed := builderrors.Parse(b.Text)
	groups := builderrors.Group(parsed)

	var out string
	for _, g := range groups {
		out += fmt.Sprintf("[%s] %s (x%d) %s\n", g.Code, g.Message, g.Count, g.Suggestion)
	}

	stats = append(stats, StageStat{
		Stage: analyzeBuildOutputStageName,
		Stats: blob.NewStats(countLines(b.Text), countLines(out), 0, 0, "build_group"),
	})
	return b.WithText(out), stats
}

func countLines(s string) int {
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
