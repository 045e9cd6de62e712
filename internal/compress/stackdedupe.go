package compress

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
)

// StackDedupe collapses repeated stack traces (the same crash logged
// multiple times) into one representative occurrence plus a count.
type StackDedupe struct{}

func (StackDedupe) Name() string { return "deduplicate_errors" }

func (StackDedupe) SupportedContentTypes() []blob.ContentTag {
	return []blob.ContentTag{blob.TagStacktrace, blob.TagBuild}
}

func (StackDedupe) CanCompress(b blob.Blob) bool { return strings.TrimSpace(b.Text) != "" }

var stackBlockStartRe = regexp.MustCompile(`^(Traceback \(most recent call last\):|panic: |Exception in thread |goroutine \d+ \[)`)

// stackAddrRe normalizes volatile addresses/pointers so two occurrences of
// the same crash at different memory locations still dedupe together.
var stackAddrRe = regexp.MustCompile(`0x[0-9a-fA-F]+`)

type stackBlock struct {
	raw        string
	normalized string
}

// splitStackBlocks partitions text into blocks, starting a new block at
// every recognized traceback/panic header line.
func splitStackBlocks(text string) []stackBlock {
	lines := strings.Split(text, "\n")
	var blocks []stackBlock
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		raw := strings.Join(current, "\n")
		blocks = append(blocks, stackBlock{raw: raw, normalized: normalizeStackBlock(raw)})
		current = nil
	}

	for _, line := range lines {
		if stackBlockStartRe.MatchString(line) && len(current) > 0 {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func normalizeStackBlock(block string) string {
	n := stackAddrRe.ReplaceAllString(block, "0xN")
	n = logDigitsRe.ReplaceAllString(n, "N")
	return strings.TrimRight(n, "\n")
}

func (StackDedupe) Compress(b blob.Blob, opts Options) (Result, error) {
	blocks := splitStackBlocks(b.Text)

	type group struct {
		sample string
		count  int
	}
	groups := make(map[string]*group)
	var order []string

	for _, blk := range blocks {
		g, ok := groups[blk.normalized]
		if !ok {
			g = &group{sample: blk.raw}
			groups[blk.normalized] = g
			order = append(order, blk.normalized)
		}
		g.count++
	}

	var parts []string
	for _, key := range order {
		g := groups[key]
		if g.count > 1 {
			parts = append(parts, fmt.Sprintf("%s\n(repeated %d times)", strings.TrimRight(g.sample, "\n"), g.count))
		} else {
			parts = append(parts, g.sample)
		}
	}

	return finalize(b.Text, strings.Join(parts, "\n\n"), "stack_dedupe"), nil
}
