package compress

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/hbollon/go-edlib"
)

// SemanticSelect ranks lines by a TF-IDF-style salience score, drops
// near-duplicate lines (by edit-distance ratio), and keeps the top
// fraction within the requested ratio — order-preserving so the output
// still reads like the original, just thinned out. This is the fallback
// compressor for code and otherwise-unclassified text.
type SemanticSelect struct{}

func (SemanticSelect) Name() string { return "semantic_compress" }

func (SemanticSelect) SupportedContentTypes() []blob.ContentTag {
	return []blob.ContentTag{blob.TagCode, blob.TagGeneric, blob.TagStacktrace}
}

func (SemanticSelect) CanCompress(b blob.Blob) bool { return strings.TrimSpace(b.Text) != "" }

var wordTokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// nearDuplicateLineRatio is the edlib Levenshtein similarity ratio above
// which a line is considered a near-duplicate of one already kept.
const nearDuplicateLineRatio = 0.90

func (SemanticSelect) Compress(b blob.Blob, opts Options) (Result, error) {
	lines := strings.Split(b.Text, "\n")
	if len(lines) <= 1 {
		return finalize(b.Text, b.Text, "semantic_compress"), nil
	}

	df := make(map[string]int)
	lineTokens := make([][]string, len(lines))
	for i, line := range lines {
		toks := uniqueTokens(line)
		lineTokens[i] = toks
		for _, t := range toks {
			df[t]++
		}
	}

	n := float64(len(lines))
	scores := make([]float64, len(lines))
	for i, toks := range lineTokens {
		var s float64
		for _, t := range toks {
			idf := math.Log(1 + n/float64(df[t]))
			s += idf
		}
		scores[i] = s
	}

	ratio := opts.TargetRatio
	if ratio <= 0 || ratio > 1 {
		ratio = defaultSelectRatio(opts.detail())
	}
	keepCount := int(math.Ceil(float64(len(lines)) * ratio))
	if keepCount < 1 {
		keepCount = 1
	}

	type indexed struct {
		idx   int
		score float64
	}
	candidates := make([]indexed, len(lines))
	for i := range lines {
		candidates[i] = indexed{idx: i, score: scores[i]}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	kept := make(map[int]bool)
	var keptLines []string
	for _, c := range candidates {
		if len(kept) >= keepCount {
			break
		}
		line := lines[c.idx]
		if opts.preserved(line) || !isNearDuplicateOfAny(line, keptLines) {
			kept[c.idx] = true
			keptLines = append(keptLines, line)
		}
	}
	for i, line := range lines {
		if opts.preserved(line) {
			kept[i] = true
		}
	}

	var orderedIdx []int
	for idx := range kept {
		orderedIdx = append(orderedIdx, idx)
	}
	sort.Ints(orderedIdx)

	var out []string
	for _, idx := range orderedIdx {
		out = append(out, lines[idx])
	}

	return finalize(b.Text, strings.Join(out, "\n"), "semantic_compress"), nil
}

func defaultSelectRatio(d DetailLevel) float64 {
	switch d {
	case DetailMinimal:
		return 0.3
	case DetailDetailed:
		return 0.8
	default:
		return 0.5
	}
}

func uniqueTokens(line string) []string {
	matches := wordTokenRe.FindAllString(strings.ToLower(line), -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func isNearDuplicateOfAny(line string, against []string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, other := range against {
		// StringsSimilarity with Levenshtein already returns a
		// normalized similarity ratio in [0,1] (1 = identical).
		similarity, err := edlib.StringsSimilarity(trimmed, strings.TrimSpace(other), edlib.Levenshtein)
		if err != nil {
			continue
		}
		if float64(similarity) >= nearDuplicateLineRatio {
			return true
		}
	}
	return false
}
