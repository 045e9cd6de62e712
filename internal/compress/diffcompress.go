package compress

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/ArthurDEV44/ctxopt/internal/tokenizer"
)

// DiffCompress reduces unified-diff text by one of three strategies,
// auto-selected by input size when the caller doesn't pin Detail:
// hunks-only (strip commit/index boilerplate, keep hunk bodies), summary
// (one line per file plus aggregate totals, no hunk bodies), or semantic
// (retain only the hunks carrying an identifier that appears nowhere
// else in the diff, within a token budget; overflow degrades to
// summary).
type DiffCompress struct{}

func (DiffCompress) Name() string { return "diff_compress" }

func (DiffCompress) SupportedContentTypes() []blob.ContentTag {
	return []blob.ContentTag{blob.TagDiff}
}

func (DiffCompress) CanCompress(b blob.Blob) bool {
	return strings.Contains(b.Text, "diff --git") || strings.Contains(b.Text, "@@ -")
}

// defaultMaxTokens is the token budget auto-selection and the semantic
// strategy measure against: at or under budget the diff is returned
// verbatim, up to 3x budget gets hunks-only, beyond that gets summary.
const defaultMaxTokens = 2000

func (DiffCompress) Compress(b blob.Blob, opts Options) (Result, error) {
	files := ParseUnifiedDiff(b.Text)
	if len(files) == 0 {
		return finalize(b.Text, b.Text, "diff_compress"), nil
	}

	origTokens := int(tokenizer.Count(b.Text))

	strategy := opts.Detail
	if strategy == "" {
		switch {
		case origTokens <= defaultMaxTokens:
			return finalize(b.Text, b.Text, "identity"), nil
		case origTokens <= 3*defaultMaxTokens:
			strategy = DetailNormal // hunks-only
		default:
			strategy = DetailMinimal // summary
		}
	}

	var out string
	var technique string
	switch strategy {
	case DetailMinimal:
		out = diffSummary(files)
		technique = "diff_summary"
	case DetailNormal:
		out = diffHunksOnly(files)
		technique = "diff_hunks_only"
	default:
		var overflowed bool
		out, overflowed = diffSemantic(files, defaultMaxTokens)
		technique = "diff_semantic"
		if overflowed {
			out = diffSummary(files)
			technique = "diff_summary"
		}
	}

	return finalize(b.Text, out, technique), nil
}

// diffSummary emits one line per file as "path +a -d (status)" followed
// by a trailing aggregate-totals line, per §4.D's summary strategy.
func diffSummary(files []blob.DiffFile) string {
	var b strings.Builder
	var totalAdds, totalDels int
	for _, f := range files {
		name := f.NewPath
		if f.Status == blob.DiffDeleted {
			name = f.OldPath
		}
		adds := f.TotalAdditions()
		dels := f.TotalDeletions()
		totalAdds += adds
		totalDels += dels
		fmt.Fprintf(&b, "%s +%d -%d (%s)", name, adds, dels, f.Status)
		if f.IsBinary {
			b.WriteString(" [binary]")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d files changed, +%d -%d\n", len(files), totalAdds, totalDels)
	return strings.TrimRight(b.String(), "\n")
}

func diffHunksOnly(files []blob.DiffFile) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", f.OldPath, f.NewPath)
		for _, h := range f.Hunks {
			b.WriteString(h.Content)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// diffIdentifierRe tokenizes hunk content into identifier-like words for
// the semantic strategy's uniqueness check.
var diffIdentifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

type diffHunkRef struct {
	fileIdx int
	hunkIdx int
}

// diffSemantic retains, in original order, every hunk that contains at
// least one identifier not present in any other hunk of the diff,
// stopping once adding the next qualifying hunk would exceed maxTokens.
// The second return value reports whether the budget was exhausted
// before every qualifying hunk could be included — callers must degrade
// to diffSummary in that case, per §4.D.
func diffSemantic(files []blob.DiffFile, maxTokens int) (string, bool) {
	var refs []diffHunkRef
	var hunkIdents []map[string]struct{}
	identHunks := make(map[string]map[int]struct{})

	for fi, f := range files {
		for hi, h := range f.Hunks {
			idents := make(map[string]struct{})
			for _, tok := range diffIdentifierRe.FindAllString(h.Content, -1) {
				idents[tok] = struct{}{}
			}
			pos := len(refs)
			refs = append(refs, diffHunkRef{fileIdx: fi, hunkIdx: hi})
			hunkIdents = append(hunkIdents, idents)
			for tok := range idents {
				if identHunks[tok] == nil {
					identHunks[tok] = make(map[int]struct{})
				}
				identHunks[tok][pos] = struct{}{}
			}
		}
	}

	unique := make([]bool, len(refs))
	for pos, idents := range hunkIdents {
		for tok := range idents {
			if len(identHunks[tok]) == 1 {
				unique[pos] = true
				break
			}
		}
	}

	var b strings.Builder
	usedTokens := 0
	overflowed := false
	currentFile := -1
	for pos, ref := range refs {
		if !unique[pos] {
			continue
		}
		f := files[ref.fileIdx]
		h := f.Hunks[ref.hunkIdx]
		hunkTokens := int(tokenizer.Count(h.Content))
		if usedTokens+hunkTokens > maxTokens {
			overflowed = true
			break
		}
		if ref.fileIdx != currentFile {
			fmt.Fprintf(&b, "--- %s\n+++ %s\n", f.OldPath, f.NewPath)
			currentFile = ref.fileIdx
		}
		b.WriteString(h.Content)
		b.WriteString("\n")
		usedTokens += hunkTokens
	}

	return strings.TrimRight(b.String(), "\n"), overflowed
}
