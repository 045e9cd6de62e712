// Package blob holds the value types that flow one-way through a ctxopt
// pipeline: the opaque input Blob, its ContentTag classification, the
// before/after CompressionStats a stage produces, and the git-style diff
// model used by the diff compressor.
package blob

// ContentTag is the closed classification enum a Blob is routed on.
type ContentTag string

const (
	TagLogs       ContentTag = "logs"
	TagStacktrace ContentTag = "stacktrace"
	TagConfig     ContentTag = "config"
	TagCode       ContentTag = "code"
	TagDiff       ContentTag = "diff"
	TagBuild      ContentTag = "build"
	TagGeneric    ContentTag = "generic"
)

// Hints are advisory, caller-supplied classification overrides. Only
// DeclaredType forces the pipeline table lookup; SourcePath and Language
// are carried along but no compressor reads them.
type Hints struct {
	DeclaredType ContentTag
	SourcePath   string
	Language     string
}

// Blob is the opaque UTF-8 text unit that flows through a pipeline.
// Blobs are immutable: every stage produces a new Blob rather than
// mutating this one.
type Blob struct {
	Text  string
	Hints Hints
}

func New(text string) Blob { return Blob{Text: text} }

func (b Blob) WithText(text string) Blob {
	b.Text = text
	return b
}

// CompressionStats is the before/after record a compressor or pipeline
// stage produces. Composable: chaining two stages combines by taking the
// first's Original* and the last's Compressed*, then recomputing
// ReductionPercent — never averaging it.
type CompressionStats struct {
	OriginalLines     int
	CompressedLines   int
	OriginalTokens    int
	CompressedTokens  int
	ReductionPercent  float64
	TechniqueLabel    string
}

// Compose combines this stats record (the first stage) with next (the
// last stage) per the monotone-composable rule in the data model.
func (s CompressionStats) Compose(next CompressionStats) CompressionStats {
	out := CompressionStats{
		OriginalLines:    s.OriginalLines,
		CompressedLines:  next.CompressedLines,
		OriginalTokens:   s.OriginalTokens,
		CompressedTokens: next.CompressedTokens,
		TechniqueLabel:   next.TechniqueLabel,
	}
	out.ReductionPercent = reductionPercent(out.OriginalTokens, out.CompressedTokens)
	return out
}

func reductionPercent(original, compressed int) float64 {
	if original <= 0 {
		return 0
	}
	pct := (1 - float64(compressed)/float64(original)) * 100
	if pct < 0 {
		return 0
	}
	return pct
}

// NewStats builds a CompressionStats from raw counts, computing
// ReductionPercent per the rule above.
func NewStats(originalLines, compressedLines, originalTokens, compressedTokens int, technique string) CompressionStats {
	return CompressionStats{
		OriginalLines:    originalLines,
		CompressedLines:  compressedLines,
		OriginalTokens:   originalTokens,
		CompressedTokens: compressedTokens,
		ReductionPercent: reductionPercent(originalTokens, compressedTokens),
		TechniqueLabel:   technique,
	}
}

// DiffStatus is the per-file change kind in a unified diff.
type DiffStatus string

const (
	DiffModified DiffStatus = "modified"
	DiffAdded    DiffStatus = "added"
	DiffDeleted  DiffStatus = "deleted"
	DiffRenamed  DiffStatus = "renamed"
)

// DiffHunk is one unified-diff hunk.
type DiffHunk struct {
	OldStart  int
	OldCount  int
	NewStart  int
	NewCount  int
	Content   string
	Additions int
	Deletions int
}

// DiffFile is one file entry in a unified diff.
type DiffFile struct {
	OldPath  string
	NewPath  string
	Status   DiffStatus
	IsBinary bool
	Hunks    []DiffHunk
}

// TotalAdditions sums Additions across all hunks.
func (f DiffFile) TotalAdditions() int {
	n := 0
	for _, h := range f.Hunks {
		n += h.Additions
	}
	return n
}

// TotalDeletions sums Deletions across all hunks.
func (f DiffFile) TotalDeletions() int {
	n := 0
	for _, h := range f.Hunks {
		n += h.Deletions
	}
	return n
}
