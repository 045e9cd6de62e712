package compress

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
)

// Unified-diff text is pre-rendered "diff --git" output, not a pair of
// text versions or a patch format a diffing library operates on, so
// parsing it into structured files/hunks is hand-rolled here.
var (
	diffGitHeaderRe  = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	diffOldPathRe    = regexp.MustCompile(`^--- (?:a/(.+)|/dev/null)$`)
	diffNewPathRe    = regexp.MustCompile(`^\+\+\+ (?:b/(.+)|/dev/null)$`)
	diffHunkHdrRe    = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
	diffRenameRe     = regexp.MustCompile(`^rename (?:from|to) (.+)$`)
	diffBinaryRe     = regexp.MustCompile(`^Binary files .* differ$`)
	diffNewFileRe    = regexp.MustCompile(`^new file mode`)
	diffDeleteFileRe = regexp.MustCompile(`^deleted file mode`)
)

// ParseUnifiedDiff parses a "diff --git" style unified diff into its file
// and hunk structure. Malformed or unrecognized lines outside a hunk body
// are ignored rather than rejected, matching how real diffs carry index
// lines and mode-change metadata this parser doesn't need.
func ParseUnifiedDiff(text string) []blob.DiffFile {
	lines := strings.Split(text, "\n")
	var files []blob.DiffFile
	var cur *blob.DiffFile
	var curHunk *blob.DiffHunk
	var hunkLines []string

	flushHunk := func() {
		if cur == nil || curHunk == nil {
			return
		}
		curHunk.Content = strings.Join(hunkLines, "\n")
		cur.Hunks = append(cur.Hunks, *curHunk)
		curHunk = nil
		hunkLines = nil
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	for _, line := range lines {
		if m := diffGitHeaderRe.FindStringSubmatch(line); m != nil {
			flushFile()
			cur = &blob.DiffFile{OldPath: m[1], NewPath: m[2], Status: blob.DiffModified}
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case diffNewFileRe.MatchString(line):
			cur.Status = blob.DiffAdded
		case diffDeleteFileRe.MatchString(line):
			cur.Status = blob.DiffDeleted
		case diffRenameRe.MatchString(line):
			cur.Status = blob.DiffRenamed
		case diffBinaryRe.MatchString(line):
			cur.IsBinary = true
		case diffOldPathRe.MatchString(line) || diffNewPathRe.MatchString(line):
			// file-identity lines already captured from the git header
		case diffHunkHdrRe.MatchString(line):
			flushHunk()
			m := diffHunkHdrRe.FindStringSubmatch(line)
			curHunk = &blob.DiffHunk{
				OldStart: atoiOr(m[1], 0),
				OldCount: atoiOr(m[2], 1),
				NewStart: atoiOr(m[3], 0),
				NewCount: atoiOr(m[4], 1),
			}
			hunkLines = []string{line}
		case curHunk != nil:
			hunkLines = append(hunkLines, line)
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				curHunk.Additions++
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				curHunk.Deletions++
			}
		}
	}
	flushFile()
	return files
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
