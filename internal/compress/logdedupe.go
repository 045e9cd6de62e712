package compress

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
)

// LogDedupe groups repeated log lines by a normalized key, emitting one
// sample per group with a count, ordered errors-first then warnings then
// the rest, ties broken by first-occurrence line index.
type LogDedupe struct{}

func (LogDedupe) Name() string { return "summarize_logs" }

func (LogDedupe) SupportedContentTypes() []blob.ContentTag {
	return []blob.ContentTag{blob.TagLogs}
}

func (LogDedupe) CanCompress(b blob.Blob) bool { return strings.TrimSpace(b.Text) != "" }

var (
	logDigitsRe    = regexp.MustCompile(`\d+`)
	logQuotedRe    = regexp.MustCompile(`'[^']*'|"[^"]*"`)
	logISOTimeRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`)
	logErrorWordRe = regexp.MustCompile(`(?i)\b(error|fatal|exception)\b`)
	logWarnWordRe  = regexp.MustCompile(`(?i)\b(warn|warning)\b`)
)

func normalizeLogLine(line string) string {
	n := logISOTimeRe.ReplaceAllString(line, "<TS>")
	n = logQuotedRe.ReplaceAllString(n, "<Q>")
	n = logDigitsRe.ReplaceAllString(n, "N")
	return n
}

type logGroup struct {
	key        string
	sample     string
	count      int
	firstIndex int
	hasError   bool
	hasWarning bool
}

func (LogDedupe) Compress(b blob.Blob, opts Options) (Result, error) {
	lines := strings.Split(b.Text, "\n")
	groups := make(map[string]*logGroup)
	var order []string

	for i, line := range lines {
		if line == "" && i == len(lines)-1 {
			continue // trailing newline artifact
		}
		key := normalizeLogLine(line)
		g, ok := groups[key]
		if !ok {
			g = &logGroup{key: key, sample: line, firstIndex: i}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		if logErrorWordRe.MatchString(line) {
			g.hasError = true
		}
		if logWarnWordRe.MatchString(line) {
			g.hasWarning = true
		}
	}

	sorted := make([]*logGroup, 0, len(order))
	for _, k := range order {
		sorted = append(sorted, groups[k])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i]), rank(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].firstIndex < sorted[j].firstIndex
	})

	var out []string
	for _, g := range sorted {
		switch {
		case g.count == 1 && opts.detail() == DetailMinimal:
			continue // singletons collapsed in minimal detail
		case g.count == 1:
			out = append(out, g.sample)
		default:
			out = append(out, fmt.Sprintf("%s (x%d)", g.sample, g.count))
		}
	}

	return finalize(b.Text, strings.Join(out, "\n"), "log_dedupe"), nil
}

func rank(g *logGroup) int {
	switch {
	case g.hasError:
		return 0
	case g.hasWarning:
		return 1
	default:
		return 2
	}
}
