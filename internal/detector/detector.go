// Package detector classifies an opaque text blob into one of the
// ContentTag values, in the fixed decision order mandated by the spec:
// diff, logs, build, stacktrace, config, code, generic. Tags are not
// mutually exclusive syntactically, so order matters — timestamped build
// noise, for instance, classifies as logs rather than build.
package detector

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ArthurDEV44/ctxopt/internal/blob"
)

var (
	diffGitHeader  = regexp.MustCompile(`(?m)^diff --git `)
	diffHunkHeader = regexp.MustCompile(`(?m)^@@ -\d+(,\d+)? \+\d+(,\d+)? @@`)
	diffOldMarker  = regexp.MustCompile(`(?m)^--- a/`)
	diffNewMarker  = regexp.MustCompile(`(?m)^\+\+\+ b/`)

	logISOTimestamp = regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2}([T ])\d{2}:\d{2}:\d{2}`)
	logBracketLevel = regexp.MustCompile(`(?m)^\s*\[(DEBUG|INFO|WARN|WARNING|ERROR|FATAL|TRACE)\]`)
	logStructured   = regexp.MustCompile(`time="[^"]*"\s+level=`)
	logJSONLine     = regexp.MustCompile(`(?m)^\s*\{"(level|time|timestamp|msg)":`)

	buildPatterns = []*regexp.Regexp{
		regexp.MustCompile(`error TS\d+:`),
		regexp.MustCompile(`error\[E\d+\]:`),
		regexp.MustCompile(`SyntaxError:`),
		regexp.MustCompile(`Cannot find module`),
		regexp.MustCompile(`npm ERR!`),
		regexp.MustCompile(`\(\d+,\d+\): error`),
		regexp.MustCompile(`:\d+:\d+: error:`),
	}

	stackErrorPrefix = regexp.MustCompile(`(?m)^(\w+(\.\w+)*)?(Error|Exception):|^panic:`)
	stackFrameLine   = regexp.MustCompile(`(?m)^\s*at `)
	pyTraceback      = regexp.MustCompile(`Traceback \(most recent call last\):`)
	rustPanic        = regexp.MustCompile(`thread '[^']*' panicked at`)

	configKV   = regexp.MustCompile(`^\s*[\w.-]+\s*:\s*\S`)
	configItem = regexp.MustCompile(`^\s*-\s+\S`)

	codeOpeners = []*regexp.Regexp{
		regexp.MustCompile(`\b(import|export|const|function|class)\b`),
		regexp.MustCompile(`\b(def|class|import|from)\b`),
		regexp.MustCompile(`\b(fn|struct|impl|use)\b`),
		regexp.MustCompile(`\b(func|package|type)\b`),
	}
)

// Detect classifies text into a ContentTag, following the fixed decision
// order. Detection is independent of trailing whitespace and is
// deterministic: calling Detect twice on the same input always returns
// the same tag.
func Detect(text string) blob.ContentTag {
	t := strings.TrimRight(text, " \t\r\n")
	if t == "" {
		return blob.TagGeneric
	}

	if isDiff(t) {
		return blob.TagDiff
	}
	if isLogs(t) {
		return blob.TagLogs
	}
	if isBuild(t) {
		return blob.TagBuild
	}
	if isStacktrace(t) {
		return blob.TagStacktrace
	}
	if isConfig(t) {
		return blob.TagConfig
	}
	if isCode(t) {
		return blob.TagCode
	}
	return blob.TagGeneric
}

func isDiff(t string) bool {
	return diffGitHeader.MatchString(t) || diffHunkHeader.MatchString(t) ||
		(diffOldMarker.MatchString(t) && diffNewMarker.MatchString(t))
}

func isLogs(t string) bool {
	if logISOTimestamp.MatchString(t) || logBracketLevel.MatchString(t) || logStructured.MatchString(t) {
		return true
	}
	for _, line := range firstLines(t, 5) {
		if logJSONLine.MatchString(line) {
			return true
		}
	}
	return false
}

func isBuild(t string) bool {
	for _, p := range buildPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	return strings.Contains(t, "Found ") && regexp.MustCompile(`Found \d+ errors?`).MatchString(t)
}

func isStacktrace(t string) bool {
	if pyTraceback.MatchString(t) || rustPanic.MatchString(t) {
		return true
	}
	return stackErrorPrefix.MatchString(t) && stackFrameLine.MatchString(t)
}

func isConfig(t string) bool {
	trimmed := strings.TrimSpace(t)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var v interface{}
		if json.Unmarshal([]byte(trimmed), &v) == nil {
			return true
		}
	}
	lines := firstLines(t, 10)
	matches := 0
	for _, line := range lines {
		if configKV.MatchString(line) || configItem.MatchString(line) {
			matches++
		}
	}
	return matches >= 3
}

func isCode(t string) bool {
	for _, p := range codeOpeners {
		if p.MatchString(t) {
			return true
		}
	}
	return false
}

func firstLines(t string, n int) []string {
	lines := strings.Split(t, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
