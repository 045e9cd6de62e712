// Package builderrors extracts per-tool structured errors from compiler
// and build-tool output (§4.C). Parsers are registered polymorphically
// over a shared capability shape so new tool families (Rust, Go, a
// generic fallback) slot in without touching the dispatch logic.
package builderrors

import (
	"regexp"
	"strings"
)

// Severity is the closed set a ParsedError can carry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParsedError is one structured diagnostic extracted from build output.
type ParsedError struct {
	Signature         string
	Code              string
	Message           string
	File              string
	Line              int
	Column            int
	Severity          Severity
	Raw               string
	OptionalContext   string
}

// ErrorGroup is the equivalence class of ParsedError values sharing a
// Signature, produced by Group.
type ErrorGroup struct {
	Signature      string
	Code           string
	Message        string
	Count          int
	FirstOccurrence ParsedError
	AffectedFiles  []string // deduplicated, insertion-ordered
	Samples        []string // up to three raw samples
	Suggestion     string
}

var (
	quotedRe = regexp.MustCompile(`'[^']*'|"[^"]*"`)
	digitsRe = regexp.MustCompile(`\d+`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a diagnostic message: quoted identifiers
// collapse to 'X', integer literals to N, whitespace runs to a single
// space.
func Normalize(message string) string {
	m := quotedRe.ReplaceAllString(message, "'X'")
	m = digitsRe.ReplaceAllString(m, "N")
	m = spacesRe.ReplaceAllString(m, " ")
	return strings.TrimSpace(m)
}

// Signature builds the canonical key {code}:{normalized message}.
func Signature(code, message string) string {
	return code + ":" + Normalize(message)
}

// Parser is the capability every tool-family parser implements.
type Parser interface {
	Name() string
	SupportedTools() []string
	CanParse(output string) bool
	Parse(output string) []ParsedError
}

// registry is the fixed, ordered list of known parsers. TypeScript is
// mandatory and tried first since its signatures are the most specific.
var registry = []Parser{
	typescriptParser{},
	rustParser{},
	goParser{},
	genericParser{},
}

// Register appends an additional parser, e.g. for a tool family the
// external collaborator wants to add without modifying this package.
func Register(p Parser) {
	registry = append(registry, p)
}

// CanParse returns true iff any registered parser recognizes output, or
// the output contains a "Found N errors" summary line (the Non-goal here
// is precision on that summary — it exists purely as a last-resort
// recognition signal).
func CanParse(output string) bool {
	for _, p := range registry {
		if p.CanParse(output) {
			return true
		}
	}
	return foundErrorsRe.MatchString(output)
}

var foundErrorsRe = regexp.MustCompile(`Found \d+ errors?`)

// Parse runs every registered parser over output and concatenates their
// findings in registry order. Each line is attempted against every tool
// family; within a family the first matching regex wins.
func Parse(output string) []ParsedError {
	var out []ParsedError
	for _, p := range registry {
		out = append(out, p.Parse(output)...)
	}
	return out
}
