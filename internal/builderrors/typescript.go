package builderrors

import (
	"regexp"
	"strconv"
)

// typescriptParser implements the two mandatory TS diagnostic shapes:
//
//	src/a.ts(12,5): error TS2304: Cannot find name 'foo'.
//	src/a.ts:12:5 - error TS2304: Cannot find name 'foo'.
type typescriptParser struct{}

func (typescriptParser) Name() string            { return "typescript" }
func (typescriptParser) SupportedTools() []string { return []string{"tsc"} }

var (
	tsParenRe = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\):\s*(error|warning)\s+(TS\d+):\s*(.+)$`)
	tsDashRe  = regexp.MustCompile(`^(.+?):(\d+):(\d+)\s*-\s*(error|warning)\s+(TS\d+):\s*(.+)$`)
)

func (typescriptParser) CanParse(output string) bool {
	for _, line := range splitLines(output) {
		if tsParenRe.MatchString(line) || tsDashRe.MatchString(line) {
			return true
		}
	}
	return false
}

func (typescriptParser) Parse(output string) []ParsedError {
	var out []ParsedError
	for _, line := range splitLines(output) {
		if m := tsParenRe.FindStringSubmatch(line); m != nil {
			out = append(out, buildTSError(m, line))
			continue
		}
		if m := tsDashRe.FindStringSubmatch(line); m != nil {
			out = append(out, buildTSError(m, line))
		}
	}
	return out
}

func buildTSError(m []string, raw string) ParsedError {
	file, lineNo, col, sev, code, msg := m[1], m[2], m[3], m[4], m[5], m[6]
	l, _ := strconv.Atoi(lineNo)
	c, _ := strconv.Atoi(col)
	severity := SeverityError
	if sev == "warning" {
		severity = SeverityWarning
	}
	return ParsedError{
		Signature: Signature(code, msg),
		Code:      code,
		Message:   msg,
		File:      file,
		Line:      l,
		Column:    c,
		Severity:  severity,
		Raw:       raw,
		OptionalContext: tsSuggestion(code, msg),
	}
}

// tsSuggestion produces a per-code suggestion for the known set; unknown
// codes emit no suggestion.
func tsSuggestion(code, message string) string {
	switch code {
	case "TS2304":
		return "Name " + firstQuoted(message) + " is not declared — check imports or spelling."
	case "TS2339":
		return "Property " + firstQuoted(message) + " does not exist on this type — check the type definition."
	case "TS2345":
		return "Argument type mismatch — check the parameter's declared type."
	case "TS2322":
		return "Type is not assignable — check the target type's shape."
	case "TS7006":
		return "Parameter implicitly has an 'any' type — add an explicit annotation."
	case "TS2307":
		return "Cannot find module " + firstQuoted(message) + " — check the import path or install its types."
	case "TS1005":
		return "Syntax error — a token is missing; check for a stray bracket or semicolon."
	case "TS2551":
		return "Property " + firstQuoted(message) + " does not exist — did you mean a similarly named member?"
	default:
		return ""
	}
}

var quotedSingleRe = regexp.MustCompile(`'[^']*'`)

func firstQuoted(s string) string {
	m := quotedSingleRe.FindString(s)
	if m == "" {
		return "the identifier"
	}
	return m
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, trimCR(s[start:i]))
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, trimCR(s[start:]))
	}
	return lines
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
