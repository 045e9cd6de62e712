// Package pathsafe brands user-supplied paths and globs as safe under a
// sandbox root (§4.G). ValidatedPath and SafePattern can only be
// constructed here; downstream I/O helpers accept nothing else.
package pathsafe

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	cerrors "github.com/ArthurDEV44/ctxopt/internal/errors"
)

// ValidatedPath is a branded, absolute, canonicalized path proven to sit
// inside a sandbox root. The zero value is intentionally useless: it can
// only be produced by ValidatePath.
type ValidatedPath struct {
	path string
}

func (v ValidatedPath) String() string { return v.path }

// SafePattern is a branded glob pattern proven free of traversal and
// block-listed tokens.
type SafePattern struct {
	pattern string
}

func (p SafePattern) String() string { return p.pattern }

// blockedBasenames, blockedSuffixes and blockedPrefixes together form the
// fixed block-list applied to both paths and patterns.
var blockedBasenames = map[string]struct{}{
	".env":        {},
	".htpasswd":   {},
	".netrc":      {},
	".npmrc":      {},
	".pypirc":     {},
}

var blockedSuffixes = []string{
	".pem", ".key", ".keystore", ".jks", ".p12",
}

var blockedPrefixes = []string{
	"id_rsa", "id_dsa", "id_ecdsa", "id_ed25519",
}

func isBlocked(basename string) bool {
	lower := strings.ToLower(basename)
	if _, ok := blockedBasenames[lower]; ok {
		return true
	}
	for _, suf := range blockedSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	for _, pre := range blockedPrefixes {
		if strings.HasPrefix(lower, pre) {
			return true
		}
	}
	return false
}

// ValidatePath normalizes userPath, resolves it against workingDir when
// relative, verifies it stays inside workingDir, and — if the path
// exists — re-resolves symlinks and reapplies containment. On success it
// returns an absolute, canonicalized ValidatedPath.
func ValidatePath(userPath, workingDir string) (ValidatedPath, error) {
	const op = "pathsafe.validate_path"

	if strings.Contains(userPath, "\x00") {
		return ValidatedPath{}, cerrors.New(cerrors.PathValidation, op, errStr("path contains NUL byte"))
	}

	absWorkingDir, err := filepath.Abs(filepath.Clean(workingDir))
	if err != nil {
		return ValidatedPath{}, cerrors.New(cerrors.PathValidation, op, err)
	}

	candidate := filepath.Clean(userPath)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absWorkingDir, candidate)
	}
	candidate = filepath.Clean(candidate)

	if err := checkContainment(candidate, absWorkingDir); err != nil {
		return ValidatedPath{}, cerrors.New(cerrors.PathValidation, op, err)
	}

	if isBlocked(filepath.Base(candidate)) || isBlocked(candidate) {
		return ValidatedPath{}, cerrors.New(cerrors.PathValidation, op, errStr("path matches the blocked-file list"))
	}

	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		resolved = filepath.Clean(resolved)
		if err := checkContainment(resolved, absWorkingDir); err != nil {
			return ValidatedPath{}, cerrors.New(cerrors.PathValidation, op, err)
		}
		if isBlocked(filepath.Base(resolved)) {
			return ValidatedPath{}, cerrors.New(cerrors.PathValidation, op, errStr("resolved path matches the blocked-file list"))
		}
		candidate = resolved
	}
	// A non-existent path (EvalSymlinks error) is not itself fatal — the
	// caller may be validating a path about to be created.

	return ValidatedPath{path: candidate}, nil
}

func checkContainment(candidate, workingDir string) error {
	rel, err := filepath.Rel(workingDir, candidate)
	if err != nil {
		return errStr("path could not be made relative to the sandbox root")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return errStr("path escapes the sandbox root")
	}
	return nil
}

// ValidatePattern applies the analogous containment and block-list
// checks to a glob pattern: no ".." segment, not absolute, and not
// matching the block-list itself. Patterns are not resolved against a
// working directory since they describe a set of paths, not one path.
func ValidatePattern(pattern string) (SafePattern, error) {
	const op = "pathsafe.validate_pattern"

	if pattern == "" {
		return SafePattern{}, cerrors.New(cerrors.PatternInvalid, op, errStr("empty pattern"))
	}
	if filepath.IsAbs(pattern) {
		return SafePattern{}, cerrors.New(cerrors.PatternInvalid, op, errStr("pattern must be relative"))
	}
	for _, seg := range strings.Split(filepath.ToSlash(pattern), "/") {
		if seg == ".." {
			return SafePattern{}, cerrors.New(cerrors.PatternInvalid, op, errStr("pattern contains a traversal segment"))
		}
	}
	if isBlocked(filepath.Base(pattern)) {
		return SafePattern{}, cerrors.New(cerrors.PatternInvalid, op, errStr("pattern matches the blocked-file list"))
	}
	if !doublestar.ValidatePattern(pattern) {
		return SafePattern{}, cerrors.New(cerrors.PatternInvalid, op, errStr("not a valid glob pattern"))
	}
	return SafePattern{pattern: pattern}, nil
}

// Match reports whether path matches this SafePattern, using doublestar
// so "**" behaves the way the rest of the pack's glob-matching code
// (the teacher's include/exclude resolver) expects.
func (p SafePattern) Match(path string) bool {
	ok, err := doublestar.Match(p.pattern, filepath.ToSlash(path))
	return err == nil && ok
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func errStr(s string) error { return simpleErr(s) }
