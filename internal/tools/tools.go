// Package tools implements the tool registry (§4.J): a capability-indexed
// mapping from tool name to an executor with a declared JSON-shaped input
// schema, wrapping the core components (compressors, pipeline, AST façade,
// path validator, session state) behind the tool-invocation surface from
// §6. Unknown tool names resolve to a structured UNKNOWN_TOOL result
// rather than a Go error, matching the Result-or-error duality the rest
// of the core follows.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ArthurDEV44/ctxopt/internal/ast"
	"github.com/ArthurDEV44/ctxopt/internal/blob"
	"github.com/ArthurDEV44/ctxopt/internal/builderrors"
	"github.com/ArthurDEV44/ctxopt/internal/cache"
	"github.com/ArthurDEV44/ctxopt/internal/compress"
	"github.com/ArthurDEV44/ctxopt/internal/detector"
	cerrors "github.com/ArthurDEV44/ctxopt/internal/errors"
	"github.com/ArthurDEV44/ctxopt/internal/pathsafe"
	"github.com/ArthurDEV44/ctxopt/internal/pipeline"
	"github.com/ArthurDEV44/ctxopt/internal/session"
	"github.com/ArthurDEV44/ctxopt/internal/tokenizer"
)

// astCacheTTL bounds how long a parsed FileStructure is trusted before
// parse_ast/search_ast/extract_ast re-parse, even though the content hash
// embedded in the cache key already makes a changed body a guaranteed
// miss — this just bounds how long an unchanged one is kept around.
const astCacheTTL = 5 * time.Minute

// Content is one element of a tool response's content array.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ErrorInfo is the structured error object a tool response carries in
// place of content when the call failed.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the tool-invocation surface's response sum type: exactly one
// of Content or Error is populated.
type Result struct {
	Content []Content  `json:"content,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

func textResult(v interface{}) Result {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(cerrors.New(cerrors.Internal, "tools.marshal_response", err))
	}
	return Result{Content: []Content{{Type: "text", Text: string(data)}}}
}

func errorResult(err error) Result {
	code := string(cerrors.CodeOf(err))
	return Result{Error: &ErrorInfo{Code: code, Message: err.Error()}}
}

func invalidArgs(op string, err error) Result {
	return errorResult(cerrors.New(cerrors.InvalidArgs, op, err))
}

// Execute is the function shape every registered tool implements: it
// consumes the raw JSON argument object and the invoking session, and
// always returns a Result (never a bare Go error) — input validation
// failures and core-operation failures alike surface through Result.Error.
type Execute func(ctx context.Context, args json.RawMessage, sess *session.State) Result

// Tool is one entry in the registry: a name, a human description, a
// declared JSON input schema, and its executor.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Execute     Execute
}

// Registry is the capability-indexed dispatch table from tool name to
// Tool, built once at startup from the core components it wraps.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// Deps bundles the core components the built-in tools are wired to.
type Deps struct {
	Compressors *compress.Registry
	Pipeline    *pipeline.Executor
	AST         *ast.Facade
	// Cache is optional. When set, the AST tools key a parsed
	// FileStructure by language+path+content hash so repeated calls
	// over the same unchanged source skip reparsing (§4.H used by
	// §4.F, the cache-consumer relationship the design notes call out).
	Cache *cache.Cache
}

// parseASTCached parses content, serving a cached FileStructure when
// deps.Cache holds one under a key derived from language, path, and the
// content hash — a content change always changes the key, so staleness
// is impossible; the cache only saves a reparse of identical input.
func parseASTCached(deps Deps, path, language string, content []byte) (ast.FileStructure, error) {
	if deps.Cache == nil {
		return deps.AST.Parse(path, language, content)
	}
	key := fmt.Sprintf("ast:%s:%s:%x", language, path, xxhash.Sum64(content))
	if v, ok := deps.Cache.Get(key); ok {
		return v.(ast.FileStructure), nil
	}
	fs, err := deps.AST.Parse(path, language, content)
	if err != nil {
		return ast.FileStructure{}, err
	}
	deps.Cache.Put(key, fs, nil, astCacheTTL)
	return fs, nil
}

// NewRegistry builds the fixed set of built-in tools over deps.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range builtinTools(deps) {
		r.register(t)
	}
	return r
}

func (r *Registry) register(t Tool) {
	if _, exists := r.byName[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.byName[t.Name] = t
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns every registered tool in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Invoke resolves name and runs its executor, returning a structured
// UNKNOWN_TOOL result (not a Go error) when name is not registered.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage, sess *session.State) Result {
	t, ok := r.Get(name)
	if !ok {
		return errorResult(cerrors.New(cerrors.UnknownTool, "tools.invoke", fmt.Errorf("unknown tool %q", name)))
	}
	return t.Execute(ctx, args, sess)
}

func builtinTools(deps Deps) []Tool {
	tools := []Tool{
		infoTool(nil), // placeholder name slot; replaced below once the slice exists
		compressTool(deps),
		detectContentTypeTool(),
		parseBuildOutputTool(),
		validatePathTool(),
		validatePatternTool(),
		sessionStatsTool(),
		sessionRecentTool(),
	}
	if deps.AST != nil {
		tools = append(tools, parseASTTool(deps), searchASTTool(deps), extractASTTool(deps))
	}
	// info needs the final tool list to describe, so build it last and
	// splice it back into index 0.
	tools[0] = infoTool(tools[1:])
	return tools
}

func schemaObject(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func stringProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func boolProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

func numberProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: desc}
}

func integerProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

// infoTool lists the other registered tools with their descriptions, the
// same "start here" role the teacher's own info tool plays.
func infoTool(others []Tool) Tool {
	return Tool{
		Name:        "info",
		Description: "List available tools and what each does.",
		InputSchema: schemaObject(nil),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			type toolInfo struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			out := make([]toolInfo, 0, len(others)+1)
			out = append(out, toolInfo{Name: "info", Description: "List available tools and what each does."})
			for _, t := range others {
				out = append(out, toolInfo{Name: t.Name, Description: t.Description})
			}
			return textResult(map[string]interface{}{"tools": out})
		},
	}
}

// compressArgs is the compress tool's input shape.
type compressArgs struct {
	Text         string  `json:"text"`
	DeclaredType string  `json:"declared_type,omitempty"`
	Detail       string  `json:"detail,omitempty"`
	TargetRatio  float64 `json:"target_ratio,omitempty"`
}

type stageInfo struct {
	Stage          string  `json:"stage"`
	TechniqueLabel string  `json:"technique_label"`
	OriginalTokens int     `json:"original_tokens"`
	CompressedTokens int   `json:"compressed_tokens"`
	ReductionPercent float64 `json:"reduction_percent"`
	Error          string  `json:"error,omitempty"`
}

type compressResponse struct {
	Text   string                `json:"text"`
	Stats  blob.CompressionStats `json:"stats"`
	Stages []stageInfo           `json:"stages"`
}

// compressTool runs text through the pipeline executor (§4.E) and reports
// the final blob plus every stage's before/after stats.
func compressTool(deps Deps) Tool {
	return Tool{
		Name:        "compress",
		Description: "Run text through the content-type pipeline, compressing it and returning before/after stats.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"text":          stringProp("Text to compress"),
			"declared_type": stringProp("Force a content classification instead of auto-detecting (logs, stacktrace, config, code, diff, build, generic)"),
			"detail":        stringProp("Compression verbosity: minimal, normal, detailed. Accepted but not applied: every pipeline stage runs with default options"),
			"target_ratio":  numberProp("Target fraction of lines to keep for semantic_compress. Accepted but not applied: every pipeline stage runs with default options"),
		}, "text"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a compressArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.compress", err)
			}
			b := blob.New(a.Text)
			if a.DeclaredType != "" {
				b.Hints.DeclaredType = blob.ContentTag(a.DeclaredType)
			}

			origTokens := int(tokenizer.Count(a.Text))
			out, stats, err := deps.Pipeline.Run(ctx, b)
			if err != nil {
				// The only error Run returns is ctx's own cancellation/deadline
				// error, surfaced at the next stage boundary (§5).
				return errorResult(cerrors.New(cerrors.Cancelled, "tools.compress", err))
			}

			resp := compressResponse{Text: out.Text}
			for _, s := range stats {
				si := stageInfo{Stage: s.Stage}
				if s.Err != nil {
					si.TechniqueLabel = "error"
					si.Error = s.Err.Error()
				} else {
					si.TechniqueLabel = s.Stats.TechniqueLabel
					si.OriginalTokens = s.Stats.OriginalTokens
					si.CompressedTokens = s.Stats.CompressedTokens
					si.ReductionPercent = s.Stats.ReductionPercent
				}
				resp.Stages = append(resp.Stages, si)
			}
			compTokens := int(tokenizer.Count(out.Text))
			resp.Stats = blob.NewStats(countLines(a.Text), countLines(out.Text), origTokens, compTokens, lastTechnique(resp.Stages))

			if sess != nil {
				saved := origTokens - compTokens
				if saved < 0 {
					saved = 0
				}
				sess.Record("compress", origTokens, compTokens, saved, false)
			}
			return textResult(resp)
		},
	}
}

func lastTechnique(stages []stageInfo) string {
	if len(stages) == 0 {
		return "identity"
	}
	return stages[len(stages)-1].TechniqueLabel
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func detectContentTypeTool() Tool {
	return Tool{
		Name:        "detect_content_type",
		Description: "Classify text into one of the fixed content-type tags (logs, stacktrace, config, code, diff, build, generic).",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"text": stringProp("Text to classify"),
		}, "text"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.detect_content_type", err)
			}
			tag := detector.Detect(a.Text)
			return textResult(map[string]string{"content_type": string(tag)})
		},
	}
}

func parseBuildOutputTool() Tool {
	return Tool{
		Name:        "parse_build_output",
		Description: "Parse compiler/build-tool output into structured errors and group them by normalized signature.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"text": stringProp("Raw build-tool output"),
		}, "text"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.parse_build_output", err)
			}
			if !builderrors.CanParse(a.Text) {
				return textResult(map[string]interface{}{"errors": []builderrors.ParsedError{}, "groups": []builderrors.ErrorGroup{}})
			}
			parsed := builderrors.Parse(a.Text)
			groups := builderrors.Group(parsed)
			return textResult(map[string]interface{}{"errors": parsed, "groups": groups})
		},
	}
}

func validatePathTool() Tool {
	return Tool{
		Name:        "validate_path",
		Description: "Validate a user-supplied path against a sandbox working directory, rejecting traversal and block-listed files.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"path":        stringProp("User-supplied path"),
			"working_dir": stringProp("Sandbox root to resolve and contain the path within"),
		}, "path", "working_dir"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Path       string `json:"path"`
				WorkingDir string `json:"working_dir"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.validate_path", err)
			}
			v, err := pathsafe.ValidatePath(a.Path, a.WorkingDir)
			if err != nil {
				return errorResult(err)
			}
			return textResult(map[string]string{"path": v.String()})
		},
	}
}

func validatePatternTool() Tool {
	return Tool{
		Name:        "validate_pattern",
		Description: "Validate a glob pattern, rejecting traversal segments, absolute patterns, and block-listed targets.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"pattern": stringProp("Glob pattern, relative"),
		}, "pattern"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Pattern string `json:"pattern"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.validate_pattern", err)
			}
			p, err := pathsafe.ValidatePattern(a.Pattern)
			if err != nil {
				return errorResult(err)
			}
			return textResult(map[string]string{"pattern": p.String()})
		},
	}
}

func parseASTTool(deps Deps) Tool {
	return Tool{
		Name:        "parse_ast",
		Description: "Parse source text into a uniform FileStructure of functions, methods, classes, and imports.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"path":     stringProp("File path, used only for labeling the result"),
			"language": stringProp("javascript, typescript, python, or php"),
			"content":  stringProp("Source text"),
		}, "language", "content"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Path     string `json:"path"`
				Language string `json:"language"`
				Content  string `json:"content"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.parse_ast", err)
			}
			fs, err := parseASTCached(deps, a.Path, a.Language, []byte(a.Content))
			if err != nil {
				return errorResult(err)
			}
			return textResult(fs)
		},
	}
}

func searchASTTool(deps Deps) Tool {
	return Tool{
		Name:        "search_ast",
		Description: "Search a parsed file's elements (and class members) by case-insensitive substring match on name, signature, documentation, or decorators.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"path":     stringProp("File path, used only for labeling the result"),
			"language": stringProp("javascript, typescript, python, or php"),
			"content":  stringProp("Source text"),
			"query":    stringProp("Substring to search for"),
		}, "language", "content", "query"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Path     string `json:"path"`
				Language string `json:"language"`
				Content  string `json:"content"`
				Query    string `json:"query"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.search_ast", err)
			}
			fs, err := parseASTCached(deps, a.Path, a.Language, []byte(a.Content))
			if err != nil {
				return errorResult(err)
			}
			return textResult(map[string]interface{}{"elements": ast.Search(fs, a.Query)})
		},
	}
}

func extractASTTool(deps Deps) Tool {
	return Tool{
		Name:        "extract_ast",
		Description: "Extract one named element's source text, optionally extended through its doc comment/decorators and intersected with the file's imports.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"path":             stringProp("File path, used only for labeling the result"),
			"language":         stringProp("javascript, typescript, python, or php"),
			"content":          stringProp("Source text"),
			"kind":             stringProp("Element kind to match, or empty to match any kind"),
			"name":             stringProp("Element name to match"),
			"include_comments": boolProp("Extend the extracted range through adjacent doc comments (decorators are always included)"),
			"include_imports":  boolProp("Report which of the file's imports the extracted text references"),
		}, "language", "content", "name"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			var a struct {
				Path            string `json:"path"`
				Language        string `json:"language"`
				Content         string `json:"content"`
				Kind            string `json:"kind"`
				Name            string `json:"name"`
				IncludeComments bool   `json:"include_comments"`
				IncludeImports  bool   `json:"include_imports"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.extract_ast", err)
			}
			content := []byte(a.Content)
			fs, err := parseASTCached(deps, a.Path, a.Language, content)
			if err != nil {
				return errorResult(err)
			}
			extracted, ok := ast.ExtractContent(fs, content, ast.ExtractTarget{Kind: a.Kind, Name: a.Name}, ast.ExtractOptions{
				IncludeComments: a.IncludeComments,
				IncludeImports:  a.IncludeImports,
			})
			if !ok {
				return textResult(map[string]interface{}{"found": false})
			}
			return textResult(map[string]interface{}{"found": true, "extracted": extracted})
		},
	}
}

func sessionStatsTool() Tool {
	return Tool{
		Name:        "session_stats",
		Description: "Report the invoking session's running token totals and command counts.",
		InputSchema: schemaObject(nil),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			if sess == nil {
				return errorResult(cerrors.New(cerrors.Internal, "tools.session_stats", fmt.Errorf("no session bound to this call")))
			}
			return textResult(sess.Stats())
		},
	}
}

func sessionRecentTool() Tool {
	return Tool{
		Name:        "session_recent",
		Description: "Return the invoking session's most recent command-log entries, newest first.",
		InputSchema: schemaObject(map[string]*jsonschema.Schema{
			"n": integerProp("Number of entries to return"),
		}, "n"),
		Execute: func(ctx context.Context, args json.RawMessage, sess *session.State) Result {
			if sess == nil {
				return errorResult(cerrors.New(cerrors.Internal, "tools.session_recent", fmt.Errorf("no session bound to this call")))
			}
			var a struct {
				N int `json:"n"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return invalidArgs("tools.session_recent", err)
			}
			return textResult(map[string]interface{}{"commands": sess.Recent(a.N)})
		},
	}
}
