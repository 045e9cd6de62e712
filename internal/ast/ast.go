// Package ast implements the AST façade (§4.F): a uniform parse/search/
// extract surface over tree-sitter grammars for the languages this
// deployment carries (JavaScript/TypeScript, Python, PHP), grounded on
// the same setup-parser-and-query pattern the teacher uses for its much
// larger language matrix.
package ast

import (
	"regexp"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	ctxopterrors "github.com/ArthurDEV44/ctxopt/internal/errors"
)

// CodeElement is one named construct extracted from a source file:
// a function, method, class, interface, or similar top-level form.
type CodeElement struct {
	Kind          string
	Name          string
	Signature     string
	Documentation string
	Decorators    []string
	StartLine     int
	EndLine       int
	Children      []CodeElement
}

// FileStructure is the parsed façade over one source file.
type FileStructure struct {
	Path     string
	Language string
	Imports  []string
	Elements []CodeElement
}

type languageSetup struct {
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// Facade holds one compiled parser+query pair per supported language.
type Facade struct {
	setups map[string]languageSetup
}

// supportedQueries mirrors the teacher's per-language query constants,
// trimmed to the symbol kinds this façade surfaces: functions, methods,
// classes, interfaces/types, and imports.
var supportedQueries = map[string]string{
	"javascript": `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (variable_declarator
            name: (identifier) @function.name
            value: [(arrow_function) (function_expression) (generator_function)]) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (identifier) @class.name) @class
        (import_statement source: (string) @import.source) @import
    `,
	"typescript": `
        (function_declaration name: (identifier) @function.name) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (type_identifier) @class.name) @class
        (interface_declaration name: (type_identifier) @interface.name) @interface
        (type_alias_declaration name: (type_identifier) @type.name) @type
        (import_statement source: (string) @import.source) @import
    `,
	"python": `
        (class_definition
            body: (block
                (function_definition name: (identifier) @method.name) @method))
        (function_definition name: (identifier) @function.name) @function
        (class_definition name: (identifier) @class.name) @class
        (import_statement) @import
        (import_from_statement) @import
    `,
	"php": `
        (class_declaration name: (name) @class.name) @class
        (interface_declaration name: (name) @interface.name) @interface
        (trait_declaration name: (name) @trait.name) @trait
        (function_definition name: (name) @function.name) @function
        (method_declaration name: (name) @method.name) @method
        (namespace_use_declaration) @import
    `,
}

// New builds a Facade with every supported language's parser and query
// compiled ahead of time.
func New() *Facade {
	f := &Facade{setups: make(map[string]languageSetup)}
	f.register("javascript", tree_sitter.NewLanguage(tree_sitter_javascript.Language()))
	f.register("typescript", tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()))
	f.register("python", tree_sitter.NewLanguage(tree_sitter_python.Language()))
	f.register("php", tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()))
	return f
}

func (f *Facade) register(lang string, language *tree_sitter.Language) {
	query, err := tree_sitter.NewQuery(language, supportedQueries[lang])
	if err != nil || query == nil {
		// Tree-sitter's Go binding can return a typed-nil error on success;
		// a nil query is the only reliable "this really failed" signal.
		return
	}
	f.setups[lang] = languageSetup{language: language, query: query}
}

// SupportsLanguage reports whether lang has a compiled parser.
func (f *Facade) SupportsLanguage(lang string) bool {
	_, ok := f.setups[lang]
	return ok
}

// Parse builds a FileStructure for the given source text.
func (f *Facade) Parse(path, language string, content []byte) (FileStructure, error) {
	setup, ok := f.setups[language]
	if !ok {
		return FileStructure{}, ctxopterrors.New(ctxopterrors.ParseFailed, "ast.Parse", errUnsupportedLanguage(language))
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(setup.language); err != nil {
		return FileStructure{}, ctxopterrors.New(ctxopterrors.ParseFailed, "ast.Parse", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return FileStructure{}, ctxopterrors.New(ctxopterrors.ParseFailed, "ast.Parse", errParseProducedNoTree)
	}
	defer tree.Close()

	fs := FileStructure{Path: path, Language: language}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(setup.query, tree.RootNode(), content)
	captureNames := setup.query.CaptureNames()

	type classScope struct {
		index   int
		endByte uint
	}
	var classStack []classScope
	var topLevel []CodeElement

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			node := c.Node
			captureName := captureNames[c.Index]
			if strings.HasSuffix(captureName, ".name") {
				continue
			}

			for len(classStack) > 0 && node.StartByte() >= classStack[len(classStack)-1].endByte {
				classStack = classStack[:len(classStack)-1]
			}

			switch captureName {
			case "import":
				fs.Imports = append(fs.Imports, string(content[node.StartByte():node.EndByte()]))
				continue
			case "function", "method", "class", "interface", "type", "trait":
				el := buildElement(&node, content, captureName)
				if captureName == "class" || captureName == "interface" || captureName == "trait" {
					topLevel = append(topLevel, el)
					classStack = append(classStack, classScope{index: len(topLevel) - 1, endByte: node.EndByte()})
					continue
				}
				if len(classStack) > 0 && captureName == "method" {
					parent := &topLevel[classStack[len(classStack)-1].index]
					parent.Children = append(parent.Children, el)
					continue
				}
				topLevel = append(topLevel, el)
			}
		}
	}

	fs.Elements = topLevel
	sort.SliceStable(fs.Elements, func(i, j int) bool { return fs.Elements[i].StartLine < fs.Elements[j].StartLine })
	return fs, nil
}

func buildElement(node *tree_sitter.Node, content []byte, kind string) CodeElement {
	nameNode := node.ChildByFieldName("name")
	var name string
	if nameNode != nil {
		name = string(content[nameNode.StartByte():nameNode.EndByte()])
	}

	start := node.StartPosition()
	end := node.EndPosition()

	return CodeElement{
		Kind:          kind,
		Name:          name,
		Signature:     firstLine(content, node),
		Documentation: leadingDocComment(node, content),
		Decorators:    leadingDecorators(node, content),
		StartLine:     int(start.Row) + 1,
		EndLine:       int(end.Row) + 1,
	}
}

func firstLine(content []byte, node *tree_sitter.Node) string {
	text := string(content[node.StartByte():node.EndByte()])
	if idx := strings.IndexAny(text, "\n{"); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

// leadingDocComment walks preceding sibling comment nodes immediately
// above node (no blank line in between) and joins them as Documentation.
func leadingDocComment(node *tree_sitter.Node, content []byte) string {
	var lines []string
	prev := node.PrevSibling()
	expectedRow := node.StartPosition().Row
	for prev != nil && isCommentKind(prev.Kind()) {
		if prev.EndPosition().Row+1 != expectedRow {
			break
		}
		lines = append([]string{strings.TrimSpace(string(content[prev.StartByte():prev.EndByte()]))}, lines...)
		expectedRow = prev.StartPosition().Row
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, "\n")
}

// leadingDecorators walks preceding sibling decorator nodes (Python "@x",
// TypeScript experimental decorators) immediately above node.
func leadingDecorators(node *tree_sitter.Node, content []byte) []string {
	var decorators []string
	prev := node.PrevSibling()
	for prev != nil && prev.Kind() == "decorator" {
		decorators = append([]string{strings.TrimSpace(string(content[prev.StartByte():prev.EndByte()]))}, decorators...)
		prev = prev.PrevSibling()
	}
	return decorators
}

func isCommentKind(kind string) bool {
	return kind == "comment" || kind == "line_comment" || kind == "block_comment"
}

// Search finds every element (recursing into class members) whose name,
// signature, documentation, or decorators contain query, case-insensitive.
func Search(fs FileStructure, query string) []CodeElement {
	q := strings.ToLower(query)
	var out []CodeElement
	var walk func(els []CodeElement)
	walk = func(els []CodeElement) {
		for _, el := range els {
			if elementMatches(el, q) {
				out = append(out, el)
			}
			walk(el.Children)
		}
	}
	walk(fs.Elements)
	return out
}

func elementMatches(el CodeElement, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(el.Name), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(el.Signature), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(el.Documentation), lowerQuery) {
		return true
	}
	for _, d := range el.Decorators {
		if strings.Contains(strings.ToLower(d), lowerQuery) {
			return true
		}
	}
	return false
}

// Extract finds the single element with an exact name match, searching
// class members too. Returns false when nothing matches (the façade's
// None-on-not-found contract).
func Extract(fs FileStructure, name string) (CodeElement, bool) {
	var found CodeElement
	ok := false
	var walk func(els []CodeElement)
	walk = func(els []CodeElement) {
		for _, el := range els {
			if ok {
				return
			}
			if el.Name == name {
				found = el
				ok = true
				return
			}
			walk(el.Children)
		}
	}
	walk(fs.Elements)
	return found, ok
}

// ExtractTarget names the element an ExtractContent call is looking for.
// Kind may be left empty to match any element kind with that Name.
type ExtractTarget struct {
	Kind string
	Name string
}

// ExtractOptions controls the source-range and import-intersection rules
// applied by ExtractContent.
type ExtractOptions struct {
	IncludeComments bool
	IncludeImports  bool
}

// ExtractedContent is the full extraction result: the matched element, the
// source text spanning it (extended upward through doc comments per
// options, and through decorators always), and any import lines the text
// references.
type ExtractedContent struct {
	Element     CodeElement
	Text        string
	ImportLines []string
}

var identifierTokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// ExtractContent implements the façade's extract(content, target, options)
// operation: locate the named element (recursing into class/interface/
// trait members for constructor/property/getter/setter targets), extend
// its line range upward through adjacent documentation when requested and
// through decorators always, and — when requested — intersect the extracted text's
// identifier tokens with the file's import table to report the imports it
// actually uses. Returns false iff no matching element exists.
func ExtractContent(fs FileStructure, content []byte, target ExtractTarget, opts ExtractOptions) (ExtractedContent, bool) {
	el, ok := findByKindAndName(fs.Elements, target.Kind, target.Name)
	if !ok {
		return ExtractedContent{}, false
	}

	startLine := el.StartLine
	if opts.IncludeComments && el.Documentation != "" {
		startLine -= len(strings.Split(el.Documentation, "\n"))
	}
	if len(el.Decorators) > 0 {
		startLine -= len(el.Decorators)
	}
	if startLine < 1 {
		startLine = 1
	}

	lines := strings.Split(string(content), "\n")
	endLine := el.EndLine
	if endLine > len(lines) {
		endLine = len(lines)
	}
	var text string
	if startLine <= endLine && startLine <= len(lines) {
		text = strings.Join(lines[startLine-1:endLine], "\n")
	}

	result := ExtractedContent{Element: el, Text: text}

	if opts.IncludeImports {
		used := make(map[string]bool)
		for _, tok := range identifierTokenRe.FindAllString(text, -1) {
			used[tok] = true
		}
		for _, imp := range fs.Imports {
			for _, tok := range identifierTokenRe.FindAllString(imp, -1) {
				if used[tok] {
					result.ImportLines = append(result.ImportLines, imp)
					break
				}
			}
		}
	}

	return result, true
}

func findByKindAndName(els []CodeElement, kind, name string) (CodeElement, bool) {
	for _, el := range els {
		if el.Name == name && (kind == "" || el.Kind == kind) {
			return el, true
		}
		if found, ok := findByKindAndName(el.Children, kind, name); ok {
			return found, ok
		}
	}
	return CodeElement{}, false
}

type parseErr string

func (e parseErr) Error() string { return string(e) }

var errParseProducedNoTree = parseErr("parser produced no tree")

func errUnsupportedLanguage(lang string) error {
	return parseErr("unsupported language: " + lang)
}
