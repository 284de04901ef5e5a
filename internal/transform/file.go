package transform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	tsxlang "github.com/smacker/go-tree-sitter/typescript/tsx"
	tslang "github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	defaultImportPriority = 3
	interopImportPriority = 4
)

var ErrUnsupportedSource = errors.New("unsupported source")

// Ref is an expression that reads an injected binding. Each call site gets
// its own Ref; refs created for the same import share Decl.
type Ref struct {
	Name string
	Decl *ImportDecl
}

// ImportDecl is a single injected import or require declaration.
type ImportDecl struct {
	Source   string
	Local    string
	Priority int
	order    int
}

// HelperGenerator returns a reference for a named helper, or nil to decline.
type HelperGenerator func(name string) *Ref

// File is a parsed source file plus the pending rewrites against it.
type File struct {
	Path    string
	content []byte
	tree    *sitter.Tree
	module  bool

	edits   map[uintptr]pendingEdit
	imports []*ImportDecl
	taken   map[string]struct{}
	helpers HelperGenerator
}

// edit renders the replacement for one node. render yields the rewritten text
// of any descendant the edit keeps.
type edit func(render func(*sitter.Node) string) string

type pendingEdit struct {
	node   *sitter.Node
	render edit
}

// Change describes one rewritten expression.
type Change struct {
	Line        int    `json:"line"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// ParseFile parses JavaScript or TypeScript source selected by path's extension.
func ParseFile(ctx context.Context, path string, content []byte) (*File, error) {
	lang, err := languageForPath(path)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	file := &File{
		Path:    path,
		content: content,
		tree:    tree,
		edits:   make(map[uintptr]pendingEdit),
		taken:   make(map[string]struct{}),
	}
	root := tree.RootNode()
	file.module = detectModule(path, root)
	walkNode(root, func(node *sitter.Node) {
		if isIdentifierNode(node) {
			file.taken[nodeText(node, content)] = struct{}{}
		}
	})
	return file, nil
}

func languageForPath(path string) (*sitter.Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".js", ".cjs", ".mjs", ".jsx":
		return javascript.GetLanguage(), nil
	case ".ts", ".mts", ".cts":
		return tslang.GetLanguage(), nil
	case ".tsx":
		return tsxlang.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedSource, ext)
	}
}

func detectModule(path string, root *sitter.Node) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mjs", ".mts":
		return true
	case ".cjs", ".cts":
		return false
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		switch root.NamedChild(i).Type() {
		case "import_statement", "export_statement":
			return true
		}
	}
	return false
}

// Close releases the syntax tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// IsModule reports whether the file is an ES module.
func (f *File) IsModule() bool {
	return f.module
}

// HasSyntaxErrors reports whether the parser had to recover from errors.
func (f *File) HasSyntaxErrors() bool {
	return f.tree.RootNode().HasError()
}

// SetHelperGenerator installs the hook AddHelper consults first.
func (f *File) SetHelperGenerator(generator HelperGenerator) {
	f.helpers = generator
}

// AddHelper returns a reference to a compiler helper. Without a generator,
// or when the generator declines, the global babelHelpers object is used.
func (f *File) AddHelper(name string) *Ref {
	if ref := f.generateHelper(name); ref != nil {
		return ref
	}
	return &Ref{Name: "babelHelpers." + name}
}

func (f *File) generateHelper(name string) *Ref {
	if f.helpers == nil {
		return nil
	}
	return f.helpers(name)
}

// AddDefaultImport injects a default import of source bound to a fresh
// identifier derived from hint.
func (f *File) AddDefaultImport(source string, hint string, priority int) *Ref {
	decl := &ImportDecl{
		Source:   source,
		Local:    f.generateUID(hint),
		Priority: priority,
		order:    len(f.imports),
	}
	f.imports = append(f.imports, decl)
	return &Ref{Name: decl.Local, Decl: decl}
}

// Imports lists the injected declarations in output order.
func (f *File) Imports() []*ImportDecl {
	ordered := append([]*ImportDecl(nil), f.imports...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].order < ordered[j].order
	})
	return ordered
}

// Code renders the rewritten source with injected declarations placed after
// any leading directives.
func (f *File) Code() string {
	root := f.tree.RootNode()
	body := string(f.content[:root.StartByte()]) + f.render(root) + string(f.content[root.EndByte():])
	if len(f.imports) == 0 {
		return body
	}

	var header strings.Builder
	for _, decl := range f.Imports() {
		if f.module {
			fmt.Fprintf(&header, "import %s from %q;\n", decl.Local, decl.Source)
		} else {
			fmt.Fprintf(&header, "var %s = require(%q);\n", decl.Local, decl.Source)
		}
	}

	offset := insertionOffset(root, f.content)
	return body[:offset] + header.String() + body[offset:]
}

// insertionOffset is the byte offset of the first statement that is not a
// directive. Everything before it is left untouched by edits.
func insertionOffset(root *sitter.Node, content []byte) int {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "comment", "hash_bang_line":
			continue
		case "expression_statement":
			if inner := child.NamedChild(0); inner != nil && inner.Type() == "string" {
				continue
			}
		}
		return int(child.StartByte())
	}
	return len(content)
}

// Changes lists the rewritten expressions in source order. Edits nested in
// another edit are reported as part of the outer one.
func (f *File) Changes() []Change {
	pending := make([]pendingEdit, 0, len(f.edits))
	for _, e := range f.edits {
		if !f.insideEdit(e.node) {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].node.StartByte() < pending[j].node.StartByte()
	})
	changes := make([]Change, 0, len(pending))
	for _, e := range pending {
		changes = append(changes, Change{
			Line:        int(e.node.StartPoint().Row) + 1,
			Original:    f.text(e.node),
			Replacement: f.render(e.node),
		})
	}
	return changes
}

func (f *File) insideEdit(node *sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if _, ok := f.edits[parent.ID()]; ok {
			return true
		}
	}
	return false
}

func (f *File) replace(node *sitter.Node, e edit) {
	f.edits[node.ID()] = pendingEdit{node: node, render: e}
}

func (f *File) render(node *sitter.Node) string {
	if e, ok := f.edits[node.ID()]; ok {
		return e.render(f.render)
	}
	count := int(node.ChildCount())
	if count == 0 {
		return nodeText(node, f.content)
	}
	var b strings.Builder
	cursor := node.StartByte()
	for i := 0; i < count; i++ {
		child := node.Child(i)
		b.Write(f.content[cursor:child.StartByte()])
		b.WriteString(f.render(child))
		cursor = child.EndByte()
	}
	b.Write(f.content[cursor:node.EndByte()])
	return b.String()
}

func (f *File) text(node *sitter.Node) string {
	return nodeText(node, f.content)
}

// generateUID returns "_" + a sanitized hint, numbered from 2 on collision
// with any identifier in the file or any earlier generated name.
func (f *File) generateUID(hint string) string {
	base := strings.TrimLeft(toIdentifier(hint), "_")
	base = strings.TrimRightFunc(base, unicode.IsDigit)
	if base == "" {
		base = "ref"
	}
	candidate := "_" + base
	for i := 2; ; i++ {
		if _, ok := f.taken[candidate]; !ok {
			break
		}
		candidate = fmt.Sprintf("_%s%d", base, i)
	}
	f.taken[candidate] = struct{}{}
	return candidate
}

func toIdentifier(hint string) string {
	var b strings.Builder
	upper := false
	for _, r := range hint {
		if r == '$' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
			continue
		}
		upper = b.Len() > 0
	}
	name := b.String()
	if name == "" {
		return "ref"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}

func walkNode(node *sitter.Node, visit func(*sitter.Node)) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		visit(child)
		walkNode(child, visit)
	}
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

func isIdentifierNode(node *sitter.Node) bool {
	switch node.Type() {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return true
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}
