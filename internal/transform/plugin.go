package transform

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ben-ranford/presetenv/internal/catalog"
)

var headerHelpers = map[string]bool{
	"interopRequireWildcard": true,
	"interopRequireDefault":  true,
}

// Plugin rewrites helper, regenerator and corejs-2 global references into
// imports from the runtime package.
type Plugin struct {
	registry *catalog.Registry
	runtime  catalog.RuntimeDefinitions
	opts     Options
	module   string
}

// NewPlugin validates raw options against the registry's runtime data.
func NewPlugin(reg *catalog.Registry, raw map[string]any) (*Plugin, error) {
	opts, err := ParseOptions(raw)
	if err != nil {
		return nil, err
	}
	return &Plugin{
		registry: reg,
		runtime:  reg.Runtime(),
		opts:     opts,
		module:   opts.moduleName(),
	}, nil
}

func (p *Plugin) Options() Options {
	return p.opts
}

// ModuleName is the runtime package imports are drawn from.
func (p *Plugin) ModuleName() string {
	return p.module
}

// Pass is one traversal of one file. Its import cache lives as long as the
// pass.
type Pass struct {
	plugin *Plugin
	file   *File
	cache  *importCache
}

// Pre starts a pass over file and installs the helper generator when
// runtime helpers are enabled.
func (p *Plugin) Pre(file *File) *Pass {
	pass := &Pass{plugin: p, file: file, cache: newImportCache(file)}
	if p.opts.Helpers {
		file.SetHelperGenerator(pass.helper)
	}
	return pass
}

// Transform runs a full pass over file.
func (p *Plugin) Transform(file *File) {
	p.Pre(file).Run()
}

func (s *Pass) helper(name string) *Ref {
	p := s.plugin
	if !p.registry.HelperAvailable(name, p.opts.Version) {
		return nil
	}
	dir := "helpers"
	if p.opts.UseESModules && s.file.IsModule() {
		dir = "helpers/esm"
	}
	priority := defaultImportPriority
	if headerHelpers[name] && !s.file.IsModule() {
		priority = interopImportPriority
	}
	return s.cache.addDefaultImport(p.module+"/"+dir+"/"+name, name, priority)
}

func (s *Pass) addCoreJSImport(path string, hint string) *Ref {
	return s.cache.addDefaultImport(s.plugin.module+"/core-js/"+path, hint, defaultImportPriority)
}

// Run walks the file once, recording rewrites on it.
func (s *Pass) Run() {
	s.visit(s.file.tree.RootNode(), false)
}

// visit walks node in source order. detached marks a node that a rewrite
// moved into call-argument position, so its original parent no longer
// applies.
func (s *Pass) visit(node *sitter.Node, detached bool) {
	switch node.Type() {
	case "identifier", "shorthand_property_identifier":
		if s.referencedIdentifier(node, detached) {
			return
		}
	case "call_expression":
		if keep := s.callExpression(node); keep != nil {
			s.visit(keep, true)
			return
		}
	case "binary_expression":
		if keep := s.binaryExpression(node); keep != nil {
			s.visit(keep, true)
			return
		}
	case "member_expression":
		if s.memberExpressionEnter(node) {
			return
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		s.visit(node.NamedChild(i), false)
	}

	if node.Type() == "member_expression" || node.Type() == "subscript_expression" {
		s.memberExpressionExit(node)
	}
}

func (s *Pass) coreJS2() bool {
	return s.plugin.opts.CoreJS == 2
}

func (s *Pass) referencedIdentifier(node *sitter.Node, detached bool) bool {
	if !detached && !isReferenced(node) {
		return false
	}
	name := s.file.text(node)

	if name == "regeneratorRuntime" && s.plugin.opts.Regenerator {
		ref := s.cache.addDefaultImport(s.plugin.module+"/regenerator", "regeneratorRuntime", defaultImportPriority)
		s.replaceIdentifier(node, ref)
		return true
	}

	if !s.coreJS2() {
		return false
	}
	if !detached && isMemberParent(node) {
		return false
	}
	path, ok := s.plugin.runtime.Builtin(name)
	if !ok || s.file.hasLocalBinding(node, name) {
		return false
	}
	s.replaceIdentifier(node, s.addCoreJSImport(path, name))
	return true
}

func (s *Pass) replaceIdentifier(node *sitter.Node, ref *Ref) {
	text := ref.Name
	switch parent := node.Parent(); {
	case node.Type() == "shorthand_property_identifier":
		text = s.file.text(node) + ": " + ref.Name
	case parent != nil && parent.Type() == "export_specifier" && parent.ChildByFieldName("alias") == nil:
		// The exported name stays what the source wrote.
		text = ref.Name + " as " + s.file.text(node)
	}
	s.file.replace(node, func(func(*sitter.Node) string) string { return text })
}

// callExpression rewrites obj[Symbol.iterator]() to getIterator(obj) and
// returns obj for further traversal.
func (s *Pass) callExpression(node *sitter.Node) *sitter.Node {
	if !s.coreJS2() {
		return nil
	}
	callee := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if callee == nil || callee.Type() != "subscript_expression" || args == nil || args.NamedChildCount() != 0 {
		return nil
	}
	if !s.isSymbolIterator(callee.ChildByFieldName("index")) {
		return nil
	}
	object := callee.ChildByFieldName("object")
	if object == nil {
		return nil
	}
	ref := s.addCoreJSImport("get-iterator", "getIterator")
	s.file.replace(node, func(render func(*sitter.Node) string) string {
		return ref.Name + "(" + render(object) + ")"
	})
	return object
}

// binaryExpression rewrites Symbol.iterator in obj to isIterable(obj).
func (s *Pass) binaryExpression(node *sitter.Node) *sitter.Node {
	if !s.coreJS2() {
		return nil
	}
	operator := node.ChildByFieldName("operator")
	if operator == nil || s.file.text(operator) != "in" {
		return nil
	}
	if !s.isSymbolIterator(node.ChildByFieldName("left")) {
		return nil
	}
	right := node.ChildByFieldName("right")
	if right == nil {
		return nil
	}
	ref := s.addCoreJSImport("is-iterable", "isIterable")
	s.file.replace(node, func(render func(*sitter.Node) string) string {
		return ref.Name + "(" + render(right) + ")"
	})
	return right
}

func (s *Pass) memberExpressionEnter(node *sitter.Node) bool {
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	if object == nil || property == nil || object.Type() != "identifier" || property.Type() != "property_identifier" {
		return false
	}
	objectName := s.file.text(object)
	propertyName := s.file.text(property)

	if objectName == "babelHelpers" && !s.file.hasLocalBinding(node, objectName) {
		if ref := s.file.generateHelper(propertyName); ref != nil {
			s.file.replace(node, func(func(*sitter.Node) string) string { return ref.Name })
			return true
		}
		return false
	}

	if !s.coreJS2() || !isReferenced(node) {
		return false
	}
	path, ok := s.plugin.runtime.Method(objectName, propertyName)
	if !ok || s.file.hasLocalBinding(node, objectName) {
		return false
	}
	if objectName == "Object" && propertyName == "defineProperty" && isLiteralDefineProperty(node) {
		return false
	}
	ref := s.addCoreJSImport(path, objectName+"$"+propertyName)
	s.file.replace(node, func(func(*sitter.Node) string) string { return ref.Name })
	return true
}

// memberExpressionExit swaps a corejs-2 global used as a member object, as in
// Promise.resolve, for its runtime import.
func (s *Pass) memberExpressionExit(node *sitter.Node) {
	if !s.coreJS2() || !isReferenced(node) {
		return
	}
	object := node.ChildByFieldName("object")
	if object == nil || object.Type() != "identifier" {
		return
	}
	name := s.file.text(object)
	path, ok := s.plugin.runtime.Builtin(name)
	if !ok || s.file.hasLocalBinding(node, name) {
		return
	}
	ref := s.addCoreJSImport(path, name)
	s.file.replace(object, func(func(*sitter.Node) string) string { return ref.Name })
}

func (s *Pass) isSymbolIterator(node *sitter.Node) bool {
	if node == nil || node.Type() != "member_expression" {
		return false
	}
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	return object != nil && property != nil &&
		s.file.text(object) == "Symbol" && s.file.text(property) == "iterator"
}

// isLiteralDefineProperty matches Object.defineProperty(target, "key", desc)
// where the key is a literal.
func isLiteralDefineProperty(member *sitter.Node) bool {
	call := member.Parent()
	if call != nil && call.Type() == "arguments" {
		call = call.Parent()
	}
	if call == nil || call.Type() != "call_expression" {
		return false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 3 {
		return false
	}
	switch args.NamedChild(1).Type() {
	case "string", "number", "template_string", "true", "false", "null", "regex":
		return true
	}
	return false
}

// exportsLocal reports whether an export specifier names a local binding,
// which holds when its export statement has no source module.
func exportsLocal(specifier *sitter.Node) bool {
	stmt := specifier.Parent()
	for stmt != nil && stmt.Type() != "export_statement" {
		stmt = stmt.Parent()
	}
	return stmt != nil && stmt.ChildByFieldName("source") == nil
}

func isMemberParent(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && (parent.Type() == "member_expression" || parent.Type() == "subscript_expression")
}

// isReferenced reports whether node reads a binding rather than declaring,
// naming or assigning one.
func isReferenced(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}

	switch parent.Type() {
	case "export_specifier":
		return sameNode(parent.ChildByFieldName("name"), node) && exportsLocal(parent)
	case "import_specifier", "import_clause", "namespace_import", "named_imports", "import_statement",
		"formal_parameters", "object_pattern", "array_pattern", "rest_pattern",
		"jsx_opening_element", "jsx_closing_element", "jsx_self_closing_element", "jsx_attribute", "nested_identifier":
		return false
	case "variable_declarator", "function_declaration", "generator_function_declaration", "function",
		"function_expression", "generator_function", "class_declaration", "class":
		return !sameNode(parent.ChildByFieldName("name"), node)
	case "required_parameter", "optional_parameter":
		return !sameNode(parent.ChildByFieldName("pattern"), node)
	case "arrow_function":
		return !sameNode(parent.ChildByFieldName("parameter"), node)
	case "catch_clause":
		return !sameNode(parent.ChildByFieldName("parameter"), node)
	case "assignment_pattern", "object_assignment_pattern":
		return !sameNode(parent.ChildByFieldName("left"), node)
	case "pair_pattern":
		return !sameNode(parent.ChildByFieldName("value"), node)
	case "assignment_expression", "augmented_assignment_expression", "for_in_statement":
		return !sameNode(parent.ChildByFieldName("left"), node)
	case "update_expression":
		return false
	}
	return true
}
