package transform

import sitter "github.com/smacker/go-tree-sitter"

// hasLocalBinding reports whether name is declared in any scope enclosing
// node, including the program scope.
func (f *File) hasLocalBinding(node *sitter.Node, name string) bool {
	for scope := node.Parent(); scope != nil; scope = scope.Parent() {
		if f.declares(scope, name) {
			return true
		}
	}
	return false
}

func (f *File) declares(scope *sitter.Node, name string) bool {
	switch scope.Type() {
	case "program":
		return f.blockDeclares(scope, name) || f.hoistedVarDeclares(scope, name)
	case "statement_block", "class_static_block", "switch_body":
		return f.blockDeclares(scope, name)
	case "function_declaration", "generator_function_declaration", "function", "function_expression",
		"generator_function", "arrow_function", "method_definition":
		return f.functionDeclares(scope, name)
	case "for_statement":
		initializer := scope.ChildByFieldName("initializer")
		return initializer != nil && f.declarationBinds(initializer, name)
	case "for_in_statement":
		if scope.ChildByFieldName("kind") == nil {
			return false
		}
		return f.patternBinds(scope.ChildByFieldName("left"), name)
	case "catch_clause":
		return f.patternBinds(scope.ChildByFieldName("parameter"), name)
	case "class", "class_declaration":
		// A class name is visible inside its own body.
		return f.text(scope.ChildByFieldName("name")) == name
	}
	return false
}

func (f *File) functionDeclares(fn *sitter.Node, name string) bool {
	if fn.Type() != "function_declaration" && fn.Type() != "generator_function_declaration" {
		if f.text(fn.ChildByFieldName("name")) == name && fn.Type() != "method_definition" {
			return true
		}
	}
	if param := fn.ChildByFieldName("parameter"); param != nil && f.patternBinds(param, name) {
		return true
	}
	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if f.patternBinds(params.NamedChild(i), name) {
				return true
			}
		}
	}
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return false
	}
	return f.hoistedVarDeclares(body, name)
}

// blockDeclares checks declarations that are direct statements of block.
func (f *File) blockDeclares(block *sitter.Node, name string) bool {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() == "export_statement" {
			child = child.ChildByFieldName("declaration")
			if child == nil {
				continue
			}
		}
		if f.statementDeclares(child, name) {
			return true
		}
	}
	return false
}

func (f *File) statementDeclares(stmt *sitter.Node, name string) bool {
	switch stmt.Type() {
	case "lexical_declaration", "variable_declaration":
		return f.declarationBinds(stmt, name)
	case "function_declaration", "generator_function_declaration", "class_declaration", "abstract_class_declaration":
		return f.text(stmt.ChildByFieldName("name")) == name
	case "import_statement":
		found := false
		walkNode(stmt, func(node *sitter.Node) {
			if found || node.Type() != "identifier" {
				return
			}
			switch node.Parent().Type() {
			case "import_clause", "namespace_import":
				found = f.text(node) == name
			case "import_specifier":
				alias := node.Parent().ChildByFieldName("alias")
				if alias == nil || sameNode(alias, node) {
					found = f.text(node) == name
				}
			}
		})
		return found
	}
	return false
}

// hoistedVarDeclares finds var declarations anywhere under root that are not
// inside a nested function.
func (f *File) hoistedVarDeclares(root *sitter.Node, name string) bool {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "function_declaration", "generator_function_declaration", "function", "function_expression",
			"generator_function", "arrow_function", "method_definition", "class", "class_declaration":
			continue
		case "variable_declaration":
			if f.declarationBinds(child, name) {
				return true
			}
		case "for_in_statement":
			// for (var x in/of y) declares x without a variable_declaration node.
			if kind := child.ChildByFieldName("kind"); kind != nil && f.text(kind) == "var" &&
				f.patternBinds(child.ChildByFieldName("left"), name) {
				return true
			}
		}
		if f.hoistedVarDeclares(child, name) {
			return true
		}
	}
	return false
}

func (f *File) declarationBinds(decl *sitter.Node, name string) bool {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		if f.patternBinds(declarator.ChildByFieldName("name"), name) {
			return true
		}
	}
	return false
}

// patternBinds reports whether a binding pattern introduces name. Default
// values and computed keys are not bindings.
func (f *File) patternBinds(pattern *sitter.Node, name string) bool {
	if pattern == nil {
		return false
	}
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return f.text(pattern) == name
	case "assignment_pattern", "object_assignment_pattern":
		return f.patternBinds(pattern.ChildByFieldName("left"), name)
	case "pair_pattern":
		return f.patternBinds(pattern.ChildByFieldName("value"), name)
	case "required_parameter", "optional_parameter":
		return f.patternBinds(pattern.ChildByFieldName("pattern"), name)
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := 0; i < int(pattern.NamedChildCount()); i++ {
			if f.patternBinds(pattern.NamedChild(i), name) {
				return true
			}
		}
	}
	return false
}
