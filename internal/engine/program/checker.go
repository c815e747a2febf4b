// # internal/engine/program/checker.go
package program

import (
	"ngreflect/internal/engine/syntax"
	"ngreflect/internal/shared/cache"
)

// Checker answers "which declaration introduces this identifier" using the
// lexical scopes of the syntax tree. Binding tables are built once per scope.
//
// The returned declaration node is one of:
//   - variable_declarator (var/let/const, including destructured names)
//   - function_declaration, generator_function_declaration, class_declaration
//   - function_expression or class for a named expression's own name
//   - the identifier of a parameter, catch binding or for-in binding
//   - import_specifier, namespace_import, or the default identifier of an
//     import_clause
type Checker struct {
	scopes *cache.Memo[syntax.Key, map[string]syntax.Node]
}

func NewChecker() *Checker {
	return &Checker{scopes: cache.NewMemo[syntax.Key, map[string]syntax.Node]()}
}

// DeclarationOf returns the declaration binding id, or the zero node when the
// name is free (a global or an undeclared helper).
func (c *Checker) DeclarationOf(id syntax.Node) syntax.Node {
	if !id.Is("identifier", "shorthand_property_identifier") {
		return syntax.Node{}
	}
	name := id.Text()
	for scope := id.Parent(); !scope.IsZero(); scope = scope.Parent() {
		if !isScope(scope) {
			continue
		}
		if decl, ok := c.bindings(scope)[name]; ok {
			return decl
		}
	}
	return syntax.Node{}
}

// BindingsOf exposes the binding table of a scope node.
func (c *Checker) BindingsOf(scope syntax.Node) map[string]syntax.Node {
	if !isScope(scope) {
		return nil
	}
	return c.bindings(scope)
}

func (c *Checker) bindings(scope syntax.Node) map[string]syntax.Node {
	return c.scopes.GetOrCompute(scope.Key(), func() map[string]syntax.Node {
		b := make(binder)
		collectScope(scope, b)
		return b
	})
}

type binder map[string]syntax.Node

func (b binder) add(name string, decl syntax.Node) {
	if name == "" {
		return
	}
	if _, exists := b[name]; !exists {
		b[name] = decl
	}
}

func isScope(n syntax.Node) bool {
	switch n.Kind() {
	case "program", "statement_block", "class_static_block", "switch_body",
		"function_declaration", "function_expression", "function", "arrow_function",
		"generator_function", "generator_function_declaration", "method_definition",
		"class", "for_statement", "for_in_statement", "catch_clause":
		return true
	}
	return false
}

func isFunctionBody(block syntax.Node) bool {
	if block.Kind() == "class_static_block" {
		return true
	}
	return block.Kind() == "statement_block" && syntax.IsFunctionLike(block.Parent())
}

func collectScope(scope syntax.Node, b binder) {
	switch scope.Kind() {
	case "program":
		collectBlock(scope.NamedChildren(), b, true)
	case "statement_block", "class_static_block":
		collectBlock(scope.NamedChildren(), b, isFunctionBody(scope))
	case "switch_body":
		for _, c := range scope.NamedChildren() {
			collectBlock(c.NamedChildren(), b, false)
		}
	case "function_expression", "function", "generator_function":
		for _, p := range syntax.Parameters(scope) {
			bindPattern(p, p, b, true)
		}
		if name := scope.Field("name"); !name.IsZero() {
			b.add(name.Text(), scope)
		}
	case "function_declaration", "generator_function_declaration", "arrow_function", "method_definition":
		for _, p := range syntax.Parameters(scope) {
			bindPattern(p, p, b, true)
		}
	case "class":
		if name := scope.Field("name"); !name.IsZero() {
			b.add(name.Text(), scope)
		}
	case "for_statement":
		init := scope.Field("initializer")
		if init.IsZero() {
			init = scope.FirstNamedChild()
		}
		for _, d := range syntax.Declarators(init) {
			bindPattern(d.Field("name"), d, b, false)
		}
	case "for_in_statement":
		if left := scope.Field("left"); !left.IsZero() {
			bindPattern(left, left, b, true)
		}
	case "catch_clause":
		if param := scope.Field("parameter"); !param.IsZero() {
			bindPattern(param, param, b, true)
		}
	}
}

// collectBlock binds the declarations of a statement list. Function-level
// blocks also pick up var declarations hoisted out of nested statements.
func collectBlock(stmts []syntax.Node, b binder, functionLevel bool) {
	for _, stmt := range stmts {
		collectStatement(stmt, b)
		if functionLevel {
			hoistVars(stmt, b, true)
		}
	}
}

func collectStatement(stmt syntax.Node, b binder) {
	switch stmt.Kind() {
	case "variable_declaration", "lexical_declaration":
		for _, d := range syntax.Declarators(stmt) {
			bindPattern(d.Field("name"), d, b, false)
		}
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if name := stmt.Field("name"); !name.IsZero() {
			b.add(name.Text(), stmt)
		}
	case "import_statement":
		bindImport(stmt, b)
	case "export_statement":
		if decl := stmt.Field("declaration"); !decl.IsZero() {
			collectStatement(decl, b)
		}
	}
}

// hoistVars binds var declarations nested inside blocks and control flow.
// The top call skips the statement itself because collectStatement saw it.
func hoistVars(stmt syntax.Node, b binder, top bool) {
	switch stmt.Kind() {
	case "variable_declaration":
		if !top {
			for _, d := range syntax.Declarators(stmt) {
				bindPattern(d.Field("name"), d, b, false)
			}
		}
		return
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"expression_statement", "return_statement", "lexical_declaration",
		"import_statement", "export_statement":
		return
	}
	for _, child := range stmt.NamedChildren() {
		switch {
		case syntax.IsFunctionLike(child), child.Is("class", "arrow_function"):
			continue
		case child.Kind() == "for_in_statement":
			if left := child.Field("left"); !left.IsZero() && child.HasToken("var") {
				bindPattern(left, left, b, true)
			}
		}
		hoistVars(child, b, false)
	}
}

func bindImport(stmt syntax.Node, b binder) {
	for _, child := range stmt.NamedChildren() {
		if child.Kind() != "import_clause" {
			continue
		}
		for _, part := range child.NamedChildren() {
			switch part.Kind() {
			case "identifier":
				b.add(part.Text(), part)
			case "namespace_import":
				if id := part.FirstNamedChild(); !id.IsZero() {
					b.add(id.Text(), part)
				}
			case "named_imports":
				for _, spec := range part.NamedChildren() {
					if spec.Kind() != "import_specifier" {
						continue
					}
					local := spec.Field("alias")
					if local.IsZero() {
						local = spec.Field("name")
					}
					b.add(local.Text(), spec)
				}
			}
		}
	}
}

// bindPattern binds every name introduced by a binding pattern. When self is
// set each identifier is its own declaration, otherwise decl is used.
func bindPattern(pattern, decl syntax.Node, b binder, self bool) {
	target := func(id syntax.Node) syntax.Node {
		if self {
			return id
		}
		return decl
	}
	switch pattern.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		b.add(pattern.Text(), target(pattern))
	case "assignment_pattern", "object_assignment_pattern":
		bindPattern(pattern.Field("left"), decl, b, self)
	case "rest_pattern":
		bindPattern(pattern.FirstNamedChild(), decl, b, self)
	case "pair_pattern":
		bindPattern(pattern.Field("value"), decl, b, self)
	case "object_pattern", "array_pattern":
		for _, child := range pattern.NamedChildren() {
			bindPattern(child, decl, b, self)
		}
	}
}
