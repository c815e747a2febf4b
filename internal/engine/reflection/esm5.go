// # internal/engine/reflection/esm5.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// esm5Pattern recognises classes lowered to
//
//	var Foo = (function (_super) {
//	  __extends(Foo, _super);
//	  function Foo() {}
//	  return Foo;
//	}(Base));
type esm5Pattern struct{ declines }

func (esm5Pattern) name() string { return string(FormatESM5) }

func (esm5Pattern) classSymbol(h *Host, node syntax.Node) *ClassSymbol {
	switch node.Kind() {
	case "variable_declarator":
		return esm5OuterSymbol(node)
	case "function_declaration":
		outer := outerDeclaratorOfIIFEFunction(node)
		if outer.IsZero() {
			return nil
		}
		if cs := h.GetClassSymbol(outer); cs != nil && cs.Implementation.Same(node) {
			return cs
		}
	}
	return nil
}

func esm5OuterSymbol(decl syntax.Node) *ClassSymbol {
	name := decl.Field("name")
	if !syntax.IsIdentifier(name) {
		return nil
	}
	value, aliases := unwrapAssignmentChain(decl.Field("value"))
	call, fn := asIIFE(value)
	if call.IsZero() {
		return nil
	}
	inner := iifeClassFunction(fn)
	if inner.IsZero() {
		return nil
	}
	cs := &ClassSymbol{Name: name.Text(), Declaration: decl, Implementation: inner, iife: call, pattern: string(FormatESM5)}
	if params := syntax.Parameters(fn); len(params) == 1 && IsSuperParameterName(params[0].Text()) {
		cs.hasBase = true
		if args := syntax.CallArguments(call); len(args) > 0 {
			cs.base = args[0]
		}
	}
	innerName := inner.Field("name").Text()
	if innerName != cs.Name {
		cs.aliasFor = innerName
	}
	body, _ := syntax.Body(fn)
	cs.scopes = append([]metadataScope{newScope(body, innerName)},
		enclosingScope(decl, append([]string{cs.Name}, aliases...)...)...)
	return cs
}

// asIIFE matches `function () {...}()` in any parenthesisation and returns
// the call and the invoked function.
func asIIFE(n syntax.Node) (syntax.Node, syntax.Node) {
	n = syntax.Unparen(n)
	if n.Kind() != "call_expression" {
		return syntax.Node{}, syntax.Node{}
	}
	fn := syntax.Unparen(syntax.Callee(n))
	if !syntax.IsFunctionExpression(fn) {
		return syntax.Node{}, syntax.Node{}
	}
	return n, fn
}

// iifeClassFunction returns the single function declaration of an IIFE body
// when the IIFE returns it by name.
func iifeClassFunction(fn syntax.Node) syntax.Node {
	stmts, _ := syntax.Body(fn)
	var inner syntax.Node
	for _, stmt := range stmts {
		if stmt.Kind() != "function_declaration" {
			continue
		}
		if !inner.IsZero() {
			return syntax.Node{}
		}
		inner = stmt
	}
	if inner.IsZero() {
		return syntax.Node{}
	}
	name := inner.Field("name").Text()
	for _, stmt := range stmts {
		ret := syntax.Unparen(syntax.ReturnExpression(stmt))
		if syntax.IsIdentifier(ret) && ret.Text() == name {
			return inner
		}
	}
	return syntax.Node{}
}

// outerDeclaratorOfIIFEFunction climbs from a function declaration directly
// inside an IIFE body to the variable the IIFE initialises.
func outerDeclaratorOfIIFEFunction(fn syntax.Node) syntax.Node {
	block := fn.Parent()
	if block.Kind() != "statement_block" {
		return syntax.Node{}
	}
	iifeFn := block.Parent()
	if !syntax.IsFunctionExpression(iifeFn) {
		return syntax.Node{}
	}
	cur := iifeFn
	for cur.Parent().Kind() == "parenthesized_expression" {
		cur = cur.Parent()
	}
	call := cur.Parent()
	if call.Kind() != "call_expression" || !syntax.Unparen(syntax.Callee(call)).Same(iifeFn) {
		return syntax.Node{}
	}
	return declaratorOfValue(call)
}
