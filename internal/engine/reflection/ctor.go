// # internal/engine/reflection/ctor.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// GetConstructorParameters returns the parameters of the class constructor.
// A nil slice means the class has no user-written constructor; a class
// without parameter metadata still gets one entry per parameter, each with
// nil decorators.
func (h *Host) GetConstructorParameters(node syntax.Node) ([]CtorParameter, error) {
	cs := h.GetClassSymbol(node)
	if cs == nil {
		return nil, notAClass("constructor parameters", node)
	}
	params, ok := h.constructorParameterNodes(cs)
	if !ok {
		return nil, nil
	}
	info := h.acquireDecoratorInfo(cs).ctorParams
	out := make([]CtorParameter, 0, len(params))
	for i, p := range params {
		name := syntax.ParameterName(p)
		var pi paramInfo
		if i < len(info) {
			pi = info[i]
		}
		out = append(out, CtorParameter{
			Name:               name.Text(),
			NameNode:           name,
			TypeExpression:     pi.typeExpression,
			TypeValueReference: h.typeToValue(pi.typeExpression),
			Decorators:         pi.decorators,
		})
	}
	return out, nil
}

// constructorParameterNodes returns the declared parameters, or false when
// the class has no constructor of its own. A compiler-synthesized
// constructor only counts when the class has a base class, because callers
// must still forward to the base constructor then.
func (h *Host) constructorParameterNodes(cs *ClassSymbol) ([]syntax.Node, bool) {
	ctor := cs.Implementation
	if cs.Implementation.Is("class", "class_declaration") {
		ctor = syntax.Node{}
		for _, el := range classBody(cs.Implementation) {
			if el.Kind() == "method_definition" && el.Field("name").Text() == "constructor" && !el.HasToken("static") {
				ctor = el
				break
			}
		}
		if ctor.IsZero() {
			return nil, false
		}
	}
	if params := syntax.Parameters(ctor); len(params) > 0 {
		return params, true
	}
	if h.isSynthesizedConstructor(ctor) && !cs.hasBase {
		return nil, false
	}
	return []syntax.Node{}, true
}

// isSynthesizedConstructor matches the default constructors compilers emit:
//
//	var _this = _super !== null && _super.apply(this, arguments) || this;
//	_this = _super !== null && _super.apply(this, arguments) || this;
//	return _super !== null && _super.apply(this, arguments) || this;
//	super(...arguments);
func (h *Host) isSynthesizedConstructor(ctor syntax.Node) bool {
	stmts, _ := syntax.Body(ctor)
	if len(stmts) == 0 {
		return false
	}
	first := stmts[0]
	switch first.Kind() {
	case "return_statement":
		return h.isSuperApplyFallback(syntax.ReturnExpression(first))
	case "variable_declaration":
		decls := syntax.Declarators(first)
		return len(decls) == 1 && decls[0].Field("name").Text() == "_this" &&
			h.isSuperApplyFallback(decls[0].Field("value"))
	case "expression_statement":
		expr := syntax.ExpressionOf(first)
		if syntax.IsAssignment(expr) {
			return expr.Field("left").Text() == "_this" && h.isSuperApplyFallback(expr.Field("right"))
		}
		return isSuperSpreadCall(expr)
	}
	return false
}

// isSuperApplyFallback matches `_super !== null && _super.apply(this, ARGS) || this`.
func (h *Host) isSuperApplyFallback(expr syntax.Node) bool {
	expr = syntax.Unparen(expr)
	if expr.Kind() != "binary_expression" || syntax.Operator(expr) != "||" {
		return false
	}
	if syntax.Unparen(expr.Field("right")).Kind() != "this" {
		return false
	}
	and := syntax.Unparen(expr.Field("left"))
	if and.Kind() != "binary_expression" || syntax.Operator(and) != "&&" {
		return false
	}
	check := syntax.Unparen(and.Field("left"))
	if check.Kind() != "binary_expression" || syntax.Operator(check) != "!==" {
		return false
	}
	superRef := check.Field("left")
	if !syntax.IsIdentifier(superRef) || !IsSuperParameterName(superRef.Text()) ||
		syntax.Unparen(check.Field("right")).Kind() != "null" {
		return false
	}
	call := syntax.Unparen(and.Field("right"))
	if call.Kind() != "call_expression" || !syntax.IsMemberOf(syntax.Callee(call), superRef.Text(), "apply") {
		return false
	}
	args := syntax.CallArguments(call)
	return len(args) == 2 && syntax.Unparen(args[0]).Kind() == "this" && spreadsArguments(h, args[1])
}

// isSuperSpreadCall matches `super(...arguments)`.
func isSuperSpreadCall(expr syntax.Node) bool {
	if expr.Kind() != "call_expression" || syntax.Callee(expr).Kind() != "super" {
		return false
	}
	args := syntax.CallArguments(expr)
	if len(args) != 1 || args[0].Kind() != "spread_element" {
		return false
	}
	spread := args[0].FirstNamedChild()
	return syntax.IsIdentifier(spread) && spread.Text() == "arguments"
}

// typeToValue says which value a constructor parameter's type expression
// refers to. Primitive placeholders such as `undefined` or `Object` carry
// no usable value.
func (h *Host) typeToValue(expr syntax.Node) *TypeValueReference {
	if expr.IsZero() {
		return nil
	}
	expr = syntax.Unparen(expr)
	ref := &TypeValueReference{Kind: TypeValueLocal, Expression: expr}
	switch {
	case expr.Is("undefined", "null") || syntax.IsVoidZero(expr):
		ref.Kind = TypeValueUnavailable
	case syntax.IsIdentifier(expr):
		if expr.Text() == "Object" {
			ref.Kind = TypeValueUnavailable
		} else if imp := h.GetImportOfIdentifier(expr); imp != nil {
			ref.Kind, ref.ModuleName, ref.ImportedName = TypeValueImported, imp.From, imp.Name
		}
	case expr.Kind() == "member_expression":
		if prop := expr.Field("property"); syntax.IsIdentifier(expr.Field("object")) {
			if imp := h.GetImportOfIdentifier(prop); imp != nil {
				ref.Kind, ref.ModuleName, ref.ImportedName = TypeValueImported, imp.From, imp.Name
			}
		}
	}
	return ref
}
