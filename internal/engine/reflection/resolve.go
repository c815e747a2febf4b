// # internal/engine/reflection/resolve.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// GetDeclarationOfIdentifier traces id to the declaration that introduces
// it. It returns nil when the identifier cannot be traced.
func (h *Host) GetDeclarationOfIdentifier(id syntax.Node) Declaration {
	if !id.Is("identifier", "shorthand_property_identifier") {
		return nil
	}
	decl := h.checker.DeclarationOf(id)
	if decl.IsZero() {
		return freeIdentifier(id)
	}
	return h.declarationFromNode(decl, id)
}

// freeIdentifier resolves a name with no declaration in scope: compiler
// helpers referenced by convention and the global Object.
func freeIdentifier(id syntax.Node) Declaration {
	if known, ok := KnownHelper(id.Text()); ok {
		return &InlineDeclaration{Expression: id, Known: known}
	}
	if id.Text() == "Object" {
		return &InlineDeclaration{Expression: id, Known: JsGlobalObject}
	}
	return nil
}

// declarationFromNode walks alias chains from decl iteratively. The visited
// set guarantees termination on cyclic aliases.
func (h *Host) declarationFromNode(decl, ref syntax.Node) Declaration {
	visited := make(map[syntax.Key]bool)
	for !visited[decl.Key()] {
		visited[decl.Key()] = true

		if mref, ok := h.moduleOfBinding(decl); ok {
			return h.declarationOfModuleRef(mref, ref)
		}
		next, ok := h.aliasTarget(decl)
		if !ok {
			break
		}
		nextDecl := h.checker.DeclarationOf(next)
		if nextDecl.IsZero() {
			return freeIdentifier(next)
		}
		decl, ref = nextDecl, next
	}

	if cs := h.GetClassSymbol(decl); cs != nil {
		decl = cs.Declaration
	}
	out := &ConcreteDeclaration{Node: decl, Known: knownFromDeclaration(decl)}
	out.Identity = h.enumIdentity(decl)
	return out
}

func externalVia(specifier string) string {
	if IsExternalImport(specifier) {
		return specifier
	}
	return ""
}

func (h *Host) declarationOfModuleRef(ref moduleRef, expr syntax.Node) Declaration {
	via := externalVia(ref.Specifier)
	if !ref.Named {
		if ref.File == nil {
			return &ImportedDeclaration{Expression: expr, Module: ref.Specifier}
		}
		return &ConcreteDeclaration{Node: ref.File.Root(), ViaModule: via}
	}
	if ref.File == nil {
		if known, ok := KnownHelper(ref.ImportedName); ok && ref.Specifier == "tslib" {
			return &InlineDeclaration{Expression: expr, Known: known, ViaModule: ref.Specifier}
		}
		return &ImportedDeclaration{Expression: expr, Module: ref.Specifier, Name: ref.ImportedName}
	}
	d, ok := h.GetExportsOfModule(ref.File).Get(ref.ImportedName)
	if !ok {
		return nil
	}
	return withVia(d, via)
}

// GetDeclarationOfExpression resolves identifiers and `ns.member` accesses
// where `ns` stands for a module.
func (h *Host) GetDeclarationOfExpression(expr syntax.Node) Declaration {
	expr = syntax.Unparen(expr)
	switch expr.Kind() {
	case "identifier":
		return h.GetDeclarationOfIdentifier(expr)
	case "member_expression":
		obj, prop, _ := syntax.MemberParts(expr)
		if !syntax.IsIdentifier(obj) {
			return nil
		}
		switch ns := h.GetDeclarationOfIdentifier(obj).(type) {
		case *ConcreteDeclaration:
			if ns.Node.Kind() != "program" {
				return nil
			}
			d, ok := h.GetExportsOfModule(ns.Node.File()).Get(prop)
			if !ok {
				return nil
			}
			return withVia(d, ns.ViaModule)
		case *ImportedDeclaration:
			if ns.Name != "" {
				return nil
			}
			if known, ok := KnownHelper(prop); ok && ns.Module == "tslib" {
				return &InlineDeclaration{Expression: expr, Known: known, ViaModule: ns.Module}
			}
			return &ImportedDeclaration{Expression: expr, Module: ns.Module, Name: prop}
		}
	}
	return nil
}

// aliasTarget follows an uninitialised `var A;` to the value it is given
// later in the same block, either by `A = B;` or by a chained class binding
// such as `let X = A = class X {}`.
func (h *Host) aliasTarget(decl syntax.Node) (syntax.Node, bool) {
	if decl.Kind() != "variable_declarator" || !decl.Field("value").IsZero() {
		return syntax.Node{}, false
	}
	name := decl.Field("name")
	if !syntax.IsIdentifier(name) {
		return syntax.Node{}, false
	}
	container := decl.Parent().Parent()
	if !syntax.IsStatementContainer(container) {
		return syntax.Node{}, false
	}
	for _, stmt := range container.NamedChildren() {
		if expr := syntax.ExpressionOf(stmt); syntax.IsAssignment(expr) {
			left := expr.Field("left")
			right := syntax.Unparen(expr.Field("right"))
			if syntax.IsIdentifier(left) && left.Text() == name.Text() && syntax.IsIdentifier(right) &&
				h.checker.DeclarationOf(left).Same(decl) {
				return right, true
			}
		}
		for _, d := range syntax.Declarators(stmt) {
			value := syntax.Unparen(d.Field("value"))
			for syntax.IsAssignment(value) {
				left := value.Field("left")
				if syntax.IsIdentifier(left) && left.Text() == name.Text() {
					return d.Field("name"), true
				}
				value = syntax.Unparen(value.Field("right"))
			}
		}
	}
	return syntax.Node{}, false
}

// enumIdentity recognises
//
//	var E;
//	(function (E) { E["A"] = "a"; E[E["B"] = 1] = "B"; })(E || (E = {}));
//
// and returns the members. Every statement of the IIFE must assign a member
// and the call must pass an argument.
func (h *Host) enumIdentity(decl syntax.Node) *EnumIdentity {
	if decl.Kind() != "variable_declarator" || !decl.Field("value").IsZero() {
		return nil
	}
	return h.enums.GetOrCompute(decl.Key(), func() *EnumIdentity {
		stmt := decl.Parent()
		container := stmt.Parent()
		if !syntax.IsStatementContainer(container) {
			return nil
		}
		siblings := container.NamedChildren()
		next := syntax.Node{}
		for i, s := range siblings {
			if s.Same(stmt) && i+1 < len(siblings) {
				next = siblings[i+1]
				break
			}
		}
		call := syntax.Unparen(syntax.ExpressionOf(next))
		if call.Kind() != "call_expression" || len(syntax.CallArguments(call)) == 0 {
			return nil
		}
		fn := syntax.Unparen(syntax.Callee(call))
		if !syntax.IsFunctionExpression(fn) {
			return nil
		}
		params := syntax.Parameters(fn)
		if len(params) != 1 || !syntax.IsIdentifier(params[0]) {
			return nil
		}
		enumName := params[0].Text()
		stmts, _ := syntax.Body(fn)
		if len(stmts) == 0 {
			return nil
		}
		identity := &EnumIdentity{}
		for _, s := range stmts {
			member, ok := reflectEnumMember(enumName, s)
			if !ok {
				return nil
			}
			identity.Members = append(identity.Members, member)
		}
		return identity
	})
}

func reflectEnumMember(enumName string, stmt syntax.Node) (EnumMember, bool) {
	expr := syntax.ExpressionOf(stmt)
	if m, ok := reflectEnumAssignment(enumName, expr); ok {
		return m, true
	}
	// E[E["X"] = 0] = "X"
	if !syntax.IsAssignment(expr) {
		return EnumMember{}, false
	}
	left := expr.Field("left")
	if !isEnumAccess(enumName, left) {
		return EnumMember{}, false
	}
	return reflectEnumAssignment(enumName, syntax.Unparen(left.Field("index")))
}

func reflectEnumAssignment(enumName string, expr syntax.Node) (EnumMember, bool) {
	if !syntax.IsAssignment(expr) {
		return EnumMember{}, false
	}
	left := expr.Field("left")
	if !isEnumAccess(enumName, left) {
		return EnumMember{}, false
	}
	index := syntax.Unparen(left.Field("index"))
	name, ok := syntax.StringValue(index)
	if !ok {
		return EnumMember{}, false
	}
	return EnumMember{Name: name, NameNode: index, Initializer: expr.Field("right")}, true
}

func isEnumAccess(enumName string, n syntax.Node) bool {
	if n.Kind() != "subscript_expression" {
		return false
	}
	obj := n.Field("object")
	return syntax.IsIdentifier(obj) && obj.Text() == enumName
}
