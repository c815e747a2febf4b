// # internal/engine/reflection/members.go
package reflection

import (
	"ngreflect/internal/core/errors"
	"ngreflect/internal/engine/syntax"
)

func notAClass(operation string, node syntax.Node) error {
	err := errors.Newf(errors.CodeNotAClass, "attempted to get %s of a non-class: %q", operation, node.Text())
	err = errors.AddContext(err, errors.CtxOperation, operation)
	return errors.AddContext(err, errors.CtxNode, node.Location())
}

// GetMembersOfClass lists the members of a class in declaration order:
// class body elements, then members assigned after the class, then
// properties known only from decorator metadata.
func (h *Host) GetMembersOfClass(node syntax.Node) ([]ClassMember, error) {
	cs := h.GetClassSymbol(node)
	if cs == nil {
		return nil, notAClass("members", node)
	}
	info := h.acquireDecoratorInfo(cs)
	pending := make(map[string][]Decorator, len(info.memberDecorators))
	for name, decs := range info.memberDecorators {
		pending[name] = decs
	}
	take := func(name string) []Decorator {
		decs := pending[name]
		delete(pending, name)
		return decs
	}

	var members []ClassMember
	if cs.Implementation.Is("class", "class_declaration") {
		members = append(members, h.classBodyMembers(cs, take)...)
	}
	for _, scope := range cs.scopes {
		for _, stmt := range scope.statements {
			members = append(members, assignedMembers(scope, stmt, take)...)
		}
	}
	for _, name := range info.memberNames {
		if decs, ok := pending[name]; ok {
			members = append(members, ClassMember{Name: name, Kind: MemberProperty, Decorators: decs})
		}
	}
	return members, nil
}

func (h *Host) classBodyMembers(cs *ClassSymbol, take func(string) []Decorator) []ClassMember {
	var out []ClassMember
	for _, el := range classBody(cs.Implementation) {
		switch el.Kind() {
		case "method_definition":
			name, ok := syntax.PropertyName(el.Field("name"))
			if !ok || name == "constructor" {
				continue
			}
			kind := MemberMethod
			if el.HasToken("get") {
				kind = MemberGetter
			} else if el.HasToken("set") {
				kind = MemberSetter
			}
			out = append(out, ClassMember{
				Name: name, Kind: kind, IsStatic: el.HasToken("static"),
				Node: el, Implementation: el, Decorators: take(name),
			})
		case "field_definition", "public_field_definition":
			name, ok := syntax.PropertyName(el.Field("property"))
			if !ok {
				continue
			}
			static := el.HasToken("static")
			if static && isMetadataProperty(name) {
				continue
			}
			out = append(out, ClassMember{
				Name: name, Kind: MemberProperty, IsStatic: static,
				Node: el, Value: el.Field("value"), Decorators: take(name),
			})
		}
	}
	return out
}

// assignedMembers reads members added outside a class body:
// `X.prototype.m = ...`, `X.s = ...` and Object.defineProperty accessors.
func assignedMembers(scope metadataScope, stmt syntax.Node, take func(string) []Decorator) []ClassMember {
	expr := syntax.ExpressionOf(stmt)
	if syntax.IsAssignment(expr) {
		obj, prop, ok := syntax.MemberParts(expr.Field("left"))
		if !ok {
			return nil
		}
		value := expr.Field("right")
		if scope.receives(obj) {
			if prop == "prototype" || isMetadataProperty(prop) {
				return nil
			}
			return []ClassMember{memberFromValue(prop, value, stmt, true, take)}
		}
		if isPrototypeOf(scope, obj) {
			return []ClassMember{memberFromValue(prop, value, stmt, false, take)}
		}
		return nil
	}

	call := syntax.Unparen(expr)
	if call.Kind() != "call_expression" || !syntax.IsMemberOf(syntax.Callee(call), "Object", "defineProperty") {
		return nil
	}
	args := syntax.CallArguments(call)
	if len(args) != 3 {
		return nil
	}
	target := syntax.Unparen(args[0])
	static := scope.receives(target)
	if !static && !isPrototypeOf(scope, target) {
		return nil
	}
	name, ok := syntax.StringValue(args[1])
	if !ok {
		return nil
	}
	return accessorMembers(name, args[2], stmt, static, take)
}

func isPrototypeOf(scope metadataScope, n syntax.Node) bool {
	obj, prop, ok := syntax.MemberParts(n)
	return ok && prop == "prototype" && scope.receives(obj)
}

func memberFromValue(name string, value, stmt syntax.Node, static bool, take func(string) []Decorator) ClassMember {
	m := ClassMember{Name: name, IsStatic: static, Node: stmt, Decorators: take(name)}
	if v := syntax.Unparen(value); syntax.IsFunctionExpression(v) || syntax.IsArrowFunction(v) {
		m.Kind, m.Implementation = MemberMethod, v
		return m
	}
	m.Kind, m.Value = MemberProperty, value
	return m
}

// accessorMembers rebuilds the getter and setter of a defineProperty
// descriptor. The setter comes first and takes the decorators, so that a
// pair never carries the same decorators twice.
func accessorMembers(name string, descriptor, stmt syntax.Node, static bool, take func(string) []Decorator) []ClassMember {
	var out []ClassMember
	if set, ok := syntax.LookupProperty(descriptor, "set"); ok {
		out = append(out, ClassMember{
			Name: name, Kind: MemberSetter, IsStatic: static,
			Node: stmt, Implementation: set, Decorators: take(name),
		})
	}
	if get, ok := syntax.LookupProperty(descriptor, "get"); ok {
		out = append(out, ClassMember{
			Name: name, Kind: MemberGetter, IsStatic: static,
			Node: stmt, Implementation: get, Decorators: take(name),
		})
	}
	return out
}
