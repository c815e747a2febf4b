// # internal/engine/reflection/metadata.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// Static property names under which decorator metadata is stored.
const (
	decoratorsProperty     = "decorators"
	propDecoratorsProperty = "propDecorators"
	ctorParametersProperty = "ctorParameters"
)

// decoratorInfo is the metadata recovered for one class, from static
// properties or from decorator helper calls.
type decoratorInfo struct {
	// classDecorators is nil when the class has no decorator metadata.
	classDecorators  []Decorator
	memberNames      []string
	memberDecorators map[string][]Decorator
	// ctorParams is nil when no constructor parameter metadata exists.
	ctorParams []paramInfo
}

type paramInfo struct {
	typeExpression syntax.Node
	decorators     []Decorator
}

// staticAssignment is `X.name = value` for a name X the class goes by, or a
// static field of a class body.
type staticAssignment struct {
	Name  string
	Value syntax.Node
	Node  syntax.Node
}

// staticProperties lists the static assignments of cs in source order.
func (h *Host) staticProperties(cs *ClassSymbol) []staticAssignment {
	var out []staticAssignment
	if cs.Implementation.Is("class", "class_declaration") {
		for _, el := range classBody(cs.Implementation) {
			if el.Kind() != "field_definition" || !el.HasToken("static") {
				continue
			}
			name, ok := syntax.PropertyName(el.Field("property"))
			if !ok {
				continue
			}
			out = append(out, staticAssignment{Name: name, Value: el.Field("value"), Node: el})
		}
	}
	for _, scope := range cs.scopes {
		for _, stmt := range scope.statements {
			expr := syntax.ExpressionOf(stmt)
			if !syntax.IsAssignment(expr) {
				continue
			}
			obj, prop, ok := syntax.MemberParts(expr.Field("left"))
			if !ok || !scope.receives(obj) || prop == "prototype" {
				continue
			}
			out = append(out, staticAssignment{Name: prop, Value: expr.Field("right"), Node: stmt})
		}
	}
	return out
}

func classBody(class syntax.Node) []syntax.Node {
	return class.Field("body").NamedChildren()
}

func isMetadataProperty(name string) bool {
	switch name {
	case decoratorsProperty, propDecoratorsProperty, ctorParametersProperty:
		return true
	}
	return false
}

func (h *Host) acquireDecoratorInfo(cs *ClassSymbol) *decoratorInfo {
	return h.decoratorInfo.GetOrCompute(cs.Declaration.Key(), func() *decoratorInfo {
		info := &decoratorInfo{memberDecorators: make(map[string][]Decorator)}
		var hasClass, hasMembers, hasParams bool

		for _, prop := range h.staticProperties(cs) {
			switch prop.Name {
			case decoratorsProperty:
				if !hasClass {
					info.classDecorators, hasClass = h.reflectDecorators(prop.Value), true
				}
			case propDecoratorsProperty:
				if !hasMembers {
					h.reflectPropDecorators(info, prop.Value)
					hasMembers = true
				}
			case ctorParametersProperty:
				if !hasParams {
					info.ctorParams, hasParams = h.reflectCtorParameters(prop.Value)
				}
			}
		}

		helpers := h.helperCallInfo(cs)
		if !hasClass && helpers.classDecorators != nil {
			info.classDecorators = helpers.classDecorators
		}
		if !hasMembers {
			info.memberNames = helpers.memberNames
			info.memberDecorators = helpers.memberDecorators
		}
		if !hasParams {
			info.ctorParams = helpers.ctorParams
		}
		return info
	})
}

// GetDecoratorsOfDeclaration returns the class decorators of node, or nil
// when node is not a class or carries no decorator metadata.
func (h *Host) GetDecoratorsOfDeclaration(node syntax.Node) []Decorator {
	cs := h.GetClassSymbol(node)
	if cs == nil {
		return nil
	}
	return h.acquireDecoratorInfo(cs).classDecorators
}

// reflectDecorators reads `[{ type: X, args: [...] }, ...]`. Entries without
// a usable type are skipped; the result is never nil.
func (h *Host) reflectDecorators(arr syntax.Node) []Decorator {
	out := []Decorator{}
	elems, ok := syntax.ArrayElements(arr)
	if !ok {
		h.logger.Debug("decorators is not an array literal", "at", arr.Location())
		return out
	}
	for _, el := range elems {
		el = syntax.Unparen(el)
		typ, ok := syntax.LookupProperty(el, "type")
		if !ok {
			h.logger.Debug("skipping decorator entry without type", "at", el.Location())
			continue
		}
		ident := decoratorIdentifier(syntax.Unparen(typ))
		if ident.IsZero() {
			h.logger.Debug("skipping decorator with unsupported type expression", "at", typ.Location())
			continue
		}
		dec := Decorator{
			Name:       ident.Text(),
			Identifier: ident,
			Import:     h.GetImportOfIdentifier(ident),
			Node:       el,
			Args:       []syntax.Node{},
		}
		if args, ok := syntax.LookupProperty(el, "args"); ok {
			if elems, ok := syntax.ArrayElements(args); ok {
				dec.Args = elems
			}
		}
		out = append(out, dec)
	}
	return out
}

// decoratorIdentifier accepts `Dir` and `ns.Dir`.
func decoratorIdentifier(expr syntax.Node) syntax.Node {
	if syntax.IsIdentifier(expr) {
		return expr
	}
	if expr.Kind() == "member_expression" && syntax.IsIdentifier(expr.Field("object")) {
		return expr.Field("property")
	}
	return syntax.Node{}
}

// reflectPropDecorators reads `{ name: [{ type: X }], ... }`. Members with
// no usable decorators are left out.
func (h *Host) reflectPropDecorators(info *decoratorInfo, obj syntax.Node) {
	props := syntax.ObjectProperties(obj)
	if props == nil && syntax.Unparen(obj).Kind() != "object" {
		h.logger.Debug("propDecorators is not an object literal", "at", obj.Location())
		return
	}
	for _, prop := range props {
		decs := h.reflectDecorators(prop.Value)
		if len(decs) == 0 {
			continue
		}
		if _, seen := info.memberDecorators[prop.Name]; !seen {
			info.memberNames = append(info.memberNames, prop.Name)
		}
		info.memberDecorators[prop.Name] = decs
	}
}

// reflectCtorParameters reads an array of `{ type: T, decorators: [...] }`,
// or a function returning one. The second result is false when the value
// has none of these shapes.
func (h *Host) reflectCtorParameters(value syntax.Node) ([]paramInfo, bool) {
	value = syntax.Unparen(value)
	if syntax.IsFunctionExpression(value) || (syntax.IsArrowFunction(value) && h.allowsArrowThunks()) {
		value = syntax.Unparen(singleReturnExpression(value))
	}
	elems, ok := syntax.ArrayElements(value)
	if !ok {
		h.logger.Debug("ctorParameters has unsupported shape", "at", value.Location())
		return nil, false
	}
	out := make([]paramInfo, 0, len(elems))
	for _, el := range elems {
		el = syntax.Unparen(el)
		var pi paramInfo
		if el.Kind() == "object" {
			if typ, ok := syntax.LookupProperty(el, "type"); ok {
				pi.typeExpression = syntax.Unparen(typ)
			}
			if decs, ok := syntax.LookupProperty(el, "decorators"); ok {
				pi.decorators = h.reflectDecorators(decs)
			}
		}
		out = append(out, pi)
	}
	return out, true
}
