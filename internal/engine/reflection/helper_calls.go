// # internal/engine/reflection/helper_calls.go
package reflection

import (
	"strconv"

	"ngreflect/internal/engine/syntax"
)

// helperCall is one `__decorate([...], target, ...)` call found in a
// statement list.
type helperCall struct {
	call       syntax.Node
	decorators []syntax.Node
	// target is the class name for class decorators, or the object of
	// `X.prototype` / `X` for member decorators.
	target   syntax.Node
	member   string
	isStatic bool
	isClass  bool
}

// helperCallsIn scans the statements of a block for __decorate calls. The
// result is memoized per block.
func (h *Host) helperCallsIn(scope metadataScope) []helperCall {
	if len(scope.statements) == 0 {
		return nil
	}
	block := scope.statements[0].Parent()
	return h.helperCalls.GetOrCompute(block.Key(), func() []helperCall {
		var out []helperCall
		for _, stmt := range scope.statements {
			expr := syntax.ExpressionOf(stmt)
			// X = X_1 = __decorate([...], X)
			for syntax.IsAssignment(expr) {
				expr = syntax.Unparen(expr.Field("right"))
			}
			if !isHelperCall(expr, "__decorate") {
				continue
			}
			if hc, ok := asDecorateCall(syntax.Unparen(expr)); ok {
				out = append(out, hc)
			}
		}
		return out
	})
}

func asDecorateCall(call syntax.Node) (helperCall, bool) {
	args := syntax.CallArguments(call)
	if len(args) < 2 {
		return helperCall{}, false
	}
	decorators, ok := syntax.ArrayElements(args[0])
	if !ok {
		return helperCall{}, false
	}
	hc := helperCall{call: call, decorators: decorators}
	target := syntax.Unparen(args[1])
	if len(args) == 2 {
		if !syntax.IsIdentifier(target) {
			return helperCall{}, false
		}
		hc.target, hc.isClass = target, true
		return hc, true
	}
	name, ok := syntax.StringValue(args[2])
	if !ok {
		return helperCall{}, false
	}
	hc.member = name
	if obj, prop, ok := syntax.MemberParts(target); ok && prop == "prototype" && syntax.IsIdentifier(obj) {
		hc.target = obj
		return hc, true
	}
	if syntax.IsIdentifier(target) {
		hc.target, hc.isStatic = target, true
		return hc, true
	}
	return helperCall{}, false
}

// helperCallInfo gathers the decorator metadata expressed through helper
// calls that target cs.
func (h *Host) helperCallInfo(cs *ClassSymbol) *decoratorInfo {
	info := &decoratorInfo{memberDecorators: make(map[string][]Decorator)}
	for _, scope := range cs.scopes {
		for _, hc := range h.helperCallsIn(scope) {
			if !scope.receives(hc.target) {
				continue
			}
			if hc.isClass {
				h.reflectClassHelperCall(info, hc)
				continue
			}
			decs := h.reflectDecoratorCalls(hc.decorators)
			if len(decs) == 0 {
				continue
			}
			if _, seen := info.memberDecorators[hc.member]; !seen {
				info.memberNames = append(info.memberNames, hc.member)
			}
			info.memberDecorators[hc.member] = append(info.memberDecorators[hc.member], decs...)
		}
	}
	return info
}

// reflectClassHelperCall splits the decorator list of a class __decorate
// call into class decorators, __param parameter decorators and the
// design:paramtypes metadata.
func (h *Host) reflectClassHelperCall(info *decoratorInfo, hc helperCall) {
	var types []syntax.Node
	params := map[int][]Decorator{}
	count := 0

	var classDecorators []Decorator
	for _, el := range hc.decorators {
		el = syntax.Unparen(el)
		switch {
		case isHelperCall(el, "__param"):
			args := syntax.CallArguments(el)
			if len(args) != 2 {
				continue
			}
			index, ok := numberValue(args[0])
			if !ok {
				continue
			}
			if dec, ok := h.reflectDecoratorCall(args[1]); ok {
				params[index] = append(params[index], dec)
				count = max(count, index+1)
			}
		case isHelperCall(el, "__metadata"):
			args := syntax.CallArguments(el)
			if len(args) != 2 {
				continue
			}
			if key, _ := syntax.StringValue(args[0]); key != "design:paramtypes" {
				continue
			}
			if elems, ok := syntax.ArrayElements(args[1]); ok {
				types = elems
				count = max(count, len(elems))
			}
		default:
			if dec, ok := h.reflectDecoratorCall(el); ok {
				classDecorators = append(classDecorators, dec)
			}
		}
	}
	if classDecorators != nil {
		info.classDecorators = append(info.classDecorators, classDecorators...)
	}
	if count == 0 {
		return
	}
	info.ctorParams = make([]paramInfo, count)
	for i := range info.ctorParams {
		if i < len(types) {
			info.ctorParams[i].typeExpression = syntax.Unparen(types[i])
		}
		info.ctorParams[i].decorators = params[i]
	}
}

func (h *Host) reflectDecoratorCalls(elems []syntax.Node) []Decorator {
	var out []Decorator
	for _, el := range elems {
		el = syntax.Unparen(el)
		if isHelperCall(el, "__metadata") || isHelperCall(el, "__param") {
			continue
		}
		if dec, ok := h.reflectDecoratorCall(el); ok {
			out = append(out, dec)
		}
	}
	return out
}

// reflectDecoratorCall reads one decorator expression of a __decorate call:
// `Dir`, `Dir(args)`, `ns.Dir` or `ns.Dir(args)`.
func (h *Host) reflectDecoratorCall(expr syntax.Node) (Decorator, bool) {
	expr = syntax.Unparen(expr)
	args := []syntax.Node{}
	target := expr
	if expr.Kind() == "call_expression" {
		target = syntax.Unparen(syntax.Callee(expr))
		args = syntax.CallArguments(expr)
		if args == nil {
			args = []syntax.Node{}
		}
	}
	ident := decoratorIdentifier(target)
	if ident.IsZero() {
		h.logger.Debug("skipping decorator with unsupported expression", "at", expr.Location())
		return Decorator{}, false
	}
	return Decorator{
		Name:       ident.Text(),
		Identifier: ident,
		Import:     h.GetImportOfIdentifier(ident),
		Node:       expr,
		Args:       args,
	}, true
}

func numberValue(n syntax.Node) (int, bool) {
	n = syntax.Unparen(n)
	if n.Kind() != "number" {
		return 0, false
	}
	v, err := strconv.Atoi(n.Text())
	return v, err == nil
}
