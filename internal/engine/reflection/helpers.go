package reflection

import (
	"regexp"

	"ngreflect/internal/engine/syntax"
)

var knownHelpers = map[string]KnownDeclaration{
	"__assign":       TsHelperAssign,
	"__spread":       TsHelperSpread,
	"__spreadArrays": TsHelperSpreadArrays,
	"__spreadArray":  TsHelperSpreadArray,
	"__read":         TsHelperRead,
}

// Bundlers append `$1` and compilers `_1` to helper names that collide.
var helperSuffix = regexp.MustCompile(`(\$\d+|_\d+)$`)

func stripHelperSuffix(name string) string {
	return helperSuffix.ReplaceAllString(name, "")
}

// KnownHelper returns the helper a name refers to, if any.
func KnownHelper(name string) (KnownDeclaration, bool) {
	k, ok := knownHelpers[stripHelperSuffix(name)]
	return k, ok
}

// knownFromDeclaration tags local declarations of helpers, e.g. an inlined
// `var __assign = ...` or `function __spread() {}`.
func knownFromDeclaration(decl syntax.Node) KnownDeclaration {
	if !decl.Is("function_declaration", "variable_declarator") {
		return KnownNone
	}
	name := decl.Field("name")
	if !syntax.IsIdentifier(name) {
		return KnownNone
	}
	k, _ := KnownHelper(name.Text())
	return k
}

// isHelperCall matches calls to a tslib helper by base name, bare or
// namespaced: `__decorate(...)`, `tslib_1.__decorate(...)`.
func isHelperCall(call syntax.Node, helper string) bool {
	call = syntax.Unparen(call)
	if call.Kind() != "call_expression" {
		return false
	}
	return stripHelperSuffix(calleeName(call)) == helper
}

// spreadsArguments matches `arguments` and the helper forms compilers use to
// spread it: __spread(arguments), __spreadArray([], __read(arguments)).
func spreadsArguments(h *Host, n syntax.Node) bool {
	n = syntax.Unparen(n)
	if syntax.IsIdentifier(n) && n.Text() == "arguments" {
		return true
	}
	if n.Kind() != "call_expression" {
		return false
	}
	callee := syntax.Callee(n)
	var known KnownDeclaration
	if d := h.GetDeclarationOfExpression(callee); d != nil {
		known = d.KnownAs()
	}
	args := syntax.CallArguments(n)
	switch known {
	case TsHelperSpread, TsHelperSpreadArrays, TsHelperRead:
		return len(args) == 1 && spreadsArguments(h, args[0])
	case TsHelperSpreadArray:
		if len(args) < 2 {
			return false
		}
		if elems, ok := syntax.ArrayElements(args[0]); !ok || len(elems) != 0 {
			return false
		}
		return spreadsArguments(h, args[1])
	}
	return false
}
