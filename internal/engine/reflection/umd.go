// # internal/engine/reflection/umd.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// umdPattern handles the wrapper
//
//	(function (global, factory) {
//	  typeof exports === 'object' ? factory(exports, require('a')) :
//	  typeof define === 'function' && define.amd ? define(['exports', 'a'], factory) :
//	  factory((global.x = {}), global.a);
//	}(this, function (exports, a) { ... }));
//
// The factory body is the module body; its parameters are module bindings.
type umdPattern struct{ declines }

func (umdPattern) name() string { return string(FormatUMD) }

func (umdPattern) moduleStatements(h *Host, f *syntax.File) ([]syntax.Node, bool) {
	m := h.umdModule(f)
	if m == nil {
		return nil, false
	}
	stmts, _ := syntax.Body(m.factory)
	return stmts, true
}

func (umdPattern) moduleOfBinding(h *Host, decl syntax.Node) (moduleRef, bool) {
	if !syntax.IsIdentifier(decl) || decl.Parent().Kind() != "formal_parameters" {
		return moduleRef{}, false
	}
	m := h.umdModule(decl.File())
	if m == nil {
		return moduleRef{}, false
	}
	for i, param := range syntax.Parameters(m.factory) {
		if !param.Same(decl) {
			continue
		}
		if i >= len(m.specifiers) || m.specifiers[i] == "" {
			return moduleRef{}, false
		}
		return h.resolveRef(m.specifiers[i], decl.File()), true
	}
	return moduleRef{}, false
}

func (umdPattern) exportsOf(h *Host, f *syntax.File) (*ExportMap, bool) {
	if h.umdModule(f) == nil {
		return nil, false
	}
	return h.commonJSExports(f), true
}

// umdModule is a parsed UMD wrapper. specifiers[i] is the module bound to
// the factory's i-th parameter, or "" for `exports` and unknown arguments.
type umdModule struct {
	wrapper    syntax.Node
	factory    syntax.Node
	specifiers []string
}

func (h *Host) umdModule(f *syntax.File) *umdModule {
	if f == nil {
		return nil
	}
	return h.umdModules.GetOrCompute(f.Path, func() *umdModule {
		return parseUMDModule(f)
	})
}

// IsUMDModule reports whether f is wrapped in a UMD factory call.
func IsUMDModule(f *syntax.File) bool {
	return parseUMDModule(f) != nil
}

func parseUMDModule(f *syntax.File) *umdModule {
	for _, stmt := range f.Statements() {
		if m := asUMDWrapper(syntax.ExpressionOf(stmt)); m != nil {
			return m
		}
	}
	return nil
}

func asUMDWrapper(expr syntax.Node) *umdModule {
	call, wrapper := asIIFE(expr)
	if call.IsZero() {
		return nil
	}
	params := syntax.Parameters(wrapper)
	args := syntax.CallArguments(call)
	factoryIndex := -1
	for i, p := range params {
		if syntax.IsIdentifier(p) && p.Text() == "factory" {
			factoryIndex = i
		}
	}
	if factoryIndex < 0 || factoryIndex >= len(args) {
		return nil
	}
	factory := syntax.Unparen(args[factoryIndex])
	if !syntax.IsFunctionExpression(factory) {
		return nil
	}
	m := &umdModule{wrapper: wrapper, factory: factory}
	m.specifiers = make([]string, len(syntax.Parameters(factory)))
	collectUMDDependencies(wrapper, m.specifiers)
	return m
}

// collectUMDDependencies reads the CommonJS `factory(exports, require(...))`
// call and the AMD `define([...], factory)` call. CommonJS wins where both
// name a dependency.
func collectUMDDependencies(wrapper syntax.Node, specifiers []string) {
	var amd []string
	syntax.Walk(wrapper.Field("body"), func(n syntax.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		callee := syntax.Unparen(syntax.Callee(n))
		if !syntax.IsIdentifier(callee) {
			return true
		}
		args := syntax.CallArguments(n)
		switch callee.Text() {
		case "factory":
			for i, arg := range args {
				if i >= len(specifiers) {
					break
				}
				if rc, ok := AsRequireCall(arg); ok && specifiers[i] == "" {
					specifiers[i] = rc.Specifier
				}
			}
		case "define":
			for _, arg := range args {
				if elems, ok := syntax.ArrayElements(arg); ok {
					amd = amd[:0]
					for _, e := range elems {
						s, _ := syntax.StringValue(e)
						amd = append(amd, s)
					}
				}
			}
		}
		return true
	})
	for i, s := range amd {
		if i < len(specifiers) && specifiers[i] == "" && s != "exports" && s != "require" && s != "module" {
			specifiers[i] = s
		}
	}
}
