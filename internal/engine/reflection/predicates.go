// # internal/engine/reflection/predicates.go
package reflection

import (
	"regexp"

	"ngreflect/internal/engine/program"
	"ngreflect/internal/engine/syntax"
)

// RequireCall is a `require('specifier')` call.
type RequireCall struct {
	Call      syntax.Node
	Specifier string
}

// AsRequireCall matches a require call with exactly one string argument.
func AsRequireCall(n syntax.Node) (RequireCall, bool) {
	n = syntax.Unparen(n)
	if n.Kind() != "call_expression" {
		return RequireCall{}, false
	}
	callee := n.Field("function")
	if !syntax.IsIdentifier(callee) || callee.Text() != "require" {
		return RequireCall{}, false
	}
	args := syntax.CallArguments(n)
	if len(args) != 1 {
		return RequireCall{}, false
	}
	spec, ok := syntax.StringValue(args[0])
	if !ok {
		return RequireCall{}, false
	}
	return RequireCall{Call: n, Specifier: spec}, true
}

// ExportsStatement is `exports.NAME = EXPR;`. Chained assignments such as
// `exports.a = exports.b = void 0;` list every name against the final value.
type ExportsStatement struct {
	Statement syntax.Node
	Names     []string
	Value     syntax.Node
}

func AsExportsStatement(stmt syntax.Node) (ExportsStatement, bool) {
	expr := syntax.ExpressionOf(stmt)
	if !syntax.IsAssignment(expr) || !isExportsMember(expr.Field("left")) {
		return ExportsStatement{}, false
	}
	out := ExportsStatement{Statement: stmt}
	cur := expr
	for syntax.IsAssignment(cur) && isExportsMember(cur.Field("left")) {
		_, name, _ := syntax.MemberParts(cur.Field("left"))
		out.Names = append(out.Names, name)
		cur = syntax.Unparen(cur.Field("right"))
	}
	out.Value = cur
	return out, true
}

func isExportsMember(n syntax.Node) bool {
	obj, _, ok := syntax.MemberParts(n)
	return ok && syntax.IsIdentifier(obj) && obj.Text() == "exports"
}

// WildcardReexportStatement is `__export(x)` or `__exportStar(x, exports)`,
// with the helper either inlined or reached through a namespace.
type WildcardReexportStatement struct {
	Statement syntax.Node
	Call      syntax.Node
	Argument  syntax.Node
}

func AsWildcardReexportStatement(stmt syntax.Node) (WildcardReexportStatement, bool) {
	call := syntax.Unparen(syntax.ExpressionOf(stmt))
	if call.Kind() != "call_expression" {
		return WildcardReexportStatement{}, false
	}
	name := calleeName(call)
	if name == "" {
		return WildcardReexportStatement{}, false
	}
	if base := stripHelperSuffix(name); base != "__export" && base != "__exportStar" {
		return WildcardReexportStatement{}, false
	}
	args := syntax.CallArguments(call)
	if len(args) == 0 {
		return WildcardReexportStatement{}, false
	}
	return WildcardReexportStatement{Statement: stmt, Call: call, Argument: args[0]}, true
}

// calleeName returns the called name for `f(...)` and `ns.f(...)`.
func calleeName(call syntax.Node) string {
	callee := syntax.Unparen(syntax.Callee(call))
	if syntax.IsIdentifier(callee) {
		return callee.Text()
	}
	if obj, prop, ok := syntax.MemberParts(callee); ok && syntax.IsIdentifier(obj) {
		return prop
	}
	return ""
}

// DefinePropertyReexportStatement is
// `Object.defineProperty(exports, "NAME", { get: function () { return EXPR; } })`.
type DefinePropertyReexportStatement struct {
	Statement  syntax.Node
	Name       string
	NameNode   syntax.Node
	Descriptor syntax.Node
}

func AsDefinePropertyReexportStatement(stmt syntax.Node) (DefinePropertyReexportStatement, bool) {
	call := syntax.Unparen(syntax.ExpressionOf(stmt))
	if call.Kind() != "call_expression" || !syntax.IsMemberOf(call.Field("function"), "Object", "defineProperty") {
		return DefinePropertyReexportStatement{}, false
	}
	args := syntax.CallArguments(call)
	if len(args) != 3 {
		return DefinePropertyReexportStatement{}, false
	}
	if !syntax.IsIdentifier(args[0]) || args[0].Text() != "exports" {
		return DefinePropertyReexportStatement{}, false
	}
	name, ok := syntax.StringValue(args[1])
	if !ok {
		return DefinePropertyReexportStatement{}, false
	}
	if _, ok := syntax.LookupProperty(args[2], "get"); !ok {
		return DefinePropertyReexportStatement{}, false
	}
	return DefinePropertyReexportStatement{Statement: stmt, Name: name, NameNode: args[1], Descriptor: syntax.Unparen(args[2])}, true
}

// GetterReturnExpression returns EXPR when the descriptor's getter consists
// of a single `return EXPR;` statement.
func (s DefinePropertyReexportStatement) GetterReturnExpression() syntax.Node {
	getter, _ := syntax.LookupProperty(s.Descriptor, "get")
	return singleReturnExpression(getter)
}

func singleReturnExpression(fn syntax.Node) syntax.Node {
	fn = syntax.Unparen(fn)
	if !syntax.IsFunctionExpression(fn) && fn.Kind() != "method_definition" && !syntax.IsArrowFunction(fn) {
		return syntax.Node{}
	}
	stmts, expr := syntax.Body(fn)
	if !expr.IsZero() {
		return expr
	}
	if len(stmts) != 1 {
		return syntax.Node{}
	}
	return syntax.ReturnExpression(stmts[0])
}

// IsExternalImport reports whether path names a package rather than a file
// relative to the importer.
func IsExternalImport(path string) bool {
	return !program.IsRelative(path)
}

// FindNamespaceOfIdentifier returns `ns` when id is the property of an
// `ns.Member` access whose object is a plain identifier.
func FindNamespaceOfIdentifier(id syntax.Node) syntax.Node {
	parent := id.Parent()
	if parent.Kind() != "member_expression" || !parent.Field("property").Same(id) {
		return syntax.Node{}
	}
	obj := parent.Field("object")
	if !syntax.IsIdentifier(obj) {
		return syntax.Node{}
	}
	return obj
}

// FindRequireCallReference returns the require call initialising the
// variable that id refers to.
func FindRequireCallReference(id syntax.Node, checker *program.Checker) (RequireCall, bool) {
	decl := checker.DeclarationOf(id)
	if decl.Kind() != "variable_declarator" {
		return RequireCall{}, false
	}
	return AsRequireCall(decl.Field("value"))
}

var superParam = regexp.MustCompile(`^_super(_\d+)?$`)

// IsSuperParameterName matches `_super` and collision-renamed `_super_1`.
func IsSuperParameterName(name string) bool {
	return superParam.MatchString(name)
}
