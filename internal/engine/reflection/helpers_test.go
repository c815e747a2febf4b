package reflection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ngreflect/internal/engine/parser"
	"ngreflect/internal/engine/program"
	"ngreflect/internal/engine/syntax"
)

func newTestParser(t *testing.T) *parser.Parser {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	return parser.NewParser(loader)
}

func newTestProgram(t *testing.T, sources, packages map[string]string) *program.Program {
	t.Helper()
	prog, err := program.FromSources(newTestParser(t), sources, packages)
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	return prog
}

func newTestProgramWith(t *testing.T, p *parser.Parser, sources map[string]string) *program.Program {
	t.Helper()
	prog, err := program.FromSources(p, sources, nil)
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	return prog
}

func newTestHost(t *testing.T, format Format, sources map[string]string, packages map[string]string) *Host {
	t.Helper()
	h, err := NewHost(format, newTestProgram(t, sources, packages), Options{})
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func mustFile(t *testing.T, h *Host, path string) *syntax.File {
	t.Helper()
	f, ok := h.Program().File(path)
	require.True(t, ok, "file %s not in program", path)
	return f
}

// findNamed returns the first node of kind whose name field reads name.
func findNamed(t *testing.T, f *syntax.File, kind, name string) syntax.Node {
	t.Helper()
	var found syntax.Node
	syntax.Walk(f.Root(), func(n syntax.Node) bool {
		if !found.IsZero() {
			return false
		}
		if n.Kind() == kind && n.Field("name").Text() == name {
			found = n
			return false
		}
		return true
	})
	require.False(t, found.IsZero(), "no %s named %s", kind, name)
	return found
}

func findDeclarator(t *testing.T, f *syntax.File, name string) syntax.Node {
	t.Helper()
	return findNamed(t, f, "variable_declarator", name)
}

// findFirst returns the first node of kind whose text is text.
func findFirst(t *testing.T, f *syntax.File, kind, text string) syntax.Node {
	t.Helper()
	var found syntax.Node
	syntax.Walk(f.Root(), func(n syntax.Node) bool {
		if !found.IsZero() {
			return false
		}
		if n.Kind() == kind && n.Text() == text {
			found = n
			return false
		}
		return true
	})
	require.False(t, found.IsZero(), "no %s reading %q", kind, text)
	return found
}

func TestKnownHelper(t *testing.T) {
	cases := map[string]KnownDeclaration{
		"__assign":         TsHelperAssign,
		"__spread$1":       TsHelperSpread,
		"__spreadArrays_2": TsHelperSpreadArrays,
		"__spreadArray":    TsHelperSpreadArray,
		"__read":           TsHelperRead,
	}
	for name, want := range cases {
		got, ok := KnownHelper(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}
	_, ok := KnownHelper("__decorate")
	require.False(t, ok)
}

func TestHelperResolution(t *testing.T) {
	src := `
var __assign = (this && this.__assign) || function () {};
var x = __assign({}, y);
var z = __spread$1(a);
var r = __read(b);
var q = tslib_1.__spreadArray([], c);
var o = Object.keys(x);
import { __read } from 'tslib';
import * as tslib_1 from 'tslib';
`
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": src}, nil)
	f := mustFile(t, h, "/src/index.js")

	callee := func(decl string) syntax.Node {
		return syntax.Callee(findDeclarator(t, f, decl).Field("value"))
	}

	d := h.GetDeclarationOfExpression(callee("x"))
	require.IsType(t, &ConcreteDeclaration{}, d)
	require.Equal(t, TsHelperAssign, d.KnownAs())

	d = h.GetDeclarationOfExpression(callee("z"))
	require.IsType(t, &InlineDeclaration{}, d)
	require.Equal(t, TsHelperSpread, d.KnownAs())

	d = h.GetDeclarationOfExpression(callee("r"))
	require.IsType(t, &InlineDeclaration{}, d)
	require.Equal(t, TsHelperRead, d.KnownAs())
	require.Equal(t, "tslib", d.Via())

	d = h.GetDeclarationOfExpression(callee("q"))
	require.IsType(t, &InlineDeclaration{}, d)
	require.Equal(t, TsHelperSpreadArray, d.KnownAs())

	object := syntax.Callee(findDeclarator(t, f, "o").Field("value")).Field("object")
	d = h.GetDeclarationOfExpression(object)
	require.Equal(t, JsGlobalObject, d.KnownAs())
}
