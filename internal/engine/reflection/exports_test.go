package reflection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonJSExports_SameLocalDeclaration(t *testing.T) {
	src := `
var a = 'a';
exports.a = a;
exports.b = a;
`
	h := newTestHost(t, FormatCommonJS, map[string]string{"/pkg/index.js": src}, nil)
	f := mustFile(t, h, "/pkg/index.js")

	exports := h.GetExportsOfModule(f)
	require.Equal(t, []string{"a", "b"}, exports.Names())
	a, _ := exports.Get("a")
	b, _ := exports.Get("b")
	require.IsType(t, &ConcreteDeclaration{}, a)
	decl := findDeclarator(t, f, "a")
	assert.True(t, DeclarationNode(a).Same(decl))
	assert.True(t, DeclarationNode(b).Same(decl))
}

func TestCommonJSExports_DirectBeforeReexports(t *testing.T) {
	index := `
var a = 'a';
exports.a = a;
__export(require('./mod'));
Object.defineProperty(exports, "c", { enumerable: true, get: function () { return mod_1.c; } });
Object.defineProperty(exports, "d", { enumerable: true, get: function () { return mod_1.y; } });
Object.defineProperty(exports, "__esModule", { value: true });
var mod_1 = require('./mod');
exports.x = 'direct';
exports.z = exports.w = void 0;
`
	mod := `
exports.x = 1;
exports.y = 2;
exports.c = 3;
`
	h := newTestHost(t, FormatCommonJS, map[string]string{"/pkg/index.js": index, "/pkg/mod.js": mod}, nil)
	f := mustFile(t, h, "/pkg/index.js")

	exports := h.GetExportsOfModule(f)
	want := []string{"a", "x", "z", "w", "y", "c", "d"}
	if diff := cmp.Diff(want, exports.Names()); diff != "" {
		t.Fatalf("export names mismatch (-want +got):\n%s", diff)
	}

	x, _ := exports.Get("x")
	require.IsType(t, &InlineDeclaration{}, x)
	assert.Equal(t, "'direct'", DeclarationNode(x).Text(), "a direct export wins over a re-export")

	y, _ := exports.Get("y")
	assert.Equal(t, "", y.Via(), "relative re-exports are not tagged")
	assert.Equal(t, "/pkg/mod.js", DeclarationNode(y).File().Path)

	d, _ := exports.Get("d")
	assert.Equal(t, "2", DeclarationNode(d).Text())
}

func TestCommonJSExports_ExternalProvenance(t *testing.T) {
	index := `
__exportStar(require('@lib/core'), exports);
var core_1 = require('@lib/core');
Object.defineProperty(exports, "Aliased", { enumerable: true, get: function () { return core_1.Thing; } });
`
	core := `
function Thing() {}
exports.Thing = Thing;
`
	h := newTestHost(t, FormatCommonJS, map[string]string{
		"/pkg/index.js":                    index,
		"/node_modules/@lib/core/index.js": core,
	}, map[string]string{"@lib/core": "/node_modules/@lib/core/index.js"})
	f := mustFile(t, h, "/pkg/index.js")

	exports := h.GetExportsOfModule(f)
	require.Equal(t, []string{"Thing", "Aliased"}, exports.Names())
	for _, name := range exports.Names() {
		d, _ := exports.Get(name)
		require.IsType(t, &ConcreteDeclaration{}, d, name)
		assert.Equal(t, "@lib/core", d.Via(), name)
		assert.Equal(t, "function_declaration", DeclarationNode(d).Kind(), name)
	}
}

func TestCommonJSExports_CyclicWildcard(t *testing.T) {
	h := newTestHost(t, FormatCommonJS, map[string]string{
		"/pkg/a.js": "__export(require('./b'));\nexports.a = 1;",
		"/pkg/b.js": "__export(require('./a'));\nexports.b = 2;",
	}, nil)
	f := mustFile(t, h, "/pkg/a.js")

	exports := h.GetExportsOfModule(f)
	assert.Equal(t, []string{"a", "b"}, exports.Names())
}

func TestESMExports(t *testing.T) {
	index := `
export * from './a';
export const shared = 'local';
export { helper as renamed } from './a';
export { Missing } from 'external-pkg';
import { Widget as W } from './a';
export { W as Reexported };
export function fn() {}
`
	a := `
export const shared = 'a';
export function helper() {}
export class Widget {}
export default 1;
`
	h := newTestHost(t, FormatESM2015, map[string]string{"/esm/index.js": index, "/esm/a.js": a}, nil)
	f := mustFile(t, h, "/esm/index.js")

	exports := h.GetExportsOfModule(f)
	want := []string{"shared", "renamed", "Missing", "Reexported", "fn", "helper", "Widget"}
	if diff := cmp.Diff(want, exports.Names()); diff != "" {
		t.Fatalf("export names mismatch (-want +got):\n%s", diff)
	}

	shared, _ := exports.Get("shared")
	assert.Equal(t, "/esm/index.js", DeclarationNode(shared).File().Path, "local export wins over export *")

	renamed, _ := exports.Get("renamed")
	assert.Equal(t, "function_declaration", DeclarationNode(renamed).Kind())

	missing, _ := exports.Get("Missing")
	require.IsType(t, &ImportedDeclaration{}, missing)
	assert.Equal(t, "external-pkg", missing.Via())

	reexported, _ := exports.Get("Reexported")
	assert.Equal(t, "class_declaration", DeclarationNode(reexported).Kind())
}

func TestUMDModule(t *testing.T) {
	index := `
(function (global, factory) {
    typeof exports === 'object' && typeof module !== 'undefined' ? factory(exports, require('@angular/core'), require('./dep')) :
    typeof define === 'function' && define.amd ? define('lib', ['exports', '@angular/core', './dep'], factory) :
    (factory((global.lib = {}), global.ng.core, global.dep));
}(this, (function (exports, core, dep) { 'use strict';
    var Widget = (function () {
        function Widget() {}
        Widget.decorators = [{ type: core.Component, args: [] }];
        return Widget;
    }());
    exports.Widget = Widget;
    exports.Helper = dep.Helper;
    Object.defineProperty(exports, '__esModule', { value: true });
})));
`
	dep := "exports.Helper = function Helper() {};"
	h := newTestHost(t, FormatUMD, map[string]string{"/umd/index.js": index, "/umd/dep.js": dep}, nil)
	f := mustFile(t, h, "/umd/index.js")

	require.True(t, IsUMDModule(f))
	d, _ := h.Program().File("/umd/dep.js")
	assert.False(t, IsUMDModule(d))

	stmts := h.ModuleStatements(f)
	require.NotEmpty(t, stmts)
	assert.Equal(t, "'use strict';", stmts[0].Text())

	classes := h.FindClassSymbols(f)
	require.Len(t, classes, 1)
	assert.Equal(t, "Widget", classes[0].Name)

	decorators := h.GetDecoratorsOfDeclaration(classes[0].Declaration)
	require.Len(t, decorators, 1)
	assert.Equal(t, &Import{Name: "Component", From: "@angular/core"}, decorators[0].Import)

	exports := h.GetExportsOfModule(f)
	require.Equal(t, []string{"Widget", "Helper"}, exports.Names())
	widget, _ := exports.Get("Widget")
	assert.True(t, DeclarationNode(widget).Same(classes[0].Declaration))
	helper, _ := exports.Get("Helper")
	assert.Equal(t, "/umd/dep.js", DeclarationNode(helper).File().Path)
}
