package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const esm5Decorated = `
import { Directive, Inject, Input, HostListener, ViewContainerRef } from '@angular/core';
import * as core from '@angular/core';
var SomeDirective = (function () {
    function SomeDirective(viewContainer, template, injected) {}
    SomeDirective.decorators = [
        { type: Directive, args: [{ selector: '[someDirective]' }] },
        { type: core.Component },
        { notType: Directive },
        'not an object'
    ];
    SomeDirective.ctorParameters = function () { return [
        { type: ViewContainerRef },
        { type: TemplateRef },
        { type: undefined, decorators: [{ type: Inject, args: [INJECTED_TOKEN] }] }
    ]; };
    SomeDirective.propDecorators = {
        input1: [{ type: Input }],
        target: [{ type: HostListener, args: ['click'] }],
        empty: []
    };
    return SomeDirective;
}());
var NotArrayLiteral = (function () {
    function NotArrayLiteral() {}
    NotArrayLiteral.decorators = () => [{ type: Directive }];
    return NotArrayLiteral;
}());
var BadArgs = (function () {
    function BadArgs() {}
    BadArgs.decorators = [
        { type: Directive, args: 'bad' },
        { type: Directive, args: function () { return [1]; } },
        { type: Directive }
    ];
    return BadArgs;
}());
var ArrowParams = (function () {
    function ArrowParams(a) {}
    ArrowParams.ctorParameters = () => [{ type: ViewContainerRef }];
    return ArrowParams;
}());
var Undecorated = (function () {
    function Undecorated() {}
    return Undecorated;
}());
`

func TestDecorators_StaticProperty(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	decorators := h.GetDecoratorsOfDeclaration(findDeclarator(t, f, "SomeDirective"))
	require.Len(t, decorators, 2)

	assert.Equal(t, "Directive", decorators[0].Name)
	require.NotNil(t, decorators[0].Import)
	assert.Equal(t, Import{Name: "Directive", From: "@angular/core"}, *decorators[0].Import)
	require.Len(t, decorators[0].Args, 1)
	assert.Equal(t, "object", decorators[0].Args[0].Kind())

	assert.Equal(t, "Component", decorators[1].Name)
	require.NotNil(t, decorators[1].Import)
	assert.Equal(t, Import{Name: "Component", From: "@angular/core"}, *decorators[1].Import)
	assert.NotNil(t, decorators[1].Args)
	assert.Empty(t, decorators[1].Args)
}

func TestDecorators_ArrowThunkInES5IsIgnored(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	decorators := h.GetDecoratorsOfDeclaration(findDeclarator(t, f, "NotArrayLiteral"))
	assert.NotNil(t, decorators)
	assert.Empty(t, decorators)
}

func TestDecorators_InvalidArgsDefaultToEmpty(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	decorators := h.GetDecoratorsOfDeclaration(findDeclarator(t, f, "BadArgs"))
	require.Len(t, decorators, 3)
	for _, d := range decorators {
		assert.Equal(t, "Directive", d.Name)
		assert.NotNil(t, d.Args)
		assert.Empty(t, d.Args)
	}
}

func TestDecorators_NoMetadata(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	assert.Nil(t, h.GetDecoratorsOfDeclaration(findDeclarator(t, f, "Undecorated")))
	assert.Nil(t, h.GetDecoratorsOfDeclaration(findDeclarator(t, f, "SomeDirective").Field("value")))
}

func TestConstructorParameters_StaticProperty(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	params, err := h.GetConstructorParameters(findDeclarator(t, f, "SomeDirective"))
	require.NoError(t, err)
	require.Len(t, params, 3)

	assert.Equal(t, "viewContainer", params[0].Name)
	assert.Equal(t, "ViewContainerRef", params[0].TypeExpression.Text())
	assert.Nil(t, params[0].Decorators)
	require.NotNil(t, params[0].TypeValueReference)
	assert.Equal(t, TypeValueImported, params[0].TypeValueReference.Kind)
	assert.Equal(t, "@angular/core", params[0].TypeValueReference.ModuleName)
	assert.Equal(t, "ViewContainerRef", params[0].TypeValueReference.ImportedName)

	assert.Equal(t, "TemplateRef", params[1].TypeExpression.Text())
	assert.Equal(t, TypeValueLocal, params[1].TypeValueReference.Kind)

	assert.Equal(t, TypeValueUnavailable, params[2].TypeValueReference.Kind)
	require.Len(t, params[2].Decorators, 1)
	assert.Equal(t, "Inject", params[2].Decorators[0].Name)
	require.Len(t, params[2].Decorators[0].Args, 1)
	assert.Equal(t, "INJECTED_TOKEN", params[2].Decorators[0].Args[0].Text())
}

func TestConstructorParameters_ArrowThunkRejectedInES5(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	params, err := h.GetConstructorParameters(findDeclarator(t, f, "ArrowParams"))
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.True(t, params[0].TypeExpression.IsZero())
	assert.Nil(t, params[0].Decorators)
}

func TestMembers_PropDecoratorsOnly(t *testing.T) {
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": esm5Decorated}, nil)
	f := mustFile(t, h, "/src/index.js")

	members, err := h.GetMembersOfClass(findDeclarator(t, f, "SomeDirective"))
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "input1", members[0].Name)
	assert.Equal(t, MemberProperty, members[0].Kind)
	assert.True(t, members[0].Node.IsZero())
	require.Len(t, members[0].Decorators, 1)
	assert.Equal(t, "Input", members[0].Decorators[0].Name)
	assert.Equal(t, "target", members[1].Name)
	assert.Equal(t, "HostListener", members[1].Decorators[0].Name)
}

func TestMembers_ES5Assignments(t *testing.T) {
	src := `
var Acc = (function () {
    function Acc() {}
    Acc.prototype.method = function () {};
    Acc.staticProp = 42;
    Object.defineProperty(Acc.prototype, "value", {
        get: function () { return 1; },
        set: function (v) {},
        enumerable: true,
        configurable: true
    });
    Acc.propDecorators = { value: [{ type: Input }] };
    return Acc;
}());
Acc.outside = function () {};
`
	h := newTestHost(t, FormatESM5, map[string]string{"/src/index.js": src}, nil)
	f := mustFile(t, h, "/src/index.js")

	members, err := h.GetMembersOfClass(findDeclarator(t, f, "Acc"))
	require.NoError(t, err)
	require.Len(t, members, 5)

	assert.Equal(t, "method", members[0].Name)
	assert.Equal(t, MemberMethod, members[0].Kind)
	assert.False(t, members[0].IsStatic)

	assert.Equal(t, "staticProp", members[1].Name)
	assert.Equal(t, MemberProperty, members[1].Kind)
	assert.True(t, members[1].IsStatic)
	assert.Equal(t, "42", members[1].Value.Text())

	assert.Equal(t, "value", members[2].Name)
	assert.Equal(t, MemberSetter, members[2].Kind)
	require.Len(t, members[2].Decorators, 1)

	assert.Equal(t, "value", members[3].Name)
	assert.Equal(t, MemberGetter, members[3].Kind)
	assert.Empty(t, members[3].Decorators, "accessor decorators are attached once")

	assert.Equal(t, "outside", members[4].Name)
	assert.Equal(t, MemberMethod, members[4].Kind)
	assert.True(t, members[4].IsStatic)
}

func TestESM2015_DecorateHelperCalls(t *testing.T) {
	src := `
import { Component, Input, Inject } from '@angular/core';
import { Service } from './service';
let Cmp = class Cmp {
    constructor(service, token) {}
    get value() { return 1; }
    method() {}
};
__decorate([Input(), __metadata("design:type", Object)], Cmp.prototype, "value", null);
Cmp = __decorate([
    Component({ selector: 'cmp' }),
    __param(1, Inject(TOKEN)),
    __metadata("design:paramtypes", [Service, String])
], Cmp);
export { Cmp };
`
	h := newTestHost(t, FormatESM2015, map[string]string{
		"/src/index.js":   src,
		"/src/service.js": "export class Service {}",
	}, nil)
	f := mustFile(t, h, "/src/index.js")
	decl := findDeclarator(t, f, "Cmp")

	decorators := h.GetDecoratorsOfDeclaration(decl)
	require.Len(t, decorators, 1)
	assert.Equal(t, "Component", decorators[0].Name)
	assert.Equal(t, &Import{Name: "Component", From: "@angular/core"}, decorators[0].Import)
	require.Len(t, decorators[0].Args, 1)

	params, err := h.GetConstructorParameters(decl)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "Service", params[0].TypeExpression.Text())
	assert.Equal(t, TypeValueImported, params[0].TypeValueReference.Kind)
	assert.Equal(t, "./service", params[0].TypeValueReference.ModuleName)
	assert.Nil(t, params[0].Decorators)
	require.Len(t, params[1].Decorators, 1)
	assert.Equal(t, "Inject", params[1].Decorators[0].Name)

	members, err := h.GetMembersOfClass(decl)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "value", members[0].Name)
	assert.Equal(t, MemberGetter, members[0].Kind)
	require.Len(t, members[0].Decorators, 1)
	assert.Equal(t, "Input", members[0].Decorators[0].Name)
	assert.Equal(t, "method", members[1].Name)
	assert.Empty(t, members[1].Decorators)
}

func TestESM2015_StaticFieldsAndArrowThunk(t *testing.T) {
	src := `
import { Directive } from '@angular/core';
class Dir {
    constructor(a) {}
    static decorators = [{ type: Directive }];
    static ctorParameters = () => [{ type: Foo, decorators: [] }];
    static count = 0;
}
`
	h := newTestHost(t, FormatESM2015, map[string]string{"/src/index.js": src}, nil)
	f := mustFile(t, h, "/src/index.js")
	decl := findNamed(t, f, "class_declaration", "Dir")

	require.Len(t, h.GetDecoratorsOfDeclaration(decl), 1)

	params, err := h.GetConstructorParameters(decl)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "Foo", params[0].TypeExpression.Text())
	assert.NotNil(t, params[0].Decorators, "an empty decorators block is kept")
	assert.Empty(t, params[0].Decorators)

	members, err := h.GetMembersOfClass(decl)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "count", members[0].Name)
	assert.True(t, members[0].IsStatic)
}
