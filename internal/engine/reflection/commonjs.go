// # internal/engine/reflection/commonjs.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// commonJSPattern binds `var m = require('m')` variables to modules and reads
// the export surface from assignments to `exports`.
type commonJSPattern struct{ declines }

func (commonJSPattern) name() string { return string(FormatCommonJS) }

func (commonJSPattern) moduleOfBinding(h *Host, decl syntax.Node) (moduleRef, bool) {
	if decl.Kind() != "variable_declarator" {
		return moduleRef{}, false
	}
	rc, ok := AsRequireCall(decl.Field("value"))
	if !ok {
		return moduleRef{}, false
	}
	return h.resolveRef(rc.Specifier, decl.File()), true
}

func (commonJSPattern) exportsOf(h *Host, f *syntax.File) (*ExportMap, bool) {
	if !looksLikeCommonJS(f) {
		return nil, false
	}
	return h.commonJSExports(f), true
}

// looksLikeCommonJS declines files written as ES modules so that the
// fallback patterns can answer for them.
func looksLikeCommonJS(f *syntax.File) bool {
	for _, stmt := range f.Statements() {
		if stmt.Is("import_statement", "export_statement") {
			return false
		}
	}
	return true
}
