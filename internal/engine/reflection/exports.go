// # internal/engine/reflection/exports.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// GetExportsOfModule returns the public surface of f, computed once per host.
// A module reached again while its own map is being built contributes
// nothing to the inner computation, which keeps cyclic re-exports finite.
func (h *Host) GetExportsOfModule(f *syntax.File) *ExportMap {
	if f == nil {
		return NewExportMap()
	}
	if m, ok := h.exports.Get(f.Path); ok {
		return m
	}
	if h.exporting[f.Path] {
		h.logger.Debug("cyclic re-export", "path", f.Path)
		return NewExportMap()
	}
	h.exporting[f.Path] = true
	defer delete(h.exporting, f.Path)

	return h.exports.GetOrCompute(f.Path, func() *ExportMap {
		for _, p := range h.patterns {
			if m, ok := p.exportsOf(h, f); ok {
				return m
			}
		}
		return NewExportMap()
	})
}

// valueDeclaration resolves an exported value, falling back to the value
// expression itself.
func (h *Host) valueDeclaration(expr syntax.Node) Declaration {
	if d := h.GetDeclarationOfExpression(expr); d != nil {
		return d
	}
	return &InlineDeclaration{Expression: expr}
}

// commonJSExports builds the export map of a CommonJS (or UMD factory)
// module. Direct `exports.X = ...` assignments are collected first; wildcard
// and defineProperty re-exports only add names that are not yet taken.
func (h *Host) commonJSExports(f *syntax.File) *ExportMap {
	m := NewExportMap()
	stmts := h.ModuleStatements(f)

	for _, stmt := range stmts {
		es, ok := AsExportsStatement(stmt)
		if !ok {
			continue
		}
		d := h.valueDeclaration(es.Value)
		for _, name := range es.Names {
			m.Set(name, d)
		}
	}

	for _, stmt := range stmts {
		if w, ok := AsWildcardReexportStatement(stmt); ok {
			h.wildcardReexports(w.Argument, f).Each(func(name string, d Declaration) bool {
				m.SetIfAbsent(name, d)
				return true
			})
			continue
		}
		if dp, ok := AsDefinePropertyReexportStatement(stmt); ok {
			expr := dp.GetterReturnExpression()
			if expr.IsZero() {
				h.logger.Debug("skipping defineProperty export without simple getter", "name", dp.Name, "at", dp.Statement.Location())
				continue
			}
			m.SetIfAbsent(dp.Name, h.valueDeclaration(expr))
		}
	}
	return m
}

// wildcardReexports returns the exports of the module passed to a wildcard
// re-export helper, tagged with the specifier when it is external.
func (h *Host) wildcardReexports(arg syntax.Node, from *syntax.File) *ExportMap {
	ref, ok := h.reexportedModule(arg, from)
	if !ok || ref.File == nil {
		return nil
	}
	via := externalVia(ref.Specifier)
	out := NewExportMap()
	h.GetExportsOfModule(ref.File).Each(func(name string, d Declaration) bool {
		out.Set(name, withVia(d, via))
		return true
	})
	return out
}

func (h *Host) reexportedModule(arg syntax.Node, from *syntax.File) (moduleRef, bool) {
	if rc, ok := AsRequireCall(arg); ok {
		return h.resolveRef(rc.Specifier, from), true
	}
	arg = syntax.Unparen(arg)
	if !syntax.IsIdentifier(arg) {
		return moduleRef{}, false
	}
	ref, ok := h.moduleOfBinding(h.checker.DeclarationOf(arg))
	if !ok || ref.Named {
		return moduleRef{}, false
	}
	return ref, true
}

// esmExports builds the export map of an ES module. Local and named exports
// come first; `export * from` fills in names that are still missing.
func (h *Host) esmExports(f *syntax.File) *ExportMap {
	m := NewExportMap()
	var stars []syntax.Node

	for _, stmt := range f.Statements() {
		if stmt.Kind() != "export_statement" {
			continue
		}
		source, hasSource := syntax.StringValue(stmt.Field("source"))
		isDefault := stmt.HasToken("default")

		if decl := stmt.Field("declaration"); !decl.IsZero() {
			h.exportDeclaration(m, decl, isDefault)
			continue
		}
		if value := stmt.Field("value"); !value.IsZero() && isDefault {
			m.Set("default", h.valueDeclaration(value))
			continue
		}

		clause, nsExport := syntax.Node{}, syntax.Node{}
		for _, child := range stmt.NamedChildren() {
			switch child.Kind() {
			case "export_clause":
				clause = child
			case "namespace_export":
				nsExport = child
			}
		}
		switch {
		case !clause.IsZero():
			h.exportClause(m, clause, source, hasSource, f)
		case !nsExport.IsZero():
			name, ok := syntax.PropertyName(nsExport.FirstNamedChild())
			if !ok || !hasSource {
				continue
			}
			ref := h.resolveRef(source, f)
			if ref.File != nil {
				m.Set(name, &ConcreteDeclaration{Node: ref.File.Root(), ViaModule: externalVia(source)})
			} else {
				m.Set(name, &ImportedDeclaration{Expression: nsExport, Module: source})
			}
		case hasSource:
			stars = append(stars, stmt)
		}
	}

	for _, stmt := range stars {
		source, _ := syntax.StringValue(stmt.Field("source"))
		ref := h.resolveRef(source, f)
		if ref.File == nil {
			h.logger.Debug("unresolved star re-export", "specifier", source, "path", f.Path)
			continue
		}
		via := externalVia(source)
		h.GetExportsOfModule(ref.File).Each(func(name string, d Declaration) bool {
			if name != "default" {
				m.SetIfAbsent(name, withVia(d, via))
			}
			return true
		})
	}
	return m
}

func (h *Host) exportDeclaration(m *ExportMap, decl syntax.Node, isDefault bool) {
	switch decl.Kind() {
	case "variable_declaration", "lexical_declaration":
		for _, d := range syntax.Declarators(decl) {
			name := d.Field("name")
			if !syntax.IsIdentifier(name) {
				continue
			}
			if resolved := h.GetDeclarationOfIdentifier(name); resolved != nil {
				m.Set(name.Text(), resolved)
			}
		}
		return
	}
	name := decl.Field("name")
	exported := name.Text()
	if isDefault {
		exported = "default"
	}
	if name.IsZero() {
		if isDefault {
			m.Set(exported, &ConcreteDeclaration{Node: decl})
		}
		return
	}
	if resolved := h.GetDeclarationOfIdentifier(name); resolved != nil {
		m.Set(exported, resolved)
		return
	}
	m.Set(exported, &ConcreteDeclaration{Node: decl, Known: knownFromDeclaration(decl)})
}

func (h *Host) exportClause(m *ExportMap, clause syntax.Node, source string, hasSource bool, f *syntax.File) {
	var target *ExportMap
	var ref moduleRef
	if hasSource {
		ref = h.resolveRef(source, f)
		if ref.File != nil {
			target = h.GetExportsOfModule(ref.File)
		}
	}
	for _, spec := range clause.NamedChildren() {
		if spec.Kind() != "export_specifier" {
			continue
		}
		nameNode := spec.Field("name")
		local, ok := syntax.PropertyName(nameNode)
		if !ok {
			continue
		}
		exported := local
		if alias := spec.Field("alias"); !alias.IsZero() {
			if a, ok := syntax.PropertyName(alias); ok {
				exported = a
			}
		}
		switch {
		case !hasSource:
			m.Set(exported, h.valueDeclaration(nameNode))
		case target != nil:
			if d, ok := target.Get(local); ok {
				m.Set(exported, withVia(d, externalVia(source)))
			}
		default:
			m.Set(exported, &ImportedDeclaration{Expression: nameNode, Module: source, Name: local})
		}
	}
}
