// # internal/engine/reflection/typings.go
package reflection

import (
	"sync"

	"ngreflect/internal/core/errors"
	"ngreflect/internal/engine/program"
	"ngreflect/internal/engine/syntax"
)

// Typings is the .d.ts side of an entry point. Declarations are looked up by
// the name the entry point exports them under.
type Typings struct {
	program *program.Program
	entry   *syntax.File

	once    sync.Once
	exports map[string]syntax.Node
}

// NewTypings wraps a program of declaration files rooted at entryPath.
func NewTypings(prog *program.Program, entryPath string) (*Typings, error) {
	entry, ok := prog.File(entryPath)
	if !ok {
		err := errors.New(errors.CodeNotFound, "typings entry is not part of the program")
		return nil, errors.AddContext(err, errors.CtxPath, entryPath)
	}
	return &Typings{program: prog, entry: entry}, nil
}

func (t *Typings) Entry() *syntax.File { return t.entry }

// Lookup returns the declaration exported as name.
func (t *Typings) Lookup(name string) (syntax.Node, bool) {
	t.once.Do(func() {
		t.exports = t.exportsOf(t.entry, make(map[string]bool))
	})
	n, ok := t.exports[name]
	return n, ok
}

// Len returns the number of exported declarations.
func (t *Typings) Len() int {
	t.Lookup("")
	return len(t.exports)
}

func (t *Typings) exportsOf(f *syntax.File, visiting map[string]bool) map[string]syntax.Node {
	if f == nil || visiting[f.Path] {
		return nil
	}
	visiting[f.Path] = true

	locals := make(map[string]syntax.Node)
	for _, stmt := range f.Statements() {
		if name, decl := dtsDeclaration(stmt); name != "" {
			locals[name] = decl
		}
	}

	out := make(map[string]syntax.Node)
	var stars []*syntax.File
	for _, stmt := range f.Statements() {
		if stmt.Kind() != "export_statement" {
			continue
		}
		if decl := stmt.Field("declaration"); !decl.IsZero() {
			if name, node := dtsDeclaration(decl); name != "" {
				out[name] = node
			}
			continue
		}
		source, hasSource := syntax.StringValue(stmt.Field("source"))
		var target *syntax.File
		if hasSource {
			target, _ = t.program.ResolveModule(source, f)
		}
		clause := syntax.Node{}
		for _, child := range stmt.NamedChildren() {
			if child.Kind() == "export_clause" {
				clause = child
			}
		}
		if clause.IsZero() {
			if target != nil {
				stars = append(stars, target)
			}
			continue
		}
		var from map[string]syntax.Node
		if hasSource {
			from = t.exportsOf(target, visiting)
		} else {
			from = locals
		}
		for _, spec := range clause.NamedChildren() {
			if spec.Kind() != "export_specifier" {
				continue
			}
			local, ok := syntax.PropertyName(spec.Field("name"))
			if !ok {
				continue
			}
			exported := local
			if alias, ok := syntax.PropertyName(spec.Field("alias")); ok {
				exported = alias
			}
			if node, ok := from[local]; ok {
				out[exported] = node
			}
		}
	}
	for _, target := range stars {
		for name, node := range t.exportsOf(target, visiting) {
			if _, taken := out[name]; !taken {
				out[name] = node
			}
		}
	}
	return out
}

// dtsDeclaration returns the name and node of a top-level declaration,
// looking through `declare`.
func dtsDeclaration(n syntax.Node) (string, syntax.Node) {
	switch n.Kind() {
	case "ambient_declaration":
		return dtsDeclaration(n.FirstNamedChild())
	case "class_declaration", "abstract_class_declaration", "function_declaration", "function_signature",
		"interface_declaration", "type_alias_declaration", "enum_declaration", "module", "internal_module":
		name := n.Field("name")
		if name.IsZero() {
			return "", syntax.Node{}
		}
		return name.Text(), n
	case "variable_declaration", "lexical_declaration":
		decls := syntax.Declarators(n)
		if len(decls) == 0 {
			return "", syntax.Node{}
		}
		return decls[0].Field("name").Text(), decls[0]
	}
	return "", syntax.Node{}
}

// GetDtsDeclaration finds the typings declaration of a source declaration.
// The name the source entry point exports it under wins over its local name.
func (h *Host) GetDtsDeclaration(node syntax.Node) (syntax.Node, bool) {
	if h.typings == nil {
		return syntax.Node{}, false
	}
	var name string
	if cs := h.GetClassSymbol(node); cs != nil {
		node, name = cs.Declaration, cs.Name
	} else {
		name = syntax.DeclarationName(node).Text()
	}
	if exported := h.publicName(node); exported != "" {
		name = exported
	}
	if name == "" {
		return syntax.Node{}, false
	}
	return h.typings.Lookup(name)
}

func (h *Host) publicName(decl syntax.Node) string {
	entry, ok := h.program.File(h.entry)
	if !ok {
		return ""
	}
	var found string
	h.GetExportsOfModule(entry).Each(func(name string, d Declaration) bool {
		if DeclarationNode(d).Same(decl) {
			found = name
			return false
		}
		return true
	})
	return found
}
