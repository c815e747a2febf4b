// # internal/engine/reflection/esm2015.go
package reflection

import (
	"ngreflect/internal/engine/syntax"
)

// esm2015Pattern recognises native classes and ES module bindings.
type esm2015Pattern struct{ declines }

func (esm2015Pattern) name() string { return string(FormatESM2015) }

func (esm2015Pattern) classSymbol(h *Host, node syntax.Node) *ClassSymbol {
	switch node.Kind() {
	case "class_declaration":
		name := node.Field("name")
		if name.IsZero() {
			return nil
		}
		cs := &ClassSymbol{Name: name.Text(), Declaration: node, Implementation: node, pattern: string(FormatESM2015)}
		cs.base, cs.hasBase = classHeritage(node)
		cs.scopes = enclosingScope(node, cs.Name)
		return cs

	case "variable_declarator":
		name := node.Field("name")
		if !syntax.IsIdentifier(name) {
			return nil
		}
		value, aliases := unwrapAssignmentChain(node.Field("value"))
		if value.Kind() != "class" {
			return nil
		}
		cs := &ClassSymbol{Name: name.Text(), Declaration: node, Implementation: value, pattern: string(FormatESM2015)}
		cs.base, cs.hasBase = classHeritage(value)
		names := append([]string{cs.Name}, aliases...)
		if own := value.Field("name"); !own.IsZero() && own.Text() != cs.Name {
			names = append(names, own.Text())
			cs.aliasFor = own.Text()
		}
		cs.scopes = enclosingScope(node, names...)
		return cs

	case "class":
		// A class expression is the implementation of the variable it is
		// assigned to; answer with that variable's symbol.
		decl := declaratorOfValue(node)
		if decl.IsZero() {
			return nil
		}
		if cs := h.GetClassSymbol(decl); cs != nil && cs.Implementation.Same(node) {
			return cs
		}
	}
	return nil
}

func (esm2015Pattern) moduleOfBinding(h *Host, decl syntax.Node) (moduleRef, bool) {
	switch decl.Kind() {
	case "import_specifier":
		specifier, ok := importSource(decl)
		if !ok {
			return moduleRef{}, false
		}
		imported, ok := syntax.PropertyName(decl.Field("name"))
		if !ok {
			return moduleRef{}, false
		}
		ref := h.resolveRef(specifier, decl.File())
		ref.Named, ref.ImportedName = true, imported
		return ref, true
	case "namespace_import":
		specifier, ok := importSource(decl)
		if !ok {
			return moduleRef{}, false
		}
		return h.resolveRef(specifier, decl.File()), true
	case "identifier":
		if decl.Parent().Kind() != "import_clause" {
			return moduleRef{}, false
		}
		specifier, ok := importSource(decl)
		if !ok {
			return moduleRef{}, false
		}
		ref := h.resolveRef(specifier, decl.File())
		ref.Named, ref.ImportedName = true, "default"
		return ref, true
	}
	return moduleRef{}, false
}

func (esm2015Pattern) exportsOf(h *Host, f *syntax.File) (*ExportMap, bool) {
	return h.esmExports(f), true
}

// importSource returns the specifier of the import statement enclosing n.
func importSource(n syntax.Node) (string, bool) {
	for cur := n; !cur.IsZero(); cur = cur.Parent() {
		if cur.Kind() == "import_statement" {
			return syntax.StringValue(cur.Field("source"))
		}
	}
	return "", false
}

func classHeritage(class syntax.Node) (syntax.Node, bool) {
	for _, child := range class.NamedChildren() {
		if child.Kind() != "class_heritage" {
			continue
		}
		base := child.FirstNamedChild()
		// TypeScript's heritage wraps the expression in an extends clause.
		if base.Kind() == "extends_clause" {
			base = base.Field("value")
		}
		return base, !base.IsZero()
	}
	return syntax.Node{}, false
}

// unwrapAssignmentChain strips `A = B = value` down to value, returning the
// intermediate names.
func unwrapAssignmentChain(n syntax.Node) (syntax.Node, []string) {
	var names []string
	n = syntax.Unparen(n)
	for syntax.IsAssignment(n) {
		if left := n.Field("left"); syntax.IsIdentifier(left) {
			names = append(names, left.Text())
		}
		n = syntax.Unparen(n.Field("right"))
	}
	return n, names
}

// declaratorOfValue climbs from an initialiser through parentheses and
// assignment chains to the variable declarator it initialises.
func declaratorOfValue(n syntax.Node) syntax.Node {
	cur := n
	for {
		parent := cur.Parent()
		switch {
		case parent.Kind() == "parenthesized_expression":
			cur = parent
		case syntax.IsAssignment(parent) && parent.Field("right").Same(cur):
			cur = parent
		case parent.Kind() == "variable_declarator" && parent.Field("value").Same(cur):
			return parent
		default:
			return syntax.Node{}
		}
	}
}

// enclosingScope is the statement list holding decl, where static members
// and decorator helpers are assigned by name.
func enclosingScope(decl syntax.Node, names ...string) []metadataScope {
	stmt := syntax.EnclosingStatement(decl)
	if stmt.IsZero() {
		return nil
	}
	return []metadataScope{newScope(stmt.Parent().NamedChildren(), names...)}
}

func newScope(stmts []syntax.Node, names ...string) metadataScope {
	s := metadataScope{statements: stmts, names: make(map[string]bool, len(names))}
	for _, n := range names {
		if n != "" {
			s.names[n] = true
		}
	}
	return s
}
