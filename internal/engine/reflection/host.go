// # internal/engine/reflection/host.go
package reflection

import (
	"fmt"
	"log/slog"

	"ngreflect/internal/engine/program"
	"ngreflect/internal/engine/syntax"
	"ngreflect/internal/shared/cache"
)

type Format string

const (
	FormatESM2015  Format = "esm2015"
	FormatESM5     Format = "esm5"
	FormatCommonJS Format = "commonjs"
	FormatUMD      Format = "umd"
)

// Formats lists every supported bundle format, most modern first.
var Formats = []Format{FormatESM2015, FormatESM5, FormatCommonJS, FormatUMD}

// pattern recognises the lowered shapes of one output format. Every method
// may decline; the host asks the patterns of its chain in order and takes the
// first answer.
type pattern interface {
	name() string
	classSymbol(h *Host, node syntax.Node) *ClassSymbol
	// moduleOfBinding maps a binding that stands for a whole module or a
	// named import (require variable, import specifier, UMD factory
	// parameter) to the module it denotes.
	moduleOfBinding(h *Host, decl syntax.Node) (moduleRef, bool)
	moduleStatements(h *Host, f *syntax.File) ([]syntax.Node, bool)
	exportsOf(h *Host, f *syntax.File) (*ExportMap, bool)
}

type declines struct{}

func (declines) classSymbol(*Host, syntax.Node) *ClassSymbol { return nil }
func (declines) moduleOfBinding(*Host, syntax.Node) (moduleRef, bool) {
	return moduleRef{}, false
}
func (declines) moduleStatements(*Host, *syntax.File) ([]syntax.Node, bool) { return nil, false }
func (declines) exportsOf(*Host, *syntax.File) (*ExportMap, bool)          { return nil, false }

// moduleRef is a module reached through a binding. File is nil when the
// specifier does not resolve into the program. ImportedName is set for
// named imports and empty for whole-module bindings.
type moduleRef struct {
	Specifier    string
	File         *syntax.File
	ImportedName string
	Named        bool
}

func chainFor(format Format) ([]pattern, error) {
	switch format {
	case FormatESM2015:
		return []pattern{esm2015Pattern{}}, nil
	case FormatESM5:
		return []pattern{esm5Pattern{}, esm2015Pattern{}}, nil
	case FormatCommonJS:
		return []pattern{commonJSPattern{}, esm5Pattern{}, esm2015Pattern{}}, nil
	case FormatUMD:
		return []pattern{umdPattern{}, commonJSPattern{}, esm5Pattern{}, esm2015Pattern{}}, nil
	}
	return nil, fmt.Errorf("unknown bundle format %q", format)
}

type Options struct {
	Logger *slog.Logger
	// Entry is the path of the bundle's entry module, used to map source
	// declarations to their public names.
	Entry   string
	Typings *Typings
}

// Host reflects over one bundle program. It is not safe for concurrent use;
// build one host per bundle. Every cache it fills is dropped by Close.
type Host struct {
	format   Format
	program  *program.Program
	checker  *program.Checker
	patterns []pattern
	logger   *slog.Logger
	entry    string
	typings  *Typings

	classSymbols  *cache.Memo[syntax.Key, *ClassSymbol]
	exports       *cache.Memo[string, *ExportMap]
	exporting     map[string]bool
	decoratorInfo *cache.Memo[syntax.Key, *decoratorInfo]
	helperCalls   *cache.Memo[syntax.Key, []helperCall]
	umdModules    *cache.Memo[string, *umdModule]
	enums         *cache.Memo[syntax.Key, *EnumIdentity]
}

func NewHost(format Format, prog *program.Program, opts Options) (*Host, error) {
	patterns, err := chainFor(format)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		format:   format,
		program:  prog,
		checker:  prog.Checker(),
		patterns: patterns,
		logger:   logger.With("format", string(format)),
		entry:    opts.Entry,
		typings:  opts.Typings,
	}
	h.initCaches()
	return h, nil
}

func (h *Host) initCaches() {
	h.classSymbols = cache.NewMemo[syntax.Key, *ClassSymbol]()
	h.exports = cache.NewMemo[string, *ExportMap]()
	h.exporting = make(map[string]bool)
	h.decoratorInfo = cache.NewMemo[syntax.Key, *decoratorInfo]()
	h.helperCalls = cache.NewMemo[syntax.Key, []helperCall]()
	h.umdModules = cache.NewMemo[string, *umdModule]()
	h.enums = cache.NewMemo[syntax.Key, *EnumIdentity]()
}

func (h *Host) Format() Format { return h.format }

func (h *Host) Program() *program.Program { return h.program }

// Close drops every memoized result. The program itself stays open.
func (h *Host) Close() {
	h.initCaches()
}

// allowsArrowThunks reports whether metadata thunks may be arrow functions;
// ES5 output cannot contain them.
func (h *Host) allowsArrowThunks() bool {
	return h.format == FormatESM2015
}

// GetClassSymbol returns the class a declaration belongs to, or nil. Both the
// outer declaration and the implementation of one class yield the same
// symbol.
func (h *Host) GetClassSymbol(node syntax.Node) *ClassSymbol {
	node = classCandidate(node)
	if node.IsZero() {
		return nil
	}
	return h.classSymbols.GetOrCompute(node.Key(), func() *ClassSymbol {
		for _, p := range h.patterns {
			if cs := p.classSymbol(h, node); cs != nil {
				return cs
			}
		}
		return nil
	})
}

// classCandidate normalises the nodes callers commonly hold: a declaration's
// name, or an export statement wrapping it.
func classCandidate(node syntax.Node) syntax.Node {
	if syntax.IsIdentifier(node) {
		parent := node.Parent()
		if parent.Is("variable_declarator", "class_declaration", "function_declaration", "class") &&
			parent.Field("name").Same(node) {
			return parent
		}
		return syntax.Node{}
	}
	if node.Kind() == "export_statement" {
		return node.Field("declaration")
	}
	return node
}

func (h *Host) IsClass(node syntax.Node) bool {
	return h.GetClassSymbol(node) != nil
}

// FindClassSymbols lists the classes declared at the top level of a module.
func (h *Host) FindClassSymbols(f *syntax.File) []*ClassSymbol {
	var out []*ClassSymbol
	seen := make(map[*ClassSymbol]bool)
	add := func(n syntax.Node) {
		if cs := h.GetClassSymbol(n); cs != nil && !seen[cs] {
			seen[cs] = true
			out = append(out, cs)
		}
	}
	for _, stmt := range h.ModuleStatements(f) {
		if stmt.Kind() == "export_statement" {
			stmt = stmt.Field("declaration")
		}
		switch stmt.Kind() {
		case "variable_declaration", "lexical_declaration":
			for _, d := range syntax.Declarators(stmt) {
				add(d)
			}
		case "class_declaration":
			add(stmt)
		}
	}
	return out
}

// ModuleStatements returns the statements forming a module's body. For UMD
// this is the factory function body rather than the wrapper.
func (h *Host) ModuleStatements(f *syntax.File) []syntax.Node {
	for _, p := range h.patterns {
		if stmts, ok := p.moduleStatements(h, f); ok {
			return stmts
		}
	}
	return f.Statements()
}

func (h *Host) moduleOfBinding(decl syntax.Node) (moduleRef, bool) {
	if decl.IsZero() {
		return moduleRef{}, false
	}
	for _, p := range h.patterns {
		if ref, ok := p.moduleOfBinding(h, decl); ok {
			return ref, true
		}
	}
	return moduleRef{}, false
}

func (h *Host) resolveRef(specifier string, from *syntax.File) moduleRef {
	ref := moduleRef{Specifier: specifier}
	if f, ok := h.program.ResolveModule(specifier, from); ok {
		ref.File = f
	}
	return ref
}

// GetImportOfIdentifier reports which module and exported name id was
// imported from: `Foo` of `import {Foo} from 'm'`, or `Foo` of `m.Foo`
// where `m` is a module binding.
func (h *Host) GetImportOfIdentifier(id syntax.Node) *Import {
	if ns := FindNamespaceOfIdentifier(id); !ns.IsZero() {
		ref, ok := h.moduleOfBinding(h.checker.DeclarationOf(ns))
		if ok && !ref.Named {
			return &Import{Name: id.Text(), From: ref.Specifier}
		}
		return nil
	}
	if !syntax.IsIdentifier(id) {
		return nil
	}
	ref, ok := h.moduleOfBinding(h.checker.DeclarationOf(id))
	if !ok || !ref.Named {
		return nil
	}
	return &Import{Name: ref.ImportedName, From: ref.Specifier}
}

// HasBaseClass reports whether the class extends another.
func (h *Host) HasBaseClass(node syntax.Node) bool {
	cs := h.GetClassSymbol(node)
	return cs != nil && cs.hasBase
}

// GetBaseClassExpression returns the expression the class extends, or the
// zero node.
func (h *Host) GetBaseClassExpression(node syntax.Node) syntax.Node {
	cs := h.GetClassSymbol(node)
	if cs == nil || !cs.hasBase {
		return syntax.Node{}
	}
	return cs.base
}

// InternalName returns the name the class has inside its own body.
func (cs *ClassSymbol) InternalName() string {
	if name := cs.Implementation.Field("name"); !name.IsZero() {
		return name.Text()
	}
	return cs.Name
}
