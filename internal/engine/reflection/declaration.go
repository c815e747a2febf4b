// # internal/engine/reflection/declaration.go
package reflection

import "ngreflect/internal/engine/syntax"

// KnownDeclaration tags declarations whose runtime behaviour is understood
// without looking at their body.
type KnownDeclaration int

const (
	KnownNone KnownDeclaration = iota
	JsGlobalObject
	TsHelperAssign
	TsHelperSpread
	TsHelperSpreadArrays
	TsHelperSpreadArray
	TsHelperRead
)

func (k KnownDeclaration) String() string {
	switch k {
	case JsGlobalObject:
		return "Object"
	case TsHelperAssign:
		return "__assign"
	case TsHelperSpread:
		return "__spread"
	case TsHelperSpreadArrays:
		return "__spreadArrays"
	case TsHelperSpreadArray:
		return "__spreadArray"
	case TsHelperRead:
		return "__read"
	}
	return ""
}

// Declaration is the resolved origin of an identifier. It is one of
// *ConcreteDeclaration, *InlineDeclaration or *ImportedDeclaration.
type Declaration interface {
	// Via is the module specifier the declaration was reached through, or ""
	// when it is local to the package.
	Via() string
	KnownAs() KnownDeclaration
	isDeclaration()
}

// ConcreteDeclaration points at the syntax node that declares a value.
type ConcreteDeclaration struct {
	Node      syntax.Node
	ViaModule string
	Known     KnownDeclaration
	// Identity carries structure recovered from lowered code, currently only
	// the members of a downleveled enum.
	Identity *EnumIdentity
}

// InlineDeclaration has no declaring node; its value is an expression, such
// as a helper referenced by name but never declared.
type InlineDeclaration struct {
	Expression syntax.Node
	ViaModule  string
	Known      KnownDeclaration
}

// ImportedDeclaration is reached through an import of a module that is not
// part of the program. Name is "" for a whole-module (namespace) binding.
type ImportedDeclaration struct {
	Expression syntax.Node
	Module     string
	Name       string
}

func (d *ConcreteDeclaration) Via() string               { return d.ViaModule }
func (d *ConcreteDeclaration) KnownAs() KnownDeclaration { return d.Known }
func (*ConcreteDeclaration) isDeclaration()              {}

func (d *InlineDeclaration) Via() string               { return d.ViaModule }
func (d *InlineDeclaration) KnownAs() KnownDeclaration { return d.Known }
func (*InlineDeclaration) isDeclaration()              {}

func (d *ImportedDeclaration) Via() string             { return d.Module }
func (*ImportedDeclaration) KnownAs() KnownDeclaration { return KnownNone }
func (*ImportedDeclaration) isDeclaration()            {}

// DeclarationNode returns the node a declaration stands for: the declaring
// node of a concrete declaration, else the captured expression.
func DeclarationNode(d Declaration) syntax.Node {
	switch d := d.(type) {
	case *ConcreteDeclaration:
		return d.Node
	case *InlineDeclaration:
		return d.Expression
	case *ImportedDeclaration:
		return d.Expression
	}
	return syntax.Node{}
}

// withVia returns a copy of d tagged with module, unless d already carries
// its own provenance or module is empty.
func withVia(d Declaration, module string) Declaration {
	if module == "" || d.Via() != "" {
		return d
	}
	switch d := d.(type) {
	case *ConcreteDeclaration:
		c := *d
		c.ViaModule = module
		return &c
	case *InlineDeclaration:
		c := *d
		c.ViaModule = module
		return &c
	}
	return d
}

// EnumIdentity lists the members of an enum lowered to an IIFE.
type EnumIdentity struct {
	Members []EnumMember
}

type EnumMember struct {
	Name        string
	NameNode    syntax.Node
	Initializer syntax.Node
}

// Import describes where an identifier was imported from.
type Import struct {
	Name string
	From string
}

// ExportMap is the ordered public surface of one module.
type ExportMap struct {
	names   []string
	entries map[string]Declaration
}

func NewExportMap() *ExportMap {
	return &ExportMap{entries: make(map[string]Declaration)}
}

// Set adds or replaces name. A replaced name keeps its original position.
func (m *ExportMap) Set(name string, d Declaration) {
	if _, ok := m.entries[name]; !ok {
		m.names = append(m.names, name)
	}
	m.entries[name] = d
}

// SetIfAbsent adds name only when it is not exported yet.
func (m *ExportMap) SetIfAbsent(name string, d Declaration) bool {
	if _, ok := m.entries[name]; ok {
		return false
	}
	m.names = append(m.names, name)
	m.entries[name] = d
	return true
}

func (m *ExportMap) Get(name string) (Declaration, bool) {
	if m == nil {
		return nil, false
	}
	d, ok := m.entries[name]
	return d, ok
}

// Names returns the exported names in insertion order.
func (m *ExportMap) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

func (m *ExportMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Each visits entries in insertion order until fn returns false.
func (m *ExportMap) Each(fn func(name string, d Declaration) bool) {
	if m == nil {
		return
	}
	for _, name := range m.names {
		if !fn(name, m.entries[name]) {
			return
		}
	}
}
