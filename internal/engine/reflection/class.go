package reflection

import "ngreflect/internal/engine/syntax"

// ClassSymbol binds the declaration importers see to the node that holds the
// constructor and members. For lowered ES5 classes they differ: the outer
// variable declarator versus the function declaration inside the IIFE.
type ClassSymbol struct {
	Name           string
	Declaration    syntax.Node
	Implementation syntax.Node

	pattern string
	// iife is the immediately invoked call wrapping an ES5 class.
	iife     syntax.Node
	hasBase  bool
	base     syntax.Node
	scopes   []metadataScope
	aliasFor string
}

// metadataScope is a statement list where static metadata for the class may
// be assigned, together with the names the class is known by there.
type metadataScope struct {
	statements []syntax.Node
	names      map[string]bool
}

func (s metadataScope) receives(n syntax.Node) bool {
	return syntax.IsIdentifier(n) && s.names[n.Text()]
}

type MemberKind int

const (
	MemberProperty MemberKind = iota
	MemberMethod
	MemberGetter
	MemberSetter
)

func (k MemberKind) String() string {
	switch k {
	case MemberMethod:
		return "method"
	case MemberGetter:
		return "getter"
	case MemberSetter:
		return "setter"
	}
	return "property"
}

// ClassMember is one method, accessor or property of a class. Node is the
// statement or class element that declares it and is zero for properties
// known only from decorator metadata.
type ClassMember struct {
	Name           string
	Kind           MemberKind
	IsStatic       bool
	Node           syntax.Node
	Implementation syntax.Node
	Value          syntax.Node
	Decorators     []Decorator
}

// Decorator is one entry of recovered decorator metadata.
type Decorator struct {
	Name string
	// Identifier is the node naming the decorator; for `ns.Dir` it is the
	// property identifier `Dir`.
	Identifier syntax.Node
	Import     *Import
	Node       syntax.Node
	Args       []syntax.Node
}

type TypeValueKind int

const (
	TypeValueUnavailable TypeValueKind = iota
	TypeValueLocal
	TypeValueImported
)

// TypeValueReference says which value expression denotes a constructor
// parameter's type.
type TypeValueReference struct {
	Kind         TypeValueKind
	Expression   syntax.Node
	ModuleName   string
	ImportedName string
}

// CtorParameter is one constructor parameter. Decorators is nil when there
// is no decorator metadata for it at all.
type CtorParameter struct {
	Name               string
	NameNode           syntax.Node
	TypeExpression     syntax.Node
	TypeValueReference *TypeValueReference
	Decorators         []Decorator
}
