// # internal/engine/syntax/node.go
package syntax

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// File is one parsed source file. The tree stays alive until Close is called;
// every Node handed out for the file borrows from it.
type File struct {
	Path     string
	Language string
	Source   []byte

	tree *sitter.Tree
}

func NewFile(path, language string, source []byte, tree *sitter.Tree) *File {
	return &File{Path: path, Language: language, Source: source, tree: tree}
}

func (f *File) Root() Node {
	if f == nil || f.tree == nil {
		return Node{}
	}
	root := f.tree.RootNode()
	return Node{file: f, n: root}
}

// Statements returns the top-level statements of the file, comments excluded.
func (f *File) Statements() []Node {
	return f.Root().NamedChildren()
}

// HasErrors reports whether tree-sitter had to recover from syntax errors.
func (f *File) HasErrors() bool {
	root := f.Root()
	return !root.IsZero() && root.n.HasError()
}

func (f *File) Close() {
	if f != nil && f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Key identifies a node across independent lookups. Tree-sitter hands out a
// fresh value on every traversal, so node identity is defined by position.
type Key struct {
	Path  string
	Start uint
	End   uint
	Kind  string
}

// Node pairs a tree-sitter node with the file it belongs to. The zero value
// is the absent node and every method is safe to call on it.
type Node struct {
	file *File
	n    *sitter.Node
}

func (n Node) IsZero() bool { return n.n == nil }

func (n Node) File() *File { return n.file }

func (n Node) Raw() *sitter.Node { return n.n }

func (n Node) Kind() string {
	if n.n == nil {
		return ""
	}
	return n.n.Kind()
}

// Is reports whether the node kind is one of kinds.
func (n Node) Is(kinds ...string) bool {
	k := n.Kind()
	if k == "" {
		return false
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (n Node) Text() string {
	if n.n == nil || n.file == nil {
		return ""
	}
	return n.n.Utf8Text(n.file.Source)
}

func (n Node) Key() Key {
	if n.n == nil {
		return Key{}
	}
	path := ""
	if n.file != nil {
		path = n.file.Path
	}
	return Key{Path: path, Start: n.n.StartByte(), End: n.n.EndByte(), Kind: n.n.Kind()}
}

// Same reports whether both values denote the same syntax node.
func (n Node) Same(other Node) bool {
	if n.IsZero() || other.IsZero() {
		return false
	}
	return n.Key() == other.Key()
}

func (n Node) wrap(raw *sitter.Node) Node {
	if raw == nil {
		return Node{}
	}
	return Node{file: n.file, n: raw}
}

func (n Node) Field(name string) Node {
	if n.n == nil {
		return Node{}
	}
	return n.wrap(n.n.ChildByFieldName(name))
}

func (n Node) Parent() Node {
	if n.n == nil {
		return Node{}
	}
	return n.wrap(n.n.Parent())
}

// Children returns every child, anonymous tokens included.
func (n Node) Children() []Node {
	if n.n == nil {
		return nil
	}
	count := n.n.ChildCount()
	out := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		out = append(out, n.wrap(n.n.Child(i)))
	}
	return out
}

// NamedChildren returns the named children, skipping comments.
func (n Node) NamedChildren() []Node {
	if n.n == nil {
		return nil
	}
	count := n.n.NamedChildCount()
	out := make([]Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.wrap(n.n.NamedChild(i))
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// FirstNamedChild returns the first non-comment named child.
func (n Node) FirstNamedChild() Node {
	children := n.NamedChildren()
	if len(children) == 0 {
		return Node{}
	}
	return children[0]
}

// HasToken reports whether an anonymous child token with the given text
// exists, e.g. "static" or "get" on a method definition.
func (n Node) HasToken(token string) bool {
	for _, child := range n.Children() {
		if !child.n.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

// Line and Column are 1-based.
func (n Node) Line() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPosition().Row) + 1
}

func (n Node) Column() int {
	if n.n == nil {
		return 0
	}
	return int(n.n.StartPosition().Column) + 1
}

func (n Node) Location() string {
	if n.n == nil {
		return ""
	}
	path := ""
	if n.file != nil {
		path = n.file.Path
	}
	return fmt.Sprintf("%s:%d:%d", path, n.Line(), n.Column())
}

func (n Node) String() string {
	if n.IsZero() {
		return "<nil>"
	}
	return n.Text()
}

// Walk visits n and its named descendants depth-first in source order. The
// visitor returns false to skip a node's children.
func Walk(n Node, visit func(Node) bool) {
	if n.IsZero() {
		return
	}
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		children := cur.NamedChildren()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
