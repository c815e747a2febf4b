package syntax

import "strings"

// Unparen strips any number of enclosing parenthesized expressions.
func Unparen(n Node) Node {
	for n.Kind() == "parenthesized_expression" {
		n = n.FirstNamedChild()
	}
	return n
}

func IsIdentifier(n Node) bool { return n.Kind() == "identifier" }

// IsFunctionExpression accepts both the current and the legacy grammar name.
func IsFunctionExpression(n Node) bool {
	return n.Is("function_expression", "function")
}

func IsArrowFunction(n Node) bool { return n.Kind() == "arrow_function" }

func IsFunctionLike(n Node) bool {
	return n.Is("function_expression", "function", "function_declaration", "arrow_function",
		"generator_function", "generator_function_declaration", "method_definition")
}

// IsVoidZero matches the `void 0` placeholder emitted for hoisted exports.
func IsVoidZero(n Node) bool {
	n = Unparen(n)
	return n.Kind() == "unary_expression" && Operator(n) == "void"
}

// Operator returns the operator token of binary, unary and augmented
// assignment expressions.
func Operator(n Node) string {
	op := n.Field("operator")
	if op.IsZero() {
		return ""
	}
	return op.Kind()
}

// StringValue returns the unquoted value of a string literal.
func StringValue(n Node) (string, bool) {
	if n.Kind() != "string" {
		return "", false
	}
	text := n.Text()
	if len(text) < 2 {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if !strings.Contains(inner, `\`) {
		return inner, true
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 == len(inner) {
			b.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String(), true
}

// PropertyName returns the static name of an object or class member key.
func PropertyName(key Node) (string, bool) {
	switch key.Kind() {
	case "property_identifier", "identifier", "private_property_identifier",
		"shorthand_property_identifier", "type_identifier", "number":
		return key.Text(), true
	case "string":
		return StringValue(key)
	}
	return "", false
}

// ObjectProperty is one statically named entry of an object literal.
type ObjectProperty struct {
	Name  string
	Key   Node
	Value Node
	Node  Node
}

// ObjectProperties lists the `key: value` and method entries of an object
// literal in source order. Computed keys and spreads are left out.
func ObjectProperties(obj Node) []ObjectProperty {
	obj = Unparen(obj)
	if obj.Kind() != "object" {
		return nil
	}
	var out []ObjectProperty
	for _, child := range obj.NamedChildren() {
		switch child.Kind() {
		case "pair":
			key := child.Field("key")
			name, ok := PropertyName(key)
			if !ok {
				continue
			}
			out = append(out, ObjectProperty{Name: name, Key: key, Value: child.Field("value"), Node: child})
		case "method_definition":
			key := child.Field("name")
			name, ok := PropertyName(key)
			if !ok {
				continue
			}
			out = append(out, ObjectProperty{Name: name, Key: key, Value: child, Node: child})
		case "shorthand_property_identifier":
			out = append(out, ObjectProperty{Name: child.Text(), Key: child, Value: child, Node: child})
		}
	}
	return out
}

// LookupProperty returns the value of the first property with the given name.
func LookupProperty(obj Node, name string) (Node, bool) {
	for _, prop := range ObjectProperties(obj) {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return Node{}, false
}

// ArrayElements returns the elements of an array literal.
func ArrayElements(arr Node) ([]Node, bool) {
	arr = Unparen(arr)
	if arr.Kind() != "array" {
		return nil, false
	}
	return arr.NamedChildren(), true
}

// CallArguments returns the argument expressions of a call or new expression.
func CallArguments(call Node) []Node {
	args := call.Field("arguments")
	if args.Kind() != "arguments" {
		return nil
	}
	return args.NamedChildren()
}

// Callee returns the function being called.
func Callee(call Node) Node {
	if call.Kind() == "new_expression" {
		return call.Field("constructor")
	}
	return call.Field("function")
}

// Parameters lists the formal parameters of any function-like node.
func Parameters(fn Node) []Node {
	if single := fn.Field("parameter"); !single.IsZero() {
		return []Node{single}
	}
	params := fn.Field("parameters")
	if params.IsZero() {
		return nil
	}
	return params.NamedChildren()
}

// ParameterName returns the bound identifier of a simple parameter, seeing
// through default values and rest syntax.
func ParameterName(param Node) Node {
	switch param.Kind() {
	case "identifier":
		return param
	case "assignment_pattern":
		return ParameterName(param.Field("left"))
	case "rest_pattern":
		return ParameterName(param.FirstNamedChild())
	case "required_parameter", "optional_parameter":
		return ParameterName(param.Field("pattern"))
	}
	return Node{}
}

// Body returns the statements of a function body. An arrow function with an
// expression body yields nil statements and the expression.
func Body(fn Node) ([]Node, Node) {
	body := fn.Field("body")
	if body.Kind() == "statement_block" {
		return body.NamedChildren(), Node{}
	}
	return nil, body
}

// ReturnExpression returns the expression of a return statement.
func ReturnExpression(stmt Node) Node {
	if stmt.Kind() != "return_statement" {
		return Node{}
	}
	return stmt.FirstNamedChild()
}

// ExpressionOf returns the expression held by an expression statement.
func ExpressionOf(stmt Node) Node {
	if stmt.Kind() != "expression_statement" {
		return Node{}
	}
	return stmt.FirstNamedChild()
}

// Declarators returns the declarators of a var/let/const statement.
func Declarators(stmt Node) []Node {
	if !stmt.Is("variable_declaration", "lexical_declaration") {
		return nil
	}
	var out []Node
	for _, child := range stmt.NamedChildren() {
		if child.Kind() == "variable_declarator" {
			out = append(out, child)
		}
	}
	return out
}

// DeclarationName returns the name node of a declarator, function or class.
func DeclarationName(decl Node) Node {
	return decl.Field("name")
}

// IsAssignment matches a plain `left = right` expression.
func IsAssignment(n Node) bool {
	return n.Kind() == "assignment_expression"
}

// MemberParts splits `object.property` into its parts.
func MemberParts(n Node) (object Node, property string, ok bool) {
	if n.Kind() != "member_expression" {
		return Node{}, "", false
	}
	prop := n.Field("property")
	if prop.IsZero() {
		return Node{}, "", false
	}
	return n.Field("object"), prop.Text(), true
}

// IsMemberOf matches `<name>.<property>` where the object is a bare identifier.
func IsMemberOf(n Node, object, property string) bool {
	obj, prop, ok := MemberParts(n)
	return ok && IsIdentifier(obj) && obj.Text() == object && prop == property
}

// EnclosingStatement climbs to the closest ancestor whose parent is a
// statement container.
func EnclosingStatement(n Node) Node {
	for cur := n; !cur.IsZero(); cur = cur.Parent() {
		if IsStatementContainer(cur.Parent()) {
			return cur
		}
	}
	return Node{}
}

func IsStatementContainer(n Node) bool {
	return n.Is("program", "statement_block", "class_static_block", "switch_case", "switch_default")
}
