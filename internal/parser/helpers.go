package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// declaratorName digs through pointer/reference/init wrappers to the
// declared identifier, qualified or not.
func declaratorName(node *tree_sitter.Node, content []byte) string {
	for node != nil {
		switch node.Kind() {
		case "identifier", "field_identifier", "type_identifier",
			"qualified_identifier", "destructor_name", "operator_name":
			return string(content[node.StartByte():node.EndByte()])
		case "function_declarator", "pointer_declarator", "array_declarator",
			"init_declarator":
			node = node.ChildByFieldName("declarator")
		case "parenthesized_declarator", "reference_declarator":
			// These wrap their declarator without a field name.
			node = firstNamedChild(node)
		default:
			return ""
		}
	}
	return ""
}

func firstNamedChild(node *tree_sitter.Node) *tree_sitter.Node {
	if node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

// findKind searches a declarator chain for a node of the given kind.
func findKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for node != nil {
		if node.Kind() == kind {
			return node
		}
		node = node.ChildByFieldName("declarator")
	}
	return nil
}

// isFunctionPointerDeclarator reports whether a function_declarator
// declares a pointer to function, as in `void (*fp)()`.
func isFunctionPointerDeclarator(fnDecl *tree_sitter.Node) bool {
	inner := fnDecl.ChildByFieldName("declarator")
	return inner != nil && inner.Kind() == "parenthesized_declarator"
}

// initValue returns the initializer of an init_declarator chain, nil for
// plain declarations.
func initValue(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		if node.Kind() == "init_declarator" {
			return node.ChildByFieldName("value")
		}
		node = node.ChildByFieldName("declarator")
	}
	return nil
}

// functionReference reports whether an expression spells a plain function
// reference (`f`, `ns::f`, `&f`) and returns its spelling without the
// address-of operator.
func functionReference(node *tree_sitter.Node, content []byte) (string, bool) {
	switch node.Kind() {
	case "identifier", "qualified_identifier":
		return string(content[node.StartByte():node.EndByte()]), true
	case "pointer_expression":
		if arg := node.ChildByFieldName("argument"); arg != nil {
			return functionReference(arg, content)
		}
	}
	return "", false
}

// calleeExpression extracts the spelling the engine resolves a call
// target by. Member calls keep only the member name; the engine has no
// receiver-type inference.
func calleeExpression(node *tree_sitter.Node, content []byte) string {
	switch node.Kind() {
	case "identifier", "qualified_identifier", "template_function":
		return string(content[node.StartByte():node.EndByte()])
	case "field_expression":
		if field := node.ChildByFieldName("field"); field != nil {
			return string(content[field.StartByte():field.EndByte()])
		}
	case "parenthesized_expression":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if inner := calleeExpression(node.NamedChild(i), content); inner != "" {
				return inner
			}
		}
	}
	return ""
}
