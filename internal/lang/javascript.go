package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

func init() {
	Languages["javascript"] = &Language{
		Name:            "javascript",
		Extensions:      []string{".js", ".jsx", ".mjs", ".cjs"},
		lang:            javascript.GetLanguage(),
		FindMethodClass: jsFindMethodClass,
		Signature:       jsSignature,
		Doc:             jsDoc,
	}
}

// jsFindMethodClass handles method_definition nodes nested in a class
// body and returns the class name.
func jsFindMethodClass(node *sitter.Node, source []byte) string {
	if node.Type() != "method_definition" {
		return ""
	}
	body := node.Parent()
	if body == nil || body.Type() != "class_body" {
		return ""
	}
	class := body.Parent()
	if class == nil {
		return ""
	}
	for i := 0; i < int(class.ChildCount()); i++ {
		child := class.Child(i)
		if child.Type() == "identifier" || child.Type() == "type_identifier" {
			return NodeText(child, source)
		}
	}
	return ""
}

func jsSignature(node *sitter.Node, source []byte) (string, string) {
	target := node
	// const f = (...) => ... captures the declarator; the parameters
	// live on the arrow function value.
	if node.Type() == "variable_declarator" {
		if fn := childOfType(node, "arrow_function"); fn != nil {
			target = fn
		} else if fn := childOfType(node, "function_expression"); fn != nil {
			target = fn
		}
	}

	var params, returns string
	for i := 0; i < int(target.ChildCount()); i++ {
		child := target.Child(i)
		switch child.Type() {
		case "formal_parameters":
			params = CollapseWhitespace(NodeText(child, source))
		case "identifier":
			// Single-parameter arrow function without parentheses.
			if target.Type() == "arrow_function" && params == "" {
				params = "(" + NodeText(child, source) + ")"
			}
		case "type_annotation":
			returns = strings.TrimSpace(strings.TrimPrefix(NodeText(child, source), ":"))
		}
	}
	return params, returns
}

// jsDoc returns the comment immediately preceding a definition, if any.
func jsDoc(node *sitter.Node, source []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil && node.Parent() != nil {
		// export/declaration wrappers: look before the wrapper.
		switch node.Parent().Type() {
		case "export_statement", "variable_declaration", "lexical_declaration":
			prev = node.Parent().PrevNamedSibling()
		}
	}
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	return trimJSComment(NodeText(prev, source))
}

func trimJSComment(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "/*") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "/*"), "*/")
		var lines []string
		for _, line := range strings.Split(s, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
			if line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, " ")
	}
	return strings.TrimSpace(strings.TrimPrefix(s, "//"))
}
