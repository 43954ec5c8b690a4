package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

func init() {
	Languages["php"] = &Language{
		Name:            "php",
		Extensions:      []string{".php"},
		lang:            php.GetLanguage(),
		FindMethodClass: phpFindMethodClass,
		Signature:       phpSignature,
		Doc:             jsDoc, // PHP doc comments use the same /** */ shape
	}
}

func phpFindMethodClass(node *sitter.Node, source []byte) string {
	if node.Type() != "method_declaration" {
		return ""
	}
	body := node.Parent()
	if body == nil || body.Type() != "declaration_list" {
		return ""
	}
	class := body.Parent()
	if class == nil {
		return ""
	}
	if name := childOfType(class, "name"); name != nil {
		return NodeText(name, source)
	}
	return ""
}

func phpSignature(node *sitter.Node, source []byte) (string, string) {
	var params, returns string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "formal_parameters":
			params = CollapseWhitespace(NodeText(child, source))
		case "named_type", "primitive_type", "union_type", "optional_type":
			returns = NodeText(child, source)
		}
	}
	return params, returns
}
