package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScript shares the javascript walkers: the grammars agree on the
// node types those helpers touch (formal_parameters, type_annotation,
// class_body, comment).
func init() {
	Languages["typescript"] = &Language{
		Name:            "typescript",
		Extensions:      []string{".ts"},
		lang:            typescript.GetLanguage(),
		FindMethodClass: jsFindMethodClass,
		Signature:       jsSignature,
		Doc:             jsDoc,
	}
	Languages["tsx"] = &Language{
		Name:            "tsx",
		Extensions:      []string{".tsx"},
		lang:            tsx.GetLanguage(),
		FindMethodClass: jsFindMethodClass,
		Signature:       jsSignature,
		Doc:             jsDoc,
	}
}
