package extract

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"docassist/internal/lang"
	"docassist/internal/metadata"
)

// extractSource parses a source file with tree-sitter and collects its
// declared classes, functions, and methods in document order. When the
// grammar cannot produce a clean tree, it falls back to the lexical
// scanner and marks the record partial so downstream consumers know
// fidelity is reduced.
func extractSource(rec *metadata.Record, path string, source []byte) {
	l := lang.Languages[lang.ForExtension(strings.ToLower(filepath.Ext(path)))]
	if l == nil {
		lexicalFallback(rec, source, "no grammar registered")
		return
	}
	rec.Language = l.Name

	query, err := l.GetDefQuery()
	if err != nil {
		lexicalFallback(rec, source, "query: "+err.Error())
		return
	}

	parser := l.NewParser()
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		lexicalFallback(rec, source, "parse failed")
		return
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		lexicalFallback(rec, source, "syntax errors in source")
		return
	}

	rec.Symbols = collectSymbols(l, query, root, source)
	rec.Imports = scanImports(l.Name, source)
	scanConfigAndEndpoints(rec, source)
}

func collectSymbols(l *lang.Language, query *sitter.Query, root *sitter.Node, source []byte) []metadata.Symbol {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var symbols []metadata.Symbol

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, defNode *sitter.Node
		var captureName string

		for _, c := range match.Captures {
			switch cname := query.CaptureNameForId(c.Index); cname {
			case "name":
				nameNode = c.Node
			case "definition.class", "definition.function":
				captureName = cname
				defNode = c.Node
			}
		}

		if nameNode == nil || defNode == nil {
			continue
		}

		kind := metadata.Function
		if captureName == "definition.class" {
			kind = metadata.Class
		}

		name := lang.NodeText(nameNode, source)
		if kind == metadata.Function && l.FindMethodClass != nil {
			if className := l.FindMethodClass(defNode, source); className != "" {
				kind = metadata.Method
				name = className + "." + name
			}
		}

		sym := metadata.Symbol{
			Name: name,
			Kind: kind,
			Line: int(nameNode.StartPoint().Row) + 1,
		}
		if l.Signature != nil {
			sym.Params, sym.Returns = l.Signature(defNode, source)
		}
		if l.Doc != nil {
			sym.Doc = l.Doc(defNode, source)
		}

		symbols = append(symbols, sym)
	}

	return symbols
}

// lexicalFallback runs the regex scanner in place of a failed structured
// parse and flags the record as partial.
func lexicalFallback(rec *metadata.Record, source []byte, reason string) {
	lexicalInto(rec, source)
	scanConfigAndEndpoints(rec, source)
	rec.Partial = true
	rec.PartialReason = reason
}
