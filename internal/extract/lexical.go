package extract

import (
	"regexp"
	"strings"

	"docassist/internal/metadata"
)

// The lexical extractor is regex/token based: it serves languages without
// an available grammar and acts as the fallback when a structured parse
// fails. Patterns follow the same families the structured grammars cover.
var (
	pyDefRe   = regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*(\([^)]*\))`)
	pyClassRe = regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_][A-Za-z0-9_]*)`)

	jsFuncRe   = regexp.MustCompile(`\bfunction\s+&?\s*([A-Za-z_$][\w$]*)\s*(\([^)]*\))`)
	jsArrowRe  = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?(\([^)]*\))\s*=>`)
	classDefRe = regexp.MustCompile(`\bclass\s+([A-Za-z_$][\w$]*)`)

	shFuncRe = regexp.MustCompile(`(?m)^\s*(?:function\s+)?([A-Za-z_][A-Za-z0-9_-]*)\s*\(\)\s*\{`)
	goFuncRe = regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*(\([^)]*\))`)

	pyImportRe     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\s+([\w.*]+(?:\s*,\s*[\w.*]+)*)`)
	jsImportRe     = regexp.MustCompile(`\bimport\b[^'"\n]*['"]([^'"]+)['"]`)
	jsRequireRe    = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	phpUseRe       = regexp.MustCompile(`\buse\s+([A-Za-z_\\][A-Za-z0-9_\\]*)\s*;`)
	rubyRequireRe  = regexp.MustCompile(`\brequire(?:_relative)?\s+['"]([^'"]+)['"]`)
)

// lexicalInto scans for declarations and imports across all supported
// pattern families; for mixed or unknown content the union is the
// best-effort answer. Results keep first-seen order with duplicates
// removed, exactly as written in source.
func lexicalInto(rec *metadata.Record, source []byte) {
	text := string(source)

	var symbols []metadata.Symbol
	seen := make(map[string]struct{})
	add := func(name, params string, kind metadata.SymbolKind) {
		key := string(kind) + ":" + name
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		symbols = append(symbols, metadata.Symbol{Name: name, Kind: kind, Params: params})
	}

	for _, m := range pyDefRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], metadata.Function)
	}
	for _, m := range jsFuncRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], metadata.Function)
	}
	for _, m := range jsArrowRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], metadata.Function)
	}
	for _, m := range goFuncRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], metadata.Function)
	}
	for _, m := range shFuncRe.FindAllStringSubmatch(text, -1) {
		add(m[1], "()", metadata.Function)
	}
	for _, m := range pyClassRe.FindAllStringSubmatch(text, -1) {
		add(m[1], "", metadata.Class)
	}
	for _, m := range classDefRe.FindAllStringSubmatch(text, -1) {
		add(m[1], "", metadata.Class)
	}

	rec.Symbols = symbols
	rec.Imports = dedupe(scanAllImports(text))
}

// scanImports returns imports for one known language family.
func scanImports(language string, source []byte) []string {
	text := string(source)
	var imports []string

	switch language {
	case "python":
		imports = pythonImports(text)
	case "javascript", "typescript", "tsx":
		for _, m := range jsImportRe.FindAllStringSubmatch(text, -1) {
			imports = append(imports, m[1])
		}
		for _, m := range jsRequireRe.FindAllStringSubmatch(text, -1) {
			imports = append(imports, m[1])
		}
	case "php":
		for _, m := range phpUseRe.FindAllStringSubmatch(text, -1) {
			imports = append(imports, m[1])
		}
	default:
		imports = scanAllImports(text)
	}

	return dedupe(imports)
}

func pythonImports(text string) []string {
	var imports []string
	for _, m := range pyImportRe.FindAllStringSubmatch(text, -1) {
		imports = append(imports, m[1])
	}
	for _, m := range pyFromImportRe.FindAllStringSubmatch(text, -1) {
		mod := m[1]
		for _, name := range strings.Split(m[2], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			imports = append(imports, mod+"."+name)
		}
	}
	return imports
}

func scanAllImports(text string) []string {
	var imports []string
	imports = append(imports, pythonImports(text)...)
	for _, re := range []*regexp.Regexp{jsImportRe, jsRequireRe, phpUseRe, rubyRequireRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			imports = append(imports, m[1])
		}
	}
	return imports
}
