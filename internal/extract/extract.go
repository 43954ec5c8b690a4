// Package extract turns staged files into metadata records. Extractors
// are a closed set of variants selected by the file's detected kind, with
// a declared fallback order: structured parse, then lexical scan, then an
// error record. Every extractor is a pure function of file content.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docassist/internal/classify"
	"docassist/internal/metadata"
)

// Extract produces a metadata record from one staged file. A failure
// yields a record marked with an error reason; it never affects sibling
// files.
func Extract(f classify.StagedFile) metadata.Record {
	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return metadata.Record{Path: f.Path, Error: fmt.Sprintf("read: %v", err)}
	}
	return FromContent(f.File, data)
}

// FromContent extracts a record from raw content without touching the
// filesystem. Identifier strings are preserved exactly as written.
func FromContent(f classify.File, data []byte) metadata.Record {
	rec := metadata.Record{Path: f.Path, Lines: countLines(data)}

	switch f.Kind {
	case classify.KindSource:
		extractSource(&rec, f.Path, data)
	case classify.KindScript:
		rec.Language = scriptLanguage(f.Path)
		lexicalInto(&rec, data)
		scanConfigAndEndpoints(&rec, data)
	case classify.KindMarkup:
		rec.Language = scriptLanguage(f.Path)
		scanConfigAndEndpoints(&rec, data)
	case classify.KindNotebook:
		extractNotebook(&rec, data)
	case classify.KindManifest:
		extractManifest(&rec, filepath.Base(f.Path), data)
	default:
		rec.Error = "unsupported file kind"
	}

	return rec
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// scriptLanguage labels script and markup files by extension.
var extLanguages = map[string]string{
	".sh": "shell", ".bash": "shell", ".zsh": "shell",
	".ps1": "powershell", ".psm1": "powershell",
	".cmd": "batch", ".bat": "batch",
	".sql": "sql", ".pl": "perl", ".r": "r",
	".java": "java", ".kt": "kotlin", ".groovy": "groovy",
	".c": "c", ".h": "c", ".cpp": "cpp", ".cxx": "cpp", ".hpp": "cpp", ".cc": "cpp",
	".go": "go", ".rs": "rust", ".rb": "ruby",
	".cs": "csharp", ".swift": "swift", ".scala": "scala",
	".json": "json", ".yml": "yaml", ".yaml": "yaml", ".toml": "toml",
	".xml": "xml", ".ini": "ini", ".cfg": "ini", ".conf": "ini",
}

func scriptLanguage(path string) string {
	name := filepath.Base(path)
	switch name {
	case "Dockerfile":
		return "dockerfile"
	case "Makefile":
		return "makefile"
	}
	ext := strings.ToLower(filepath.Ext(name))
	if l, ok := extLanguages[ext]; ok {
		return l
	}
	if ext != "" {
		return strings.TrimPrefix(ext, ".")
	}
	return "text"
}

// dedupe removes duplicates while preserving first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
