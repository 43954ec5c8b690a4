// Package classify walks an acquired repository, partitions regular files
// into code and non-code, and stages code files into an isolated working
// tree for extraction.
package classify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"docassist/internal/lang"
	"docassist/internal/metadata"
)

// Kind is the detected language family of a code file. It is a closed
// set: every kind maps to exactly one extractor variant.
type Kind string

const (
	KindSource   Kind = "source"   // tree-sitter grammar available
	KindScript   Kind = "script"   // lexical scan only
	KindMarkup   Kind = "markup"   // config/data formats
	KindNotebook Kind = "notebook" // Jupyter notebooks
	KindManifest Kind = "manifest" // dependency manifests
	KindUnknown  Kind = "unknown"
)

// File is one classified code file, path relative to the repository root.
type File struct {
	Path string
	Kind Kind
}

// StagedFile is a code file copied into the staging tree.
type StagedFile struct {
	File
	AbsPath string // location inside the staging tree
}

// Partition is the result of classifying a repository.
type Partition struct {
	Root    string
	Code    []File
	NonCode []string
	Skipped []metadata.SkippedFile
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"build":         {},
	"dist":          {},
	"vendor":        {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// manifestNames are dependency manifests matched by file name.
var manifestNames = map[string]struct{}{
	"go.mod":           {},
	"package.json":     {},
	"requirements.txt": {},
	"composer.json":    {},
	"Gemfile":          {},
	"Pipfile":          {},
}

// nameOnlyCode are extensionless files treated as code by name.
var nameOnlyCode = map[string]struct{}{
	"Dockerfile": {},
	"Makefile":   {},
}

var scriptExts = map[string]struct{}{
	".sh": {}, ".bash": {}, ".zsh": {},
	".ps1": {}, ".psm1": {}, ".cmd": {}, ".bat": {},
	".sql": {}, ".pl": {}, ".r": {},
	// Languages without a registered grammar still get a lexical pass.
	".java": {}, ".kt": {}, ".groovy": {},
	".c": {}, ".h": {}, ".cpp": {}, ".cxx": {}, ".hpp": {}, ".cc": {},
	".go": {}, ".rs": {}, ".rb": {},
	".cs": {}, ".swift": {}, ".scala": {},
}

var markupExts = map[string]struct{}{
	".json": {}, ".yml": {}, ".yaml": {}, ".toml": {},
	".xml": {}, ".ini": {}, ".cfg": {}, ".conf": {},
}

var binaryExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".webp": {}, ".svg": {}, ".ico": {},
	".pdf": {}, ".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {},
	".mp3": {}, ".wav": {}, ".mp4": {}, ".mkv": {}, ".mov": {}, ".avi": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {},
	".doc": {}, ".docx": {}, ".ppt": {}, ".pptx": {}, ".xls": {}, ".xlsx": {},
}

// Classify walks the repository at root and partitions every regular
// file into code and non-code. Unreadable files are recorded as skipped
// with a reason; the walk itself never aborts on a per-file error.
func Classify(root string) (*Partition, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	gi := loadGitignore(root)
	p := &Partition{Root: root}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			p.Skipped = append(p.Skipped, metadata.SkippedFile{
				Path:   filepath.ToSlash(rel),
				Reason: fmt.Sprintf("walk: %v", err),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		kind, reason := kindForFile(path, name)
		switch {
		case reason != "":
			p.Skipped = append(p.Skipped, metadata.SkippedFile{Path: rel, Reason: reason})
		case kind == KindUnknown:
			p.NonCode = append(p.NonCode, rel)
		default:
			p.Code = append(p.Code, File{Path: rel, Kind: kind})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Stage copies (never moves) every classified code file into stagingRoot,
// mirroring relative paths. Re-running over the same repository overwrites
// staged files in place rather than duplicating them. A file that cannot
// be read or written is recorded as skipped and never aborts the stage.
func Stage(p *Partition, stagingRoot string) ([]StagedFile, []metadata.SkippedFile, error) {
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating staging root: %w", err)
	}

	var staged []StagedFile
	skipped := append([]metadata.SkippedFile(nil), p.Skipped...)

	for _, f := range p.Code {
		src := filepath.Join(p.Root, filepath.FromSlash(f.Path))
		dst := filepath.Join(stagingRoot, filepath.FromSlash(f.Path))

		data, err := os.ReadFile(src)
		if err != nil {
			skipped = append(skipped, metadata.SkippedFile{Path: f.Path, Reason: fmt.Sprintf("read: %v", err)})
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			skipped = append(skipped, metadata.SkippedFile{Path: f.Path, Reason: fmt.Sprintf("stage: %v", err)})
			continue
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			skipped = append(skipped, metadata.SkippedFile{Path: f.Path, Reason: fmt.Sprintf("stage: %v", err)})
			continue
		}
		staged = append(staged, StagedFile{File: f, AbsPath: dst})
	}

	return staged, skipped, nil
}

// kindForFile decides a file's kind from its name, extension, and, for
// extensionless or ambiguous files, a content sniff. A non-empty reason
// means the file could not be inspected and should be recorded as skipped.
func kindForFile(path, name string) (Kind, string) {
	if _, ok := manifestNames[name]; ok {
		return KindManifest, ""
	}
	if _, ok := nameOnlyCode[name]; ok {
		return KindScript, ""
	}

	ext := strings.ToLower(filepath.Ext(name))

	if _, ok := binaryExts[ext]; ok {
		return KindUnknown, ""
	}
	if ext == ".ipynb" {
		return KindNotebook, ""
	}
	if lang.ForExtension(ext) != "" {
		return KindSource, ""
	}
	if _, ok := scriptExts[ext]; ok {
		return KindScript, ""
	}
	if _, ok := markupExts[ext]; ok {
		return KindMarkup, ""
	}

	// Extensionless or unrecognized: sniff for text with code markers.
	isText, hasMarkers, err := sniff(path)
	if err != nil {
		return KindUnknown, fmt.Sprintf("sniff: %v", err)
	}
	if isText && hasMarkers {
		return KindScript, ""
	}
	return KindUnknown, ""
}

var codeMarkers = []string{
	"#!", "import ", "from ", "def ", "class ", "function ", "package ",
	"public ", "private ", "var ", "let ", "const ", "=>",
	"if (", "for (", "while (",
	"select ", "create table", "insert into",
	"pipeline:", "stages:", "jobs:", "steps:",
}

// sniff reads the head of a file and reports whether it looks like text
// and whether it contains typical code markers.
func sniff(path string) (isText, hasMarkers bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, false, err
	}
	defer f.Close()

	head := make([]byte, 2048)
	n, err := f.Read(head)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return true, false, nil // empty file: text, no markers
		}
		return false, false, err
	}
	head = head[:n]

	if bytes.IndexByte(head, 0) >= 0 {
		return false, false, nil
	}

	lower := strings.ToLower(string(head))
	for _, m := range codeMarkers {
		if strings.Contains(lower, m) {
			return true, true, nil
		}
	}
	return true, false, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
