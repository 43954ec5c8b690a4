package classify

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func kindsByPath(p *Partition) map[string]Kind {
	m := make(map[string]Kind, len(p.Code))
	for _, f := range p.Code {
		m[f.Path] = f.Kind
	}
	return m
}

func TestClassifyPartition(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.py", "def main():\n    pass\n")
	writeFile(t, root, "web/index.ts", "export function f() {}\n")
	writeFile(t, root, "scripts/run.sh", "#!/bin/sh\necho hi\n")
	writeFile(t, root, "config.yaml", "key: value\n")
	writeFile(t, root, "notebooks/eda.ipynb", "{}")
	writeFile(t, root, "requirements.txt", "flask\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "logo.png", "\x89PNG")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	kinds := kindsByPath(p)
	want := map[string]Kind{
		"app.py":             KindSource,
		"web/index.ts":       KindSource,
		"scripts/run.sh":     KindScript,
		"config.yaml":        KindMarkup,
		"notebooks/eda.ipynb": KindNotebook,
		"requirements.txt":   KindManifest,
	}
	for path, kind := range want {
		if kinds[path] != kind {
			t.Errorf("%s classified %q, want %q", path, kinds[path], kind)
		}
	}
	if len(p.Code) != len(want) {
		t.Errorf("code files = %d, want %d: %+v", len(p.Code), len(want), p.Code)
	}

	nonCode := make(map[string]bool)
	for _, path := range p.NonCode {
		nonCode[path] = true
	}
	if !nonCode["README.md"] || !nonCode["logo.png"] {
		t.Errorf("non-code = %v, want README.md and logo.png", p.NonCode)
	}
}

func TestClassifySkipsToolDirsAndDotfiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, root, "__pycache__/app.cpython-311.pyc", "\x00\x00")
	writeFile(t, root, ".hidden/secret.py", "x = 1\n")
	writeFile(t, root, ".env", "KEY=1\n")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Code) != 1 || p.Code[0].Path != "app.py" {
		t.Errorf("code = %+v, want only app.py", p.Code)
	}
}

func TestClassifyHonorsGitignore(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n*.gen.py\n")
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "model.gen.py", "x = 1\n")
	writeFile(t, root, "generated/out.py", "x = 1\n")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Code) != 1 || p.Code[0].Path != "app.py" {
		t.Errorf("code = %+v, want only app.py", p.Code)
	}
}

func TestClassifyExtensionlessSniff(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "entrypoint", "#!/bin/bash\nset -e\n")
	writeFile(t, root, "NOTES", "just some prose without any markers\n")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	kinds := kindsByPath(p)
	if kinds["entrypoint"] != KindScript {
		t.Errorf("entrypoint = %q, want script", kinds["entrypoint"])
	}
	if _, ok := kinds["NOTES"]; ok {
		t.Error("NOTES should not be classified as code")
	}
}

func TestClassifyRecordsUnreadableDirs(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not bind root")
	}
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "locked/inner.py", "x = 1\n")

	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Code) != 1 || p.Code[0].Path != "app.py" {
		t.Errorf("code = %+v, want only app.py", p.Code)
	}
	found := false
	for _, s := range p.Skipped {
		if s.Path == "locked" && s.Reason != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("skipped = %+v, want locked with a reason", p.Skipped)
	}
}

func TestClassifyRootNotADirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")

	if _, err := Classify(filepath.Join(root, "file.txt")); err == nil {
		t.Fatal("expected error for non-directory root")
	}
	if _, err := Classify(filepath.Join(root, "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestStageCopiesWithoutMoving(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.py", "def main():\n    pass\n")
	writeFile(t, root, "pkg/util.py", "def helper():\n    pass\n")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	stagingRoot := filepath.Join(t.TempDir(), "staging")
	staged, skipped, err := Stage(p, stagingRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %+v, want none", skipped)
	}
	if len(staged) != 2 {
		t.Fatalf("staged = %d, want 2", len(staged))
	}

	for _, f := range staged {
		// Originals stay put.
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(f.Path))); err != nil {
			t.Errorf("original %s missing after staging: %v", f.Path, err)
		}
		// Copies carry identical content.
		orig, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			t.Fatal(err)
		}
		copied, err := os.ReadFile(f.AbsPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(orig) != string(copied) {
			t.Errorf("%s: staged content differs from original", f.Path)
		}
	}
}

func TestStageIdempotent(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}

	stagingRoot := filepath.Join(t.TempDir(), "staging")
	first, _, err := Stage(p, stagingRoot)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Stage(p, stagingRoot)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("staged counts = %d, %d, want 1, 1", len(first), len(second))
	}
	if first[0].AbsPath != second[0].AbsPath {
		t.Errorf("restaging produced a different destination: %s vs %s", first[0].AbsPath, second[0].AbsPath)
	}

	entries, err := os.ReadDir(stagingRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("staging root has %d entries after restage, want 1", len(entries))
	}
}

func TestStageRecordsUnreadableFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")

	p, err := Classify(root)
	if err != nil {
		t.Fatal(err)
	}
	// A file that vanished between classification and staging is the
	// portable way to trigger a read failure.
	p.Code = append(p.Code, File{Path: "gone.py", Kind: KindSource})

	staged, skipped, err := Stage(p, filepath.Join(t.TempDir(), "staging"))
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 {
		t.Errorf("staged = %+v, want only app.py", staged)
	}
	if len(skipped) != 1 || skipped[0].Path != "gone.py" || skipped[0].Reason == "" {
		t.Errorf("skipped = %+v, want gone.py with a reason", skipped)
	}
}
