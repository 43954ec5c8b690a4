package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// completionStub serves a fixed assistant response for any chat request.
func completionStub(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": text}},
			},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRunEndToEnd(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo, "greet.py", "def greet(name):\n    return f\"hi {name}\"\n")
	writeFixture(t, repo, "empty.py", "")

	srv := completionStub(t, "X")
	defer srv.Close()

	t.Setenv("DOCASSIST_API_KEY", "test-key")
	t.Setenv("DOC_STORE_ENDPOINT", "")

	outDir := filepath.Join(t.TempDir(), "out")
	workDir := filepath.Join(t.TempDir(), "work")

	var stdout, stderr bytes.Buffer
	err := run([]string{
		"--endpoint", srv.URL,
		"--model", "gpt-4o",
		"-o", outDir,
		"--work-dir", workDir,
		"--no-remote",
		repo,
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, stderr.String())
	}

	// The documentation file is the verbatim completion text.
	docData, err := os.ReadFile(filepath.Join(outDir, "documentation.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(docData) != "X" {
		t.Errorf("documentation = %q, want exactly %q", docData, "X")
	}

	// The metadata artifact carries one record per staged file, empty
	// files included.
	metaData, err := os.ReadFile(filepath.Join(outDir, "metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	var meta struct {
		Repo  string                     `json:"repo"`
		Files map[string]json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(metaData, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Repo != filepath.Base(repo) {
		t.Errorf("repo = %q, want %q", meta.Repo, filepath.Base(repo))
	}
	for _, path := range []string{"greet.py", "empty.py"} {
		if _, ok := meta.Files[path]; !ok {
			t.Errorf("metadata missing record for %s", path)
		}
	}

	// Originals were staged by copy, not moved.
	if _, err := os.Stat(filepath.Join(repo, "greet.py")); err != nil {
		t.Errorf("original file missing after run: %v", err)
	}
}

func TestRunDryRunStopsBeforeCompletion(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo, "app.py", "def main():\n    pass\n")

	t.Setenv("DOCASSIST_API_KEY", "")

	outDir := filepath.Join(t.TempDir(), "out")
	var stdout, stderr bytes.Buffer
	err := run([]string{
		"--dry-run",
		"-o", outDir,
		"--work-dir", filepath.Join(t.TempDir(), "work"),
		repo,
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, stderr.String())
	}

	if _, err := os.Stat(filepath.Join(outDir, "metadata.json")); err != nil {
		t.Errorf("metadata artifact missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "documentation.md")); !os.IsNotExist(err) {
		t.Error("dry run must not produce documentation output")
	}
}

func TestRunNoCodeFiles(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo, "README.md", "# nothing here\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--dry-run", "--work-dir", filepath.Join(t.TempDir(), "w"), repo}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for a repository without code files")
	}
	if !strings.Contains(err.Error(), "no code files") {
		t.Errorf("error = %v", err)
	}
}

func TestRunVersionFlag(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "docassist") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRunRequiresSource(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	if err := run(nil, &stdout, &stderr); err == nil {
		t.Fatal("expected usage error without a repository argument")
	}
}

func TestLoadInstruction(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	// Explicitly named file must exist.
	if _, err := loadInstruction(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for a named missing instruction file")
	}

	custom := filepath.Join(dir, "custom.txt")
	if err := os.WriteFile(custom, []byte("custom instruction"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := loadInstruction(custom)
	if err != nil {
		t.Fatal(err)
	}
	if got != "custom instruction" {
		t.Errorf("instruction = %q", got)
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   []string
		want []string
	}{
		{
			in:   []string{"repo", "--dry-run"},
			want: []string{"--dry-run", "repo"},
		},
		{
			in:   []string{"-o", "out", "repo", "--verbose"},
			want: []string{"-o", "out", "--verbose", "repo"},
		},
		{
			in:   []string{"repo", "--", "--not-a-flag"},
			want: []string{"repo", "--not-a-flag"},
		},
		{
			in:   []string{"--model", "gpt-4o", "repo"},
			want: []string{"--model", "gpt-4o", "repo"},
		},
	}
	for _, c := range cases {
		if got := reorderArgs(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("reorderArgs(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
