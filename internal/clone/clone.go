// Package clone acquires the repository to document: a local directory is
// used in place, anything else is treated as a git URL and cloned shallow.
package clone

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var repoSuffixRe = regexp.MustCompile(`^(.*?)_repo_\d+$`)

// Acquire resolves source to a local repository directory plus a display
// name. Acquisition failure is fatal for the run.
func Acquire(ctx context.Context, source, workRoot string) (dir, name string, err error) {
	if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
		abs, err := filepath.Abs(source)
		if err != nil {
			return "", "", fmt.Errorf("resolving %s: %w", source, err)
		}
		return abs, RepoName(abs), nil
	}

	if _, err := exec.LookPath("git"); err != nil {
		return "", "", fmt.Errorf("cloning %s: git not found in PATH", source)
	}

	name = nameFromURL(source)
	dest, err := uniqueDir(filepath.Join(workRoot, "repos"), name+"_repo")
	if err != nil {
		return "", "", err
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", source, dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(dest)
		return "", "", fmt.Errorf("git clone %s: %w: %s", source, err, strings.TrimSpace(string(out)))
	}

	return dest, name, nil
}

// RepoName derives a clean repository name from a directory path,
// stripping the _repo_<n> suffix clone destinations carry.
func RepoName(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if m := repoSuffixRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return base
}

func nameFromURL(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return "repo"
	}
	return trimmed
}

// uniqueDir returns a not-yet-existing directory under base with the
// given prefix, creating base itself if needed.
func uniqueDir(base, prefix string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", base, err)
	}
	for i := 1; i < 10000; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("%s_%d", prefix, i))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	dir, err := os.MkdirTemp(base, prefix+"_")
	if err != nil {
		return "", fmt.Errorf("creating clone destination: %w", err)
	}
	return dir, nil
}
