package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"

	"docassist/internal/metadata"
)

var gemRe = regexp.MustCompile(`(?m)^\s*gem\s+['"]([^'"]+)['"]`)

// extractManifest reads declared third-party dependency names out of a
// dependency manifest. Names are preserved exactly as declared.
func extractManifest(rec *metadata.Record, name string, data []byte) {
	rec.Language = "manifest"

	switch name {
	case "go.mod":
		f, err := modfile.Parse(name, data, nil)
		if err != nil {
			rec.Error = fmt.Sprintf("go.mod: %v", err)
			return
		}
		for _, req := range f.Require {
			if !req.Indirect {
				rec.Dependencies = append(rec.Dependencies, req.Mod.Path)
			}
		}
	case "package.json":
		var pkg struct {
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			rec.Error = fmt.Sprintf("package.json: %v", err)
			return
		}
		rec.Dependencies = append(sortedKeys(pkg.Dependencies), sortedKeys(pkg.DevDependencies)...)
	case "composer.json":
		var pkg struct {
			Require    map[string]string `json:"require"`
			RequireDev map[string]string `json:"require-dev"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			rec.Error = fmt.Sprintf("composer.json: %v", err)
			return
		}
		for _, dep := range append(sortedKeys(pkg.Require), sortedKeys(pkg.RequireDev)...) {
			if dep == "php" || strings.HasPrefix(dep, "ext-") {
				continue
			}
			rec.Dependencies = append(rec.Dependencies, dep)
		}
	case "requirements.txt":
		rec.Dependencies = requirementsDeps(data)
	case "Gemfile":
		for _, m := range gemRe.FindAllStringSubmatch(string(data), -1) {
			rec.Dependencies = append(rec.Dependencies, m[1])
		}
	case "Pipfile":
		rec.Dependencies = pipfileDeps(data)
	default:
		rec.Error = fmt.Sprintf("unrecognized manifest %q", name)
		return
	}

	rec.Dependencies = dedupe(rec.Dependencies)
}

func requirementsDeps(data []byte) []string {
	var deps []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Strip version specifiers and extras: "pkg[extra]>=1.0" -> "pkg".
		if i := strings.IndexAny(line, "[=<>!~; "); i >= 0 {
			line = line[:i]
		}
		if line != "" {
			deps = append(deps, line)
		}
	}
	return deps
}

func pipfileDeps(data []byte) []string {
	var deps []string
	inPackages := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inPackages = line == "[packages]" || line == "[dev-packages]"
			continue
		}
		if !inPackages || line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, "="); i > 0 {
			deps = append(deps, strings.Trim(strings.TrimSpace(line[:i]), `"`))
		}
	}
	return deps
}

// sortedKeys keeps package.json-style map sections deterministic: JSON
// map iteration order would otherwise vary between runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
