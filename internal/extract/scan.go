package extract

import (
	"regexp"
	"strings"

	"docassist/internal/metadata"
)

var envKeyRes = []*regexp.Regexp{
	regexp.MustCompile(`os\.getenv\(\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`os\.environ\.get\(\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`os\.environ\[\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`process\.env\.([A-Za-z_][A-Za-z0-9_]*)`),
	regexp.MustCompile(`process\.env\[\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`\bgetenv\(\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]{2,})\}`),
}

var (
	// @app.route("/path", methods=["POST"]) — Flask style.
	routeDecoratorRe = regexp.MustCompile(`@\w+\.route\(\s*['"]([^'"]+)['"]([^)\n]*)`)
	routeMethodsRe   = regexp.MustCompile(`methods\s*=\s*\[([^\]]*)\]`)
	// @app.get("/path") — FastAPI style.
	methodDecoratorRe = regexp.MustCompile(`@\w+\.(get|post|put|delete|patch)\(\s*['"]([^'"]+)['"]`)
	// app.get('/path', ...) — Express style.
	expressRouteRe = regexp.MustCompile(`\b(?:app|router|server)\.(get|post|put|delete|patch)\(\s*['"]([^'"]+)['"]`)
	// HandleFunc("/path", ...) — net/http style.
	handleFuncRe = regexp.MustCompile(`Handle(?:Func)?\(\s*"([^"]+)"`)
)

// scanConfigAndEndpoints detects environment-variable references and API
// endpoint definitions. Key and path strings are preserved exactly as
// they appear in source.
func scanConfigAndEndpoints(rec *metadata.Record, source []byte) {
	text := string(source)

	var keys []string
	for _, re := range envKeyRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			keys = append(keys, m[1])
		}
	}
	rec.ConfigKeys = dedupe(keys)

	rec.Endpoints = scanEndpoints(text)
}

func scanEndpoints(text string) []metadata.Endpoint {
	var endpoints []metadata.Endpoint
	seen := make(map[string]struct{})
	add := func(method, path string) {
		method = strings.ToUpper(strings.TrimSpace(method))
		if method == "" {
			method = "GET"
		}
		key := method + " " + path
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		endpoints = append(endpoints, metadata.Endpoint{Method: method, Path: path})
	}

	for _, m := range routeDecoratorRe.FindAllStringSubmatch(text, -1) {
		path, rest := m[1], m[2]
		if mm := routeMethodsRe.FindStringSubmatch(rest); mm != nil {
			for _, method := range strings.Split(mm[1], ",") {
				method = strings.Trim(strings.TrimSpace(method), `'"`)
				if method != "" {
					add(method, path)
				}
			}
		} else {
			add("GET", path)
		}
	}
	for _, m := range methodDecoratorRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2])
	}
	for _, m := range expressRouteRe.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2])
	}
	for _, m := range handleFuncRe.FindAllStringSubmatch(text, -1) {
		add("ANY", m[1])
	}

	return endpoints
}
