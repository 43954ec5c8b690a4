// Package metadata defines the per-file record and aggregated document
// produced by extraction.
package metadata

// SymbolKind indicates the syntactic kind of a declared symbol.
type SymbolKind string

const (
	Class    SymbolKind = "class"
	Function SymbolKind = "function"
	Method   SymbolKind = "method"
)

// Symbol is a single declaration extracted from a source file.
// Name and Params are preserved exactly as they appear in source.
type Symbol struct {
	Name    string     `json:"name"`
	Kind    SymbolKind `json:"kind"`
	Params  string     `json:"params,omitempty"`
	Returns string     `json:"returns,omitempty"`
	Doc     string     `json:"doc,omitempty"`
	Line    int        `json:"line,omitempty"`
}

// Endpoint is a detected API route definition.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Cell summarizes one notebook cell. Cells are never executed; Outputs
// lists the output types already stored in the notebook.
type Cell struct {
	Kind    string   `json:"kind"`
	Source  string   `json:"source"`
	Outputs []string `json:"outputs,omitempty"`
}

// Record holds the structured facts extracted from one staged file.
type Record struct {
	Path          string     `json:"path"`
	Language      string     `json:"language"`
	Lines         int        `json:"lines"`
	Symbols       []Symbol   `json:"symbols,omitempty"`
	Imports       []string   `json:"imports,omitempty"`
	ConfigKeys    []string   `json:"config_keys,omitempty"`
	Dependencies  []string   `json:"dependencies,omitempty"`
	Endpoints     []Endpoint `json:"endpoints,omitempty"`
	Cells         []Cell     `json:"cells,omitempty"`
	Partial       bool       `json:"partial,omitempty"`
	PartialReason string     `json:"partial_reason,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// LanguageCount is one entry in the repository language histogram.
type LanguageCount struct {
	Language string
	Count    int
}

// SkippedFile records a file the classifier could not stage.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Document aggregates all records for one repository. Records preserves
// insertion order (the classifier's walk order); it is encoded as a JSON
// object keyed by file path.
type Document struct {
	Repo         string
	Languages    []LanguageCount
	Dependencies []string
	Skipped      []SkippedFile
	Records      []Record
}

// Aggregate merges per-file records into a single document. Paths are
// unique per walk; a duplicate path would indicate a classifier bug and
// the later record wins to keep the key set equal to the staged set.
func Aggregate(repo string, records []Record, skipped []SkippedFile) *Document {
	doc := &Document{
		Repo:    repo,
		Skipped: skipped,
	}

	index := make(map[string]int, len(records))
	for _, rec := range records {
		if i, ok := index[rec.Path]; ok {
			doc.Records[i] = rec
			continue
		}
		index[rec.Path] = len(doc.Records)
		doc.Records = append(doc.Records, rec)
	}

	langIndex := make(map[string]int)
	depSeen := make(map[string]struct{})
	for _, rec := range doc.Records {
		if rec.Language != "" {
			if i, ok := langIndex[rec.Language]; ok {
				doc.Languages[i].Count++
			} else {
				langIndex[rec.Language] = len(doc.Languages)
				doc.Languages = append(doc.Languages, LanguageCount{Language: rec.Language, Count: 1})
			}
		}
		for _, dep := range rec.Dependencies {
			if _, ok := depSeen[dep]; ok {
				continue
			}
			depSeen[dep] = struct{}{}
			doc.Dependencies = append(doc.Dependencies, dep)
		}
	}

	return doc
}
