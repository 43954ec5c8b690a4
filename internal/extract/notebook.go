package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"docassist/internal/metadata"
)

const cellExcerptLimit = 200

type nbFile struct {
	Cells    []nbCell `json:"cells"`
	Metadata struct {
		Kernelspec struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
	} `json:"metadata"`
}

type nbCell struct {
	CellType string   `json:"cell_type"`
	Source   nbSource `json:"source"`
	Outputs  []struct {
		OutputType string `json:"output_type"`
	} `json:"outputs"`
}

// nbSource accepts both notebook source encodings: a single string or a
// list of line strings.
type nbSource string

func (s *nbSource) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = nbSource(single)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*s = nbSource(strings.Join(lines, ""))
	return nil
}

// extractNotebook parses the notebook's cell array and records each
// cell's kind, a source excerpt, and its declared output types. Cells
// are never executed. Code cells are concatenated and run through the
// python structured extractor for symbols and imports.
func extractNotebook(rec *metadata.Record, data []byte) {
	rec.Language = "ipynb"

	var nb nbFile
	if err := json.Unmarshal(data, &nb); err != nil {
		rec.Error = fmt.Sprintf("notebook: %v", err)
		return
	}

	var codeParts []string
	for _, cell := range nb.Cells {
		src := string(cell.Source)

		c := metadata.Cell{
			Kind:   cell.CellType,
			Source: excerpt(src),
		}
		for _, out := range cell.Outputs {
			c.Outputs = append(c.Outputs, out.OutputType)
		}
		rec.Cells = append(rec.Cells, c)

		if cell.CellType == "code" {
			codeParts = append(codeParts, src)
		}
	}

	kernel := nb.Metadata.Kernelspec.Language
	if kernel == "" {
		kernel = nb.Metadata.LanguageInfo.Name
	}

	if len(codeParts) == 0 {
		return
	}
	code := []byte(strings.Join(codeParts, "\n\n"))
	if kernel != "" && kernel != "python" {
		// Unknown kernel: best-effort lexical pass over the cell code.
		tmp := metadata.Record{}
		lexicalInto(&tmp, code)
		rec.Symbols, rec.Imports = tmp.Symbols, tmp.Imports
		scanConfigAndEndpoints(rec, code)
		return
	}

	tmp := metadata.Record{}
	extractSource(&tmp, "cells.py", code)
	rec.Symbols = tmp.Symbols
	rec.Imports = tmp.Imports
	rec.ConfigKeys = tmp.ConfigKeys
	rec.Endpoints = tmp.Endpoints
	if tmp.Partial {
		rec.Partial = true
		rec.PartialReason = tmp.PartialReason
	}
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= cellExcerptLimit {
		return s
	}
	// Back off to a rune boundary so the cut never leaves invalid UTF-8.
	end := cellExcerptLimit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}
