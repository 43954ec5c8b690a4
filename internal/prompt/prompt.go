// Package prompt builds the three-message completion payload from an
// aggregated metadata document, applying a token budget with tier-based
// truncation.
package prompt

import (
	"fmt"

	"docassist/internal/metadata"
)

// Role tags one message in the payload.
type Role string

const (
	System    Role = "system"
	Developer Role = "developer"
	User      Role = "user"
)

// Message is one role-tagged message.
type Message struct {
	Role    Role
	Content string
}

// Payload is the immutable three-message completion request. The user
// message body is the serialized metadata document, possibly truncated.
type Payload struct {
	Messages        [3]Message
	Truncated       bool
	EstimatedTokens int
}

// DefaultTiers is the drop order when the document exceeds the budget:
// notebook cell bodies go first, declaration signatures and names last.
// "records" removes whole trailing file records and is the last resort;
// no tier ever splits a record mid-structure.
var DefaultTiers = []string{"cells", "docs", "imports", "records"}

// EstimateTokens approximates the token count of s as one token per four
// bytes, which is the usual planning heuristic for English-heavy JSON.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Build assembles the payload. The instruction and directive are opaque
// externally-supplied text and pass through unaltered. If budget is
// positive and the encoded document exceeds it, tiers are dropped in
// order, re-encoding after each so the user body always remains valid
// under the document schema and strictly smaller than the original.
func Build(instruction, directive string, doc *metadata.Document, budget int, tiers []string) (Payload, error) {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}

	body, err := doc.Encode()
	if err != nil {
		return Payload{}, fmt.Errorf("encoding document: %w", err)
	}

	truncated := false
	if budget > 0 && EstimateTokens(string(body)) > budget {
		work := cloneDocument(doc)
		for _, tier := range tiers {
			if EstimateTokens(string(body)) <= budget {
				break
			}
			if !applyTier(work, tier, budget) {
				continue
			}
			truncated = true
			body, err = work.Encode()
			if err != nil {
				return Payload{}, fmt.Errorf("re-encoding truncated document: %w", err)
			}
		}
	}

	return Payload{
		Messages: [3]Message{
			{Role: System, Content: instruction},
			{Role: Developer, Content: directive},
			{Role: User, Content: string(body)},
		},
		Truncated:       truncated,
		EstimatedTokens: EstimateTokens(string(body)),
	}, nil
}

// applyTier strips one field class across all records and reports
// whether anything changed.
func applyTier(doc *metadata.Document, tier string, budget int) bool {
	changed := false
	switch tier {
	case "cells":
		for i := range doc.Records {
			if doc.Records[i].Cells != nil {
				doc.Records[i].Cells = nil
				changed = true
			}
		}
	case "docs":
		for i := range doc.Records {
			for j := range doc.Records[i].Symbols {
				if doc.Records[i].Symbols[j].Doc != "" {
					doc.Records[i].Symbols[j].Doc = ""
					changed = true
				}
			}
		}
	case "imports":
		for i := range doc.Records {
			if doc.Records[i].Imports != nil {
				doc.Records[i].Imports = nil
				changed = true
			}
		}
	case "records":
		changed = dropTrailingRecords(doc, budget)
	}
	return changed
}

// dropTrailingRecords removes whole records from the end until the
// re-encoded document fits the budget or one record remains.
func dropTrailingRecords(doc *metadata.Document, budget int) bool {
	changed := false
	for len(doc.Records) > 1 {
		body, err := doc.Encode()
		if err != nil || EstimateTokens(string(body)) <= budget {
			break
		}
		doc.Records = doc.Records[:len(doc.Records)-1]
		changed = true
	}
	return changed
}

// cloneDocument copies the document deeply enough that tier application
// never mutates the caller's aggregate.
func cloneDocument(doc *metadata.Document) *metadata.Document {
	out := &metadata.Document{
		Repo:         doc.Repo,
		Languages:    append([]metadata.LanguageCount(nil), doc.Languages...),
		Dependencies: append([]string(nil), doc.Dependencies...),
		Skipped:      append([]metadata.SkippedFile(nil), doc.Skipped...),
		Records:      make([]metadata.Record, len(doc.Records)),
	}
	for i, rec := range doc.Records {
		rec.Symbols = append([]metadata.Symbol(nil), rec.Symbols...)
		rec.Imports = append([]string(nil), rec.Imports...)
		rec.Cells = append([]metadata.Cell(nil), rec.Cells...)
		out.Records[i] = rec
	}
	return out
}
