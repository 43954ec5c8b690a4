package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	sentinelStart = "<!-- docassist:start -->"
	sentinelEnd   = "<!-- docassist:end -->"
)

// sectionHeaders is the fixed ordered skeleton the generated
// documentation must follow.
var sectionHeaders = []string{
	"Architecture",
	"Modules",
	"Public API",
	"Config",
	"Dependencies",
	"Data Models",
	"Workflow",
	"Notebooks",
	"Testing",
	"Usage Examples",
	"CI/CD",
	"Ops",
	"Known Issues",
	"Glossary",
}

// runInit implements the `docassist init` subcommand, which writes (or
// updates) the instruction template file the prompt builder reads.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("docassist init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: docassist init [flags] [path-to-instruction-file]

Write the instruction template used as the system message. The generated
section is wrapped in sentinel comments so it can be updated in place on
subsequent runs without touching surrounding edits. Creates the file if it
does not exist.

path-to-instruction-file defaults to ./instruction.txt.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := "instruction.txt"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote instruction template to %s\n", path)
	return nil
}

// generateSection returns the full sentinel-wrapped instruction block.
func generateSection() string {
	return sentinelStart + "\n" + defaultInstruction() + "\n" + sentinelEnd
}

// defaultInstruction is the built-in system instruction: it fixes the
// required output skeleton without constraining the narrative itself.
func defaultInstruction() string {
	var b strings.Builder
	b.WriteString(`You are a senior technical writer. You receive a JSON document of
structural metadata extracted from a source repository: one record per
file with its declared classes, functions, imports, configuration keys,
dependencies, API endpoints, and notebook cells.

Write comprehensive Markdown documentation for the repository based
strictly on that metadata. Do not invent files, symbols, or behavior that
the metadata does not support. Records marked "partial" or "error" carry
reduced fidelity; say so where it matters.

Structure the document with exactly these sections, in this order:
`)
	for _, h := range sectionHeaders {
		fmt.Fprintf(&b, "\n## %s", h)
	}
	b.WriteString("\n\nOmit nothing: if a section has no supporting metadata, state that explicitly.")
	return b.String()
}

// applySection inserts section into content, replacing an existing
// sentinel block if present or appending if not. It is a pure function
// for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
