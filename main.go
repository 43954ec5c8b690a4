// docassist generates narrative Markdown documentation for a repository:
// it stages the repo's code files, extracts structural metadata per file,
// and sends the aggregated metadata to a completion model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"docassist/internal/classify"
	"docassist/internal/clone"
	"docassist/internal/config"
	"docassist/internal/extract"
	"docassist/internal/llm"
	"docassist/internal/metadata"
	"docassist/internal/prompt"
	"docassist/internal/publish"
)

var version = "dev"

// defaultDirective is the developer-role message sent alongside the
// instruction template. It is opaque passthrough text, overridable with
// --directive.
const defaultDirective = "Generate comprehensive Markdown documentation from provided metadata of " +
	"multiple source files, including architecture, APIs, configuration, and usage examples. " +
	"Ensure accuracy, professional tone, and structured sections based strictly on metadata " +
	"without speculation."

var (
	headlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9")).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "init" {
		if err := runInit(args[1:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("docassist", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		outDir       string
		instructions string
		directive    string
		model        string
		endpoint     string
		optionsPath  string
		workDir      string
		maxTokens    int
		budget       int
		timeoutSec   int
		noRemote     bool
		dryRun       bool
		verbose      bool
		showVersion  bool
	)

	fs.StringVar(&outDir, "o", "out", "output directory")
	fs.StringVar(&outDir, "out", "out", "output directory")
	fs.StringVar(&instructions, "instructions", "instruction.txt", "instruction template file")
	fs.StringVar(&directive, "directive", defaultDirective, "developer-role directive text")
	fs.StringVar(&model, "model", "", "completion model (overrides env/options)")
	fs.StringVar(&endpoint, "endpoint", "", "completion endpoint base URL (overrides env)")
	fs.StringVar(&optionsPath, "options", "", "YAML options file (default .docassist.yaml if present)")
	fs.StringVar(&workDir, "work-dir", "work", "working directory for clones and staging")
	fs.IntVar(&maxTokens, "max-tokens", 0, "maximum completion output tokens (overrides env/options)")
	fs.IntVar(&budget, "budget", 0, "prompt token budget for the metadata body (overrides env/options)")
	fs.IntVar(&timeoutSec, "timeout", 300, "completion call timeout in seconds")
	fs.BoolVar(&noRemote, "no-remote", false, "disable the external document append")
	fs.BoolVar(&dryRun, "dry-run", false, "stop after writing the metadata artifact")
	fs.BoolVar(&verbose, "verbose", false, "debug logging")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "docassist %s\n", version)
		return nil
	}
	if fs.NArg() == 0 {
		return errors.New("usage: docassist [flags] <repo-path-or-git-url>")
	}
	source := fs.Arg(0)

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(optionsPath)
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Model = model
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = maxTokens
	}
	if budget > 0 {
		cfg.PromptBudget = budget
	}

	ctx := context.Background()

	// Acquire.
	repoDir, repoName, err := clone.Acquire(ctx, source, workDir)
	if err != nil {
		return err
	}
	logger.Info("repository acquired", "name", repoName, "dir", repoDir)

	// Classify and stage.
	part, err := classify.Classify(repoDir)
	if err != nil {
		return err
	}
	if len(part.Code) == 0 {
		return fmt.Errorf("no code files found in %s", repoDir)
	}
	staged, skipped, err := classify.Stage(part, filepath.Join(workDir, "staging", repoName))
	if err != nil {
		return err
	}
	logger.Info("staged code files", "code", len(staged), "non_code", len(part.NonCode), "skipped", len(skipped))

	// Extract, one file at a time; a failed file yields an error record
	// and never halts its siblings.
	bar := progressbar.NewOptions(len(staged),
		progressbar.OptionSetDescription("Extracting metadata"),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	records := make([]metadata.Record, 0, len(staged))
	failed := 0
	for _, f := range staged {
		rec := extract.Extract(f)
		if rec.Error != "" {
			failed++
			logger.Debug("extraction error", "path", rec.Path, "reason", rec.Error)
		}
		records = append(records, rec)
		_ = bar.Add(1)
	}
	_, _ = fmt.Fprintln(stderr)
	if failed == len(records) {
		return fmt.Errorf("extraction failed for all %d staged files", len(records))
	}

	// Aggregate and persist the metadata artifact.
	doc := metadata.Aggregate(repoName, records, skipped)
	encoded, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	metadataPath := filepath.Join(outDir, "metadata.json")
	if err := os.WriteFile(metadataPath, encoded, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", metadataPath, err)
	}
	logger.Info("metadata artifact written", "path", metadataPath, "files", len(doc.Records))

	if dryRun {
		_, _ = fmt.Fprintln(stdout, summary(repoName, doc, metadataPath, "", failed))
		return nil
	}

	// Build the prompt.
	instruction, err := loadInstruction(instructions)
	if err != nil {
		return err
	}
	payload, err := prompt.Build(instruction, directive, doc, cfg.PromptBudget, cfg.TruncationTiers)
	if err != nil {
		return err
	}
	if payload.Truncated {
		logger.Warn("metadata truncated to fit prompt budget", "budget", cfg.PromptBudget, "estimated_tokens", payload.EstimatedTokens)
	}

	// Complete.
	client, err := llm.New(llm.Config{
		BaseURL:         cfg.Endpoint,
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		MaxOutputTokens: cfg.MaxOutputTokens,
		MaxRetries:      cfg.MaxRetries,
	})
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	result, err := client.Complete(cctx, payload)
	if err != nil {
		return err
	}
	logger.Info("completion received", "model", result.Model, "completion_tokens", result.CompletionTokens)

	// Publish.
	var appender publish.Appender
	if cfg.Store.Enabled && !noRemote {
		store, err := publish.NewObjectStore(publish.ObjectConfig{
			Endpoint:  cfg.Store.Endpoint,
			Region:    cfg.Store.Region,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			Bucket:    cfg.Store.Bucket,
			Object:    cfg.Store.Object,
			UseSSL:    cfg.Store.UseSSL,
		})
		if err != nil {
			logger.Warn("external document sink unavailable", "error", err)
		} else {
			appender = store
		}
	}
	docPath := filepath.Join(outDir, "documentation.md")
	if err := publish.Publish(ctx, result, publish.Options{OutPath: docPath, Appender: appender, Log: logger}); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(stdout, summary(repoName, doc, metadataPath, docPath, failed))
	return nil
}

// loadInstruction reads the instruction template. When the default file
// is absent, the built-in skeleton keeps the pipeline usable out of the
// box; an explicitly named file must exist.
func loadInstruction(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if path == "instruction.txt" && os.IsNotExist(err) {
			return defaultInstruction(), nil
		}
		return "", fmt.Errorf("reading instruction template: %w", err)
	}
	return string(data), nil
}

func summary(repo string, doc *metadata.Document, metadataPath, docPath string, failed int) string {
	s := headlineStyle.Render(fmt.Sprintf("docassist: %s", repo)) + "\n"
	s += fmt.Sprintf("  %s %d files, %d languages, %d dependencies\n",
		successStyle.Render("analyzed"), len(doc.Records), len(doc.Languages), len(doc.Dependencies))
	if failed > 0 {
		s += fmt.Sprintf("  %s %d files recorded with extraction errors\n", warnStyle.Render("partial"), failed)
	}
	s += "  " + mutedStyle.Render("metadata: "+metadataPath)
	if docPath != "" {
		s += "\n  " + mutedStyle.Render("documentation: "+docPath)
	}
	return s
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-o": true, "--o": true,
	"-out": true, "--out": true,
	"-instructions": true, "--instructions": true,
	"-directive": true, "--directive": true,
	"-model": true, "--model": true,
	"-endpoint": true, "--endpoint": true,
	"-options": true, "--options": true,
	"-work-dir": true, "--work-dir": true,
	"-max-tokens": true, "--max-tokens": true,
	"-budget": true, "--budget": true,
	"-timeout": true, "--timeout": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag
// package can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
