// Package publish persists the completion output: a flat file always,
// plus an optional best-effort append to a shared external document.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"docassist/internal/llm"
)

// Appender appends generated documentation to a shared external document.
type Appender interface {
	Append(ctx context.Context, name string, content []byte) error
}

// Options configures a publish call.
type Options struct {
	OutPath  string
	Appender Appender // nil disables the external append
	Log      *slog.Logger
}

// Publish writes the raw response text verbatim to the output file and
// then, if an appender is configured, appends it to the external
// document. The flat file is the source of truth: its failure is fatal,
// while an append failure is logged and never rolls the write back.
func Publish(ctx context.Context, result *llm.Result, opts Options) error {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	if dir := filepath.Dir(opts.OutPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(opts.OutPath, []byte(result.Text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.OutPath, err)
	}
	log.Info("documentation written", "path", opts.OutPath, "bytes", len(result.Text))

	if opts.Appender == nil {
		return nil
	}
	if err := opts.Appender.Append(ctx, filepath.Base(opts.OutPath), []byte(result.Text)); err != nil {
		log.Warn("external document append failed", "error", err)
	}
	return nil
}
