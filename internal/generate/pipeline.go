// Package generate wires parsing, inference, and emission into the one-shot
// generation pipeline, and provides the content-digest change detector used
// by the watch service.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/confgen/confgen/internal/emit"
	"github.com/confgen/confgen/internal/schema"
	"github.com/confgen/confgen/internal/tree"
)

// DefaultLanguage is the emission target used when none is configured.
const DefaultLanguage = "python"

// Options configures one pipeline run.
type Options struct {
	// InputPath is the configuration file to convert.
	InputPath string

	// OutputPath is the file to write. Empty means render only.
	OutputPath string

	// Format overrides extension-based format detection. Empty means detect.
	Format tree.Format

	// Language selects the renderer. Empty means DefaultLanguage.
	Language string

	// NamingStyle overrides the renderer's default field naming style.
	NamingStyle schema.Style

	// RootName overrides the root record name. Empty derives it from the
	// input file base name.
	RootName string

	// Registry supplies the renderers. Nil means the default registry.
	Registry *emit.Registry

	// Logger is used for structured diagnostics. Nil means slog.Default.
	Logger *slog.Logger
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	Schema *schema.Schema
	Output []byte

	// Digest is the content digest of the input document that produced
	// this output.
	Digest string

	// Records and Fields summarize the emitted schema.
	Records int
	Fields  int
}

// Run executes parse → infer → emit and, when OutputPath is set, atomically
// replaces the output file. A failed run never touches an existing output.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// A run that has started finishes its atomic write; cancellation is
	// only honored before any work begins.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := opts.Format
	if format == "" {
		detected, err := tree.DetectFormat(opts.InputPath)
		if err != nil {
			return nil, err
		}

		format = detected
	}

	// One read serves both parse and digest, so the digest always matches
	// the content the output was generated from.
	data, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", opts.InputPath, err)
	}

	docs, err := tree.DecodeAll(opts.InputPath, data, format)
	if err != nil {
		return nil, err
	}

	rootName := opts.RootName
	if rootName == "" {
		rootName = rootNameFromPath(opts.InputPath)
	}

	s, err := schema.Infer(docs, rootName)
	if err != nil {
		return nil, fmt.Errorf("inferring schema for %s: %w", opts.InputPath, err)
	}

	for _, w := range s.Warnings {
		logger.Warn("type conflict fallback",
			slog.String("input", opts.InputPath),
			slog.String("position", w.Path),
			slog.String("detail", w.Message),
		)
	}

	registry := opts.Registry
	if registry == nil {
		registry = emit.DefaultRegistry()
	}

	language := opts.Language
	if language == "" {
		language = DefaultLanguage
	}

	renderer, err := registry.Renderer(language)
	if err != nil {
		return nil, err
	}

	output, err := emit.Emit(s, renderer, emit.Options{NamingStyle: opts.NamingStyle})
	if err != nil {
		return nil, fmt.Errorf("emitting %s for %s: %w", language, opts.InputPath, err)
	}

	if opts.OutputPath != "" {
		if err := WriteFileAtomic(opts.OutputPath, output, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", opts.OutputPath, err)
		}
	}

	digest := Digest(data)

	fields := 0
	for _, r := range s.Records {
		fields += len(r.Fields)
	}

	return &Result{
		Schema:  s,
		Output:  output,
		Digest:  digest,
		Records: len(s.Records),
		Fields:  fields,
	}, nil
}

// rootNameFromPath derives the root record name from the input file name,
// e.g. "app_config.yaml" becomes "AppConfig".
func rootNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	name := schema.TypeName(base)
	if name == "" || name == "Record" {
		return "Config"
	}

	return name
}
