package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confgen/confgen/internal/config"
	"github.com/confgen/confgen/internal/docs"
	"github.com/confgen/confgen/internal/generate"
	"github.com/confgen/confgen/internal/schema"
	"github.com/confgen/confgen/internal/tree"
)

type docsOptions struct {
	input     string
	output    string
	format    string
	docFormat string
	title     string
	rootName  string
	noExample bool
}

func newDocsCommand() *cobra.Command {
	opts := &docsOptions{}

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate reference documentation for a configuration file",
		Long: `Generate human-readable reference documentation for the record types
inferred from a configuration file. Supported output formats are Markdown,
HTML, and AsciiDoc.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocs(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "configuration file to document")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.format, "format", "", "input format override: yaml, json, toml")
	f.StringVar(&opts.docFormat, "doc-format", "markdown", "documentation format: markdown, html, asciidoc")
	f.StringVar(&opts.title, "title", "", "document title override")
	f.StringVar(&opts.rootName, "root-name", "", "root record name (default: derived from input file name)")
	f.BoolVar(&opts.noExample, "no-example", false, "omit the example YAML section")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runDocs(ctx context.Context, cmd *cobra.Command, opts *docsOptions) error {
	cfg := config.FromContext(ctx)

	formatter, err := docs.NewFormatter(opts.docFormat)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	format := cfg.InputFormat()

	if opts.format != "" {
		format, err = tree.ParseFormat(opts.format)
		if err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}
	}

	res, err := generate.Run(ctx, generate.Options{
		InputPath: opts.input,
		Format:    format,
		RootName:  opts.rootName,
		Language:  cfg.Language,
	})
	if err != nil {
		return classifyGenerateError(err)
	}

	model := buildDocsModel(res.Schema, opts)

	if opts.output == "" {
		return formatter.Format(cmd.OutOrStdout(), model)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return &ExitError{Code: exitWrite, Err: fmt.Errorf("creating %s: %w", opts.output, err)}
	}
	defer func() { _ = f.Close() }()

	if err := formatter.Format(f, model); err != nil {
		return &ExitError{Code: exitWrite, Err: err}
	}

	return f.Close()
}

func buildDocsModel(s *schema.Schema, opts *docsOptions) *docs.Model {
	model := docs.FromSchema(s, opts.input)
	model.Title = opts.title

	if !opts.noExample {
		model.IncludeExample = true
		model.ExampleYAML = docs.GenerateExampleYAML(s)
	}

	return model
}
