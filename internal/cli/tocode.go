package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/confgen/confgen/internal/config"
	"github.com/confgen/confgen/internal/emit"
	"github.com/confgen/confgen/internal/generate"
	"github.com/confgen/confgen/internal/logging"
	"github.com/confgen/confgen/internal/schema"
	"github.com/confgen/confgen/internal/tree"
)

type toCodeOptions struct {
	input       string
	output      string
	format      string
	language    string
	namingStyle string
	rootName    string
	dryRun      bool
	showDiff    bool
}

func newToCodeCommand() *cobra.Command {
	opts := &toCodeOptions{}

	cmd := &cobra.Command{
		Use:   "to-code",
		Short: "Convert a configuration file to typed record definitions",
		Long: `Convert a configuration file (YAML, JSON, or TOML) into typed record
definitions and write them to a source file.

When the input is a directory, every supported configuration file below it
is converted and the directory structure is mirrored under the output
directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToCode(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "configuration file or directory to convert")
	f.StringVarP(&opts.output, "output", "o", "", "output file or directory (default: derived from input)")
	f.StringVar(&opts.format, "format", "", "input format override: yaml, json, toml (default: by extension)")
	f.StringVar(&opts.language, "language", "", "target language: python, go (default: python)")
	f.StringVar(&opts.namingStyle, "naming-style", "", "field naming style: snake, camel, pascal, keep")
	f.StringVar(&opts.rootName, "root-name", "", "root record name (default: derived from input file name)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the generated code instead of writing it")
	f.BoolVar(&opts.showDiff, "diff", false, "print a unified diff against the existing output instead of writing")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runToCode(ctx context.Context, cmd *cobra.Command, opts *toCodeOptions) error {
	logger := logging.FromContext(ctx)
	cfg := config.FromContext(ctx)

	pipelineOpts, err := buildPipelineOptions(cfg, opts)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	info, err := os.Stat(opts.input)
	if err != nil {
		return &ExitError{Code: exitInternal, Err: fmt.Errorf("reading input %s: %w", opts.input, err)}
	}

	if info.IsDir() {
		return runToCodeDir(ctx, cmd, logger, pipelineOpts, opts)
	}

	if opts.dryRun || opts.showDiff {
		pipelineOpts.OutputPath = ""
	}

	res, err := generate.Run(ctx, pipelineOpts)
	if err != nil {
		return classifyGenerateError(err)
	}

	switch {
	case opts.showDiff:
		return printOutputDiff(cmd, outputPathFor(cfg, opts), res.Output, !cfg.NoColor)
	case opts.dryRun:
		_, err = cmd.OutOrStdout().Write(res.Output)
		return err
	default:
		logger.Info("generated",
			slog.String("input", opts.input),
			slog.String("output", pipelineOpts.OutputPath),
			slog.Int("records", res.Records),
			slog.Int("fields", res.Fields),
		)
	}

	return nil
}

func runToCodeDir(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, pipelineOpts generate.Options, opts *toCodeOptions) error {
	if opts.dryRun || opts.showDiff {
		return &ExitError{Code: exitUsage, Err: errors.New("--dry-run and --diff are not supported for directory inputs")}
	}

	res, err := generate.RunDir(ctx, pipelineOpts)
	if err != nil {
		return classifyGenerateError(err)
	}

	logger.Info("directory conversion complete",
		slog.String("input", pipelineOpts.InputPath),
		slog.String("output", pipelineOpts.OutputPath),
		slog.Int("generated", len(res.Generated)),
		slog.Int("skipped", len(res.Skipped)),
	)

	for _, path := range res.Generated {
		fmt.Fprintf(cmd.ErrOrStderr(), "  generated %s\n", path)
	}

	return nil
}

// buildPipelineOptions merges CLI flags over the global config into pipeline
// options, deriving the output path when none was given.
func buildPipelineOptions(cfg *config.Config, opts *toCodeOptions) (generate.Options, error) {
	language := opts.language
	if language == "" {
		language = cfg.Language
	}

	registry := emit.DefaultRegistry()

	renderer, err := registry.Renderer(language)
	if err != nil {
		return generate.Options{}, err
	}

	format := cfg.InputFormat()

	if opts.format != "" {
		format, err = tree.ParseFormat(opts.format)
		if err != nil {
			return generate.Options{}, err
		}
	}

	style := cfg.Style()

	if opts.namingStyle != "" {
		style, err = schema.ParseStyle(opts.namingStyle)
		if err != nil {
			return generate.Options{}, err
		}
	}

	output := opts.output
	if output == "" {
		output = deriveOutputPath(opts.input, renderer.FileExtension())
	}

	return generate.Options{
		InputPath:   opts.input,
		OutputPath:  output,
		Format:      format,
		Language:    language,
		NamingStyle: style,
		RootName:    opts.rootName,
		Registry:    registry,
	}, nil
}

// deriveOutputPath maps an input path to a default output path: files get
// the renderer extension next to the input, directories get a sibling
// directory with a _gen suffix.
func deriveOutputPath(input, ext string) string {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return strings.TrimRight(input, string(filepath.Separator)) + "_gen"
	}

	base := strings.TrimSuffix(input, filepath.Ext(input))

	return base + "." + ext
}

func outputPathFor(cfg *config.Config, opts *toCodeOptions) string {
	if opts.output != "" {
		return opts.output
	}

	registry := emit.DefaultRegistry()

	language := opts.language
	if language == "" {
		language = cfg.Language
	}

	renderer, err := registry.Renderer(language)
	if err != nil {
		return deriveOutputPath(opts.input, "out")
	}

	return deriveOutputPath(opts.input, renderer.FileExtension())
}

// printOutputDiff prints a unified diff between the current content of
// outputPath and the freshly rendered output.
func printOutputDiff(cmd *cobra.Command, outputPath string, rendered []byte, color bool) error {
	existing, err := os.ReadFile(outputPath)
	if err != nil && !os.IsNotExist(err) {
		return &ExitError{Code: exitInternal, Err: fmt.Errorf("reading %s: %w", outputPath, err)}
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(existing)),
		B:        difflib.SplitLines(string(rendered)),
		FromFile: outputPath,
		ToFile:   outputPath + " (regenerated)",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return &ExitError{Code: exitInternal, Err: fmt.Errorf("computing diff: %w", err)}
	}

	if text == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "output is up to date")
		return nil
	}

	w := cmd.OutOrStdout()

	if !color {
		_, err = fmt.Fprint(w, text)
		return err
	}

	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		writeColorLine(w, line)
	}

	return nil
}

// writeColorLine writes a single diff line with ANSI color codes.
func writeColorLine(w io.Writer, line string) {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		fmt.Fprintf(w, "%s%s%s\n", bold, line, reset)
	case strings.HasPrefix(line, "@@"):
		fmt.Fprintf(w, "%s%s%s\n", cyan, line, reset)
	case strings.HasPrefix(line, "-"):
		fmt.Fprintf(w, "%s%s%s\n", red, line, reset)
	case strings.HasPrefix(line, "+"):
		fmt.Fprintf(w, "%s%s%s\n", green, line, reset)
	default:
		fmt.Fprintln(w, line)
	}
}

// classifyGenerateError maps pipeline failures to their exit codes.
func classifyGenerateError(err error) error {
	var parseErr *tree.ParseError
	if errors.As(err, &parseErr) {
		return &ExitError{Code: exitParse, Err: err}
	}

	var rootErr *schema.RootTypeError
	if errors.As(err, &rootErr) {
		return &ExitError{Code: exitRootType, Err: err}
	}

	return &ExitError{Code: exitWrite, Err: err}
}
