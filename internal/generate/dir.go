package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/confgen/confgen/internal/emit"
	"github.com/confgen/confgen/internal/tree"
)

// DirResult summarizes a directory-mode run.
type DirResult struct {
	// Generated lists the output files written, in walk order.
	Generated []string

	// Skipped lists input files ignored because of their extension.
	Skipped []string
}

// RunDir converts every supported configuration file under opts.InputPath,
// mirroring the directory structure below opts.OutputPath. Per-file failures
// do not stop the walk; they are joined into the returned error after all
// files have been attempted.
func RunDir(ctx context.Context, opts Options) (*DirResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
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

	result := &DirResult{}

	var errs []error

	walkErr := filepath.WalkDir(opts.InputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			// Skip hidden directories (e.g. .git).
			if strings.HasPrefix(d.Name(), ".") && path != opts.InputPath {
				return filepath.SkipDir
			}

			return nil
		}

		if !tree.IsSupportedPath(path) {
			result.Skipped = append(result.Skipped, path)
			return nil
		}

		rel, relErr := filepath.Rel(opts.InputPath, path)
		if relErr != nil {
			return relErr
		}

		outPath := outputPathFor(opts.OutputPath, rel, renderer.FileExtension())

		fileOpts := opts
		fileOpts.InputPath = path
		fileOpts.OutputPath = outPath
		fileOpts.Format = "" // per-file detection inside a mixed directory
		fileOpts.RootName = ""

		if _, runErr := Run(ctx, fileOpts); runErr != nil {
			logger.Error("conversion failed",
				slog.String("input", path),
				slog.String("error", runErr.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", path, runErr))

			return nil
		}

		result.Generated = append(result.Generated, outPath)

		return nil
	})

	if walkErr != nil {
		return result, fmt.Errorf("walking %s: %w", opts.InputPath, walkErr)
	}

	return result, errors.Join(errs...)
}

// outputPathFor maps a relative input path to its mirrored output path with
// the renderer's file extension.
func outputPathFor(outRoot, rel, ext string) string {
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outRoot, base+"."+ext)
}
