// Package cli implements the cobra command tree for confgen.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/confgen/confgen/internal/config"
	"github.com/confgen/confgen/internal/logging"
)

// Exit codes returned by Execute.
const (
	exitInternal = 1
	exitUsage    = 2
	exitParse    = 3
	exitRootType = 4
	exitWrite    = 6
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	return run(NewRootCommand())
}

// run executes cmd, reporting failures on its error stream. Cobra's own
// error printing is silenced, so this is the only diagnostic line.
func run(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return exitInternal
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "confgen",
		Short: "Generate typed record definitions from configuration files",
		Long: `confgen converts YAML, JSON, and TOML configuration files into
statically typed record definitions (Python dataclasses or Go structs).

Beyond one-shot generation, confgen can watch a configuration file and
keep the generated definitions synchronized as the file changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("language", cfg.Language),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .confgen.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.Bool("no-color", false, "disable ANSI color output")
	pf.String("state-dir", "", "override the registry/state directory")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newToCodeCommand(),
		newDocsCommand(),
		newServiceCommand(),
		newCompletionCommand(),
	)

	return cmd
}
