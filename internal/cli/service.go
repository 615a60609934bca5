package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/confgen/confgen/internal/config"
	"github.com/confgen/confgen/internal/logging"
	"github.com/confgen/confgen/internal/service"
)

func newServiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage watch instances that keep generated code synchronized",
		Long: `Manage confgen watch instances.

A watch instance observes one configuration file and regenerates its typed
record definitions whenever the file's content changes. Running instances
are tracked in a per-user registry so they can be listed and stopped
individually or all at once.`,
	}

	cmd.AddCommand(
		newServiceStartCommand(),
		newServiceRunCommand(),
		newServiceStopCommand(),
		newServiceStopAllCommand(),
		newServiceStatusCommand(),
		newServiceCleanLogsCommand(),
	)

	return cmd
}

// openRegistry resolves the state directory from config and opens the
// instance registry.
func openRegistry(ctx context.Context) (*service.Registry, error) {
	cfg := config.FromContext(ctx)

	dir := cfg.StateDir
	if dir == "" {
		var err error

		dir, err = service.DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	return service.NewRegistry(dir)
}

type serviceStartOptions struct {
	input       string
	output      string
	format      string
	language    string
	namingStyle string
}

func newServiceStartCommand() *cobra.Command {
	opts := &serviceStartOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a watch instance for a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServiceStart(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "configuration file to watch")
	f.StringVarP(&opts.output, "output", "o", "", "generated source file to keep synchronized")
	f.StringVar(&opts.format, "format", "", "input format override: yaml, json, toml")
	f.StringVar(&opts.language, "language", "", "target language: python, go (default: python)")
	f.StringVar(&opts.namingStyle, "naming-style", "", "field naming style: snake, camel, pascal, keep")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runServiceStart(ctx context.Context, cmd *cobra.Command, opts *serviceStartOptions) error {
	cfg := config.FromContext(ctx)

	registry, err := openRegistry(ctx)
	if err != nil {
		return &ExitError{Code: exitWrite, Err: err}
	}

	language := opts.language
	if language == "" {
		language = cfg.Language
	}

	id := uuid.NewString()

	pid, err := service.Spawn(service.SpawnOptions{
		ID:          id,
		InputPath:   opts.input,
		OutputPath:  opts.output,
		Format:      opts.format,
		Language:    language,
		NamingStyle: opts.namingStyle,
		StateDir:    cfg.StateDir,
		LogPath:     registry.LogPath(id),
	})
	if err != nil {
		return &ExitError{Code: exitInternal, Err: err}
	}

	// The child registers only after a successful initial generation, so
	// the entry's appearance is the success signal.
	entry, err := service.WaitRegistered(ctx, registry, id, pid, service.StartTimeout)
	if err != nil {
		return &ExitError{Code: exitInternal, Err: fmt.Errorf("starting watch instance: %w", err)}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", entry.ID)
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s -> %s (pid %d, log %s)\n",
		entry.InputPath, entry.OutputPath, entry.PID, registry.LogPath(id))

	return nil
}

// newServiceRunCommand is the hidden in-process entry point executed by the
// detached child that Spawn starts.
func newServiceRunCommand() *cobra.Command {
	opts := &serviceStartOptions{}

	var id string

	cmd := &cobra.Command{
		Use:    "run",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServiceRun(cmd.Context(), id, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "instance id assigned by service start")
	f.StringVarP(&opts.input, "input", "i", "", "configuration file to watch")
	f.StringVarP(&opts.output, "output", "o", "", "generated source file to keep synchronized")
	f.StringVar(&opts.format, "format", "", "input format override")
	f.StringVar(&opts.language, "language", "", "target language")
	f.StringVar(&opts.namingStyle, "naming-style", "", "field naming style")

	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runServiceRun(ctx context.Context, id string, opts *serviceStartOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	registry, err := openRegistry(ctx)
	if err != nil {
		return &ExitError{Code: exitWrite, Err: err}
	}

	cfgCopy := *cfg
	cfgCopy.Format = opts.format

	if opts.namingStyle != "" {
		cfgCopy.NamingStyle = opts.namingStyle
	}

	if err := cfgCopy.Validate(); err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	language := opts.language
	if language == "" {
		language = cfg.Language
	}

	instance := service.NewInstance(service.InstanceOptions{
		ID:           id,
		InputPath:    opts.input,
		OutputPath:   opts.output,
		Format:       cfgCopy.InputFormat(),
		Language:     language,
		NamingStyle:  cfgCopy.Style(),
		PollInterval: cfg.PollInterval,
		Debounce:     cfg.Debounce,
		Registry:     registry,
		Logger:       logger,
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := instance.Run(sigCtx); err != nil {
		return &ExitError{Code: exitInternal, Err: err}
	}

	return nil
}

func newServiceStopCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Gracefully stop one watch instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := openRegistry(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitWrite, Err: err}
			}

			controller := service.NewController(registry, logging.FromContext(cmd.Context()))
			if err := controller.Stop(cmd.Context(), id); err != nil {
				return &ExitError{Code: exitInternal, Err: err}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "stopped %s\n", id)

			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "instance id to stop")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newServiceStopAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Gracefully stop all watch instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := openRegistry(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitWrite, Err: err}
			}

			controller := service.NewController(registry, logging.FromContext(cmd.Context()))

			stopped, err := controller.StopAll(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitInternal, Err: err}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "stopped %d instance(s)\n", stopped)

			return nil
		},
	}
}

func newServiceStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List registered watch instances and their liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := openRegistry(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitWrite, Err: err}
			}

			controller := service.NewController(registry, logging.FromContext(cmd.Context()))

			statuses, err := controller.Status(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitInternal, Err: err}
			}

			if len(statuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no watch instances registered")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPID\tSTATE\tINPUT\tOUTPUT\tSTARTED")

			for _, s := range statuses {
				state := "alive"
				if !s.Alive {
					state = "dead"
				}

				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					s.Entry.ID, s.Entry.PID, state,
					s.Entry.InputPath, s.Entry.OutputPath,
					s.Entry.StartedAt.Local().Format(time.RFC3339),
				)
			}

			return w.Flush()
		},
	}
}

func newServiceCleanLogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean-logs",
		Short: "Delete log files of instances that are no longer registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := openRegistry(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitWrite, Err: err}
			}

			removed, err := registry.CleanLogs(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitInternal, Err: err}
			}

			for _, path := range removed {
				fmt.Fprintf(cmd.ErrOrStderr(), "removed %s\n", path)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "removed %d log file(s)\n", len(removed))

			return nil
		},
	}
}
