package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/confgen/confgen/internal/generate"
	"github.com/confgen/confgen/internal/schema"
	"github.com/confgen/confgen/internal/tree"
	"github.com/confgen/confgen/internal/watch"
)

// InstanceOptions configures one watch instance.
type InstanceOptions struct {
	// ID is the instance identifier recorded in the registry.
	ID string

	// InputPath and OutputPath define the watched (input, output) pair.
	InputPath  string
	OutputPath string

	// Format overrides input format detection. Empty means detect.
	Format tree.Format

	// Language selects the emission target. Empty means the default.
	Language string

	// NamingStyle overrides the renderer's field naming style.
	NamingStyle schema.Style

	// PollInterval bounds how often the input is re-checked even without
	// filesystem events.
	PollInterval time.Duration

	// Debounce is the quiet window that coalesces event bursts.
	Debounce time.Duration

	// Registry tracks the instance across processes. Required.
	Registry *Registry

	// Clock drives the poll ticker and debounce window. Nil means the real
	// clock; tests inject a mock.
	Clock clock.Clock

	// Logger receives structured instance logs. Nil means slog.Default.
	Logger *slog.Logger
}

// DefaultPollInterval is the fallback input re-check interval.
const DefaultPollInterval = 2 * time.Second

// DefaultDebounce is the fallback quiet window for event bursts.
const DefaultDebounce = 500 * time.Millisecond

// Instance is one running watch loop. Its lifecycle is
// starting → watching ⇄ regenerating → stopping → stopped; a stop request is
// cooperative and an in-flight regeneration always completes its atomic
// write before the instance exits.
type Instance struct {
	opts     InstanceOptions
	clk      clock.Clock
	logger   *slog.Logger
	detector *generate.Detector
	state    atomic.Int32

	// lastOutput is the last successfully written output, used for diff
	// summaries. Owned by the run loop.
	lastOutput []byte
}

// NewInstance creates a watch instance. Run starts it.
func NewInstance(opts InstanceOptions) *Instance {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	return &Instance{
		opts:     opts,
		clk:      clk,
		logger:   logger.With(slog.String("instance", opts.ID)),
		detector: generate.NewDetector(),
	}
}

// State returns the instance's current lifecycle phase.
func (in *Instance) State() State {
	return State(in.state.Load())
}

func (in *Instance) setState(s State) {
	in.state.Store(int32(s))
	in.logger.Debug("state transition", slog.String("state", s.String()))
}

// Run performs the initial generation, registers the instance, and watches
// the input until ctx is cancelled. It returns a non-nil error only when
// the initial generation or the registration fails; later regeneration
// failures are logged and the last valid output stays in place.
func (in *Instance) Run(ctx context.Context) error {
	in.setState(StateStarting)
	defer in.setState(StateStopped)

	res, err := generate.Run(ctx, in.pipelineOptions())
	if err != nil {
		return fmt.Errorf("initial generation: %w", err)
	}

	in.detector.Prime(in.opts.InputPath, res.Digest)
	in.lastOutput = res.Output

	in.logger.Info("initial generation complete",
		slog.String("input", in.opts.InputPath),
		slog.String("output", in.opts.OutputPath),
		slog.Int("records", res.Records),
		slog.Int("fields", res.Fields),
	)

	entry := Entry{
		ID:          in.opts.ID,
		PID:         os.Getpid(),
		InputPath:   in.opts.InputPath,
		OutputPath:  in.opts.OutputPath,
		Language:    in.opts.Language,
		Format:      string(in.opts.Format),
		NamingStyle: string(in.opts.NamingStyle),
		StartedAt:   time.Now().UTC(),
	}

	if err := in.opts.Registry.Add(ctx, entry); err != nil {
		return fmt.Errorf("registering instance: %w", err)
	}

	// Deregistration must succeed even when ctx is already cancelled.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		defer cancel()

		if _, err := in.opts.Registry.Remove(cleanupCtx, in.opts.ID); err != nil {
			in.logger.Error("deregistering instance", slog.String("error", err.Error()))
		}
	}()

	fw, err := watch.NewFileWatcher(in.opts.InputPath)
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	recheck := make(chan struct{}, 1)

	debouncer := watch.NewDebouncerWithClock(in.clk, in.opts.Debounce, func(string) {
		select {
		case recheck <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	ticker := in.clk.Ticker(in.opts.PollInterval)
	defer ticker.Stop()

	in.setState(StateWatching)
	in.logger.Info("watching",
		slog.String("input", in.opts.InputPath),
		slog.Duration("pollInterval", in.opts.PollInterval),
		slog.Duration("debounce", in.opts.Debounce),
	)

	for {
		select {
		case <-ctx.Done():
			in.setState(StateStopping)
			in.logger.Info("stop requested, shutting down")

			return nil

		case path := <-fw.Events:
			debouncer.Trigger(path)

		case werr := <-fw.Errors:
			in.logger.Error("watcher error", slog.String("error", werr.Error()))

		case <-ticker.C:
			in.check(ctx)

		case <-recheck:
			in.check(ctx)
		}
	}
}

// check re-reads the input and regenerates when its content digest changed.
func (in *Instance) check(ctx context.Context) {
	changed, err := in.detector.Changed(in.opts.InputPath)
	if err != nil {
		// Momentary absence during an atomic replace by the writer.
		// Retry on the next tick.
		in.logger.Debug("input unreadable, retrying later", slog.String("error", err.Error()))
		return
	}

	if !changed {
		return
	}

	in.regenerate(ctx)
}

// regenerate re-runs the pipeline. Failures leave the previous valid output
// untouched and the instance alive.
func (in *Instance) regenerate(ctx context.Context) {
	in.setState(StateRegenerating)
	defer in.setState(StateWatching)

	start := time.Now()

	res, err := generate.Run(ctx, in.pipelineOptions())
	if err != nil {
		in.logger.Error("regeneration failed, keeping previous output",
			slog.String("input", in.opts.InputPath),
			slog.String("error", err.Error()),
		)

		return
	}

	added, removed := in.diffSummary(res.Output)

	in.logger.Info("regenerated",
		slog.String("output", in.opts.OutputPath),
		slog.Int("records", res.Records),
		slog.Int("fields", res.Fields),
		slog.Int("linesAdded", added),
		slog.Int("linesRemoved", removed),
		slog.Duration("took", time.Since(start)),
	)

	in.lastOutput = res.Output
}

// diffSummary counts added and removed lines between the previous and the
// new output.
func (in *Instance) diffSummary(current []byte) (added, removed int) {
	diff := difflib.UnifiedDiff{
		A: difflib.SplitLines(string(in.lastOutput)),
		B: difflib.SplitLines(string(current)),
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return 0, 0
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			removed++
		}
	}

	return added, removed
}

func (in *Instance) pipelineOptions() generate.Options {
	return generate.Options{
		InputPath:   in.opts.InputPath,
		OutputPath:  in.opts.OutputPath,
		Format:      in.opts.Format,
		Language:    in.opts.Language,
		NamingStyle: in.opts.NamingStyle,
		Logger:      in.logger,
	}
}
