package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// StartTimeout bounds how long a start request waits for the spawned
// instance to complete its initial generation and register itself.
const StartTimeout = 30 * time.Second

// startPollInterval is how often a start request re-checks the registry.
const startPollInterval = 100 * time.Millisecond

// SpawnOptions configures a detached watch instance process.
type SpawnOptions struct {
	ID          string
	InputPath   string
	OutputPath  string
	Format      string
	Language    string
	NamingStyle string

	// StateDir overrides the registry directory. It must match the registry
	// that WaitRegistered polls, or the child registers out of sight.
	StateDir string

	// LogPath receives the child's combined output. Empty discards it.
	LogPath string
}

// Spawn starts a detached confgen process running the watch instance and
// returns its pid. The child registers itself only after a successful
// initial generation; use WaitRegistered to learn the outcome.
func Spawn(opts SpawnOptions) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolving executable: %w", err)
	}

	args := []string{
		"service", "run",
		"--id", opts.ID,
		"--input", opts.InputPath,
		"--output", opts.OutputPath,
	}

	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}

	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}

	if opts.NamingStyle != "" {
		args = append(args, "--naming-style", opts.NamingStyle)
	}

	if opts.StateDir != "" {
		args = append(args, "--state-dir", opts.StateDir)
	}

	cmd := exec.Command(exe, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if opts.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogPath), 0o750); err != nil {
			return 0, fmt.Errorf("creating log dir: %w", err)
		}

		logFile, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return 0, fmt.Errorf("opening log file %s: %w", opts.LogPath, err)
		}
		defer func() { _ = logFile.Close() }()

		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting instance process: %w", err)
	}

	pid := cmd.Process.Pid

	// Detach: the child outlives this process; reaping is the kernel's
	// problem once the parent exits.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}

// WaitRegistered polls the registry until the entry with the given id
// appears or the timeout elapses. A child that dies before registering
// (failed initial generation) is reported immediately.
func WaitRegistered(ctx context.Context, registry *Registry, id string, pid int, timeout time.Duration) (Entry, error) {
	deadline := time.Now().Add(timeout)

	for {
		entry, found, err := registry.Get(ctx, id)
		if err != nil {
			return Entry{}, err
		}

		if found {
			return entry, nil
		}

		if !Alive(pid) {
			return Entry{}, fmt.Errorf("instance process %d exited before registering (initial generation failed, see logs)", pid)
		}

		if !time.Now().Before(deadline) {
			return Entry{}, fmt.Errorf("instance %s did not register within %s", id, timeout)
		}

		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case <-time.After(startPollInterval):
		}
	}
}
