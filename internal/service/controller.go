package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StopTimeout bounds how long a stop request waits for an instance to
// deregister before force-reaping its entry.
const StopTimeout = 10 * time.Second

// stopPollInterval is how often a stop request re-checks the registry.
const stopPollInterval = 100 * time.Millisecond

// Controller drives stop and status operations against running instances
// through their registry entries.
type Controller struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewController creates a controller for the given registry.
func NewController(registry *Registry, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		registry: registry,
		timeout:  StopTimeout,
		logger:   logger,
	}
}

// InstanceStatus is one row of the status listing.
type InstanceStatus struct {
	Entry Entry
	Alive bool
}

// Status lists all registered instances with their liveness.
func (c *Controller) Status(ctx context.Context) ([]InstanceStatus, error) {
	entries, err := c.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]InstanceStatus, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, InstanceStatus{Entry: e, Alive: Alive(e.PID)})
	}

	return statuses, nil
}

// Stop gracefully stops the instance with the given id. Dead entries are
// reaped; live instances get SIGTERM and a bounded wait for their
// disappearance from the registry.
func (c *Controller) Stop(ctx context.Context, id string) error {
	entry, found, err := c.registry.Get(ctx, id)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("no instance with id %q", id)
	}

	return c.stopEntry(ctx, entry)
}

// StopAll gracefully stops every registered instance and reaps dead
// entries. The registry is empty afterwards unless an instance refused to
// die within the timeout, which is returned as an error.
func (c *Controller) StopAll(ctx context.Context) (int, error) {
	entries, err := c.registry.List(ctx)
	if err != nil {
		return 0, err
	}

	// Signal everything first so instances shut down concurrently.
	for _, e := range entries {
		if Alive(e.PID) {
			if sigErr := Terminate(e.PID); sigErr != nil {
				c.logger.Warn("signaling instance",
					slog.String("id", e.ID),
					slog.Int("pid", e.PID),
					slog.String("error", sigErr.Error()),
				)
			}
		}
	}

	stopped := 0

	var firstErr error

	for _, e := range entries {
		if stopErr := c.waitStopped(ctx, e); stopErr != nil {
			if firstErr == nil {
				firstErr = stopErr
			}

			continue
		}

		stopped++
	}

	return stopped, firstErr
}

// stopEntry signals one instance and waits for it to stop.
func (c *Controller) stopEntry(ctx context.Context, entry Entry) error {
	if !Alive(entry.PID) {
		// Dead entry: reap it regardless of how the process went away.
		if _, err := c.registry.Remove(ctx, entry.ID); err != nil {
			return err
		}

		c.logger.Info("reaped dead instance",
			slog.String("id", entry.ID),
			slog.Int("pid", entry.PID),
		)

		return nil
	}

	if err := Terminate(entry.PID); err != nil {
		return fmt.Errorf("signaling instance %s (pid %d): %w", entry.ID, entry.PID, err)
	}

	return c.waitStopped(ctx, entry)
}

// waitStopped polls for the entry's disappearance from the registry within
// the timeout. Instances that died without deregistering are force-reaped.
func (c *Controller) waitStopped(ctx context.Context, entry Entry) error {
	deadline := time.Now().Add(c.timeout)

	for time.Now().Before(deadline) {
		_, found, err := c.registry.Get(ctx, entry.ID)
		if err != nil {
			return err
		}

		if !found {
			return nil
		}

		if !Alive(entry.PID) {
			_, err := c.registry.Remove(ctx, entry.ID)
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stopPollInterval):
		}
	}

	return fmt.Errorf("instance %s (pid %d) did not stop within %s", entry.ID, entry.PID, c.timeout)
}
