// Package service implements confgen's watch service: long-lived per-file
// regeneration instances, and the durable registry that tracks running
// instances across processes.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/confgen/confgen/internal/generate"
)

const (
	registryFile = "registry.json"
	lockFile     = "registry.lock"

	// lockTimeout bounds how long one registry operation may wait for the
	// file lock before surfacing a RegistryLockError.
	lockTimeout = 5 * time.Second

	// lockRetryDelay is the backoff between lock acquisition attempts.
	lockRetryDelay = 50 * time.Millisecond
)

// Entry describes one registered watch instance.
type Entry struct {
	ID          string    `json:"id"`
	PID         int       `json:"pid"`
	InputPath   string    `json:"inputPath"`
	OutputPath  string    `json:"outputPath"`
	Language    string    `json:"language"`
	Format      string    `json:"format,omitempty"`
	NamingStyle string    `json:"namingStyle,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
}

// RegistryLockError reports that the registry lock could not be acquired
// within the bounded retry window.
type RegistryLockError struct {
	Path string
	Err  error
}

func (e *RegistryLockError) Error() string {
	return fmt.Sprintf("acquiring registry lock %s: %v", e.Path, e.Err)
}

func (e *RegistryLockError) Unwrap() error { return e.Err }

// Registry is a durable id-keyed store of running watch instances, shared
// between processes. Every read-modify-write runs under a scoped exclusive
// file lock held only for the span of the operation, never across
// regeneration I/O.
type Registry struct {
	dir  string
	path string
	lock *flock.Flock
}

// DefaultDir returns the per-user confgen state directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}

	return filepath.Join(base, "confgen"), nil
}

// NewRegistry creates a registry rooted at dir, creating it if necessary.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating registry dir %s: %w", dir, err)
	}

	return &Registry{
		dir:  dir,
		path: filepath.Join(dir, registryFile),
		lock: flock.New(filepath.Join(dir, lockFile)),
	}, nil
}

// Dir returns the registry's state directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Add registers e. An existing entry with the same id is overwritten.
func (r *Registry) Add(ctx context.Context, e Entry) error {
	return r.update(ctx, func(entries map[string]Entry) error {
		entries[e.ID] = e
		return nil
	})
}

// Remove deletes the entry with the given id, reporting whether it existed.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	existed := false

	err := r.update(ctx, func(entries map[string]Entry) error {
		_, existed = entries[id]
		delete(entries, id)

		return nil
	})

	return existed, err
}

// Get returns the entry with the given id, if registered.
func (r *Registry) Get(ctx context.Context, id string) (Entry, bool, error) {
	var (
		entry Entry
		found bool
	)

	err := r.view(ctx, func(entries map[string]Entry) {
		entry, found = entries[id]
	})

	return entry, found, err
}

// List returns all entries ordered by start time, then id.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	var list []Entry

	err := r.view(ctx, func(entries map[string]Entry) {
		for _, e := range entries {
			list = append(list, e)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].StartedAt.Before(list[j].StartedAt)
		}

		return list[i].ID < list[j].ID
	})

	return list, nil
}

// Reap removes entries whose process no longer exists and returns them.
func (r *Registry) Reap(ctx context.Context) ([]Entry, error) {
	var reaped []Entry

	err := r.update(ctx, func(entries map[string]Entry) error {
		for id, e := range entries {
			if !Alive(e.PID) {
				reaped = append(reaped, e)
				delete(entries, id)
			}
		}

		return nil
	})

	return reaped, err
}

// view runs fn over a snapshot of the registry under the shared lock.
func (r *Registry) view(ctx context.Context, fn func(map[string]Entry)) error {
	unlock, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := r.read()
	if err != nil {
		return err
	}

	fn(entries)

	return nil
}

// update runs fn over the registry contents and persists the result, all
// under the exclusive lock.
func (r *Registry) update(ctx context.Context, fn func(map[string]Entry) error) error {
	unlock, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := r.read()
	if err != nil {
		return err
	}

	if err := fn(entries); err != nil {
		return err
	}

	return r.write(entries)
}

// acquire takes the exclusive registry lock with bounded retries.
func (r *Registry) acquire(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	ok, err := r.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !ok {
		if err == nil {
			err = context.DeadlineExceeded
		}

		return nil, &RegistryLockError{Path: r.lock.Path(), Err: err}
	}

	return func() { _ = r.lock.Unlock() }, nil
}

func (r *Registry) read() (map[string]Entry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Entry), nil
		}

		return nil, fmt.Errorf("reading registry %s: %w", r.path, err)
	}

	entries := make(map[string]Entry)

	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing registry %s: %w", r.path, err)
		}
	}

	return entries, nil
}

func (r *Registry) write(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	if err := generate.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("writing registry %s: %w", r.path, err)
	}

	return nil
}
