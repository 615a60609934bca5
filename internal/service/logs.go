package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogDir returns the directory holding per-instance log files under the
// registry's state directory.
func (r *Registry) LogDir() string {
	return filepath.Join(r.dir, "logs")
}

// LogPath returns the log file path for the instance with the given id.
func (r *Registry) LogPath(id string) string {
	return filepath.Join(r.LogDir(), id+".log")
}

// CleanLogs removes log files that belong to no registered instance and
// returns the removed paths.
func (r *Registry) CleanLogs(ctx context.Context) ([]string, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	registered := make(map[string]bool, len(entries))
	for _, e := range entries {
		registered[e.ID] = true
	}

	files, err := os.ReadDir(r.LogDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading log dir %s: %w", r.LogDir(), err)
	}

	var removed []string

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".log") {
			continue
		}

		id := strings.TrimSuffix(f.Name(), ".log")
		if registered[id] {
			continue
		}

		path := filepath.Join(r.LogDir(), f.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}

		removed = append(removed, path)
	}

	return removed, nil
}
