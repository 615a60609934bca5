package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	return r
}

func testEntry(id string, pid int) Entry {
	return Entry{
		ID:         id,
		PID:        pid,
		InputPath:  "/tmp/in.yaml",
		OutputPath: "/tmp/out.py",
		Language:   "python",
		StartedAt:  time.Now().UTC(),
	}
}

func TestRegistry_AddGetRemove(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	e := testEntry("one", os.Getpid())
	require.NoError(t, r.Add(ctx, e))

	got, found, err := r.Get(ctx, "one")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.PID, got.PID)
	assert.Equal(t, e.InputPath, got.InputPath)

	existed, err := r.Remove(ctx, "one")
	require.NoError(t, err)
	assert.True(t, existed)

	_, found, err = r.Get(ctx, "one")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_RemoveMissing(t *testing.T) {
	r := newTestRegistry(t)

	existed, err := r.Remove(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRegistry_GetMissing(t *testing.T) {
	r := newTestRegistry(t)

	_, found, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_ListOrderedByStartTime(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	base := time.Now().UTC()

	later := testEntry("later", os.Getpid())
	later.StartedAt = base.Add(time.Minute)
	earlier := testEntry("earlier", os.Getpid())
	earlier.StartedAt = base

	require.NoError(t, r.Add(ctx, later))
	require.NoError(t, r.Add(ctx, earlier))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "earlier", list[0].ID)
	assert.Equal(t, "later", list[1].ID)
}

func TestRegistry_AddOverwritesSameID(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	e := testEntry("one", os.Getpid())
	require.NoError(t, r.Add(ctx, e))

	e.OutputPath = "/tmp/other.py"
	require.NoError(t, r.Add(ctx, e))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/tmp/other.py", list[0].OutputPath)
}

func TestRegistry_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewRegistry(dir)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, testEntry("one", os.Getpid())))

	second, err := NewRegistry(dir)
	require.NoError(t, err)

	_, found, err := second.Get(ctx, "one")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRegistry_Reap(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	// PIDs beyond the kernel maximum never correspond to a live process.
	require.NoError(t, r.Add(ctx, testEntry("dead", 1<<30)))
	require.NoError(t, r.Add(ctx, testEntry("live", os.Getpid())))

	reaped, err := r.Reap(ctx)
	require.NoError(t, err)
	require.Len(t, reaped, 1)
	assert.Equal(t, "dead", reaped[0].ID)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "live", list[0].ID)
}

func TestRegistry_CorruptFile(t *testing.T) {
	dir := t.TempDir()

	r, err := NewRegistry(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "registry.json"), []byte("not json"), 0o600))

	_, err = r.List(context.Background())
	assert.Error(t, err)
}

func TestRegistry_EmptyFile(t *testing.T) {
	dir := t.TempDir()

	r, err := NewRegistry(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "registry.json"), nil, 0o600))

	list, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistryLockError_Unwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := &RegistryLockError{Path: "/tmp/registry.lock", Err: inner}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "registry.lock")
}
