package generate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestRunDir_ConvertsSupportedFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	writeTree(t, in, map[string]string{
		"app.yaml":          "a: 1\n",
		"sub/settings.json": `{"b": true}`,
		"notes.txt":         "ignored",
	})

	res, err := RunDir(context.Background(), Options{InputPath: in, OutputPath: out})
	require.NoError(t, err)

	assert.Len(t, res.Generated, 2)
	assert.Len(t, res.Skipped, 1)

	data, err := os.ReadFile(filepath.Join(out, "app.py"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "class App:")

	_, err = os.Stat(filepath.Join(out, "sub", "settings.py"))
	assert.NoError(t, err)
}

func TestRunDir_SkipsHiddenDirectories(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	writeTree(t, in, map[string]string{
		"app.yaml":         "a: 1\n",
		".git/config.yaml": "b: 2\n",
	})

	res, err := RunDir(context.Background(), Options{InputPath: in, OutputPath: out})
	require.NoError(t, err)
	assert.Len(t, res.Generated, 1)
}

func TestRunDir_PerFileFailuresDoNotStopWalk(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	writeTree(t, in, map[string]string{
		"bad.json":  `{"broken":`,
		"good.yaml": "a: 1\n",
	})

	res, err := RunDir(context.Background(), Options{InputPath: in, OutputPath: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
	assert.Len(t, res.Generated, 1)
}

func TestRunDir_GoExtension(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	writeTree(t, in, map[string]string{"app.yaml": "a: 1\n"})

	res, err := RunDir(context.Background(), Options{InputPath: in, OutputPath: out, Language: "go"})
	require.NoError(t, err)
	require.Len(t, res.Generated, 1)
	assert.Equal(t, filepath.Join(out, "app.go"), res.Generated[0])
}
