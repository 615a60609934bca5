package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestToCode_MissingInputFlag(t *testing.T) {
	_, _, err := executeCommand("to-code")
	require.Error(t, err)
}

func TestToCode_WritesDerivedOutput(t *testing.T) {
	input := writeConfigFile(t, "app_config.yaml", "host: localhost\nport: 8080\n")

	_, _, err := executeCommand("to-code", "-i", input)
	require.NoError(t, err)

	output := filepath.Join(filepath.Dir(input), "app_config.py")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "class AppConfig:")
	assert.Contains(t, string(data), "host: str")
	assert.Contains(t, string(data), "port: int")
}

func TestToCode_ExplicitOutputAndLanguage(t *testing.T) {
	input := writeConfigFile(t, "settings.toml", "name = \"demo\"\n")
	output := filepath.Join(t.TempDir(), "settings_gen.go")

	_, _, err := executeCommand("to-code", "-i", input, "-o", output, "--language", "go")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type Settings struct")
}

func TestToCode_DryRunPrintsWithoutWriting(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "a: 1\n")

	stdout, _, err := executeCommand("to-code", "-i", input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "class App:")

	_, statErr := os.Stat(filepath.Join(filepath.Dir(input), "app.py"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestToCode_DiffAgainstMissingOutput(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "a: 1\n")

	stdout, _, err := executeCommand("to-code", "-i", input, "--diff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+class App:")
}

func TestToCode_DiffColor(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "a: 1\n")

	stdout, _, err := executeCommand("to-code", "-i", input, "--diff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\033[32m", "added lines are colored by default")

	stdout, _, err = executeCommand("to-code", "-i", input, "--diff", "--no-color")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "\033[")
}

func TestToCode_DiffUpToDate(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "a: 1\n")

	_, _, err := executeCommand("to-code", "-i", input)
	require.NoError(t, err)

	_, stderr, err := executeCommand("to-code", "-i", input, "--diff")
	require.NoError(t, err)
	assert.Contains(t, stderr, "output is up to date")
}

func TestToCode_ParseErrorExitCode(t *testing.T) {
	input := writeConfigFile(t, "broken.json", `{"a":`)

	_, _, err := executeCommand("to-code", "-i", input)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestToCode_RootTypeErrorExitCode(t *testing.T) {
	input := writeConfigFile(t, "scalar.json", `"just a string"`)

	_, _, err := executeCommand("to-code", "-i", input)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 4, exitErr.Code)
}

func TestToCode_UnknownLanguageExitCode(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "a: 1\n")

	_, _, err := executeCommand("to-code", "-i", input, "--language", "rust")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestToCode_UnknownNamingStyleExitCode(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "a: 1\n")

	_, _, err := executeCommand("to-code", "-i", input, "--naming-style", "kebab")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestToCode_DirectoryInput(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "gen")

	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.yaml"), []byte("x: 1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "b.json"), []byte(`{"y": true}`), 0o600))

	_, stderr, err := executeCommand("to-code", "-i", inDir, "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "generated")

	_, err = os.Stat(filepath.Join(outDir, "a.py"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "b.py"))
	assert.NoError(t, err)
}

func TestToCode_DirectoryRejectsDryRun(t *testing.T) {
	inDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.yaml"), []byte("x: 1\n"), 0o600))

	_, _, err := executeCommand("to-code", "-i", inDir, "--dry-run")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
