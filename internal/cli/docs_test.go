package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsCommand_MarkdownToStdout(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "server:\n  host: localhost\n  port: 8080\ndebug: true\n")

	stdout, _, err := executeCommand("docs", "-i", input)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# App Configuration Reference")
	assert.Contains(t, stdout, "## App (root)")
	assert.Contains(t, stdout, "## Server")
	assert.Contains(t, stdout, "| `port` | `int` | yes |")
	assert.Contains(t, stdout, "## Example")
	assert.Contains(t, stdout, "```yaml")
}

func TestDocsCommand_WritesFile(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "name: demo\n")
	output := filepath.Join(t.TempDir(), "reference.md")

	_, _, err := executeCommand("docs", "-i", input, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| `name` | `string` | yes |")
}

func TestDocsCommand_HTML(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "name: demo\n")

	stdout, _, err := executeCommand("docs", "-i", input, "--doc-format", "html")
	require.NoError(t, err)

	assert.Contains(t, stdout, "<!DOCTYPE html>")
	assert.Contains(t, stdout, "<title>App Configuration Reference</title>")
	assert.Contains(t, stdout, "<code>name</code>")
}

func TestDocsCommand_AsciiDoc(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "name: demo\n")

	stdout, _, err := executeCommand("docs", "-i", input, "--doc-format", "asciidoc")
	require.NoError(t, err)

	assert.Contains(t, stdout, "= App Configuration Reference")
	assert.Contains(t, stdout, "| `name`")
}

func TestDocsCommand_TitleOverride(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "name: demo\n")

	stdout, _, err := executeCommand("docs", "-i", input, "--title", "Demo Settings")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Demo Settings")
}

func TestDocsCommand_NoExample(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "name: demo\n")

	stdout, _, err := executeCommand("docs", "-i", input, "--no-example")
	require.NoError(t, err)

	assert.NotContains(t, stdout, "## Example")
}

func TestDocsCommand_UnknownDocFormat(t *testing.T) {
	input := writeConfigFile(t, "app.yaml", "name: demo\n")

	_, _, err := executeCommand("docs", "-i", input, "--doc-format", "pdf")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitUsage, exitErr.Code)
	assert.Contains(t, exitErr.Error(), "unsupported docs format")
}

func TestDocsCommand_ParseError(t *testing.T) {
	input := writeConfigFile(t, "broken.yaml", "key: [\n")

	_, _, err := executeCommand("docs", "-i", input)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitParse, exitErr.Code)
}
