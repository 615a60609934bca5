package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"yaml", "yaml", FormatYAML, false},
		{"yml alias", "yml", FormatYAML, false},
		{"json", "json", FormatJSON, false},
		{"toml", "toml", FormatTOML, false},
		{"mixed case", "YAML", FormatYAML, false},
		{"unknown", "ini", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    Format
		wantErr bool
	}{
		{"yaml extension", "config.yaml", FormatYAML, false},
		{"yml extension", "dir/config.yml", FormatYAML, false},
		{"json extension", "settings.json", FormatJSON, false},
		{"toml extension", "app.toml", FormatTOML, false},
		{"uppercase extension", "CONFIG.YAML", FormatYAML, false},
		{"unsupported extension", "config.ini", "", true},
		{"no extension", "config", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSupportedPath(t *testing.T) {
	assert.True(t, IsSupportedPath("a/b/config.yaml"))
	assert.True(t, IsSupportedPath("settings.toml"))
	assert.False(t, IsSupportedPath("readme.md"))
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode("config.xml", []byte("<a/>"), Format("xml"))
	assert.Error(t, err)
}

func TestDecode_ParseErrorCarriesPathAndFormat(t *testing.T) {
	_, err := Decode("broken.json", []byte("{"), FormatJSON)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken.json", perr.Path)
	assert.Equal(t, FormatJSON, perr.Format)
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: demo\nport: 8080\n"), 0o600))

	v, err := DecodeFile(path, "")
	require.NoError(t, err)
	require.Equal(t, KindMapping, v.Kind)
	assert.Equal(t, "demo", v.Lookup("name").Literal)
	assert.Equal(t, KindInt, v.Lookup("port").Kind)
}

func TestDecodeFile_MissingFile(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestDecodeFile_FormatOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"demo"}`), 0o600))

	v, err := DecodeFile(path, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "demo", v.Lookup("name").Literal)
}

func TestDecodeAll_MultiDocYAML(t *testing.T) {
	docs, err := DecodeAll("multi.yaml", []byte("host: a\n---\ndebug: true\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Lookup("host").Literal)
	assert.Equal(t, KindBool, docs[1].Lookup("debug").Kind)
}

func TestDecodeAll_SingleDocYAML(t *testing.T) {
	docs, err := DecodeAll("one.yaml", []byte("host: a\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDecodeAll_EmptyYAML(t *testing.T) {
	docs, err := DecodeAll("empty.yaml", []byte("---\n\n---\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, KindMapping, docs[0].Kind)
	assert.Empty(t, docs[0].Fields)
}

func TestDecodeAll_JSONIsSingleDocument(t *testing.T) {
	docs, err := DecodeAll("app.json", []byte(`{"name":"demo"}`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "demo", docs[0].Lookup("name").Literal)
}

func TestDecodeAll_BrokenDocument(t *testing.T) {
	_, err := DecodeAll("multi.yaml", []byte("host: a\n---\nkey: [\n"), FormatYAML)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "multi.yaml", perr.Path)
}

func TestDecodeFileAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: a\n---\nhost: b\nport: 1\n"), 0o600))

	docs, err := DecodeFileAll(path, "")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[1].Lookup("host").Literal)
}
