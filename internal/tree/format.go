package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/confgen/confgen/internal/yamlutil"
)

// Format identifies a supported configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Formats returns all supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatYAML, FormatJSON, FormatTOML}
}

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: yaml, json, toml)", s)
	}
}

// DetectFormat determines the format of path from its file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("cannot detect format of %q: unsupported extension (supported: .yaml, .yml, .json, .toml)", path)
	}
}

// IsSupportedPath reports whether path has a recognized configuration
// file extension.
func IsSupportedPath(path string) bool {
	_, err := DetectFormat(path)
	return err == nil
}

// Decode parses data in the given format into a Value.
// The path is used only for error reporting.
func Decode(path string, data []byte, format Format) (*Value, error) {
	var (
		v   *Value
		err error
	)

	switch format {
	case FormatYAML:
		v, err = decodeYAML(data)
	case FormatJSON:
		v, err = decodeJSON(data)
	case FormatTOML:
		v, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}

	return v, nil
}

// DecodeAll parses data into one Value per document. YAML input is split on
// "---" separators and every non-empty document is decoded; JSON and TOML
// always yield a single document. The returned slice is never empty.
func DecodeAll(path string, data []byte, format Format) ([]*Value, error) {
	if format != FormatYAML {
		v, err := Decode(path, data, format)
		if err != nil {
			return nil, err
		}

		return []*Value{v}, nil
	}

	raw := yamlutil.SplitDocuments(data)
	if len(raw) == 0 {
		return []*Value{Mapping()}, nil
	}

	docs := make([]*Value, 0, len(raw))

	for _, r := range raw {
		v, err := Decode(path, r, format)
		if err != nil {
			return nil, err
		}

		docs = append(docs, v)
	}

	return docs, nil
}

// DecodeFile reads and parses the file at path. When format is empty it is
// detected from the file extension.
func DecodeFile(path string, format Format) (*Value, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}

		format = detected
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return Decode(path, data, format)
}

// DecodeFileAll reads the file at path and parses every document it
// contains. When format is empty it is detected from the file extension.
func DecodeFileAll(path string, format Format) ([]*Value, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}

		format = detected
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return DecodeAll(path, data, format)
}
