package emit

import (
	"fmt"
	"strings"

	"github.com/confgen/confgen/internal/schema"
)

// pythonReserved are Python keywords plus the method names every generated
// dataclass carries; a field with one of these names would shadow the
// generated loader.
var pythonReserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	"from_dict": true, "to_dict": true, "from_file": true,
}

// PythonRenderer emits Python dataclasses with from_file/from_dict loaders.
type PythonRenderer struct{}

// NewPythonRenderer creates the Python renderer.
func NewPythonRenderer() *PythonRenderer {
	return &PythonRenderer{}
}

// Language implements Renderer.
func (r *PythonRenderer) Language() string { return "python" }

// FileExtension implements Renderer.
func (r *PythonRenderer) FileExtension() string { return "py" }

// Render implements Renderer. Each record becomes a @dataclass; the root
// record additionally carries a from_file loader that dispatches on the
// file extension. The output is self-contained apart from well-known
// stdlib modules and PyYAML for .yaml inputs.
func (r *PythonRenderer) Render(s *schema.Schema, order []int, opts Options) ([]byte, error) {
	style := opts.NamingStyle
	if style == "" {
		style = schema.StyleSnake
	}

	p := &pythonWriter{schema: s, style: style}

	for _, ref := range order {
		p.writeClass(ref, ref == s.Root)
	}

	return p.assemble(), nil
}

type pythonWriter struct {
	schema *schema.Schema
	style  schema.Style
	body   strings.Builder

	needsList     bool
	needsOptional bool
	needsOptFn    bool
}

func (p *pythonWriter) writeClass(ref int, isRoot bool) {
	rec := p.schema.Records[ref]

	fmt.Fprintf(&p.body, "\n\n@dataclass\nclass %s:\n", rec.Name)

	if len(rec.Fields) == 0 {
		p.body.WriteString("    pass\n")
	}

	names := p.fieldNames(rec)

	for i, f := range rec.Fields {
		fmt.Fprintf(&p.body, "    %s: %s", names[i], p.annotation(f.Type))

		// Keep the original mapping key recoverable when normalization
		// changed it.
		if names[i] != f.Key {
			fmt.Fprintf(&p.body, " = field(metadata={\"key\": %q})", f.Key)
		}

		p.body.WriteString("\n")
	}

	p.writeFromDict(rec, names)
	p.writeToDict(rec, names)

	if isRoot {
		p.writeFromFile()
	}
}

// fieldNames resolves the identifiers for all fields of rec, enforcing
// uniqueness after normalization with a deterministic numeric suffix.
func (p *pythonWriter) fieldNames(rec *schema.Record) []string {
	names := make([]string, len(rec.Fields))
	taken := make(map[string]bool, len(rec.Fields))

	for i, f := range rec.Fields {
		name := schema.Identifier(f.Key, p.style, pythonReserved)

		base := name
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s%d", base, n)
		}

		taken[name] = true
		names[i] = name
	}

	return names
}

func (p *pythonWriter) annotation(t schema.Type) string {
	switch t.Kind {
	case schema.TypeOptional:
		p.needsOptional = true
		return "Optional[" + p.annotation(*t.Elem) + "]"
	case schema.TypeList:
		p.needsList = true
		return "List[" + p.annotation(*t.Elem) + "]"
	case schema.TypeRecord:
		return p.schema.Records[t.Ref].Name
	default:
		switch t.Prim {
		case schema.PrimInt:
			return "int"
		case schema.PrimFloat:
			return "float"
		case schema.PrimBool:
			return "bool"
		default:
			// Untyped falls back to str.
			return "str"
		}
	}
}

func (p *pythonWriter) writeFromDict(rec *schema.Record, names []string) {
	p.body.WriteString("\n    @classmethod\n    def from_dict(cls, data):\n        return cls(")

	if len(rec.Fields) == 0 {
		p.body.WriteString(")\n")
		return
	}

	p.body.WriteString("\n")

	for i, f := range rec.Fields {
		src := fmt.Sprintf("data[%q]", f.Key)
		if f.Type.Kind == schema.TypeOptional {
			src = fmt.Sprintf("data.get(%q)", f.Key)
		}

		fmt.Fprintf(&p.body, "            %s=%s,\n", names[i], p.loadExpr(f.Type, src))
	}

	p.body.WriteString("        )\n")
}

// loadExpr renders the expression converting raw parsed data into the typed
// value for t.
func (p *pythonWriter) loadExpr(t schema.Type, src string) string {
	switch t.Kind {
	case schema.TypeOptional:
		inner := p.loadExpr(*t.Elem, "v")
		if inner == "v" {
			return src
		}

		p.needsOptFn = true

		return fmt.Sprintf("_opt(%s, lambda v: %s)", src, inner)
	case schema.TypeList:
		inner := p.loadExpr(*t.Elem, "v")
		if inner == "v" {
			return fmt.Sprintf("list(%s)", src)
		}

		return fmt.Sprintf("[%s for v in %s]", inner, src)
	case schema.TypeRecord:
		return fmt.Sprintf("%s.from_dict(%s)", p.schema.Records[t.Ref].Name, src)
	default:
		return src
	}
}

func (p *pythonWriter) writeToDict(rec *schema.Record, names []string) {
	p.body.WriteString("\n    def to_dict(self):\n        return {")

	if len(rec.Fields) == 0 {
		p.body.WriteString("}\n")
		return
	}

	p.body.WriteString("\n")

	for i, f := range rec.Fields {
		fmt.Fprintf(&p.body, "            %q: %s,\n", f.Key, p.dumpExpr(f.Type, "self."+names[i]))
	}

	p.body.WriteString("        }\n")
}

// dumpExpr renders the expression converting a typed value back into plain
// data, preserving the original mapping keys for round-tripping.
func (p *pythonWriter) dumpExpr(t schema.Type, src string) string {
	switch t.Kind {
	case schema.TypeOptional:
		inner := p.dumpExpr(*t.Elem, "v")
		if inner == "v" {
			return src
		}

		p.needsOptFn = true

		return fmt.Sprintf("_opt(%s, lambda v: %s)", src, inner)
	case schema.TypeList:
		inner := p.dumpExpr(*t.Elem, "v")
		if inner == "v" {
			return fmt.Sprintf("list(%s)", src)
		}

		return fmt.Sprintf("[%s for v in %s]", inner, src)
	case schema.TypeRecord:
		return src + ".to_dict()"
	default:
		return src
	}
}

func (p *pythonWriter) writeFromFile() {
	p.body.WriteString(`
    @classmethod
    def from_file(cls, path):
        p = Path(path)
        suffix = p.suffix.lower()
        if suffix == ".json":
            import json
            data = json.loads(p.read_text())
        elif suffix == ".toml":
            import tomllib
            data = tomllib.loads(p.read_text())
        elif suffix in (".yaml", ".yml"):
            import yaml
            data = yaml.safe_load(p.read_text())
        else:
            raise ValueError(f"unsupported config format: {suffix}")
        return cls.from_dict(data or {})
`)
}

func (p *pythonWriter) assemble() []byte {
	var out strings.Builder

	out.WriteString("# Code generated by confgen. DO NOT EDIT.\n")
	out.WriteString("from __future__ import annotations\n\n")
	out.WriteString("from dataclasses import dataclass, field\n")
	out.WriteString("from pathlib import Path\n")

	var typingImports []string

	if p.needsList {
		typingImports = append(typingImports, "List")
	}

	if p.needsOptional {
		typingImports = append(typingImports, "Optional")
	}

	if len(typingImports) > 0 {
		out.WriteString("from typing import " + strings.Join(typingImports, ", ") + "\n")
	}

	if p.needsOptFn {
		out.WriteString("\n\ndef _opt(value, conv):\n    return None if value is None else conv(value)\n")
	}

	out.WriteString(p.body.String())

	return []byte(out.String())
}
