// Package docs generates human-readable reference documentation for an
// inferred configuration schema. It supports Markdown, HTML, and AsciiDoc
// output formats, with optional example YAML generation.
package docs

import (
	"fmt"
	"strings"

	"github.com/confgen/confgen/internal/schema"
)

// FieldDoc describes a single documented record field.
type FieldDoc struct {
	// Key is the original mapping key as it appears in the source document.
	Key string
	// Type is the rendered type (e.g. "string", "list of Server").
	Type string
	// Optional marks fields absent in some occurrences of the record.
	Optional bool
}

// RecordDoc describes one record type of the schema.
type RecordDoc struct {
	// Name is the record's assigned type name.
	Name string
	// Root marks the document root record.
	Root bool
	// Fields are the record's fields in source order.
	Fields []FieldDoc
}

// Model is the structured data model for documentation generation.
type Model struct {
	// Title overrides the document title.
	Title string
	// Source is the input file the schema was inferred from.
	Source string
	// Records lists all record types, the root record first.
	Records []RecordDoc
	// IncludeExample controls whether an example YAML section is appended.
	IncludeExample bool
	// ExampleYAML is the rendered example document, set by the caller when
	// IncludeExample is true.
	ExampleYAML string
}

// FromSchema builds a documentation model from an inferred schema. The root
// record leads, the remaining records follow in arena order.
func FromSchema(s *schema.Schema, source string) *Model {
	model := &Model{Source: source}

	model.Records = append(model.Records, recordDoc(s, s.Root, true))

	for i := range s.Records {
		if i == s.Root {
			continue
		}

		model.Records = append(model.Records, recordDoc(s, i, false))
	}

	return model
}

func recordDoc(s *schema.Schema, ref int, root bool) RecordDoc {
	rec := s.Records[ref]

	doc := RecordDoc{Name: rec.Name, Root: root}

	for _, f := range rec.Fields {
		t := f.Type

		optional := t.Kind == schema.TypeOptional
		if optional {
			t = *t.Elem
		}

		doc.Fields = append(doc.Fields, FieldDoc{
			Key:      f.Key,
			Type:     typeString(s, t),
			Optional: optional,
		})
	}

	return doc
}

// typeString renders a type for documentation.
func typeString(s *schema.Schema, t schema.Type) string {
	switch t.Kind {
	case schema.TypeOptional:
		return typeString(s, *t.Elem)
	case schema.TypeList:
		return "list of " + typeString(s, *t.Elem)
	case schema.TypeRecord:
		return s.Records[t.Ref].Name
	default:
		return t.Prim.String()
	}
}

// GenerateExampleYAML renders an example configuration document with
// placeholder values for every field of the root record.
func GenerateExampleYAML(s *schema.Schema) string {
	var b strings.Builder

	writeExampleRecord(&b, s, s.Root, 0, make(map[int]bool))

	return b.String()
}

func writeExampleRecord(b *strings.Builder, s *schema.Schema, ref, indent int, visiting map[int]bool) {
	// Shared shapes may recur through dedup; cut off repetition.
	if visiting[ref] {
		return
	}

	visiting[ref] = true
	defer delete(visiting, ref)

	pad := strings.Repeat("  ", indent)

	for _, f := range s.Records[ref].Fields {
		t := f.Type
		if t.Kind == schema.TypeOptional {
			t = *t.Elem
		}

		switch t.Kind {
		case schema.TypeRecord:
			fmt.Fprintf(b, "%s%s:\n", pad, f.Key)
			writeExampleRecord(b, s, t.Ref, indent+1, visiting)
		case schema.TypeList:
			elem := *t.Elem
			if elem.Kind == schema.TypeOptional {
				elem = *elem.Elem
			}

			if elem.Kind == schema.TypeRecord {
				fmt.Fprintf(b, "%s%s:\n%s  -\n", pad, f.Key, pad)
				writeExampleRecord(b, s, elem.Ref, indent+2, visiting)
			} else {
				fmt.Fprintf(b, "%s%s:\n%s  - %s\n", pad, f.Key, pad, exampleScalar(elem))
			}
		default:
			fmt.Fprintf(b, "%s%s: %s\n", pad, f.Key, exampleScalar(t))
		}
	}
}

func exampleScalar(t schema.Type) string {
	switch t.Prim {
	case schema.PrimInt:
		return "0"
	case schema.PrimFloat:
		return "0.0"
	case schema.PrimBool:
		return "false"
	default:
		return `""`
	}
}
