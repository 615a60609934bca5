// Package schema infers a deduplicated, named type schema from parsed
// configuration trees. Records live in an arena and reference each other by
// index, so the structural deduplication pass is a plain index remap.
package schema

import (
	"fmt"
	"strings"
)

// PrimKind identifies a primitive type.
type PrimKind int

const (
	// PrimString is a textual value.
	PrimString PrimKind = iota
	// PrimInt is an integer value.
	PrimInt
	// PrimFloat is a floating-point value.
	PrimFloat
	// PrimBool is a boolean value.
	PrimBool
	// PrimUntyped is the fallback for irreconcilable type conflicts. It is
	// rendered as a string-typed value by the emitters.
	PrimUntyped
	// PrimUnknown is a placeholder for positions with no type evidence yet
	// (empty sequences, null scalars). Resolved to PrimUntyped after
	// inference if never refined.
	PrimUnknown
)

// String returns the lowercase name of the primitive kind.
func (p PrimKind) String() string {
	switch p {
	case PrimString:
		return "string"
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimBool:
		return "bool"
	case PrimUntyped:
		return "untyped"
	case PrimUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("PrimKind(%d)", int(p))
	}
}

// TypeKind identifies the variant of a Type.
type TypeKind int

const (
	// TypePrimitive is a leaf type described by Prim.
	TypePrimitive TypeKind = iota
	// TypeOptional wraps Elem for fields absent in some sibling occurrences.
	TypeOptional
	// TypeList holds Elem as its element type.
	TypeList
	// TypeRecord references a Record in the schema arena via Ref.
	TypeRecord
)

// Type is the inferred type of one position in the tree.
type Type struct {
	Kind TypeKind
	Prim PrimKind // meaningful for TypePrimitive
	Elem *Type    // meaningful for TypeOptional and TypeList
	Ref  int      // meaningful for TypeRecord: arena index
}

// Primitive constructs a primitive type.
func Primitive(p PrimKind) Type {
	return Type{Kind: TypePrimitive, Prim: p}
}

// Optional wraps t, collapsing nested optionals.
func Optional(t Type) Type {
	if t.Kind == TypeOptional {
		return t
	}

	inner := t

	return Type{Kind: TypeOptional, Elem: &inner}
}

// List constructs a list type with element type t.
func List(t Type) Type {
	elem := t

	return Type{Kind: TypeList, Elem: &elem}
}

// RecordRef constructs a record reference for arena index ref.
func RecordRef(ref int) Type {
	return Type{Kind: TypeRecord, Ref: ref}
}

// Field is one ordered, typed field of a Record. Key is the original mapping
// key; identifier normalization happens at emission time.
type Field struct {
	Key  string
	Type Type
}

// Record is a named aggregate type with ordered fields.
type Record struct {
	// Name is the final collision-free type name, assigned after dedup.
	Name string

	// Fields are ordered by first appearance in the source document.
	Fields []Field

	// preferred is the PascalCase name derived from the mapping key this
	// record first appeared under.
	preferred string
}

// Schema is the result of inference: an arena of deduplicated Records and
// the index of the root record.
type Schema struct {
	Records []*Record
	Root    int

	// Warnings are non-fatal diagnostics produced during inference, such as
	// type-conflict fallbacks to the untyped kind.
	Warnings []Diagnostic
}

// RootRecord returns the record for the document root.
func (s *Schema) RootRecord() *Record {
	return s.Records[s.Root]
}

// Diagnostic is a non-fatal inference finding tied to a document position.
type Diagnostic struct {
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return d.Message
	}

	return d.Path + ": " + d.Message
}

// signature returns the canonical shape signature of t. Record references
// recurse into the arena; the tree origin of the schema guarantees the
// recursion terminates.
func (s *Schema) signature(t Type) string {
	switch t.Kind {
	case TypeOptional:
		return "opt(" + s.signature(*t.Elem) + ")"
	case TypeList:
		return "list(" + s.signature(*t.Elem) + ")"
	case TypeRecord:
		return s.recordSignature(t.Ref)
	default:
		return t.Prim.String()
	}
}

// recordSignature returns the canonical shape signature of the record at
// arena index i: the ordered list of (key, type signature) pairs.
func (s *Schema) recordSignature(i int) string {
	r := s.Records[i]

	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		parts = append(parts, f.Key+":"+s.signature(f.Type))
	}

	return "{" + strings.Join(parts, ",") + "}"
}
