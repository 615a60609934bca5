// Package tree defines the format-independent representation of a parsed
// configuration document and the decoders that produce it from YAML, JSON,
// and TOML input.
package tree

import "fmt"

// Kind identifies the variant of a Value.
type Kind int

const (
	// KindString is a textual scalar.
	KindString Kind = iota
	// KindInt is an integer scalar.
	KindInt
	// KindFloat is a floating-point scalar.
	KindFloat
	// KindBool is a boolean scalar.
	KindBool
	// KindNull is an explicit null scalar.
	KindNull
	// KindSequence is an ordered list of values.
	KindSequence
	// KindMapping is an ordered list of key/value fields.
	KindMapping
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsScalar reports whether the kind is one of the scalar variants.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBool, KindNull:
		return true
	default:
		return false
	}
}

// Field is one ordered key/value entry of a mapping.
type Field struct {
	Key   string
	Value *Value
}

// Value is the closed variant over which all downstream logic pattern-matches.
// Exactly one of Literal, Items, or Fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	// Literal is the raw scalar text as it appeared in the source document.
	Literal string

	// Items holds sequence elements in source order.
	Items []*Value

	// Fields holds mapping entries in source order. Keys are unique within
	// one mapping.
	Fields []Field
}

// Scalar constructs a scalar value of the given kind.
func Scalar(kind Kind, literal string) *Value {
	return &Value{Kind: kind, Literal: literal}
}

// Sequence constructs a sequence value.
func Sequence(items ...*Value) *Value {
	return &Value{Kind: KindSequence, Items: items}
}

// Mapping constructs a mapping value from ordered fields.
func Mapping(fields ...Field) *Value {
	return &Value{Kind: KindMapping, Fields: fields}
}

// Lookup returns the value for key, or nil if the mapping has no such field.
// Lookup on a non-mapping value always returns nil.
func (v *Value) Lookup(key string) *Value {
	if v == nil || v.Kind != KindMapping {
		return nil
	}

	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value
		}
	}

	return nil
}

// ParseError reports a malformed input document.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
