package schema

import (
	"fmt"

	"github.com/confgen/confgen/internal/tree"
)

// RootTypeError reports a document whose root is not a mapping. The emitted
// unit must be a named record, so only mapping roots are accepted.
type RootTypeError struct {
	Kind tree.Kind
}

func (e *RootTypeError) Error() string {
	return fmt.Sprintf("document root must be a mapping, got %s", e.Kind)
}

// Infer converts one or more occurrences of a document into a deduplicated
// Schema. Multiple occurrences represent repeated observations of the same
// logical position and are merged field-by-field; single-document inference
// is the common case. rootName is the preferred name of the root record.
func Infer(docs []*tree.Value, rootName string) (*Schema, error) {
	if len(docs) == 0 {
		docs = []*tree.Value{tree.Mapping()}
	}

	for _, d := range docs {
		if d.Kind != tree.KindMapping {
			return nil, &RootTypeError{Kind: d.Kind}
		}
	}

	inf := &inferencer{schema: &Schema{}}

	t := inf.infer(docs[0], "", rootName)
	for _, d := range docs[1:] {
		t = inf.merge(t, inf.infer(d, "", rootName), "")
	}

	inf.schema.Root = t.Ref

	inf.resolveUnknown()
	inf.dedup()
	inf.assignNames(rootName)

	return inf.schema, nil
}

type inferencer struct {
	schema *Schema
}

// infer walks one tree value and returns its type, creating arena records
// for every mapping it encounters. path is the dotted position used in
// diagnostics; name is the mapping key the value sits under.
func (inf *inferencer) infer(v *tree.Value, path, name string) Type {
	switch v.Kind {
	case tree.KindMapping:
		rec := &Record{preferred: TypeName(name)}
		ref := len(inf.schema.Records)
		inf.schema.Records = append(inf.schema.Records, rec)

		for _, f := range v.Fields {
			ft := inf.infer(f.Value, childPath(path, f.Key), f.Key)
			rec.Fields = append(rec.Fields, Field{Key: f.Key, Type: ft})
		}

		return RecordRef(ref)

	case tree.KindSequence:
		elem := Primitive(PrimUnknown)
		for _, item := range v.Items {
			elem = inf.merge(elem, inf.infer(item, path+"[]", name), path+"[]")
		}

		return List(elem)

	case tree.KindNull:
		// A bare null carries no type evidence: the position is optional
		// with an unknown inner type until a sibling occurrence refines it.
		return Optional(Primitive(PrimUnknown))

	case tree.KindInt:
		return Primitive(PrimInt)

	case tree.KindFloat:
		return Primitive(PrimFloat)

	case tree.KindBool:
		return Primitive(PrimBool)

	default:
		return Primitive(PrimString)
	}
}

// merge combines two types inferred for the same logical position.
func (inf *inferencer) merge(a, b Type, path string) Type {
	// Unknown is the identity element of the merge.
	if a.Kind == TypePrimitive && a.Prim == PrimUnknown {
		return b
	}

	if b.Kind == TypePrimitive && b.Prim == PrimUnknown {
		return a
	}

	// Optionality is sticky: once any occurrence was absent or null, the
	// merged type stays optional.
	if a.Kind == TypeOptional || b.Kind == TypeOptional {
		return Optional(inf.merge(unwrap(a), unwrap(b), path))
	}

	if a.Kind != b.Kind {
		return inf.fallback(a, b, path)
	}

	switch a.Kind {
	case TypePrimitive:
		if a.Prim == b.Prim {
			return a
		}

		// Numeric widening.
		if isNumeric(a.Prim) && isNumeric(b.Prim) {
			return Primitive(PrimFloat)
		}

		return inf.fallback(a, b, path)

	case TypeList:
		return List(inf.merge(*a.Elem, *b.Elem, path+"[]"))

	case TypeRecord:
		return inf.mergeRecords(a, b, path)

	default:
		return inf.fallback(a, b, path)
	}
}

// mergeRecords merges record b into record a field-by-field: fields present
// in only one occurrence become optional, fields present in both merge
// recursively. The merged result lives in a's arena slot; b's slot becomes
// unreachable and is dropped by the dedup compaction.
func (inf *inferencer) mergeRecords(a, b Type, path string) Type {
	ra, rb := inf.schema.Records[a.Ref], inf.schema.Records[b.Ref]

	bIndex := make(map[string]int, len(rb.Fields))
	for i, f := range rb.Fields {
		bIndex[f.Key] = i
	}

	seen := make(map[string]bool, len(ra.Fields))

	merged := make([]Field, 0, len(ra.Fields))

	for _, f := range ra.Fields {
		seen[f.Key] = true

		if j, ok := bIndex[f.Key]; ok {
			merged = append(merged, Field{
				Key:  f.Key,
				Type: inf.merge(f.Type, rb.Fields[j].Type, childPath(path, f.Key)),
			})

			continue
		}

		merged = append(merged, Field{Key: f.Key, Type: Optional(f.Type)})
	}

	// Fields only b has, in b's order.
	for _, f := range rb.Fields {
		if !seen[f.Key] {
			merged = append(merged, Field{Key: f.Key, Type: Optional(f.Type)})
		}
	}

	ra.Fields = merged

	return a
}

// fallback resolves an irreconcilable type conflict to the untyped kind and
// records a diagnostic so users can tighten their configuration.
func (inf *inferencer) fallback(a, b Type, path string) Type {
	inf.schema.Warnings = append(inf.schema.Warnings, Diagnostic{
		Path:    path,
		Message: fmt.Sprintf("conflicting types %s and %s, falling back to untyped", inf.describe(a), inf.describe(b)),
	})

	return Primitive(PrimUntyped)
}

// describe renders a type for diagnostics.
func (inf *inferencer) describe(t Type) string {
	switch t.Kind {
	case TypeOptional:
		return "optional " + inf.describe(*t.Elem)
	case TypeList:
		return "list of " + inf.describe(*t.Elem)
	case TypeRecord:
		return "record"
	default:
		return t.Prim.String()
	}
}

// resolveUnknown rewrites every remaining unknown placeholder to untyped.
func (inf *inferencer) resolveUnknown() {
	for _, r := range inf.schema.Records {
		for i := range r.Fields {
			resolveUnknownType(&r.Fields[i].Type)
		}
	}
}

func resolveUnknownType(t *Type) {
	switch t.Kind {
	case TypePrimitive:
		if t.Prim == PrimUnknown {
			t.Prim = PrimUntyped
		}
	case TypeOptional, TypeList:
		resolveUnknownType(t.Elem)
	}
}

func unwrap(t Type) Type {
	if t.Kind == TypeOptional {
		return *t.Elem
	}

	return t
}

func isNumeric(p PrimKind) bool {
	return p == PrimInt || p == PrimFloat
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}

	return path + "." + key
}
