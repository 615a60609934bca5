package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confgen/confgen/internal/tree"
)

func TestDedup_IdenticalShapesCollapse(t *testing.T) {
	doc := mustDecode(t, tree.FormatJSON, `{
		"primary": {"host": "a", "port": 1},
		"replica": {"host": "b", "port": 2}
	}`)

	s, err := Infer([]*tree.Value{doc}, "Config")
	require.NoError(t, err)

	// Root plus one shared record for both identically-shaped children.
	require.Len(t, s.Records, 2)

	primary := fieldType(t, s.RootRecord(), "primary")
	replica := fieldType(t, s.RootRecord(), "replica")
	require.Equal(t, TypeRecord, primary.Kind)
	assert.Equal(t, primary.Ref, replica.Ref)

	// First-seen key names the shared record.
	assert.Equal(t, "Primary", s.Records[primary.Ref].Name)
}

func TestDedup_DifferentShapesStayDistinct(t *testing.T) {
	doc := mustDecode(t, tree.FormatJSON, `{
		"primary": {"host": "a", "port": 1},
		"cache": {"host": "a", "ttl": 30}
	}`)

	s, err := Infer([]*tree.Value{doc}, "Config")
	require.NoError(t, err)
	require.Len(t, s.Records, 3)

	primary := fieldType(t, s.RootRecord(), "primary")
	cache := fieldType(t, s.RootRecord(), "cache")
	assert.NotEqual(t, primary.Ref, cache.Ref)
}

func TestDedup_SameKeysDifferentOrderStayDistinct(t *testing.T) {
	doc := mustDecode(t, tree.FormatJSON, `{
		"a": {"x": 1, "y": 2},
		"b": {"y": 2, "x": 1}
	}`)

	s, err := Infer([]*tree.Value{doc}, "Config")
	require.NoError(t, err)

	// Field order is part of the shape signature.
	a := fieldType(t, s.RootRecord(), "a")
	b := fieldType(t, s.RootRecord(), "b")
	assert.NotEqual(t, a.Ref, b.Ref)
}

func TestDedup_NestedSharedShape(t *testing.T) {
	doc := mustDecode(t, tree.FormatJSON, `{
		"servers": [
			{"addr": {"host": "a", "port": 1}},
			{"addr": {"host": "b", "port": 2}}
		],
		"fallback": {"host": "c", "port": 3}
	}`)

	s, err := Infer([]*tree.Value{doc}, "Config")
	require.NoError(t, err)

	servers := fieldType(t, s.RootRecord(), "servers")
	elem := s.Records[servers.Elem.Ref]
	addr := fieldType(t, elem, "addr")
	fallback := fieldType(t, s.RootRecord(), "fallback")

	assert.Equal(t, addr.Ref, fallback.Ref)
}

func TestAssignNames_CollisionsGetNumericSuffix(t *testing.T) {
	doc := mustDecode(t, tree.FormatJSON, `{
		"server": {"host": "a"},
		"nested": {"server": {"port": 1}}
	}`)

	s, err := Infer([]*tree.Value{doc}, "Config")
	require.NoError(t, err)

	names := make(map[string]bool, len(s.Records))
	for _, r := range s.Records {
		assert.False(t, names[r.Name], "duplicate record name %q", r.Name)
		names[r.Name] = true
	}

	assert.True(t, names["Server"])
	assert.True(t, names["Server2"])
}

func TestAssignNames_RootNameWinsOverChildPreference(t *testing.T) {
	doc := mustDecode(t, tree.FormatJSON, `{"config": {"x": 1}}`)

	s, err := Infer([]*tree.Value{doc}, "Config")
	require.NoError(t, err)

	assert.Equal(t, "Config", s.RootRecord().Name)

	child := fieldType(t, s.RootRecord(), "config")
	assert.Equal(t, "Config2", s.Records[child.Ref].Name)
}
