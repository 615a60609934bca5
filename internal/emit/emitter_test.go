package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confgen/confgen/internal/schema"
	"github.com/confgen/confgen/internal/tree"
)

func inferJSON(t *testing.T, data string) *schema.Schema {
	t.Helper()

	v, err := tree.Decode("test.json", []byte(data), tree.FormatJSON)
	require.NoError(t, err)

	s, err := schema.Infer([]*tree.Value{v}, "Config")
	require.NoError(t, err)

	return s
}

func TestDependencyOrder_ReferencedBeforeReferencing(t *testing.T) {
	s := inferJSON(t, `{
		"outer": {"inner": {"leaf": {"x": 1}}}
	}`)

	order, err := dependencyOrder(s)
	require.NoError(t, err)
	require.Len(t, order, len(s.Records))

	pos := make(map[int]int, len(order))
	for i, ref := range order {
		pos[ref] = i
	}

	for i, r := range s.Records {
		for _, f := range r.Fields {
			refs := make(map[int]bool)
			collectRefs(f.Type, refs)

			for ref := range refs {
				assert.Less(t, pos[ref], pos[i],
					"record %s must be emitted before %s", s.Records[ref].Name, r.Name)
			}
		}
	}

	// The root depends on everything, so it comes last here.
	assert.Equal(t, s.Root, order[len(order)-1])
}

func TestDependencyOrder_SingleRecord(t *testing.T) {
	s := inferJSON(t, `{"a": 1}`)

	order, err := dependencyOrder(s)
	require.NoError(t, err)
	assert.Equal(t, []int{s.Root}, order)
}

func TestDependencyOrder_Deterministic(t *testing.T) {
	data := `{
		"a": {"x": 1},
		"b": {"y": "s"},
		"c": {"z": true}
	}`

	first, err := dependencyOrder(inferJSON(t, data))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := dependencyOrder(inferJSON(t, data))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDependencyOrder_CycleDetected(t *testing.T) {
	// Hand-built arena with a two-record cycle, which tree-derived schemas
	// cannot produce.
	s := &schema.Schema{
		Records: []*schema.Record{
			{Name: "A", Fields: []schema.Field{{Key: "b", Type: schema.RecordRef(1)}}},
			{Name: "B", Fields: []schema.Field{{Key: "a", Type: schema.RecordRef(0)}}},
		},
	}

	_, err := dependencyOrder(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestEmit_UsesRendererOutput(t *testing.T) {
	s := inferJSON(t, `{"name": "demo"}`)

	out, err := Emit(s, NewPythonRenderer(), Options{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "class Config:")
}
