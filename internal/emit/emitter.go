// Package emit turns an inferred schema into source text. Records are
// emitted in dependency order so every referenced type is defined before its
// first use; the concrete syntax is produced by pluggable per-language
// renderers.
package emit

import (
	"fmt"
	"sort"

	"github.com/confgen/confgen/internal/schema"
)

// Options configures emission across all renderers.
type Options struct {
	// NamingStyle overrides the renderer's default field naming style.
	// Empty means renderer default.
	NamingStyle schema.Style
}

// Renderer produces source text for one target language from a finished
// schema. order lists arena indices in dependency order: a record appears
// after every record it references.
type Renderer interface {
	// Language returns the renderer's language name (e.g. "python").
	Language() string

	// FileExtension returns the output file extension without the dot.
	FileExtension() string

	// Render produces the complete, self-contained output file.
	Render(s *schema.Schema, order []int, opts Options) ([]byte, error)
}

// Emit renders s with the given renderer in dependency order.
func Emit(s *schema.Schema, r Renderer, opts Options) ([]byte, error) {
	order, err := dependencyOrder(s)
	if err != nil {
		return nil, err
	}

	return r.Render(s, order, opts)
}

// dependencyOrder returns the arena indices topologically sorted so that
// every record precedes the records referencing it, using Kahn's algorithm
// with arena order as the deterministic tie-break. Schemas built from tree
// values are acyclic by construction; a detected cycle is reported as a
// fatal invariant violation rather than silently producing broken output.
func dependencyOrder(s *schema.Schema) ([]int, error) {
	n := len(s.Records)

	deps := make([][]int, n)    // deps[i] = records i references
	dependents := make([][]int, n) // reverse edges
	inDegree := make([]int, n)

	for i, r := range s.Records {
		seen := make(map[int]bool)

		for _, f := range r.Fields {
			collectRefs(f.Type, seen)
		}

		delete(seen, i) // self-reference cannot occur, but keep the sort sane

		for ref := range seen {
			deps[i] = append(deps[i], ref)
			dependents[ref] = append(dependents[ref], i)
			inDegree[i]++
		}
	}

	var queue []int

	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dep := range dependents[node] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				// Insert in sorted position to keep the output deterministic.
				i := sort.SearchInts(queue, dep)
				queue = append(queue, 0)
				copy(queue[i+1:], queue[i:])
				queue[i] = dep
			}
		}
	}

	if len(order) != n {
		return nil, fmt.Errorf("record reference cycle detected: %d of %d records unordered", n-len(order), n)
	}

	return order, nil
}

func collectRefs(t schema.Type, refs map[int]bool) {
	switch t.Kind {
	case schema.TypeOptional, schema.TypeList:
		collectRefs(*t.Elem, refs)
	case schema.TypeRecord:
		refs[t.Ref] = true
	}
}
