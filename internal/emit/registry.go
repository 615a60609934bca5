package emit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps language names to Renderers, enabling pluggable output
// languages for the generation pipeline.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty renderer registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// DefaultRegistry returns a registry with all built-in renderers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPythonRenderer())
	r.Register(NewGoRenderer())

	return r
}

// Register adds a renderer under its language name. Existing entries for the
// same language are overwritten.
func (r *Registry) Register(renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.renderers[renderer.Language()] = renderer
}

// Renderer returns the renderer for the given language, or an error listing
// the available languages if not found.
func (r *Registry) Renderer(language string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[language]
	if !ok {
		return nil, fmt.Errorf("unknown language %q (available: %s)", language, strings.Join(r.languagesLocked(), ", "))
	}

	return renderer, nil
}

// Languages returns the sorted list of registered language names.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.languagesLocked()
}

func (r *Registry) languagesLocked() []string {
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
