package render

import (
	"errors"
	"fmt"
	"maps"
	"mime"
	"slices"
	"strings"
	"sync"
)

// RendererNotFoundError reports a lookup nothing is registered under.
type RendererNotFoundError struct {
	Name string
}

func (e *RendererNotFoundError) Error() string {
	return fmt.Sprintf("render: renderer %q not found", e.Name)
}

// Registry stores renderers by lower-cased name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Renderer)}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds renderer under its Name. Names are unique.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: renderer is required")
	}
	name := normalizeName(renderer.Name())
	if name == "" {
		return errors.New("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.byName[name] = renderer
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get looks a renderer up by name, or by media type ("text/html",
// "application/json; charset=utf-8") when no name matches. Media type ties
// go to the first name in sorted order.
func (r *Registry) Get(name string) (Renderer, error) {
	key := normalizeName(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.byName[key]; ok {
		return renderer, nil
	}
	if want := mediaType(key); strings.Contains(want, "/") {
		for _, candidate := range slices.Sorted(maps.Keys(r.byName)) {
			if mediaType(r.byName[candidate].ContentType()) == want {
				return r.byName[candidate], nil
			}
		}
	}
	return nil, &RendererNotFoundError{Name: name}
}

func mediaType(value string) string {
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return parsed
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byName))
}

// Has reports whether name resolves through Get.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}
