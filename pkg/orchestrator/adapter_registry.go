package orchestrator

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

// FormatAdapter aliases the schema adapter interface.
type FormatAdapter = schema.Adapter

var (
	// ErrFormatUndetected is returned when no adapter claims a document and
	// no default format is configured.
	ErrFormatUndetected = errors.New("orchestrator: unable to detect schema format")
	errAdapterName      = errors.New("orchestrator: adapter name is required")
)

// AdapterNotFoundError reports a format name no adapter is registered under.
type AdapterNotFoundError struct {
	Name string
}

func (e *AdapterNotFoundError) Error() string {
	return fmt.Sprintf("orchestrator: no adapter for format %q", e.Name)
}

// AmbiguousFormatError reports a document claimed by several adapters.
type AmbiguousFormatError struct {
	Names []string
}

func (e *AmbiguousFormatError) Error() string {
	return fmt.Sprintf("orchestrator: formats %s all match the document, pick one explicitly", strings.Join(e.Names, ", "))
}

// AdapterRegistry maps lower-cased format names to adapters.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]FormatAdapter
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: map[string]FormatAdapter{}}
}

// Register adds adapter under its Name(). Duplicate names fail.
func (r *AdapterRegistry) Register(adapter FormatAdapter) error {
	if adapter == nil {
		return errors.New("orchestrator: adapter is nil")
	}
	name := formatKey(adapter.Name())
	if name == "" {
		return errAdapterName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.adapters[name]; taken {
		return fmt.Errorf("orchestrator: format %q is already registered", name)
	}
	r.adapters[name] = adapter
	return nil
}

// MustRegister panics on registration failure.
func (r *AdapterRegistry) MustRegister(adapter FormatAdapter) {
	if err := r.Register(adapter); err != nil {
		panic(err)
	}
}

// Get looks an adapter up by format name, ignoring case and surrounding
// space. Unknown names fail with *AdapterNotFoundError.
func (r *AdapterRegistry) Get(name string) (FormatAdapter, error) {
	key := formatKey(name)
	if key == "" {
		return nil, errAdapterName
	}
	r.mu.RLock()
	adapter, ok := r.adapters[key]
	r.mu.RUnlock()
	if !ok {
		return nil, &AdapterNotFoundError{Name: key}
	}
	return adapter, nil
}

// List returns the registered format names, sorted.
func (r *AdapterRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.adapters))
}

// Detect picks the single adapter claiming raw. When none does it falls
// back to fallback (if set); several claims are an *AmbiguousFormatError.
func (r *AdapterRegistry) Detect(src schema.Source, raw []byte, fallback string) (FormatAdapter, error) {
	var claims []string
	r.mu.RLock()
	for _, name := range slices.Sorted(maps.Keys(r.adapters)) {
		if r.adapters[name].Detect(src, raw) {
			claims = append(claims, name)
		}
	}
	r.mu.RUnlock()

	switch len(claims) {
	case 0:
		if formatKey(fallback) == "" {
			return nil, ErrFormatUndetected
		}
		return r.Get(fallback)
	case 1:
		return r.Get(claims[0])
	default:
		return nil, &AmbiguousFormatError{Names: claims}
	}
}

func formatKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
