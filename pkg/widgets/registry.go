package widgets

import (
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// Built-in widget identifiers. They are decorator types from the closed
// kind set, so every resolved widget renders with an existing decorator.
const (
	WidgetHidden   = string(model.KindHidden)
	WidgetRadios   = string(model.KindRadios)
	WidgetTextarea = string(model.KindTextarea)
	WidgetPassword = string(model.KindPassword)
)

// RadiosThreshold is the largest choice count the built-in rules turn from
// a select into radios.
const RadiosThreshold = 3

// Matcher decides whether a widget applies to a freshly described node.
type Matcher func(d *model.Descriptor) bool

type rule struct {
	name     string
	priority int
	match    Matcher
}

// Registry picks decorator types for schema nodes based on explicit hints or
// registered matchers. Higher priority wins; ties fall back to registration
// order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule // kept in resolution order
}

var _ model.WidgetResolver = (*Registry)(nil)

// NewRegistry constructs a registry with the built-in rules registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// NewEmptyRegistry constructs a registry without rules.
func NewEmptyRegistry() *Registry {
	return &Registry{}
}

// Register adds a matcher under name. Registering a name again adds another
// rule rather than replacing the first.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	name = strings.TrimSpace(name)
	if r == nil || matcher == nil || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Insert after every rule of equal or higher priority.
	at := len(r.rules)
	for i, existing := range r.rules {
		if existing.priority < priority {
			at = i
			break
		}
	}
	r.rules = slices.Insert(r.rules, at, rule{name: name, priority: priority, match: matcher})
}

// Names lists the registered widget names in resolution order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.rules))
	for i, entry := range r.rules {
		out[i] = entry.name
	}
	return out
}

// Resolve returns the widget for d. An explicit widget hint is honoured
// before matcher evaluation.
func (r *Registry) Resolve(d *model.Descriptor) (string, bool) {
	if d == nil {
		return "", false
	}
	if explicit := strings.TrimSpace(d.Hints["widget"]); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.rules {
		if entry.match(d) {
			return entry.name, true
		}
	}
	return "", false
}

func (r *Registry) registerBuiltins() {
	// A const value cannot be edited; it still travels with the model.
	r.Register(WidgetHidden, 90, func(d *model.Descriptor) bool {
		return d.Schema != nil && d.Schema.Const != nil && d.Kind() != model.KindFieldset && d.Kind() != model.KindArray
	})

	r.Register(WidgetRadios, 70, func(d *model.Descriptor) bool {
		return d.Kind() == model.KindSelect && len(d.Choices) > 0 && len(d.Choices) <= RadiosThreshold
	})

	r.Register(WidgetTextarea, 60, func(d *model.Descriptor) bool {
		if d.Kind() != model.KindText || d.Schema == nil {
			return false
		}
		media, _ := d.Schema.Keyword("contentMediaType")
		text, _ := media.(string)
		return strings.HasPrefix(strings.ToLower(text), "text/")
	})

	r.Register(WidgetPassword, 50, func(d *model.Descriptor) bool {
		if d.Kind() != model.KindText {
			return false
		}
		name := strings.ToLower(lastName(d.Key))
		return strings.Contains(name, "password") || strings.Contains(name, "secret")
	})
}

func lastName(key keypath.Path) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i].Kind == keypath.SegmentName {
			return key[i].Name
		}
	}
	return ""
}
