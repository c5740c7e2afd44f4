// Package registry maps resolved field ids to their descriptors for one form
// instance. It also owns the bound model root and the parent-scope evaluator
// fields fall back to when an expression must run outside their own scope.
//
// A Registry is populated once by the resolver and is not safe for
// concurrent use; the field controller drives it from a single goroutine.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// ErrNoParentScope is returned by EvaluateInParentScope when no evaluator was
// configured.
var ErrNoParentScope = errors.New("registry: no parent scope configured")

// FieldNotFoundError reports a lookup by an unknown or retired id.
type FieldNotFoundError struct {
	ID      int
	Retired bool
}

func (e FieldNotFoundError) Error() string {
	if e.Retired {
		return fmt.Sprintf("registry: field %d has been destroyed", e.ID)
	}
	return fmt.Sprintf("registry: field %d not found", e.ID)
}

// ParentScope evaluates an expression in the scope enclosing the form.
type ParentScope func(expression string, locals map[string]any) (any, error)

// Option configures a Registry.
type Option func(*Registry)

// WithModel sets the bound model root.
func WithModel(root any) Option {
	return func(r *Registry) {
		r.model = keypath.NewTree(root)
	}
}

// WithParentScope installs the parent-scope evaluator.
func WithParentScope(scope ParentScope) Option {
	return func(r *Registry) {
		r.parent = scope
	}
}

// Registry is the id to descriptor table of one resolved form.
type Registry struct {
	fields  map[int]*model.Descriptor
	ids     []int
	retired map[int]struct{}
	model   *keypath.Tree
	parent  ParentScope
}

// New indexes descriptors and their nested items by id. Ids must be positive
// and unique.
func New(descriptors []*model.Descriptor, options ...Option) (*Registry, error) {
	r := &Registry{
		fields:  make(map[int]*model.Descriptor),
		retired: make(map[int]struct{}),
	}
	var err error
	model.Walk(descriptors, func(d *model.Descriptor) bool {
		if err != nil {
			return false
		}
		if d.ID <= 0 {
			err = fmt.Errorf("registry: descriptor %q has no id", d.Key)
			return false
		}
		if _, exists := r.fields[d.ID]; exists {
			err = fmt.Errorf("registry: duplicate field id %d", d.ID)
			return false
		}
		r.fields[d.ID] = d
		r.ids = append(r.ids, d.ID)
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Ints(r.ids)

	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.model == nil {
		r.model = keypath.NewTree(nil)
	}
	return r, nil
}

// Lookup returns the descriptor registered under id.
func (r *Registry) Lookup(id int) (*model.Descriptor, error) {
	if _, gone := r.retired[id]; gone {
		return nil, FieldNotFoundError{ID: id, Retired: true}
	}
	d, ok := r.fields[id]
	if !ok {
		return nil, FieldNotFoundError{ID: id}
	}
	return d, nil
}

// Has reports whether id is registered and not retired.
func (r *Registry) Has(id int) bool {
	_, err := r.Lookup(id)
	return err == nil
}

// All returns live descriptors in id order.
func (r *Registry) All() []*model.Descriptor {
	out := make([]*model.Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		if _, gone := r.retired[id]; gone {
			continue
		}
		out = append(out, r.fields[id])
	}
	return out
}

// Len returns the number of live descriptors.
func (r *Registry) Len() int {
	return len(r.fields) - len(r.retired)
}

// Retire removes id from lookups for good. Ids are never reused.
func (r *Registry) Retire(id int) error {
	if _, err := r.Lookup(id); err != nil {
		return err
	}
	r.retired[id] = struct{}{}
	return nil
}

// SetValidationMessage records msg for code on the descriptor. It is the only
// descriptor mutation the registry allows after resolution.
func (r *Registry) SetValidationMessage(id int, code, msg string) error {
	d, err := r.Lookup(id)
	if err != nil {
		return err
	}
	d.ValidationMessage.Set(code, msg)
	return nil
}

// Model returns the bound model tree.
func (r *Registry) Model() *keypath.Tree {
	return r.model
}

// HasParentScope reports whether a parent-scope evaluator is configured.
func (r *Registry) HasParentScope() bool {
	return r.parent != nil
}

// EvaluateInParentScope runs expression in the enclosing scope.
func (r *Registry) EvaluateInParentScope(expression string, locals map[string]any) (any, error) {
	if r.parent == nil {
		return nil, ErrNoParentScope
	}
	return r.parent(expression, locals)
}
