// Package resolver turns a schema and an optional layout into the ordered
// descriptor tree of one form, plus the registry fields use to find their
// descriptor at render time.
package resolver

import (
	"fmt"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/registry"
	"github.com/goliatone/go-schemaform/pkg/schema"
	"github.com/goliatone/go-schemaform/pkg/uischema"
)

// Form is the result of one resolution pass. Descriptors and Registry live
// and die together.
type Form struct {
	Schema      *schema.Schema
	Descriptors []*model.Descriptor
	Registry    *registry.Registry
	Options     FormOptions
}

// Resolve expands s, merges layout over the schema-derived defaults, fills
// missing titles, runs decorators and assigns sequential ids in depth-first
// order. A nil or empty layout means the wildcard alone.
func Resolve(s *schema.Schema, layout uischema.Layout, options ...Option) (*Form, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	cfg := newConfig(options)

	defaults, err := cfg.walker.Expand(s, nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: expand schema: %w", err)
	}
	if len(layout) == 0 {
		layout = uischema.DefaultLayout()
	}

	m := newMerger(defaults, layout)
	descriptors, err := m.entries(layout, defaults)
	if err != nil {
		return nil, err
	}

	prettify(descriptors, cfg.labeler)

	for _, dec := range cfg.decorators {
		if dec == nil {
			continue
		}
		if err := dec.Decorate(descriptors); err != nil {
			return nil, fmt.Errorf("resolver: decorate: %w", err)
		}
	}

	count := assignIDs(descriptors)
	reg, err := registry.New(descriptors, cfg.registryOpts...)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	cfg.logger.Debug("form resolved",
		"fields", count,
		"top_level", len(descriptors),
		"layout_entries", len(layout),
	)

	return &Form{
		Schema:      s,
		Descriptors: descriptors,
		Registry:    reg,
		Options:     cfg.form,
	}, nil
}

type merger struct {
	index      map[string]*model.Descriptor
	referenced map[string]struct{}
}

func newMerger(defaults []*model.Descriptor, layout uischema.Layout) *merger {
	m := &merger{
		index:      make(map[string]*model.Descriptor),
		referenced: make(map[string]struct{}),
	}
	model.Walk(defaults, func(d *model.Descriptor) bool {
		if d.HasKey() {
			if _, exists := m.index[d.Key.String()]; !exists {
				m.index[d.Key.String()] = d
			}
		}
		return true
	})
	m.collectReferences(layout)
	return m
}

func (m *merger) collectReferences(layout uischema.Layout) {
	for _, entry := range layout {
		if len(entry.Key) > 0 {
			m.referenced[entry.Key.String()] = struct{}{}
		}
		if entry.Inline != nil {
			m.collectReferences(entry.Inline.Items)
		}
	}
}

// entries resolves one layout level. siblings are the schema-derived
// descriptors a wildcard at this level stands for.
func (m *merger) entries(layout uischema.Layout, siblings []*model.Descriptor) ([]*model.Descriptor, error) {
	out := make([]*model.Descriptor, 0, len(layout))
	wildcardDone := false
	for _, entry := range layout {
		switch entry.Kind {
		case uischema.EntryWildcard:
			if wildcardDone {
				continue
			}
			wildcardDone = true
			for _, sibling := range siblings {
				if d := m.unreferenced(sibling); d != nil {
					out = append(out, d)
				}
			}
		case uischema.EntryKey:
			d, ok := m.lookup(entry.Key)
			if !ok {
				return nil, SchemaReferenceError{Key: entry.Key.Clone()}
			}
			out = append(out, d)
		case uischema.EntryInline:
			d, err := m.inline(entry.Inline)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		default:
			return nil, fmt.Errorf("resolver: unknown layout entry kind %d", entry.Kind)
		}
	}
	return out, nil
}

// unreferenced clones d without the parts the layout names elsewhere. It
// returns nil when d is referenced itself, or when every child of a
// container is.
func (m *merger) unreferenced(d *model.Descriptor) *model.Descriptor {
	if _, taken := m.referenced[d.Key.String()]; taken {
		return nil
	}
	clone := d.Clone()
	if len(d.Items) == 0 {
		return clone
	}
	kept := clone.Items[:0]
	for _, item := range d.Items {
		if child := m.unreferenced(item); child != nil {
			kept = append(kept, child)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	clone.Items = kept
	return clone
}

func (m *merger) inline(in *uischema.Inline) (*model.Descriptor, error) {
	if in == nil {
		return nil, fmt.Errorf("resolver: inline layout entry is nil")
	}

	var d *model.Descriptor
	var children []*model.Descriptor
	if base, ok := m.lookup(in.Key); in.HasKey() && ok {
		d = base
		children = base.Items
		in.Apply(d)
	} else {
		d = in.Descriptor()
	}

	if in.Items != nil {
		items, err := m.entries(in.Items, children)
		if err != nil {
			return nil, err
		}
		d.Items = items
	}
	return d, nil
}

// lookup returns an independent copy of the schema-derived descriptor for
// key. Keys with concrete indices match the wildcard template and are bound
// to those indices.
func (m *merger) lookup(key keypath.Path) (*model.Descriptor, bool) {
	if len(key) == 0 {
		return nil, false
	}
	if d, ok := m.index[key.String()]; ok {
		return d.Clone(), true
	}

	template := make(keypath.Path, len(key))
	generalized := false
	for i, seg := range key {
		if seg.Kind == keypath.SegmentIndex {
			template[i] = keypath.Wildcard()
			generalized = true
			continue
		}
		template[i] = seg
	}
	if !generalized {
		return nil, false
	}
	d, ok := m.index[template.String()]
	if !ok {
		return nil, false
	}
	clone := d.Clone()
	rebind(clone, len(key), key)
	return clone, true
}

func rebind(d *model.Descriptor, prefixLen int, prefix keypath.Path) {
	if len(d.Key) >= prefixLen {
		d.Key = prefix.Clone().Append(d.Key[prefixLen:]...)
	}
	for _, item := range d.Items {
		rebind(item, prefixLen, prefix)
	}
}

func prettify(descriptors []*model.Descriptor, labeler func(string) string) {
	model.Walk(descriptors, func(d *model.Descriptor) bool {
		if d.Title == "" && d.HasKey() {
			d.Title = model.TitleForKey(d.Key, labeler)
		}
		return true
	})
}

// assignIDs numbers descriptors from 1 in depth-first pre-order and links
// children to their parent. It returns the number of descriptors.
func assignIDs(descriptors []*model.Descriptor) int {
	next := 0
	var visit func(items []*model.Descriptor, parent int)
	visit = func(items []*model.Descriptor, parent int) {
		for _, d := range items {
			if d == nil {
				continue
			}
			next++
			d.ID = next
			d.ParentID = parent
			visit(d.Items, d.ID)
		}
	}
	visit(descriptors, 0)
	return next
}
