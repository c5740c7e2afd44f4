package uischema

import (
	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// WildcardToken is the layout entry standing for all unreferenced fields.
const WildcardToken = "*"

// EntryKind tags a layout entry.
type EntryKind uint8

const (
	EntryKey EntryKind = iota
	EntryInline
	EntryWildcard
)

func (k EntryKind) String() string {
	switch k {
	case EntryKey:
		return "key"
	case EntryInline:
		return "inline"
	case EntryWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Entry is one element of a layout.
type Entry struct {
	Kind EntryKind
	// Key is set for EntryKey and, optionally, for EntryInline.
	Key    keypath.Path
	Inline *Inline
}

// Layout is an ordered form layout.
type Layout []Entry

// DefaultLayout is the layout used when none is supplied.
func DefaultLayout() Layout {
	return Layout{Wildcard()}
}

// Wildcard returns the "*" entry.
func Wildcard() Entry {
	return Entry{Kind: EntryWildcard}
}

// KeyRef returns an entry referencing a schema-derived field.
func KeyRef(key keypath.Path) Entry {
	return Entry{Kind: EntryKey, Key: key.Clone()}
}

// InlineEntry wraps a custom descriptor.
func InlineEntry(inline *Inline) Entry {
	entry := Entry{Kind: EntryInline, Inline: inline}
	if inline != nil {
		entry.Key = inline.Key.Clone()
	}
	return entry
}

// Inline is a layout-authored descriptor. Nil pointers mean "not specified",
// so merging over a schema-derived descriptor only overrides what was set.
type Inline struct {
	Key               keypath.Path
	Type              *string
	Title             *string
	Description       *string
	Placeholder       *string
	NoTitle           *bool
	ReadOnly          *bool
	Required          *bool
	Condition         *string
	DestroyStrategy   *model.DestroyStrategy
	ValidationMessage *model.ValidationMessages
	OnClick           model.Action
	Choices           []model.Choice
	// Items holds nested layout entries for fieldsets, sections and arrays.
	// Nil leaves schema-derived children in place.
	Items Layout
	Extra map[string]any
}

// HasKey reports whether the inline descriptor binds to model data.
func (in *Inline) HasKey() bool {
	return in != nil && len(in.Key) > 0
}

// Apply merges the specified fields of in over d.
func (in *Inline) Apply(d *model.Descriptor) {
	if in == nil || d == nil {
		return
	}
	if in.Type != nil {
		d.Type = *in.Type
	}
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Placeholder != nil {
		d.Placeholder = *in.Placeholder
	}
	if in.NoTitle != nil {
		d.NoTitle = *in.NoTitle
	}
	if in.ReadOnly != nil {
		d.ReadOnly = *in.ReadOnly
	}
	if in.Required != nil {
		d.Required = *in.Required
	}
	if in.Condition != nil {
		d.Condition = *in.Condition
	}
	if in.DestroyStrategy != nil {
		d.DestroyStrategy = *in.DestroyStrategy
	}
	if in.ValidationMessage != nil {
		d.ValidationMessage = in.ValidationMessage.Clone()
	}
	if in.OnClick != nil {
		d.OnClick = in.OnClick
	}
	if in.Choices != nil {
		d.Choices = append([]model.Choice(nil), in.Choices...)
	}
	if len(in.Extra) > 0 {
		if d.Extra == nil {
			d.Extra = make(map[string]any, len(in.Extra))
		}
		for k, v := range in.Extra {
			d.Extra[k] = v
		}
	}
}

// Descriptor builds a standalone descriptor from the inline definition.
func (in *Inline) Descriptor() *model.Descriptor {
	d := &model.Descriptor{Key: in.Key.Clone(), Type: string(model.KindGeneric)}
	in.Apply(d)
	return d
}

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
