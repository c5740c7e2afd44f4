package schema

import (
	"context"
	"slices"
)

// Schema is the ordered schema tree the walker consumes. Properties keep the
// order they were declared in, and every keyword without a dedicated field is
// kept verbatim in Keywords.
type Schema struct {
	// Types holds the JSON Schema `type`, which may be a single name or a list.
	Types            []string
	Format           string
	Title            string
	Description      string
	Default          any
	Enum             []any
	Const            any
	Required         []string
	Properties       []Property
	Items            *Schema
	OneOf            []*Schema
	AnyOf            []*Schema
	AllOf            []*Schema
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
	MinLength        *int
	MaxLength        *int
	MinItems         *int
	MaxItems         *int
	UniqueItems      bool
	Pattern          string
	ReadOnly         bool
	// Keywords preserves unrecognised keywords (vendor extensions, form
	// hints, annotations) untouched.
	Keywords map[string]any
	// Pointer locates the node inside the resolved document.
	Pointer string
	// Raw is the resolved JSON value this node was built from.
	Raw any
}

// Property is one named member of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Type returns the primary type name: the first non-"null" entry.
func (s *Schema) Type() string {
	if s == nil {
		return ""
	}
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	if len(s.Types) > 0 {
		return s.Types[0]
	}
	return ""
}

// HasType reports whether name appears in the type list.
func (s *Schema) HasType(name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Types, name)
}

// Property returns the named property schema.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	for _, prop := range s.Properties {
		if prop.Name == name {
			return prop.Schema, true
		}
	}
	return nil, false
}

// IsRequired reports whether name is listed in the object's required set.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Required, name)
}

// Keyword returns a preserved keyword value.
func (s *Schema) Keyword(name string) (any, bool) {
	if s == nil || s.Keywords == nil {
		return nil, false
	}
	value, ok := s.Keywords[name]
	return value, ok
}

// Adapter turns a source document into the ordered schema tree.
type Adapter interface {
	Name() string
	Detect(src Source, raw []byte) bool
	Normalize(ctx context.Context, doc Document) (*Schema, error)
}
