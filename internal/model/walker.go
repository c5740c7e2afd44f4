package model

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// ErrNilSchema is returned when the walker is handed no schema.
var ErrNilSchema = errors.New("model: schema is nil")

// Walker expands schema nodes into descriptors.
type Walker struct {
	opts Options
}

// New creates a Walker with the supplied options.
func New(options Options) *Walker {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if options.TextareaThreshold != 0 {
		opts.TextareaThreshold = options.TextareaThreshold
	}
	opts.Widget = options.Widget
	return &Walker{opts: opts}
}

// Labeler returns the configured labeler.
func (w *Walker) Labeler() func(string) string {
	return w.opts.Labeler
}

// Expand turns node into descriptors rooted at prefix. An object at the root
// expands to its properties directly; anything else yields one descriptor.
// Array items are described once, under a wildcard segment.
func (w *Walker) Expand(node *schema.Schema, prefix keypath.Path) ([]*Descriptor, error) {
	if node == nil {
		return nil, ErrNilSchema
	}
	if len(prefix) == 0 && isObject(node) {
		return w.properties(node, prefix)
	}
	d, err := w.describe(node, prefix, false)
	if err != nil {
		return nil, err
	}
	return []*Descriptor{d}, nil
}

func (w *Walker) properties(node *schema.Schema, prefix keypath.Path) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(node.Properties))
	for _, prop := range node.Properties {
		d, err := w.describe(prop.Schema, prefix.Append(keypath.Name(prop.Name)), node.IsRequired(prop.Name))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (w *Walker) describe(node *schema.Schema, key keypath.Path, required bool) (*Descriptor, error) {
	if node == nil {
		return nil, fmt.Errorf("model: %s: %w", key, ErrNilSchema)
	}
	d := &Descriptor{
		Key:         key.Clone(),
		Title:       node.Title,
		Description: node.Description,
		Schema:      node,
		Required:    required,
		ReadOnly:    node.ReadOnly,
	}

	switch {
	case isObject(node):
		d.Type = string(KindFieldset)
		items, err := w.properties(node, key)
		if err != nil {
			return nil, err
		}
		d.Items = items
	case isArray(node):
		if err := w.describeArray(d, node, key); err != nil {
			return nil, err
		}
	default:
		d.Type = string(w.leafKind(node))
		d.Choices = choices(node.Enum)
	}

	if w.opts.Widget != nil {
		if widget, ok := w.opts.Widget(d); ok && widget != "" {
			d.Type = widget
		}
	}
	applyValidations(d, node)
	if err := applyHints(d, ParseHints(node.Keywords)); err != nil {
		return nil, err
	}
	return d, nil
}

func (w *Walker) describeArray(d *Descriptor, node *schema.Schema, key keypath.Path) error {
	item := node.Items
	if item != nil && len(item.Enum) > 0 {
		d.Type = string(KindCheckboxes)
		d.Choices = choices(item.Enum)
		return nil
	}

	d.Type = string(KindArray)
	if item == nil {
		item = &schema.Schema{Pointer: node.Pointer + "/items"}
	}
	itemKey := key.Append(keypath.Wildcard())
	if isObject(item) {
		items, err := w.properties(item, itemKey)
		if err != nil {
			return err
		}
		d.Items = items
		return nil
	}
	child, err := w.describe(item, itemKey, false)
	if err != nil {
		return err
	}
	d.Items = []*Descriptor{child}
	return nil
}

func (w *Walker) leafKind(node *schema.Schema) Kind {
	if len(node.Enum) > 0 {
		return KindSelect
	}
	switch node.Type() {
	case "boolean":
		return KindCheckbox
	case "number", "integer":
		return KindNumber
	case "string":
		if kind, ok := formatKind(node.Format); ok {
			return kind
		}
		if w.opts.TextareaThreshold > 0 && node.MaxLength != nil && *node.MaxLength > w.opts.TextareaThreshold {
			return KindTextarea
		}
		return KindText
	default:
		return KindGeneric
	}
}

func formatKind(format string) (Kind, bool) {
	switch format {
	case "date":
		return KindDate, true
	case "date-time":
		return KindDateTime, true
	case "email", "idn-email":
		return KindEmail, true
	case "uri", "iri", "uri-reference", "iri-reference", "url":
		return KindURL, true
	case "password":
		return KindPassword, true
	default:
		return "", false
	}
}

func isObject(node *schema.Schema) bool {
	if node.Type() == "object" {
		return true
	}
	return len(node.Types) == 0 && len(node.Properties) > 0
}

func isArray(node *schema.Schema) bool {
	if node.Type() == "array" {
		return true
	}
	return len(node.Types) == 0 && node.Items != nil
}

func choices(enum []any) []Choice {
	if len(enum) == 0 {
		return nil
	}
	out := make([]Choice, 0, len(enum))
	for _, value := range enum {
		out = append(out, Choice{Name: choiceName(value), Value: value})
	}
	return out
}

func choiceName(value any) string {
	if value == nil {
		return ""
	}
	if text, ok := CanonicalizeHintValue(value); ok {
		return text
	}
	return fmt.Sprint(value)
}

func applyHints(d *Descriptor, hints map[string]string) error {
	if len(hints) == 0 {
		return nil
	}
	d.Hints = hints
	if widget := hints["widget"]; widget != "" {
		d.Type = widget
	}
	if placeholder := hints["placeholder"]; placeholder != "" {
		d.Placeholder = placeholder
	}
	if label := hints["label"]; label != "" {
		d.Title = label
	}
	if condition := hints["condition"]; condition != "" {
		d.Condition = condition
	}
	if hintBool(hints, "notitle") || hintBool(hints, "hideLabel") {
		d.NoTitle = true
	}
	if hintBool(hints, "readonly") {
		d.ReadOnly = true
	}
	if raw, ok := hints["destroyStrategy"]; ok {
		strategy := DestroyStrategy(raw)
		if !strategy.Valid() {
			return fmt.Errorf("model: %s: unknown destroy strategy %q", d.Key, raw)
		}
		d.DestroyStrategy = strategy
	}
	return nil
}
