package render

import (
	"context"
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// JSON renders the mounted field tree with state, for hosts that draw the
// form themselves.
type JSON struct {
	indent string
}

var _ Renderer = (*JSON)(nil)

// JSONOption configures the JSON renderer.
type JSONOption func(*JSON)

// WithIndent pretty-prints the payload.
func WithIndent(indent string) JSONOption {
	return func(r *JSON) {
		r.indent = indent
	}
}

// NewJSON builds the JSON renderer.
func NewJSON(options ...JSONOption) *JSON {
	r := &JSON{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *JSON) Name() string        { return "json" }
func (r *JSON) ContentType() string { return "application/json" }

type jsonPayload struct {
	Fields []jsonField `json:"fields"`
	Errors []string    `json:"errors,omitempty"`
	Model  any         `json:"model"`
}

type jsonField struct {
	ID          int                    `json:"id"`
	Key         string                 `json:"key,omitempty"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Placeholder string                 `json:"placeholder,omitempty"`
	Required    bool                   `json:"required,omitempty"`
	ReadOnly    bool                   `json:"readonly,omitempty"`
	Visible     bool                   `json:"visible"`
	Value       any                    `json:"value,omitempty"`
	State       jsonState              `json:"state"`
	Messages    []string               `json:"messages,omitempty"`
	Choices     []model.Choice         `json:"choices,omitempty"`
	Validations []model.ValidationRule `json:"validations,omitempty"`
	Items       []jsonField            `json:"items,omitempty"`
	Elements    [][]jsonField          `json:"elements,omitempty"`
}

type jsonState struct {
	Dirty  bool     `json:"dirty"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Render encodes fields, form-level server errors and the model root.
func (r *JSON) Render(ctx context.Context, ctrl *field.Controller, options RenderOptions) ([]byte, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}
	mapping := MapErrorPayload(ctrl, options.Errors)
	options.Errors = mapping.Fields

	fields, err := r.fields(ctx, ctrl.Roots(), options)
	if err != nil {
		return nil, err
	}
	payload := jsonPayload{Fields: fields, Errors: mapping.Form, Model: ctrl.Model().Root()}
	var out []byte
	if r.indent != "" {
		out, err = gojson.MarshalIndent(payload, "", r.indent)
	} else {
		out, err = gojson.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("render: encode json: %w", err)
	}
	return out, nil
}

func (r *JSON) fields(ctx context.Context, fields []*field.Field, opts RenderOptions) ([]jsonField, error) {
	out := make([]jsonField, 0, len(fields))
	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := r.field(ctx, f, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *JSON) field(ctx context.Context, f *field.Field, opts RenderOptions) (jsonField, error) {
	d := f.Descriptor()
	labels := Localize(d, opts)
	visible, err := f.Visible()
	if err != nil {
		return jsonField{}, err
	}
	st := f.State()
	entry := jsonField{
		ID:          f.ID(),
		Type:        d.Type,
		Title:       labels.Title,
		Description: SanitizeDescription(labels.Description),
		Placeholder: labels.Placeholder,
		Required:    d.Required,
		ReadOnly:    d.ReadOnly,
		Visible:     visible,
		State:       jsonState{Dirty: st.Dirty, Valid: st.Valid, Errors: st.Errors},
		Choices:     d.Choices,
		Validations: d.Validations,
	}
	if d.HasKey() && !d.Key.HasWildcard() {
		entry.Key = d.Key.Dotted()
		entry.Messages = append(entry.Messages, opts.Errors[entry.Key]...)
	}
	if !f.IsArray() && d.Kind() != model.KindFieldset && d.Kind() != model.KindSection {
		entry.Value = f.ViewValue()
	}
	if f.HasError() {
		msgs, err := f.ErrorMessages()
		if err != nil {
			return jsonField{}, err
		}
		entry.Messages = append(entry.Messages, msgs...)
	}
	entry.Messages = normalizeMessages(entry.Messages)

	if f.IsArray() {
		for i := 0; i < f.Len(); i++ {
			element, err := r.fields(ctx, f.Element(i), opts)
			if err != nil {
				return jsonField{}, err
			}
			entry.Elements = append(entry.Elements, element)
		}
		return entry, nil
	}
	if entry.Items, err = r.fields(ctx, f.Children(), opts); err != nil {
		return jsonField{}, err
	}
	if len(entry.Items) == 0 {
		entry.Items = nil
	}
	return entry, nil
}
