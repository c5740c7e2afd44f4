package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/registry"
	"github.com/goliatone/go-schemaform/pkg/render"
	"github.com/goliatone/go-schemaform/pkg/resolver"
	"github.com/goliatone/go-schemaform/pkg/uischema"
	"github.com/goliatone/go-schemaform/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	passPos      int
	err          error
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func mount(t *testing.T, schemaJSON, layoutJSON string, root map[string]any) *field.Controller {
	t.Helper()
	var layout uischema.Layout
	if layoutJSON != "" {
		parsed, err := uischema.Parse([]byte(layoutJSON))
		if err != nil {
			t.Fatalf("parse layout: %v", err)
		}
		layout = parsed
	}
	if root == nil {
		root = map[string]any{}
	}
	form, err := resolver.Resolve(jsonschema.MustParse(schemaJSON), layout,
		resolver.WithRegistryOptions(registry.WithModel(root)))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ctrl, err := field.Mount(form)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return ctrl
}

func newRenderer(t *testing.T, driver PromptDriver, options ...Option) *Renderer {
	t.Helper()
	r, err := New(append([]Option{WithPromptDriver(driver)}, options...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

const profileSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "title": "Name", "minLength": 2},
    "lang": {"type": "string", "title": "Language", "enum": ["go", "rust"]},
    "age":  {"type": "number", "title": "Age", "minimum": 0}
  }
}`

func TestFillPromptsUntilValid(t *testing.T) {
	t.Parallel()
	driver := &stubDriver{
		inputs:    []string{"G", "Go", "abc", "-1", "10"},
		selectIdx: []int{1},
	}
	ctrl := mount(t, profileSchema, "", nil)

	if err := newRenderer(t, driver).Fill(context.Background(), ctrl); err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{"name": "Go", "lang": "rust", "age": 10.0}
	if diff := cmp.Diff(want, ctrl.Model().Root()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{
		"! String is too short (1 chars), minimum 2",
		"! Value is not a valid number",
		"! -1 is less than the allowed minimum of 0",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFillChecksWithValidator(t *testing.T) {
	t.Parallel()
	const schemaJSON = `{"type":"object","required":["name"],"properties":{"name":{"type":"string","minLength":2}}}`
	v, err := validation.New(jsonschema.MustParse(schemaJSON))
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	driver := &stubDriver{inputs: []string{"G", "Go"}}
	ctrl := mount(t, schemaJSON, "", nil)

	if err := newRenderer(t, driver, WithValidator(v)).Fill(context.Background(), ctrl); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"name": "Go"}, ctrl.Model().Root()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"! String is too short (1 chars), minimum 2"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFillChoiceKinds(t *testing.T) {
	t.Parallel()
	const schemaJSON = `{
  "type": "object",
  "properties": {
    "active": {"type": "boolean", "title": "Active"},
    "flags":  {"type": "array", "title": "Flags", "items": {"type": "string", "enum": ["x", "y", "z"]}},
    "lang":   {"type": "string", "enum": ["go", "rust"]}
  }
}`
	driver := &stubDriver{
		confirm:   []bool{true},
		multiIdx:  [][]int{{0, 2}},
		selectIdx: []int{0},
	}
	ctrl := mount(t, schemaJSON, "", nil)

	if err := newRenderer(t, driver).Fill(context.Background(), ctrl); err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{"active": true, "flags": []any{"x", "z"}, "lang": "go"}
	if diff := cmp.Diff(want, ctrl.Model().Root()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestFillDestroysHiddenFields(t *testing.T) {
	t.Parallel()
	const schemaJSON = `{
  "type": "object",
  "properties": {
    "active": {"type": "boolean"},
    "note":   {"type": "string"}
  }
}`
	driver := &stubDriver{confirm: []bool{false}}
	ctrl := mount(t, schemaJSON, `["active", {"key": "note", "condition": "model.active"}]`, map[string]any{"note": "stale"})

	if err := newRenderer(t, driver).Fill(context.Background(), ctrl); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"active": false}, ctrl.Model().Root()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
	if got := len(ctrl.FieldsByKey("note")); got != 0 {
		t.Fatalf("expected note field destroyed, found %d", got)
	}
}

func TestFillAppendsArrayItems(t *testing.T) {
	t.Parallel()
	const schemaJSON = `{"type":"object","properties":{"tags":{"type":"array","title":"Tags","items":{"type":"string"}}}}`
	driver := &stubDriver{
		confirm: []bool{true, true, false},
		inputs:  []string{"a", ""},
	}
	ctrl := mount(t, schemaJSON, "", nil)

	if err := newRenderer(t, driver).Fill(context.Background(), ctrl); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"tags": []any{"a"}}, ctrl.Model().Root()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOutputFormats(t *testing.T) {
	t.Parallel()
	const schemaJSON = `{"type":"object","properties":{"name":{"type":"string"},"count":{"type":"number"}}}`
	cases := map[OutputFormat]string{
		OutputFormatJSON:           `{"count":3,"name":"Ada"}`,
		OutputFormatFormURLEncoded: "count=3&name=Ada",
		OutputFormatPrettyText:     "count=3\nname=Ada\n",
	}
	for format, want := range cases {
		format, want := format, want
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()
			driver := &stubDriver{inputs: []string{"Ada", "3"}}
			ctrl := mount(t, schemaJSON, "", nil)
			out, err := newRenderer(t, driver, WithOutputFormat(format)).Render(context.Background(), ctrl, render.RenderOptions{})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if diff := cmp.Diff(want, string(out)); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderShowsServerErrorsAndTransforms(t *testing.T) {
	t.Parallel()
	const schemaJSON = `{"type":"object","properties":{"name":{"type":"string"}}}`
	driver := &stubDriver{inputs: []string{"Ada"}}
	ctrl := mount(t, schemaJSON, "", nil)
	transform := func(values map[string]any) (map[string]any, error) {
		values["source"] = "tui"
		return values, nil
	}

	out, err := newRenderer(t, driver, WithSubmitTransformer(transform)).Render(context.Background(), ctrl, render.RenderOptions{
		Errors: map[string][]string{"name": {"taken"}, "form": {"try again"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if diff := cmp.Diff(`{"name":"Ada","source":"tui"}`, string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"! try again", "! taken"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFillStopsAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	driver := &stubDriver{inputs: []string{"G"}}
	ctrl := mount(t, profileSchema, "", nil)

	err := newRenderer(t, driver, WithMaxAttempts(1)).Fill(context.Background(), ctrl)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestFillPropagatesDriverErrors(t *testing.T) {
	t.Parallel()
	driver := &stubDriver{err: ErrAborted}
	ctrl := mount(t, profileSchema, "", nil)

	err := newRenderer(t, driver).Fill(context.Background(), ctrl)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestFillRejectsBadInput(t *testing.T) {
	t.Parallel()
	r := newRenderer(t, &stubDriver{})
	if err := r.Fill(context.Background(), nil); !errors.Is(err, ErrNilController) {
		t.Fatalf("expected ErrNilController, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Fill(ctx, mount(t, profileSchema, "", nil)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, err := New(WithOutputFormat("xml")); err == nil {
		t.Fatal("expected unsupported output format error")
	}
}
