package field

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/registry"
	"github.com/goliatone/go-schemaform/pkg/resolver"
	"github.com/goliatone/go-schemaform/pkg/uischema"
)

const nestedSchema = `{
  "type": "object",
  "properties": {
    "a": {
      "type": "object",
      "properties": {
        "b": {"type": "string"}
      }
    }
  }
}`

func mountForm(t *testing.T, schemaJSON, layoutJSON string, root any, resolveOpts []resolver.Option, opts ...Option) *Controller {
	t.Helper()
	var layout uischema.Layout
	if layoutJSON != "" {
		parsed, err := uischema.Parse([]byte(layoutJSON))
		if err != nil {
			t.Fatalf("parse layout: %v", err)
		}
		layout = parsed
	}
	resolveOpts = append(resolveOpts, resolver.WithRegistryOptions(registry.WithModel(root)))
	form, err := resolver.Resolve(jsonschema.MustParse(schemaJSON), layout, resolveOpts...)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ctrl, err := Mount(form, opts...)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return ctrl
}

func fieldByKey(t *testing.T, ctrl *Controller, key string) *Field {
	t.Helper()
	fields := ctrl.FieldsByKey(key)
	if len(fields) == 0 {
		t.Fatalf("no field bound to %q", key)
	}
	return fields[0]
}

func TestDestroyStrategies(t *testing.T) {
	t.Parallel()

	cases := []struct {
		strategy model.DestroyStrategy
		want     map[string]any
	}{
		{model.DestroyRemove, map[string]any{"a": map[string]any{}}},
		{model.DestroyEmpty, map[string]any{"a": map[string]any{"b": ""}}},
		{model.DestroyNull, map[string]any{"a": map[string]any{"b": nil}}},
		{model.DestroyRetain, map[string]any{"a": map[string]any{"b": "hello"}}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.strategy), func(t *testing.T) {
			t.Parallel()
			root := map[string]any{"a": map[string]any{"b": "hello"}}
			ctrl := mountForm(t, nestedSchema, "", root,
				[]resolver.Option{resolver.WithFormOptions(resolver.FormOptions{DestroyStrategy: tc.strategy})})

			b := fieldByKey(t, ctrl, "a.b")
			if err := ctrl.Destroy(b.ID()); err != nil {
				t.Fatalf("destroy: %v", err)
			}
			if diff := cmp.Diff(tc.want, ctrl.Model().Root()); diff != "" {
				t.Fatalf("model mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldStrategyBeatsFormStrategy(t *testing.T) {
	t.Parallel()

	root := map[string]any{"a": map[string]any{"b": "hello"}}
	ctrl := mountForm(t, nestedSchema, `[{"key": "a", "items": [{"key": "a.b", "destroyStrategy": "retain"}]}]`, root,
		[]resolver.Option{resolver.WithFormOptions(resolver.FormOptions{DestroyStrategy: model.DestroyNull})})

	if err := ctrl.Destroy(fieldByKey(t, ctrl, "a.b").ID()); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": "hello"}}, ctrl.Model().Root()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorThenClearLeavesFieldValidWithOneRevalidate(t *testing.T) {
	t.Parallel()

	var notices []Notice
	ctrl := mountForm(t, nestedSchema, "", map[string]any{}, nil, WithObserver(func(n Notice) {
		notices = append(notices, n)
	}))
	b := fieldByKey(t, ctrl, "a.b")

	if n := ctrl.RaiseError(Invalid("a.b", "required", "Needed")); n != 1 {
		t.Fatalf("expected one field to apply the error, got %d", n)
	}
	if st := b.State(); st.Valid || st.Pristine || !st.Dirty {
		t.Fatalf("expected dirty invalid state, got %+v", st)
	}
	if msg, _ := b.Descriptor().ValidationMessage.Lookup("required"); msg != "Needed" {
		t.Fatalf("expected recorded message, got %q", msg)
	}

	ctrl.RaiseError(Valid("a.b", "required"))
	want := State{Dirty: true, Pristine: false, Valid: true, Errors: []string{}}
	if diff := cmp.Diff(want, b.State()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}

	revalidations := 0
	for _, n := range notices {
		if n.Kind == NoticeRevalidate {
			revalidations++
		}
	}
	if revalidations != 1 {
		t.Fatalf("expected exactly one revalidate broadcast, got %d", revalidations)
	}
	if got := b.Value().(*BoundValue).Revalidations(); got != 1 {
		t.Fatalf("expected binding revalidated once, got %d", got)
	}
}

func TestRevalidateReachesSubtree(t *testing.T) {
	t.Parallel()

	var reached int
	ctrl := mountForm(t, nestedSchema, "", map[string]any{}, nil, WithObserver(func(n Notice) {
		if n.Kind == NoticeRevalidate {
			reached = n.Reached
		}
	}))

	ctrl.RaiseError(Valid("a", "custom"))
	if reached != 2 {
		t.Fatalf("expected broadcast to reach a and a.b, got %d", reached)
	}
	if got := fieldByKey(t, ctrl, "a.b").Value().(*BoundValue).Revalidations(); got != 1 {
		t.Fatalf("expected child revalidated, got %d", got)
	}
}

func TestBooleanMessageShorthand(t *testing.T) {
	t.Parallel()

	ctrl := mountForm(t, nestedSchema, "", map[string]any{}, nil)
	b := fieldByKey(t, ctrl, "a.b")

	ctrl.RaiseError(ErrorEvent{Key: "a.b", Code: "pattern", Message: false})
	if b.State().Valid {
		t.Fatalf("expected invalid after boolean false message")
	}
	if !b.Descriptor().ValidationMessage.IsZero() {
		t.Fatalf("boolean message must not be recorded")
	}

	ctrl.RaiseError(ErrorEvent{Key: "a.b", Code: "pattern", Message: true, Validity: false})
	if !b.State().Valid {
		t.Fatalf("expected boolean true message to win over validity")
	}

	ctrl.RaiseError(ErrorEvent{Key: "a.b", Code: "pattern", Validity: "yes"})
	if b.State().Valid {
		t.Fatalf("non-boolean validity must count as invalid")
	}
}

func TestEventsNeedCodeAndValueController(t *testing.T) {
	t.Parallel()

	ctrl := mountForm(t, nestedSchema, "", map[string]any{}, nil, WithoutValueControllers())
	b := fieldByKey(t, ctrl, "a.b")

	if n := ctrl.RaiseError(Invalid("a.b", "required", "")); n != 0 {
		t.Fatalf("unbound field must ignore events, applied %d", n)
	}
	if b.State().Dirty {
		t.Fatalf("ignored event must not dirty the field")
	}

	b.Bind(NewBoundValue(ctrl.Model(), b.Descriptor().Key))
	if n := ctrl.RaiseError(Invalid("a.b", "", "")); n != 0 {
		t.Fatalf("event without code must be ignored, applied %d", n)
	}
	if n := ctrl.RaiseError(Invalid("a.b", "required", "")); n != 1 {
		t.Fatalf("expected bound field to apply event, applied %d", n)
	}
}

func TestStaleIDRejection(t *testing.T) {
	t.Parallel()

	root := map[string]any{"a": map[string]any{"b": "hello"}}
	ctrl := mountForm(t, nestedSchema, "", root, nil)
	b := fieldByKey(t, ctrl, "a.b")
	id := b.ID()

	if err := ctrl.Destroy(id); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	var notFound registry.FieldNotFoundError
	if _, err := ctrl.Registry().Lookup(id); !errors.As(err, &notFound) || !notFound.Retired {
		t.Fatalf("expected retired lookup error, got %v", err)
	}
	if _, err := ctrl.Field(id); !errors.As(err, &notFound) {
		t.Fatalf("expected FieldNotFoundError from controller, got %v", err)
	}
	if n := ctrl.RaiseError(Invalid("a.b", "required", "late")); n != 0 {
		t.Fatalf("event for destroyed field must be a no-op, applied %d", n)
	}
	if err := ctrl.Destroy(id); !errors.As(err, &notFound) {
		t.Fatalf("second destroy must fail, got %v", err)
	}
}

func TestDuplicateKeysKeepIndependentFields(t *testing.T) {
	t.Parallel()

	ctrl := mountForm(t, nestedSchema, `["a.b", "a.b"]`, map[string]any{"a": map[string]any{"b": "x"}}, nil)
	fields := ctrl.FieldsByKey("a.b")
	if len(fields) != 2 || fields[0].ID() == fields[1].ID() {
		t.Fatalf("expected two fields with distinct ids, got %d", len(fields))
	}

	if n := ctrl.RaiseError(Invalid("a.b", "required", "")); n != 2 {
		t.Fatalf("expected both duplicates to apply the event, got %d", n)
	}
	if err := ctrl.Destroy(fields[0].ID()); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if n := ctrl.RaiseError(Valid("a.b", "required")); n != 1 {
		t.Fatalf("expected remaining duplicate to apply the event, got %d", n)
	}
	if !fields[1].State().Valid {
		t.Fatalf("expected remaining duplicate to be valid")
	}
}

func TestTeardownLeavesModelUntouched(t *testing.T) {
	t.Parallel()

	root := map[string]any{"a": map[string]any{"b": "hello"}}
	ctrl := mountForm(t, nestedSchema, "", root, nil)
	ctrl.Teardown()

	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": "hello"}}, ctrl.Model().Root()); diff != "" {
		t.Fatalf("teardown changed the model (-want +got):\n%s", diff)
	}
	if ctrl.Registry().Len() != 0 {
		t.Fatalf("expected every field retired, %d left", ctrl.Registry().Len())
	}
	if n := ctrl.RaiseError(Invalid("a.b", "required", "")); n != 0 {
		t.Fatalf("events after teardown must be dropped")
	}
}

func TestEventsRaisedDuringRevalidateAreQueued(t *testing.T) {
	t.Parallel()

	var order []string
	var ctrl *Controller
	ctrl = mountForm(t, nestedSchema, "", map[string]any{}, nil,
		WithObserver(func(n Notice) {
			order = append(order, string(n.Kind)+":"+n.Key)
		}),
		WithValueFactory(func(f *Field) ValueController {
			if !f.Descriptor().HasKey() {
				return nil
			}
			bound := NewBoundValue(f.ctrl.Model(), f.Descriptor().Key)
			if f.Descriptor().Key.Dotted() == "a.b" {
				bound.OnRevalidate(func(*BoundValue) {
					if n := ctrl.RaiseError(Invalid("a", "nested", "")); n != 0 {
						t.Errorf("nested raise must be queued, applied %d", n)
					}
				})
			}
			return bound
		}),
	)

	ctrl.RaiseError(Valid("a.b", "required"))
	want := []string{"error:a.b", "revalidate:a.b", "error:a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("event order mismatch (-want +got):\n%s", diff)
	}
	if fieldByKey(t, ctrl, "a").State().Valid {
		t.Fatalf("queued event was not applied")
	}
}

func TestArrayElements(t *testing.T) {
	t.Parallel()

	const schemaJSON = `{
  "type": "object",
  "properties": {
    "tags": {"type": "array", "items": {"type": "string"}},
    "contacts": {
      "type": "array",
      "items": {"type": "object", "properties": {"kind": {"type": "string"}, "value": {"type": "string"}}}
    }
  }
}`
	root := map[string]any{
		"tags":     []any{"a", "b"},
		"contacts": []any{map[string]any{"kind": "email", "value": "x@y.z"}},
	}
	ctrl := mountForm(t, schemaJSON, "", root, nil)

	tags := fieldByKey(t, ctrl, "tags")
	if !tags.IsArray() || tags.Len() != 2 {
		t.Fatalf("expected two tag elements, got %d", tags.Len())
	}
	second := tags.Element(1)
	if len(second) != 1 || second[0].Descriptor().Key.Dotted() != "tags.1" || second[0].ModelValue() != "b" {
		t.Fatalf("unexpected element binding %+v", second)
	}
	if _, err := ctrl.Registry().Lookup(second[0].ID()); err == nil {
		t.Fatalf("element fields must not be registered")
	}

	contacts := fieldByKey(t, ctrl, "contacts")
	var keys []string
	for _, f := range contacts.Element(0) {
		keys = append(keys, f.Descriptor().Key.Dotted())
	}
	if diff := cmp.Diff([]string{"contacts.0.kind", "contacts.0.value"}, keys); diff != "" {
		t.Fatalf("element keys mismatch (-want +got):\n%s", diff)
	}
	if n := ctrl.RaiseError(Invalid("contacts.0.value", "format", "Bad")); n != 1 {
		t.Fatalf("expected element field to receive event, got %d", n)
	}

	added, err := ctrl.AppendItem(tags.ID(), "c")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if tags.Len() != 3 || len(added) != 1 || added[0].ModelValue() != "c" {
		t.Fatalf("append did not mount a new element")
	}

	if err := ctrl.RemoveItem(tags.ID(), 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if diff := cmp.Diff([]any{"b", "c"}, ctrl.Model().Root().(map[string]any)["tags"]); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if tags.Len() != 2 || tags.Element(0)[0].ModelValue() != "b" {
		t.Fatalf("elements not reconciled after removal")
	}
	if !errors.Is(ctrl.RemoveItem(fieldByKey(t, ctrl, "contacts.0.kind").ID(), 0), ErrNotArray) {
		t.Fatalf("expected ErrNotArray for a leaf")
	}
}

func elementKeys(arr *Field) [][]string {
	out := make([][]string, arr.Len())
	for i := range out {
		out[i] = []string{}
		for _, f := range arr.Element(i) {
			out[i] = append(out[i], f.Descriptor().Key.Dotted())
		}
	}
	return out
}

func TestDestroyMiddleArrayElement(t *testing.T) {
	t.Parallel()

	const schemaJSON = `{
  "type": "object",
  "properties": {
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

	cases := []struct {
		strategy model.DestroyStrategy
		model    []any
		keys     [][]string
		// reach maps an element key to the fields expected to apply an event.
		reach map[string]int
		// value of the field now bound to tags.1, if any.
		second any
	}{
		{
			strategy: model.DestroyRemove,
			model:    []any{"a", "c"},
			keys:     [][]string{{"tags.0"}, {"tags.1"}},
			reach:    map[string]int{"tags.0": 1, "tags.1": 1, "tags.2": 0},
			second:   "c",
		},
		{
			strategy: model.DestroyNull,
			model:    []any{"a", nil, "c"},
			keys:     [][]string{{"tags.0"}, {}, {"tags.2"}},
			reach:    map[string]int{"tags.0": 1, "tags.1": 0, "tags.2": 1},
		},
		{
			strategy: model.DestroyEmpty,
			model:    []any{"a", "", "c"},
			keys:     [][]string{{"tags.0"}, {}, {"tags.2"}},
			reach:    map[string]int{"tags.0": 1, "tags.1": 0, "tags.2": 1},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.strategy), func(t *testing.T) {
			t.Parallel()
			root := map[string]any{"tags": []any{"a", "b", "c"}}
			ctrl := mountForm(t, schemaJSON, "", root,
				[]resolver.Option{resolver.WithFormOptions(resolver.FormOptions{DestroyStrategy: tc.strategy})})
			tags := fieldByKey(t, ctrl, "tags")

			if err := ctrl.Destroy(tags.Element(1)[0].ID()); err != nil {
				t.Fatalf("destroy: %v", err)
			}

			if diff := cmp.Diff(tc.model, ctrl.Model().Root().(map[string]any)["tags"]); diff != "" {
				t.Fatalf("tags mismatch (-want +got):\n%s", diff)
			}
			if tags.Len() != len(tc.model) {
				t.Fatalf("Len = %d, want %d", tags.Len(), len(tc.model))
			}
			if diff := cmp.Diff(tc.keys, elementKeys(tags)); diff != "" {
				t.Fatalf("element keys mismatch (-want +got):\n%s", diff)
			}
			if tc.second != nil {
				if got := tags.Element(1)[0].ModelValue(); got != tc.second {
					t.Fatalf("tags.1 reads %v, want %v", got, tc.second)
				}
			}
			for key, want := range tc.reach {
				if n := ctrl.RaiseError(Invalid(key, "required", "")); n != want {
					t.Fatalf("RaiseError(%s) applied to %d fields, want %d", key, n, want)
				}
			}
		})
	}
}

func TestDestroyFromHandlerIsQueued(t *testing.T) {
	t.Parallel()

	var ctrl *Controller
	var queuedErr error
	ctrl = mountForm(t, nestedSchema, "", map[string]any{"a": map[string]any{"b": "x"}}, nil,
		WithValueFactory(func(f *Field) ValueController {
			if !f.Descriptor().HasKey() {
				return nil
			}
			bound := NewBoundValue(f.ctrl.Model(), f.Descriptor().Key)
			if f.Descriptor().Key.Dotted() == "a.b" {
				bound.OnRevalidate(func(*BoundValue) {
					queuedErr = ctrl.Destroy(f.ID())
				})
			}
			return bound
		}),
	)
	b := fieldByKey(t, ctrl, "a.b")

	ctrl.RaiseError(Valid("a.b", "required"))
	if !errors.Is(queuedErr, ErrQueued) {
		t.Fatalf("expected ErrQueued from a destroy inside a handler, got %v", queuedErr)
	}
	if !b.Destroyed() {
		t.Fatalf("queued destroy did not run after the event")
	}
}
