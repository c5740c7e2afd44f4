package widgets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
)

func TestResolveExplicitWidgetWins(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	d := &model.Descriptor{
		Type:    string(model.KindSelect),
		Choices: []model.Choice{{Name: "a", Value: "a"}},
		Hints:   map[string]string{"widget": "custom"},
	}
	if got, ok := reg.Resolve(d); !ok || got != "custom" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolveBuiltins(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	cases := []struct {
		name   string
		schema string
		key    string
		expect string
		ok     bool
	}{
		{
			name:   "const becomes hidden",
			schema: `{"type": "string", "const": "v1"}`,
			key:    "version",
			expect: WidgetHidden,
			ok:     true,
		},
		{
			name:   "short enum radios",
			schema: `{"type": "string", "enum": ["s", "m", "l"]}`,
			key:    "size",
			expect: WidgetRadios,
			ok:     true,
		},
		{
			name:   "long enum stays select",
			schema: `{"type": "string", "enum": ["a", "b", "c", "d"]}`,
			key:    "grade",
		},
		{
			name:   "text media type",
			schema: `{"type": "string", "contentMediaType": "text/markdown"}`,
			key:    "body",
			expect: WidgetTextarea,
			ok:     true,
		},
		{
			name:   "secret name",
			schema: `{"type": "string"}`,
			key:    "apiSecret",
			expect: WidgetPassword,
			ok:     true,
		},
		{
			name:   "plain text",
			schema: `{"type": "string"}`,
			key:    "title",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			descriptors, err := model.Expand(jsonschema.MustParse(tc.schema), keypath.Path{keypath.Name(tc.key)})
			if err != nil {
				t.Fatalf("expand: %v", err)
			}
			got, ok := reg.Resolve(descriptors[0])
			if ok != tc.ok || got != tc.expect {
				t.Fatalf("expected %q (ok=%v), got %q (ok=%v)", tc.expect, tc.ok, got, ok)
			}
		})
	}
}

func TestRegisterPriorityAndOrder(t *testing.T) {
	t.Parallel()
	reg := NewEmptyRegistry()
	always := func(*model.Descriptor) bool { return true }
	reg.Register("low", 1, always)
	reg.Register("first", 5, always)
	reg.Register("second", 5, always)
	reg.Register("  ", 10, always)
	reg.Register("nil", 10, nil)

	if diff := cmp.Diff([]string{"first", "second", "low"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got, _ := reg.Resolve(&model.Descriptor{}); got != "first" {
		t.Fatalf("expected first, got %q", got)
	}
}

func TestEmptyRegistryNeverResolves(t *testing.T) {
	t.Parallel()
	var nilReg *Registry
	if _, ok := nilReg.Resolve(&model.Descriptor{Type: "text"}); ok {
		t.Fatalf("nil registry resolved a widget")
	}
	if _, ok := NewEmptyRegistry().Resolve(&model.Descriptor{Type: "text"}); ok {
		t.Fatalf("empty registry resolved a widget")
	}
}

func TestWalkerAppliesRegistry(t *testing.T) {
	t.Parallel()
	s := jsonschema.MustParse(`{
  "type": "object",
  "properties": {
    "size": {"type": "string", "enum": ["s", "m"]},
    "kind": {"type": "string", "enum": ["a", "b"], "x-schemaform": {"widget": "select"}},
    "password": {"type": "string"}
  }
}`)
	descriptors, err := model.NewWalker(model.WithWidgetResolver(NewRegistry())).Expand(s, nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	var got []string
	for _, d := range descriptors {
		got = append(got, d.Key.Dotted()+"="+d.Type)
	}
	want := []string{"size=radios", "kind=select", "password=password"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
}
