package field

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

func TestResolveDestroyStrategy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		field model.DestroyStrategy
		form  model.DestroyStrategy
		want  model.DestroyStrategy
	}{
		{"default", model.DestroyUnset, model.DestroyUnset, model.DestroyRemove},
		{"form", model.DestroyUnset, model.DestroyNull, model.DestroyNull},
		{"field wins", model.DestroyRetain, model.DestroyEmpty, model.DestroyRetain},
	}
	for _, tc := range cases {
		if got := ResolveDestroyStrategy(tc.field, tc.form); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestApplyDestroyStrategy(t *testing.T) {
	t.Parallel()

	str := &schema.Schema{Types: []string{"string"}}
	obj := &schema.Schema{Types: []string{"null", "object"}}
	num := &schema.Schema{Types: []string{"number"}}

	cases := []struct {
		name        string
		root        any
		key         string
		schema      *schema.Schema
		strategy    model.DestroyStrategy
		want        any
		wantChanged bool
	}{
		{
			name:        "empty string",
			root:        map[string]any{"a": map[string]any{"b": "x"}},
			key:         "a.b",
			schema:      str,
			strategy:    model.DestroyEmpty,
			want:        map[string]any{"a": map[string]any{"b": ""}},
			wantChanged: true,
		},
		{
			name:        "empty object from type list",
			root:        map[string]any{"a": map[string]any{"k": 1.0}},
			key:         "a",
			schema:      obj,
			strategy:    model.DestroyEmpty,
			want:        map[string]any{"a": map[string]any{}},
			wantChanged: true,
		},
		{
			name:        "empty number removes",
			root:        map[string]any{"n": 3.0, "m": 1.0},
			key:         "n",
			schema:      num,
			strategy:    model.DestroyEmpty,
			want:        map[string]any{"m": 1.0},
			wantChanged: true,
		},
		{
			name:     "absent parent",
			root:     map[string]any{},
			key:      "a.b",
			schema:   str,
			strategy: model.DestroyNull,
			want:     map[string]any{},
		},
		{
			name:     "retain",
			root:     map[string]any{"a": "x"},
			key:      "a",
			schema:   str,
			strategy: model.DestroyRetain,
			want:     map[string]any{"a": "x"},
		},
		{
			name:        "remove shifts array",
			root:        map[string]any{"tags": []any{"a", "b", "c"}},
			key:         "tags[0]",
			schema:      str,
			strategy:    model.DestroyRemove,
			want:        map[string]any{"tags": []any{"b", "c"}},
			wantChanged: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tree := keypath.NewTree(tc.root)
			changed, err := ApplyDestroyStrategy(tree, keypath.MustParse(tc.key), tc.schema, tc.strategy)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if changed != tc.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if diff := cmp.Diff(tc.want, tree.Root()); diff != "" {
				t.Fatalf("model mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyDestroyStrategyRejectsWildcard(t *testing.T) {
	t.Parallel()

	tree := keypath.NewTree(map[string]any{"tags": []any{"a"}})
	if _, err := ApplyDestroyStrategy(tree, keypath.MustParse("tags[]"), nil, model.DestroyRemove); err == nil {
		t.Fatalf("expected wildcard key to be rejected")
	}
}
