package render_test

import (
	"context"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/render"
)

type jsonOut struct {
	Fields []struct {
		Key      string   `json:"key"`
		Type     string   `json:"type"`
		Visible  bool     `json:"visible"`
		Value    any      `json:"value"`
		Messages []string `json:"messages"`
		State    struct {
			Valid  bool     `json:"valid"`
			Errors []string `json:"errors"`
		} `json:"state"`
		Elements [][]struct {
			Key   string `json:"key"`
			Value any    `json:"value"`
		} `json:"elements"`
	} `json:"fields"`
	Errors []string `json:"errors"`
}

func TestJSONRendersFieldState(t *testing.T) {
	t.Parallel()
	ctrl := mount(t, taskSchema, "", taskModel())
	ctrl.RaiseError(field.Invalid("kind", "enum", "Pick one"))

	r := render.NewJSON(render.WithIndent("  "))
	raw, err := r.Render(context.Background(), ctrl, render.RenderOptions{
		Errors: map[string][]string{"form": {"Try again"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var out jsonOut
	if err := gojson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, raw)
	}

	var keys []string
	for _, f := range out.Fields {
		keys = append(keys, f.Key)
	}
	if diff := cmp.Diff([]string{"title", "kind", "done", "tags"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Try again"}, out.Errors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	kind := out.Fields[1]
	if kind.State.Valid || kind.Value != "b" {
		t.Fatalf("kind = %+v", kind)
	}
	if diff := cmp.Diff([]string{"Pick one"}, kind.Messages); diff != "" {
		t.Fatalf("kind messages mismatch (-want +got):\n%s", diff)
	}

	tags := out.Fields[3]
	if len(tags.Elements) != 2 || tags.Elements[1][0].Key != "tags.1" || tags.Elements[1][0].Value != "y" {
		t.Fatalf("tags elements = %+v", tags.Elements)
	}
}
