package field

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/expr"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/registry"
	"github.com/goliatone/go-schemaform/pkg/resolver"
)

const profileSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "title": "Name", "minLength": 2},
    "mode": {"type": "string"},
    "extra": {"type": "string"}
  }
}`

func TestShowTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc *model.Descriptor
		want bool
	}{
		{&model.Descriptor{Title: "Name"}, true},
		{&model.Descriptor{Title: "Name", NoTitle: true}, false},
		{&model.Descriptor{}, false},
	}
	for _, tc := range cases {
		f := &Field{desc: tc.desc}
		if got := f.ShowTitle(); got != tc.want {
			t.Fatalf("ShowTitle(%+v) = %v, want %v", tc.desc, got, tc.want)
		}
	}
}

func TestCheckboxConversions(t *testing.T) {
	t.Parallel()

	values := ListToCheckboxValues([]any{"b", "a", 3.0})
	if diff := cmp.Diff(map[string]bool{"a": true, "b": true, "3": true}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	values["b"] = false
	if diff := cmp.Diff([]string{"3", "a"}, CheckboxValuesToList(values)); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestButtonClick(t *testing.T) {
	t.Parallel()

	layout := `[{"type": "button", "title": "Go", "onClick": "count + $event"}]`

	t.Run("parent scope", func(t *testing.T) {
		t.Parallel()
		ctrl := mountForm(t, profileSchema, layout, map[string]any{}, []resolver.Option{
			resolver.WithRegistryOptions(registry.WithParentScope(ExprParentScope(expr.Scope{"count": 2.0}))),
		})
		got, err := ctrl.Roots()[0].ButtonClick(3.0, nil)
		if err != nil {
			t.Fatalf("click: %v", err)
		}
		if got != 5.0 {
			t.Fatalf("expected 5, got %v", got)
		}
	})

	t.Run("field scope", func(t *testing.T) {
		t.Parallel()
		ctrl := mountForm(t, profileSchema, `[{"type": "button", "title": "Go", "onClick": "form.title + '!'"}]`, map[string]any{}, nil)
		got, err := ctrl.Roots()[0].ButtonClick(nil, nil)
		if err != nil {
			t.Fatalf("click: %v", err)
		}
		if got != "Go!" {
			t.Fatalf("expected Go!, got %v", got)
		}
	})

	t.Run("callback", func(t *testing.T) {
		t.Parallel()
		ctrl := mountForm(t, profileSchema, layout, map[string]any{}, nil)
		button := ctrl.Roots()[0]
		target := &model.Descriptor{Title: "Other", OnClick: model.Callback(func(event any, form *model.Descriptor) (any, error) {
			return form.Title + ":" + event.(string), nil
		})}
		got, err := button.ButtonClick("click", target)
		if err != nil {
			t.Fatalf("click: %v", err)
		}
		if got != "Other:click" {
			t.Fatalf("unexpected callback result %v", got)
		}
	})
}

func TestEvalInScope(t *testing.T) {
	t.Parallel()

	ctrl := mountForm(t, profileSchema, "", map[string]any{"name": "Ada"}, nil)
	name := fieldByKey(t, ctrl, "name")

	if got, err := name.EvalInScope("", nil); err != nil || got != nil {
		t.Fatalf("empty expression must yield nil, got %v, %v", got, err)
	}
	got, err := name.EvalInScope("value + ' ' + suffix", map[string]any{"suffix": "L."})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got != "Ada L." {
		t.Fatalf("unexpected result %v", got)
	}
	if got, _ := name.EvalInScope("showTitle()", nil); got != true {
		t.Fatalf("expected showTitle() to be true, got %v", got)
	}

	text, err := name.Interp("Hi {{ who }}", map[string]any{"who": "Ada"})
	if err != nil || text != "Hi Ada" {
		t.Fatalf("unexpected interp %q, %v", text, err)
	}
}

func TestVisible(t *testing.T) {
	t.Parallel()

	root := map[string]any{"mode": "simple"}
	ctrl := mountForm(t, profileSchema, `["mode", {"key": "extra", "condition": "model.mode == 'advanced'"}]`, root, nil)
	extra := fieldByKey(t, ctrl, "extra")

	visible, err := extra.Visible()
	if err != nil {
		t.Fatalf("visible: %v", err)
	}
	if visible {
		t.Fatalf("expected extra to be hidden")
	}

	root["mode"] = "advanced"
	if visible, _ := extra.Visible(); !visible {
		t.Fatalf("expected extra to be shown")
	}
	if visible, _ := fieldByKey(t, ctrl, "mode").Visible(); !visible {
		t.Fatalf("fields without a condition are visible")
	}
}

func TestSuccessAndErrorFlags(t *testing.T) {
	t.Parallel()

	unbound := &Field{desc: &model.Descriptor{}}
	if unbound.HasSuccess() || unbound.HasError() {
		t.Fatalf("unbound fields report neither success nor error")
	}
	if msg, err := unbound.ErrorMessage("required"); err != nil || msg != "" {
		t.Fatalf("unbound field message = %q, %v", msg, err)
	}

	ctrl := mountForm(t, profileSchema, "", map[string]any{}, nil)
	name := fieldByKey(t, ctrl, "name")
	if name.HasSuccess() || name.HasError() {
		t.Fatalf("pristine empty field reports neither flag")
	}

	ctrl.RaiseError(Invalid("name", "required", ""))
	if !name.HasError() || name.HasSuccess() {
		t.Fatalf("expected error flag after invalid event")
	}
	ctrl.RaiseError(Valid("name", "required"))
	if name.HasError() || !name.HasSuccess() {
		t.Fatalf("expected success flag after clearing the error")
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	ctrl := mountForm(t, profileSchema, "", map[string]any{"name": "A"}, []resolver.Option{
		resolver.WithFormOptions(resolver.FormOptions{ValidationMessage: model.ValidationMessages{
			ByCode: map[string]string{"pattern": "{{ title }} looks wrong"},
		}}),
	})
	name := fieldByKey(t, ctrl, "name")

	cases := map[string]string{
		"minLength": "String is too short (1 chars), minimum 2",
		"pattern":   "Name looks wrong",
		"tv4-302":   "Required",
	}
	for code, want := range cases {
		got, err := name.ErrorMessage(code)
		if err != nil {
			t.Fatalf("message for %s: %v", code, err)
		}
		if got != want {
			t.Fatalf("message for %s = %q, want %q", code, got, want)
		}
	}

	ctrl.RaiseError(Invalid("name", "minLength", ""))
	ctrl.RaiseError(Invalid("name", "pattern", ""))
	got, err := name.ErrorMessages()
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(got) != 2 || !strings.HasPrefix(got[0], "String is too short") {
		t.Fatalf("unexpected messages %q", got)
	}
}
