package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/keypath"
)

const personSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "title": "Full name", "minLength": 2},
    "email": {"type": "string", "format": "email"},
    "age": {"type": "integer", "minimum": 0, "exclusiveMaximum": 150},
    "bio": {"type": "string", "maxLength": 1000},
    "role": {"type": "string", "enum": ["admin", "user"]},
    "active": {"type": "boolean"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "flags": {"type": "array", "items": {"type": "string", "enum": ["a", "b"]}},
    "address": {
      "type": "object",
      "properties": {
        "street": {"type": "string"},
        "city": {"type": "string"}
      }
    },
    "contacts": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "kind": {"type": "string"},
          "value": {"type": "string"}
        }
      }
    },
    "anything": {}
  }
}`

type shape struct {
	Key      string
	Type     string
	Required bool
	Items    []shape
}

func shapes(descriptors []*Descriptor) []shape {
	out := make([]shape, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, shape{
			Key:      d.Key.String(),
			Type:     d.Type,
			Required: d.Required,
			Items:    shapes(d.Items),
		})
	}
	return out
}

func TestWalkerExpandFollowsDeclaredOrderAndInfersTypes(t *testing.T) {
	t.Parallel()

	root := jsonschema.MustParse(personSchema)
	got, err := New(Options{}).Expand(root, nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	want := []shape{
		{Key: "name", Type: "text", Required: true, Items: []shape{}},
		{Key: "email", Type: "email", Items: []shape{}},
		{Key: "age", Type: "number", Items: []shape{}},
		{Key: "bio", Type: "textarea", Items: []shape{}},
		{Key: "role", Type: "select", Items: []shape{}},
		{Key: "active", Type: "checkbox", Items: []shape{}},
		{Key: "tags", Type: "array", Items: []shape{
			{Key: "tags[]", Type: "text", Items: []shape{}},
		}},
		{Key: "flags", Type: "checkboxes", Items: []shape{}},
		{Key: "address", Type: "fieldset", Items: []shape{
			{Key: "address.street", Type: "text", Items: []shape{}},
			{Key: "address.city", Type: "text", Items: []shape{}},
		}},
		{Key: "contacts", Type: "array", Items: []shape{
			{Key: "contacts[].kind", Type: "text", Items: []shape{}},
			{Key: "contacts[].value", Type: "text", Items: []shape{}},
		}},
		{Key: "anything", Type: "generic", Items: []shape{}},
	}
	if diff := cmp.Diff(want, shapes(got)); diff != "" {
		t.Fatalf("descriptor shape mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkerSharesSchemaAndCarriesRules(t *testing.T) {
	t.Parallel()

	root := jsonschema.MustParse(personSchema)
	got, err := New(Options{}).Expand(root, nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	name, _ := root.Property("name")
	if got[0].Schema != name {
		t.Fatalf("expected descriptor to reference the schema node")
	}
	if got[0].Title != "Full name" {
		t.Fatalf("expected schema title, got %q", got[0].Title)
	}

	wantName := []ValidationRule{
		{Kind: ValidationRuleRequired},
		{Kind: ValidationRuleMinLength, Params: map[string]string{"value": "2"}},
	}
	if diff := cmp.Diff(wantName, got[0].Validations); diff != "" {
		t.Fatalf("name rules (-want +got):\n%s", diff)
	}

	wantAge := []ValidationRule{
		{Kind: ValidationRuleMin, Params: map[string]string{"value": "0"}},
		{Kind: ValidationRuleMax, Params: map[string]string{"value": "150", "exclusive": "true"}},
	}
	if diff := cmp.Diff(wantAge, got[2].Validations); diff != "" {
		t.Fatalf("age rules (-want +got):\n%s", diff)
	}

	wantRole := []Choice{{Name: "admin", Value: "admin"}, {Name: "user", Value: "user"}}
	if diff := cmp.Diff(wantRole, got[4].Choices); diff != "" {
		t.Fatalf("role choices (-want +got):\n%s", diff)
	}
}

func TestWalkerExpandWithPrefixAndPrimitiveRoot(t *testing.T) {
	t.Parallel()

	walker := New(Options{})
	got, err := walker.Expand(jsonschema.MustParse(`{"type":"number"}`), keypath.New("total"))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(got) != 1 || got[0].Key.String() != "total" || got[0].Type != "number" {
		t.Fatalf("unexpected expansion %+v", got)
	}

	nested, err := walker.Expand(jsonschema.MustParse(`{"properties":{"a":{"type":"string"}}}`), keypath.New("outer"))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if diff := cmp.Diff([]shape{{Key: "outer", Type: "fieldset", Items: []shape{
		{Key: "outer.a", Type: "text", Items: []shape{}},
	}}}, shapes(nested)); diff != "" {
		t.Fatalf("untyped object (-want +got):\n%s", diff)
	}

	if _, err := walker.Expand(nil, nil); err == nil {
		t.Fatalf("expected nil schema error")
	}
}

func TestWalkerAppliesHints(t *testing.T) {
	t.Parallel()

	root := jsonschema.MustParse(`{
  "type": "object",
  "properties": {
    "color": {
      "type": "string",
      "enum": ["red", "blue"],
      "x-schemaform": {"widget": "radios", "placeholder": "Pick one", "notitle": true},
      "x-schemaform-destroyStrategy": "retain"
    }
  }
}`)
	got, err := New(Options{}).Expand(root, nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	color := got[0]
	if color.Type != "radios" || color.Kind() != KindRadios {
		t.Fatalf("expected radios, got %q", color.Type)
	}
	if color.Placeholder != "Pick one" || !color.NoTitle {
		t.Fatalf("hints not applied: %+v", color)
	}
	if color.DestroyStrategy != DestroyRetain {
		t.Fatalf("expected retain, got %q", color.DestroyStrategy)
	}

	bad := jsonschema.MustParse(`{"type":"object","properties":{"x":{"type":"string","x-schemaform-destroyStrategy":"shred"}}}`)
	if _, err := New(Options{}).Expand(bad, nil); err == nil {
		t.Fatalf("expected unknown destroy strategy error")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	if Classify("checkboxes") != KindCheckboxes {
		t.Fatalf("expected checkboxes kind")
	}
	if Classify("color-wheel") != KindGeneric {
		t.Fatalf("expected unknown type to classify as generic")
	}
}

func TestDescriptorCloneIsIndependent(t *testing.T) {
	t.Parallel()

	root := jsonschema.MustParse(personSchema)
	got, err := New(Options{}).Expand(root, nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	address := got[8]
	clone := address.Clone()
	clone.Items[0].Title = "changed"
	clone.ValidationMessage.Set("required", "x")

	if address.Items[0].Title == "changed" {
		t.Fatalf("clone shares item descriptors")
	}
	if !address.ValidationMessage.IsZero() {
		t.Fatalf("clone shares validation messages")
	}
	if clone.Schema != address.Schema {
		t.Fatalf("clone must share the schema pointer")
	}
}

func TestTitleForKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"firstName":      "First name",
		"user.last_name": "Last Name",
		"tags[]":         "Tags",
		"list[3]":        "List",
	}
	for raw, want := range cases {
		if got := TitleForKey(keypath.MustParse(raw), nil); got != want {
			t.Fatalf("TitleForKey(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestValidationMessagesFromValue(t *testing.T) {
	t.Parallel()

	single, err := MessagesFromValue("Nope")
	if err != nil {
		t.Fatalf("string: %v", err)
	}
	if msg, ok := single.Lookup("anything"); !ok || msg != "Nope" {
		t.Fatalf("expected single message to apply to every code")
	}

	byCode, err := MessagesFromValue(map[string]any{"required": "Needed"})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if _, ok := byCode.Lookup("pattern"); ok {
		t.Fatalf("expected no message for pattern")
	}
	if _, err := MessagesFromValue(42); err == nil {
		t.Fatalf("expected error for number")
	}
}
