package openapi

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

const petstore = `{
  "openapi": "3.0.3",
  "info": {"title": "Pets", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "post": {
        "operationId": "createPet",
        "summary": "Create a pet",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    },
    "/pets/{id}": {
      "patch": {
        "operationId": "updatePet",
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "nickname": {"type": "string"},
                  "owner": {"$ref": "#/components/schemas/Owner"}
                }
              }
            }
          }
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "species": {"type": "string", "enum": ["cat", "dog"]},
          "owner": {"$ref": "#/components/schemas/Owner"}
        }
      },
      "Owner": {
        "type": "object",
        "properties": {
          "last": {"type": "string"},
          "first": {"type": "string"}
        }
      }
    }
  }
}`

func propertyNames(s *schema.Schema) []string {
	out := make([]string, 0, len(s.Properties))
	for _, prop := range s.Properties {
		out = append(out, prop.Name)
	}
	return out
}

func petstoreDoc(t *testing.T) schema.Document {
	t.Helper()
	return schema.MustNewDocument(schema.SourceInline("petstore.json"), []byte(petstore))
}

func TestNormalizeComponentKeepsDeclaredOrder(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(nil, WithSelector(Selector{Component: "Pet"}))
	got, err := adapter.Normalize(context.Background(), petstoreDoc(t))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "species", "owner"}, propertyNames(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	owner, ok := got.Property("owner")
	if !ok {
		t.Fatalf("owner property missing")
	}
	if diff := cmp.Diff([]string{"last", "first"}, propertyNames(owner)); diff != "" {
		t.Fatalf("owner order mismatch (-want +got):\n%s", diff)
	}
	if !got.IsRequired("name") {
		t.Fatalf("expected name to be required")
	}
}

func TestNormalizeOperationByID(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(nil, WithSelector(Selector{OperationID: "updatePet"}))
	got, err := adapter.Normalize(context.Background(), petstoreDoc(t))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if diff := cmp.Diff([]string{"nickname", "owner"}, propertyNames(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeOperationByMethodAndPath(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(nil, WithSelector(Selector{Method: "post", Path: "/pets"}))
	got, err := adapter.Normalize(context.Background(), petstoreDoc(t))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Pointer != "#" {
		t.Fatalf("expected root pointer, got %q", got.Pointer)
	}
	if diff := cmp.Diff([]string{"name", "species", "owner"}, propertyNames(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSelectorErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]Selector{
		"empty":             {},
		"missing component": {Component: "Nope"},
		"missing operation": {OperationID: "deletePet"},
		"wrong media type":  {OperationID: "createPet", MediaType: "text/plain"},
	}
	for name, sel := range cases {
		sel := sel
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			adapter := NewAdapter(nil, WithSelector(sel))
			if _, err := adapter.Normalize(context.Background(), petstoreDoc(t)); err == nil {
				t.Fatalf("expected error for selector %+v", sel)
			}
		})
	}
}

func TestOperations(t *testing.T) {
	t.Parallel()

	ops, err := NewAdapter(nil).Operations(context.Background(), petstoreDoc(t))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	want := []OperationRef{
		{
			ID:        "createPet",
			Method:    "POST",
			Path:      "/pets",
			Summary:   "Create a pet",
			MediaType: "application/json",
			Pointer:   "#/components/schemas/Pet",
		},
		{
			ID:        "updatePet",
			Method:    "PATCH",
			Path:      "/pets/{id}",
			MediaType: "application/json",
			Pointer:   "#/paths/~1pets~1{id}/patch/requestBody/content/application~1json/schema",
		},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(nil)
	if !adapter.Detect(schema.SourceInline(""), []byte(petstore)) {
		t.Fatalf("expected petstore to be detected")
	}
	if adapter.Detect(schema.SourceInline(""), []byte(`{"type":"object"}`)) {
		t.Fatalf("plain json schema must not be detected as openapi")
	}
	if adapter.Detect(schema.SourceInline(""), []byte("openapi: 3.1.0\ninfo: {title: x, version: '1'}\n")) == false {
		t.Fatalf("expected yaml document to be detected")
	}
}
