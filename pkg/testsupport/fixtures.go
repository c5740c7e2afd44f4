package testsupport

import (
	"bytes"
	"context"
	"embed"
	"io"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/schema"
	"github.com/goliatone/go-schemaform/pkg/uischema"
)

//go:embed fixtures
var fixtures embed.FS

// Fixture names served by FixturesFS.
const (
	ProfileSchema  = "profile.schema.json"
	PetstoreSchema = "petstore.openapi.json"
	LayoutsDir     = "layouts"
)

// FixturesFS returns the shared fixture tree rooted at the fixtures
// directory.
func FixturesFS() fs.FS {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

// MustRead returns the raw bytes of a fixture.
func MustRead(t *testing.T, name string) []byte {
	t.Helper()
	data, err := fs.ReadFile(FixturesFS(), name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// MustDocument wraps a fixture as a schema document sourced from FixturesFS.
func MustDocument(t *testing.T, name string) schema.Document {
	t.Helper()
	doc, err := schema.NewDocument(schema.SourceFromFS(name), MustRead(t, name))
	if err != nil {
		t.Fatalf("document %s: %v", name, err)
	}
	return doc
}

// MustSchema normalizes a self-contained JSON Schema fixture.
func MustSchema(t *testing.T, name string) *schema.Schema {
	t.Helper()
	s, err := jsonschema.Parse(MustRead(t, name))
	if err != nil {
		t.Fatalf("parse schema %s: %v", name, err)
	}
	return s
}

// MustLayout returns a named layout from the layouts fixture directory.
func MustLayout(t *testing.T, name string) uischema.Layout {
	t.Helper()
	store, err := uischema.LoadFS(FixturesFS(), LayoutsDir)
	if err != nil {
		t.Fatalf("load layouts: %v", err)
	}
	layout, ok := store.Layout(name)
	if !ok {
		t.Fatalf("layout %s not found in %v", name, store.Names())
	}
	return layout
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// AssertEqual fails t with a (-want +got) diff when the values differ.
func AssertEqual(t *testing.T, want, got any, what string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", what, diff)
	}
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
