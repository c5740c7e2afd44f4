package render_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemaform/pkg/render"
)

func TestRegistry(t *testing.T) {
	t.Parallel()
	html, err := render.NewHTML()
	if err != nil {
		t.Fatalf("new html: %v", err)
	}
	reg := render.NewRegistry()
	reg.MustRegister(html)
	reg.MustRegister(render.NewJSON())

	if err := reg.Register(render.NewJSON()); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if diff := cmp.Diff([]string{"html", "json"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	got, err := reg.Get("json")
	if err != nil || got.ContentType() != "application/json" {
		t.Fatalf("Get(json) = %v, %v", got, err)
	}
	byType, err := reg.Get("text/html; charset=utf-8")
	if err != nil || byType.Name() != "html" {
		t.Fatalf("Get(text/html) = %v, %v", byType, err)
	}
	if upper, err := reg.Get(" JSON "); err != nil || upper.Name() != "json" {
		t.Fatalf("Get( JSON ) = %v, %v", upper, err)
	}
	_, err = reg.Get("pdf")
	var notFound *render.RendererNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "pdf" {
		t.Fatalf("expected RendererNotFoundError, got %v", err)
	}
	if !reg.Has("html") || reg.Has("pdf") {
		t.Fatalf("Has mismatch")
	}
}
