package pongo_test

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-schemaform/pkg/render/template/pongo"
	"github.com/goliatone/go-schemaform/pkg/testsupport"
)

func newEngine(t *testing.T, options ...pongo.Option) *pongo.Engine {
	t.Helper()
	files := fstest.MapFS{
		"hello.html":      {Data: []byte("Hello {{ name }}!")},
		"use-global.html": {Data: []byte("env={{ settings.env }}")},
		"use-filter.html": {Data: []byte("{{ name|shout }}")},
		"count.html":      {Data: []byte("{{ count }} of {{ total }}")},
	}
	engine, err := pongo.New(append([]pongo.Option{pongo.WithFS(files)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRenderTemplate(t *testing.T) {
	t.Parallel()
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	if result != "Hello Ada!" {
		t.Fatalf("result = %q", result)
	}
	if written != result {
		t.Fatalf("writer = %q, want %q", written, result)
	}
}

func TestEngineGlobals(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, pongo.WithGlobals(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("result = %q", result)
	}
}

// Filters are process-wide in pongo2, so this test stays sequential.
func TestEngineFilter(t *testing.T) {
	shout := func(input, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	}
	engine := newEngine(t, pongo.WithFilter("shout", shout))

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("result = %q", result)
	}

	// A second engine replaces the filter instead of failing.
	quiet := newEngine(t, pongo.WithFilter("shout", func(input, _ any) (any, error) {
		return strings.ToLower(fmt.Sprint(input)), nil
	}))
	if result, _ := quiet.RenderTemplate("use-filter", map[string]any{"name": "Ada"}); result != "ada" {
		t.Fatalf("replaced filter result = %q", result)
	}
}

func TestEngineIntegralFloatsRenderAsIntegers(t *testing.T) {
	t.Parallel()
	engine := newEngine(t)

	result, err := engine.RenderTemplate("count", map[string]any{"count": float64(3), "total": 7.5})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(result, "3 of 7.5") {
		t.Fatalf("result = %q", result)
	}
}

func TestEngineCompileCachesByName(t *testing.T) {
	t.Parallel()
	engine := newEngine(t)

	if err := engine.Compile("inline:text", "<b>{{ field.title }}</b>"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := engine.Compile("inline:text", "ignored"); err != nil {
		t.Fatalf("second compile: %v", err)
	}

	result, err := engine.RenderTemplate("inline:text", map[string]any{
		"field": map[string]any{"title": "<Name>"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "<b>&lt;Name&gt;</b>" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngineRenderString(t *testing.T) {
	t.Parallel()
	engine := newEngine(t)

	result, err := engine.RenderString("{{ a }}-{{ b|lower }}", map[string]any{"a": "x", "b": "YES"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "x-yes" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngineRejectsNonMapData(t *testing.T) {
	t.Parallel()
	engine := newEngine(t)

	if _, err := engine.RenderTemplate("hello", []string{"nope"}); err == nil {
		t.Fatalf("expected error for non-map data")
	}
}

func TestEngineMissingTemplate(t *testing.T) {
	t.Parallel()
	engine := newEngine(t)

	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected load error")
	}
}
