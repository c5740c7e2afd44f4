package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-schemaform/pkg/decorators"
	"github.com/goliatone/go-schemaform/pkg/orchestrator"
	"github.com/goliatone/go-schemaform/pkg/render"
	"github.com/goliatone/go-schemaform/pkg/schema"
	"github.com/goliatone/go-schemaform/pkg/testsupport"
)

type recordingSelector struct {
	selection *theme.Selection
	err       error
	asked     [][2]string
}

func (s *recordingSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.asked = append(s.asked, [2]string{name, variant})
	return s.selection, s.err
}

func acmeSelection() *theme.Selection {
	return &theme.Selection{
		Theme:   "acme",
		Variant: "dark",
		Manifest: &theme.Manifest{
			Name:      "acme",
			Version:   "1.0.0",
			Tokens:    map[string]string{"brand": "#123456", "radius": "4px"},
			Templates: map[string]string{"decorators.text": "themes/acme/text.html"},
			Variants: map[string]theme.Variant{
				"dark": {Tokens: map[string]string{"brand": "#654321"}},
			},
		},
	}
}

func generateWithTheme(t *testing.T, selector theme.ThemeSelector, opts render.RenderOptions) (*captureRenderer, error) {
	t.Helper()
	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)
	orch := newOrchestrator(
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
		orchestrator.WithThemeSelector(selector),
	)
	_, err := orch.Generate(context.Background(), orchestrator.Request{
		Source:        schema.SourceFromFS(testsupport.ProfileSchema),
		LayoutName:    "compact",
		ThemeName:     "acme",
		ThemeVariant:  "dark",
		RenderOptions: opts,
	})
	return renderer, err
}

func TestGenerateAppliesSelectedThemeVariant(t *testing.T) {
	t.Parallel()
	selector := &recordingSelector{selection: acmeSelection()}

	renderer, err := generateWithTheme(t, selector, render.RenderOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	testsupport.AssertEqual(t, [][2]string{{"acme", "dark"}}, selector.asked, "selector calls")
	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("renderer got no theme config")
	}
	testsupport.AssertEqual(t, map[string]string{"--brand": "#654321", "--radius": "4px"}, cfg.CSSVars, "css vars")

	tpl, err := renderer.options.Decorators.Resolve("text")
	if err != nil {
		t.Fatalf("resolve text: %v", err)
	}
	testsupport.AssertEqual(t, "themes/acme/text.html", tpl.Name, "theme template")
	testsupport.AssertEqual(t, decorators.OriginTheme, tpl.Origin, "origin")
}

func TestGenerateKeepsCallerThemeOptions(t *testing.T) {
	t.Parallel()
	own, err := decorators.NewResolver()
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	preset := &theme.RendererConfig{Theme: "preset"}

	renderer, err := generateWithTheme(t, &recordingSelector{selection: acmeSelection()},
		render.RenderOptions{Theme: preset, Decorators: own})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if renderer.options.Theme != preset || renderer.options.Decorators != own {
		t.Fatalf("caller supplied theme options were replaced")
	}
}

func TestGenerateFailsWhenThemeSelectionFails(t *testing.T) {
	t.Parallel()
	missing := errors.New("theme not installed")

	_, err := generateWithTheme(t, &recordingSelector{err: missing}, render.RenderOptions{})
	if !errors.Is(err, missing) {
		t.Fatalf("expected selector error, got %v", err)
	}
}
