package schemaform

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-schemaform/pkg/orchestrator"
	"github.com/goliatone/go-schemaform/pkg/render"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// Request aliases orchestrator.Request for callers of the root package.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides such as the form method or
// server-side validation errors.
type RenderOptions = render.RenderOptions

// Option aliases orchestrator.Option.
type Option = orchestrator.Option

// New constructs the form pipeline with the built-in loader, adapters and
// renderers.
func New(options ...Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate renders the form for req with a one-off pipeline.
func Generate(ctx context.Context, req Request, options ...Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, req)
}

// GenerateHTML loads source, resolves it with the default layout and renders
// HTML.
func GenerateHTML(ctx context.Context, source schema.Source, options ...Option) ([]byte, error) {
	return Generate(ctx, Request{Source: source, Renderer: "html"}, options...)
}

// WithThemeSelector passes a go-theme selector through to the pipeline so
// theme and variant choices are resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return orchestrator.WithThemeSelector(selector)
}
