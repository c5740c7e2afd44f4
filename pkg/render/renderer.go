package render

import (
	"context"

	"github.com/goliatone/go-schemaform/pkg/field"
)

// Renderer turns a mounted form into bytes (HTML, JSON ...). Renderers read
// field state through the controller and never mutate the model.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, ctrl *field.Controller, options RenderOptions) ([]byte, error)
}
