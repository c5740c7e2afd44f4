package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-schemaform/pkg/decorators"
)

// RenderOptions carry per-request data renderers use without touching the
// mounted form.
type RenderOptions struct {
	// Method is the submission verb. PUT, PATCH and DELETE render as POST
	// plus a hidden _method input.
	Method string
	Action string
	// Hidden inputs emitted before the fields, see MergeHiddenFields.
	Hidden map[string]string
	// Errors are server-side messages keyed by dotted field key. Keys no
	// field binds to surface as form-level errors.
	Errors map[string][]string
	// Theme supplies tokens and CSS variables, see ThemeConfig.
	Theme *theme.RendererConfig
	// Decorators replaces the renderer's decorator resolver for this call.
	Decorators *decorators.Resolver

	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}
