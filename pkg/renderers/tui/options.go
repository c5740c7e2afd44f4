package tui

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-schemaform/pkg/validation"
)

// OutputFormat controls how Render serializes the filled model.
type OutputFormat string

const (
	OutputFormatJSON           OutputFormat = "json"
	OutputFormatFormURLEncoded OutputFormat = "form"
	OutputFormatPrettyText     OutputFormat = "pretty"
)

// Theme holds message prefixes. Kept free of ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// SubmitTransformer rewrites the filled model before Render serializes it.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures the terminal host.
type Option func(*Renderer)

// WithPromptDriver replaces the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints info lines.
func WithOutput(out io.Writer) Option {
	return func(r *Renderer) {
		r.out = out
	}
}

// WithOutputFormat selects the Render serialization.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithSubmitTransformer rewrites values before serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) {
		r.submitTransformer = fn
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithValidator checks answers against the whole schema. Without one, the
// descriptor's validation rules are checked field by field.
func WithValidator(v *validation.Validator) Option {
	return func(r *Renderer) {
		r.validator = v
	}
}

// WithMaxAttempts bounds how often a field is asked again after a failed
// check. Zero means no bound.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger routes host logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
