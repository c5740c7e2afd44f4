package render

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/decorators"
	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/render/template"
	"github.com/goliatone/go-schemaform/pkg/render/template/pongo"
)

// ErrNilController is returned when rendering without a mounted form.
var ErrNilController = errors.New("render: controller is required")

//go:embed templates/form.html
var formTemplateFS embed.FS

const formTemplateName = "schemaform:form"

// HTMLOption configures the HTML renderer.
type HTMLOption func(*htmlConfig)

type htmlConfig struct {
	decorators *decorators.Resolver
	templates  []fs.FS
	engine     template.Engine
	formSource string
	logger     *slog.Logger
}

// WithDecorators sets the decorator resolver used to find field templates.
func WithDecorators(resolver *decorators.Resolver) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.decorators = resolver
	}
}

// WithTemplatesFS adds a filesystem theme templates referenced by name are
// loaded from.
func WithTemplatesFS(fsys fs.FS) HTMLOption {
	return func(cfg *htmlConfig) {
		if fsys != nil {
			cfg.templates = append(cfg.templates, fsys)
		}
	}
}

// WithEngine swaps the pongo2 engine for another template backend.
// Filesystems passed through WithTemplatesFS are ignored then.
func WithEngine(engine template.Engine) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.engine = engine
	}
}

// WithFormTemplate replaces the <form> wrapper template. It sees `form`,
// `theme` and the rendered fields as `body`.
func WithFormTemplate(source string) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.formSource = source
	}
}

// WithLogger routes renderer logs to logger.
func WithLogger(logger *slog.Logger) HTMLOption {
	return func(cfg *htmlConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// HTML renders a mounted form through decorator templates. Invisible fields
// are skipped; array fields render one item per mounted element.
type HTML struct {
	decorators *decorators.Resolver
	engine     template.Engine
	logger     *slog.Logger
}

var _ Renderer = (*HTML)(nil)

// NewHTML builds the HTML renderer. Without WithDecorators it uses a resolver
// holding the built-in templates.
func NewHTML(options ...HTMLOption) (*HTML, error) {
	cfg := htmlConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.decorators == nil {
		resolver, err := decorators.NewResolver()
		if err != nil {
			return nil, fmt.Errorf("render: default decorators: %w", err)
		}
		cfg.decorators = resolver
	}
	if cfg.formSource == "" {
		raw, err := formTemplateFS.ReadFile("templates/form.html")
		if err != nil {
			return nil, fmt.Errorf("render: read form template: %w", err)
		}
		cfg.formSource = string(raw)
	}

	engine := cfg.engine
	if engine == nil {
		engineOpts := make([]pongo.Option, 0, len(cfg.templates))
		for _, fsys := range cfg.templates {
			engineOpts = append(engineOpts, pongo.WithFS(fsys))
		}
		var err error
		if engine, err = pongo.New(engineOpts...); err != nil {
			return nil, fmt.Errorf("render: template engine: %w", err)
		}
	}
	if err := engine.Compile(formTemplateName, cfg.formSource); err != nil {
		return nil, fmt.Errorf("render: form template: %w", err)
	}
	return &HTML{decorators: cfg.decorators, engine: engine, logger: cfg.logger}, nil
}

func (r *HTML) Name() string        { return "html" }
func (r *HTML) ContentType() string { return "text/html; charset=utf-8" }

type htmlPass struct {
	ctx       context.Context
	opts      RenderOptions
	resolver  *decorators.Resolver
	templates map[string]decorators.Template
	theme     map[string]any
}

// Render writes the form. Server errors in options.Errors are matched to
// fields with MapErrorPayload; unmatched ones render as form-level errors.
func (r *HTML) Render(ctx context.Context, ctrl *field.Controller, options RenderOptions) ([]byte, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolver := options.Decorators
	if resolver == nil {
		resolver = r.decorators
	}
	templates, err := resolver.ResolveAll(ctrl.Form().Descriptors)
	if err != nil {
		return nil, err
	}

	mapping := MapErrorPayload(ctrl, options.Errors)
	options.Errors = mapping.Fields

	pass := &htmlPass{
		ctx:       ctx,
		opts:      options,
		resolver:  resolver,
		templates: templates,
		theme:     themeContext(options.Theme),
	}
	body, err := r.renderFields(pass, ctrl.Roots())
	if err != nil {
		return nil, err
	}

	formErrors := make([]any, 0, len(mapping.Form))
	for _, msg := range mapping.Form {
		formErrors = append(formErrors, msg)
	}
	hidden := make([]any, 0, len(options.Hidden))
	for _, h := range SortedHiddenFields(options.Hidden) {
		hidden = append(hidden, map[string]any{"name": h.Name, "value": h.Value})
	}
	method, override := formMethod(options.Method)

	out, err := r.engine.RenderTemplate(formTemplateName, map[string]any{
		"form": map[string]any{
			"method":         method,
			"methodOverride": override,
			"action":         options.Action,
			"locale":         options.Locale,
			"hidden":         hidden,
			"errors":         formErrors,
		},
		"theme": pass.theme,
		"body":  body,
	})
	if err != nil {
		return nil, fmt.Errorf("render: form: %w", err)
	}
	r.logger.Debug("render: html", "fields", len(ctrl.Fields()), "form_errors", len(formErrors))
	return []byte(out), nil
}

func (r *HTML) renderFields(pass *htmlPass, fields []*field.Field) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		out, err := r.renderField(pass, f)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (r *HTML) renderField(pass *htmlPass, f *field.Field) (string, error) {
	if err := pass.ctx.Err(); err != nil {
		return "", err
	}
	visible, err := f.Visible()
	if err != nil {
		return "", err
	}
	if !visible {
		return "", nil
	}

	view, err := fieldView(f, pass.opts)
	if err != nil {
		return "", err
	}
	data := map[string]any{"field": view, "theme": pass.theme}

	if f.IsArray() {
		items := make([]any, 0, f.Len())
		for i := 0; i < f.Len(); i++ {
			item, err := r.renderFields(pass, f.Element(i))
			if err != nil {
				return "", err
			}
			items = append(items, item)
		}
		data["items"] = items
	} else {
		children, err := r.renderFields(pass, f.Children())
		if err != nil {
			return "", err
		}
		data["children"] = children
	}

	typeName := f.Descriptor().Type
	tpl, ok := pass.templates[typeName]
	if !ok {
		tpl, err = pass.resolver.Resolve(typeName)
		if err != nil {
			return "", err
		}
		pass.templates[typeName] = tpl
	}
	return r.execute(tpl, data)
}

func (r *HTML) execute(tpl decorators.Template, data map[string]any) (string, error) {
	if tpl.Source == "" {
		out, err := r.engine.RenderTemplate(tpl.Name, data)
		if err != nil {
			return "", fmt.Errorf("render: decorator %q: %w", tpl.Type, err)
		}
		return out, nil
	}
	name := sourceKey(tpl.Source)
	if err := r.engine.Compile(name, tpl.Source); err != nil {
		return "", fmt.Errorf("render: decorator %q: %w", tpl.Type, err)
	}
	out, err := r.engine.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("render: decorator %q: %w", tpl.Type, err)
	}
	return out, nil
}

// sourceKey names compiled decorator sources by content, so resolvers with
// different overrides share one engine cache safely.
func sourceKey(source string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	return fmt.Sprintf("decorator:%x", h.Sum64())
}

func formMethod(raw string) (method, override string) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch upper {
	case "":
		return "post", ""
	case "GET", "POST":
		return strings.ToLower(upper), ""
	default:
		return "post", upper
	}
}
