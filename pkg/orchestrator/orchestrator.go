package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	theme "github.com/goliatone/go-theme"

	schemaloader "github.com/goliatone/go-schemaform/internal/jsonschema/loader"
	"github.com/goliatone/go-schemaform/pkg/decorators"
	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/openapi"
	"github.com/goliatone/go-schemaform/pkg/registry"
	"github.com/goliatone/go-schemaform/pkg/render"
	"github.com/goliatone/go-schemaform/pkg/resolver"
	"github.com/goliatone/go-schemaform/pkg/schema"
	"github.com/goliatone/go-schemaform/pkg/uischema"
	"github.com/goliatone/go-schemaform/pkg/validation"
	"github.com/goliatone/go-schemaform/pkg/widgets"
)

const defaultRendererName = "html"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects the document loader.
func WithLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithFileSystem backs fs sources and sibling $refs of the default loader.
func WithFileSystem(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.files = fsys
	}
}

// WithAdapterRegistry replaces the JSON Schema and OpenAPI adapters.
func WithAdapterRegistry(adapters *AdapterRegistry) Option {
	return func(o *Orchestrator) {
		o.adapters = adapters
	}
}

// WithDefaultFormat names the adapter used when detection finds nothing.
func WithDefaultFormat(name string) Option {
	return func(o *Orchestrator) {
		o.defaultFormat = name
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.renderers = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits one.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithResolverOptions forwards options to every resolver.Resolve call.
func WithResolverOptions(options ...resolver.Option) Option {
	return func(o *Orchestrator) {
		o.resolverOpts = append(o.resolverOpts, options...)
	}
}

// WithLayoutFS loads named layouts from fsys below root. Requests select one
// with LayoutName.
func WithLayoutFS(fsys fs.FS, root string) Option {
	return func(o *Orchestrator) {
		o.layoutFS = fsys
		o.layoutRoot = root
	}
}

// WithSchemaTransformer registers a Transformer run on the resolved
// descriptors of every request.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithWidgetRegistry lets registry pick decorator types for schema-derived
// fields. Layout types and widget hints still take precedence.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(o *Orchestrator) {
		if registry != nil {
			o.resolverOpts = append(o.resolverOpts, resolver.WithWalkerOptions(model.WithWidgetResolver(registry)))
		}
	}
}

// WithThemeSelector resolves the request theme through selector. The
// selection feeds decorator templates and renderer tokens.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithDecoratorOptions configures the per-request decorator resolver.
func WithDecoratorOptions(options ...decorators.Option) Option {
	return func(o *Orchestrator) {
		o.decoratorOpts = append(o.decoratorOpts, options...)
	}
}

// WithValidatorOptions configures the validator used for Request.Validate.
func WithValidatorOptions(options ...validation.Option) Option {
	return func(o *Orchestrator) {
		o.validatorOpts = append(o.validatorOpts, options...)
	}
}

// WithLogger routes pipeline logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from a schema document to rendered
// output. Missing stages get the built-in implementations.
type Orchestrator struct {
	loader          schema.Loader
	files           fs.FS
	adapters        *AdapterRegistry
	defaultFormat   string
	renderers       *render.Registry
	defaultRenderer string
	resolverOpts    []resolver.Option
	layoutFS        fs.FS
	layoutRoot      string
	layouts         *uischema.Store
	transformer     Transformer
	themeSelector   theme.ThemeSelector
	decoratorOpts   []decorators.Option
	validatorOpts   []validation.Option
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying options over the defaults.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		defaultFormat:   jsonschema.DefaultAdapterName,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one form generation.
type Request struct {
	// Source locates the schema document. Optional when Document is set.
	Source schema.Source
	// Document bypasses the loader.
	Document *schema.Document
	// Format names the adapter; empty means detect.
	Format string
	// Selector picks the component or operation of an OpenAPI document.
	Selector openapi.Selector

	// Layout takes precedence over LayoutName. Both empty means the wildcard.
	Layout     uischema.Layout
	LayoutName string

	// Model is the initial model root; nil starts empty.
	Model map[string]any
	// Validate runs schema validation on the model after mounting, so the
	// render shows its errors.
	Validate bool

	Renderer      string
	ThemeName     string
	ThemeVariant  string
	RenderOptions render.RenderOptions
}

// Schema loads and normalizes the request document.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (*schema.Schema, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	doc, err := o.loadDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	adapter, err := o.resolveAdapter(req, doc)
	if err != nil {
		return nil, err
	}
	s, err := adapter.Normalize(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: normalize %s: %w", adapter.Name(), err)
	}
	o.logger.Debug("orchestrator: schema loaded", "adapter", adapter.Name(), "location", doc.Location())
	return s, nil
}

// Resolve loads the schema and resolves it against the request layout.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (*resolver.Form, error) {
	s, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	layout, err := o.layoutFor(req)
	if err != nil {
		return nil, err
	}

	options := append([]resolver.Option{resolver.WithLogger(o.logger)}, o.resolverOpts...)
	if req.Model != nil {
		options = append(options, resolver.WithRegistryOptions(registry.WithModel(req.Model)))
	}
	if o.transformer != nil {
		t := o.transformer
		options = append(options, resolver.WithDecorators(model.DecoratorFunc(func(descriptors []*model.Descriptor) error {
			return t.Transform(ctx, descriptors)
		})))
	}

	form, err := resolver.Resolve(s, layout, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return form, nil
}

// Mount resolves the form and mounts a controller over it. With
// req.Validate the model is validated and failures raised as error events.
func (o *Orchestrator) Mount(ctx context.Context, req Request) (*field.Controller, error) {
	form, err := o.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	ctrl, err := field.Mount(form, field.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: mount: %w", err)
	}
	if req.Validate {
		v, err := o.Validator(form.Schema)
		if err != nil {
			return nil, err
		}
		res := v.Apply(ctrl)
		o.logger.Debug("orchestrator: model validated", "issues", len(res.Issues), "unmatched", len(res.Unmatched))
	}
	return ctrl, nil
}

// Validator builds a validator for s with the configured options.
func (o *Orchestrator) Validator(s *schema.Schema) (*validation.Validator, error) {
	v, err := validation.New(s, append([]validation.Option{validation.WithLogger(o.logger)}, o.validatorOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return v, nil
}

// Generate mounts the request form and renders it with the named renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	ctrl, err := o.Mount(ctx, req)
	if err != nil {
		return nil, err
	}
	defer ctrl.Teardown()

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if err := o.applyTheme(req, &options); err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, ctrl, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) layoutFor(req Request) (uischema.Layout, error) {
	if len(req.Layout) > 0 {
		return req.Layout, nil
	}
	name := strings.TrimSpace(req.LayoutName)
	if name == "" {
		return nil, nil
	}
	layout, ok := o.layouts.Layout(name)
	if !ok {
		return nil, fmt.Errorf("orchestrator: layout %q not found", name)
	}
	return layout, nil
}

// applyTheme selects the request theme and derives the renderer config and
// a decorator resolver carrying the theme overrides.
func (o *Orchestrator) applyTheme(req Request, options *render.RenderOptions) error {
	if o.themeSelector == nil {
		if len(o.decoratorOpts) > 0 && options.Decorators == nil {
			resolver, err := decorators.NewResolver(o.decoratorOpts...)
			if err != nil {
				return fmt.Errorf("orchestrator: decorators: %w", err)
			}
			options.Decorators = resolver
		}
		return nil
	}

	selection, err := o.themeSelector.Select(req.ThemeName, req.ThemeVariant)
	if err != nil {
		return fmt.Errorf("orchestrator: select theme: %w", err)
	}
	if options.Theme == nil {
		options.Theme = render.ThemeConfig(selection)
	}
	if options.Decorators == nil {
		resolver, err := decorators.NewResolver(append(append([]decorators.Option(nil), o.decoratorOpts...), decorators.WithTheme(selection))...)
		if err != nil {
			return fmt.Errorf("orchestrator: decorators: %w", err)
		}
		options.Decorators = resolver
	}
	return nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.renderers == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.renderers.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.renderers.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.renderers.Get(names[0])
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = schemaloader.New(schema.NewLoaderOptions(schema.WithFileSystem(o.files)))
	}
	if o.adapters == nil {
		o.adapters = NewAdapterRegistry()
		o.adapters.MustRegister(jsonschema.NewAdapter(o.loader))
		o.adapters.MustRegister(openapi.NewAdapter(o.loader))
	}
	if o.renderers == nil {
		o.renderers = render.NewRegistry()
		html, err := render.NewHTML(render.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.renderers.MustRegister(html)
		}
		o.renderers.MustRegister(render.NewJSON(render.WithIndent("  ")))
	}
	if o.layoutFS != nil {
		store, err := uischema.LoadFS(o.layoutFS, o.layoutRoot)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load layouts: %w", err)
			return
		}
		o.layouts = store
	}
}
