package pongo

import (
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-schemaform/pkg/render/template"
)

// FilterFunc is a template filter over plain Go values.
type FilterFunc func(input, param any) (any, error)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	loaders   []pongo2.TemplateLoader
	extension string
	globals   pongo2.Context
	filters   map[string]FilterFunc
}

// WithFS adds a filesystem named templates load from. The first filesystem
// holding a name wins.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.loaders = append(cfg.loaders, pongo2.NewFSLoader(files))
		}
	}
}

// WithExtension sets the extension appended to template names that lack
// one. The default is ".html".
func WithExtension(ext string) Option {
	return func(cfg *config) {
		if ext = strings.TrimSpace(ext); ext != "" {
			cfg.extension = "." + strings.TrimPrefix(ext, ".")
		}
	}
}

// WithGlobals makes values visible to every template of the engine.
func WithGlobals(values map[string]any) Option {
	return func(cfg *config) {
		for key, value := range values {
			cfg.globals[key] = normalize(value)
		}
	}
}

// WithFilter installs a filter. pongo2 keeps filters process-wide, so the
// last engine built with a name decides what that name does.
func WithFilter(name string, fn FilterFunc) Option {
	return func(cfg *config) {
		if name = strings.TrimSpace(name); name != "" && fn != nil {
			cfg.filters[name] = fn
		}
	}
}

// Engine compiles pongo2 templates once and caches them by name. Named
// templates come from the configured filesystems; Compile adds sources
// under names of the caller's choosing.
type Engine struct {
	set       *pongo2.TemplateSet
	extension string

	mu       sync.RWMutex
	compiled map[string]*pongo2.Template
}

var (
	_ template.Engine         = (*Engine)(nil)
	_ template.StringRenderer = (*Engine)(nil)
)

// New builds an Engine. Without filesystems it only renders compiled
// sources and strings.
func New(options ...Option) (*Engine, error) {
	cfg := config{
		extension: ".html",
		globals:   pongo2.Context{},
		filters:   map[string]FilterFunc{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.loaders) == 0 {
		cfg.loaders = append(cfg.loaders, pongo2.NewFSLoader(noTemplates{}))
	}
	for name, fn := range cfg.filters {
		if err := installFilter(name, fn); err != nil {
			return nil, err
		}
	}

	set := pongo2.NewSet("schemaform", cfg.loaders...)
	set.Globals.Update(cfg.globals)
	return &Engine{set: set, extension: cfg.extension, compiled: map[string]*pongo2.Template{}}, nil
}

// Compile parses source and caches it under name. A name compiles once;
// later sources for it are ignored.
func (e *Engine) Compile(name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.compiled[name]; ok {
		return nil
	}
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return fmt.Errorf("pongo: compile %q: %w", name, err)
	}
	e.compiled[name] = tmpl
	return nil
}

// RenderTemplate executes a compiled template, or loads name (plus the
// extension) from the filesystems and caches it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return execute(tmpl, name, data, out)
}

// RenderString executes source without caching it.
func (e *Engine) RenderString(source string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return "", fmt.Errorf("pongo: parse: %w", err)
	}
	return execute(tmpl, "inline", data, out)
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.compiled[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	file := name
	if !strings.HasSuffix(file, e.extension) {
		file += e.extension
	}
	tmpl, err := e.set.FromFile(file)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %q: %w", file, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.compiled[name]; ok {
		return cached, nil
	}
	e.compiled[name] = tmpl
	return tmpl, nil
}

func execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	ctx := pongo2.Context{}
	switch v := data.(type) {
	case nil:
	case map[string]any:
		for key, value := range v {
			ctx[key] = normalize(value)
		}
	case pongo2.Context:
		for key, value := range v {
			ctx[key] = normalize(value)
		}
	default:
		return "", fmt.Errorf("pongo: template data must be a map, got %T", data)
	}

	rendered, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("pongo: execute %q: %w", name, err)
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// normalize copies maps and slices so integral float64 model values print
// as integers; pongo2 would print them with six decimals.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
		return v
	default:
		return value
	}
}

func installFilter(name string, fn FilterFunc) error {
	filter := func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, filter)
	}
	return pongo2.RegisterFilter(name, filter)
}

type noTemplates struct{}

func (noTemplates) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
