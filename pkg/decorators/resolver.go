package decorators

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-schemaform/pkg/model"
)

// ThemeTemplatePrefix namespaces decorator entries in a theme manifest's
// Templates map, e.g. "decorators.text".
const ThemeTemplatePrefix = "decorators."

// Origin records which tier produced a template.
type Origin string

const (
	OriginOverride Origin = "override"
	OriginTheme    Origin = "theme"
	OriginBuiltin  Origin = "builtin"
	OriginFallback Origin = "fallback"
)

// Template is the resolved decorator for one descriptor type. Source holds the
// template text; theme templates without a theme filesystem only carry Name,
// which renderers load through their own template loader.
type Template struct {
	Type   string
	Name   string
	Source string
	Origin Origin
}

// Resolver maps descriptor types to decorator templates. Lookup order is
// registered override, theme template, built-in, then the fallback type.
type Resolver struct {
	mu        sync.RWMutex
	overrides map[string]Template
	fragments map[string]string
	builtins  map[string]Template
	themeTpls map[string]string
	themeFS   fs.FS
	fallback  string
}

var _ model.Decorator = (*Resolver)(nil)

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	selection   *theme.Selection
	themeFS     fs.FS
	fallback    string
	noBuiltins  bool
	fragments   map[string]string
	decorations map[string]string
}

// WithTheme makes the selected theme's "decorators.<type>" templates take
// precedence over built-ins. Variant templates override base templates.
func WithTheme(selection *theme.Selection) Option {
	return func(c *resolverConfig) {
		c.selection = selection
	}
}

// WithThemeFS serves theme template references from fsys so resolved theme
// templates carry their source.
func WithThemeFS(fsys fs.FS) Option {
	return func(c *resolverConfig) {
		c.themeFS = fsys
	}
}

// WithFallback sets the type used when nothing matches. An empty name
// disables the fallback tier. The default is "generic".
func WithFallback(typeName string) Option {
	return func(c *resolverConfig) {
		c.fallback = strings.TrimSpace(typeName)
	}
}

// WithoutBuiltins disables the embedded templates.
func WithoutBuiltins() Option {
	return func(c *resolverConfig) {
		c.noBuiltins = true
	}
}

// WithFragments registers additional named fragments for composition.
func WithFragments(fragments map[string]string) Option {
	return func(c *resolverConfig) {
		if c.fragments == nil {
			c.fragments = make(map[string]string, len(fragments))
		}
		for name, source := range fragments {
			c.fragments[name] = source
		}
	}
}

// WithOverrides registers override templates keyed by type.
func WithOverrides(overrides map[string]string) Option {
	return func(c *resolverConfig) {
		if c.decorations == nil {
			c.decorations = make(map[string]string, len(overrides))
		}
		for typeName, source := range overrides {
			c.decorations[typeName] = source
		}
	}
}

// NewResolver builds a resolver with the built-in decorators loaded.
func NewResolver(options ...Option) (*Resolver, error) {
	cfg := resolverConfig{fallback: string(model.KindGeneric)}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	fragments, err := loadBuiltinFragments()
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		overrides: make(map[string]Template),
		fragments: fragments,
		builtins:  map[string]Template{},
		themeTpls: themeTemplates(cfg.selection),
		themeFS:   cfg.themeFS,
		fallback:  cfg.fallback,
	}
	if !cfg.noBuiltins {
		if r.builtins, err = loadBuiltins(fragments); err != nil {
			return nil, err
		}
	}
	for name, source := range cfg.fragments {
		if err := r.RegisterFragment(name, source); err != nil {
			return nil, err
		}
	}
	types := make([]string, 0, len(cfg.decorations))
	for typeName := range cfg.decorations {
		types = append(types, typeName)
	}
	sort.Strings(types)
	for _, typeName := range types {
		if err := r.Register(typeName, cfg.decorations[typeName]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewResolver panics when NewResolver fails.
func MustNewResolver(options ...Option) *Resolver {
	r, err := NewResolver(options...)
	if err != nil {
		panic(err)
	}
	return r
}

func themeTemplates(selection *theme.Selection) map[string]string {
	out := map[string]string{}
	if selection == nil || selection.Manifest == nil {
		return out
	}
	collect := func(templates map[string]string) {
		for key, ref := range templates {
			if typeName, ok := strings.CutPrefix(key, ThemeTemplatePrefix); ok && typeName != "" && ref != "" {
				out[typeName] = ref
			}
		}
	}
	collect(selection.Manifest.Templates)
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		collect(variant.Templates)
	}
	return out
}

// Register adds an override template for typeName. Duplicate registrations
// return an error.
func (r *Resolver) Register(typeName, source string) error {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return fmt.Errorf("decorators: type name is required")
	}
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("decorators: template for %q is empty", typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.overrides[typeName]; exists {
		return fmt.Errorf("decorators: decorator %q already registered", typeName)
	}
	r.overrides[typeName] = Template{
		Type:   typeName,
		Name:   "override:" + typeName,
		Source: source,
		Origin: OriginOverride,
	}
	return nil
}

// RegisterFragment adds a named fragment usable by Compose. Fragments with the
// same name replace earlier ones, including built-in fragments.
func (r *Resolver) RegisterFragment(name, source string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("decorators: fragment name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fragments[name] = source
	return nil
}

// Compose concatenates the named fragments in order.
func (r *Resolver) Compose(fragmentNames ...string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, err := compose(r.fragments, fragmentNames)
	if err != nil {
		return "", fmt.Errorf("decorators: compose: %w", err)
	}
	return source, nil
}

// RegisterComposed registers an override for typeName assembled from
// fragments.
func (r *Resolver) RegisterComposed(typeName string, fragmentNames ...string) error {
	source, err := r.Compose(fragmentNames...)
	if err != nil {
		return err
	}
	return r.Register(typeName, source)
}

// Resolve returns the decorator template for typeName.
func (r *Resolver) Resolve(typeName string) (Template, error) {
	if r == nil {
		return Template{}, DecoratorResolutionError{Type: typeName}
	}
	tpl, ok, err := r.lookup(typeName)
	if err != nil {
		return Template{}, err
	}
	if ok {
		return tpl, nil
	}

	r.mu.RLock()
	fallback := r.fallback
	r.mu.RUnlock()
	if fallback != "" && fallback != typeName {
		tpl, ok, err := r.lookup(fallback)
		if err != nil {
			return Template{}, err
		}
		if ok {
			tpl.Type = typeName
			tpl.Origin = OriginFallback
			return tpl, nil
		}
	}
	return Template{}, DecoratorResolutionError{Type: typeName}
}

func (r *Resolver) lookup(typeName string) (Template, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tpl, ok := r.overrides[typeName]; ok {
		return tpl, true, nil
	}
	if ref, ok := r.themeTpls[typeName]; ok {
		tpl := Template{Type: typeName, Name: ref, Origin: OriginTheme}
		if r.themeFS != nil {
			raw, err := fs.ReadFile(r.themeFS, ref)
			if err != nil {
				return Template{}, false, fmt.Errorf("decorators: theme template %q for %q: %w", ref, typeName, err)
			}
			tpl.Source = string(raw)
		}
		return tpl, true, nil
	}
	if tpl, ok := r.builtins[typeName]; ok {
		return tpl, true, nil
	}
	return Template{}, false, nil
}

// ResolveAll resolves every type used by descriptors and their items. The
// first unresolved type aborts with a DecoratorResolutionError.
func (r *Resolver) ResolveAll(descriptors []*model.Descriptor) (map[string]Template, error) {
	out := make(map[string]Template)
	var firstErr error
	model.Walk(descriptors, func(d *model.Descriptor) bool {
		if firstErr != nil {
			return false
		}
		if _, seen := out[d.Type]; seen {
			return true
		}
		tpl, err := r.Resolve(d.Type)
		if err != nil {
			firstErr = err
			return false
		}
		out[d.Type] = tpl
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Decorate checks that every descriptor type resolves, so resolution fails
// before anything is rendered.
func (r *Resolver) Decorate(descriptors []*model.Descriptor) error {
	_, err := r.ResolveAll(descriptors)
	return err
}

// Types lists every type with a direct template, sorted.
func (r *Resolver) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range r.overrides {
		seen[name] = struct{}{}
	}
	for name := range r.themeTpls {
		seen[name] = struct{}{}
	}
	for name := range r.builtins {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback type.
func (r *Resolver) Fallback() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}
