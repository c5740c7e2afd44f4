package jsonschema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

// DefaultAdapterName is the format name JSON Schema documents register under.
const DefaultAdapterName = "jsonschema"

// Adapter decodes, resolves and normalizes JSON Schema documents.
type Adapter struct {
	loader      Loader
	resolveOpts ResolveOptions
	resolver    *Resolver
}

var _ schema.Adapter = (*Adapter)(nil)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithResolver replaces the resolver built from the loader.
func WithResolver(resolver *Resolver) AdapterOption {
	return func(a *Adapter) {
		a.resolver = resolver
	}
}

// WithResolverOptions configures the resolver built from the loader.
func WithResolverOptions(options ResolveOptions) AdapterOption {
	return func(a *Adapter) {
		a.resolveOpts = options
	}
}

// NewAdapter constructs an adapter. loader serves relative $refs and may be
// nil when documents are self-contained.
func NewAdapter(loader Loader, options ...AdapterOption) *Adapter {
	a := &Adapter{loader: loader}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	if a.resolver == nil {
		a.resolver = NewResolver(a.loader, a.resolveOpts)
	}
	return a
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return DefaultAdapterName
}

// Detect reports whether the raw payload looks like a JSON Schema.
func (a *Adapter) Detect(_ schema.Source, raw []byte) bool {
	return detectJSONSchema(raw)
}

// Normalize resolves refs and converts the document into the schema tree.
func (a *Adapter) Normalize(ctx context.Context, doc schema.Document) (*schema.Schema, error) {
	if a == nil || a.resolver == nil {
		return nil, errors.New("jsonschema adapter: resolver is nil")
	}
	payload, err := Decode(doc.Raw())
	if err != nil {
		return nil, err
	}
	if err := validateDialect(payload); err != nil {
		return nil, err
	}
	resolved, err := a.resolver.Resolve(ctx, doc, payload)
	if err != nil {
		return nil, err
	}
	return FromDocument(resolved)
}

// Parse normalizes an in-memory, self-contained schema.
func Parse(raw []byte) (*schema.Schema, error) {
	doc, err := schema.NewDocument(schema.SourceInline("schema.json"), raw)
	if err != nil {
		return nil, err
	}
	return NewAdapter(nil).Normalize(context.Background(), doc)
}

// MustParse is Parse for fixtures; it panics on error.
func MustParse(raw string) *schema.Schema {
	out, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return out
}

// dialects are the $schema URIs the converter understands, keyed without
// scheme or trailing fragment.
var dialects = map[string]bool{
	"json-schema.org/draft-04/schema":      true,
	"json-schema.org/draft-06/schema":      true,
	"json-schema.org/draft-07/schema":      true,
	"json-schema.org/draft/2019-09/schema": true,
	"json-schema.org/draft/2020-12/schema": true,
}

func validateDialect(payload any) error {
	obj, ok := payload.(*Object)
	if !ok {
		return nil
	}
	raw, declared := obj.Get("$schema")
	if !declared {
		return nil
	}
	uri, ok := raw.(string)
	if !ok {
		return errors.New("jsonschema: $schema must be a string")
	}
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || !dialects[parsed.Host+parsed.Path] {
		return fmt.Errorf("jsonschema: unsupported $schema %q", uri)
	}
	return nil
}

// detectJSONSchema claims objects carrying a schema keyword, except OpenAPI
// and Swagger documents.
func detectJSONSchema(raw []byte) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	payload, err := Decode(raw)
	if err != nil {
		return false
	}
	obj, ok := payload.(*Object)
	if !ok {
		return false
	}
	if obj.Has("openapi") || obj.Has("swagger") {
		return false
	}
	for _, key := range []string{"$schema", "$id", "$defs", "properties", "type", "items"} {
		if obj.Has(key) {
			return true
		}
	}
	return false
}
