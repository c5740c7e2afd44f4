package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

const DefaultAdapterName = "openapi"

// preferredMediaTypes are tried in order before falling back to the first
// declared media type.
var preferredMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// Selector picks the schema a form is built from. Component wins when set;
// otherwise the operation is matched by OperationID or by Method and Path.
type Selector struct {
	Component   string
	OperationID string
	Method      string
	Path        string
	MediaType   string
}

func (s Selector) isZero() bool {
	return s.Component == "" && s.OperationID == "" && s.Path == ""
}

// OperationRef describes an operation that carries a request body.
type OperationRef struct {
	ID        string
	Method    string
	Path      string
	Summary   string
	MediaType string
	Pointer   string
}

// Adapter extracts form schemas from OpenAPI 3 documents.
type Adapter struct {
	selector Selector
	validate bool
	resolver *jsonschema.Resolver
}

var _ schema.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithSelector chooses the component or operation to extract.
func WithSelector(selector Selector) Option {
	return func(a *Adapter) {
		a.selector = selector
	}
}

// WithValidation toggles document validation before extraction.
func WithValidation(enabled bool) Option {
	return func(a *Adapter) {
		a.validate = enabled
	}
}

// NewAdapter constructs an adapter. loader serves refs to sibling files and
// may be nil.
func NewAdapter(loader schema.Loader, options ...Option) *Adapter {
	adapter := &Adapter{validate: true}
	for _, opt := range options {
		if opt != nil {
			opt(adapter)
		}
	}
	adapter.resolver = jsonschema.NewResolver(loader, jsonschema.ResolveOptions{})
	return adapter
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return DefaultAdapterName
}

// Detect reports whether raw looks like an OpenAPI 3 document.
func (a *Adapter) Detect(_ schema.Source, raw []byte) bool {
	payload, err := jsonschema.Decode(raw)
	if err != nil {
		return false
	}
	obj, ok := payload.(*jsonschema.Object)
	if !ok {
		return false
	}
	version, _ := obj.Get("openapi")
	text, _ := version.(string)
	return strings.HasPrefix(text, "3.")
}

// Normalize loads the document, locates the selected schema and converts it
// into the ordered schema tree.
func (a *Adapter) Normalize(ctx context.Context, doc schema.Document) (*schema.Schema, error) {
	spec, payload, err := a.load(ctx, doc)
	if err != nil {
		return nil, err
	}
	pointer, err := a.locate(spec, payload)
	if err != nil {
		return nil, err
	}
	resolved, err := a.resolver.ResolvePointer(ctx, doc, payload, pointer)
	if err != nil {
		return nil, fmt.Errorf("openapi adapter: %w", err)
	}
	return jsonschema.FromDocument(resolved)
}

// Operations lists every operation with a request body, sorted by path then
// method.
func (a *Adapter) Operations(ctx context.Context, doc schema.Document) ([]OperationRef, error) {
	spec, _, err := a.load(ctx, doc)
	if err != nil {
		return nil, err
	}
	return collectOperations(spec), nil
}

func (a *Adapter) load(ctx context.Context, doc schema.Document) (*openapi3.T, any, error) {
	raw := doc.Raw()
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("openapi adapter: load document: %w", err)
	}
	if a.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, nil, fmt.Errorf("openapi adapter: validate: %w", err)
		}
	}
	payload, err := jsonschema.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("openapi adapter: %w", err)
	}
	return spec, payload, nil
}

func (a *Adapter) locate(spec *openapi3.T, payload any) (string, error) {
	sel := a.selector
	if sel.isZero() {
		return "", errors.New("openapi adapter: selector requires a component or an operation")
	}

	if sel.Component != "" {
		if _, ok := lookup(payload, "components", "schemas", sel.Component); !ok {
			return "", fmt.Errorf("openapi adapter: component schema %q not found", sel.Component)
		}
		return "#/components/schemas/" + escapePointer(sel.Component), nil
	}

	for _, op := range collectOperations(spec) {
		if sel.OperationID != "" && op.ID != sel.OperationID {
			continue
		}
		if sel.OperationID == "" && (op.Path != sel.Path || !strings.EqualFold(op.Method, sel.Method)) {
			continue
		}
		if sel.MediaType == "" || sel.MediaType == op.MediaType {
			return op.Pointer, nil
		}
		return mediaPointer(spec, op, sel.MediaType)
	}
	return "", fmt.Errorf("openapi adapter: no operation with a request body matches %+v", sel)
}

func collectOperations(spec *openapi3.T) []OperationRef {
	if spec == nil || spec.Paths == nil {
		return nil
	}
	paths := make([]string, 0, spec.Paths.Len())
	for p := range spec.Paths.Map() {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []OperationRef
	for _, p := range paths {
		item := spec.Paths.Value(p)
		if item == nil {
			continue
		}
		for _, entry := range []struct {
			method string
			op     *openapi3.Operation
		}{
			{"POST", item.Post},
			{"PUT", item.Put},
			{"PATCH", item.Patch},
			{"GET", item.Get},
			{"DELETE", item.Delete},
		} {
			if entry.op == nil || entry.op.RequestBody == nil {
				continue
			}
			ref, ok := operationRef(entry.method, p, entry.op)
			if ok {
				out = append(out, ref)
			}
		}
	}
	return out
}

func operationRef(method, path string, op *openapi3.Operation) (OperationRef, bool) {
	body := op.RequestBody
	if body.Value == nil {
		return OperationRef{}, false
	}
	mediaType, ok := pickMediaType(body.Value.Content, "")
	if !ok {
		return OperationRef{}, false
	}

	id := op.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	return OperationRef{
		ID:        id,
		Method:    method,
		Path:      path,
		Summary:   op.Summary,
		MediaType: mediaType,
		Pointer:   schemaPointer(method, path, body, mediaType),
	}, true
}

func mediaPointer(spec *openapi3.T, op OperationRef, mediaType string) (string, error) {
	item := spec.Paths.Value(op.Path)
	if item == nil {
		return "", fmt.Errorf("openapi adapter: path %q not found", op.Path)
	}
	operation := item.GetOperation(op.Method)
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return "", fmt.Errorf("openapi adapter: %s %s has no request body", op.Method, op.Path)
	}
	if _, ok := operation.RequestBody.Value.Content[mediaType]; !ok {
		return "", fmt.Errorf("openapi adapter: %s %s does not accept %s", op.Method, op.Path, mediaType)
	}
	return schemaPointer(op.Method, op.Path, operation.RequestBody, mediaType), nil
}

func schemaPointer(method, path string, body *openapi3.RequestBodyRef, mediaType string) string {
	if mt := body.Value.Content[mediaType]; mt != nil && mt.Schema != nil && strings.HasPrefix(mt.Schema.Ref, "#/") {
		return mt.Schema.Ref
	}
	base := "#/paths/" + escapePointer(path) + "/" + strings.ToLower(method) + "/requestBody"
	if strings.HasPrefix(body.Ref, "#/") {
		base = body.Ref
	}
	return base + "/content/" + escapePointer(mediaType) + "/schema"
}

func pickMediaType(content openapi3.Content, want string) (string, bool) {
	if want != "" {
		_, ok := content[want]
		return want, ok
	}
	for _, candidate := range preferredMediaTypes {
		if mt, ok := content[candidate]; ok && mt != nil && mt.Schema != nil {
			return candidate, true
		}
	}
	names := make([]string, 0, len(content))
	for name, mt := range content {
		if mt != nil && mt.Schema != nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

func lookup(node any, keys ...string) (any, bool) {
	current := node
	for _, key := range keys {
		obj, ok := current.(*jsonschema.Object)
		if !ok {
			return nil, false
		}
		current, ok = obj.Get(key)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func escapePointer(segment string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(segment)
}

// ExtractSchema is a shorthand for NewAdapter(nil, WithSelector(sel)).Normalize.
func ExtractSchema(ctx context.Context, doc schema.Document, sel Selector) (*schema.Schema, error) {
	return NewAdapter(nil, WithSelector(sel)).Normalize(ctx, doc)
}
