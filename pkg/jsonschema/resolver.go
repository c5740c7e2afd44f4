package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

// Source and Loader are the schema package types refs are loaded through.
type (
	Source = schema.Source
	Loader = schema.Loader
)

const (
	defaultMaxDocuments = 128
	defaultMaxRefDepth  = 64
)

var errNilResolver = errors.New("jsonschema resolver: resolver is nil")

// ResolveOptions configures $ref resolution.
type ResolveOptions struct {
	// AllowPathTraversal permits refs to escape the root document directory.
	AllowPathTraversal bool
	// MaxDocuments caps the number of unique documents loaded during resolution.
	MaxDocuments int
	// MaxRefDepth caps the depth of $ref chains.
	MaxRefDepth int
}

// Resolver inlines $ref targets. Local pointers and anchors always resolve;
// sibling documents need a Loader.
type Resolver struct {
	loader Loader
	opts   ResolveOptions
}

// NewResolver constructs a resolver. loader may be nil when only local refs
// are expected.
func NewResolver(loader Loader, opts ResolveOptions) *Resolver {
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = defaultMaxDocuments
	}
	if opts.MaxRefDepth <= 0 {
		opts.MaxRefDepth = defaultMaxRefDepth
	}
	return &Resolver{loader: loader, opts: opts}
}

// Resolve returns a copy of payload with every $ref replaced by its target.
// Keywords next to a $ref override the target's keywords.
func (r *Resolver) Resolve(ctx context.Context, doc schema.Document, payload any) (any, error) {
	walk, root, err := r.begin(doc, payload)
	if err != nil {
		return nil, err
	}
	return walk.node(ctx, root, root.data)
}

// ResolvePointer resolves the node at pointer (a "#/..." fragment) inside
// payload, following refs relative to the whole document. OpenAPI documents
// use it to pull a single schema out of components or paths.
func (r *Resolver) ResolvePointer(ctx context.Context, doc schema.Document, payload any, pointer string) (any, error) {
	walk, root, err := r.begin(doc, payload)
	if err != nil {
		return nil, err
	}
	entry := NewObject()
	entry.Set("$ref", "#"+strings.TrimPrefix(pointer, "#"))
	return walk.node(ctx, root, entry)
}

func (r *Resolver) begin(doc schema.Document, payload any) (*refWalk, *refDocument, error) {
	if r == nil {
		return nil, nil, errNilResolver
	}
	src := doc.Source()
	if src == nil {
		return nil, nil, errors.New("jsonschema resolver: source is nil")
	}
	if payload == nil {
		return nil, nil, errors.New("jsonschema resolver: payload is nil")
	}
	root, err := newRefDocument(src, payload)
	if err != nil {
		return nil, nil, err
	}
	walk := &refWalk{
		loader:  r.loader,
		opts:    r.opts,
		rootDir: root.baseDir,
		docs:    map[string]*refDocument{root.key: root},
	}
	return walk, root, nil
}

// refDocument is one loaded document with its anchor index.
type refDocument struct {
	key     string
	kind    schema.SourceKind
	baseDir string
	data    any
	anchors map[string]string
}

func newRefDocument(src Source, payload any) (*refDocument, error) {
	key, baseDir, err := documentKey(src)
	if err != nil {
		return nil, err
	}
	anchors := map[string]string{}
	if err := indexAnchors(payload, "#", anchors); err != nil {
		return nil, err
	}
	return &refDocument{key: key, kind: src.Kind(), baseDir: baseDir, data: payload, anchors: anchors}, nil
}

// refWalk is the state of one Resolve call: loaded documents by key and the
// chain of refs currently being expanded.
type refWalk struct {
	loader  Loader
	opts    ResolveOptions
	rootDir string
	docs    map[string]*refDocument
	chain   []string
}

func (w *refWalk) node(ctx context.Context, doc *refDocument, node any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch typed := node.(type) {
	case *Object:
		if raw, ok := typed.Get("$ref"); ok {
			ref, _ := raw.(string)
			if ref = strings.TrimSpace(ref); ref == "" {
				return nil, errors.New("jsonschema resolver: $ref must be a non-empty string")
			}
			return w.follow(ctx, doc, ref, typed)
		}
		return w.object(ctx, doc, typed)
	case []any:
		out := make([]any, len(typed))
		for i, entry := range typed {
			child, err := w.node(ctx, doc, entry)
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	default:
		return node, nil
	}
}

func (w *refWalk) object(ctx context.Context, doc *refDocument, obj *Object) (*Object, error) {
	out := NewObject()
	for _, key := range obj.keys {
		value := obj.values[key]
		members, isMap := value.(*Object)
		switch {
		case key == "$defs" || key == "definitions":
			// Definitions are only reached through refs, which keeps
			// recursive definitions from tripping cycle detection.
			out.Set(key, value)
		case isSchemaMap(key) && isMap:
			children := NewObject()
			for _, name := range members.keys {
				child, err := w.node(ctx, doc, members.values[name])
				if err != nil {
					return nil, err
				}
				children.Set(name, child)
			}
			out.Set(key, children)
		case isSchemaValue(key):
			child, err := w.node(ctx, doc, value)
			if err != nil {
				return nil, err
			}
			out.Set(key, child)
		default:
			out.Set(key, value)
		}
	}
	return out, nil
}

// isSchemaMap lists keywords whose value maps names to subschemas.
func isSchemaMap(key string) bool {
	switch key {
	case "properties", "patternProperties", "$defs", "definitions", "dependentSchemas":
		return true
	default:
		return false
	}
}

// isSchemaValue lists keywords holding a subschema or a list of them.
// Everything else (enum, const, default, examples, vendor data) is copied
// untouched so a literal "$ref" member inside data is never followed.
func isSchemaValue(key string) bool {
	switch key {
	case "items", "prefixItems", "additionalItems", "additionalProperties", "contains",
		"propertyNames", "not", "if", "then", "else", "unevaluatedItems", "unevaluatedProperties",
		"oneOf", "anyOf", "allOf":
		return true
	default:
		return false
	}
}

func (w *refWalk) follow(ctx context.Context, doc *refDocument, ref string, site *Object) (any, error) {
	target, fragment, err := w.targetDocument(ctx, doc, ref)
	if err != nil {
		return nil, err
	}
	id := target.key + "#" + fragment
	if len(w.chain) >= w.opts.MaxRefDepth {
		return nil, fmt.Errorf("jsonschema resolver: ref depth exceeds %d", w.opts.MaxRefDepth)
	}
	if slices.Contains(w.chain, id) {
		return nil, fmt.Errorf("jsonschema resolver: ref cycle detected at %s", ref)
	}

	value, err := target.fragment(fragment)
	if err != nil {
		return nil, err
	}
	merged, err := overlay(value, site)
	if err != nil {
		return nil, err
	}

	w.chain = append(w.chain, id)
	defer func() { w.chain = w.chain[:len(w.chain)-1] }()
	return w.node(ctx, target, merged)
}

// overlay copies the keywords written next to a $ref over its target.
func overlay(target any, site *Object) (any, error) {
	copied := cloneValue(target)
	obj, ok := copied.(*Object)
	if !ok {
		if site.Len() > 1 {
			return nil, errors.New("jsonschema resolver: $ref target is not an object")
		}
		return copied, nil
	}
	for _, key := range site.keys {
		if key != "$ref" {
			obj.Set(key, site.values[key])
		}
	}
	return obj, nil
}

func (w *refWalk) targetDocument(ctx context.Context, doc *refDocument, ref string) (*refDocument, string, error) {
	refPath, fragment, _ := strings.Cut(ref, "#")
	if refPath == "" {
		return doc, fragment, nil
	}

	parsed, err := url.Parse(refPath)
	if err != nil {
		return nil, "", fmt.Errorf("jsonschema resolver: invalid ref %q", ref)
	}
	var src Source
	switch parsed.Scheme {
	case "":
		src, err = w.relativeSource(doc, parsed.Path)
	case "file":
		src = schema.SourceFromFile(parsed.Path)
	default:
		err = fmt.Errorf("jsonschema resolver: unsupported ref scheme %q (%s)", parsed.Scheme, ref)
	}
	if err != nil {
		return nil, "", err
	}
	target, err := w.load(ctx, src)
	return target, fragment, err
}

func (w *refWalk) load(ctx context.Context, src Source) (*refDocument, error) {
	if w.loader == nil {
		return nil, fmt.Errorf("jsonschema resolver: no loader configured for %s", src.Location())
	}
	key, _, err := documentKey(src)
	if err != nil {
		return nil, err
	}
	if cached, ok := w.docs[key]; ok {
		return cached, nil
	}
	if len(w.docs) >= w.opts.MaxDocuments {
		return nil, fmt.Errorf("jsonschema resolver: exceeded max documents (%d)", w.opts.MaxDocuments)
	}

	loaded, err := w.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("jsonschema resolver: load %s: %w", src.Location(), err)
	}
	payload, err := Decode(loaded.Raw())
	if err != nil {
		return nil, err
	}
	doc, err := newRefDocument(src, payload)
	if err != nil {
		return nil, err
	}
	w.docs[key] = doc
	return doc, nil
}

func (w *refWalk) relativeSource(doc *refDocument, refPath string) (Source, error) {
	switch doc.kind {
	case schema.SourceKindFile:
		candidate := refPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(doc.baseDir, refPath)
		}
		candidate = filepath.Clean(candidate)
		if !w.opts.AllowPathTraversal {
			rel, err := filepath.Rel(w.rootDir, candidate)
			if err != nil || strings.HasPrefix(rel, "..") {
				return nil, fmt.Errorf("jsonschema resolver: ref path escapes root (%s)", refPath)
			}
		}
		return schema.SourceFromFile(candidate), nil
	case schema.SourceKindFS:
		candidate := strings.TrimPrefix(path.Clean(path.Join(doc.baseDir, refPath)), "/")
		if !w.opts.AllowPathTraversal && escapesFSRoot(w.rootDir, candidate) {
			return nil, fmt.Errorf("jsonschema resolver: ref path escapes root (%s)", refPath)
		}
		return schema.SourceFromFS(candidate), nil
	case schema.SourceKindInline:
		// Inline documents reference each other by registered name.
		return schema.SourceInline(refPath), nil
	default:
		return nil, fmt.Errorf("jsonschema resolver: cannot follow relative ref %q from a %s document", refPath, doc.kind)
	}
}

func escapesFSRoot(root, candidate string) bool {
	root = strings.TrimPrefix(path.Clean(root), "/")
	if root == "." || root == "" {
		return strings.HasPrefix(candidate, "..")
	}
	return candidate != root && !strings.HasPrefix(candidate, root+"/")
}

// documentKey identifies a document across refs and reports the directory
// its relative refs start from.
func documentKey(src Source) (key, baseDir string, err error) {
	if src == nil {
		return "", "", errors.New("jsonschema resolver: source is nil")
	}
	location := src.Location()
	switch src.Kind() {
	case schema.SourceKindFile:
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", "", err
		}
		return "file:" + abs, filepath.Dir(abs), nil
	case schema.SourceKindFS:
		cleaned := path.Clean(strings.TrimPrefix(location, "/"))
		return "fs:" + cleaned, path.Dir(cleaned), nil
	default:
		return string(src.Kind()) + ":" + location, "", nil
	}
}

// fragment returns a copy of the node a "#..." fragment names: empty for the
// whole document, a JSON pointer, or an $anchor name.
func (d *refDocument) fragment(fragment string) (any, error) {
	pointer := fragment
	if fragment != "" && !strings.HasPrefix(fragment, "/") {
		anchored, ok := d.anchors[fragment]
		if !ok {
			return nil, fmt.Errorf("jsonschema resolver: anchor %q not found", fragment)
		}
		pointer = strings.TrimPrefix(anchored, "#")
	}

	current := d.data
	if pointer == "" {
		return cloneValue(current), nil
	}
	for _, token := range strings.Split(pointer, "/")[1:] {
		decoded, err := url.PathUnescape(token)
		if err != nil {
			return nil, err
		}
		decoded = strings.NewReplacer("~1", "/", "~0", "~").Replace(decoded)

		switch typed := current.(type) {
		case *Object:
			value, ok := typed.Get(decoded)
			if !ok {
				return nil, fmt.Errorf("jsonschema resolver: pointer %q not found", pointer)
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(decoded)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, fmt.Errorf("jsonschema resolver: pointer %q out of range", pointer)
			}
			current = typed[idx]
		default:
			return nil, fmt.Errorf("jsonschema resolver: pointer %q invalid", pointer)
		}
	}
	return cloneValue(current), nil
}

// indexAnchors maps every $anchor reachable through schema keywords to its
// pointer. Duplicate anchors in one document are an error.
func indexAnchors(node any, pointer string, anchors map[string]string) error {
	switch typed := node.(type) {
	case *Object:
		if raw, ok := typed.Get("$anchor"); ok {
			if name, _ := raw.(string); strings.TrimSpace(name) != "" {
				name = strings.TrimSpace(name)
				if _, taken := anchors[name]; taken {
					return fmt.Errorf("jsonschema resolver: duplicate anchor %q", name)
				}
				anchors[name] = pointer
			}
		}
		for _, key := range typed.keys {
			value := typed.values[key]
			at := joinPath(pointer, key)
			if members, ok := value.(*Object); ok && isSchemaMap(key) {
				for _, name := range members.keys {
					if err := indexAnchors(members.values[name], joinPath(at, name), anchors); err != nil {
						return err
					}
				}
			} else if isSchemaValue(key) {
				if err := indexAnchors(value, at, anchors); err != nil {
					return err
				}
			}
		}
	case []any:
		for idx, value := range typed {
			if err := indexAnchors(value, joinPath(pointer, strconv.Itoa(idx)), anchors); err != nil {
				return err
			}
		}
	}
	return nil
}
