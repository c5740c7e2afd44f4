package validation

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	pkgjsonschema "github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// SchemaIssue is a problem with the schema document itself, located by JSON
// pointer and, where the pointer runs through properties, by field path.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaCheck is the outcome of CheckSchema.
type SchemaCheck struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// SchemaCheckOptions configures CheckSchema. Without a Loader, external
// $refs are reported as issues.
type SchemaCheckOptions struct {
	Loader          pkgjsonschema.Loader
	ResolverOptions pkgjsonschema.ResolveOptions
}

// CheckSchema reports whether raw can drive a form. The document must
// resolve, convert into the form schema tree, and pass the draft 2020-12
// metaschema; every metaschema violation is reported, not just the first.
func CheckSchema(ctx context.Context, src schema.Source, raw []byte, opts SchemaCheckOptions) SchemaCheck {
	if src == nil {
		src = schema.SourceInline("schema.json")
	}
	issues := lint(ctx, src, raw, opts)
	return SchemaCheck{Valid: len(issues) == 0, Issues: issues}
}

func lint(ctx context.Context, src schema.Source, raw []byte, opts SchemaCheckOptions) []SchemaIssue {
	doc, err := schema.NewDocument(src, raw)
	if err != nil {
		return issuesFrom(err)
	}
	loader := opts.Loader
	if loader == nil {
		loader = noLoader{}
	}
	adapter := pkgjsonschema.NewAdapter(loader, pkgjsonschema.WithResolverOptions(opts.ResolverOptions))
	normalized, err := adapter.Normalize(ctx, doc)
	if err != nil {
		return issuesFrom(err)
	}
	if _, err := compile(normalized, config{}); err != nil {
		return issuesFrom(err)
	}
	return nil
}

type noLoader struct{}

func (noLoader) Load(context.Context, pkgjsonschema.Source) (schema.Document, error) {
	return schema.Document{}, errors.New("external refs need a loader")
}

var lintPrinter = message.NewPrinter(language.English)

func issuesFrom(err error) []SchemaIssue {
	var unsupported pkgjsonschema.UnsupportedSchemaError
	if errors.As(err, &unsupported) {
		return []SchemaIssue{newSchemaIssue(unsupported.Pointer, unsupported.Reason)}
	}

	var meta *jsv.SchemaValidationError
	var verr *jsv.ValidationError
	if errors.As(err, &meta) && errors.As(meta.Err, &verr) {
		var out []SchemaIssue
		metaschemaLeaves(verr, func(leaf *jsv.ValidationError) {
			issue := newSchemaIssue(locationPointer(leaf.InstanceLocation), leaf.ErrorKind.LocalizedString(lintPrinter))
			if !slices.Contains(out, issue) {
				out = append(out, issue)
			}
		})
		slices.SortStableFunc(out, func(a, b SchemaIssue) int { return cmp.Compare(a.Path, b.Path) })
		return out
	}

	msg := err.Error()
	pointer := ""
	if idx := strings.LastIndex(msg, " at #"); idx >= 0 {
		pointer = strings.TrimRight(strings.Fields(msg[idx+4:])[0], ".,:;)]")
		msg = strings.Replace(msg, " at "+pointer, "", 1)
	}
	for _, prefix := range []string{"validation: ", "jsonschema resolver: ", "jsonschema: ", "schema: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return []SchemaIssue{newSchemaIssue(pointer, msg)}
}

func metaschemaLeaves(verr *jsv.ValidationError, visit func(*jsv.ValidationError)) {
	if len(verr.Causes) == 0 {
		visit(verr)
		return
	}
	for _, cause := range verr.Causes {
		metaschemaLeaves(cause, visit)
	}
}

func newSchemaIssue(pointer, msg string) SchemaIssue {
	return SchemaIssue{Path: pointer, Field: fieldForPointer(pointer), Message: strings.TrimSpace(msg)}
}

func locationPointer(location []string) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, token := range location {
		b.WriteByte('/')
		b.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(token))
	}
	return b.String()
}

// fieldForPointer follows a schema pointer through properties and items
// and returns the field path it lands on, e.g. "#/properties/tags/items"
// is "tags[]". Combinator branches and definitions are stepped over; any
// other keyword ends the walk.
func fieldForPointer(pointer string) string {
	trimmed := strings.Trim(strings.TrimPrefix(strings.TrimSpace(pointer), "#"), "/")
	if trimmed == "" {
		return ""
	}
	tokens := strings.Split(trimmed, "/")
	var path keypath.Path

walk:
	for i := 0; i < len(tokens); i++ {
		next := ""
		if i+1 < len(tokens) {
			next = strings.NewReplacer("~1", "/", "~0", "~").Replace(tokens[i+1])
		}
		switch tokens[i] {
		case "properties", "patternProperties":
			if next == "" {
				break walk
			}
			path = append(path, keypath.Name(next))
			i++
		case "items", "additionalProperties":
			if len(path) > 0 {
				path = append(path, keypath.Wildcard())
			}
		case "prefixItems":
			if n, err := strconv.Atoi(next); err == nil && len(path) > 0 {
				path = append(path, keypath.Index(n))
				i++
			}
		case "oneOf", "anyOf", "allOf", "$defs", "definitions":
			i++
		case "then", "else", "not", "if":
		default:
			break walk
		}
	}
	return path.String()
}
