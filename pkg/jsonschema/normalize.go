package jsonschema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

// UnsupportedSchemaError reports a schema node that cannot be turned into a
// field: a malformed keyword, an unknown type name, or a `false` schema.
type UnsupportedSchemaError struct {
	Pointer string
	Reason  string
}

func (e UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("jsonschema: unsupported schema at %s: %s", e.Pointer, e.Reason)
}

func unsupported(pointer, format string, args ...any) error {
	return UnsupportedSchemaError{Pointer: pointer, Reason: fmt.Sprintf(format, args...)}
}

// modeledKeywords get dedicated Schema fields. Anything else lands in
// Schema.Keywords.
var modeledKeywords = map[string]struct{}{
	"type":             {},
	"format":           {},
	"title":            {},
	"description":      {},
	"default":          {},
	"enum":             {},
	"const":            {},
	"required":         {},
	"properties":       {},
	"items":            {},
	"oneOf":            {},
	"anyOf":            {},
	"allOf":            {},
	"minimum":          {},
	"maximum":          {},
	"exclusiveMinimum": {},
	"exclusiveMaximum": {},
	"multipleOf":       {},
	"minLength":        {},
	"maxLength":        {},
	"minItems":         {},
	"maxItems":         {},
	"uniqueItems":      {},
	"pattern":          {},
	"readOnly":         {},
	"$defs":            {},
	"definitions":      {},
}

// FromDocument converts a resolved document into the schema tree.
func FromDocument(node any) (*schema.Schema, error) {
	return schemaFromNode(node, "#")
}

func schemaFromNode(node any, pointer string) (*schema.Schema, error) {
	switch typed := node.(type) {
	case bool:
		if !typed {
			return nil, unsupported(pointer, "false schema accepts no value")
		}
		return &schema.Schema{Pointer: pointer, Raw: true}, nil
	case *Object:
		return schemaFromObject(typed, pointer)
	case nil:
		return nil, unsupported(pointer, "schema is null")
	default:
		return nil, unsupported(pointer, "schema must be an object, got %T", node)
	}
}

func schemaFromObject(payload *Object, pointer string) (*schema.Schema, error) {
	if ref, ok := payload.Get("$ref"); ok {
		return nil, unsupported(pointer, "unresolved $ref %v", ref)
	}

	out := &schema.Schema{Pointer: pointer, Raw: Plain(payload)}

	types, err := readTypes(payload, pointer)
	if err != nil {
		return nil, err
	}
	out.Types = types

	for _, field := range []struct {
		key    string
		target *string
	}{
		{"format", &out.Format},
		{"title", &out.Title},
		{"description", &out.Description},
		{"pattern", &out.Pattern},
	} {
		value, err := readString(payload, field.key, pointer)
		if err != nil {
			return nil, err
		}
		*field.target = value
	}

	if raw, ok := payload.Get("default"); ok {
		out.Default = Plain(raw)
	}
	if raw, ok := payload.Get("const"); ok {
		out.Const = Plain(raw)
	}
	if raw, ok := payload.Get("enum"); ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, unsupported(pointer, "enum must be an array")
		}
		out.Enum = Plain(list).([]any)
	}

	if raw, ok := payload.Get("required"); ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, unsupported(pointer, "required must be an array")
		}
		out.Required = make([]string, 0, len(list))
		for idx, item := range list {
			name, ok := item.(string)
			if !ok {
				return nil, unsupported(pointer, "required[%d] must be a string", idx)
			}
			out.Required = append(out.Required, name)
		}
	}

	for _, field := range []struct {
		key    string
		target **float64
	}{
		{"minimum", &out.Minimum},
		{"maximum", &out.Maximum},
		{"multipleOf", &out.MultipleOf},
	} {
		value, err := readNumber(payload, field.key, pointer)
		if err != nil {
			return nil, err
		}
		*field.target = value
	}

	// Draft 4 spells exclusive bounds as booleans next to minimum/maximum.
	if out.ExclusiveMinimum, err = readExclusive(payload, "exclusiveMinimum", out.Minimum, pointer); err != nil {
		return nil, err
	}
	if out.ExclusiveMaximum, err = readExclusive(payload, "exclusiveMaximum", out.Maximum, pointer); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		key    string
		target **int
	}{
		{"minLength", &out.MinLength},
		{"maxLength", &out.MaxLength},
		{"minItems", &out.MinItems},
		{"maxItems", &out.MaxItems},
	} {
		value, err := readInt(payload, field.key, pointer)
		if err != nil {
			return nil, err
		}
		*field.target = value
	}

	if out.UniqueItems, err = readBool(payload, "uniqueItems", pointer); err != nil {
		return nil, err
	}
	if out.ReadOnly, err = readBool(payload, "readOnly", pointer); err != nil {
		return nil, err
	}

	if raw, ok := payload.Get("properties"); ok {
		props, ok := raw.(*Object)
		if !ok {
			return nil, unsupported(pointer, "properties must be an object")
		}
		out.Properties = make([]schema.Property, 0, props.Len())
		for _, name := range props.keys {
			child, err := schemaFromNode(props.values[name], joinPath(pointer, "properties", name))
			if err != nil {
				return nil, err
			}
			out.Properties = append(out.Properties, schema.Property{Name: name, Schema: child})
		}
	}

	if raw, ok := payload.Get("items"); ok {
		switch typed := raw.(type) {
		case *Object, bool:
			child, err := schemaFromNode(typed, joinPath(pointer, "items"))
			if err != nil {
				return nil, err
			}
			out.Items = child
		case []any:
			// Tuple form; kept as a keyword, the walker treats items as generic.
		default:
			return nil, unsupported(pointer, "items must be a schema")
		}
	}

	for _, field := range []struct {
		key    string
		target *[]*schema.Schema
	}{
		{"oneOf", &out.OneOf},
		{"anyOf", &out.AnyOf},
		{"allOf", &out.AllOf},
	} {
		raw, ok := payload.Get(field.key)
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, unsupported(pointer, "%s must be an array", field.key)
		}
		variants := make([]*schema.Schema, 0, len(list))
		for idx, entry := range list {
			child, err := schemaFromNode(entry, joinPath(pointer, field.key, strconv.Itoa(idx)))
			if err != nil {
				return nil, err
			}
			variants = append(variants, child)
		}
		*field.target = variants
	}

	for _, key := range payload.keys {
		if _, modeled := modeledKeywords[key]; modeled {
			continue
		}
		if out.Keywords == nil {
			out.Keywords = make(map[string]any)
		}
		out.Keywords[key] = Plain(payload.values[key])
	}
	if raw, ok := payload.Get("items"); ok && out.Items == nil {
		if out.Keywords == nil {
			out.Keywords = make(map[string]any)
		}
		out.Keywords["items"] = Plain(raw)
	}

	return out, nil
}

var knownTypes = map[string]struct{}{
	"object":  {},
	"array":   {},
	"string":  {},
	"number":  {},
	"integer": {},
	"boolean": {},
	"null":    {},
}

func readTypes(payload *Object, pointer string) ([]string, error) {
	raw, ok := payload.Get("type")
	if !ok {
		return nil, nil
	}
	var names []string
	switch typed := raw.(type) {
	case string:
		names = []string{typed}
	case []any:
		for idx, entry := range typed {
			name, ok := entry.(string)
			if !ok {
				return nil, unsupported(pointer, "type[%d] must be a string", idx)
			}
			names = append(names, name)
		}
	default:
		return nil, unsupported(pointer, "type must be a string or an array of strings")
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if _, ok := knownTypes[name]; !ok {
			return nil, unsupported(pointer, "unknown type %q", name)
		}
		names[i] = name
	}
	return names, nil
}

func readString(payload *Object, key, pointer string) (string, error) {
	raw, ok := payload.Get(key)
	if !ok {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", unsupported(pointer, "%s must be a string", key)
	}
	return strings.TrimSpace(value), nil
}

func readBool(payload *Object, key, pointer string) (bool, error) {
	raw, ok := payload.Get(key)
	if !ok {
		return false, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return false, unsupported(pointer, "%s must be a boolean", key)
	}
	return value, nil
}

func readNumber(payload *Object, key, pointer string) (*float64, error) {
	raw, ok := payload.Get(key)
	if !ok {
		return nil, nil
	}
	value, ok := toFloat(raw)
	if !ok {
		return nil, unsupported(pointer, "%s must be a number", key)
	}
	return &value, nil
}

func readInt(payload *Object, key, pointer string) (*int, error) {
	raw, ok := payload.Get(key)
	if !ok {
		return nil, nil
	}
	value, ok := toInt(raw)
	if !ok || value < 0 {
		return nil, unsupported(pointer, "%s must be a non-negative integer", key)
	}
	return &value, nil
}

func readExclusive(payload *Object, key string, bound *float64, pointer string) (*float64, error) {
	raw, ok := payload.Get(key)
	if !ok {
		return nil, nil
	}
	if flag, isBool := raw.(bool); isBool {
		if !flag || bound == nil {
			return nil, nil
		}
		value := *bound
		return &value, nil
	}
	return readNumber(payload, key, pointer)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toInt(value any) (int, bool) {
	f, ok := toFloat(value)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func joinPath(pointer string, segments ...string) string {
	if pointer == "" {
		pointer = "#"
	}
	replacer := strings.NewReplacer("~", "~0", "/", "~1")
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		pointer = pointer + "/" + replacer.Replace(segment)
	}
	return pointer
}
