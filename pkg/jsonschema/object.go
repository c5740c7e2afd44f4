package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

// Object is a decoded JSON object that remembers member order. Schema
// documents decode into Objects so property order survives normalization.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores value under key, appending key when it is new.
func (o *Object) Set(key string, value any) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the member stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.values[key]
	return value, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns member names in declaration order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Plain converts decoded values into plain maps and slices, dropping order.
func Plain(value any) any {
	switch typed := value.(type) {
	case *Object:
		out := make(map[string]any, typed.Len())
		for _, key := range typed.keys {
			out[key] = Plain(typed.values[key])
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Plain(item)
		}
		return out
	default:
		return value
	}
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case *Object:
		out := &Object{keys: append([]string(nil), typed.keys...), values: make(map[string]any, len(typed.values))}
		for key, val := range typed.values {
			out.values[key] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

// Decode parses a JSON or YAML payload keeping object member order. Numbers
// decode as float64.
func Decode(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("jsonschema: raw schema is empty")
	}
	if schema.DetectEncoding(trimmed) == schema.EncodingJSON {
		return decodeJSON(trimmed)
	}
	return decodeYAML(trimmed)
}

func decodeJSON(raw []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	value, err := decodeNext(dec)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: parse schema: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("jsonschema: parse schema: trailing data after document")
	}
	return value, nil
}

func decodeNext(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %T", keyTok)
				}
				member, err := decodeNext(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, member)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := make([]any, 0)
			for dec.More() {
				item, err := decodeNext(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	case gojson.Number:
		n, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case float64, string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func decodeYAML(raw []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("jsonschema: parse schema: %w", err)
	}
	value, err := fromYAMLNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: parse schema: %w", err)
	}
	return value, nil
}

func fromYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0])
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			member, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(keyNode.Value, member)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := fromYAMLNode(child)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		switch n := value.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case uint64:
			return float64(n), nil
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", node.Line)
	}
}
