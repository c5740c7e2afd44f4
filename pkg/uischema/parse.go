package uischema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/jsonschema"
	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// Parse decodes a JSON or YAML layout array.
func Parse(raw []byte) (Layout, error) {
	decoded, err := jsonschema.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("uischema: %w", err)
	}
	return FromValue(jsonschema.Plain(decoded))
}

// FromValue converts decoded data into a layout. Strings are key references
// or the wildcard; objects are inline descriptors.
func FromValue(value any) (Layout, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("uischema: layout must be an array, got %T", value)
	}
	return parseEntries(list, "")
}

func parseEntries(list []any, pointer string) (Layout, error) {
	out := make(Layout, 0, len(list))
	for idx, raw := range list {
		at := fmt.Sprintf("%s[%d]", pointer, idx)
		entry, err := parseEntry(raw, at)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func parseEntry(raw any, at string) (Entry, error) {
	switch typed := raw.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == WildcardToken {
			return Wildcard(), nil
		}
		key, err := keypath.Parse(trimmed)
		if err != nil {
			return Entry{}, fmt.Errorf("uischema: entry %s: %w", at, err)
		}
		return KeyRef(key), nil
	case map[string]any:
		inline, err := parseInline(typed, at)
		if err != nil {
			return Entry{}, err
		}
		return InlineEntry(inline), nil
	default:
		return Entry{}, fmt.Errorf("uischema: entry %s must be a string or an object, got %T", at, raw)
	}
}

func parseInline(raw map[string]any, at string) (*Inline, error) {
	in := &Inline{}
	fail := func(key, format string, args ...any) error {
		return fmt.Errorf("uischema: entry %s: %s: %s", at, key, fmt.Sprintf(format, args...))
	}

	// Sorted for deterministic error reporting.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		switch key {
		case "key":
			path, err := parseKey(value)
			if err != nil {
				return nil, fail(key, "%v", err)
			}
			in.Key = path
		case "type", "title", "description", "placeholder", "condition":
			text, ok := value.(string)
			if !ok {
				return nil, fail(key, "must be a string")
			}
			switch key {
			case "type":
				in.Type = &text
			case "title":
				in.Title = &text
			case "description":
				in.Description = &text
			case "placeholder":
				in.Placeholder = &text
			case "condition":
				in.Condition = &text
			}
		case "notitle", "readonly", "required":
			flag, ok := value.(bool)
			if !ok {
				return nil, fail(key, "must be a boolean")
			}
			switch key {
			case "notitle":
				in.NoTitle = &flag
			case "readonly":
				in.ReadOnly = &flag
			case "required":
				in.Required = &flag
			}
		case "destroyStrategy":
			text, _ := value.(string)
			strategy := model.DestroyStrategy(text)
			if !strategy.Valid() {
				return nil, fail(key, "unknown strategy %v", value)
			}
			in.DestroyStrategy = &strategy
		case "validationMessage":
			messages, err := model.MessagesFromValue(value)
			if err != nil {
				return nil, fail(key, "%v", err)
			}
			in.ValidationMessage = &messages
		case "onClick":
			text, ok := value.(string)
			if !ok {
				return nil, fail(key, "must be an expression string")
			}
			in.OnClick = model.Expression(text)
		case "titleMap":
			choices, err := parseTitleMap(value)
			if err != nil {
				return nil, fail(key, "%v", err)
			}
			in.Choices = choices
		case "items":
			list, ok := value.([]any)
			if !ok {
				return nil, fail(key, "must be an array")
			}
			items, err := parseEntries(list, at+".items")
			if err != nil {
				return nil, err
			}
			in.Items = items
		default:
			if in.Extra == nil {
				in.Extra = make(map[string]any)
			}
			in.Extra[key] = value
		}
	}
	return in, nil
}

func parseKey(value any) (keypath.Path, error) {
	switch typed := value.(type) {
	case string:
		return keypath.Parse(typed)
	case []any:
		return keypath.FromList(typed)
	default:
		return nil, fmt.Errorf("must be a string or a list of segments, got %T", value)
	}
}

// parseTitleMap accepts a list of {name, value} objects or a value-to-name
// object. The object form is ordered by value.
func parseTitleMap(value any) ([]model.Choice, error) {
	switch typed := value.(type) {
	case []any:
		out := make([]model.Choice, 0, len(typed))
		for idx, item := range typed {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("entry %d must be an object", idx)
			}
			name, _ := obj["name"].(string)
			out = append(out, model.Choice{Name: name, Value: obj["value"]})
		}
		return out, nil
	case map[string]any:
		values := make([]string, 0, len(typed))
		for v := range typed {
			values = append(values, v)
		}
		sort.Strings(values)
		out := make([]model.Choice, 0, len(values))
		for _, v := range values {
			name, _ := typed[v].(string)
			out = append(out, model.Choice{Name: name, Value: v})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be an array or an object, got %T", value)
	}
}
