package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/keypath"
)

// HiddenField is a hidden input rendered before the fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField; non-string values use their fmt form.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken carries a CSRF token under the backend's input name.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// ParseHidden reads a "name=value" pair.
func ParseHidden(pair string) (HiddenField, error) {
	name, value, ok := strings.Cut(pair, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return HiddenField{}, fmt.Errorf("render: hidden field %q: want name=value", pair)
	}
	return Hidden(name, value), nil
}

// CarryModel copies model values no field renders (record ids, versions for
// optimistic locking) into hidden inputs named by their dotted key. Missing
// and nil values are skipped; mappings and lists are rejected.
func CarryModel(ctrl *field.Controller, keys ...string) ([]HiddenField, error) {
	out := make([]HiddenField, 0, len(keys))
	for _, raw := range keys {
		key, err := keypath.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("render: carry %q: %w", raw, err)
		}
		value, ok := ctrl.Model().Get(key)
		if !ok || value == nil {
			continue
		}
		switch value.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("render: carry %q: value is not a scalar", raw)
		}
		out = append(out, Hidden(key.Dotted(), scalarString(value)))
	}
	return out, nil
}

func scalarString(value any) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprint(int64(f))
	}
	return fmt.Sprint(value)
}

// MergeHiddenFields returns base with fields applied on top. Blank names are
// dropped and later fields win; the result is nil when nothing remains.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	for _, h := range fields {
		if name := strings.TrimSpace(h.Name); name != "" {
			out[name] = h.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields lists fields by name.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	clean := MergeHiddenFields(fields)
	out := make([]HiddenField, 0, len(clean))
	for _, name := range slices.Sorted(maps.Keys(clean)) {
		out = append(out, HiddenField{Name: name, Value: clean[name]})
	}
	return out
}
