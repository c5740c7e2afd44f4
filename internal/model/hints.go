package model

import (
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

// ExtensionNamespace is the schema keyword carrying form hints, either as an
// object (`x-schemaform: {widget: radios}`) or as prefixed keywords
// (`x-schemaform-widget: radios`).
const ExtensionNamespace = "x-schemaform"

var (
	hintKeys = []string{
		"class",
		"condition",
		"descriptionKey",
		"destroyStrategy",
		"helpText",
		"helpTextKey",
		"hideLabel",
		"label",
		"labelKey",
		"notitle",
		"placeholder",
		"placeholderKey",
		"readonly",
		"rows",
		"unit",
		"widget",
	}

	hintKeySet = func(keys []string) map[string]struct{} {
		result := make(map[string]struct{}, len(keys))
		for _, key := range keys {
			result[key] = struct{}{}
		}
		return result
	}(hintKeys)
)

// AllowedHintKeys returns a sorted copy of the recognised hint keys.
func AllowedHintKeys() []string {
	keys := append([]string(nil), hintKeys...)
	sort.Strings(keys)
	return keys
}

// IsAllowedHintKey reports whether key participates in the hint contract.
func IsAllowedHintKey(key string) bool {
	_, ok := hintKeySet[key]
	return ok
}

// ParseHints extracts recognised hints from preserved schema keywords. It
// returns nil when none are present.
func ParseHints(keywords map[string]any) map[string]string {
	if len(keywords) == 0 {
		return nil
	}
	var out map[string]string
	put := func(key string, value any) {
		if !IsAllowedHintKey(key) {
			return
		}
		text, ok := CanonicalizeHintValue(value)
		if !ok {
			return
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[key] = text
	}

	if nested, ok := keywords[ExtensionNamespace].(map[string]any); ok {
		for key, value := range nested {
			put(key, value)
		}
	}
	for key, value := range keywords {
		if trimmed, ok := strings.CutPrefix(key, ExtensionNamespace+"-"); ok {
			put(trimmed, value)
		}
	}
	return out
}

// CanonicalizeHintValue turns a hint value into a deterministic string.
// Returns false when the value is empty or not representable.
func CanonicalizeHintValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case map[string]any, []any:
		payload, err := gojson.Marshal(v)
		if err != nil || string(payload) == "{}" || string(payload) == "[]" {
			return "", false
		}
		return string(payload), true
	default:
		return "", false
	}
}

func hintBool(hints map[string]string, key string) bool {
	value, ok := hints[key]
	if !ok {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}
