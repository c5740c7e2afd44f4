package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/model"
)

const (
	labelKeyHint       = "labelKey"
	descriptionKeyHint = "descriptionKey"
	placeholderKeyHint = "placeholderKey"
	helpTextKeyHint    = "helpTextKey"
)

// ErrMissingTranslator is passed to the missing handler when a key is set
// but no Translator was configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler picks the text used when a key does not
// translate. args carries {"default": fallback} as its first element.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	if len(args) > 0 {
		if payload, ok := args[0].(map[string]any); ok {
			if fallback, ok := payload["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// Labels are the user-facing strings of one descriptor after translation.
type Labels struct {
	Title       string
	Description string
	Placeholder string
	HelpText    string
}

// Localize translates the `*Key` hints of d, falling back to the resolved
// strings. The descriptor is left untouched.
func Localize(d *model.Descriptor, opts RenderOptions) Labels {
	if d == nil {
		return Labels{}
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	labels := Labels{
		Title:       d.Title,
		Description: d.Description,
		Placeholder: d.Placeholder,
		HelpText:    hint(d, "helpText"),
	}
	if key := hint(d, labelKeyHint); key != "" {
		labels.Title = translate(opts.Locale, key, labels.Title, opts.Translator, onMissing)
	}
	if key := hint(d, descriptionKeyHint); key != "" {
		labels.Description = translate(opts.Locale, key, labels.Description, opts.Translator, onMissing)
	}
	if key := hint(d, placeholderKeyHint); key != "" {
		labels.Placeholder = translate(opts.Locale, key, labels.Placeholder, opts.Translator, onMissing)
	}
	if key := hint(d, helpTextKeyHint); key != "" {
		labels.HelpText = translate(opts.Locale, key, labels.HelpText, opts.Translator, onMissing)
	}
	return labels
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	args := []any{map[string]any{"default": fallback}}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, args, err)
}

// hint reads a schema hint first, then a layout attribute of the same name.
func hint(d *model.Descriptor, key string) string {
	if value := strings.TrimSpace(d.Hints[key]); value != "" {
		return value
	}
	switch value := d.Extra[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
