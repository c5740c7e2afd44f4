// Package messages turns validation error codes into display text.
//
// Messages are looked up on the descriptor first, then in the form-wide
// messages, then in the built-in defaults. The selected message is rendered
// as a {{ }} template with error, value, viewValue, form, schema and title in
// scope.
package messages

import (
	"strings"

	"github.com/goliatone/go-schemaform/pkg/expr"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// DefaultCode is used when an error carries no code.
const DefaultCode = "default"

const legacyPrefix = "tv4-"

var defaults = map[string]string{
	DefaultCode: "Field does not validate",

	"type":     "Invalid type, expected {{ schema.type }}",
	"enum":     "No enum match for: {{ viewValue }}",
	"const":    "Value must be {{ schema.const }}",
	"anyOf":    `Data does not match any schemas from "anyOf"`,
	"oneOf":    `Data does not match exactly one schema from "oneOf"`,
	"not":      `Data matches schema from "not"`,
	"number":   "Value is not a valid number",
	"pattern":  "String does not match pattern: {{ schema.pattern }}",
	"format":   "Format validation failed",
	"required": "Required",

	"multipleOf":  "Value is not a multiple of {{ schema.multipleOf }}",
	"minimum":     "{{ viewValue }} is less than the allowed minimum of {{ schema.minimum }}",
	"maximum":     "{{ viewValue }} is greater than the allowed maximum of {{ schema.maximum }}",
	"minLength":   "String is too short ({{ viewValue|length }} chars), minimum {{ schema.minLength }}",
	"maxLength":   "String is too long ({{ viewValue|length }} chars), maximum {{ schema.maxLength }}",
	"minItems":    "Array is too short ({{ value|length }}), minimum {{ schema.minItems }}",
	"maxItems":    "Array is too long ({{ value|length }}), maximum {{ schema.maxItems }}",
	"uniqueItems": "Array items are not unique",

	"exclusiveMinimum":     "{{ viewValue }} must be greater than {{ schema.exclusiveMinimum|default:schema.minimum }}",
	"exclusiveMaximum":     "{{ viewValue }} must be less than {{ schema.exclusiveMaximum|default:schema.maximum }}",
	"minProperties":        "Too few properties defined, minimum {{ schema.minProperties }}",
	"maxProperties":        "Too many properties defined, maximum {{ schema.maxProperties }}",
	"additionalProperties": "Additional properties not allowed",
	"dependentRequired":    "Dependency failed - key must exist",
}

// legacyCodes maps numeric validator codes and host validator names onto the
// keyword codes above.
var legacyCodes = map[string]string{
	"0":   "type",
	"1":   "enum",
	"10":  "anyOf",
	"11":  "oneOf",
	"12":  "oneOf",
	"13":  "not",
	"100": "multipleOf",
	"101": "minimum",
	"102": "exclusiveMinimum",
	"103": "maximum",
	"104": "exclusiveMaximum",
	"105": "number",
	"200": "minLength",
	"201": "maxLength",
	"202": "pattern",
	"300": "minProperties",
	"301": "maxProperties",
	"302": "required",
	"303": "additionalProperties",
	"304": "dependentRequired",
	"400": "minItems",
	"401": "maxItems",
	"402": "uniqueItems",
	"500": "format",

	"min":       "minimum",
	"max":       "maximum",
	"minlength": "minLength",
	"maxlength": "maxLength",
}

// Normalize strips the legacy validator prefix and maps aliases onto keyword
// codes. An empty code becomes DefaultCode.
func Normalize(code string) string {
	code = strings.TrimPrefix(strings.TrimSpace(code), legacyPrefix)
	if code == "" {
		return DefaultCode
	}
	if mapped, ok := legacyCodes[code]; ok {
		return mapped
	}
	return code
}

// Default returns the built-in message for code.
func Default(code string) (string, bool) {
	msg, ok := defaults[Normalize(code)]
	return msg, ok
}

// Lookup selects the message template for code. Descriptor messages win over
// global ones; a single-string message set applies to every code. When
// nothing matches, the "default" entries are consulted in the same order.
func Lookup(code string, form *model.Descriptor, global model.ValidationMessages) string {
	raw := strings.TrimPrefix(strings.TrimSpace(code), legacyPrefix)
	normalized := Normalize(code)

	var local model.ValidationMessages
	if form != nil {
		local = form.ValidationMessage
	}
	for _, set := range []model.ValidationMessages{local, global} {
		if msg, ok := lookupSet(set, raw, normalized); ok {
			return msg
		}
	}
	if msg, ok := defaults[normalized]; ok {
		return msg
	}
	for _, set := range []model.ValidationMessages{local, global} {
		if msg, ok := set.Lookup(DefaultCode); ok && msg != "" {
			return msg
		}
	}
	return defaults[DefaultCode]
}

func lookupSet(set model.ValidationMessages, raw, normalized string) (string, bool) {
	if set.All != "" {
		return set.All, true
	}
	if msg := set.ByCode[raw]; msg != "" {
		return msg, true
	}
	if msg := set.ByCode[normalized]; msg != "" {
		return msg, true
	}
	return "", false
}

// Context builds the template scope for a message.
func Context(code string, value, viewValue any, form *model.Descriptor) map[string]any {
	ctx := map[string]any{
		"error":     Normalize(code),
		"value":     value,
		"viewValue": viewValue,
		"form":      form,
		"schema":    map[string]any{},
		"title":     "",
	}
	if form == nil {
		return ctx
	}
	ctx["title"] = form.Title
	if form.Schema != nil {
		if raw, ok := form.Schema.Raw.(map[string]any); ok {
			ctx["schema"] = raw
		}
		if form.Title == "" {
			ctx["title"] = form.Schema.Title
		}
	}
	return ctx
}

// Interpolate looks up the message for code and renders it. value and
// viewValue are the model and view values of the field.
func Interpolate(code string, value, viewValue any, form *model.Descriptor, global model.ValidationMessages) (string, error) {
	template := Lookup(code, form, global)
	return expr.Interp(template, Context(code, value, viewValue, form))
}
