package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-schemaform/pkg/expr"
	"github.com/goliatone/go-schemaform/pkg/field"
	"github.com/goliatone/go-schemaform/pkg/model"
)

var inputTypes = map[model.Kind]string{
	model.KindText:     "text",
	model.KindNumber:   "number",
	model.KindDate:     "date",
	model.KindDateTime: "datetime-local",
	model.KindEmail:    "email",
	model.KindURL:      "url",
	model.KindPassword: "password",
	model.KindHidden:   "hidden",
}

var ruleAttrs = map[string]string{
	model.ValidationRuleMin:       "min",
	model.ValidationRuleMax:       "max",
	model.ValidationRuleMinLength: "minlength",
	model.ValidationRuleMaxLength: "maxlength",
	model.ValidationRulePattern:   "pattern",
	model.ValidationRuleStep:      "step",
}

// fieldView builds the `field` map decorator templates render. Server
// errors for the field's key come first, then the messages of every code
// the field currently fails.
func fieldView(f *field.Field, opts RenderOptions) (map[string]any, error) {
	d := f.Descriptor()
	labels := Localize(d, opts)
	kind := d.Kind()

	view := map[string]any{
		"type":        d.Type,
		"id":          f.ID(),
		"domID":       "sf-" + strconv.Itoa(f.ID()),
		"name":        "",
		"title":       labels.Title,
		"showTitle":   f.ShowTitle() && labels.Title != "" && hint(d, "hideLabel") != "true",
		"required":    d.Required,
		"readOnly":    d.ReadOnly,
		"placeholder": labels.Placeholder,
		"description": SanitizeDescription(labels.Description),
		"helpText":    labels.HelpText,
		"condition":   d.Condition,
		"htmlClass":   htmlClass(d),
		"addLabel":    hint(d, "add"),
		"rows":        hint(d, "rows"),
	}
	if d.HasKey() && !d.Key.HasWildcard() {
		view["name"] = d.Key.Dotted()
	}
	if input, ok := inputTypes[kind]; ok {
		view["inputType"] = input
	} else {
		view["inputType"] = "text"
	}
	if action, ok := d.OnClick.(model.Expression); ok {
		view["onClick"] = string(action)
	}

	value := f.ViewValue()
	if text, ok := scalarText(value); ok {
		view["hasValue"] = true
		view["value"] = text
	} else {
		view["hasValue"] = false
	}
	if kind == model.KindCheckbox {
		view["checked"] = expr.Truthy(value)
	}
	view["attrs"] = ruleAttributes(d)
	view["choices"] = choiceViews(d, kind, value)

	var messages []string
	if key, _ := view["name"].(string); key != "" {
		messages = append(messages, opts.Errors[key]...)
	}
	if f.HasError() {
		fieldMessages, err := f.ErrorMessages()
		if err != nil {
			return nil, fmt.Errorf("render: error messages of field %d: %w", f.ID(), err)
		}
		messages = append(messages, fieldMessages...)
	}
	messages = normalizeMessages(messages)
	errs := make([]any, len(messages))
	for i, msg := range messages {
		errs[i] = msg
	}
	view["errors"] = errs
	view["hasError"] = len(messages) > 0
	view["hasSuccess"] = len(messages) == 0 && f.HasSuccess()
	return view, nil
}

func htmlClass(d *model.Descriptor) string {
	if class := hint(d, "class"); class != "" {
		return class
	}
	return hint(d, "htmlClass")
}

func ruleAttributes(d *model.Descriptor) []any {
	var out []any
	for _, rule := range d.Validations {
		name, ok := ruleAttrs[rule.Kind]
		if !ok || rule.Params["exclusive"] == "true" {
			continue
		}
		value := rule.Params["value"]
		if rule.Kind == model.ValidationRulePattern {
			value = rule.Params["pattern"]
		}
		if value == "" {
			continue
		}
		out = append(out, map[string]any{"name": name, "value": value})
	}
	return out
}

func choiceViews(d *model.Descriptor, kind model.Kind, value any) []any {
	if len(d.Choices) == 0 {
		return nil
	}
	var checked map[string]bool
	if kind == model.KindCheckboxes {
		list, _ := value.([]any)
		checked = field.ListToCheckboxValues(list)
	}
	current, hasCurrent := scalarText(value)

	out := make([]any, 0, len(d.Choices))
	for _, choice := range d.Choices {
		text, _ := scalarText(choice.Value)
		selected := false
		if checked != nil {
			selected = checked[text]
		} else if hasCurrent {
			selected = current == text
		}
		out = append(out, map[string]any{
			"name":     choice.Name,
			"value":    text,
			"selected": selected,
		})
	}
	return out
}

// scalarText formats scalar model values the way an input displays them.
func scalarText(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		return typed, true
	case bool:
		return strconv.FormatBool(typed), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(typed), true
	case fmt.Stringer:
		return typed.String(), true
	case map[string]any, []any:
		return "", false
	default:
		text := fmt.Sprint(typed)
		return text, !strings.HasPrefix(text, "map[") && !strings.HasPrefix(text, "[")
	}
}
