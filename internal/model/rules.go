package model

import (
	"strconv"

	"github.com/goliatone/go-schemaform/pkg/schema"
)

func applyValidations(d *Descriptor, s *schema.Schema) {
	if d == nil || s == nil {
		return
	}

	if d.Required {
		d.Validations = append(d.Validations, ValidationRule{Kind: ValidationRuleRequired})
	}
	if rule, ok := boundRule(ValidationRuleMin, s.Minimum, s.ExclusiveMinimum); ok {
		d.Validations = append(d.Validations, rule)
	}
	if rule, ok := boundRule(ValidationRuleMax, s.Maximum, s.ExclusiveMaximum); ok {
		d.Validations = append(d.Validations, rule)
	}
	if s.MultipleOf != nil {
		d.Validations = append(d.Validations, ValidationRule{
			Kind:   ValidationRuleStep,
			Params: map[string]string{"value": formatFloat(*s.MultipleOf)},
		})
	}
	if s.MinLength != nil {
		d.Validations = append(d.Validations, ValidationRule{
			Kind:   ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.Itoa(*s.MinLength)},
		})
	}
	if s.MaxLength != nil {
		d.Validations = append(d.Validations, ValidationRule{
			Kind:   ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.Itoa(*s.MaxLength)},
		})
	}
	if s.Pattern != "" {
		d.Validations = append(d.Validations, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": s.Pattern},
		})
	}
}

// boundRule prefers the inclusive bound unless the exclusive one repeats it,
// which is how draft-04 boolean exclusivity normalizes.
func boundRule(kind string, inclusive, exclusive *float64) (ValidationRule, bool) {
	switch {
	case exclusive != nil && (inclusive == nil || *inclusive == *exclusive):
		return ValidationRule{Kind: kind, Params: map[string]string{
			"value":     formatFloat(*exclusive),
			"exclusive": "true",
		}}, true
	case inclusive != nil:
		return ValidationRule{Kind: kind, Params: map[string]string{"value": formatFloat(*inclusive)}}, true
	default:
		return ValidationRule{}, false
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
