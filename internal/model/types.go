package model

import (
	"sort"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/schema"
)

// Kind is the closed set of decorator kinds the walker and the decorator
// resolver agree on. Anything outside the set is KindGeneric.
type Kind string

const (
	KindFieldset   Kind = "fieldset"
	KindSection    Kind = "section"
	KindArray      Kind = "array"
	KindText       Kind = "text"
	KindTextarea   Kind = "textarea"
	KindNumber     Kind = "number"
	KindCheckbox   Kind = "checkbox"
	KindCheckboxes Kind = "checkboxes"
	KindSelect     Kind = "select"
	KindRadios     Kind = "radios"
	KindDate       Kind = "date"
	KindDateTime   Kind = "datetime"
	KindEmail      Kind = "email"
	KindURL        Kind = "url"
	KindPassword   Kind = "password"
	KindHidden     Kind = "hidden"
	KindHelp       Kind = "help"
	KindButton     Kind = "button"
	KindSubmit     Kind = "submit"
	KindGeneric    Kind = "generic"
)

var knownKinds = map[Kind]struct{}{
	KindFieldset:   {},
	KindSection:    {},
	KindArray:      {},
	KindText:       {},
	KindTextarea:   {},
	KindNumber:     {},
	KindCheckbox:   {},
	KindCheckboxes: {},
	KindSelect:     {},
	KindRadios:     {},
	KindDate:       {},
	KindDateTime:   {},
	KindEmail:      {},
	KindURL:        {},
	KindPassword:   {},
	KindHidden:     {},
	KindHelp:       {},
	KindButton:     {},
	KindSubmit:     {},
	KindGeneric:    {},
}

// Classify maps a decorator type name onto the closed Kind set.
func Classify(typeName string) Kind {
	kind := Kind(typeName)
	if _, ok := knownKinds[kind]; ok {
		return kind
	}
	return KindGeneric
}

// Kinds returns every known kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(knownKinds))
	for kind := range knownKinds {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsContainer reports whether descriptors of this kind carry child items.
func (k Kind) IsContainer() bool {
	switch k {
	case KindFieldset, KindSection, KindArray:
		return true
	default:
		return false
	}
}

// DestroyStrategy decides what happens to bound data when a field goes away.
type DestroyStrategy string

const (
	DestroyUnset  DestroyStrategy = ""
	DestroyRemove DestroyStrategy = "remove"
	DestroyEmpty  DestroyStrategy = "empty"
	DestroyNull   DestroyStrategy = "null"
	DestroyRetain DestroyStrategy = "retain"
)

// Valid reports whether s is one of the named strategies.
func (s DestroyStrategy) Valid() bool {
	switch s {
	case DestroyRemove, DestroyEmpty, DestroyNull, DestroyRetain:
		return true
	default:
		return false
	}
}

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
	ValidationRuleStep      = "step"
)

// ValidationRule is one constraint a renderer can express natively. Numeric
// thresholds live in Params["value"], patterns in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Choice is one selectable value of an enum-backed field.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Action is an interaction hook. It is either a Callback or an Expression,
// never both.
type Action interface {
	isAction()
}

// Callback is invoked with the host event and the descriptor.
type Callback func(event any, form *Descriptor) (any, error)

// Expression is evaluated by the expression capability of the field.
type Expression string

func (Callback) isAction()   {}
func (Expression) isAction() {}

// Descriptor is the resolved description of one renderable field.
type Descriptor struct {
	ID          int          `json:"id"`
	Key         keypath.Path `json:"key,omitempty"`
	Type        string       `json:"type"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	// Schema is shared with the resolved schema tree and never mutated.
	Schema            *schema.Schema     `json:"-"`
	Items             []*Descriptor      `json:"items,omitempty"`
	ParentID          int                `json:"parentId,omitempty"`
	Required          bool               `json:"required,omitempty"`
	ReadOnly          bool               `json:"readonly,omitempty"`
	NoTitle           bool               `json:"notitle,omitempty"`
	Condition         string             `json:"condition,omitempty"`
	Choices           []Choice           `json:"choices,omitempty"`
	Validations       []ValidationRule   `json:"validations,omitempty"`
	ValidationMessage ValidationMessages `json:"validationMessage,omitempty"`
	DestroyStrategy   DestroyStrategy    `json:"destroyStrategy,omitempty"`
	OnClick           Action             `json:"-"`
	Hints             map[string]string  `json:"hints,omitempty"`
	// Extra keeps layout attributes without a dedicated field.
	Extra map[string]any `json:"extra,omitempty"`
}

// Kind classifies the descriptor type.
func (d *Descriptor) Kind() Kind {
	if d == nil {
		return KindGeneric
	}
	return Classify(d.Type)
}

// HasKey reports whether the descriptor binds to model data.
func (d *Descriptor) HasKey() bool {
	return d != nil && len(d.Key) > 0
}

// Clone deep-copies the descriptor tree. Schema pointers stay shared.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	out := *d
	out.Key = d.Key.Clone()
	if d.Items != nil {
		out.Items = make([]*Descriptor, len(d.Items))
		for i, item := range d.Items {
			out.Items[i] = item.Clone()
		}
	}
	if d.Choices != nil {
		out.Choices = append([]Choice(nil), d.Choices...)
	}
	if d.Validations != nil {
		out.Validations = make([]ValidationRule, len(d.Validations))
		for i, rule := range d.Validations {
			out.Validations[i] = ValidationRule{Kind: rule.Kind, Params: cloneStrings(rule.Params)}
		}
	}
	out.ValidationMessage = d.ValidationMessage.Clone()
	out.Hints = cloneStrings(d.Hints)
	if d.Extra != nil {
		out.Extra = make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// Walk visits d and its items depth-first, parents before children. Returning
// false from fn skips the children of that node.
func Walk(descriptors []*Descriptor, fn func(*Descriptor) bool) {
	for _, d := range descriptors {
		if d == nil {
			continue
		}
		if fn(d) {
			Walk(d.Items, fn)
		}
	}
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
