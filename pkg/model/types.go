package model

import internalmodel "github.com/goliatone/go-schemaform/internal/model"

// Kind re-exports the closed decorator kind set.
type Kind = internalmodel.Kind

const (
	KindFieldset   = internalmodel.KindFieldset
	KindSection    = internalmodel.KindSection
	KindArray      = internalmodel.KindArray
	KindText       = internalmodel.KindText
	KindTextarea   = internalmodel.KindTextarea
	KindNumber     = internalmodel.KindNumber
	KindCheckbox   = internalmodel.KindCheckbox
	KindCheckboxes = internalmodel.KindCheckboxes
	KindSelect     = internalmodel.KindSelect
	KindRadios     = internalmodel.KindRadios
	KindDate       = internalmodel.KindDate
	KindDateTime   = internalmodel.KindDateTime
	KindEmail      = internalmodel.KindEmail
	KindURL        = internalmodel.KindURL
	KindPassword   = internalmodel.KindPassword
	KindHidden     = internalmodel.KindHidden
	KindHelp       = internalmodel.KindHelp
	KindButton     = internalmodel.KindButton
	KindSubmit     = internalmodel.KindSubmit
	KindGeneric    = internalmodel.KindGeneric
)

type DestroyStrategy = internalmodel.DestroyStrategy

const (
	DestroyUnset  = internalmodel.DestroyUnset
	DestroyRemove = internalmodel.DestroyRemove
	DestroyEmpty  = internalmodel.DestroyEmpty
	DestroyNull   = internalmodel.DestroyNull
	DestroyRetain = internalmodel.DestroyRetain
)

const (
	ValidationRuleRequired  = internalmodel.ValidationRuleRequired
	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
	ValidationRuleStep      = internalmodel.ValidationRuleStep
)

type (
	Descriptor         = internalmodel.Descriptor
	ValidationRule     = internalmodel.ValidationRule
	ValidationMessages = internalmodel.ValidationMessages
	Choice             = internalmodel.Choice
	Action             = internalmodel.Action
	Callback           = internalmodel.Callback
	Expression         = internalmodel.Expression
)

// ExtensionNamespace is the schema keyword carrying form hints.
const ExtensionNamespace = internalmodel.ExtensionNamespace

// ErrNilSchema is returned when expanding a nil schema.
var ErrNilSchema = internalmodel.ErrNilSchema

// Classify maps a decorator type name onto the closed Kind set.
func Classify(typeName string) Kind {
	return internalmodel.Classify(typeName)
}

// Kinds lists every known kind, sorted.
func Kinds() []Kind {
	return internalmodel.Kinds()
}

// Walk visits descriptors depth-first, parents first. Returning false skips
// the children of the visited node.
func Walk(descriptors []*Descriptor, fn func(*Descriptor) bool) {
	internalmodel.Walk(descriptors, fn)
}

// MessagesFromValue builds ValidationMessages from a string or a map.
func MessagesFromValue(value any) (ValidationMessages, error) {
	return internalmodel.MessagesFromValue(value)
}

// ParseHints extracts recognised form hints from preserved schema keywords.
func ParseHints(keywords map[string]any) map[string]string {
	return internalmodel.ParseHints(keywords)
}

// DefaultLabeler turns a property name into a display title.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}
