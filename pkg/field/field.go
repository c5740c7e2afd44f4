package field

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-schemaform/pkg/expr"
	"github.com/goliatone/go-schemaform/pkg/messages"
	"github.com/goliatone/go-schemaform/pkg/model"
)

// State is the display state of one field.
type State struct {
	Dirty    bool
	Pristine bool
	Valid    bool
	Errors   []string
}

// Field is one mounted, rendered field. Static fields share their descriptor
// with the registry; array element fields own a copy bound to their index.
type Field struct {
	ctrl      *Controller
	id        int
	desc      *model.Descriptor
	parent    *Field
	children  []*Field
	elements  [][]*Field
	index     int
	static    bool
	value     ValueController
	dirty     bool
	errors    map[string]struct{}
	destroyed bool
}

// ID returns the field id.
func (f *Field) ID() int { return f.id }

// Descriptor returns the descriptor the field renders.
func (f *Field) Descriptor() *model.Descriptor { return f.desc }

// Parent returns the enclosing field, nil at the top level.
func (f *Field) Parent() *Field { return f.parent }

// Destroyed reports whether the field's lifetime has ended.
func (f *Field) Destroyed() bool { return f.destroyed }

// Index returns the array element index the field belongs to, or -1.
func (f *Field) Index() int { return f.index }

// Value returns the bound value controller, nil when unbound.
func (f *Field) Value() ValueController { return f.value }

// Bind attaches a value controller after mounting.
func (f *Field) Bind(value ValueController) {
	f.value = value
}

// Children returns the nested fields; for arrays, every element's fields in
// element order.
func (f *Field) Children() []*Field {
	if len(f.elements) == 0 {
		return append([]*Field(nil), f.children...)
	}
	var out []*Field
	for _, group := range f.elements {
		out = append(out, group...)
	}
	return out
}

// Len returns the number of mounted array elements.
func (f *Field) Len() int { return len(f.elements) }

// Element returns the fields of array element index.
func (f *Field) Element(index int) []*Field {
	if index < 0 || index >= len(f.elements) {
		return nil
	}
	return append([]*Field(nil), f.elements[index]...)
}

// IsArray reports whether the field expands item templates per element.
func (f *Field) IsArray() bool { return f.isArray() }

func (f *Field) isArray() bool {
	if f.desc.Kind() != model.KindArray || !f.bound() {
		return false
	}
	for _, item := range f.desc.Items {
		if item.Key.HasWildcard() {
			return true
		}
	}
	return false
}

func (f *Field) bound() bool {
	return f.desc.HasKey() && !f.desc.Key.HasWildcard()
}

func (f *Field) enclosingArray() *Field {
	if f.static || f.parent == nil || !f.parent.isArray() {
		return nil
	}
	return f.parent
}

// ModelValue reads the bound model value directly, with or without a value
// controller.
func (f *Field) ModelValue() any {
	if f.value != nil {
		return f.value.ModelValue()
	}
	if !f.bound() {
		return nil
	}
	value, _ := f.ctrl.registry.Model().Get(f.desc.Key)
	return value
}

// ViewValue returns the controller view value, falling back to the model.
func (f *Field) ViewValue() any {
	if f.value != nil {
		return f.value.ViewValue()
	}
	return f.ModelValue()
}

// State returns the current display state.
func (f *Field) State() State {
	st := State{Dirty: f.dirty, Errors: f.errorCodes()}
	if f.value != nil && f.value.Dirty() {
		st.Dirty = true
	}
	st.Pristine = !st.Dirty
	st.Valid = len(st.Errors) == 0 && (f.value == nil || f.value.Valid())
	return st
}

func (f *Field) errorCodes() []string {
	out := make([]string, 0, len(f.errors))
	for code := range f.errors {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (f *Field) handleError(ev ErrorEvent) {
	c := f.ctrl
	if f.destroyed {
		return
	}
	message, valid := ev.normalized()
	if f.value == nil || ev.Code == "" {
		c.logger.Debug("field: error event ignored", "field_id", f.id, "key", ev.Key, "code", ev.Code, "bound", f.value != nil)
		return
	}

	f.value.SetDirty()
	f.dirty = true
	if message != "" {
		if f.static {
			if err := c.registry.SetValidationMessage(f.id, ev.Code, message); err != nil {
				c.logger.Warn("field: record validation message", "field_id", f.id, "code", ev.Code, "error", err)
			}
		} else {
			f.desc.ValidationMessage.Set(ev.Code, message)
		}
	}
	f.value.SetValidity(ev.Code, valid)
	if valid {
		delete(f.errors, ev.Code)
	} else {
		f.errors[ev.Code] = struct{}{}
	}
	c.applied++

	c.logger.Debug("field: error event", "field_id", f.id, "key", ev.Key, "code", ev.Code, "valid", valid)
	c.notify(Notice{Kind: NoticeError, FieldID: f.id, Key: ev.Key, Code: ev.Code, Valid: valid})

	if valid {
		c.revalidate(f)
	}
}

// ShowTitle reports whether the title should be displayed.
func (f *Field) ShowTitle() bool {
	return f.desc != nil && !f.desc.NoTitle && f.desc.Title != ""
}

// ListToCheckboxValues converts a list of selected values into the
// value-to-checked map checkbox groups bind to.
func ListToCheckboxValues(list []any) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, item := range list {
		out[fmt.Sprint(item)] = true
	}
	return out
}

// CheckboxValuesToList returns the checked values, sorted.
func CheckboxValuesToList(values map[string]bool) []string {
	out := make([]string, 0, len(values))
	for value, checked := range values {
		if checked {
			out = append(out, value)
		}
	}
	sort.Strings(out)
	return out
}

// ListToCheckboxValues is the field-bound form of the package function.
func (f *Field) ListToCheckboxValues(list []any) map[string]bool {
	return ListToCheckboxValues(list)
}

// CheckboxValuesToList is the field-bound form of the package function.
func (f *Field) CheckboxValuesToList(values map[string]bool) []string {
	return CheckboxValuesToList(values)
}

// ButtonClick runs the onClick action of form, or of the field's own
// descriptor when form is nil. Expressions run in the parent scope with
// $event and form in scope, or in the field scope when the registry has no
// parent scope.
func (f *Field) ButtonClick(event any, form *model.Descriptor) (any, error) {
	if form == nil {
		form = f.desc
	}
	switch action := form.OnClick.(type) {
	case nil:
		return nil, nil
	case model.Callback:
		if action == nil {
			return nil, nil
		}
		return action(event, form)
	case model.Expression:
		locals := map[string]any{"$event": event, "form": form}
		if f.ctrl.registry.HasParentScope() {
			return f.ctrl.registry.EvaluateInParentScope(string(action), locals)
		}
		return f.EvalInScope(string(action), locals)
	default:
		return nil, fmt.Errorf("field: unsupported onClick action %T", form.OnClick)
	}
}

// EvalExpr evaluates expression in the parent scope, or the field scope when
// no parent scope is configured.
func (f *Field) EvalExpr(expression string, locals map[string]any) (any, error) {
	if f.ctrl.registry.HasParentScope() {
		return f.ctrl.registry.EvaluateInParentScope(expression, locals)
	}
	return expr.Eval(expression, f.scope(locals))
}

// EvalInScope evaluates expression in the field scope. An empty expression
// yields nil.
func (f *Field) EvalInScope(expression string, locals map[string]any) (any, error) {
	if expression == "" {
		return nil, nil
	}
	return expr.Eval(expression, f.scope(locals))
}

// Interp renders template with locals. An empty template yields "".
func (f *Field) Interp(template string, locals map[string]any) (string, error) {
	return expr.Interp(template, locals)
}

// Visible evaluates the descriptor condition with model and arrayIndex in
// scope. Fields without a condition are always visible.
func (f *Field) Visible() (bool, error) {
	if f.desc.Condition == "" {
		return true, nil
	}
	locals := map[string]any{"model": f.ctrl.registry.Model().Root(), "arrayIndex": nil}
	if f.index >= 0 {
		locals["arrayIndex"] = float64(f.index)
	}
	value, err := f.EvalExpr(f.desc.Condition, locals)
	if err != nil {
		return false, fmt.Errorf("field: condition of %d: %w", f.id, err)
	}
	return expr.Truthy(value), nil
}

// HasSuccess reports a valid field that was edited or holds a value.
func (f *Field) HasSuccess() bool {
	if f.value == nil {
		return false
	}
	st := f.State()
	return st.Valid && (!st.Pristine || !isEmpty(f.value.ModelValue()))
}

// HasError reports an invalid field the user has touched.
func (f *Field) HasError() bool {
	if f.value == nil {
		return false
	}
	st := f.State()
	return !st.Valid && !st.Pristine
}

// ErrorMessage renders the message for code, "default" when empty, using
// the model and view values of the field and the form-wide messages.
func (f *Field) ErrorMessage(code string) (string, error) {
	if f.value == nil {
		return "", nil
	}
	if code == "" {
		code = messages.DefaultCode
	}
	return messages.Interpolate(code, orEmpty(f.value.ModelValue()), orEmpty(f.value.ViewValue()), f.desc, f.ctrl.form.Options.ValidationMessage)
}

// ErrorMessages renders a message for every failing code, in code order.
func (f *Field) ErrorMessages() ([]string, error) {
	codes := f.errorCodes()
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		msg, err := f.ErrorMessage(code)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func orEmpty(value any) any {
	if value == nil {
		return ""
	}
	return value
}

func (f *Field) scope(locals map[string]any) expr.Scope {
	s := expr.Scope{
		"form":       f.desc,
		"model":      f.ctrl.registry.Model().Root(),
		"value":      f.ModelValue(),
		"arrayIndex": nil,
		"showTitle":  expr.Func(func(...any) (any, error) { return f.ShowTitle(), nil }),
		"hasError":   expr.Func(func(...any) (any, error) { return f.HasError(), nil }),
		"hasSuccess": expr.Func(func(...any) (any, error) { return f.HasSuccess(), nil }),
	}
	if f.index >= 0 {
		s["arrayIndex"] = float64(f.index)
	}
	if f.desc.Schema != nil {
		s["schema"] = f.desc.Schema.Raw
	}
	for key, value := range locals {
		s[key] = value
	}
	return s
}
