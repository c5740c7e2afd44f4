package field

import (
	"sort"

	"github.com/goliatone/go-schemaform/pkg/keypath"
)

// ValueController is the per-field binding capability a host provides for
// keyed fields. Fields without one ignore error events.
type ValueController interface {
	Dirty() bool
	Pristine() bool
	Valid() bool
	ModelValue() any
	ViewValue() any
	SetDirty()
	SetValidity(code string, valid bool)
}

// Revalidator is implemented by value controllers that recompute validity
// when a revalidate broadcast reaches them.
type Revalidator interface {
	Revalidate()
}

// BoundValue is the default ValueController. It reads and writes the model
// through a keypath.Tree.
type BoundValue struct {
	tree          *keypath.Tree
	key           keypath.Path
	dirty         bool
	invalid       map[string]struct{}
	view          any
	hasView       bool
	revalidations int
	onRevalidate  func(*BoundValue)
}

var (
	_ ValueController = (*BoundValue)(nil)
	_ Revalidator     = (*BoundValue)(nil)
)

// NewBoundValue binds key inside tree.
func NewBoundValue(tree *keypath.Tree, key keypath.Path) *BoundValue {
	return &BoundValue{tree: tree, key: key.Clone(), invalid: make(map[string]struct{})}
}

// OnRevalidate installs a hook run on every revalidate broadcast.
func (b *BoundValue) OnRevalidate(fn func(*BoundValue)) {
	b.onRevalidate = fn
}

func (b *BoundValue) Dirty() bool    { return b.dirty }
func (b *BoundValue) Pristine() bool { return !b.dirty }
func (b *BoundValue) Valid() bool    { return len(b.invalid) == 0 }
func (b *BoundValue) SetDirty()      { b.dirty = true }

// Key returns the bound path.
func (b *BoundValue) Key() keypath.Path {
	return b.key
}

// ModelValue reads the bound path. Missing values read as nil.
func (b *BoundValue) ModelValue() any {
	value, _ := b.tree.Get(b.key)
	return value
}

// ViewValue returns the last value set through SetViewValue, or the model
// value when the view has not diverged.
func (b *BoundValue) ViewValue() any {
	if b.hasView {
		return b.view
	}
	return b.ModelValue()
}

// SetViewValue records a user edit, writes parsed into the model and marks the
// binding dirty.
func (b *BoundValue) SetViewValue(view, parsed any) error {
	if err := b.tree.Set(b.key, parsed); err != nil {
		return err
	}
	b.view = view
	b.hasView = true
	b.dirty = true
	return nil
}

// SetValidity flags code as passing or failing.
func (b *BoundValue) SetValidity(code string, valid bool) {
	if valid {
		delete(b.invalid, code)
		return
	}
	b.invalid[code] = struct{}{}
}

// Errors returns the failing codes, sorted.
func (b *BoundValue) Errors() []string {
	out := make([]string, 0, len(b.invalid))
	for code := range b.invalid {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Revalidate counts the broadcast and runs the hook.
func (b *BoundValue) Revalidate() {
	b.revalidations++
	if b.onRevalidate != nil {
		b.onRevalidate(b)
	}
}

// Revalidations returns how many revalidate broadcasts reached the binding.
func (b *BoundValue) Revalidations() int {
	return b.revalidations
}

// IsEmpty reports whether the model value is nil, an empty string or an
// empty collection.
func (b *BoundValue) IsEmpty() bool {
	return isEmpty(b.ModelValue())
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}
