package field

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-schemaform/pkg/keypath"
	"github.com/goliatone/go-schemaform/pkg/model"
	"github.com/goliatone/go-schemaform/pkg/registry"
	"github.com/goliatone/go-schemaform/pkg/resolver"
)

// ErrNilForm is returned by Mount when no resolved form is supplied.
var ErrNilForm = errors.New("field: resolved form is required")

// ErrNotArray is returned by array operations on fields that are not arrays
// with per-item templates.
var ErrNotArray = errors.New("field: field is not an array")

// ErrQueued is returned by Destroy when it was called while another event
// was being handled; the destroy runs once that event completes.
var ErrQueued = errors.New("field: destroy queued behind the current event")

// ValueFactory builds the value controller for a freshly mounted field. It
// may return nil to leave the field unbound.
type ValueFactory func(f *Field) ValueController

// Option configures a Controller.
type Option func(*Controller)

// WithLogger routes controller logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers fn for every notice.
func WithObserver(fn Observer) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithValueFactory replaces the default BoundValue binding.
func WithValueFactory(factory ValueFactory) Option {
	return func(c *Controller) {
		c.values = factory
	}
}

// WithoutValueControllers mounts every field unbound. Hosts attach their own
// controllers later with Field.Bind.
func WithoutValueControllers() Option {
	return WithValueFactory(func(*Field) ValueController { return nil })
}

// Controller runs the error, revalidate and destroy protocol for the fields
// of one resolved form. It is driven from a single goroutine; events raised
// while another event is being handled are queued and processed in order
// once the current one completes.
type Controller struct {
	form      *resolver.Form
	registry  *registry.Registry
	bus       *Bus
	fields    map[int]*Field
	roots     []*Field
	retired   map[int]string
	nextID    int
	values    ValueFactory
	observers []Observer
	logger    *slog.Logger

	tearingDown bool
	busy        bool
	queue       []func()
	applied     int
}

// Mount creates the runtime fields for form. Each field looks its descriptor
// up in the registry by id. Array item templates are instantiated once per
// element currently present in the model.
func Mount(form *resolver.Form, options ...Option) (*Controller, error) {
	if form == nil || form.Registry == nil {
		return nil, ErrNilForm
	}
	c := &Controller{
		form:     form,
		registry: form.Registry,
		bus:      NewBus(),
		fields:   make(map[int]*Field),
		retired:  make(map[int]string),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.values = c.defaultValue
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	model.Walk(form.Descriptors, func(d *model.Descriptor) bool {
		if d.ID > c.nextID {
			c.nextID = d.ID
		}
		return true
	})

	for _, d := range form.Descriptors {
		f, err := c.mountStatic(d, nil)
		if err != nil {
			return nil, err
		}
		c.roots = append(c.roots, f)
	}
	c.logger.Debug("field: mounted form", "fields", len(c.fields))
	return c, nil
}

func (c *Controller) defaultValue(f *Field) ValueController {
	if !f.bound() {
		return nil
	}
	return NewBoundValue(c.registry.Model(), f.desc.Key)
}

func (c *Controller) mountStatic(d *model.Descriptor, parent *Field) (*Field, error) {
	desc, err := c.registry.Lookup(d.ID)
	if err != nil {
		return nil, fmt.Errorf("field: mount: %w", err)
	}
	f := c.attach(desc, parent, -1)
	f.static = true
	if f.isArray() {
		c.syncArray(f, true)
		return f, nil
	}
	for _, item := range desc.Items {
		child, err := c.mountStatic(item, f)
		if err != nil {
			return nil, err
		}
		f.children = append(f.children, child)
	}
	return f, nil
}

func (c *Controller) attach(desc *model.Descriptor, parent *Field, index int) *Field {
	f := &Field{ctrl: c, id: desc.ID, desc: desc, parent: parent, index: index, errors: map[string]struct{}{}}
	if parent != nil && index < 0 {
		f.index = parent.index
	}
	c.fields[f.id] = f
	if f.bound() {
		c.bus.Subscribe(ErrorTopic(desc.Key.Dotted()), f.id, func(payload any) {
			if ev, ok := payload.(ErrorEvent); ok {
				f.handleError(ev)
			}
		})
	}
	if c.values != nil {
		f.value = c.values(f)
	}
	return f
}

// mountElement instantiates the item templates of arr for one element.
func (c *Controller) mountElement(arr *Field, index int) []*Field {
	var out []*Field
	for _, tpl := range arr.desc.Items {
		out = append(out, c.mountBound(c.bindElement(tpl, arr.id, index), arr, index))
	}
	return out
}

func (c *Controller) mountBound(desc *model.Descriptor, parent *Field, index int) *Field {
	f := c.attach(desc, parent, index)
	if f.isArray() {
		c.syncArray(f, true)
		return f
	}
	for _, item := range desc.Items {
		f.children = append(f.children, c.mountBound(item, f, index))
	}
	return f
}

func (c *Controller) bindElement(tpl *model.Descriptor, parentID, index int) *model.Descriptor {
	clone := tpl.Clone()
	clone.ParentID = parentID
	var bind func(d *model.Descriptor)
	bind = func(d *model.Descriptor) {
		c.nextID++
		d.ID = c.nextID
		d.Key = d.Key.Bind(index)
		for _, item := range d.Items {
			item.ParentID = d.ID
			bind(item)
		}
	}
	bind(clone)
	return clone
}

// syncArray makes the element fields of arr match the model length. Missing
// elements are mounted when create is set; elements past the end are torn
// down without touching the model.
func (c *Controller) syncArray(arr *Field, create bool) {
	length := 0
	if value, ok := c.registry.Model().Get(arr.desc.Key); ok {
		if list, ok := value.([]any); ok {
			length = len(list)
		}
	}
	for len(arr.elements) > length {
		last := arr.elements[len(arr.elements)-1]
		arr.elements = arr.elements[:len(arr.elements)-1]
		for _, f := range last {
			c.destroyField(f, false)
		}
	}
	if !create {
		return
	}
	for index := len(arr.elements); index < length; index++ {
		arr.elements = append(arr.elements, c.mountElement(arr, index))
	}
}

// Registry returns the registry the controller resolves fields through.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

// Form returns the mounted form.
func (c *Controller) Form() *resolver.Form {
	return c.form
}

// Bus exposes the event bus error events travel on.
func (c *Controller) Bus() *Bus {
	return c.bus
}

// Model returns the bound model tree.
func (c *Controller) Model() *keypath.Tree {
	return c.registry.Model()
}

// Field returns the live field with id.
func (c *Controller) Field(id int) (*Field, error) {
	if f, ok := c.fields[id]; ok {
		return f, nil
	}
	if _, gone := c.retired[id]; gone {
		return nil, registry.FieldNotFoundError{ID: id, Retired: true}
	}
	return nil, registry.FieldNotFoundError{ID: id}
}

// Roots returns the top-level fields in layout order.
func (c *Controller) Roots() []*Field {
	return append([]*Field(nil), c.roots...)
}

// Fields returns every live field depth-first in layout order.
func (c *Controller) Fields() []*Field {
	var out []*Field
	var walk func(fields []*Field)
	walk = func(fields []*Field) {
		for _, f := range fields {
			out = append(out, f)
			walk(f.Children())
		}
	}
	walk(c.roots)
	return out
}

// FieldsByKey returns the live fields bound to the dotted key.
func (c *Controller) FieldsByKey(dottedKey string) []*Field {
	var out []*Field
	for _, f := range c.Fields() {
		if f.bound() && f.desc.Key.Dotted() == dottedKey {
			out = append(out, f)
		}
	}
	return out
}

func (c *Controller) run(fn func()) bool {
	if c.busy {
		c.queue = append(c.queue, fn)
		return false
	}
	c.busy = true
	defer func() { c.busy = false }()
	fn()
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		next()
	}
	return true
}

// RaiseError publishes ev to every field bound to ev.Key and returns how many
// fields applied it. Events raised from inside another handler are queued
// and report 0.
func (c *Controller) RaiseError(ev ErrorEvent) int {
	applied := 0
	c.run(func() {
		if c.tearingDown {
			return
		}
		topic := ErrorTopic(ev.Key)
		if c.bus.Subscribers(topic) == 0 {
			c.warnRetiredTarget(ev)
			return
		}
		applied = c.publishError(topic, ev)
	})
	return applied
}

func (c *Controller) publishError(topic Topic, ev ErrorEvent) int {
	before := c.applied
	c.bus.Publish(topic, ev)
	return c.applied - before
}

func (c *Controller) warnRetiredTarget(ev ErrorEvent) {
	for id, key := range c.retired {
		if key == ev.Key {
			c.logger.Warn("field: error event targets destroyed field", "field_id", id, "key", ev.Key, "code", ev.Code)
			return
		}
	}
	c.logger.Debug("field: error event has no target", "key", ev.Key, "code", ev.Code)
}

// revalidate broadcasts downward from f, synchronously visiting f and every
// descendant.
func (c *Controller) revalidate(f *Field) {
	reached := 0
	var visit func(*Field)
	visit = func(current *Field) {
		if current.destroyed {
			return
		}
		reached++
		if r, ok := current.value.(Revalidator); ok {
			r.Revalidate()
		}
		for _, child := range current.Children() {
			visit(child)
		}
	}
	visit(f)
	c.logger.Debug("field: revalidate broadcast", "field_id", f.id, "key", f.desc.Key.Dotted(), "reached", reached)
	c.notify(Notice{Kind: NoticeRevalidate, FieldID: f.id, Key: f.desc.Key.Dotted(), Reached: reached})
}

// Destroy ends the lifetime of field id and its descendants, applying each
// field's destroy strategy to the model. Destroying an unknown or already
// destroyed id fails with registry.FieldNotFoundError.
//
// Called from inside an event handler, the destroy is queued behind the
// current event and Destroy returns ErrQueued; strategy failures of a queued
// destroy are only logged.
func (c *Controller) Destroy(id int) error {
	f, err := c.Field(id)
	if err != nil {
		return err
	}
	var destroyErr error
	if ran := c.run(func() {
		if f.destroyed {
			return
		}
		arr := f.enclosingArray()
		destroyErr = c.destroyField(f, !c.tearingDown)
		c.detach(f)
		if arr != nil && !arr.destroyed {
			c.realignElements(arr, f.index)
		}
	}); !ran {
		return ErrQueued
	}
	return destroyErr
}

// realignElements reconciles arr after one of its element fields at index
// was destroyed. When the strategy spliced the element out of the list, the
// later values moved down a slot, so the groups from index on are rebuilt
// against their new keys. A slot left in place keeps its group.
func (c *Controller) realignElements(arr *Field, index int) {
	list, _ := c.currentList(arr)
	if len(list) >= len(arr.elements) || index < 0 || index >= len(arr.elements) {
		c.syncArray(arr, false)
		return
	}
	for _, group := range arr.elements[index:] {
		for _, f := range group {
			c.destroyField(f, false)
		}
	}
	arr.elements = arr.elements[:index]
	c.syncArray(arr, true)
}

// Teardown destroys every field as part of removing the whole form. The model
// is left untouched.
func (c *Controller) Teardown() {
	c.run(func() {
		c.tearingDown = true
		for _, f := range c.roots {
			c.destroyField(f, false)
		}
		c.roots = nil
		c.logger.Debug("field: form torn down")
	})
}

// TornDown reports whether Teardown ran.
func (c *Controller) TornDown() bool {
	return c.tearingDown
}

func (c *Controller) destroyField(f *Field, mutate bool) error {
	if f.destroyed {
		return nil
	}
	strategy := ResolveDestroyStrategy(f.desc.DestroyStrategy, c.form.Options.DestroyStrategy)
	key := f.desc.Key.Dotted()

	var err error
	if mutate && f.bound() {
		changed, applyErr := ApplyDestroyStrategy(c.registry.Model(), f.desc.Key, f.desc.Schema, strategy)
		if applyErr != nil {
			err = fmt.Errorf("field: destroy %d: %w", f.id, applyErr)
			c.logger.Warn("field: destroy strategy failed", "field_id", f.id, "key", key, "strategy", strategy, "error", applyErr)
		} else {
			c.logger.Debug("field: destroy", "field_id", f.id, "key", key, "strategy", strategy, "changed", changed)
		}
	}

	f.destroyed = true
	c.bus.Unsubscribe(f.id)
	delete(c.fields, f.id)
	c.retired[f.id] = key
	if f.static {
		_ = c.registry.Retire(f.id)
	}
	c.notify(Notice{Kind: NoticeDestroy, FieldID: f.id, Key: key, Strategy: strategy})

	for _, child := range f.Children() {
		if childErr := c.destroyField(child, mutate); childErr != nil && err == nil {
			err = childErr
		}
	}
	return err
}

func (c *Controller) detach(f *Field) {
	if f.parent == nil {
		c.roots = removeField(c.roots, f)
		return
	}
	parent := f.parent
	parent.children = removeField(parent.children, f)
	for i, group := range parent.elements {
		parent.elements[i] = removeField(group, f)
	}
}

func removeField(fields []*Field, target *Field) []*Field {
	out := fields[:0]
	for _, f := range fields {
		if f != target {
			out = append(out, f)
		}
	}
	return out
}

// AppendItem appends value to the array field id and mounts the new element.
func (c *Controller) AppendItem(id int, value any) ([]*Field, error) {
	arr, err := c.arrayField(id)
	if err != nil {
		return nil, err
	}
	list, _ := c.currentList(arr)
	if err := c.registry.Model().Set(arr.desc.Key, append(list, value)); err != nil {
		return nil, fmt.Errorf("field: append to %s: %w", arr.desc.Key, err)
	}
	c.syncArray(arr, true)
	return arr.Element(len(arr.elements) - 1), nil
}

// RemoveItem removes element index from the array field id. Later elements
// shift down; their fields keep their positions and read the shifted data.
func (c *Controller) RemoveItem(id, index int) error {
	arr, err := c.arrayField(id)
	if err != nil {
		return err
	}
	list, _ := c.currentList(arr)
	if index < 0 || index >= len(list) {
		return fmt.Errorf("field: index %d out of range for %s", index, arr.desc.Key)
	}
	c.registry.Model().Delete(arr.desc.Key.Append(keypath.Index(index)))
	c.syncArray(arr, false)
	return nil
}

// SyncArray reconciles the element fields of array field id with the model,
// after the host changed the model directly.
func (c *Controller) SyncArray(id int) error {
	arr, err := c.arrayField(id)
	if err != nil {
		return err
	}
	c.syncArray(arr, true)
	return nil
}

func (c *Controller) arrayField(id int) (*Field, error) {
	f, err := c.Field(id)
	if err != nil {
		return nil, err
	}
	if !f.isArray() {
		return nil, fmt.Errorf("%w: %d", ErrNotArray, id)
	}
	return f, nil
}

func (c *Controller) currentList(arr *Field) ([]any, bool) {
	value, ok := c.registry.Model().Get(arr.desc.Key)
	if !ok {
		return nil, false
	}
	list, ok := value.([]any)
	return list, ok
}

func (c *Controller) notify(n Notice) {
	for _, fn := range c.observers {
		fn(n)
	}
}
