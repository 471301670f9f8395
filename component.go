package tsumiki

import (
	"fmt"
	"reflect"
)

// Component must be embedded by every component struct. It records which
// factory produced the value and which entity currently owns it.
//
//	type Position struct {
//	    tsumiki.Component
//	    X, Y float64
//	}
type Component struct {
	factory *typeInfo
	owner   *Entity
}

func (c *Component) component() *Component { return c }

// Owner returns the entity holding this value, or nil when detached.
func (c *Component) Owner() *Entity { return c.owner }

type componentBase interface {
	component() *Component
}

// ComponentHandle is implemented by every *ComponentType[T]. It lets
// heterogeneous component types be passed where only identity matters.
type ComponentHandle interface {
	handleInfo() *typeInfo
}

// ComponentType is the per-type entry point: factory, accessor and manager.
// It is bound to the Registry it was registered in and works with every
// world built on that registry.
type ComponentType[T any] struct {
	info     *typeInfo
	factory  func(prev *T) *T
	teardown func(w *World, e *Entity, v *T)
}

// ComponentOption configures a component type at registration.
type ComponentOption[T any] func(*ComponentType[T])

// WithFactory replaces the default factory. fn receives a recycled value, or
// nil, and returns the value to hand out; it may reuse prev in place.
func WithFactory[T any](fn func(prev *T) *T) ComponentOption[T] {
	return func(ct *ComponentType[T]) {
		ct.factory = fn
	}
}

// WithTeardown installs a hook called exactly once when a value of this type
// stops being live on an entity.
func WithTeardown[T any](fn func(w *World, e *Entity, v *T)) ComponentOption[T] {
	return func(ct *ComponentType[T]) {
		ct.teardown = fn
	}
}

// WithoutPooling opts the type out of value recycling.
func WithoutPooling[T any]() ComponentOption[T] {
	return func(ct *ComponentType[T]) {
		ct.info.pooled = false
	}
}

// RegisterComponent registers T as a component type in r. Registering an
// already registered type returns the existing handle and ignores opts.
//
// T must embed Component; anything else panics.
func RegisterComponent[T any](r *Registry, opts ...ComponentOption[T]) *ComponentType[T] {
	t := reflect.TypeFor[T]()
	if _, ok := any(new(T)).(componentBase); !ok {
		panic(fmt.Sprintf("ecs: %s does not embed tsumiki.Component", t))
	}
	info, created := r.register(t, kindComponent)
	if !created {
		return info.handle.(*ComponentType[T])
	}
	ct := &ComponentType[T]{info: info, factory: defaultFactory[T]}
	for _, opt := range opts {
		opt(ct)
	}
	if ct.teardown != nil {
		hook := ct.teardown
		info.teardown = func(w *World, e *Entity, v any) {
			hook(w, e, v.(*T))
		}
	}
	info.handle = ct
	return ct
}

// defaultFactory zeroes a recycled value so nothing leaks between owners.
func defaultFactory[T any](prev *T) *T {
	if prev == nil {
		return new(T)
	}
	var zero T
	*prev = zero
	return prev
}

func (ct *ComponentType[T]) handleInfo() *typeInfo { return ct.info }

// boundTo reports whether ct was registered in w's registry.
func (ct *ComponentType[T]) boundTo(w *World) bool {
	return w != nil && w.reg.owns(ct.info)
}

// ID returns the type's permanent id.
func (ct *ComponentType[T]) ID() int { return ct.info.id }

// Row returns the block row holding the type.
func (ct *ComponentType[T]) Row() int { return ct.info.row }

// Column returns the slot inside the block row.
func (ct *ComponentType[T]) Column() int { return ct.info.col }

// New builds a value through the type's factory, drawing from w's free list
// when one is available. init runs after the factory and may be nil. A
// world on another registry never supplies recycled values.
func (ct *ComponentType[T]) New(w *World, init func(v *T)) *T {
	var prev *T
	if ct.boundTo(w) {
		if v := w.collectionFor(ct.info).acquire(); v != nil {
			prev = v.(*T)
		}
	}
	v := ct.factory(prev)
	base := any(v).(componentBase).component()
	base.factory = ct.info
	base.owner = nil
	if init != nil {
		init(v)
	}
	return v
}

// Get returns the live value on e, or nil.
func (ct *ComponentType[T]) Get(e *Entity) *T {
	if e == nil || !ct.boundTo(e.world) || e.slot(ct.info) == noSlot {
		return nil
	}
	return e.blocks[ct.info.row].values[ct.info.col].(*T)
}

// Has reports whether e holds a live value of this type.
func (ct *ComponentType[T]) Has(e *Entity) bool {
	return e != nil && ct.boundTo(e.world) && e.slot(ct.info) != noSlot
}

// Len returns the number of live values in w, or 0 if w is built on another
// registry.
func (ct *ComponentType[T]) Len(w *World) int {
	if !ct.boundTo(w) {
		return 0
	}
	return w.collectionFor(ct.info).size
}

// ClearCollection detaches every live value of this type in w, running the
// teardown hook once per entity. It returns the number of values cleared.
func (ct *ComponentType[T]) ClearCollection(w *World) int {
	if !ct.boundTo(w) {
		return 0
	}
	return w.collectionFor(ct.info).clearAll()
}

// Manager binds the type to one world.
func (ct *ComponentType[T]) Manager(w *World) Manager[T] {
	return Manager[T]{ct: ct, world: w}
}

// Manager attaches and clears values of one type in one world.
type Manager[T any] struct {
	ct    *ComponentType[T]
	world *World
}

// Attach stores v on e. A type already present on e has its value replaced
// without touching the collection; the replaced value is torn down and
// recycled.
func (m Manager[T]) Attach(e *Entity, v *T) error {
	if !m.ct.boundTo(m.world) {
		return fmt.Errorf("%w: %s not in this world's registry", ErrUnregisteredType, m.ct.info.name)
	}
	if v == nil {
		return fmt.Errorf("%w: nil %s", ErrConstructionOutsideFactory, m.ct.info.name)
	}
	return m.world.attach(e, m.ct.info, v)
}

// Clear detaches the type from e. Clearing an absent type is a no-op.
func (m Manager[T]) Clear(e *Entity) {
	if e != nil && e.world == m.world && m.ct.boundTo(m.world) {
		m.world.clear(e, m.ct.info)
	}
}

// Entities returns the live entities holding the type, in collection order.
// The slice is a copy.
func (m Manager[T]) Entities() []*Entity {
	if !m.ct.boundTo(m.world) {
		return nil
	}
	c := m.world.collectionFor(m.ct.info)
	out := make([]*Entity, c.size)
	copy(out, c.refs[:c.size])
	return out
}
