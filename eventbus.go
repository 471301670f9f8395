package tsumiki

import "reflect"

// maxEventTypes bounds the number of distinct event types one bus carries.
const maxEventTypes = 64

// EventBus delivers world lifecycle events to subscribers, synchronously and
// in subscription order. Worlds created with WithEventBus share a bus, and
// sub-worlds always publish to their parent's.
//
// Publishing to a type nobody subscribed to does not allocate.
type EventBus struct {
	ids      map[reflect.Type]uint8
	handlers [maxEventTypes][]any
	next     uint8
}

// SystemEnabled is published when a continuous system joins the activation
// list.
type SystemEnabled struct {
	World  *World
	System *System
}

// SystemDisabled is published when a continuous system leaves the activation
// list because a dependency went away.
type SystemDisabled struct {
	World  *World
	System *System
}

// EntityDeleted is published after an entity has been removed from every
// collection. Pooled reports whether it was parked for reuse.
type EntityDeleted struct {
	World  *World
	Entity *Entity
	Pooled bool
}

// WorldFinished is published once per world when it is finished.
type WorldFinished struct {
	World *World
}

// Subscribe registers handler for events of type T.
//
// Parameters:
//   - bus: The EventBus to subscribe to.
//   - handler: Called with every published T.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	id := bus.typeID(reflect.TypeFor[T]())
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish calls every handler subscribed to T. A nil bus is a no-op.
func Publish[T any](bus *EventBus, event T) {
	if bus == nil || bus.ids == nil {
		return
	}
	id, ok := bus.ids[reflect.TypeFor[T]()]
	if !ok {
		return
	}
	for _, h := range bus.handlers[id] {
		h.(func(T))(event)
	}
}

func (bus *EventBus) typeID(t reflect.Type) uint8 {
	if bus.ids == nil {
		bus.ids = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.ids[t]; ok {
		return id
	}
	if int(bus.next) >= maxEventTypes {
		panic("ecs: too many event types")
	}
	id := bus.next
	bus.next++
	bus.ids[t] = id
	return id
}
