package tsumiki

import (
	"fmt"
	"reflect"
)

// componentInfo resolves T in e's registry, or nil.
func componentInfo[T any](e *Entity) *typeInfo {
	if e == nil || e.world == nil {
		return nil
	}
	info := e.world.reg.lookup(reflect.TypeFor[T]())
	if info == nil || info.kind != kindComponent {
		return nil
	}
	return info
}

// GetComponent retrieves the live component of type T on e without a
// ComponentType handle at hand.
//
// Parameters:
//   - e: The entity to read from.
//
// Returns:
//   - A pointer to the component, or nil if e does not hold T.
func GetComponent[T any](e *Entity) *T {
	info := componentInfo[T](e)
	if info == nil || e.slot(info) == noSlot {
		return nil
	}
	return e.blocks[info.row].values[info.col].(*T)
}

// HasComponent reports whether e holds a live component of type T.
func HasComponent[T any](e *Entity) bool {
	info := componentInfo[T](e)
	return info != nil && e.slot(info) != noSlot
}

// AttachComponent is ComponentType.Manager(e.World()).Attach for callers
// that only know T.
func AttachComponent[T any](e *Entity, v *T) error {
	info := componentInfo[T](e)
	if info == nil {
		return fmt.Errorf("%w: %s", ErrUnregisteredType, reflect.TypeFor[T]())
	}
	if v == nil {
		return fmt.Errorf("%w: nil %s", ErrConstructionOutsideFactory, info.name)
	}
	return e.world.attach(e, info, v)
}

// ClearComponent detaches T from e. No-op when absent or unregistered.
func ClearComponent[T any](e *Entity) {
	if info := componentInfo[T](e); info != nil {
		e.world.clear(e, info)
	}
}
