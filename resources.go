package tsumiki

import (
	"reflect"
)

// resourceSlot returns the block cell for info in w, allocating the row.
func (w *World) resourceSlot(info *typeInfo) (*block, int) {
	if info.row >= len(w.resources) {
		w.resources = extendSlice(w.resources, info.row+1-len(w.resources))
	}
	b := w.resources[info.row]
	if b == nil {
		b = newBlock()
		w.resources[info.row] = b
	}
	return b, info.col
}

// resource returns the stored value for info, or nil.
func (w *World) resource(info *typeInfo) any {
	if info.row >= len(w.resources) || w.resources[info.row] == nil {
		return nil
	}
	return w.resources[info.row].values[info.col]
}

// SetResource stores v as w's singleton of type T, replacing any previous
// value. Systems waiting on T are enabled once every other dependency
// resolves. A nil v is the same as RemoveResource.
func SetResource[T any](w *World, v *T) {
	if v == nil {
		RemoveResource[T](w)
		return
	}
	info, _ := w.reg.register(reflect.TypeFor[T](), kindResource)
	b, col := w.resourceSlot(info)
	had := b.values[col] != nil
	b.values[col] = v
	if !had {
		w.touch(info)
	}
}

// GetResource returns w's singleton of type T, or nil.
func GetResource[T any](w *World) *T {
	info := w.reg.lookup(reflect.TypeFor[T]())
	if info == nil || info.kind != kindResource {
		return nil
	}
	if v := w.resource(info); v != nil {
		return v.(*T)
	}
	return nil
}

// HasResource reports whether w holds a singleton of type T.
func HasResource[T any](w *World) bool {
	return GetResource[T](w) != nil
}

// RemoveResource drops w's singleton of type T. Systems depending on it are
// disabled. Removing an absent resource is a no-op.
func RemoveResource[T any](w *World) {
	info := w.reg.lookup(reflect.TypeFor[T]())
	if info == nil || info.kind != kindResource {
		return
	}
	if w.resource(info) == nil {
		return
	}
	w.resources[info.row].values[info.col] = nil
	w.touch(info)
}
