package tsumiki

import (
	"fmt"
	"reflect"
)

// typeKind tells component slots from resource slots. Both share one id space.
type typeKind uint8

const (
	kindComponent typeKind = iota
	kindResource
)

func (k typeKind) String() string {
	if k == kindResource {
		return "resource"
	}
	return "component"
}

// typeInfo is the registry's record for one type: its permanent id and its
// fixed position inside the block storage, plus the per-type hooks the world
// needs to handle values of that type without knowing T.
type typeInfo struct {
	typ  reflect.Type
	name string
	id   int
	row  int
	col  int
	kind typeKind

	pooled   bool
	teardown func(w *World, e *Entity, v any)
	handle   any // *ComponentType[T] for components
}

// Registry assigns every component and resource type a permanent
// (id, row, column) triple. Ids are handed out in registration order, so the
// archetype trie can order types by id alone.
//
// A Registry is owned by the caller and passed into NewWorld. Worlds that
// share a registry share type ids; sub-worlds always share their parent's.
type Registry struct {
	types map[reflect.Type]*typeInfo
	byID  []*typeInfo
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[reflect.Type]*typeInfo, 16),
		byID:  make([]*typeInfo, 0, 16),
	}
}

// register returns the record for t, creating it on first use. Registering
// the same type under a different kind is a programming error.
func (r *Registry) register(t reflect.Type, kind typeKind) (*typeInfo, bool) {
	if info, ok := r.types[t]; ok {
		if info.kind != kind {
			panic(fmt.Sprintf("ecs: %s already registered as %s", t, info.kind))
		}
		return info, false
	}
	id := len(r.byID)
	info := &typeInfo{
		typ:    t,
		name:   t.String(),
		id:     id,
		row:    id / BlockSize,
		col:    id % BlockSize,
		kind:   kind,
		pooled: true,
	}
	r.types[t] = info
	r.byID = append(r.byID, info)
	return info, true
}

// lookup returns the record for t or nil.
func (r *Registry) lookup(t reflect.Type) *typeInfo {
	return r.types[t]
}

// lookupValue resolves a component value (*T) to its record.
func (r *Registry) lookupValue(v any) (*typeInfo, error) {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%w: %T is not a component pointer", ErrUnregisteredType, v)
	}
	info := r.types[t.Elem()]
	if info == nil || info.kind != kindComponent {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, t.Elem())
	}
	return info, nil
}

// owns reports whether info was issued by r.
func (r *Registry) owns(info *typeInfo) bool {
	return info.id < len(r.byID) && r.byID[info.id] == info
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Rows returns the number of storage blocks a fully populated entity would use.
func (r *Registry) Rows() int {
	return (len(r.byID) + BlockSize - 1) / BlockSize
}

// RegisterResource registers T as a resource type and returns its id.
// Resources are also registered lazily on first SetResource.
func RegisterResource[T any](r *Registry) int {
	info, _ := r.register(reflect.TypeFor[T](), kindResource)
	return info.id
}
