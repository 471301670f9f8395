package tsumiki

import (
	"reflect"
	"weak"
)

// noSlot marks an empty registration slot.
const noSlot int32 = -1

// block holds BlockSize type slots of one entity: the component values and,
// for each, the entity's index inside that type's collection.
type block struct {
	values [BlockSize]any
	regs   [BlockSize]int32
}

func newBlock() *block {
	b := &block{}
	b.resetRegs()
	return b
}

func (b *block) resetRegs() {
	for i := range b.regs {
		b.regs[i] = noSlot
	}
}

// Entity is a handle whose storage points straight into the block layout
// assigned by the Registry. Entities are created by a World or a Pool and
// must not be copied.
type Entity struct {
	blocks     []*block
	arch       *archetypeNode
	world      *World
	pool       *Pool
	sub        *World
	ref        *refCell
	generation uint32
	alive      bool
	parked     bool // on its pool's free list
}

// Alive reports whether the entity is currently registered in its world.
func (e *Entity) Alive() bool {
	return e != nil && e.alive
}

// Generation is bumped every time the entity is deleted. A recycled entity
// keeps its address but never its generation.
func (e *Entity) Generation() uint32 {
	return e.generation
}

// World returns the world the entity lives in.
func (e *Entity) World() *World {
	return e.world
}

// Pool returns the owning pool, or nil.
func (e *Entity) Pool() *Pool {
	return e.pool
}

// SubWorld returns the nested world owned by the entity, or nil.
func (e *Entity) SubWorld() *World {
	return e.sub
}

// Len returns the number of component types attached to the entity.
func (e *Entity) Len() int {
	if e.arch == nil {
		return 0
	}
	return len(e.arch.types)
}

// Types lists the entity's component types in registry order.
func (e *Entity) Types() []reflect.Type {
	if e.arch == nil {
		return nil
	}
	out := make([]reflect.Type, len(e.arch.types))
	for i, info := range e.arch.types {
		out[i] = info.typ
	}
	return out
}

// blockAt returns the entity's block for row, or nil.
func (e *Entity) blockAt(row int) *block {
	if row >= len(e.blocks) {
		return nil
	}
	return e.blocks[row]
}

// blockFor returns the entity's block for row, allocating it if needed.
func (e *Entity) blockFor(row int) *block {
	if row >= len(e.blocks) {
		e.blocks = extendSlice(e.blocks, row+1-len(e.blocks))
	}
	b := e.blocks[row]
	if b == nil {
		b = newBlock()
		e.blocks[row] = b
	}
	return b
}

// value returns the stored value for info, live or retained, or nil.
func (e *Entity) value(info *typeInfo) any {
	b := e.blockAt(info.row)
	if b == nil {
		return nil
	}
	return b.values[info.col]
}

// slot returns the registration index for info, or noSlot.
func (e *Entity) slot(info *typeInfo) int32 {
	b := e.blockAt(info.row)
	if b == nil {
		return noSlot
	}
	return b.regs[info.col]
}

// Ref returns a weak handle to the entity. The handle stops resolving once
// the entity is deleted or recycled, and does not keep it reachable.
func (e *Entity) Ref() Ref {
	if e.ref == nil {
		e.reissueRef()
	}
	return Ref{cell: e.ref, gen: e.generation}
}

// reissueRef detaches every outstanding Ref and starts a new cell.
func (e *Entity) reissueRef() {
	e.dropRef()
	e.ref = &refCell{ptr: weak.Make(e)}
}

func (e *Entity) dropRef() {
	if e.ref != nil {
		e.ref.ptr = weak.Pointer[Entity]{}
		e.ref = nil
	}
}

type refCell struct {
	ptr weak.Pointer[Entity]
}

// Ref is a long-lived external handle to an Entity.
type Ref struct {
	cell *refCell
	gen  uint32
}

// Get returns the entity, or nil once it has been deleted, recycled or
// collected.
func (r Ref) Get() *Entity {
	if r.cell == nil {
		return nil
	}
	e := r.cell.ptr.Value()
	if e == nil || !e.alive || e.generation != r.gen || e.ref != r.cell {
		return nil
	}
	return e
}

// Alive is shorthand for r.Get() != nil.
func (r Ref) Alive() bool {
	return r.Get() != nil
}
