package tsumiki

import (
	"go.uber.org/zap"
)

type deleteKey struct {
	arch *archetypeNode
	pool *Pool
}

// deleteRow groups the types of one block row so each block is loaded once.
type deleteRow struct {
	row   int
	types []*typeInfo
}

// deleteRoutine is the precomputed removal plan for one archetype and pool.
type deleteRoutine struct {
	rows   []deleteRow
	hooks  []*typeInfo // types with a teardown hook, ascending by id
	types  int
	pooled bool
}

func compileDeleteRoutine(arch *archetypeNode, pool *Pool) *deleteRoutine {
	r := &deleteRoutine{types: len(arch.types), pooled: pool != nil}
	for _, info := range arch.types {
		if n := len(r.rows); n == 0 || r.rows[n-1].row != info.row {
			r.rows = append(r.rows, deleteRow{row: info.row})
		}
		last := &r.rows[len(r.rows)-1]
		last.types = append(last.types, info)
		if info.teardown != nil {
			r.hooks = append(r.hooks, info)
		}
	}
	return r
}

func (w *World) deleteRoutineFor(e *Entity) *deleteRoutine {
	key := deleteKey{arch: e.arch, pool: e.pool}
	if r, ok := w.deleters[key]; ok {
		return r
	}
	r := compileDeleteRoutine(e.arch, e.pool)
	w.deleters[key] = r
	w.log.Debug("delete routine compiled",
		zap.Stringer("archetype", e.arch),
		zap.Bool("pooled", r.pooled),
		zap.Int("hooks", len(r.hooks)))
	return r
}

// DeleteEntity removes e from every collection it is registered in. Each
// live value's teardown hook runs exactly once.
//
// A pooled entity is parked on its pool with its values retained for the
// next spawn and its nested world suspended. Any other entity has its values
// returned to their free lists and its nested world finished. In both cases
// outstanding Refs stop resolving. Deleting a dead entity is a no-op.
func (w *World) DeleteEntity(e *Entity) {
	if e == nil || !e.alive {
		return
	}
	if e.world != w {
		e.world.DeleteEntity(e)
		return
	}
	r := w.deleteRoutineFor(e)
	e.alive = false

	// Hooks see the entity fully readable. Clear is a no-op from here on.
	for _, info := range r.hooks {
		if v := e.value(info); v != nil {
			info.teardown(w, e, v)
		}
	}

	for i := range r.rows {
		dr := &r.rows[i]
		b := e.blocks[dr.row]
		for _, info := range dr.types {
			if idx := b.regs[info.col]; idx != noSlot {
				b.regs[info.col] = noSlot
				w.collectionFor(info).swapRemove(int(idx))
			}
			v := b.values[info.col]
			if v == nil {
				continue
			}
			v.(componentBase).component().owner = nil
			if !r.pooled {
				b.values[info.col] = nil
				w.collectionFor(info).release(v)
			}
		}
	}
	e.arch = w.trie.root

	e.dropRef()
	e.generation++
	if r.pooled {
		e.pool.park(e)
		if e.sub != nil {
			e.sub.suspended = true
		}
	} else if e.sub != nil {
		e.sub.Finish()
	}
	Publish(w.events, EntityDeleted{World: w, Entity: e, Pooled: r.pooled})
}
