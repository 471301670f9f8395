package tsumiki

// collection is the dense per-type store of one world.
//
// refs[i] for i < size is exactly the set of entities holding a live value of
// this type, and each such entity's registration slot for the type equals i.
// Slots at and beyond size are always nil; capacity is kept for reuse.
type collection struct {
	info      *typeInfo
	world     *World
	refs      []*Entity
	size      int
	free      []any
	freeLimit int
}

func newCollection(w *World, info *typeInfo, capacity, freeLimit int) *collection {
	return &collection{
		info:      info,
		world:     w,
		refs:      make([]*Entity, 0, capacity),
		freeLimit: freeLimit,
	}
}

// Len returns the live count.
func (c *collection) Len() int {
	return c.size
}

// push appends e and returns its index.
func (c *collection) push(e *Entity) int {
	idx := c.size
	if idx == len(c.refs) {
		c.refs = extendSlice(c.refs, 1)
	}
	c.refs[idx] = e
	c.size++
	if c.size == 1 {
		c.world.touch(c.info)
	}
	return idx
}

// swapRemove removes the entity at idx. The last live entity moves into idx
// and its registration slot is rewritten.
func (c *collection) swapRemove(idx int) {
	if idx < 0 || idx >= c.size {
		return
	}
	last := c.size - 1
	if idx < last {
		moved := c.refs[last]
		c.refs[idx] = moved
		moved.blocks[c.info.row].regs[c.info.col] = int32(idx)
	}
	c.refs[last] = nil
	c.size--
	if c.size == 0 {
		c.world.touch(c.info)
	}
}

// release hands a detached value back to the free list.
func (c *collection) release(v any) {
	if v == nil || !c.info.pooled {
		return
	}
	if c.freeLimit > 0 && len(c.free) >= c.freeLimit {
		return
	}
	c.free = append(c.free, v)
}

// acquire pops a recycled value, or returns nil.
func (c *collection) acquire() any {
	var v any
	c.free, v = popLast(c.free)
	return v
}

// clearAll detaches every live value in one pass. Slots are nulled before
// the teardown hook runs, so a hook that deletes its entity leaves this
// collection alone. An entity in the middle of deletion only loses its slot;
// its value is torn down by the deletion routine.
func (c *collection) clearAll() int {
	n := 0
	info := c.info
	w := c.world
	had := c.size > 0
	for c.size > 0 {
		last := c.size - 1
		e := c.refs[last]
		c.refs[last] = nil
		c.size = last

		b := e.blocks[info.row]
		b.regs[info.col] = noSlot
		e.arch = w.trie.remove(e.arch, info)
		if !e.alive {
			continue
		}
		v := b.values[info.col]
		b.values[info.col] = nil
		if base, ok := v.(componentBase); ok {
			base.component().owner = nil
		}
		if info.teardown != nil {
			info.teardown(w, e, v)
		}
		c.release(v)
		n++
	}
	if had {
		w.touch(info)
	}
	return n
}
