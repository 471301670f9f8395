package tsumiki

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Pool recycles whole entities of one fixed archetype. Deleting a pooled
// entity parks it on the pool with its component values kept in place, so
// the next spawn can overwrite them instead of allocating.
//
// The archetype is learned from the first entity the pool builds. A pool may
// serve several worlds built on the same registry.
type Pool struct {
	name  string
	free  []*Entity
	mask  typeSet
	types []*typeInfo // ascending by id

	worldInit  func(parent *World) *World
	worldReuse func(sub *World)

	created int
	reused  int
}

// PoolOption configures NewPool.
type PoolOption func(*Pool)

// WithWorldInit gives every entity built by the pool a nested world. fn
// receives the entity's world and typically returns parent.NewSubWorld().
func WithWorldInit(fn func(parent *World) *World) PoolOption {
	return func(p *Pool) { p.worldInit = fn }
}

// WithWorldReuse is called with a recycled entity's nested world before the
// entity goes live again.
func WithWorldReuse(fn func(sub *World)) PoolOption {
	return func(p *Pool) { p.worldReuse = fn }
}

// NewPool creates an empty pool.
func NewPool(name string, opts ...PoolOption) *Pool {
	p := &Pool{name: name}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// Len returns the number of parked entities.
func (p *Pool) Len() int { return len(p.free) }

// Stats returns how many entities the pool allocated and how many times it
// handed out a recycled one.
func (p *Pool) Stats() (created, reused int) { return p.created, p.reused }

// Pop removes and returns the most recently parked entity, or nil.
func (p *Pool) Pop() *Entity {
	var e *Entity
	p.free, e = popLast(p.free)
	if e != nil {
		e.parked = false
	}
	return e
}

// popFor is Pop restricted to entities of w.
func (p *Pool) popFor(w *World) *Entity {
	for i := len(p.free) - 1; i >= 0; i-- {
		if p.free[i].world == w {
			return p.unpark(i)
		}
	}
	return nil
}

func (p *Pool) unpark(i int) *Entity {
	e := p.free[i]
	p.free = slices.Delete(p.free, i, i+1)
	e.parked = false
	return e
}

func (p *Pool) park(e *Entity) {
	e.parked = true
	p.free = append(p.free, e)
}

// resolve checks components against w's registry and the pool archetype,
// learning the archetype on first use.
func (p *Pool) resolve(w *World, e *Entity, components []any) ([]*typeInfo, error) {
	infos := make([]*typeInfo, len(components))
	var mask typeSet
	for i, v := range components {
		info, err := w.reg.lookupValue(v)
		if err != nil {
			return nil, err
		}
		if err := checkFresh(info, v, e); err != nil {
			return nil, err
		}
		if mask.has(info.id) {
			return nil, fmt.Errorf("%w: pool %s: %s given twice", ErrPoolArchetypeMismatch, p.name, info.name)
		}
		mask = mask.with(info.id)
		infos[i] = info
	}
	if p.types == nil {
		p.mask = mask
		p.types = slices.Clone(infos)
		slices.SortFunc(p.types, func(a, b *typeInfo) int { return a.id - b.id })
		return infos, nil
	}
	if !p.mask.equal(mask) {
		return nil, fmt.Errorf("%w: pool %s", ErrPoolArchetypeMismatch, p.name)
	}
	return infos, nil
}

// fill writes components into e's storage. Retained values that are not
// carried over go back to their free lists; they were torn down at delete.
func (p *Pool) fill(w *World, e *Entity, infos []*typeInfo, components []any) {
	for _, info := range p.types {
		b := e.blockAt(info.row)
		if b == nil || b.values[info.col] == nil {
			continue
		}
		old := b.values[info.col]
		b.values[info.col] = nil
		if !slices.Contains(components, old) {
			w.collectionFor(info).release(old)
		}
	}
	for i, v := range components {
		e.blockFor(infos[i].row).values[infos[i].col] = v
	}
	e.reissueRef()
}

// Create overwrites a parked entity of w in place, or builds a new one, from
// components. Outstanding Refs to a recycled entity stop resolving. The
// result is not registered; hand it to World.Register.
func (p *Pool) Create(w *World, components ...any) (*Entity, error) {
	e := p.popFor(w)
	infos, err := p.resolve(w, e, components)
	if err != nil {
		if e != nil {
			p.park(e)
		}
		return nil, err
	}
	if e == nil {
		e = w.allocEntity()
		e.pool = p
		p.created++
	} else {
		p.reused++
	}
	p.fill(w, e, infos, components)
	return e, nil
}

// Instantiate builds a fresh entity from create and registers it in w.
//
// Parameters:
//   - w: The world the entity lives in.
//   - create: Returns the component values, built through their factories.
//
// Returns:
//   - The live entity, or an error if the values do not match the pool.
func (p *Pool) Instantiate(w *World, create func() []any) (*Entity, error) {
	if w.finished {
		return nil, ErrWorldFinished
	}
	components := create()
	infos, err := p.resolve(w, nil, components)
	if err != nil {
		return nil, err
	}
	e := w.allocEntity()
	e.pool = p
	p.created++
	p.fill(w, e, infos, components)
	return e, w.Register(e)
}

// Reuse brings a recycled entity back to life. reset receives the retained
// values in archetype order and returns the values to register, either the
// same pointers or fresh ones from the factories.
func (p *Pool) Reuse(w *World, e *Entity, reset func(prev []any) []any) (*Entity, error) {
	if e.pool != p {
		return nil, fmt.Errorf("%w: entity is not from pool %s", ErrPoolArchetypeMismatch, p.name)
	}
	if e.alive {
		return nil, fmt.Errorf("pool %s: reuse of a live entity", p.name)
	}
	if e.world != w {
		return nil, fmt.Errorf("pool %s: entity belongs to world %s", p.name, e.world.id)
	}
	if w.finished {
		return nil, ErrWorldFinished
	}
	if e.parked {
		p.unpark(slices.Index(p.free, e))
	}
	prev := make([]any, len(p.types))
	for i, info := range p.types {
		prev[i] = e.value(info)
	}
	components := reset(prev)
	infos, err := p.resolve(w, e, components)
	if err != nil {
		p.park(e)
		return nil, err
	}
	p.reused++
	p.fill(w, e, infos, components)
	return e, w.Register(e)
}

// Spawn takes a parked entity of p when one exists and rebuilds it with
// build, or instantiates a new one with build(nil).
func (w *World) Spawn(p *Pool, build func(prev []any) []any) (*Entity, error) {
	if e := p.popFor(w); e != nil {
		return p.Reuse(w, e, build)
	}
	return p.Instantiate(w, func() []any { return build(nil) })
}

// Register makes an entity built by Pool.Create live in w: every stored value
// is attached to its collection. Registering a live entity is a no-op.
func (w *World) Register(e *Entity) error {
	if e.alive {
		return nil
	}
	if e.world != w {
		return fmt.Errorf("register: entity belongs to world %s", e.world.id)
	}
	if w.finished {
		return ErrWorldFinished
	}
	e.alive = true
	e.arch = w.trie.root
	for row, b := range e.blocks {
		if b == nil {
			continue
		}
		for col, v := range b.values {
			if v == nil {
				continue
			}
			info := w.reg.byID[row*BlockSize+col]
			b.values[col] = nil
			b.regs[col] = noSlot
			if err := w.attach(e, info, v); err != nil {
				return err
			}
		}
	}
	if p := e.pool; p != nil {
		switch {
		case e.sub != nil:
			e.sub.suspended = false
			if p.worldReuse != nil {
				p.worldReuse(e.sub)
			}
		case p.worldInit != nil:
			e.sub = p.worldInit(w)
		}
	}
	if ce := w.log.Check(zap.DebugLevel, "entity registered"); ce != nil {
		ce.Write(zap.Stringer("archetype", e.arch), zap.Bool("pooled", e.pool != nil))
	}
	return nil
}
