package tsumiki

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// queryPlan is the order-independent part of a query: the sorted include and
// exclude sets. A world compiles one plan per signature and shares it between
// every query asking for the same types in any order.
type queryPlan struct {
	key     uint64
	include []*typeInfo // ascending by id
	exclude []*typeInfo // ascending by id
	mask    typeSet
	without typeSet
}

func (p *queryPlan) matches(include, exclude []*typeInfo) bool {
	return slices.Equal(p.include, include) && slices.Equal(p.exclude, exclude)
}

// signatureKey hashes the sorted ids of include and exclude.
func signatureKey(include, exclude []*typeInfo) uint64 {
	d := xxhash.New()
	var buf [4]byte
	for _, info := range include {
		binary.LittleEndian.PutUint32(buf[:], uint32(info.id))
		d.Write(buf[:])
	}
	binary.LittleEndian.PutUint32(buf[:], ^uint32(0))
	d.Write(buf[:])
	for _, info := range exclude {
		binary.LittleEndian.PutUint32(buf[:], uint32(info.id))
		d.Write(buf[:])
	}
	return d.Sum64()
}

func sortByID(infos []*typeInfo) []*typeInfo {
	out := slices.Clone(infos)
	slices.SortFunc(out, func(a, b *typeInfo) int { return a.id - b.id })
	return out
}

// planFor returns w's cached plan for the signature, compiling it once.
func (w *World) planFor(include, exclude []*typeInfo) *queryPlan {
	include, exclude = sortByID(include), sortByID(exclude)
	key := signatureKey(include, exclude)
	for _, p := range w.plans[key] {
		if p.matches(include, exclude) {
			return p
		}
	}
	p := &queryPlan{key: key, include: include, exclude: exclude}
	for _, info := range include {
		p.mask = p.mask.with(info.id)
	}
	for _, info := range exclude {
		p.without = p.without.with(info.id)
	}
	w.plans[key] = append(w.plans[key], p)
	w.log.Debug("query plan compiled",
		zap.Uint64("key", key),
		zap.Int("include", len(include)),
		zap.Int("exclude", len(exclude)))
	return p
}

// QueryOption narrows a query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	without []ComponentHandle
}

// Without skips entities holding any of the given component types.
func Without(cts ...ComponentHandle) QueryOption {
	return func(o *queryOptions) { o.without = append(o.without, cts...) }
}

// resolveQuery maps the requested types, in request order, to registry
// records and returns the shared plan.
func (w *World) resolveQuery(types []reflect.Type, opts []QueryOption) ([]*typeInfo, *queryPlan, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	pos := make([]*typeInfo, len(types))
	for i, t := range types {
		info := w.reg.lookup(t)
		if info == nil || info.kind != kindComponent {
			return nil, nil, fmt.Errorf("query: %w: %s", ErrUnregisteredType, t)
		}
		if slices.Contains(pos[:i], info) {
			panic(fmt.Sprintf("ecs: duplicate component type %s in query", info.name))
		}
		pos[i] = info
	}
	exclude := make([]*typeInfo, len(o.without))
	for i, h := range o.without {
		info := h.handleInfo()
		if !w.reg.owns(info) {
			return nil, nil, fmt.Errorf("query: %w: %s excluded from another registry", ErrUnregisteredType, info.name)
		}
		exclude[i] = info
	}
	return pos, w.planFor(pos, exclude), nil
}

// queryCursor walks the smallest live collection of a plan from the tail.
// Deleting the current entity is safe: swap-removal only moves an entity that
// has already been visited.
type queryCursor struct {
	world  *World
	plan   *queryPlan
	driver *collection
	idx    int
	cur    *Entity
}

func (c *queryCursor) init(w *World, plan *queryPlan) {
	c.world = w
	c.plan = plan
	c.reset()
}

func (c *queryCursor) reset() {
	c.driver = nil
	for _, info := range c.plan.include {
		col := c.world.collectionFor(info)
		if c.driver == nil || col.size < c.driver.size {
			c.driver = col
		}
	}
	c.idx = 0
	if c.driver != nil {
		c.idx = c.driver.size
	}
	c.cur = nil
}

func (c *queryCursor) next() bool {
	for c.idx > 0 {
		c.idx--
		if c.idx >= c.driver.size {
			continue
		}
		e := c.driver.refs[c.idx]
		mask := e.arch.mask
		if !mask.contains(c.plan.mask) || mask.intersects(c.plan.without) {
			continue
		}
		c.cur = e
		return true
	}
	c.cur = nil
	return false
}

// Reset rewinds the query. The smallest collection is picked again, so a
// reset query sees every change made since the last pass.
func (c *queryCursor) Reset() { c.reset() }

// Next advances to the next matching entity.
//
// Returns:
//   - true if another matching entity was found, false otherwise.
func (c *queryCursor) Next() bool { return c.next() }

// Entity returns the current entity. Only valid after Next returned true.
func (c *queryCursor) Entity() *Entity { return c.cur }

// Count rewinds the query and returns the number of matching entities.
func (c *queryCursor) Count() int {
	c.reset()
	n := 0
	for c.next() {
		n++
	}
	c.reset()
	return n
}

// Entities rewinds the query and returns every matching entity.
func (c *queryCursor) Entities() []*Entity {
	c.reset()
	var out []*Entity
	for c.next() {
		out = append(out, c.cur)
	}
	c.reset()
	return out
}

// DeleteEntities deletes every matching entity and returns how many were
// deleted.
func (c *queryCursor) DeleteEntities() int {
	c.reset()
	n := 0
	for c.next() {
		c.world.DeleteEntity(c.cur)
		n++
	}
	c.reset()
	return n
}

// valueAt loads info's value from the current entity.
func (c *queryCursor) valueAt(info *typeInfo) any {
	return c.cur.blocks[info.row].values[info.col]
}

// queryBinding is a query stored in a system's private cache.
type queryBinding struct {
	query any
	plan  *queryPlan
	tick  uint64
}

// bindQuery returns the query cached under name in sc's system, building it
// on first use. Binding the same name twice in one tick, or to another
// signature, fails with ErrDuplicateQueryRegistration.
func bindQuery[Q interface{ Reset() }](sc *SystemContext, name string, plan *queryPlan, build func() Q) (Q, error) {
	var zero Q
	s := sc.System
	if b, ok := s.queries[name]; ok {
		q, same := b.query.(Q)
		if !same || b.plan != plan {
			return zero, fmt.Errorf("%w: system %s query %q bound to another signature", ErrDuplicateQueryRegistration, s.name, name)
		}
		if b.tick == sc.Tick {
			return zero, fmt.Errorf("%w: system %s query %q bound twice in tick %d", ErrDuplicateQueryRegistration, s.name, name, sc.Tick)
		}
		b.tick = sc.Tick
		q.Reset()
		return q, nil
	}
	q := build()
	if s.queries == nil {
		s.queries = make(map[string]*queryBinding)
	}
	s.queries[name] = &queryBinding{query: q, plan: plan, tick: sc.Tick}
	return q, nil
}
