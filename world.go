package tsumiki

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edwinsyarief/tsumiki/config"
)

// World owns collections, resources, systems and the caches built on top of
// them. Worlds may nest: a sub-world shares its parent's registry and logger
// but has its own entities, resources and systems.
type World struct {
	id     string
	reg    *Registry
	log    *zap.Logger
	cfg    config.WorldConfig
	events *EventBus

	trie        *archetypeTrie
	collections []*collection // indexed by type id
	resources   []*block      // indexed by row
	deleters    map[deleteKey]*deleteRoutine
	plans       map[uint64][]*queryPlan

	// scheduling
	active     systemList
	systems    []*System
	once       []*System
	dependents map[int][]*System
	pending    []pendingOp
	relinks    []*System

	parent    *World
	children  []*World
	tick      uint64
	ticking   bool
	finished  bool
	suspended bool
}

type worldOptions struct {
	registry *Registry
	logger   *zap.Logger
	cfg      config.WorldConfig
	events   *EventBus
}

// Option configures NewWorld.
type Option func(*worldOptions)

// WithRegistry builds the world on r instead of a fresh registry.
func WithRegistry(r *Registry) Option {
	return func(o *worldOptions) { o.registry = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *worldOptions) { o.logger = l }
}

// WithConfig applies world settings loaded by the config package.
func WithConfig(cfg config.WorldConfig) Option {
	return func(o *worldOptions) { o.cfg = cfg }
}

// WithEventBus publishes lifecycle events to bus instead of a private one.
func WithEventBus(bus *EventBus) Option {
	return func(o *worldOptions) { o.events = bus }
}

// NewWorld creates an empty world.
//
// Parameters:
//   - opts: registry, logger, settings and event bus overrides.
//
// Returns:
//   - The newly created World.
func NewWorld(opts ...Option) *World {
	o := worldOptions{cfg: config.Default().World}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.events == nil {
		o.events = &EventBus{}
	}
	id := uuid.NewString()
	return newWorld(id, o.registry, o.logger.Named("tsumiki").With(zap.String("world", id)), o.cfg, o.events)
}

func newWorld(id string, reg *Registry, log *zap.Logger, cfg config.WorldConfig, events *EventBus) *World {
	return &World{
		id:         id,
		reg:        reg,
		log:        log,
		cfg:        cfg,
		events:     events,
		trie:       newArchetypeTrie(),
		deleters:   make(map[deleteKey]*deleteRoutine),
		plans:      make(map[uint64][]*queryPlan),
		dependents: make(map[int][]*System),
	}
}

// ID returns the world's unique identifier.
func (w *World) ID() string { return w.id }

// Registry returns the type registry the world is built on.
func (w *World) Registry() *Registry { return w.reg }

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger { return w.log }

// Events returns the bus lifecycle events are published to.
func (w *World) Events() *EventBus { return w.events }

// Parent returns the enclosing world of a sub-world, or nil.
func (w *World) Parent() *World { return w.parent }

// TickCount returns the number of ticks run so far.
func (w *World) TickCount() uint64 { return w.tick }

// Finished reports whether Finish has been called on the world or an
// ancestor.
func (w *World) Finished() bool { return w.finished }

// ArchetypeCount returns the number of distinct archetypes seen, including
// the empty one.
func (w *World) ArchetypeCount() int { return w.trie.nodes }

// collectionFor returns w's collection for info, creating it on first use.
func (w *World) collectionFor(info *typeInfo) *collection {
	if info.id >= len(w.collections) {
		w.collections = extendSlice(w.collections, info.id+1-len(w.collections))
	}
	c := w.collections[info.id]
	if c == nil {
		c = newCollection(w, info, w.cfg.CollectionCapacity, w.cfg.FreeListLimit)
		w.collections[info.id] = c
	}
	return c
}

// allocEntity returns a fresh, unregistered entity.
func (w *World) allocEntity() *Entity {
	return &Entity{
		world:  w,
		arch:   w.trie.root,
		blocks: make([]*block, 0, w.reg.Rows()),
	}
}

// NewEntity builds an entity from already constructed component values.
// Values must come from their type's factory (ComponentType.New).
func (w *World) NewEntity(components ...any) (*Entity, error) {
	return w.NewEntityIn(nil, components...)
}

// NewEntityIn is NewEntity for an entity that owns the nested world sub.
// Deleting the entity finishes sub.
func (w *World) NewEntityIn(sub *World, components ...any) (*Entity, error) {
	if w.finished {
		return nil, ErrWorldFinished
	}
	infos := make([]*typeInfo, len(components))
	for i, v := range components {
		info, err := w.reg.lookupValue(v)
		if err != nil {
			return nil, err
		}
		if err := checkFresh(info, v, nil); err != nil {
			return nil, err
		}
		infos[i] = info
	}
	e := w.allocEntity()
	e.alive = true
	e.sub = sub
	for i, v := range components {
		if err := w.attach(e, infos[i], v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// checkFresh verifies v was built by info's factory and is free for e.
func checkFresh(info *typeInfo, v any, e *Entity) error {
	base, ok := v.(componentBase)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnregisteredType, v)
	}
	c := base.component()
	if c.factory != info {
		return fmt.Errorf("%w: %s", ErrConstructionOutsideFactory, info.name)
	}
	if c.owner != nil && c.owner != e {
		return fmt.Errorf("%w: %s", ErrComponentOwned, info.name)
	}
	return nil
}

// attach stores v as e's info slot, registering the type on first appearance.
func (w *World) attach(e *Entity, info *typeInfo, v any) error {
	if !e.alive || e.world != w {
		return fmt.Errorf("attach %s: entity not alive in this world", info.name)
	}
	if err := checkFresh(info, v, e); err != nil {
		return err
	}
	b := e.blockFor(info.row)
	if b.regs[info.col] != noSlot {
		old := b.values[info.col]
		if old == v {
			return nil
		}
		b.values[info.col] = v
		v.(componentBase).component().owner = e
		w.retire(e, info, old)
		return nil
	}
	arch, err := w.trie.add(e.arch, info)
	if err != nil {
		return err
	}
	e.arch = arch
	b.values[info.col] = v
	v.(componentBase).component().owner = e
	b.regs[info.col] = int32(w.collectionFor(info).push(e))
	return nil
}

// retire tears down a value that stopped being live and recycles it.
func (w *World) retire(e *Entity, info *typeInfo, v any) {
	if v == nil {
		return
	}
	v.(componentBase).component().owner = nil
	if info.teardown != nil {
		info.teardown(w, e, v)
	}
	w.collectionFor(info).release(v)
}

// clear detaches info from e. No-op when absent or while e is being deleted.
func (w *World) clear(e *Entity, info *typeInfo) {
	if !e.alive {
		return
	}
	b := e.blockAt(info.row)
	if b == nil || b.regs[info.col] == noSlot {
		return
	}
	idx := b.regs[info.col]
	v := b.values[info.col]
	b.values[info.col] = nil
	b.regs[info.col] = noSlot
	e.arch = w.trie.remove(e.arch, info)
	w.collectionFor(info).swapRemove(int(idx))
	w.retire(e, info, v)
}

// NewSubWorld creates a nested world sharing w's registry and logger. It is
// ticked after w's own systems and finished together with w.
func (w *World) NewSubWorld() *World {
	id := uuid.NewString()
	sub := newWorld(id, w.reg, w.log.With(zap.String("sub", id)), w.cfg, w.events)
	sub.parent = w
	if w.ticking {
		w.pending = append(w.pending, pendingOp{child: sub})
	} else {
		w.children = append(w.children, sub)
	}
	w.log.Debug("sub-world created", zap.String("sub", id))
	return sub
}

// Finish permanently stops ticking w and everything nested in it. The
// parent, if any, is unaffected.
func (w *World) Finish() {
	if w.finished {
		return
	}
	w.finished = true
	w.log.Debug("world finished", zap.Uint64("tick", w.tick))
	Publish(w.events, WorldFinished{World: w})
	for _, c := range w.children {
		c.Finish()
	}
	for _, op := range w.pending {
		if op.child != nil {
			op.child.Finish()
		}
	}
}
