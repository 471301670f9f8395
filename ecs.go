// Package tsumiki implements an embedded, single-threaded Entity Component
// System built around per-type dense collections.
//
// Features:
//   - Explicit type Registry assigning every component and resource type a
//     permanent (id, row, column) inside fixed-size blocks.
//   - Canonical archetype identity: any set of component types resolves to
//     one node object regardless of insertion order.
//   - Dense per-type collections with O(1) swap-removal and value free lists.
//   - Entity pools recycling whole entities of one archetype, guarded by
//     weak references and generation counters.
//   - Cached deletion routines per (archetype, pool) and cached query plans
//     per type signature.
//   - Systems gated by resource availability, linked into an activation list
//     and driven one synchronous tick at a time.
//
// Nothing in this package is safe for concurrent use. A World is meant to be
// driven by one goroutine, typically a fixed-rate timer or frame callback.
package tsumiki

import "errors"

// BlockSize is the number of type slots stored per block. A type with id n
// lives at row n/BlockSize, column n%BlockSize.
const BlockSize = 8

// MaxSystemResources is the size of the fixed resource dispatch table handed
// to system callbacks.
const MaxSystemResources = 8

// sentinelRank is the rank of the archetype trie root. Type ids start at 0.
const sentinelRank = -1

var (
	// ErrConstructionOutsideFactory is returned when a component value that
	// was not produced by its type's factory is attached to an entity.
	ErrConstructionOutsideFactory = errors.New("ecs: component constructed outside its factory")

	// ErrUnsupportedArchetypeRoot is returned when a type ranked at or below
	// the archetype trie sentinel is inserted.
	ErrUnsupportedArchetypeRoot = errors.New("ecs: type ranked below archetype root")

	// ErrDuplicateQueryRegistration is returned when a system binds the same
	// query name twice in one tick, or binds it to a different signature.
	ErrDuplicateQueryRegistration = errors.New("ecs: duplicate query registration")

	// ErrResourceDependencyOverflow is returned when a system declares more
	// than MaxSystemResources resource dependencies.
	ErrResourceDependencyOverflow = errors.New("ecs: too many resource dependencies")

	// ErrUnregisteredType is returned when a value's type is unknown to the
	// world's registry.
	ErrUnregisteredType = errors.New("ecs: unregistered type")

	// ErrPoolArchetypeMismatch is returned when a pool is asked to recycle an
	// entity into a component set other than the pool's fixed archetype.
	ErrPoolArchetypeMismatch = errors.New("ecs: pool archetype mismatch")

	// ErrComponentOwned is returned when a component value that is live on
	// one entity is attached to another.
	ErrComponentOwned = errors.New("ecs: component already owned by another entity")

	// ErrWorldFinished is returned by mutating operations on a finished world.
	ErrWorldFinished = errors.New("ecs: world finished")
)
