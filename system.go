package tsumiki

import (
	"fmt"
	"reflect"
)

// SystemFunc is the callback of an untyped system. res holds the resolved
// resources in declaration order and is only valid for the call.
type SystemFunc func(sc *SystemContext, res []any) error

// SystemContext is handed to every system call.
type SystemContext struct {
	World  *World
	System *System
	Tick   uint64
}

// System is a unit of work run by a World. It declares the resources it
// needs; the world only runs it while all of them are present.
type System struct {
	name      string
	resources []reflect.Type
	deps      []*typeInfo
	gates     []ComponentHandle
	gateInfos []*typeInfo
	run       SystemFunc
	queries   map[string]*queryBinding

	world      *World
	order      int
	once       bool
	enabled    bool
	dirty      bool
	prev, next *System
	res        [MaxSystemResources]any
}

// NewSystem creates a system depending on the resource types listed, given
// as the pointed-to types (reflect.TypeFor[Grid]() for a *Grid resource).
//
// Parameters:
//   - name: Used in logs and errors.
//   - resources: Required resource types, at most MaxSystemResources.
//   - fn: Called once per tick while every resource is present.
//
// Returns:
//   - The system, or ErrResourceDependencyOverflow.
func NewSystem(name string, resources []reflect.Type, fn SystemFunc) (*System, error) {
	if len(resources) > MaxSystemResources {
		return nil, fmt.Errorf("%w: system %s declares %d, max %d",
			ErrResourceDependencyOverflow, name, len(resources), MaxSystemResources)
	}
	return &System{
		name:      name,
		resources: append([]reflect.Type(nil), resources...),
		run:       fn,
	}, nil
}

// WithGate additionally requires every listed component type to have at
// least one live value in the world. Must be called before the system is
// added.
func (s *System) WithGate(cts ...ComponentHandle) *System {
	s.gates = append(s.gates, cts...)
	return s
}

// Name returns the system's name.
func (s *System) Name() string { return s.name }

// Enabled reports whether the system currently runs each tick. One-shot
// systems report whether they are still waiting to run.
func (s *System) Enabled() bool { return s.enabled }

// World returns the world the system was added to, or nil.
func (s *System) World() *World { return s.world }

// NewSystem0 creates a system without resource dependencies.
func NewSystem0(name string, fn func(sc *SystemContext) error) *System {
	s, _ := NewSystem(name, nil, func(sc *SystemContext, _ []any) error {
		return fn(sc)
	})
	return s
}

// NewSystem1 creates a system depending on resource R1.
func NewSystem1[R1 any](name string, fn func(sc *SystemContext, r1 *R1) error) *System {
	s, _ := NewSystem(name, []reflect.Type{reflect.TypeFor[R1]()}, func(sc *SystemContext, res []any) error {
		return fn(sc, res[0].(*R1))
	})
	return s
}

// NewSystem2 creates a system depending on resources R1 and R2.
func NewSystem2[R1, R2 any](name string, fn func(sc *SystemContext, r1 *R1, r2 *R2) error) *System {
	s, _ := NewSystem(name, []reflect.Type{reflect.TypeFor[R1](), reflect.TypeFor[R2]()},
		func(sc *SystemContext, res []any) error {
			return fn(sc, res[0].(*R1), res[1].(*R2))
		})
	return s
}

// NewSystem3 creates a system depending on resources R1, R2 and R3.
func NewSystem3[R1, R2, R3 any](name string, fn func(sc *SystemContext, r1 *R1, r2 *R2, r3 *R3) error) *System {
	s, _ := NewSystem(name, []reflect.Type{reflect.TypeFor[R1](), reflect.TypeFor[R2](), reflect.TypeFor[R3]()},
		func(sc *SystemContext, res []any) error {
			return fn(sc, res[0].(*R1), res[1].(*R2), res[2].(*R3))
		})
	return s
}

// NewSystem4 creates a system depending on resources R1 to R4.
func NewSystem4[R1, R2, R3, R4 any](name string, fn func(sc *SystemContext, r1 *R1, r2 *R2, r3 *R3, r4 *R4) error) *System {
	s, _ := NewSystem(name, []reflect.Type{reflect.TypeFor[R1](), reflect.TypeFor[R2](), reflect.TypeFor[R3](), reflect.TypeFor[R4]()},
		func(sc *SystemContext, res []any) error {
			return fn(sc, res[0].(*R1), res[1].(*R2), res[2].(*R3), res[3].(*R4))
		})
	return s
}

// bind resolves s's declared types against w's registry.
func (s *System) bind(w *World) error {
	gates := make([]*typeInfo, len(s.gates))
	for i, h := range s.gates {
		info := h.handleInfo()
		if !w.reg.owns(info) {
			return fmt.Errorf("system %s: %w: gate %s from another registry", s.name, ErrUnregisteredType, info.name)
		}
		gates[i] = info
	}
	s.world = w
	s.gateInfos = gates
	s.deps = make([]*typeInfo, len(s.resources))
	for i, t := range s.resources {
		s.deps[i], _ = w.reg.register(t, kindResource)
	}
	return nil
}

// ready reports whether every dependency of s resolves in its world.
func (s *System) ready() bool {
	w := s.world
	for _, info := range s.deps {
		if w.resource(info) == nil {
			return false
		}
	}
	for _, info := range s.gateInfos {
		if w.collectionFor(info).size == 0 {
			return false
		}
	}
	return true
}

// call resolves resources into the dispatch table and runs the callback.
func (s *System) call(tick uint64) error {
	w := s.world
	res := s.res[:len(s.deps)]
	for i, info := range s.deps {
		res[i] = w.resource(info)
	}
	sc := SystemContext{World: w, System: s, Tick: tick}
	err := s.run(&sc, res)
	clear(res)
	if err != nil {
		return fmt.Errorf("system %s: %w", s.name, err)
	}
	return nil
}
