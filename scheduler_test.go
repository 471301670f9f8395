package tsumiki

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(systems []*System) []string {
	out := make([]string, len(systems))
	for i, s := range systems {
		out[i] = s.Name()
	}
	return out
}

// go test -run ^TestSystemActivation$ . -count 1
func TestSystemActivation(t *testing.T) {
	f := newFixture(t)
	var order []string
	record := func(name string) func(*SystemContext) error {
		return func(*SystemContext) error {
			order = append(order, name)
			return nil
		}
	}
	a := NewSystem0("a", record("a"))
	b := NewSystem1("b", func(sc *SystemContext, g *Grid) error {
		order = append(order, "b")
		return nil
	})
	c := NewSystem2("c", func(sc *SystemContext, g *Grid, cl *Clock) error {
		order = append(order, "c")
		return nil
	})
	d := NewSystem1("d", func(sc *SystemContext, cl *Clock) error {
		order = append(order, "d")
		return nil
	})
	for _, s := range []*System{a, b, c, d} {
		require.NoError(t, f.w.AddSystem(s))
	}
	assert.Equal(t, []string{"a"}, names(f.w.ActiveSystems()))

	SetResource(f.w, &Clock{})
	assert.Equal(t, []string{"a", "d"}, names(f.w.ActiveSystems()))
	assert.False(t, c.Enabled())

	SetResource(f.w, &Grid{W: 4})
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(f.w.ActiveSystems()), "registration order kept")

	require.NoError(t, f.w.Tick())
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)

	SetResource(f.w, &Grid{W: 8})
	assert.True(t, b.Enabled(), "replacing keeps dependents enabled")

	RemoveResource[Clock](f.w)
	assert.Equal(t, []string{"a", "b"}, names(f.w.ActiveSystems()))
	assert.True(t, b.Enabled(), "siblings unaffected")
}

// go test -run ^TestSystemResolvesResources$ . -count 1
func TestSystemResolvesResources(t *testing.T) {
	f := newFixture(t)
	g := &Grid{W: 3, H: 4}
	SetResource(f.w, g)
	var got *Grid
	var tick uint64
	require.NoError(t, f.w.AddSystem(NewSystem1("read", func(sc *SystemContext, r *Grid) error {
		got, tick = r, sc.Tick
		return nil
	})))
	require.NoError(t, f.w.Tick())
	require.NoError(t, f.w.Tick())
	assert.Same(t, g, got)
	assert.EqualValues(t, 2, tick)
}

// go test -run ^TestSystemGate$ . -count 1
func TestSystemGate(t *testing.T) {
	f := newFixture(t)
	s := NewSystem0("gated", func(*SystemContext) error { return nil }).WithGate(f.vel)
	require.NoError(t, f.w.AddSystem(s))
	assert.False(t, s.Enabled())

	e := f.entity(t, f.newVel(0, 0))
	assert.True(t, s.Enabled())
	f.vel.Manager(f.w).Clear(e)
	assert.False(t, s.Enabled())

	f.entity(t, f.newVel(0, 0))
	f.vel.ClearCollection(f.w)
	assert.False(t, s.Enabled())
}

// go test -run ^TestGateClearedFromTeardown$ . -count 1
func TestGateClearedFromTeardown(t *testing.T) {
	r := NewRegistry()
	var tag *ComponentType[Tag]
	pos := RegisterComponent(r, WithTeardown(func(w *World, _ *Entity, _ *Position) {
		tag.ClearCollection(w)
	}))
	tag = RegisterComponent[Tag](r)
	w := NewWorld(WithRegistry(r))

	s := NewSystem0("gated", func(*SystemContext) error { return nil }).WithGate(tag)
	require.NoError(t, w.AddSystem(s))
	e, err := w.NewEntity(pos.New(w, nil), tag.New(w, nil))
	require.NoError(t, err)
	require.True(t, s.Enabled())

	w.DeleteEntity(e)
	assert.Equal(t, 0, tag.Len(w))
	assert.False(t, s.Enabled())
	assert.Empty(t, w.ActiveSystems())
}

// go test -run ^TestSystemOnce$ . -count 1
func TestSystemOnce(t *testing.T) {
	f := newFixture(t)
	runs := 0
	require.NoError(t, f.w.AddSystemOnce(NewSystem1("setup", func(sc *SystemContext, g *Grid) error {
		runs++
		return nil
	})))
	other := 0
	require.NoError(t, f.w.AddSystemOnce(NewSystem0("free", func(*SystemContext) error {
		other++
		return nil
	})))

	require.NoError(t, f.w.Tick())
	require.NoError(t, f.w.Tick())
	assert.Equal(t, 0, runs, "polled until ready")
	assert.Equal(t, 1, other)
	assert.Equal(t, 1, f.w.PendingOnce())

	SetResource(f.w, &Grid{})
	require.NoError(t, f.w.Tick())
	require.NoError(t, f.w.Tick())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, f.w.PendingOnce())
}

// go test -run ^TestSystemAddedDuringTick$ . -count 1
func TestSystemAddedDuringTick(t *testing.T) {
	f := newFixture(t)
	lateRuns, onceRuns := 0, 0
	late := NewSystem0("late", func(*SystemContext) error {
		lateRuns++
		return nil
	})
	spawner := NewSystem0("spawner", func(sc *SystemContext) error {
		if sc.Tick != 1 {
			return nil
		}
		if err := sc.World.AddSystem(late); err != nil {
			return err
		}
		return sc.World.AddSystemOnce(NewSystem0("once", func(*SystemContext) error {
			onceRuns++
			return nil
		}))
	})
	require.NoError(t, f.w.AddSystem(spawner))

	require.NoError(t, f.w.Tick())
	assert.Equal(t, 0, lateRuns, "deferred to tick end")
	assert.Equal(t, 0, onceRuns)
	assert.True(t, late.Enabled())

	require.NoError(t, f.w.Tick())
	assert.Equal(t, 1, lateRuns)
	assert.Equal(t, 1, onceRuns)
}

// go test -run ^TestResourceChangeDuringTick$ . -count 1
func TestResourceChangeDuringTick(t *testing.T) {
	f := newFixture(t)
	consumed := 0
	consumer := NewSystem1("consumer", func(sc *SystemContext, g *Grid) error {
		consumed++
		return nil
	})
	producer := NewSystem0("producer", func(sc *SystemContext) error {
		SetResource(sc.World, &Grid{})
		return nil
	})
	require.NoError(t, f.w.AddSystem(producer))
	require.NoError(t, f.w.AddSystem(consumer))

	require.NoError(t, f.w.Tick())
	assert.Equal(t, 0, consumed, "relink deferred")
	assert.True(t, consumer.Enabled())
	require.NoError(t, f.w.Tick())
	assert.Equal(t, 1, consumed)
}

// go test -run ^TestResourceRemovedDuringTick$ . -count 1
func TestResourceRemovedDuringTick(t *testing.T) {
	f := newFixture(t)
	SetResource(f.w, &Grid{W: 4})
	remover := NewSystem0("remover", func(sc *SystemContext) error {
		RemoveResource[Grid](sc.World)
		return nil
	})
	consumed := 0
	consumer := NewSystem1("consumer", func(sc *SystemContext, g *Grid) error {
		require.NotNil(t, g)
		consumed++
		return nil
	})
	require.NoError(t, f.w.AddSystem(remover))
	require.NoError(t, f.w.AddSystem(consumer))
	require.True(t, consumer.Enabled())

	require.NotPanics(t, func() { require.NoError(t, f.w.Tick()) })
	assert.Equal(t, 0, consumed, "skipped once the resource is gone")
	assert.False(t, consumer.Enabled())
	assert.Equal(t, []*System{remover}, f.w.ActiveSystems())

	SetResource(f.w, &Grid{W: 4})
	assert.True(t, consumer.Enabled())
}

// go test -run ^TestGateEmptiedDuringTick$ . -count 1
func TestGateEmptiedDuringTick(t *testing.T) {
	f := newFixture(t)
	f.entity(t, f.newVel(0, 0))
	gated := 0
	s := NewSystem0("gated", func(*SystemContext) error {
		gated++
		return nil
	}).WithGate(f.vel)
	require.NoError(t, f.w.AddSystem(NewSystem0("clear", func(sc *SystemContext) error {
		f.vel.ClearCollection(sc.World)
		return nil
	})))
	require.NoError(t, f.w.AddSystem(s))

	require.NoError(t, f.w.Tick())
	assert.Equal(t, 0, gated)
	assert.False(t, s.Enabled())
}

// go test -run ^TestTickError$ . -count 1
func TestTickError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	after := 0
	require.NoError(t, f.w.AddSystem(NewSystem0("fail", func(*SystemContext) error { return boom })))
	require.NoError(t, f.w.AddSystem(NewSystem0("after", func(*SystemContext) error {
		after++
		return nil
	})))

	err := f.w.Tick()
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "system fail")
	assert.Equal(t, 0, after)

	assert.Panics(t, func() {
		w := NewWorld()
		_ = w.AddSystem(NewSystem0("panic", func(*SystemContext) error { panic("bad") }))
		_ = w.Tick()
	})
}

// go test -run ^TestResourceDependencyOverflow$ . -count 1
func TestResourceDependencyOverflow(t *testing.T) {
	deps := make([]reflect.Type, MaxSystemResources+1)
	for i := range deps {
		deps[i] = reflect.TypeFor[Grid]()
	}
	_, err := NewSystem("greedy", deps, nil)
	assert.ErrorIs(t, err, ErrResourceDependencyOverflow)

	s, err := NewSystem("fits", deps[:MaxSystemResources], func(*SystemContext, []any) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "fits", s.Name())
}

// go test -run ^TestFinishCascades$ . -count 1
func TestFinishCascades(t *testing.T) {
	f := newFixture(t)
	sub := f.w.NewSubWorld()
	subRuns := 0
	require.NoError(t, sub.AddSystem(NewSystem0("sub", func(*SystemContext) error {
		subRuns++
		return nil
	})))
	require.NoError(t, f.w.Tick())
	assert.Equal(t, 1, subRuns)

	sub.Finish()
	require.NoError(t, f.w.Tick(), "finished children are skipped")
	assert.Equal(t, 1, subRuns)
	assert.ErrorIs(t, sub.Tick(), ErrWorldFinished)

	late := f.w.NewSubWorld()
	f.w.Finish()
	assert.True(t, late.Finished())
	assert.ErrorIs(t, f.w.Tick(), ErrWorldFinished)
	assert.ErrorIs(t, f.w.AddSystem(NewSystem0("x", nil)), ErrWorldFinished)
}

// go test -run ^TestFinishDuringTick$ . -count 1
func TestFinishDuringTick(t *testing.T) {
	f := newFixture(t)
	after := 0
	require.NoError(t, f.w.AddSystem(NewSystem0("stop", func(sc *SystemContext) error {
		sc.World.Finish()
		return nil
	})))
	require.NoError(t, f.w.AddSystem(NewSystem0("after", func(*SystemContext) error {
		after++
		return nil
	})))
	require.NoError(t, f.w.Tick())
	assert.Equal(t, 0, after)
	assert.True(t, f.w.Finished())
}

// go test -run ^TestSystemAddedTwice$ . -count 1
func TestSystemAddedTwice(t *testing.T) {
	f := newFixture(t)
	s := NewSystem0("s", func(*SystemContext) error { return nil })
	require.NoError(t, f.w.AddSystem(s))
	assert.Error(t, f.w.AddSystem(s))
	assert.Same(t, f.w, s.World())
}

// go test -run ^TestSystemEvents$ . -count 1
func TestSystemEvents(t *testing.T) {
	f := newFixture(t)
	var log []string
	Subscribe(f.w.Events(), func(ev SystemEnabled) { log = append(log, "+"+ev.System.Name()) })
	Subscribe(f.w.Events(), func(ev SystemDisabled) { log = append(log, "-"+ev.System.Name()) })

	require.NoError(t, f.w.AddSystem(NewSystem1("g", func(*SystemContext, *Grid) error { return nil })))
	SetResource(f.w, &Grid{})
	RemoveResource[Grid](f.w)
	assert.Equal(t, []string{"+g", "-g"}, log)
}
