package tsumiki

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// --- Test Components ---
type Position struct {
	Component
	X, Y float64
}

type Velocity struct {
	Component
	DX, DY float64
}

type Health struct {
	Component
	HP int
}

type Tag struct {
	Component
}

type Unregistered struct {
	Component
}

// --- Test Resources ---
type Grid struct{ W, H int }
type Clock struct{ Elapsed float64 }

// fixture is a world with the test components registered in a fixed order:
// Position=0, Velocity=1, Health=2, Tag=3.
type fixture struct {
	reg *Registry
	w   *World
	pos *ComponentType[Position]
	vel *ComponentType[Velocity]
	hp  *ComponentType[Health]
	tag *ComponentType[Tag]

	disposed map[*Health]int
}

func newFixture(t testing.TB, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{reg: NewRegistry(), disposed: make(map[*Health]int)}
	f.pos = RegisterComponent[Position](f.reg)
	f.vel = RegisterComponent[Velocity](f.reg)
	f.hp = RegisterComponent(f.reg, WithTeardown(func(_ *World, _ *Entity, v *Health) {
		f.disposed[v]++
	}))
	f.tag = RegisterComponent[Tag](f.reg)
	f.w = NewWorld(append([]Option{WithRegistry(f.reg)}, opts...)...)
	return f
}

func (f *fixture) newPos(x, y float64) *Position {
	return f.pos.New(f.w, func(p *Position) { p.X, p.Y = x, y })
}

func (f *fixture) newVel(dx, dy float64) *Velocity {
	return f.vel.New(f.w, func(v *Velocity) { v.DX, v.DY = dx, dy })
}

func (f *fixture) newHP(hp int) *Health {
	return f.hp.New(f.w, func(h *Health) { h.HP = hp })
}

func (f *fixture) entity(t testing.TB, components ...any) *Entity {
	t.Helper()
	e, err := f.w.NewEntity(components...)
	require.NoError(t, err)
	return e
}

// checkCollection verifies the dense store invariant for info in w.
func checkCollection(t testing.TB, w *World, info *typeInfo) {
	t.Helper()
	c := w.collectionFor(info)
	for i := 0; i < c.size; i++ {
		e := c.refs[i]
		require.NotNil(t, e, "refs[%d]", i)
		require.EqualValues(t, i, e.slot(info), "registration slot of refs[%d]", i)
	}
	for i := c.size; i < len(c.refs); i++ {
		require.Nil(t, c.refs[i], "stale tail slot %d", i)
	}
}
