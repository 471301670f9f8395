// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/edwinsyarief/tsumiki"
)

type comp1 struct {
	tsumiki.Component
	V int64
	W int64
}

type comp2 struct {
	tsumiki.Component
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		reg := tsumiki.NewRegistry()
		c1 := tsumiki.RegisterComponent[comp1](reg)
		c2 := tsumiki.RegisterComponent[comp2](reg)
		w := tsumiki.NewWorld(tsumiki.WithRegistry(reg))
		pool := tsumiki.NewPool("entities")
		query, err := tsumiki.NewQuery2[comp1, comp2](w)
		if err != nil {
			panic(err)
		}
		build := func(prev []any) []any {
			if prev != nil {
				return prev
			}
			return []any{c1.New(w, nil), c2.New(w, func(v *comp2) { v.V, v.W = 1, 1 })}
		}

		for range iters {
			for range numEntities {
				if _, err := w.Spawn(pool, build); err != nil {
					panic(err)
				}
			}
			query.Each(func(e *tsumiki.Entity, a *comp1, b *comp2) {
				a.V += b.V
				a.W += b.W
				w.DeleteEntity(e)
			})
		}
	}
}
