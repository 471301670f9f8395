// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

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

type comp3 struct {
	tsumiki.Component
	V int64
	W int64
}

type comp4 struct {
	tsumiki.Component
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		reg := tsumiki.NewRegistry()
		c1 := tsumiki.RegisterComponent[comp1](reg)
		c2 := tsumiki.RegisterComponent[comp2](reg)
		c3 := tsumiki.RegisterComponent[comp3](reg)
		c4 := tsumiki.RegisterComponent[comp4](reg)
		w := tsumiki.NewWorld(tsumiki.WithRegistry(reg))
		for i := range numEntities {
			comps := []any{c1.New(w, nil), c2.New(w, func(v *comp2) { v.V, v.W = 1, 2 })}
			if i%2 == 0 {
				comps = append(comps, c3.New(w, nil), c4.New(w, nil))
			}
			if _, err := w.NewEntity(comps...); err != nil {
				panic(err)
			}
		}
		query, err := tsumiki.NewQuery4[comp1, comp2, comp3, comp4](w)
		if err != nil {
			panic(err)
		}

		for range iters {
			query.Reset()
			for query.Next() {
				a, b, _, _ := query.Get()
				a.V += b.V
				a.W += b.W
			}
		}
	}
}
