// Command demo drives a small particle world at a fixed tick rate. It is the
// timing source a game would normally provide.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/edwinsyarief/tsumiki"
	"github.com/edwinsyarief/tsumiki/config"
	"github.com/edwinsyarief/tsumiki/logging"
)

type Position struct {
	tsumiki.Component
	mgl64.Vec2
}

type Velocity struct {
	tsumiki.Component
	mgl64.Vec2
}

type Lifetime struct {
	tsumiki.Component
	Ticks int
}

// Arena bounds the simulation.
type Arena struct {
	Min, Max mgl64.Vec2
}

// Clock is advanced by the driver before every tick.
type Clock struct {
	Dt      float64
	Elapsed float64
}

// Spawner emits Rate particles per tick from Origin.
type Spawner struct {
	Origin mgl64.Vec2
	Rate   int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if p := os.Getenv("TSUMIKI_CONFIG"); p != "" {
		return config.Load(p)
	}
	return config.Default(), nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	reg := tsumiki.NewRegistry()
	pos := tsumiki.RegisterComponent[Position](reg)
	vel := tsumiki.RegisterComponent[Velocity](reg)
	life := tsumiki.RegisterComponent[Lifetime](reg)

	w := tsumiki.NewWorld(
		tsumiki.WithRegistry(reg),
		tsumiki.WithLogger(log),
		tsumiki.WithConfig(cfg.World),
	)
	particles := tsumiki.NewPool("particles")
	rng := rand.New(rand.NewSource(1))

	spawn := tsumiki.NewSystem1("spawn", func(sc *tsumiki.SystemContext, s *Spawner) error {
		for range s.Rate {
			dir := mgl64.Vec2{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
			if dir.Len() == 0 {
				dir = mgl64.Vec2{1, 0}
			}
			speed := 20 + rng.Float64()*40
			_, err := sc.World.Spawn(particles, func(prev []any) []any {
				if prev == nil {
					prev = []any{pos.New(sc.World, nil), vel.New(sc.World, nil), life.New(sc.World, nil)}
				}
				prev[0].(*Position).Vec2 = s.Origin
				prev[1].(*Velocity).Vec2 = dir.Normalize().Mul(speed)
				prev[2].(*Lifetime).Ticks = 60 + rng.Intn(120)
				return prev
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	move := tsumiki.NewSystem2("move", func(sc *tsumiki.SystemContext, c *Clock, a *Arena) error {
		q, err := tsumiki.UseQuery2[Position, Velocity](sc, "movers")
		if err != nil {
			return err
		}
		q.Each(func(_ *tsumiki.Entity, p *Position, v *Velocity) {
			p.Vec2 = p.Add(v.Mul(c.Dt))
			for i := range 2 {
				if p.Vec2[i] < a.Min[i] || p.Vec2[i] > a.Max[i] {
					v.Vec2[i] = -v.Vec2[i]
					p.Vec2[i] = mgl64.Clamp(p.Vec2[i], a.Min[i], a.Max[i])
				}
			}
		})
		return nil
	})

	expire := tsumiki.NewSystem0("expire", func(sc *tsumiki.SystemContext) error {
		q, err := tsumiki.UseQuery1[Lifetime](sc, "mortal")
		if err != nil {
			return err
		}
		q.Each(func(e *tsumiki.Entity, l *Lifetime) {
			if l.Ticks--; l.Ticks <= 0 {
				sc.World.DeleteEntity(e)
			}
		})
		return nil
	}).WithGate(life)

	report := tsumiki.NewSystem1("report", func(sc *tsumiki.SystemContext, c *Clock) error {
		if sc.Tick%100 != 0 {
			return nil
		}
		created, reused := particles.Stats()
		log.Info("status",
			zap.Uint64("tick", sc.Tick),
			zap.Float64("elapsed", c.Elapsed),
			zap.Int("live", pos.Len(sc.World)),
			zap.Int("parked", particles.Len()),
			zap.Int("created", created),
			zap.Int("reused", reused))
		return nil
	})

	for _, s := range []*tsumiki.System{spawn, move, expire, report} {
		if err := w.AddSystem(s); err != nil {
			return err
		}
	}
	if err := w.AddSystemOnce(tsumiki.NewSystem1("hello", func(sc *tsumiki.SystemContext, a *Arena) error {
		log.Info("arena ready", zap.Float64("width", a.Max.X()-a.Min.X()), zap.Float64("height", a.Max.Y()-a.Min.Y()))
		return nil
	})); err != nil {
		return err
	}

	clock := &Clock{Dt: cfg.Scheduler.TickRate.Seconds()}
	tsumiki.SetResource(w, clock)
	tsumiki.SetResource(w, &Arena{Max: mgl64.Vec2{320, 180}})
	tsumiki.SetResource(w, &Spawner{Origin: mgl64.Vec2{160, 90}, Rate: 4})

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(cfg.Scheduler.TickRate)
	defer ticker.Stop()

	log.Info("demo started", zap.String("world", w.ID()), zap.Duration("tick_rate", cfg.Scheduler.TickRate))
	for ticks := 0; cfg.Scheduler.MaxTicks == 0 || ticks < cfg.Scheduler.MaxTicks; ticks++ {
		select {
		case <-ticker.C:
			clock.Elapsed += clock.Dt
			if err := w.Tick(); err != nil {
				return fmt.Errorf("tick %d: %w", w.TickCount(), err)
			}
		case sig := <-shutdownCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			w.Finish()
			return nil
		}
	}
	w.Finish()
	return nil
}
