package tsumiki

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// systemList is the activation list: enabled continuous systems, linked in
// registration order.
type systemList struct {
	head, tail *System
	len        int
}

// insertAfter links s after at, or at the head when at is nil.
func (l *systemList) insertAfter(at, s *System) {
	s.prev = at
	if at == nil {
		s.next = l.head
		l.head = s
	} else {
		s.next = at.next
		at.next = s
	}
	if s.next != nil {
		s.next.prev = s
	} else {
		l.tail = s
	}
	l.len++
}

func (l *systemList) unlink(s *System) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		l.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else {
		l.tail = s.prev
	}
	s.prev, s.next = nil, nil
	l.len--
}

// pendingOp is a structural change requested while a tick is running.
type pendingOp struct {
	system *System
	child  *World
}

// AddSystem registers s as a continuous system. It runs every tick while its
// dependencies resolve. Added during a tick, it joins at tick end.
func (w *World) AddSystem(s *System) error {
	return w.addSystem(s, false)
}

// AddSystemOnce registers s to run exactly once, on the first tick at which
// its dependencies resolve. Until then it is polled every tick.
func (w *World) AddSystemOnce(s *System) error {
	return w.addSystem(s, true)
}

func (w *World) addSystem(s *System, once bool) error {
	if w.finished {
		return ErrWorldFinished
	}
	if s.world != nil {
		return fmt.Errorf("system %s already added to world %s", s.name, s.world.id)
	}
	if err := s.bind(w); err != nil {
		return err
	}
	s.once = once
	if w.ticking {
		w.pending = append(w.pending, pendingOp{system: s})
		w.log.Debug("system deferred to tick end", zap.String("system", s.name), zap.Bool("once", once))
		return nil
	}
	w.linkSystem(s)
	return nil
}

// linkSystem makes s known to the scheduler.
func (w *World) linkSystem(s *System) {
	if s.once {
		s.enabled = true
		w.once = append(w.once, s)
		return
	}
	s.order = len(w.systems)
	w.systems = append(w.systems, s)
	for _, info := range s.deps {
		w.dependents[info.id] = append(w.dependents[info.id], s)
	}
	for _, info := range s.gateInfos {
		w.dependents[info.id] = append(w.dependents[info.id], s)
	}
	w.refresh(s)
}

// touch is called when info's availability flips: a resource set or removed,
// or a collection becoming empty or non-empty. Only dependents are relinked.
func (w *World) touch(info *typeInfo) {
	for _, s := range w.dependents[info.id] {
		if !w.ticking {
			w.refresh(s)
			continue
		}
		if !s.dirty {
			s.dirty = true
			w.relinks = append(w.relinks, s)
		}
	}
}

// refresh links or unlinks s to match its dependencies.
func (w *World) refresh(s *System) {
	ready := s.ready()
	if ready == s.enabled {
		return
	}
	s.enabled = ready
	if ready {
		w.active.insertAfter(w.activePredecessor(s), s)
		w.log.Debug("system enabled", zap.String("system", s.name))
		Publish(w.events, SystemEnabled{World: w, System: s})
		return
	}
	w.active.unlink(s)
	w.log.Debug("system disabled", zap.String("system", s.name))
	Publish(w.events, SystemDisabled{World: w, System: s})
}

// activePredecessor returns the nearest enabled system registered before s.
func (w *World) activePredecessor(s *System) *System {
	for i := s.order - 1; i >= 0; i-- {
		if p := w.systems[i]; p.enabled {
			return p
		}
	}
	return nil
}

// ActiveSystems returns the enabled continuous systems in run order.
func (w *World) ActiveSystems() []*System {
	out := make([]*System, 0, w.active.len)
	for s := w.active.head; s != nil; s = s.next {
		out = append(out, s)
	}
	return out
}

// PendingOnce returns the number of one-shot systems still waiting.
func (w *World) PendingOnce() int {
	return len(w.once)
}

// Tick runs one step: every enabled continuous system in registration
// order, then every one-shot system whose dependencies resolve, then each
// live sub-world. A system whose dependency went away earlier in the same
// tick is skipped. Structural changes requested meanwhile are applied at
// the end. The first system error stops the tick and is returned.
func (w *World) Tick() error {
	if w.finished {
		return ErrWorldFinished
	}
	if w.suspended {
		return nil
	}
	w.tick++
	w.ticking = true
	defer w.flush()

	for s := w.active.head; s != nil && !w.finished; s = s.next {
		// Relinks wait for flush, but a lost dependency takes effect now.
		if s.dirty && !s.ready() {
			continue
		}
		if err := s.call(w.tick); err != nil {
			return err
		}
	}
	if err := w.runOnce(); err != nil {
		return err
	}
	return w.tickChildren()
}

func (w *World) runOnce() error {
	kept := w.once[:0]
	n := len(w.once)
	for i := 0; i < n; i++ {
		s := w.once[i]
		if w.finished || !s.ready() {
			kept = append(kept, s)
			continue
		}
		s.enabled = false
		if err := s.call(w.tick); err != nil {
			kept = append(kept, w.once[i+1:n]...)
			clear(w.once[len(kept):n])
			w.once = kept
			return err
		}
	}
	clear(w.once[len(kept):n])
	w.once = kept
	return nil
}

func (w *World) tickChildren() error {
	live := w.children[:0]
	var err error
	for _, c := range w.children {
		if c.finished {
			continue
		}
		live = append(live, c)
		if err != nil || w.finished {
			continue
		}
		if cerr := c.Tick(); cerr != nil && !errors.Is(cerr, ErrWorldFinished) {
			err = fmt.Errorf("sub-world %s: %w", c.id, cerr)
		}
	}
	clear(w.children[len(live):])
	w.children = live
	return err
}

// flush ends the tick: deferred relinks first, then queued additions.
func (w *World) flush() {
	w.ticking = false
	for _, s := range w.relinks {
		s.dirty = false
		w.refresh(s)
	}
	clear(w.relinks)
	w.relinks = w.relinks[:0]

	pending := w.pending
	w.pending = nil
	for _, op := range pending {
		switch {
		case op.system != nil:
			w.linkSystem(op.system)
		case op.child != nil:
			if w.finished {
				op.child.Finish()
			}
			w.children = append(w.children, op.child)
		}
	}
}
