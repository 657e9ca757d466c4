// Package dispatch implements the dispatcher (C5): it turns a stream of
// gesture.Events into either shell commands (via the worker pool) or calls
// into the direct-drag engine (C3), matching each event against the
// current binding index and routing it accordingly.
package dispatch

import (
	"time"

	"github.com/8ff/gesturesd/internal/drag"
	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/index"
	"github.com/8ff/gesturesd/internal/throttle"
	"github.com/8ff/gesturesd/internal/workerpool"
)

// active tracks the one gesture instance currently in flight. libinput
// serializes gesture events for a device, so the dispatcher only ever needs
// to track a single instance at a time (spec.md §4.4).
type active struct {
	kind    gesture.Kind
	fingers int

	dx, dy     float64 // accumulated since Begin
	scale      float64
	angleDelta float64 // accumulated since Begin

	// isDirectDrag is decided once, at Begin, and never re-evaluated: a
	// direct-drag binding always has direction=Any and so always matches,
	// but the drag engine's state machine (not the binding index) owns
	// everything that happens after Begin.
	isDirectDrag bool

	throttle *throttle.Throttle
}

// Dispatcher wires the index cache, worker pool, and drag engine together.
type Dispatcher struct {
	index *index.Cache
	pool  *workerpool.Pool
	drag  *drag.Engine

	cur *active
}

// New returns a Dispatcher. drag may be nil only in tests that never feed it
// a direct-drag binding.
func New(idx *index.Cache, pool *workerpool.Pool, dragEngine *drag.Engine) *Dispatcher {
	return &Dispatcher{index: idx, pool: pool, drag: dragEngine}
}

// Handle processes one event from the input source. It is not safe to call
// concurrently from multiple goroutines; the input source is expected to
// deliver events for one device serially.
func (d *Dispatcher) Handle(ev gesture.Event) {
	switch ev.Phase {
	case gesture.PhaseBegin:
		d.handleBegin(ev)
	case gesture.PhaseUpdate:
		d.handleUpdate(ev)
	case gesture.PhaseEnd:
		d.handleEnd(ev)
	case gesture.PhaseCancel:
		d.handleCancel(ev)
	}
}

func (d *Dispatcher) handleBegin(ev gesture.Event) {
	d.index.RefreshIfStale()
	bindings := d.index.Current().Bindings(ev.Fingers)

	ag := &active{
		kind:     ev.Kind,
		fingers:  ev.Fingers,
		scale:    1.0,
		throttle: throttle.New(throttle.DefaultFPS),
	}
	d.cur = ag

	switch ev.Kind {
	case gesture.KindHold:
		if b := firstHoldBinding(bindings); b != nil {
			d.pool.Submit(Substitute(b.Action, 0, 0, 0, 0))
		}
	case gesture.KindSwipe:
		// With no accumulated vector yet, only a direction=Any binding
		// can match (spec.md §4.5's Begin step never resolves a
		// direction). This is also the only point at which a
		// direct-drag binding is identified.
		b := matchSwipe(bindings, gesture.DirAny)
		if b != nil && b.IsDirectDrag() {
			ag.isDirectDrag = true
			if d.drag != nil {
				d.drag.Begin(ev.Fingers, b)
			}
			return
		}
		// The new Begin doesn't continue a direct drag: if the engine has a
		// release pending from a previous gesture on the same fingers, it
		// fires now instead of waiting for its timer (spec.md §9).
		if d.drag != nil {
			d.drag.Interrupt(ev.Fingers)
		}
		if b == nil {
			return
		}
		if b.Start != "" {
			d.pool.Submit(Substitute(b.Start, 0, 0, 0, 0))
		}
	case gesture.KindPinch:
		if b := matchPinch(bindings, gesture.PinchAny); b != nil && b.Start != "" {
			d.pool.Submit(Substitute(b.Start, 0, 0, 1.0, 0))
		}
	}
}

func (d *Dispatcher) handleUpdate(ev gesture.Event) {
	ag := d.cur
	if ag == nil {
		return
	}

	switch ag.kind {
	case gesture.KindSwipe:
		ag.dx += ev.DX
		ag.dy += ev.DY
	case gesture.KindPinch:
		ag.dx += ev.DX
		ag.dy += ev.DY
		ag.scale = ev.Scale
		ag.angleDelta += ev.AngleDelta
	default:
		return
	}

	if ag.isDirectDrag {
		if d.drag != nil {
			d.drag.Update(ev.DX, ev.DY, false)
		}
		return
	}

	bindings := d.index.Current().Bindings(ag.fingers)
	switch ag.kind {
	case gesture.KindSwipe:
		b := matchSwipe(bindings, gesture.BucketDirection(ag.dx, ag.dy))
		if b == nil || b.Update == "" {
			return
		}
		if ag.throttle.Pass(time.Now(), false) {
			d.pool.Submit(Substitute(b.Update, ag.dx, ag.dy, 0, 0))
		}
	case gesture.KindPinch:
		b := matchPinch(bindings, gesture.BucketPinchDir(ag.scale))
		if b == nil || b.Update == "" {
			return
		}
		if ag.throttle.Pass(time.Now(), false) {
			d.pool.Submit(Substitute(b.Update, ag.dx, ag.dy, ag.scale, ag.angleDelta))
		}
	}
}

func (d *Dispatcher) handleEnd(ev gesture.Event) {
	ag := d.cur
	d.cur = nil
	if ag == nil {
		return
	}

	// An End event may carry its own dx/dy (swipe) or the gesture's final
	// scale (pinch) — fold it in before matching so the final accumulated
	// vector reflects the whole gesture. An End with no scale (Scale == 0,
	// as the libinput text source produces) keeps the last Update's scale.
	switch ag.kind {
	case gesture.KindSwipe:
		ag.dx += ev.DX
		ag.dy += ev.DY
	case gesture.KindPinch:
		ag.dx += ev.DX
		ag.dy += ev.DY
		if ev.Scale != 0 {
			ag.scale = ev.Scale
		}
		ag.angleDelta += ev.AngleDelta
	}

	if ag.isDirectDrag {
		if d.drag != nil {
			d.drag.End()
		}
		return
	}
	if ag.kind == gesture.KindHold {
		return
	}

	bindings := d.index.Current().Bindings(ag.fingers)
	switch ag.kind {
	case gesture.KindSwipe:
		b := matchSwipe(bindings, gesture.BucketDirection(ag.dx, ag.dy))
		if b == nil || b.End == "" {
			return
		}
		d.pool.Submit(Substitute(b.End, ag.dx, ag.dy, 0, 0))
	case gesture.KindPinch:
		b := matchPinch(bindings, gesture.BucketPinchDir(ag.scale))
		if b == nil || b.End == "" {
			return
		}
		d.pool.Submit(Substitute(b.End, ag.dx, ag.dy, ag.scale, ag.angleDelta))
	}
}

func (d *Dispatcher) handleCancel(ev gesture.Event) {
	ag := d.cur
	d.cur = nil
	if ag == nil {
		return
	}
	if ag.isDirectDrag && d.drag != nil {
		d.drag.Cancel()
	}
}

func firstHoldBinding(bindings []*gesture.Binding) *gesture.Binding {
	for _, b := range bindings {
		if b.Kind == gesture.KindHold {
			return b
		}
	}
	return nil
}

// matchSwipe returns the first swipe binding whose direction is Any or
// equals dir, per spec.md §4.5's "first binding in declaration order whose
// direction matches" rule.
func matchSwipe(bindings []*gesture.Binding, dir gesture.Direction) *gesture.Binding {
	for _, b := range bindings {
		if b.Kind == gesture.KindSwipe && (b.Direction == gesture.DirAny || b.Direction == dir) {
			return b
		}
	}
	return nil
}

func matchPinch(bindings []*gesture.Binding, dir gesture.PinchDir) *gesture.Binding {
	for _, b := range bindings {
		if b.Kind == gesture.KindPinch && (b.PinchDirection == gesture.PinchAny || b.PinchDirection == dir) {
			return b
		}
	}
	return nil
}
