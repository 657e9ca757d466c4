// Package drag implements the direct-drag state machine (C3): it turns a
// continuous three-finger swipe into a synthetic button-press, a stream of
// accelerated relative moves, and a delayed button-release.
package drag

import (
	"sync"
	"time"

	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/pointer"
	"github.com/8ff/gesturesd/internal/throttle"
)

// State is one of the four drag states from spec.md §4.3.
type State int

const (
	Idle State = iota
	Pressing
	Dragging
	Lifting
)

const maxAccelDelta = 127

// Engine drives one pointer.Backend on behalf of direct-drag bindings. It
// is owned by the dispatcher goroutine; the concurrency it guards against
// is its own lift timer firing on a different goroutine and ForceRelease
// being called from the shutdown path.
type Engine struct {
	backend pointer.Backend

	mu       sync.Mutex
	state    State
	fingers  int
	binding  *gesture.Binding
	timer    *time.Timer
	throttle *throttle.Throttle
}

// New returns an Engine driving backend.
func New(backend pointer.Backend) *Engine {
	return &Engine{backend: backend, throttle: throttle.New(throttle.DefaultFPS)}
}

// State returns the engine's current state (for tests/introspection).
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Begin handles a Swipe.Begin that matched binding, a direct-drag binding.
// If the engine is already Lifting for the same finger count and the same
// binding, the pending release is cancelled and the drag continues instead
// of re-pressing (spec.md §4.3, and the tie-break in §9).
func (e *Engine) Begin(fingers int, binding *gesture.Binding) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Lifting && e.fingers == fingers && e.binding == binding {
		e.cancelTimerLocked()
		e.state = Dragging
		e.throttle.Reset()
		return
	}

	if e.state == Lifting {
		// A different binding now matches: the pending release fires
		// immediately (spec.md §9 open question resolution), then this
		// gesture starts fresh.
		e.cancelTimerLocked()
		e.backend.Release(pointer.ButtonLeft)
		e.state = Idle
	}

	if e.state != Idle {
		return
	}
	e.state = Pressing
	e.fingers = fingers
	e.binding = binding
	e.throttle.Reset()
	e.backend.Press(pointer.ButtonLeft)
}

// Interrupt fires the pending release immediately if the engine is
// currently Lifting for the given finger count, without starting anything
// new. Called when a fresh Begin on the same fingers turns out not to match
// the binding the pending release belongs to (spec.md §9's tie-break:
// "otherwise the pending release fires immediately").
func (e *Engine) Interrupt(fingers int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Lifting || e.fingers != fingers {
		return
	}
	e.cancelTimerLocked()
	e.backend.Release(pointer.ButtonLeft)
	e.state = Idle
	e.binding = nil
}

// Update handles a Swipe.Update for the active drag gesture. isFinal marks
// the update that accompanies End (spec.md §4.3's throttle exemption).
func (e *Engine) Update(dx, dy float64, isFinal bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Pressing && e.state != Dragging {
		return
	}
	e.state = Dragging

	if !e.throttle.Pass(time.Now(), isFinal) {
		return
	}

	accel := 10
	if e.binding != nil && e.binding.Acceleration != nil {
		accel = *e.binding.Acceleration
	}
	mx := clamp(roundScale(dx, accel))
	my := clamp(roundScale(dy, accel))
	e.backend.MoveRelative(mx, my)
}

// End handles a Swipe.End for the active drag gesture: arms a one-shot lift
// timer for mouse_up_delay_ms rather than releasing immediately.
func (e *Engine) End() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Pressing && e.state != Dragging {
		return
	}

	delay := 0
	if e.binding != nil && e.binding.MouseUpDelayMs != nil {
		delay = *e.binding.MouseUpDelayMs
	}
	e.state = Lifting
	e.cancelTimerLocked()
	e.timer = time.AfterFunc(time.Duration(delay)*time.Millisecond, e.fireLift)
}

// Cancel handles a Swipe.Cancel: cancel any pending timer and release
// immediately, regardless of state (spec.md §4.3's "any -> Cancel -> Idle").
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Idle {
		return
	}
	e.cancelTimerLocked()
	e.backend.Release(pointer.ButtonLeft)
	e.state = Idle
	e.binding = nil
}

// ForceRelease is called during shutdown: if a drag is active in any
// non-Idle state, it emits a release and returns to Idle (spec.md §4.9/§8
// invariant 7 — at most one release(left) is emitted at shutdown).
func (e *Engine) ForceRelease() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Idle {
		return
	}
	e.cancelTimerLocked()
	e.backend.Release(pointer.ButtonLeft)
	e.state = Idle
	e.binding = nil
}

func (e *Engine) fireLift() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Lifting {
		return
	}
	e.backend.Release(pointer.ButtonLeft)
	e.state = Idle
	e.binding = nil
}

// cancelTimerLocked stops any pending lift timer. Must be called with mu held.
func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func roundScale(d float64, accel int) float64 {
	return d * float64(accel) / 10.0
}

func clamp(v float64) int {
	i := int(v + sign(v)*0.5) // round half away from zero
	if i > maxAccelDelta {
		return maxAccelDelta
	}
	if i < -maxAccelDelta {
		return -maxAccelDelta
	}
	return i
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
