package drag

import (
	"sync"
	"testing"
	"time"

	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/pointer"
)

type call struct {
	op     string
	button pointer.Button
	dx, dy int
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeBackend) Press(b pointer.Button) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "press", button: b})
}

func (f *fakeBackend) Release(b pointer.Button) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "release", button: b})
}

func (f *fakeBackend) MoveRelative(dx, dy int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "move", dx: dx, dy: dy})
}

func (f *fakeBackend) Close() {}

func (f *fakeBackend) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func directDragBinding(delayMs, accel int) *gesture.Binding {
	return &gesture.Binding{
		Kind:           gesture.KindSwipe,
		Fingers:        3,
		Direction:      gesture.DirAny,
		MouseUpDelayMs: &delayMs,
		Acceleration:   &accel,
	}
}

// S1 from spec.md §8: a drag that lifts and re-presses within the delay
// window continues as one drag instead of a new press.
func TestEngineLiftAndRepositionContinuesDrag(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	b := directDragBinding(500, 10)

	e.Begin(3, b)
	e.Update(10, 0, false)
	e.End()

	if got := e.State(); got != Lifting {
		t.Fatalf("state after End = %v, want Lifting", got)
	}

	e.Begin(3, b)
	if got := e.State(); got != Dragging {
		t.Fatalf("state after re-Begin within delay = %v, want Dragging", got)
	}

	calls := backend.snapshot()
	for _, c := range calls {
		if c.op == "release" {
			t.Fatalf("release fired before the lift timer expired: %+v", calls)
		}
	}

	e.End()
	e.fireLift()
	calls = backend.snapshot()
	releases := 0
	for _, c := range calls {
		if c.op == "release" {
			releases++
		}
	}
	if releases != 1 {
		t.Fatalf("got %d releases, want exactly 1: %+v", releases, calls)
	}
}

// S2 from spec.md §8: acceleration scales move deltas (clamping is covered
// by TestEngineUpdateClampsToMax).
func TestEngineUpdateScalesByAcceleration(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	b := directDragBinding(100, 20)

	e.Begin(3, b)
	e.Update(5, -5, false)

	calls := backend.snapshot()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want press+move: %+v", len(calls), calls)
	}
	move := calls[1]
	if move.op != "move" || move.dx != 10 || move.dy != -10 {
		t.Fatalf("move = %+v, want dx=10 dy=-10 (5*20/10)", move)
	}
}

func TestEngineUpdateClampsToMax(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	b := directDragBinding(100, 200)

	e.Begin(3, b)
	e.Update(100, 0, false)

	calls := backend.snapshot()
	move := calls[len(calls)-1]
	if move.dx != 127 {
		t.Fatalf("dx = %d, want clamped to 127", move.dx)
	}
}

func TestEngineCancelReleasesImmediately(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	b := directDragBinding(500, 10)

	e.Begin(3, b)
	e.Cancel()

	if got := e.State(); got != Idle {
		t.Fatalf("state after Cancel = %v, want Idle", got)
	}
	calls := backend.snapshot()
	if len(calls) != 2 || calls[1].op != "release" {
		t.Fatalf("calls = %+v, want press then release", calls)
	}
}

func TestEngineForceReleaseFromDragging(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	b := directDragBinding(500, 10)

	e.Begin(3, b)
	e.Update(1, 1, false)
	e.ForceRelease()

	if got := e.State(); got != Idle {
		t.Fatalf("state after ForceRelease = %v, want Idle", got)
	}
	e.ForceRelease()
	calls := backend.snapshot()
	releases := 0
	for _, c := range calls {
		if c.op == "release" {
			releases++
		}
	}
	if releases != 1 {
		t.Fatalf("ForceRelease called twice produced %d releases, want 1", releases)
	}
}

func TestEngineDifferentBindingWhileLiftingReleasesThenPresses(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	a := directDragBinding(500, 10)
	c := directDragBinding(500, 30)

	e.Begin(3, a)
	e.End()
	if e.State() != Lifting {
		t.Fatalf("state = %v, want Lifting", e.State())
	}

	e.Begin(3, c)
	calls := backend.snapshot()
	// press(a), release(a) [forced by the binding switch], press(c)
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3: %+v", len(calls), calls)
	}
	if calls[1].op != "release" || calls[2].op != "press" {
		t.Fatalf("calls = %+v, want release then press", calls)
	}
	if got := e.State(); got != Pressing {
		t.Fatalf("state = %v, want Pressing", got)
	}
}

// TestEngineInterruptFiresPendingReleaseForNonDragBegin covers the other
// half of spec.md §9's tie-break: a new same-finger Begin that doesn't match
// a direct-drag binding at all still needs the pending release to fire
// immediately rather than waiting out the lift timer.
func TestEngineInterruptFiresPendingReleaseForNonDragBegin(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	a := directDragBinding(500, 10)

	e.Begin(3, a)
	e.End()
	if e.State() != Lifting {
		t.Fatalf("state = %v, want Lifting", e.State())
	}

	e.Interrupt(3)

	calls := backend.snapshot()
	if len(calls) != 2 || calls[1].op != "release" {
		t.Fatalf("got %+v, want press then release", calls)
	}
	if got := e.State(); got != Idle {
		t.Fatalf("state = %v, want Idle", got)
	}
}

// TestEngineInterruptIgnoresMismatchedFingerCount ensures Interrupt only
// touches a pending release for the same finger count it belongs to.
func TestEngineInterruptIgnoresMismatchedFingerCount(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	a := directDragBinding(500, 10)

	e.Begin(3, a)
	e.End()

	e.Interrupt(4)

	if got := e.State(); got != Lifting {
		t.Fatalf("state = %v, want still Lifting", got)
	}
	if calls := backend.snapshot(); len(calls) != 1 {
		t.Fatalf("got %+v, want only the initial press", calls)
	}
}

func TestEngineLiftTimerActuallyFires(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend)
	b := directDragBinding(20, 10)

	e.Begin(3, b)
	e.End()

	deadline := time.After(time.Second)
	for {
		if e.State() == Idle {
			break
		}
		select {
		case <-deadline:
			t.Fatal("lift timer never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	calls := backend.snapshot()
	if calls[len(calls)-1].op != "release" {
		t.Fatalf("last call = %+v, want release", calls[len(calls)-1])
	}
}
