package log

import "testing"

// SetDebug just flips an atomic flag; this checks that SetDebug sets and
// clears the flag Debug consults, without calling Debug or asserting on
// stdout formatting.
func TestSetDebugTogglesDebugOutput(t *testing.T) {
	SetDebug(false)
	if debugEnabled.Load() {
		t.Fatal("debug should start disabled")
	}
	SetDebug(true)
	if !debugEnabled.Load() {
		t.Fatal("SetDebug(true) should enable debug output")
	}
	SetDebug(false)
}
