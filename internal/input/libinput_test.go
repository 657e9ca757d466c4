package input

import (
	"testing"

	"github.com/8ff/gesturesd/internal/gesture"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		name string
		line string
		want gesture.Event
		ok   bool
	}{
		{
			name: "swipe begin",
			line: " event5   GESTURE_SWIPE_BEGIN     +9.966s\t3",
			want: gesture.Event{Kind: gesture.KindSwipe, Phase: gesture.PhaseBegin, Fingers: 3},
			ok:   true,
		},
		{
			name: "swipe update",
			line: " event5   GESTURE_SWIPE_UPDATE    +9.976s\t3 -1.32/-0.34 (-1.40/-0.36 unaccelerated)",
			want: gesture.Event{Kind: gesture.KindSwipe, Phase: gesture.PhaseUpdate, Fingers: 3, DX: -1.32, DY: -0.34, DXUnaccel: -1.40, DYUnaccel: -0.36},
			ok:   true,
		},
		{
			name: "swipe end",
			line: " event5   GESTURE_SWIPE_END       +10.123s\t3",
			want: gesture.Event{Kind: gesture.KindSwipe, Phase: gesture.PhaseEnd, Fingers: 3},
			ok:   true,
		},
		{
			name: "swipe end cancelled",
			line: " event5   GESTURE_SWIPE_END       +10.123s\t3 cancelled",
			want: gesture.Event{Kind: gesture.KindSwipe, Phase: gesture.PhaseCancel, Fingers: 3},
			ok:   true,
		},
		{
			name: "pinch begin",
			line: " event5   GESTURE_PINCH_BEGIN     +9.966s\t2",
			want: gesture.Event{Kind: gesture.KindPinch, Phase: gesture.PhaseBegin, Fingers: 2},
			ok:   true,
		},
		{
			name: "pinch update",
			line: " event5   GESTURE_PINCH_UPDATE    +9.976s\t2 -1.32/-0.34 1.234 @ 5.67",
			want: gesture.Event{Kind: gesture.KindPinch, Phase: gesture.PhaseUpdate, Fingers: 2, DX: -1.32, DY: -0.34, Scale: 1.234, AngleDelta: 5.67},
			ok:   true,
		},
		{
			name: "hold begin",
			line: " event5   GESTURE_HOLD_BEGIN      +9.966s\t4",
			want: gesture.Event{Kind: gesture.KindHold, Phase: gesture.PhaseBegin, Fingers: 4},
			ok:   true,
		},
		{
			name: "hold end",
			line: " event5   GESTURE_HOLD_END        +10.123s\t4",
			want: gesture.Event{Kind: gesture.KindHold, Phase: gesture.PhaseEnd, Fingers: 4},
			ok:   true,
		},
		{
			name: "unrelated line is ignored",
			line: " event5   POINTER_MOTION           +9.966s\t1.00/1.00",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseLine(tc.line)
			if ok != tc.ok {
				t.Fatalf("parseLine(%q) ok = %v, want %v", tc.line, ok, tc.ok)
			}
			if !ok {
				return
			}
			if got != tc.want {
				t.Fatalf("parseLine(%q) = %+v, want %+v", tc.line, got, tc.want)
			}
		})
	}
}
