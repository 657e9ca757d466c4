// Package input implements the gesture event source (C1): it spawns
// `libinput debug-events` and turns its line-oriented text output into
// typed gesture.Event values, the same subprocess-plus-regex approach
// 8ff-ffgestures uses for raw touch points, generalized to libinput's own
// gesture event family.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/log"
)

// Lines look like (whitespace-collapsed for readability):
//
//	event5  GESTURE_SWIPE_BEGIN   +9.966s  3
//	event5  GESTURE_SWIPE_UPDATE  +9.976s  3  -1.32/-0.34 (-1.40/-0.36 unaccelerated)
//	event5  GESTURE_SWIPE_END     +10.123s 3
//	event5  GESTURE_PINCH_BEGIN   +9.966s  2
//	event5  GESTURE_PINCH_UPDATE  +9.976s  2  -1.32/-0.34 1.234 @ 5.67
//	event5  GESTURE_PINCH_END     +10.123s 2 cancelled
//	event5  GESTURE_HOLD_BEGIN    +9.966s  3
//	event5  GESTURE_HOLD_END      +10.123s 3
var (
	reBegin       = regexp.MustCompile(`^\s*\S+\s+GESTURE_(SWIPE|PINCH|HOLD)_BEGIN\s+\+[\d.]+s\s+(\d+)`)
	reSwipeUpdate = regexp.MustCompile(`^\s*\S+\s+GESTURE_SWIPE_UPDATE\s+\+[\d.]+s\s+(\d+)\s+(-?[\d.]+)/(-?[\d.]+)\s+\((-?[\d.]+)/(-?[\d.]+)\s+unaccelerated\)`)
	rePinchUpdate = regexp.MustCompile(`^\s*\S+\s+GESTURE_PINCH_UPDATE\s+\+[\d.]+s\s+(\d+)\s+(-?[\d.]+)/(-?[\d.]+)\s+(-?[\d.]+)\s+@\s+(-?[\d.]+)`)
	reEnd         = regexp.MustCompile(`^\s*\S+\s+GESTURE_(SWIPE|PINCH|HOLD)_END\s+\+[\d.]+s\s+(\d+)(\s+cancelled)?`)
)

// Source runs `libinput debug-events` and delivers parsed gesture.Events to
// a handler on the calling goroutine. It is a fatal startup error if the
// `libinput` binary is not installed; a line that fails to parse mid-stream
// is logged and skipped rather than aborting the daemon (spec.md §4.1/§7).
type Source struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// Open verifies the libinput binary is available and starts the subprocess,
// returning an error suitable for a fatal exit if either step fails.
func Open() (*Source, error) {
	if _, err := exec.LookPath("libinput"); err != nil {
		return nil, fmt.Errorf("libinput command not found, install libinput: %w", err)
	}

	cmd := exec.Command("libinput", "debug-events")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create libinput stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start libinput debug-events: %w", err)
	}
	return &Source{cmd: cmd, stdout: stdout}, nil
}

// Run reads lines until the subprocess exits or its stdout closes, calling
// handle for every gesture event it successfully parses. It returns when
// the stream ends (typically because Close killed the subprocess).
func (s *Source) Run(handle func(gesture.Event)) error {
	scanner := bufio.NewScanner(s.stdout)
	for scanner.Scan() {
		ev, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		handle(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read libinput output: %w", err)
	}
	return nil
}

// Close terminates the subprocess. Safe to call once, from the shutdown
// path.
func (s *Source) Close() {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
}

func parseLine(line string) (gesture.Event, bool) {
	if m := reBegin.FindStringSubmatch(line); m != nil {
		kind, ok := parseKind(m[1])
		if !ok {
			return gesture.Event{}, false
		}
		fingers, err := strconv.Atoi(m[2])
		if err != nil {
			log.Warn("could not parse finger count in %q: %v", line, err)
			return gesture.Event{}, false
		}
		return gesture.Event{Kind: kind, Phase: gesture.PhaseBegin, Fingers: fingers}, true
	}

	if m := reSwipeUpdate.FindStringSubmatch(line); m != nil {
		fingers, _ := strconv.Atoi(m[1])
		dx, err1 := strconv.ParseFloat(m[2], 64)
		dy, err2 := strconv.ParseFloat(m[3], 64)
		dxu, err3 := strconv.ParseFloat(m[4], 64)
		dyu, err4 := strconv.ParseFloat(m[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			log.Warn("could not parse swipe update in %q", line)
			return gesture.Event{}, false
		}
		return gesture.Event{
			Kind: gesture.KindSwipe, Phase: gesture.PhaseUpdate, Fingers: fingers,
			DX: dx, DY: dy, DXUnaccel: dxu, DYUnaccel: dyu,
		}, true
	}

	if m := rePinchUpdate.FindStringSubmatch(line); m != nil {
		fingers, _ := strconv.Atoi(m[1])
		dx, err1 := strconv.ParseFloat(m[2], 64)
		dy, err2 := strconv.ParseFloat(m[3], 64)
		scale, err3 := strconv.ParseFloat(m[4], 64)
		angle, err4 := strconv.ParseFloat(m[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			log.Warn("could not parse pinch update in %q", line)
			return gesture.Event{}, false
		}
		return gesture.Event{
			Kind: gesture.KindPinch, Phase: gesture.PhaseUpdate, Fingers: fingers,
			DX: dx, DY: dy, Scale: scale, AngleDelta: angle,
		}, true
	}

	if m := reEnd.FindStringSubmatch(line); m != nil {
		kind, ok := parseKind(m[1])
		if !ok {
			return gesture.Event{}, false
		}
		fingers, err := strconv.Atoi(m[2])
		if err != nil {
			log.Warn("could not parse finger count in %q: %v", line, err)
			return gesture.Event{}, false
		}
		phase := gesture.PhaseEnd
		if m[3] != "" {
			phase = gesture.PhaseCancel
		}
		return gesture.Event{Kind: kind, Phase: phase, Fingers: fingers}, true
	}

	return gesture.Event{}, false
}

func parseKind(s string) (gesture.Kind, bool) {
	switch s {
	case "SWIPE":
		return gesture.KindSwipe, true
	case "PINCH":
		return gesture.KindPinch, true
	case "HOLD":
		return gesture.KindHold, true
	default:
		return 0, false
	}
}
