package pointer

import (
	"fmt"

	"github.com/8ff/gesturesd/internal/workerpool"
)

// External shells out to a helper binary (ydotool by default, matching
// original_source's Wayland fallback) for each call. Invocations are
// fire-and-forget, routed through the worker pool so a slow helper never
// blocks the dispatcher thread, per spec.md §4.2.
type External struct {
	helper string
	pool   *workerpool.Pool
}

// NewExternal returns a backend that shells out to helper (typically
// "ydotool") through the given worker pool.
func NewExternal(helper string, pool *workerpool.Pool) *External {
	if helper == "" {
		helper = "ydotool"
	}
	return &External{helper: helper, pool: pool}
}

func (e *External) Press(button Button) {
	e.pool.Submit(fmt.Sprintf("%s click -- %s", e.helper, downCode(button)))
}

func (e *External) Release(button Button) {
	e.pool.Submit(fmt.Sprintf("%s click -- %s", e.helper, upCode(button)))
}

func (e *External) MoveRelative(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	e.pool.Submit(fmt.Sprintf("%s mousemove -x %d -y %d", e.helper, dx, dy))
}

// Close is a no-op: the external backend owns no persistent resources, only
// short-lived subprocesses tracked by the shared worker pool.
func (e *External) Close() {}

// downCode/upCode return ydotool's packed button-state byte. Only the left
// button is exercised by any binding this daemon produces (spec.md §4.2),
// matching the fixed 0x40 (down) / 0x80 (up) codes used by
// original_source/src/mouse_handler.rs.
func downCode(_ Button) string { return "0x40" }
func upCode(_ Button) string   { return "0x80" }
