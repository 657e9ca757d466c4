package pointer

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"

	"github.com/8ff/gesturesd/internal/log"
)

type cmdKind int

const (
	cmdPress cmdKind = iota
	cmdRelease
	cmdMove
)

type command struct {
	kind   cmdKind
	button Button
	dx, dy int
}

// NativeX11 owns a dedicated thread holding the xgb connection, since the
// connection is not safe to share across goroutines. If the connection
// cannot be opened it drops into degraded mode: commands are accepted and
// silently dropped rather than aborting the process (spec.md §4.2/§7).
type NativeX11 struct {
	cmds     chan command
	degraded atomic.Bool
	done     chan struct{}
}

// NewNativeX11 starts the dedicated pointer thread and returns immediately;
// connection setup happens on that thread.
func NewNativeX11() *NativeX11 {
	b := &NativeX11{
		cmds: make(chan command, 256),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

// Press, Release, and MoveRelative all send on the command channel and
// block if it is full. Press/Release must never be dropped: a lost
// release(left) would strand the button held down (spec.md §8 invariant
// 2). Queued MoveRelative commands are coalesced on the receiving side
// (see drainMoves), so in practice the channel drains far faster than it
// fills and this rarely blocks.
func (b *NativeX11) Press(button Button)   { b.cmds <- command{kind: cmdPress, button: button} }
func (b *NativeX11) Release(button Button) { b.cmds <- command{kind: cmdRelease, button: button} }
func (b *NativeX11) MoveRelative(dx, dy int) {
	b.cmds <- command{kind: cmdMove, dx: dx, dy: dy}
}

func (b *NativeX11) Close() {
	close(b.cmds)
	<-b.done
}

func (b *NativeX11) run() {
	defer close(b.done)

	setupX11Env()

	conn, err := xgb.NewConn()
	if err != nil {
		log.Warn("failed to open X11 display, native pointer backend is degraded: %v", err)
		b.degraded.Store(true)
		b.drainDegraded()
		return
	}
	defer conn.Close()

	if err := xtest.Init(conn); err != nil {
		log.Warn("XTEST extension unavailable, native pointer backend is degraded: %v", err)
		b.degraded.Store(true)
		b.drainDegraded()
		return
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	// pending holds a non-move command that drainMoves already pulled off
	// the channel while coalescing; it is processed on the next iteration
	// instead of being requeued or dropped.
	var pending *command
	for {
		var c command
		if pending != nil {
			c, pending = *pending, nil
		} else {
			next, ok := <-b.cmds
			if !ok {
				return
			}
			c = next
		}
		if c.kind == cmdMove {
			c.dx, c.dy, pending = b.drainMoves(c.dx, c.dy)
		}
		b.exec(conn, root, c)
	}
}

// drainMoves folds in every cmdMove command already queued behind the one
// just received, summing their deltas into one relative move the way
// original_source/src/mouse_handler.rs's X11 worker coalesces a backed-up
// move queue instead of replaying it frame by frame. It stops and returns
// the first non-move command it encounters so the caller can still process
// it in order — a queued Press/Release is never discarded to make room for
// coalescing.
func (b *NativeX11) drainMoves(dx, dy int) (int, int, *command) {
	for {
		select {
		case c, ok := <-b.cmds:
			if !ok {
				return dx, dy, nil
			}
			if c.kind != cmdMove {
				return dx, dy, &c
			}
			dx += c.dx
			dy += c.dy
		default:
			return dx, dy, nil
		}
	}
}

func (b *NativeX11) exec(conn *xgb.Conn, root xproto.Window, c command) {
	switch c.kind {
	case cmdPress:
		xtest.FakeInput(conn, xproto.ButtonPress, byte(c.button), 0, root, 0, 0, 0)
	case cmdRelease:
		xtest.FakeInput(conn, xproto.ButtonRelease, byte(c.button), 0, root, 0, 0, 0)
	case cmdMove:
		dx, dy := clampDelta(c.dx), clampDelta(c.dy)
		// detail=1 marks the XTEST MotionNotify event as relative.
		xtest.FakeInput(conn, xproto.MotionNotify, 1, 0, root, int16(dx), int16(dy), 0)
	}
}

func (b *NativeX11) drainDegraded() {
	for range b.cmds {
		// No-op: degraded mode accepts and discards commands.
	}
}

func clampDelta(v int) int {
	const max = 127
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}

// setupX11Env best-effort populates DISPLAY and XAUTHORITY the way
// original_source/src/mouse_handler.rs::setup_x11_env does: probe DISPLAY,
// reuse an already-valid XAUTHORITY, then search /tmp for an xauth_* cookie
// file owned by the current user, then fall back to ~/.Xauthority or
// /tmp/.Xauthority if either exists (their owner is not checked).
func setupX11Env() {
	if os.Getenv("DISPLAY") == "" {
		os.Setenv("DISPLAY", ":0")
		log.Debug("DISPLAY not set, defaulting to :0")
	}

	if xauth := os.Getenv("XAUTHORITY"); xauth != "" {
		if _, err := os.Stat(xauth); err == nil {
			return
		}
	}

	uid := os.Getuid()

	if entries, err := os.ReadDir("/tmp"); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), "xauth_") {
				continue
			}
			path := filepath.Join("/tmp", entry.Name())
			if info, err := os.Stat(path); err == nil && ownedByUID(info, uid) {
				os.Setenv("XAUTHORITY", path)
				log.Debug("set XAUTHORITY to %s", path)
				return
			}
		}
	}

	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, ".Xauthority"),
		"/tmp/.Xauthority",
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			os.Setenv("XAUTHORITY", path)
			log.Debug("set XAUTHORITY to %s", path)
			return
		}
	}

	log.Warn("could not find an XAUTHORITY file, native X11 initialization may fail")
}

func ownedByUID(info os.FileInfo, uid int) bool {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return int(stat.Uid) == uid
}
