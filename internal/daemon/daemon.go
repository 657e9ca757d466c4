// Package daemon wires the rest of the packages together (C9): it owns the
// signal-driven shutdown flag and the ordered teardown sequence run when the
// daemon is asked to stop.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/8ff/gesturesd/internal/dispatch"
	"github.com/8ff/gesturesd/internal/drag"
	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/index"
	"github.com/8ff/gesturesd/internal/input"
	"github.com/8ff/gesturesd/internal/ipc"
	"github.com/8ff/gesturesd/internal/log"
	"github.com/8ff/gesturesd/internal/pointer"
	"github.com/8ff/gesturesd/internal/workerpool"
)

// Options configures a Daemon before it starts.
type Options struct {
	ConfigPath    string
	Wayland       bool
	WaylandHelper string
	Workers       int
}

// Daemon owns every long-lived component and runs them until asked to stop.
type Daemon struct {
	opts Options

	store      *gesture.Store
	index      *index.Cache
	pool       *workerpool.Pool
	backend    pointer.Backend
	drag       *drag.Engine
	dispatcher *dispatch.Dispatcher
	source     *input.Source
	ipc        *ipc.Listener

	shutdown atomic.Bool
}

// New constructs every component but does not start the input loop or the
// IPC listener yet.
func New(opts Options) (*Daemon, error) {
	cfg, err := gesture.LoadConfigFile(opts.ConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		log.Warn("no configuration file at %s, starting with an empty config", opts.ConfigPath)
		cfg = &gesture.Config{}
	}
	store := gesture.NewStore(cfg)
	idx := index.New(store)

	pool := workerpool.New(opts.Workers)

	var backend pointer.Backend
	if opts.Wayland {
		backend = pointer.NewExternal(opts.WaylandHelper, pool)
	} else {
		backend = pointer.NewNativeX11()
	}

	dragEngine := drag.New(backend)
	dispatcher := dispatch.New(idx, pool, dragEngine)

	src, err := input.Open()
	if err != nil {
		pool.Close()
		backend.Close()
		return nil, fmt.Errorf("open input source: %w", err)
	}

	ipcListener, err := ipc.New(store, opts.ConfigPath)
	if err != nil {
		src.Close()
		pool.Close()
		backend.Close()
		return nil, fmt.Errorf("open ipc listener: %w", err)
	}

	return &Daemon{
		opts:       opts,
		store:      store,
		index:      idx,
		pool:       pool,
		backend:    backend,
		drag:       dragEngine,
		dispatcher: dispatcher,
		source:     src,
		ipc:        ipcListener,
	}, nil
}

// Run starts the IPC listener and blocks processing input events until a
// SIGINT/SIGTERM is received or the input source's stream ends. It performs
// the ordered shutdown sequence before returning (spec.md §4.9).
func (d *Daemon) Run() error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go d.ipc.Serve()

	inputErr := make(chan error, 1)
	go func() {
		inputErr <- d.source.Run(d.dispatcher.Handle)
	}()

	var runErr error
	select {
	case sig := <-sigs:
		log.Info("received signal %v, shutting down", sig)
	case err := <-inputErr:
		if err != nil {
			log.Error("input source terminated: %v", err)
			runErr = err
		} else {
			log.Warn("input source stream ended")
		}
	}

	d.shutdownSequence()
	return runErr
}

// shutdownSequence tears components down in the order spec.md §4.9
// requires: stop reading input, drain the dispatcher (nothing further to
// forward once input stops), stop accepting IPC connections, force any
// in-flight drag to release, then drain the worker pool.
func (d *Daemon) shutdownSequence() {
	if !d.shutdown.CompareAndSwap(false, true) {
		return
	}
	d.source.Close()
	d.ipc.Close()
	d.drag.ForceRelease()
	d.backend.Close()
	d.pool.Close()
	log.Info("shutdown complete")
}
