// Package loader coordinates the one-shot initial load of a collection.
//
// A [Coordinator] guarantees at most one fetch in flight per endpoint and
// exposes two signals per load cycle: raw data available (the server
// snapshot arrived) and objects available (the snapshot was materialised
// into the cache). Cycles are generation-tagged: a forced reload supersedes
// the pending cycle and moves its waiters onto the new one.
package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-sync-cache/models"
)

// State is the position of a coordinator in its load cycle.
type State int

const (
	NotLoaded State = iota
	Loading
	RawAvailable
	ObjectsAvailable
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case Loading:
		return "loading"
	case RawAvailable:
		return "raw-available"
	case ObjectsAvailable:
		return "objects-available"
	default:
		return "unknown"
	}
}

// ErrClosed is returned to waiters once the coordinator is closed.
var ErrClosed = errors.New("loader closed")

// Snapshot is the not yet deserialised server response of a collection load.
type Snapshot = models.Envelope

// FetchFunc retrieves the collection snapshot from the server.
type FetchFunc func(ctx context.Context) (Snapshot, error)

// MaterializeFunc turns a snapshot into cached entities. reload is true for
// every cycle after the first.
//
// current reports whether the cycle is still pending. It turns false once a
// forced reload supersedes the cycle or [Coordinator.Complete] satisfies it,
// and the snapshot must then be dropped. Implementations call it inside the
// critical section that mutates the cache.
type MaterializeFunc func(snapshot Snapshot, reload bool, current func() bool) error

// Config wires a coordinator to its endpoint.
type Config struct {
	// Fetch is nil when the endpoint has no collection configured; the
	// coordinator is then disabled and EnsureLoaded returns immediately.
	Fetch       FetchFunc
	Materialize MaterializeFunc
	// OnError is called when a fetch or materialisation fails.
	OnError func(error)
	// OnLoaded is called after every cycle completed by a fetch. Cycles
	// satisfied through Complete are announced by the caller.
	OnLoaded func()
}

// cycle holds the signals of one load attempt.
type cycle struct {
	generation uint64
	raw        chan struct{}
	objects    chan struct{}
	// superseded is set, under the coordinator lock, before objects is
	// closed by a forced reload.
	superseded bool
}

func newCycle(generation uint64) *cycle {
	return &cycle{
		generation: generation,
		raw:        make(chan struct{}),
		objects:    make(chan struct{}),
	}
}

func (c *cycle) done() bool {
	select {
	case <-c.objects:
		return true
	default:
		return false
	}
}

// Coordinator implements the NotLoaded → Loading → RawAvailable →
// ObjectsAvailable state machine.
type Coordinator struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	cycle    *cycle
	snapshot Snapshot
	loads    int
	closed   bool
}

// New returns a coordinator in the NotLoaded state.
func New(cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		cycle:  newCycle(1),
	}
}

// Enabled reports whether the coordinator has a fetch configured.
func (c *Coordinator) Enabled() bool {
	return c.cfg.Fetch != nil
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EnsureLoaded starts a load when none happened yet (or when force is set)
// and blocks until the current cycle's objects are available or ctx ends.
// Concurrent callers share the same in-flight fetch. A failed fetch does not
// fail the waiters: they keep waiting for a later attempt.
func (c *Coordinator) EnsureLoaded(ctx context.Context, force bool) error {
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == NotLoaded || force {
		c.startLocked(force)
	}
	cyc := c.cycle
	c.mu.Unlock()

	return c.wait(ctx, cyc)
}

// startLocked begins a fetch for the current cycle, superseding it first
// when a forced reload interrupts or follows an earlier cycle.
func (c *Coordinator) startLocked(force bool) {
	if force && c.state != NotLoaded || c.cycle.done() {
		prev := c.cycle
		c.cycle = newCycle(prev.generation + 1)
		if !prev.done() {
			prev.superseded = true
			close(prev.objects)
		}
	}
	c.state = Loading
	c.snapshot = nil

	go c.run(c.cycle)
}

func (c *Coordinator) run(cyc *cycle) {
	snapshot, err := c.cfg.Fetch(c.ctx)

	c.mu.Lock()
	if c.cycle != cyc || cyc.done() {
		// superseded by a forced reload or satisfied by a push
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = NotLoaded
		c.mu.Unlock()
		c.reportError(err)
		return
	}

	c.state = RawAvailable
	c.snapshot = snapshot
	reload := c.loads > 0
	close(cyc.raw)
	c.mu.Unlock()

	if c.cfg.Materialize != nil {
		current := func() bool { return c.pending(cyc) }
		if err = c.cfg.Materialize(snapshot, reload, current); err != nil {
			c.mu.Lock()
			if c.cycle == cyc {
				c.state = NotLoaded
				c.snapshot = nil
				// the raw signal of a failed cycle cannot be withdrawn, so
				// the next attempt gets fresh signals
				c.cycle = newCycle(cyc.generation + 1)
				cyc.superseded = true
				close(cyc.objects)
			}
			c.mu.Unlock()
			c.reportError(err)
			return
		}
	}

	c.mu.Lock()
	if c.cycle != cyc || cyc.done() {
		// the snapshot was dropped by current
		c.mu.Unlock()
		return
	}
	c.finishLocked(cyc)
	c.mu.Unlock()

	if c.cfg.OnLoaded != nil {
		c.cfg.OnLoaded()
	}
}

// Complete marks the current cycle as satisfied by data that arrived on
// another channel (a full collection push). A fetch still in flight for the
// cycle is discarded: its materialisation sees current report false. It
// reports whether a pending cycle was completed; OnLoaded is not called.
func (c *Coordinator) Complete() bool {
	if !c.Enabled() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cyc := c.cycle
	if c.closed || cyc.done() {
		return false
	}
	select {
	case <-cyc.raw:
	default:
		close(cyc.raw)
	}
	c.finishLocked(cyc)
	return true
}

// pending reports whether cyc is the current cycle and not yet finished.
func (c *Coordinator) pending(cyc *cycle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle == cyc && !cyc.done()
}

func (c *Coordinator) finishLocked(cyc *cycle) {
	c.state = ObjectsAvailable
	c.snapshot = nil
	c.loads++
	close(cyc.objects)
}

// wait blocks on cyc, following superseding cycles.
func (c *Coordinator) wait(ctx context.Context, cyc *cycle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrClosed
		case <-cyc.objects:
		}

		c.mu.Lock()
		superseded := cyc.superseded
		next := c.cycle
		c.mu.Unlock()

		if !superseded {
			return nil
		}
		cyc = next
	}
}

// Raw returns the snapshot while it is held between the raw and objects
// signals of the current cycle.
func (c *Coordinator) Raw() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.snapshot != nil
}

// DataAvailable returns the raw-data signal of the current cycle.
func (c *Coordinator) DataAvailable() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle.raw
}

// ObjectsAvailable returns the objects signal of the current cycle.
func (c *Coordinator) ObjectsAvailable() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle.objects
}

// Close cancels an in-flight fetch and releases every waiter with ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *Coordinator) reportError(err error) {
	if c.cfg.OnError != nil && !errors.Is(err, context.Canceled) {
		c.cfg.OnError(err)
	}
}
