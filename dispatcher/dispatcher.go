// Package dispatcher implements the worker pool and wake-up protocol from
// spec §4.E: a fixed number of workers cooperatively drain a commpool.Pool,
// each pass bounded by the per-communicator Process() quantum, woken by
// kicks whose count never exceeds the number of running workers.
//
// Grounded on original_source/include/unicomm/dispatcher.hpp and
// dispatcher.cpp. The original drives an Asio reactor with one io_context
// per worker thread; this port replaces the reactor with a buffered
// channel of wake-up tokens, since Go goroutines don't need a reactor to
// multiplex blocking waits the way a thread pool over Asio does.
package dispatcher

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/tcpcomm/commpool"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
)

// AfterAllProcessedFunc is the dispatcher-level hook fired once a worker
// finishes a full drain pass over every ready communicator.
type AfterAllProcessedFunc func(*session.AfterAllProcessedParams)

// OnStopFunc runs synchronously at the start of Stop, before disconnect_all
// is issued.
type OnStopFunc func()

// Dispatcher is the worker pool and wake-up coordinator for one
// commpool.Pool. The zero value is not usable; use New.
type Dispatcher struct {
	pool        *commpool.Pool
	maxWorkers  int
	idleTimeout time.Duration
	log         logx.FuncLog

	afterAllMu sync.Mutex
	afterAll   AfterAllProcessedFunc

	onStop OnStopFunc

	working   atomic.Bool
	runCount  atomic.Int32
	kickCount atomic.Int32

	runMu   sync.Mutex
	runCond *sync.Cond

	genMu    sync.Mutex
	kickCh   chan protocol.ConnID
	idleDone chan struct{}

	m metrics
}

// New constructs a Dispatcher over pool. maxWorkers bounds how many
// concurrent Run() callers (workers) the kick protocol assumes; it should
// match the number of goroutines the caller intends to spawn into Run.
// idleTimeout of zero disables the idle timer entirely, per the runtime's
// resolution of the ambiguity spec.md leaves open around
// dispatcher_idle_tout == 0.
func New(pool *commpool.Pool, maxWorkers int, idleTimeout time.Duration, log logx.FuncLog) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	d := &Dispatcher{
		pool:        pool,
		maxWorkers:  maxWorkers,
		idleTimeout: idleTimeout,
		log:         log,
	}
	d.runCond = sync.NewCond(&d.runMu)
	return d
}

// Kicker returns the comm.Kicker this dispatcher hands to every
// Communicator it owns.
func (d *Dispatcher) Kicker() func(id protocol.ConnID) { return d.Kick }

// SetAfterAllProcessed registers the dispatcher-level after-all-processed
// hook (spec §4.H).
func (d *Dispatcher) SetAfterAllProcessed(fn AfterAllProcessedFunc) {
	d.afterAllMu.Lock()
	d.afterAll = fn
	d.afterAllMu.Unlock()
}

// SetOnStop registers the hook Stop runs before issuing disconnect_all.
func (d *Dispatcher) SetOnStop(fn OnStopFunc) { d.onStop = fn }

// Reset recreates the dispatcher's internal wake channel and idle timer.
// Must be called once before the first Run, and again after a Stop before
// any further Run call; calling it while already started is a no-op,
// matching the "idempotent while in started state" rule in spec §4.E.
func (d *Dispatcher) Reset() {
	d.genMu.Lock()
	defer d.genMu.Unlock()

	if d.working.Load() {
		return
	}

	d.kickCh = make(chan protocol.ConnID, d.maxWorkers)
	d.kickCount.Store(0)
	d.working.Store(true)

	if d.idleTimeout > 0 {
		d.idleDone = make(chan struct{})
		go d.idleLoop(d.idleTimeout, d.idleDone)
	} else {
		d.idleDone = nil
	}
}

// Run is a worker entry point: it blocks, draining wake-ups and running
// processing passes, until Stop clears the working flag. Multiple
// goroutines may call Run concurrently — each call is one worker, exactly
// as spec §4.E describes for OS threads.
func (d *Dispatcher) Run() {
	d.runMu.Lock()
	d.runCount.Add(1)
	d.runMu.Unlock()

	defer func() {
		d.runMu.Lock()
		if d.runCount.Add(-1) == 0 {
			d.runCond.Broadcast()
		}
		d.runMu.Unlock()
	}()

	for d.working.Load() {
		ch := d.kickCh
		if ch == nil {
			return
		}
		select {
		case <-ch:
			d.kickCount.Add(-1)
			d.processPass()
		case <-time.After(250 * time.Millisecond):
			// Periodic wake even with no pending kick, so a worker blocked
			// here still notices the working flag flipping to false inside
			// Stop without needing a kick to be posted first.
		}
	}
}

// processPass drains every communicator currently available for check-out,
// processing each to its natural quantum-bounded stopping point, then
// fires the dispatcher-level after-all-processed hook once the pass is
// empty.
func (d *Dispatcher) processPass() {
	drained := 0
	var processed []protocol.ConnID
	for {
		c, ok := d.pool.TakeOut()
		if !ok {
			break
		}
		drained++
		result := c.Process()
		if result.Disconnected {
			d.pool.Erase(c.ID())
			d.m.disconnects.Add(1)
		} else {
			processed = append(processed, c.ID())
		}
	}
	// Return the pass's communicators only once it is over, so TakeOut
	// cannot hand the same one out again within this pass.
	for _, id := range processed {
		d.pool.GetBack(id)
	}

	d.m.passes.Add(1)
	d.m.drained.Add(uint64(drained))

	d.afterAllMu.Lock()
	fn := d.afterAll
	d.afterAllMu.Unlock()
	if fn != nil {
		fn(&session.AfterAllProcessedParams{})
	}
}

// Stop clears the working flag, runs the OnStop hook, disconnects every
// live communicator, waits up to wait for the pool to drain and for every
// Run call to return, then leaves the dispatcher ready for Reset. It
// returns true iff every worker left Run within the timeout.
func (d *Dispatcher) Stop(wait time.Duration) bool {
	d.working.Store(false)

	if d.onStop != nil {
		d.onStop()
	}

	d.pool.DisconnectAll()

	if d.idleDone != nil {
		close(d.idleDone)
		d.idleDone = nil
	}

	deadline := time.Now().Add(wait)
	for d.pool.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Wake every worker that might be parked on the kick channel so each
	// notices the cleared working flag promptly instead of waiting out its
	// periodic poll.
	for i := 0; i < d.maxWorkers; i++ {
		select {
		case d.kickCh <- protocol.UndefinedConnID:
		default:
		}
	}

	return d.waitRunFinished(time.Until(deadline))
}

func (d *Dispatcher) waitRunFinished(remaining time.Duration) bool {
	if remaining < 0 {
		remaining = 0
	}
	done := make(chan struct{})
	go func() {
		d.runMu.Lock()
		for d.runCount.Load() > 0 {
			d.runCond.Wait()
		}
		d.runMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(remaining):
		return d.runCount.Load() == 0
	}
}
