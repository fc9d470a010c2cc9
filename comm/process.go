package comm

import (
	"fmt"

	"github.com/sabouaram/tcpcomm/errs"
	"github.com/sabouaram/tcpcomm/session"
)

// ProcessResult tells the dispatcher what to do with this communicator
// after one Process() tick.
type ProcessResult struct {
	// Disconnected means the communicator is done: the dispatcher must
	// erase it from the container instead of checking it back in.
	Disconnected bool
}

// Process runs one tick of the seven-step algorithm from spec §4.C. The
// caller (the dispatcher, via commpool's check-out discipline) guarantees
// no other goroutine calls Process concurrently for the same id; mainMu's
// TryLock is a defense-in-depth assertion of that invariant, not the
// mechanism providing it.
func (c *Communicator) Process() ProcessResult {
	if !c.mainMu.TryLock() {
		return ProcessResult{}
	}
	defer c.mainMu.Unlock()

	if c.justConnected.CompareAndSwap(true, false) {
		sess, err := c.factory(c)
		if err != nil {
			c.setState(StateTearingDown)
			_ = c.conn.Close()
			return ProcessResult{Disconnected: true}
		}
		c.sessMu.Lock()
		c.sess = sess
		c.sessMu.Unlock()

		c.safeCall(sess, func() {
			sess.Connected(&session.ConnectedParams{ParamsBase: session.ParamsBase{Conn: c}})
		})

		if c.readerStarted.CompareAndSwap(false, true) {
			go c.readLoop()
		}
	}

	sess := c.Session()
	if sess == nil {
		return ProcessResult{}
	}

	c.drainSent(sess)

	if c.inBufferUpdated.CompareAndSwap(true, false) {
		c.decodeLoop(sess)
	}

	c.writeLoop()

	if c.settings.TimeoutsEnabled {
		c.checkTimeouts(sess)
	}

	if disc := c.drainErrors(sess); disc {
		return ProcessResult{Disconnected: true}
	}

	c.safeCall(sess, func() {
		sess.AfterProcessed(&session.AfterProcessedParams{ParamsBase: session.ParamsBase{Conn: c}})
	})

	return ProcessResult{}
}

// safeCall invokes a handler permitted to throw (spec §4.H). A panic
// carrying *errs.Error{Code: errs.Disconnected} disconnects the
// connection; any other panic is routed to the Errored callback, which is
// itself forbidden to throw.
func (c *Communicator) safeCall(sess session.Session, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(*errs.Error); ok && e.Code == errs.Disconnected {
			c.Disconnect()
			return
		}
		var err error
		if e, ok := r.(error); ok {
			err = e
		} else {
			err = fmt.Errorf("%v", r)
		}
		c.safeCallNoThrow(func() {
			sess.Errored(&session.ErrorParams{ParamsBase: session.ParamsBase{Conn: c}, Err: err})
		})
	}()
	fn()
}

// safeCallNoThrow invokes a handler forbidden to throw (Disconnected,
// Errored). A panic there is recovered and swallowed.
func (c *Communicator) safeCallNoThrow(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
