package comm

import (
	"github.com/sabouaram/tcpcomm/errs"
	"github.com/sabouaram/tcpcomm/session"
)

// drainErrors is process() step 6: inspect the three error latches fed by
// the reader goroutine, writeLoop and (future) handshake code. A
// Disconnected-class error tears the connection down and fires the
// Disconnected event exactly once; a CommunicationError is reported
// through Errored and the latch is cleared so it does not re-fire on the
// next tick. Per spec §4.C, Disconnected wins if more than one latch is
// set, since there is no point reporting a communication error on a
// connection that's already going away.
func (c *Communicator) drainErrors(sess session.Session) bool {
	readErr := c.readErr.Swap(nil)
	writeErr := c.writeErr.Swap(nil)
	hsErr := c.handshakeErr.Swap(nil)

	var commErr error
	for _, e := range []error{readErr, writeErr, hsErr} {
		if e == nil {
			continue
		}
		if ce, ok := e.(*errs.Error); ok && ce.Code == errs.Disconnected {
			if ce == errs.Local {
				c.teardownForError(sess, nil)
			} else {
				c.teardownForError(sess, ce)
			}
			return true
		}
		if commErr == nil {
			commErr = e
		}
	}

	if commErr != nil {
		c.safeCall(sess, func() {
			sess.Errored(&session.ErrorParams{ParamsBase: session.ParamsBase{Conn: c}, Err: commErr})
		})
	}

	return false
}

// teardownForError finalizes a connection that failed for a Disconnected-
// class reason. Socket teardown (disconnectOnce) and event emission
// (disconnectEventOnce) are guarded separately: a local Disconnect() call
// already ran the former by the time this is reached on the next tick, but
// the Disconnected event must still fire exactly once regardless of which
// path — remote error or local Disconnect() — got here first.
func (c *Communicator) teardownForError(sess session.Session, cause error) {
	c.disconnectOnce.Do(func() {
		c.setState(StateTearingDown)
		_ = c.conn.Close()
	})
	c.disconnectEventOnce.Do(func() {
		c.safeCallNoThrow(func() {
			sess.Disconnected(&session.DisconnectedParams{
				ParamsBase: session.ParamsBase{Conn: c},
				Err:        cause,
			})
		})
	})
}
