package comm

import (
	"net"

	"github.com/sabouaram/tcpcomm/errs"
)

// Disconnect performs an idempotent, no-throw orderly shutdown. The actual
// Disconnected event is emitted on a later Process() tick, once the
// errs.Local sentinel stored on the read latch here is drained through
// the normal error-latch path —
// this keeps there being exactly one place (step 6 of Process) that ever
// emits Disconnected.
func (c *Communicator) Disconnect() {
	c.disconnectOnce.Do(func() {
		c.setState(StateTearingDown)
		if tc, ok := c.conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		c.localDisconnect.Store(true)
		c.readErr.Store(errs.Local)
		_ = c.conn.Close()
		if c.kick != nil {
			c.kick(c.id)
		}
	})
}

// Config exposes the settings this communicator was built with, mirroring
// the original's comm.config() accessor.
func (c *Communicator) Config() Settings { return c.settings }
