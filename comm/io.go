package comm

import (
	"github.com/sabouaram/tcpcomm/errs"
)

// readLoop is the communicator's single background reader, started once
// after the Connected event fires (spec §4.C step 1, "arm the first
// read"). It is the only goroutine, besides the checked-out worker, ever
// touching the net.Conn — concurrently reading while another goroutine
// writes is safe on net.Conn, and writes only ever happen from inside
// Process(), which a container check-out guarantees is single-threaded.
func (c *Communicator) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.inBufMu.Lock()
			c.inBuf.Write(buf[:n])
			c.inBufMu.Unlock()
			c.inBufferUpdated.Store(true)
			if c.kick != nil {
				c.kick(c.id)
			}
		}
		if err != nil {
			// A local Disconnect() already latched errs.Local; the read
			// error it caused by closing the socket out from under us
			// carries no information Disconnected's nil-Err contract wants,
			// so it must not clobber the sticky sentinel.
			if !c.localDisconnect.Load() {
				c.readErr.Store(errs.Classify(err))
			}
			if c.kick != nil {
				c.kick(c.id)
			}
			return
		}
	}
}
