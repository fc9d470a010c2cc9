package comm

import (
	"time"

	"github.com/sabouaram/tcpcomm/errs"
	"github.com/sabouaram/tcpcomm/protocol"
)

// writeLoop is process() step 4: drain the priority queue, bounded by the
// outgoing quantum. Each write happens synchronously here, since the
// container's check-out discipline already guarantees this is the only
// goroutine writing to the connection right now; the out-buffers map is
// still maintained (spec §3 invariant: "contains an entry iff the write
// is outstanding") even though, unlike the reactor original, nothing else
// can race it.
func (c *Communicator) writeLoop() {
	start := time.Now()
	for {
		if c.settings.OutgoingQuantum > 0 && time.Since(start) >= c.settings.OutgoingQuantum {
			return
		}

		c.outQMu.Lock()
		prep := c.outQ.popTop()
		c.outQMu.Unlock()
		if prep == nil {
			return
		}

		c.outBufMu.Lock()
		c.outBufs[prep.Seq] = prep
		c.outBufMu.Unlock()

		_, err := c.conn.Write(prep.Bytes)

		c.outBufMu.Lock()
		delete(c.outBufs, prep.Seq)
		c.outBufMu.Unlock()

		if err != nil {
			c.writeErr.Store(errs.Classify(err))
			return
		}

		c.sentMu.Lock()
		c.sentLog = append(c.sentLog, protocol.Sent{
			Seq:    prep.Seq,
			AppID:  prep.AppID,
			Name:   prep.Name,
			OnSent: prep.OnSent,
		})
		c.sentMu.Unlock()

		if c.kick != nil {
			c.kick(c.id)
		}
	}
}
