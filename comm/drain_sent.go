package comm

import (
	"time"

	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
)

// drainSent is process() step 2: for each completed write, arm a timeout
// if the message needed a reply and timeouts are enabled, then emit Sent.
func (c *Communicator) drainSent(sess session.Session) {
	c.sentMu.Lock()
	records := c.sentLog
	c.sentLog = nil
	c.sentMu.Unlock()

	for _, rec := range records {
		info := protocol.Info{}
		if c.settings.Registry != nil {
			info = c.settings.Registry.Lookup(rec.Name)
		}
		if info.NeedsReply && c.settings.TimeoutsEnabled && rec.AppID != protocol.UndefinedMsgID {
			deadline := time.Time{}
			if info.Timeout > 0 {
				deadline = time.Now().Add(info.Timeout)
			}
			c.timeoutMu.Lock()
			c.timeouts[rec.AppID] = protocol.Timeout{Name: rec.Name, Deadline: deadline}
			c.timeoutMu.Unlock()
		}

		if rec.OnSent != nil {
			c.safeCall(sess, rec.OnSent)
		}

		c.safeCall(sess, func() {
			sess.Sent(&session.MessageSentParams{ParamsBase: session.ParamsBase{Conn: c}, ID: rec.AppID})
		})
	}
}
