package comm

import (
	"time"

	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
)

// checkTimeouts is process() step 5: walk the correlation table and emit
// a Timeout event for every entry whose deadline has passed. A zero
// Deadline means "infinite" (the message-info entry had no timeout) and
// is never expired.
func (c *Communicator) checkTimeouts(sess session.Session) {
	now := time.Now()

	var expired []struct {
		id   protocol.MsgID
		name string
	}

	c.timeoutMu.Lock()
	for id, t := range c.timeouts {
		if t.Deadline.IsZero() || t.Deadline.After(now) {
			continue
		}
		expired = append(expired, struct {
			id   protocol.MsgID
			name string
		}{id, t.Name})
		delete(c.timeouts, id)
	}
	c.timeoutMu.Unlock()

	for _, e := range expired {
		id, name := e.id, e.name
		c.safeCall(sess, func() {
			sess.TimedOut(&session.TimeoutParams{
				ParamsBase: session.ParamsBase{Conn: c},
				ID:         id,
				Name:       name,
			})
		})
	}
}
