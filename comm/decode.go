package comm

import (
	"fmt"
	"time"

	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
)

// decodeLoop is process() step 3: iterate the codec's Decode until it
// reports "no complete message yet" or the incoming quantum expires.
func (c *Communicator) decodeLoop(sess session.Session) {
	start := time.Now()
	for {
		if c.settings.IncomingQuantum > 0 && time.Since(start) >= c.settings.IncomingQuantum {
			return
		}

		c.inBufMu.Lock()
		data := c.inBuf.Bytes()
		msg, n, err := c.settings.Decoder.Decode(data, sess)
		if n > 0 {
			c.inBuf.Next(n)
		}
		c.inBufMu.Unlock()

		if err != nil {
			c.safeCall(sess, func() {
				sess.Errored(&session.ErrorParams{ParamsBase: session.ParamsBase{Conn: c}, Err: err})
			})
			continue
		}

		if msg == nil || n == 0 {
			return
		}

		c.dispatchArrived(sess, msg)
	}
}

// dispatchArrived classifies a decoded message as a request or a reply
// (spec §4.C step 3) and routes it accordingly.
func (c *Communicator) dispatchArrived(sess session.Session, msg protocol.Message) {
	if msg.ReplyTo() == protocol.UndefinedMsgID {
		c.handleRequest(sess, msg)
		return
	}
	c.handleReply(sess, msg)
}

func (c *Communicator) handleRequest(sess session.Session, msg protocol.Message) {
	outID := c.msgIDs.Next()
	params := &session.MessageArrivedParams{
		ParamsBase: session.ParamsBase{Conn: c},
		In:         msg,
		OutID:      outID,
	}

	c.safeCall(sess, func() { sess.Arrived(params) })

	if params.Reply == nil {
		return
	}

	reply := params.Reply
	reply.SetReplyTo(msg.ID())
	if reply.ID() == protocol.UndefinedMsgID {
		reply.SetID(outID)
	}
	_, _ = c.send(reply, params.ReplyOnSent)
}

// handleReply implements spec §4.C step 3's reply branch: look up the
// correlation table without removing the entry, apply the allowed-reply
// policy, and only remove the entry (arming nothing further for that
// request) once the policy accepts the reply. A disallowed reply leaves
// the original request's timeout armed, per spec §8 scenario 4.
func (c *Communicator) handleReply(sess session.Session, msg protocol.Message) {
	c.timeoutMu.Lock()
	entry, known := c.timeouts[msg.ReplyTo()]
	c.timeoutMu.Unlock()

	if !known {
		// Late or unknown reply: discarded.
		return
	}

	if c.settings.Registry != nil && !c.settings.Registry.AllowsReply(entry.Name, msg.Name()) {
		c.safeCall(sess, func() {
			sess.Errored(&session.ErrorParams{
				ParamsBase: session.ParamsBase{Conn: c},
				Err:        fmt.Errorf("disallowed reply: %q does not accept %q", entry.Name, msg.Name()),
			})
		})
		return
	}

	c.timeoutMu.Lock()
	delete(c.timeouts, msg.ReplyTo())
	c.timeoutMu.Unlock()

	params := &session.MessageArrivedParams{
		ParamsBase: session.ParamsBase{Conn: c},
		In:         msg,
		OutID:      protocol.UndefinedMsgID,
	}
	c.safeCall(sess, func() { sess.Arrived(params) })

	if params.Reply == nil {
		return
	}
	reply := params.Reply
	reply.SetReplyTo(msg.ID())
	_, _ = c.send(reply, params.ReplyOnSent)
}
