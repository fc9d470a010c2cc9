package comm

import (
	"github.com/sabouaram/tcpcomm/protocol"
)

// Send enqueues msg for asynchronous delivery and returns its id
// immediately (spec §4.C). Per the edge-case policy in spec §4.C, Send
// never rejects a message for being disconnected: if the communicator has
// already been removed from its container nothing will ever drain the
// queue, and the caller learns this from the Disconnected event instead.
func (c *Communicator) Send(msg protocol.Message) (protocol.MsgID, error) {
	return c.send(msg, nil)
}

// SendWithCallback is Send plus a per-message sent callback, invoked
// exactly once on successful write completion and never if the connection
// dies first.
func (c *Communicator) SendWithCallback(msg protocol.Message, onSent func()) (protocol.MsgID, error) {
	return c.send(msg, onSent)
}

func (c *Communicator) send(msg protocol.Message, onSent func()) (protocol.MsgID, error) {
	if msg.ID() == protocol.UndefinedMsgID && c.settings.UseUniqueMessageID {
		msg.SetID(c.msgIDs.Next())
	}

	if msg.Priority() == protocol.UndefinedPriority && c.settings.UseDefaultMessagePriority {
		prio := c.settings.DefaultPriority
		if c.settings.Registry != nil {
			if info := c.settings.Registry.Lookup(msg.Name()); info.Priority != protocol.UndefinedPriority {
				prio = info.Priority
			}
		}
		msg.SetPriority(prio)
	}

	wire, err := c.settings.Encoder.Encode(msg, c.Session())
	if err != nil {
		return msg.ID(), err
	}

	prep := &protocol.Prepared{
		Seq:      c.seqs.Next(),
		AppID:    msg.ID(),
		Name:     msg.Name(),
		Priority: msg.Priority(),
		Bytes:    wire,
		OnSent:   onSent,
	}

	c.outQMu.Lock()
	c.outQ.push(prep)
	c.outQMu.Unlock()

	if c.kick != nil {
		c.kick(c.id)
	}

	return msg.ID(), nil
}
