package dispatcher

import (
	"github.com/sabouaram/tcpcomm/protocol"
)

// SendOne enqueues msg on a single connection and kicks the dispatcher, per
// spec §4.E. It fails with SessionNotFound if id is not held by the pool.
func (d *Dispatcher) SendOne(id protocol.ConnID, msg protocol.Message) (protocol.MsgID, error) {
	c, err := d.pool.Get(id)
	if err != nil {
		return protocol.UndefinedMsgID, err
	}
	return c.Send(msg)
}

// SendAll broadcasts msg to every connection currently held by the pool
// and kicks the dispatcher once per connection as each Send enqueues.
func (d *Dispatcher) SendAll(msg protocol.Message) map[protocol.ConnID]protocol.MsgID {
	return d.pool.SendAll(msg, nil)
}

// DisconnectOne posts a disconnect for id; fire-and-forget, per spec §4.E —
// the caller never blocks on socket shutdown, and the eventual Disconnected
// event is the completion signal.
func (d *Dispatcher) DisconnectOne(id protocol.ConnID) error {
	c, err := d.pool.Get(id)
	if err != nil {
		return err
	}
	go c.Disconnect()
	return nil
}

// Connections enumerates the ids of every connection currently held by the
// pool.
func (d *Dispatcher) Connections() []protocol.ConnID { return d.pool.Connections() }
