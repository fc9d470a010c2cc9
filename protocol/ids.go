// Package protocol defines the wire-independent data model shared by every
// communicator: connection and message identifiers, priorities, the
// Message contract, and the message-info registry. It is grounded on
// original_source/include/unicomm/message_base.hpp and config.hpp.
package protocol

import "sync/atomic"

// ConnID identifies a connection, dense and unique within one dispatcher's
// lifetime, assigned at communicator creation and never reused.
type ConnID uint64

// UndefinedConnID is never assigned to a live connection.
const UndefinedConnID ConnID = 0

// ConnIDGenerator hands out monotonically increasing ConnIDs.
type ConnIDGenerator struct {
	next atomic.Uint64
}

// Next returns a fresh, never-before-returned ConnID.
func (g *ConnIDGenerator) Next() ConnID {
	return ConnID(g.next.Add(1))
}

// MsgID identifies a message, dense and unique within one communicator's
// lifetime. UndefinedMsgID is the reserved "unset" sentinel.
type MsgID uint64

const UndefinedMsgID MsgID = 0

// SeqNo is a communicator-local internal sequence number used to key
// in-flight outgoing writes; it is never exposed to user code.
type SeqNo uint64

// idCounter is a per-communicator monotonic counter skipping the zero
// sentinel, shared by MsgID and SeqNo allocation.
type idCounter struct {
	next atomic.Uint64
}

func (c *idCounter) next64() uint64 {
	return c.next.Add(1)
}

// MsgIDGenerator allocates MsgIDs for one communicator.
type MsgIDGenerator struct{ c idCounter }

func (g *MsgIDGenerator) Next() MsgID { return MsgID(g.c.next64()) }

// SeqNoGenerator allocates SeqNos for one communicator.
type SeqNoGenerator struct{ c idCounter }

func (g *SeqNoGenerator) Next() SeqNo { return SeqNo(g.c.next64()) }
