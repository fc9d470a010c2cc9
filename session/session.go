// Package session defines the event surface (spec §4.H): the Session
// interface application code implements, and the parameter types passed to
// each callback. Naming follows
// original_source/include/unicomm/handler_params.hpp
// (ConnectedParams, DisconnectedParams, MessageArrivedParams, ...).
package session

import (
	"github.com/sabouaram/tcpcomm/protocol"
)

// Conn is the subset of Communicator a Session needs, kept as an interface
// here to avoid an import cycle with package comm.
type Conn interface {
	ID() protocol.ConnID
	Send(msg protocol.Message) (protocol.MsgID, error)
	SendWithCallback(msg protocol.Message, onSent func()) (protocol.MsgID, error)
	Disconnect()
	RemoteAddr() string
	LocalAddr() string
}

// Session is the set of event callbacks the runtime drives for one live
// connection. A Factory builds one at connect time; DisconnectedParams is
// always the last call the runtime makes against a given Session.
//
// Throw contract (spec §4.H): Connected, Arrived, Sent, Timeout and
// AfterProcessed may panic; a panic carrying *errs.Error{Code:
// errs.Disconnected} disconnects the connection, anything else is routed
// to the Error callback. Disconnected and Error themselves must never
// panic — a panic there is recovered and swallowed.
type Session interface {
	Connected(p *ConnectedParams)
	Disconnected(p *DisconnectedParams)
	Arrived(p *MessageArrivedParams)
	Sent(p *MessageSentParams)
	TimedOut(p *TimeoutParams)
	Errored(p *ErrorParams)
	AfterProcessed(p *AfterProcessedParams)
}

// Factory builds a Session for a newly connected communicator. Returning
// an error closes the connection and the dispatcher erases the
// communicator; the error is not wrapped as SessionCreationError nor passed
// to any callback, and no Connected/Disconnected pair is ever emitted for it.
type Factory func(conn Conn) (Session, error)

// ParamsBase carries the originating connection, mirroring params_base in
// the original handler_params.hpp.
type ParamsBase struct {
	Conn Conn
}

type ConnectedParams struct {
	ParamsBase
}

type DisconnectedParams struct {
	ParamsBase
	Err error // nil on orderly user-initiated disconnect
}

// MessageArrivedParams carries the inbound message and the pre-allocated
// outbound id the runtime reserved for a request so a reply's id is known
// before the handler runs. Setting Reply causes the runtime to stamp
// ReplyTo/ID as described in spec §4.C step 3 and send it.
type MessageArrivedParams struct {
	ParamsBase
	In          protocol.Message
	OutID       protocol.MsgID
	Reply       protocol.Message
	ReplyOnSent func()
}

type MessageSentParams struct {
	ParamsBase
	ID protocol.MsgID
}

type TimeoutParams struct {
	ParamsBase
	ID   protocol.MsgID
	Name string
}

type ErrorParams struct {
	ParamsBase
	Err error
}

type AfterProcessedParams struct {
	ParamsBase
}

// AfterAllProcessedParams is dispatcher-level, not per-connection, hence
// it does not embed ParamsBase.
type AfterAllProcessedParams struct{}

// ConnectErrorParams is delivered by the client front end (spec §4.F); it
// has no live connection since the connect attempt itself failed.
type ConnectErrorParams struct {
	Endpoint string
	Err      error
}
