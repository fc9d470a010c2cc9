package comm

import (
	"time"

	"github.com/sabouaram/tcpcomm/codec"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
)

// Settings is the slice of the dispatcher configuration (spec §6) a single
// Communicator needs. config.Builder fills one and hands it down rather
// than the communicator importing package config, which would cycle back
// through dispatcher -> config -> comm.
type Settings struct {
	Registry *protocol.Registry

	Decoder codec.Decoder
	Encoder codec.Encoder

	TimeoutsEnabled           bool
	UseUniqueMessageID        bool
	UseDefaultMessagePriority bool
	DefaultPriority           protocol.Priority

	IncomingQuantum time.Duration
	OutgoingQuantum time.Duration

	Log logx.FuncLog
}

// Kicker schedules a future process() pass for the owning dispatcher. It
// is called whenever a communicator becomes newly ready: data arrived, a
// write completed, or a message was enqueued while idle.
type Kicker func(id protocol.ConnID)
