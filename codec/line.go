package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
)

// LineMessage is the sample Message implementation used by cmd/echo and by
// the codec conformance tests. It is deliberately the simplest possible
// Message: a name, the three correlation/priority fields, and a payload.
type LineMessage struct {
	name     string
	id       protocol.MsgID
	replyTo  protocol.MsgID
	priority protocol.Priority
	Data     string
}

// NewLineMessage builds an unsent LineMessage with id/replyTo/priority all
// unset, left for the runtime or the Info registry to fill in.
func NewLineMessage(name, data string) *LineMessage {
	return &LineMessage{name: name, priority: protocol.UndefinedPriority, Data: data}
}

func (m *LineMessage) Name() string                      { return m.name }
func (m *LineMessage) ID() protocol.MsgID                 { return m.id }
func (m *LineMessage) SetID(id protocol.MsgID)            { m.id = id }
func (m *LineMessage) ReplyTo() protocol.MsgID            { return m.replyTo }
func (m *LineMessage) SetReplyTo(id protocol.MsgID)       { m.replyTo = id }
func (m *LineMessage) Priority() protocol.Priority        { return m.priority }
func (m *LineMessage) SetPriority(p protocol.Priority)    { m.priority = p }

// LineCodec frames messages as a single line of the form
// "name|id|replyTo|priority|data\n". It is a reference implementation, not
// part of the core contract: any Decoder/Encoder pair works with this
// runtime as long as Decode/Encode agree on a wire format between
// themselves.
//
// LineCodec's zero value decodes by allocating a fresh *LineMessage per
// frame; SetMessageFactory lets a caller route that allocation through a
// protocol.MessageFactory instead (config.Builder.MessageFactory wires this
// when the configured decoder supports it).
type LineCodec struct {
	factory protocol.MessageFactory
}

// SetMessageFactory installs f as the source of blank messages for Decode.
// f must return a *LineMessage; Decode falls back to its own allocation if
// it returns anything else, since LineCodec only knows how to populate its
// own concrete type.
func (c *LineCodec) SetMessageFactory(f protocol.MessageFactory) { c.factory = f }

// Decode implements codec.Decoder: it looks for the first newline in data
// and parses everything before it as one LineMessage. Returning (nil, 0,
// nil) when no newline is present yet is what tells the runtime's decode
// loop to stop and wait for more bytes.
func (c LineCodec) Decode(data []byte, _ session.Session) (protocol.Message, int, error) {
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return nil, 0, nil
	}

	line := string(data[:idx])
	fields := strings.SplitN(line, "|", 5)
	if len(fields) != 5 {
		return nil, idx + 1, fmt.Errorf("codec: malformed line: %q", line)
	}

	id, err := parseMsgID(fields[1])
	if err != nil {
		return nil, idx + 1, fmt.Errorf("codec: bad id: %w", err)
	}
	replyTo, err := parseMsgID(fields[2])
	if err != nil {
		return nil, idx + 1, fmt.Errorf("codec: bad reply-to: %w", err)
	}
	prio, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, idx + 1, fmt.Errorf("codec: bad priority: %w", err)
	}

	msg := c.blank()
	msg.name = fields[0]
	msg.id = id
	msg.replyTo = replyTo
	msg.priority = protocol.Priority(prio)
	msg.Data = fields[4]
	return msg, idx + 1, nil
}

// blank returns the *LineMessage Decode should populate: one from the
// configured factory if set and it actually hands back a *LineMessage,
// otherwise a fresh allocation.
func (c LineCodec) blank() *LineMessage {
	if c.factory != nil {
		if lm, ok := c.factory().(*LineMessage); ok {
			return lm
		}
	}
	return &LineMessage{}
}

// Encode implements codec.Encoder.
func (LineCodec) Encode(msg protocol.Message, _ session.Session) ([]byte, error) {
	lm, ok := msg.(*LineMessage)
	if !ok {
		return nil, fmt.Errorf("codec: LineCodec only encodes *LineMessage, got %T", msg)
	}
	line := fmt.Sprintf("%s|%d|%d|%d|%s\n", lm.name, lm.id, lm.replyTo, lm.priority, lm.Data)
	return []byte(line), nil
}

func parseMsgID(s string) (protocol.MsgID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return protocol.MsgID(v), nil
}
