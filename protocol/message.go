package protocol

import "time"

// Priority orders prepared messages in a communicator's outgoing queue;
// higher values drain first, FIFO among equal priorities.
type Priority int32

// UndefinedPriority means "unset"; the runtime substitutes the
// registry-supplied default when use_default_message_priority is enabled.
const UndefinedPriority Priority = -1

// Message is the contract every application message type satisfies. A
// codec's Decode produces one, and Communicator.Send consumes one.
//
// The runtime lazily assigns ID/Priority if they come back unset from
// the codec/user handler and the corresponding config switches are on; a
// Message implementation must tolerate SetID/SetPriority being called more
// than once before Send returns.
type Message interface {
	// Name identifies the message kind and is used to look up its Info
	// entry in the Registry.
	Name() string

	// ID returns the message's id, or UndefinedMsgID if unset.
	ID() MsgID
	// SetID assigns the message's id.
	SetID(MsgID)

	// ReplyTo returns the id of the request this message replies to, or
	// UndefinedMsgID if this message is not a reply.
	ReplyTo() MsgID
	// SetReplyTo marks this message as a reply to the given request id.
	SetReplyTo(MsgID)

	// Priority returns the message's priority, or UndefinedPriority if unset.
	Priority() Priority
	// SetPriority assigns the message's priority.
	SetPriority(Priority)
}

// MessageFactory materialises a blank Message for a Decoder to fill in,
// standing in for the original's message_factory config option. Its main
// use is letting a caller hand the decoder a pooled/recycled instance
// instead of a fresh allocation per decoded frame; a Decoder that has no
// use for one is free to ignore it and allocate its own.
type MessageFactory func() Message

// Prepared is queued by Communicator.Send and consumed by the write loop.
// Ordering in the priority queue is (Priority descending, Seq ascending),
// which preserves FIFO within equal priorities.
type Prepared struct {
	Seq      SeqNo
	AppID    MsgID
	Name     string
	Priority Priority
	Bytes    []byte

	// OnSent, if set, is invoked exactly once when the write completes
	// successfully. It is never invoked if the connection dies first.
	OnSent func()
}

// Sent is produced when a Prepared message's write completes successfully,
// and consumed by the next process tick's step 2 (arm timeout + emit sent).
type Sent struct {
	Seq   SeqNo
	AppID MsgID
	Name  string
	OnSent func()
}

// Timeout is a correlation-table entry: armed at post-send when the
// message's Info says it needs a reply and timeouts are enabled.
type Timeout struct {
	Name     string
	Deadline time.Time
}
