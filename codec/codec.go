// Package codec defines the pluggable framing contract (spec §4.A). The
// runtime ships no wire format of its own; everything here is a contract
// plus one reference implementation used by the cmd/* samples and by the
// codec conformance tests.
package codec

import (
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
)

// Decoder peels framed messages off a connection's accumulated byte
// buffer. data is the buffer's current contents, read-only: Decoder must
// not retain or mutate it. The runtime calls Decode in a loop bounded by
// the incoming quantum; returning (nil, 0, nil) means "no complete
// message yet" and stops the loop — the runtime leaves the buffer
// untouched until more bytes arrive or another event rearms it. On a
// successful frame, consumed is the byte count the runtime erases from
// the front of the buffer. Returning a non-nil error signals malformed
// framing: the runtime surfaces it via the error event and does not
// disconnect unless the handler does so itself.
type Decoder interface {
	Decode(data []byte, sess session.Session) (msg protocol.Message, consumed int, err error)
}

// Encoder serialises one message to wire bytes. Encode must be pure: it
// may not retain references to msg after it returns.
type Encoder interface {
	Encode(msg protocol.Message, sess session.Session) ([]byte, error)
}

// Codec bundles both directions; most users implement one type satisfying
// both interfaces.
type Codec interface {
	Decoder
	Encoder
}
