// Package errs implements the runtime's error taxonomy: a small set of
// numeric codes, each carrying an optional parent error, in the style of
// nabbar-golib/errors. Of the codes defined here the runtime itself raises
// only Disconnected, CommunicationError and SessionNotFound.
package errs

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

// CodeError classifies a runtime error. Values are stable across releases.
type CodeError uint16

const (
	// Disconnected means the connection is no longer usable.
	Disconnected CodeError = iota + 1
	// CommunicationError is a non-fatal I/O anomaly.
	CommunicationError
	// DecoderError is a framing/parse failure raised by a codec.
	DecoderError
	// DisallowedReply means a reply violated the message-info answers policy.
	DisallowedReply
	// SessionCreationError means the user's session factory returned an error.
	SessionCreationError
	// InvalidSession is raised when a session is requested before creation
	// or after teardown.
	InvalidSession
	// SessionNotFound is raised by container lookups on an unknown id.
	SessionNotFound
	// HandshakeError is a TLS handshake failure; treated as Disconnected
	// by callers that only care about connection liveness.
	HandshakeError
	// InvalidSessionFactory flags a nil session/message factory at first use.
	InvalidSessionFactory
)

var names = map[CodeError]string{
	Disconnected:           "disconnected",
	CommunicationError:     "communication error",
	DecoderError:           "decoder error",
	DisallowedReply:        "disallowed reply",
	SessionCreationError:   "session creation error",
	InvalidSession:         "invalid session",
	SessionNotFound:        "session not found",
	HandshakeError:         "handshake error",
	InvalidSessionFactory:  "invalid session factory",
}

// String implements fmt.Stringer.
func (c CodeError) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// Error is the concrete error type carried across the runtime. It always
// has a Code and may wrap a Parent error explaining the underlying cause.
type Error struct {
	Code   CodeError
	Detail string
	Parent error
}

// New builds an Error for code with an optional detail message.
func New(code CodeError, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Wrap builds an Error for code, recording parent as the underlying cause.
func Wrap(code CodeError, detail string, parent error) *Error {
	return &Error{Code: code, Detail: detail, Parent: parent}
}

// Local is the sentinel stored on the read-error latch by a user-initiated
// Disconnect(). It carries the Disconnected code like any other socket
// error so it drains through the same step-6 path, but callers that reach
// the final DisconnectedParams recognize it and report a nil Err, since an
// orderly local disconnect is not a failure.
var Local = New(Disconnected, "local disconnect")

func (e *Error) Error() string {
	if e.Detail == "" && e.Parent == nil {
		return e.Code.String()
	}
	if e.Parent == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Parent)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Parent)
}

// Unwrap gives errors.Is/errors.As access to the parent cause.
func (e *Error) Unwrap() error { return e.Parent }

// Is reports whether err carries the given code, walking the parent chain.
func Is(err error, code CodeError) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Code == code {
				return true
			}
			err = e.Parent
			continue
		}
		return false
	}
	return false
}

// Classify maps a curated list of socket-level errors to the Disconnected
// code (spec §4.C step 6: EOF, connection-reset, connection-aborted,
// not-a-socket, shutdown, operation-aborted, bad-descriptor), anything
// else recognizable as a transient I/O problem to CommunicationError, and
// any genuinely unexpected error to Disconnected as well — "unexpected
// ones still map to disconnected for safety".
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}

	if isDisconnectClass(err) {
		return Wrap(Disconnected, "socket error", err)
	}

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return Wrap(CommunicationError, "i/o timeout", err)
	}

	// Default: treat as disconnected, matching the "unexpected ones still
	// map to disconnected for safety" rule.
	return Wrap(Disconnected, "socket error", err)
}

func isDisconnectClass(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ENOTSOCK) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EBADF) {
		return true
	}
	// "use of closed network connection" and "operation was aborted" do
	// not always carry a wrapped syscall errno on every platform.
	msg := err.Error()
	for _, frag := range []string{
		"use of closed network connection",
		"operation was aborted",
		"broken pipe",
		"connection reset",
	} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
