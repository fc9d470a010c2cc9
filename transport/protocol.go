// Package transport defines the endpoint and network-protocol types shared
// by the client and server front ends. There is no live source for
// nabbar-golib/socket/config in the retrieval pack — only its test suite
// survived — so this package is rebuilt from that test suite's observed
// contract: a Network enum covering the tcp/tcp4/tcp6 family, an Endpoint
// carrying network/address/TLS, and a Validate method that resolves the
// address through the standard library to catch malformed endpoints early.
package transport

import (
	"fmt"
	"net"
)

// Network identifies a network family, mirroring
// nabbar-golib/network/protocol's NetworkProtocol enum trimmed to the
// families this runtime's TCP-only scope actually dials or listens on.
type Network uint8

const (
	// Unknown is the zero value; Endpoint.Validate rejects it.
	Unknown Network = iota
	TCP
	TCP4
	TCP6
)

func (n Network) String() string {
	switch n {
	case TCP:
		return "tcp"
	case TCP4:
		return "tcp4"
	case TCP6:
		return "tcp6"
	default:
		return "unknown"
	}
}

// ErrInvalidProtocol is returned by Validate for an unrecognized Network.
var ErrInvalidProtocol = fmt.Errorf("transport: invalid protocol")

// Endpoint is one side of a TCP connection: the network family, the
// dial/listen address, and whether TLS wraps the raw socket. Client and
// server configuration both embed one.
type Endpoint struct {
	Network Network
	Address string
	TLS     bool
}

// Validate checks Network is a recognized TCP family and Address resolves
// under it, catching malformed configuration before a dial or listen
// attempt.
func (e Endpoint) Validate() error {
	switch e.Network {
	case TCP, TCP4, TCP6:
	default:
		return ErrInvalidProtocol
	}
	if e.Address == "" {
		return fmt.Errorf("transport: empty address")
	}
	if _, err := net.ResolveTCPAddr(e.Network.String(), e.Address); err != nil {
		return fmt.Errorf("transport: resolve %s %q: %w", e.Network, e.Address, err)
	}
	return nil
}
