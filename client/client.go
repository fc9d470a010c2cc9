// Package client implements the connect front end of spec §4.F: dial an
// endpoint asynchronously, optionally run a TLS handshake, and feed the
// resulting Communicator into a dispatcher's pool. Failed dials are
// recorded and surfaced through ConnectErrorFunc callbacks and
// PendingErrors, rather than being returned synchronously to the caller
// that has no Communicator to attach them to.
//
// Grounded on original_source/include/unicomm/client.hpp and client.cpp,
// whose connect()/on-error-list pattern this package mirrors with a
// goroutine standing in for the original's async_connect completion
// handler.
package client

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/sabouaram/tcpcomm/comm"
	"github.com/sabouaram/tcpcomm/commpool"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
	"github.com/sabouaram/tcpcomm/tlsconfig"
	"github.com/sabouaram/tcpcomm/transport"
)

// ConnectErrorFunc receives a failed dial's (endpoint, error) pair, per
// spec §4.F; it is additionally broadcast through OnError if set.
type ConnectErrorFunc func(p *session.ConnectErrorParams)

// Client holds the pieces a connect attempt needs: where to dial into,
// which settings each resulting Communicator gets, and how to announce
// failures.
type Client struct {
	Pool     *commpool.Pool
	IDs      *protocol.ConnIDGenerator
	Settings comm.Settings
	Kick     comm.Kicker
	Factory  session.Factory
	TLS      *tlsconfig.Builder // nil disables TLS
	Log      logx.FuncLog

	DialTimeout time.Duration

	mu      sync.Mutex
	onError ConnectErrorFunc
	errs    []session.ConnectErrorParams
}

// OnError registers the broadcast connect-error hook; it is called, in
// addition to the per-call callback passed to Connect, for every failed
// dial.
func (c *Client) OnError(fn ConnectErrorFunc) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Connect dials endpoint asynchronously. On success the resulting
// Communicator is inserted into Pool with its just-connected latch set, so
// the next dispatcher pass emits Connected. On failure the (endpoint,
// error) pair is recorded and surfaced via onError (the per-call callback)
// and the broadcast OnError hook, both on the goroutine Connect starts —
// there is no live Communicator yet to route it through Process().
func (c *Client) Connect(endpoint transport.Endpoint, onError ConnectErrorFunc) {
	go c.connect(endpoint, onError)
}

func (c *Client) connect(endpoint transport.Endpoint, onError ConnectErrorFunc) {
	if err := endpoint.Validate(); err != nil {
		c.fail(endpoint, err, onError)
		return
	}

	dialer := net.Dialer{Timeout: c.DialTimeout}
	conn, err := dialer.Dial(endpoint.Network.String(), endpoint.Address)
	if err != nil {
		c.fail(endpoint, err, onError)
		return
	}

	if endpoint.TLS && c.TLS != nil {
		host, _, splitErr := net.SplitHostPort(endpoint.Address)
		if splitErr != nil {
			host = endpoint.Address
		}
		tlsConn := tls.Client(conn, c.TLS.ClientTLS(host))
		if hsErr := tlsConn.Handshake(); hsErr != nil {
			_ = conn.Close()
			c.fail(endpoint, hsErr, onError)
			return
		}
		conn = tlsConn
	}

	id := c.IDs.Next()
	cm := comm.New(id, conn, c.Settings, c.Kick, c.Factory)
	c.Pool.Insert(cm)
	if c.Kick != nil {
		c.Kick(id)
	}
}

func (c *Client) fail(endpoint transport.Endpoint, err error, onError ConnectErrorFunc) {
	p := &session.ConnectErrorParams{Endpoint: endpoint.Address, Err: err}

	c.mu.Lock()
	c.errs = append(c.errs, *p)
	broadcast := c.onError
	c.mu.Unlock()

	if onError != nil {
		onError(p)
	}
	if broadcast != nil {
		broadcast(p)
	}
}

// PendingErrors drains and returns every connect error recorded since the
// last call, letting a caller poll the error list from a dispatcher pass
// the way spec §4.F's "surfaced during the next processing pass" implies,
// for integrations that prefer polling over callbacks.
func (c *Client) PendingErrors() []session.ConnectErrorParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.errs
	c.errs = nil
	return out
}
