// Package server implements the accept front end of spec §4.G: listen on
// an endpoint, loop accepting connections, and feed each resulting
// Communicator into a dispatcher's pool. The accept loop always re-arms
// before doing any other work with a freshly accepted socket, exactly as
// spec §4.G requires, so a slow after-accept hook or TLS handshake never
// delays the next accept.
//
// Grounded on original_source/include/unicomm/server.hpp and server.cpp;
// the original's async_accept completion handler becomes a goroutine loop
// here, with the same "re-arm first" ordering.
package server

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sabouaram/tcpcomm/comm"
	"github.com/sabouaram/tcpcomm/commpool"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
	"github.com/sabouaram/tcpcomm/tlsconfig"
	"github.com/sabouaram/tcpcomm/transport"
)

// AfterAcceptFunc is invoked once per accepted connection, before the
// handshake (if any) and before the communicator is inserted, letting the
// caller tune socket options the way spec §4.G's after_accept hook does.
type AfterAcceptFunc func(conn net.Conn)

// AcceptErrorFunc receives every Accept error while the loop is running
// (the loop keeps running after a transient one) and per-connection TLS
// handshake failures. Listen returns its own errors instead.
type AcceptErrorFunc func(err error)

// Server holds the pieces an accept loop needs.
type Server struct {
	Pool     *commpool.Pool
	IDs      *protocol.ConnIDGenerator
	Settings comm.Settings
	Kick     comm.Kicker
	Factory  session.Factory
	TLS      *tlsconfig.Builder // nil disables TLS
	Log      logx.FuncLog

	AfterAccept AfterAcceptFunc
	OnError     AcceptErrorFunc

	mu       sync.Mutex
	listener net.Listener
	running  atomic.Bool
}

// Listen binds endpoint and returns once the socket is ready to accept;
// it does not itself start accepting — call Serve for that, in its own
// goroutine, to match the asynchronous nature of spec §4.G.
func (s *Server) Listen(endpoint transport.Endpoint) error {
	if err := endpoint.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen(endpoint.Network.String(), endpoint.Address)
	if err != nil {
		return err
	}

	if endpoint.TLS && s.TLS != nil {
		cfg, tlsErr := s.TLS.ServerTLS()
		if tlsErr != nil {
			_ = ln.Close()
			return tlsErr
		}
		ln = tls.NewListener(ln, cfg)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Serve runs the accept loop until Close is called or the listener errors
// permanently. Run it in its own goroutine; it blocks.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return net.ErrClosed
	}

	s.running.Store(true)
	for s.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if s.OnError != nil {
				s.OnError(err)
			}
			if isTemporary(err) {
				continue
			}
			return err
		}

		// Dispatch per-connection work (AfterAccept, TLS handshake, pool
		// insertion) on its own goroutine so the loop reaches the next
		// Accept immediately instead of waiting on a slow handshake.
		go s.handleAccepted(conn)
	}
	return nil
}

func (s *Server) handleAccepted(conn net.Conn) {
	if s.AfterAccept != nil {
		s.AfterAccept(conn)
	}

	if tlsConn, ok := conn.(*tls.Conn); ok {
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			if s.OnError != nil {
				s.OnError(err)
			}
			return
		}
	}

	id := s.IDs.Next()
	cm := comm.New(id, conn, s.Settings, s.Kick, s.Factory)
	s.Pool.Insert(cm)
	if s.Kick != nil {
		s.Kick(id)
	}
}

// Addr returns the bound listener's address, or nil before Listen succeeds.
// Useful when Listen was called with an ephemeral port (":0").
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the accept loop and releases the listening socket.
func (s *Server) Close() error {
	s.running.Store(false)
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func isTemporary(err error) bool {
	type temporary interface{ Temporary() bool }
	te, ok := err.(temporary)
	return ok && te.Temporary()
}
