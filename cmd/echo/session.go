package main

import (
	"fmt"
	"sync/atomic"

	"github.com/sabouaram/tcpcomm/codec"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/session"
)

const (
	requestName = "1"
	replyName   = "2"
)

// echoSession implements session.Session for both sides of the demo,
// grounded on original_source/samples/echo/echo.hpp's uni_echo::session:
// a request handler that echoes the payload back, a reply handler that
// only logs, and (client-side) a periodic resend driven off
// AfterProcessed the same way the original used after_processed_handler
// plus an idle-timer-tick counter.
type echoSession struct {
	conn   session.Conn
	log    logx.Logger
	isServ bool

	resendEvery int32
	ticks       atomic.Int32
	payload     string
	repeat      bool
}

func newEchoSession(conn session.Conn, log logx.FuncLog, isServer bool, payload string, repeat bool) *echoSession {
	return &echoSession{
		conn:        conn,
		log:         log(),
		isServ:      isServer,
		resendEvery: 30,
		payload:     payload,
		repeat:      repeat,
	}
}

func sessionSide(s *echoSession) string {
	if s.isServ {
		return "server"
	}
	return "client"
}

func (s *echoSession) Connected(p *session.ConnectedParams) {
	s.log.WithField("conn", s.conn.ID()).
		WithField("remote", s.conn.RemoteAddr()).
		Info(fmt.Sprintf("%s> connected", sessionSide(s)))

	if !s.isServ {
		s.sendRequest()
	}
}

func (s *echoSession) Disconnected(p *session.DisconnectedParams) {
	msg := "orderly"
	if p.Err != nil {
		msg = p.Err.Error()
	}
	s.log.WithField("conn", s.conn.ID()).Info(fmt.Sprintf("%s> disconnected: %s", sessionSide(s), msg))
}

func (s *echoSession) Arrived(p *session.MessageArrivedParams) {
	lm, ok := p.In.(*codec.LineMessage)
	if !ok {
		return
	}

	switch lm.Name() {
	case requestName:
		s.log.WithField("conn", s.conn.ID()).WithField("id", lm.ID()).
			Info(fmt.Sprintf("%s> [%d]: REQUEST: %s", sessionSide(s), lm.ID(), lm.Data))
		p.Reply = codec.NewLineMessage(replyName, lm.Data)
	case replyName:
		s.log.WithField("conn", s.conn.ID()).WithField("rid", lm.ReplyTo()).
			Info(fmt.Sprintf("%s> [%d]: REPLY: %s", sessionSide(s), lm.ReplyTo(), lm.Data))
	}
}

func (s *echoSession) Sent(p *session.MessageSentParams) {
	s.log.WithField("conn", s.conn.ID()).WithField("id", p.ID).Debug(fmt.Sprintf("%s> sent", sessionSide(s)))
}

func (s *echoSession) TimedOut(p *session.TimeoutParams) {
	s.log.WithField("conn", s.conn.ID()).WithField("id", p.ID).Warn(fmt.Sprintf("%s> timeout", sessionSide(s)))
}

func (s *echoSession) Errored(p *session.ErrorParams) {
	s.log.WithField("conn", s.conn.ID()).WithError(p.Err).Error(fmt.Sprintf("%s> error", sessionSide(s)))
}

// AfterProcessed mirrors the original's idle-timer-driven resend: every
// resendEvery Process ticks on this connection (whatever woke the
// dispatcher), if repeat is set, send another request.
func (s *echoSession) AfterProcessed(p *session.AfterProcessedParams) {
	if s.isServ || !s.repeat {
		return
	}
	if s.ticks.Add(1) < s.resendEvery {
		return
	}
	s.ticks.Store(0)
	s.sendRequest()
}

func (s *echoSession) sendRequest() {
	_, _ = s.conn.Send(codec.NewLineMessage(requestName, s.payload))
}
