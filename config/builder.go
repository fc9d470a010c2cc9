// Package config implements the functional-option style builder of spec
// §6: every recognised dispatcher/communicator option, plus the TLS
// delegation hooks, assembled into the comm.Settings and tlsconfig.Builder
// values the rest of the runtime consumes.
//
// Grounded on original_source/include/unicomm/config.hpp, whose named
// setters (set_endpoint, set_tcp_backlog, set_default_timeout, ...) this
// Builder mirrors one-for-one, and on nabbar-golib/httpserver's pattern of
// a single mutable Builder validated once at Build time.
package config

import (
	"fmt"
	"time"

	"github.com/sabouaram/tcpcomm/codec"
	"github.com/sabouaram/tcpcomm/comm"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
	"github.com/sabouaram/tcpcomm/tlsconfig"
	"github.com/sabouaram/tcpcomm/transport"
)

// DefaultQuantum is the default per-communicator per-tick processing
// budget (spec §6: "default 100" milliseconds).
const DefaultQuantum = 100 * time.Millisecond

// Builder accumulates every spec §6 option before Build validates and
// freezes them into a Resolved configuration.
type Builder struct {
	endpoint    transport.Endpoint
	tcpBacklog  int
	defaultPrio protocol.Priority
	defaultTout time.Duration

	timeoutsEnabled           bool
	useUniqueMessageID        bool
	useDefaultMessagePriority bool

	idleTimeout     time.Duration
	incomingQuantum time.Duration
	outgoingQuantum time.Duration

	registry *protocol.Registry

	sessionFactory session.Factory
	decoder        codec.Decoder
	encoder        codec.Encoder

	messageFactory protocol.MessageFactory

	tls *tlsconfig.Builder

	log logx.FuncLog
}

// New returns a Builder with the spec's documented defaults: 100ms
// quantums, timeouts and unique ids and default priority all enabled,
// idle timer disabled, default priority 0.
func New() *Builder {
	return &Builder{
		defaultPrio:               0,
		timeoutsEnabled:           true,
		useUniqueMessageID:        true,
		useDefaultMessagePriority: true,
		incomingQuantum:           DefaultQuantum,
		outgoingQuantum:           DefaultQuantum,
		registry:                  protocol.NewRegistry(protocol.UndefinedPriority),
		log:                       logx.Default(),
	}
}

// Endpoint sets the address/network/TLS endpoint dialed or listened on.
func (b *Builder) Endpoint(e transport.Endpoint) *Builder { b.endpoint = e; return b }

// TCPBacklog records the listen backlog in Resolved.TCPBacklog; 0 means
// "system default". server.Listen binds with net.Listen and does not apply
// this value, so the socket always gets the system default backlog.
func (b *Builder) TCPBacklog(n int) *Builder { b.tcpBacklog = n; return b }

// DefaultTimeout sets the fallback reply timeout for message names that
// have no registry entry; a registered entry with a zero Timeout keeps an
// infinite timeout.
func (b *Builder) DefaultTimeout(d time.Duration) *Builder { b.defaultTout = d; return b }

// DefaultPriority sets the fallback priority for messages sent with no
// priority of their own.
func (b *Builder) DefaultPriority(p protocol.Priority) *Builder { b.defaultPrio = p; return b }

// TimeoutsEnabled is the master switch for reply-deadline tracking.
func (b *Builder) TimeoutsEnabled(v bool) *Builder { b.timeoutsEnabled = v; return b }

// UseUniqueMessageID auto-assigns message ids on Send when unset.
func (b *Builder) UseUniqueMessageID(v bool) *Builder { b.useUniqueMessageID = v; return b }

// UseDefaultMessagePriority substitutes DefaultPriority (or the registry
// entry's priority) when a sent message's priority is unset.
func (b *Builder) UseDefaultMessagePriority(v bool) *Builder {
	b.useDefaultMessagePriority = v
	return b
}

// DispatcherIdleTimeout sets the idle-timer period; zero disables the
// timer entirely (this runtime's resolution of spec.md's ambiguity around
// a zero idle timeout).
func (b *Builder) DispatcherIdleTimeout(d time.Duration) *Builder { b.idleTimeout = d; return b }

// IncomingQuantum bounds how long one Process() tick spends decoding.
func (b *Builder) IncomingQuantum(d time.Duration) *Builder { b.incomingQuantum = d; return b }

// OutgoingQuantum bounds how long one Process() tick spends writing.
func (b *Builder) OutgoingQuantum(d time.Duration) *Builder { b.outgoingQuantum = d; return b }

// MessageInfo registers one message-name's reply policy in the registry.
func (b *Builder) MessageInfo(name string, needsReply bool, timeout time.Duration, allowedAnswers []string, priority protocol.Priority) *Builder {
	answers := make(map[string]struct{}, len(allowedAnswers))
	for _, a := range allowedAnswers {
		answers[a] = struct{}{}
	}
	b.registry.Register(protocol.Info{
		Name:       name,
		NeedsReply: needsReply,
		Timeout:    timeout,
		Answers:    answers,
		Priority:   priority,
	})
	return b
}

// SessionFactory sets the constructor invoked at connect time to
// materialise a user session object.
func (b *Builder) SessionFactory(f session.Factory) *Builder { b.sessionFactory = f; return b }

// MessageDecoder sets the codec's decode half.
func (b *Builder) MessageDecoder(d codec.Decoder) *Builder { b.decoder = d; return b }

// MessageEncoder sets the codec's encode half.
func (b *Builder) MessageEncoder(e codec.Encoder) *Builder { b.encoder = e; return b }

// MessageFactory sets the constructor Build wires into the configured
// decoder, when the decoder opts in by implementing
// `SetMessageFactory(protocol.MessageFactory)` (codec.LineCodec does). A
// decoder that doesn't implement it simply never sees f; there is no
// decoder-agnostic way to force message construction through a factory
// since Message implementations are free to carry arbitrary extra fields.
func (b *Builder) MessageFactory(f protocol.MessageFactory) *Builder {
	b.messageFactory = f
	return b
}

// TLS returns the Builder's tlsconfig.Builder, lazily creating it on first
// use, for SSL* option wiring.
func (b *Builder) TLS() *tlsconfig.Builder {
	if b.tls == nil {
		b.tls = tlsconfig.New()
	}
	return b.tls
}

// SSLClientVerifyFunc wires the ssl_client_verify_fn hook.
func (b *Builder) SSLClientVerifyFunc(fn tlsconfig.FctClientVerify) *Builder {
	b.TLS().RegisterClientVerifyFunc(fn)
	return b
}

// SSLServerKeyPassword wires the ssl_server_key_password hook.
func (b *Builder) SSLServerKeyPassword(fn tlsconfig.FctServerKeyPassword) *Builder {
	b.TLS().RegisterServerKeyPassword(fn)
	return b
}

// SSLServerCertChainFunc wires the ssl_server_cert_chain_fn hook.
func (b *Builder) SSLServerCertChainFunc(fn tlsconfig.FctServerCertChain) *Builder {
	b.TLS().RegisterServerCertChainFunc(fn)
	return b
}

// SSLServerKeyFunc wires the ssl_server_key_fn hook.
func (b *Builder) SSLServerKeyFunc(fn tlsconfig.FctServerKey) *Builder {
	b.TLS().RegisterServerKeyFunc(fn)
	return b
}

// SSLServerDHFunc wires the ssl_server_dh_fn hook. See tlsconfig.FctServerDH
// for why Go's TLS stack never consumes the returned parameters.
func (b *Builder) SSLServerDHFunc(fn tlsconfig.FctServerDH) *Builder {
	b.TLS().RegisterServerDHFunc(fn)
	return b
}

// Log sets the structured logger factory used throughout the runtime.
func (b *Builder) Log(l logx.FuncLog) *Builder { b.log = l; return b }

// Resolved is the validated, immutable result of Build.
type Resolved struct {
	Endpoint   transport.Endpoint
	TCPBacklog int

	Settings comm.Settings

	SessionFactory session.Factory
	TLS            *tlsconfig.Builder
	Log            logx.FuncLog
}

// Build validates the accumulated options and produces a Resolved
// configuration, or an error naming the first missing required piece.
func (b *Builder) Build() (*Resolved, error) {
	// Endpoint is optional at the Builder level: client.Client.Connect and
	// server.Server.Listen both take an explicit endpoint per call, for
	// processes that play both roles or dial/listen more than once. Only
	// validate it here when the caller actually set one.
	if b.endpoint.Network != transport.Unknown {
		if err := b.endpoint.Validate(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if b.decoder == nil {
		return nil, fmt.Errorf("config: message decoder not set")
	}
	if b.encoder == nil {
		return nil, fmt.Errorf("config: message encoder not set")
	}
	if b.sessionFactory == nil {
		return nil, fmt.Errorf("config: session factory not set")
	}
	if b.endpoint.TLS && b.tls == nil {
		return nil, fmt.Errorf("config: endpoint requires TLS but no SSL hooks were registered")
	}

	if b.messageFactory != nil {
		if fa, ok := b.decoder.(interface {
			SetMessageFactory(protocol.MessageFactory)
		}); ok {
			fa.SetMessageFactory(b.messageFactory)
		}
	}

	b.registry.SetDefaultTimeout(b.defaultTout)

	return &Resolved{
		Endpoint:   b.endpoint,
		TCPBacklog: b.tcpBacklog,
		Settings: comm.Settings{
			Registry:                  b.registry,
			Decoder:                   b.decoder,
			Encoder:                   b.encoder,
			TimeoutsEnabled:           b.timeoutsEnabled,
			UseUniqueMessageID:        b.useUniqueMessageID,
			UseDefaultMessagePriority: b.useDefaultMessagePriority,
			DefaultPriority:           b.defaultPrio,
			IncomingQuantum:           b.incomingQuantum,
			OutgoingQuantum:           b.outgoingQuantum,
			Log:                       b.log,
		},
		SessionFactory: b.sessionFactory,
		TLS:            b.tls,
		Log:            b.log,
	}, nil
}

// IdleTimeout exposes the configured dispatcher idle-timer period, read by
// the code that constructs a dispatcher.Dispatcher from a Resolved value.
func (b *Builder) IdleTimeout() time.Duration { return b.idleTimeout }
