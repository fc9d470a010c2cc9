// Package tlsconfig builds *tls.Config values for the runtime's client and
// server front ends. It is a condensed, purpose-built descendant of
// nabbar-golib/certificates: the teacher supports every encoding format and
// a much larger certificate-store surface, because it is a general-purpose
// TLS library; this package keeps the ssl_* hooks the dispatcher's
// configuration builder exposes at §6 of the spec, plus a small static
// surface: root/client CA pools, client-auth mode, version bounds, cipher
// suites and static certificate pairs.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
)

// FctServerKeyPassword returns the passphrase protecting the server's
// private key, or "" if the key is not encrypted.
type FctServerKeyPassword func() string

// FctServerCertChain returns the PEM-encoded certificate chain for a given
// SNI server name, enabling per-host certificates.
type FctServerCertChain func(serverName string) ([]byte, error)

// FctServerKey returns the PEM-encoded private key matching the chain
// returned by FctServerCertChain for the same server name.
type FctServerKey func(serverName string) ([]byte, error)

// FctServerDH returns PEM-encoded Diffie-Hellman parameters. Go's
// crypto/tls negotiates its own ECDHE groups and has no hook for custom
// finite-field DH parameters; this hook is accepted for config-surface
// parity with the original library and stored by RegisterServerDHFunc, but
// the runtime itself never feeds it to crypto/tls.
type FctServerDH func() ([]byte, error)

// FctClientVerify lets the client front end override peer-certificate
// verification (e.g. pinning), matching crypto/tls's
// VerifyPeerCertificate hook signature.
type FctClientVerify func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error

// Builder accumulates TLS configuration before ClientTLS/ServerTLS materialises
// it into a *tls.Config. It is safe for concurrent use.
type Builder struct {
	mu sync.Mutex

	rootCAs   *x509.CertPool
	clientCAs *x509.CertPool
	auth      ClientAuth

	versionMin Version
	versionMax Version
	ciphers    []uint16

	certs []tls.Certificate

	keyPassword FctServerKeyPassword
	certChain   FctServerCertChain
	serverKey   FctServerKey
	dhParams    FctServerDH
	clientVerif FctClientVerify
}

// New returns a Builder with TLS 1.2 as the floor, matching the teacher's
// default (TLS 1.0/1.1 are only reachable by an explicit SetVersionMin).
func New() *Builder {
	return &Builder{
		rootCAs:    x509.NewCertPool(),
		clientCAs:  x509.NewCertPool(),
		auth:       NoClientCert,
		versionMin: VersionTLS12,
		versionMax: VersionTLS13,
	}
}

func (b *Builder) AddRootCA(pem []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rootCAs.AppendCertsFromPEM(pem)
}

func (b *Builder) AddClientCA(pem []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clientCAs.AppendCertsFromPEM(pem)
}

func (b *Builder) SetClientAuth(a ClientAuth) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = a
}

func (b *Builder) SetVersionMin(v Version) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.versionMin = v
}

func (b *Builder) SetVersionMax(v Version) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.versionMax = v
}

func (b *Builder) SetCipherSuites(ids []uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ciphers = append([]uint16(nil), ids...)
}

// AddCertificatePair registers a static (non-SNI) certificate pair.
func (b *Builder) AddCertificatePair(certPEM, keyPEM []byte) error {
	crt, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return fmt.Errorf("tlsconfig: parse certificate pair: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.certs = append(b.certs, crt)
	return nil
}

// RegisterServerKeyPassword wires the §6 ssl_server_key_password hook.
func (b *Builder) RegisterServerKeyPassword(fn FctServerKeyPassword) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keyPassword = fn
}

// RegisterServerCertChainFunc wires the §6 ssl_server_cert_chain_fn hook.
func (b *Builder) RegisterServerCertChainFunc(fn FctServerCertChain) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.certChain = fn
}

// RegisterServerKeyFunc wires the §6 ssl_server_key_fn hook.
func (b *Builder) RegisterServerKeyFunc(fn FctServerKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.serverKey = fn
}

// RegisterServerDHFunc wires the §6 ssl_server_dh_fn hook. See FctServerDH
// for why the runtime does not act on the returned parameters.
func (b *Builder) RegisterServerDHFunc(fn FctServerDH) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dhParams = fn
}

// RegisterClientVerifyFunc wires the §6 ssl_client_verify_fn hook.
func (b *Builder) RegisterClientVerifyFunc(fn FctClientVerify) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientVerif = fn
}

// ClientTLS builds the *tls.Config used by the connect front end.
func (b *Builder) ClientTLS(serverName string) *tls.Config {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := &tls.Config{
		RootCAs:      b.rootCAs,
		ServerName:   serverName,
		MinVersion:   b.versionMin.Uint16(),
		MaxVersion:   b.versionMax.Uint16(),
		CipherSuites: b.ciphers,
		Certificates: b.certs,
	}
	if b.clientVerif != nil {
		fn := b.clientVerif
		cfg.VerifyPeerCertificate = fn
	}
	return cfg
}

// ServerTLS builds the *tls.Config used by the accept front end. When a
// dynamic cert-chain/key pair is registered it is installed as
// GetCertificate alongside any statically added certificates; crypto/tls
// consults it when no static certificate was added, or when the client
// sends an SNI server name, and otherwise serves the first static one.
func (b *Builder) ServerTLS() (*tls.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg := &tls.Config{
		ClientCAs:    b.clientCAs,
		ClientAuth:   tls.ClientAuthType(b.auth),
		MinVersion:   b.versionMin.Uint16(),
		MaxVersion:   b.versionMax.Uint16(),
		CipherSuites: b.ciphers,
		Certificates: b.certs,
	}

	if b.certChain != nil && b.serverKey != nil {
		certChain, serverKey, keyPassword := b.certChain, b.serverKey, b.keyPassword
		cfg.GetCertificate = func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			chainPEM, err := certChain(hello.ServerName)
			if err != nil {
				return nil, fmt.Errorf("tlsconfig: cert chain for %q: %w", hello.ServerName, err)
			}
			keyPEM, err := serverKey(hello.ServerName)
			if err != nil {
				return nil, fmt.Errorf("tlsconfig: key for %q: %w", hello.ServerName, err)
			}
			if keyPassword != nil {
				_ = keyPassword() // accepted for parity; decrypting PKCS#8 is out of core scope
			}
			crt, err := tls.X509KeyPair(chainPEM, keyPEM)
			if err != nil {
				return nil, fmt.Errorf("tlsconfig: parse dynamic pair for %q: %w", hello.ServerName, err)
			}
			return &crt, nil
		}
	} else if len(b.certs) == 0 {
		return nil, fmt.Errorf("tlsconfig: no server certificate configured")
	}

	return cfg, nil
}
