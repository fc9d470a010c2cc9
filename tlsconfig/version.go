package tlsconfig

import "crypto/tls"

// Version wraps tls.Version so the builder's min/max setters read the
// same way as the rest of the runtime's named-type, not bare-uint16, style.
type Version uint16

const (
	VersionTLS10 = Version(tls.VersionTLS10)
	VersionTLS11 = Version(tls.VersionTLS11)
	VersionTLS12 = Version(tls.VersionTLS12)
	VersionTLS13 = Version(tls.VersionTLS13)
)

func (v Version) Uint16() uint16 { return uint16(v) }
