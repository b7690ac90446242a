// Package endpoint builds the mutually-authenticated QUIC endpoints
// both sides of a job use for the data channel (spec.md §4.4).
// Grounded on _examples/original_source/src/server.rs::create_endpoint
// and the client-side create_endpoint in
// _examples/original_source/src/client/main_loop.rs: each side trusts
// exactly the one peer certificate exchanged over the control
// channel, never a system trust store (spec.md §9 "TLS peer-trust
// model").
package endpoint

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/qcp-go/qcp/internal/cert"
)

// ALPN is the single protocol identifier both sides require (spec.md
// §6 "QUIC ALPN").
const ALPN = "qcp/2"

// trustRoot builds a pool containing exactly one certificate: the
// peer's, as delivered in the control exchange (spec.md §3 "The TLS
// root store on each side contains exactly one certificate").
func trustRoot(peerDER []byte) (*x509.CertPool, *x509.Certificate, error) {
	peer, err := cert.ParsePeerCertificate(peerDER)
	if err != nil {
		return nil, nil, err
	}
	pool := x509.NewCertPool()
	pool.AddCert(peer)
	return pool, peer, nil
}

// ServerTLSConfig builds the server-side TLS config: it presents its
// own credential and requires (and verifies) the client's certificate
// against a root store containing only that certificate (spec.md
// §4.4 "the server must additionally require client_auth").
func ServerTLSConfig(own *cert.Credential, peerCertDER []byte) (*tls.Config, error) {
	pool, _, err := trustRoot(peerCertDER)
	if err != nil {
		return nil, errors.Wrap(err, "endpoint: server TLS config")
	}
	return &tls.Config{
		Certificates: []tls.Certificate{own.TLSCertificate()},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
		NextProtos:   []string{ALPN},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// ClientTLSConfig builds the client-side TLS config: it presents its
// own credential and verifies the server's certificate (and expected
// name) against a root store containing only that certificate.
func ClientTLSConfig(own *cert.Credential, peerCertDER []byte, serverName string) (*tls.Config, error) {
	pool, _, err := trustRoot(peerCertDER)
	if err != nil {
		return nil, errors.Wrap(err, "endpoint: client TLS config")
	}
	return &tls.Config{
		Certificates: []tls.Certificate{own.TLSCertificate()},
		RootCAs:      pool,
		ServerName:   serverName,
		NextProtos:   []string{ALPN},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// Stream adapts a *quic.Stream (which already satisfies io.Reader and
// io.Writer) to the session.Stream interface: quic-go's Stream.Close
// closes only the send side (sends a FIN without affecting reads),
// which is exactly the CloseWrite semantics the session protocol
// needs.
type Stream struct {
	*quic.Stream
}

// CloseWrite closes the send side of the stream.
func (s Stream) CloseWrite() error { return s.Stream.Close() }
