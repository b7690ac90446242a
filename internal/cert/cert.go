// Package cert generates the ephemeral, self-signed TLS credential
// each qcp process uses for the lifetime of a single copy job
// (spec.md §3 "Credential"). Grounded on
// _examples/original_source/qcpt/src/cert.rs: one keypair and leaf
// certificate per process, never persisted, named after the local
// host.
package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Credential is an in-memory self-signed X.509 leaf, its private key,
// and the subject hostname it was issued for.
type Credential struct {
	Certificate []byte // DER-encoded leaf certificate
	PrivateKey  *ecdsa.PrivateKey
	Hostname    string
}

// validity is generous because the certificate only needs to survive
// one process's lifetime, but clock skew between the two hosts could
// otherwise cause "not yet valid" failures right at the start of a
// transfer.
const validity = 24 * time.Hour

// Generate creates a fresh ECDSA P-256 self-signed credential for the
// local hostname. Called once per process; the result is never
// written to disk.
func Generate() (*Credential, error) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown.host.invalid"
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "cert: generate key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, errors.Wrap(err, "cert: generate serial number")
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: hostname},
		DNSNames:              []string{hostname},
		NotBefore:             time.Now().Add(-5 * time.Minute),
		NotAfter:              time.Now().Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "cert: create certificate")
	}

	return &Credential{
		Certificate: der,
		PrivateKey:  key,
		Hostname:    hostname,
	}, nil
}

// TLSCertificate returns the credential as a tls.Certificate suitable
// for tls.Config.Certificates.
func (c *Credential) TLSCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{c.Certificate},
		PrivateKey:  c.PrivateKey,
	}
}

// ParsePeerCertificate parses a DER-encoded certificate received from
// the peer over the control channel, for insertion into a trust root
// that contains exactly that one certificate (spec.md §3, §9).
func ParsePeerCertificate(der []byte) (*x509.Certificate, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "cert: parse peer certificate")
	}
	return cert, nil
}
