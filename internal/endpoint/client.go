package endpoint

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/qcp-go/qcp/internal/transport"
)

// ConnectTimeout bounds the initial QUIC handshake (spec.md §4.5,
// §5: "QUIC connect: 5 s").
const ConnectTimeout = 5 * time.Second

// Dial binds an unspecified local UDP socket of the family matching
// remoteIP, applies the tuner's OS buffer sizing, and connects a QUIC
// connection to (remoteIP, port); the TLS SNI/verification name is
// whatever tlsConf.ServerName holds, which ClientTLSConfig sets to the
// server's announced name (spec.md §4.4 "Client", §4.5
// "connect((ip, port), server_message.name)"). The
// returned warning is non-nil when the OS socket buffers couldn't be
// sized to the tuner's target (spec.md §4.3 "OS socket buffer
// application policy": "a direct log (client side)"), mirroring
// Listen/applySocketBuffers on the server side.
func Dial(ctx context.Context, remoteIP net.IP, port uint16, tlsConf *tls.Config, opts transport.Options) (*quic.Conn, *net.UDPConn, *string, error) {
	network := "udp4"
	local := &net.UDPAddr{IP: net.IPv4zero, Port: 0}
	if remoteIP.To4() == nil {
		network = "udp6"
		local = &net.UDPAddr{IP: net.IPv6unspecified, Port: 0}
	}

	conn, err := net.ListenUDP(network, local)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "endpoint: bind client socket")
	}

	var result [2]transport.BufferResult
	warning := applySocketBuffers(conn, opts, &result)

	dialCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	tr := &quic.Transport{Conn: conn}
	remote := &net.UDPAddr{IP: remoteIP, Port: int(port)}
	qconn, err := tr.Dial(dialCtx, remote, tlsConf, opts.QUICConfig())
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, errors.Wrap(err, "endpoint: dial")
	}
	return qconn, conn, warning, nil
}
