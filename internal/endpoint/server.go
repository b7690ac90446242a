package endpoint

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/qcp-go/qcp/internal/portrange"
	"github.com/qcp-go/qcp/internal/stats"
	"github.com/qcp-go/qcp/internal/transport"
)

// Listener is the server-side handle on a bound QUIC endpoint.
type Listener struct {
	*quic.Listener
	conn    *net.UDPConn
	Warning *string
}

// Listen binds a UDP socket for the requested family within ports
// (or lets the OS choose if ports is the default value), applies the
// tuner's OS buffer sizing, and builds a QUIC listener over it
// (spec.md §4.4 "Server"). client IPv4/IPv6 selects the bind family to
// match the connection type the client announced. collector, if
// non-nil, is wired into the QUIC connection as its tracer so
// ClosedownReport can be filled in from real transport telemetry
// (spec.md §4.6, §3 ClosedownReport).
func Listen(ctx context.Context, ipv6 bool, ports portrange.PortRange, tlsConf *tls.Config, opts transport.Options, collector *stats.Collector) (*Listener, error) {
	ip := "0.0.0.0"
	network := "udp4"
	if ipv6 {
		ip = "::"
		network = "udp6"
	}

	conn, err := bindRange(ctx, network, ip, ports)
	if err != nil {
		return nil, errors.Wrap(err, "endpoint: bind server socket")
	}

	var result [2]transport.BufferResult
	warning := applySocketBuffers(conn, opts, &result)

	qcfg := opts.QUICConfig()
	if collector != nil {
		qcfg.Tracer = collector.Tracer()
	}

	tr := &quic.Transport{Conn: conn}
	ln, err := tr.Listen(tlsConf, qcfg)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "endpoint: listen")
	}

	return &Listener{Listener: ln, conn: conn, Warning: warning}, nil
}

// Port returns the UDP port this listener is bound to.
func (l *Listener) Port() uint16 {
	return uint16(l.Addr().(*net.UDPAddr).Port)
}

// Close shuts down the QUIC listener and its underlying socket.
func (l *Listener) Close() error {
	err := l.Listener.Close()
	if cErr := l.conn.Close(); err == nil {
		err = cErr
	}
	return err
}

func bindRange(ctx context.Context, network, ip string, ports portrange.PortRange) (*net.UDPConn, error) {
	if ports.IsDefault() {
		conn, err := net.ListenUDP(network, &net.UDPAddr{IP: net.ParseIP(ip), Port: 0})
		return conn, err
	}
	for port := ports.Begin; ; port++ {
		conn, err := net.ListenUDP(network, &net.UDPAddr{IP: net.ParseIP(ip), Port: int(port)})
		if err == nil {
			return conn, nil
		}
		if port == ports.End {
			return nil, errors.Errorf("no free port in range %s", ports)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
}

func applySocketBuffers(conn *net.UDPConn, opts transport.Options, out *[2]transport.BufferResult) *string {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil
	}
	sndTarget := int(opts.SendBuffer())
	rcvTarget := int(opts.RecvBuffer())
	// Only the directions the throughput mode uses are sized.
	_ = raw.Control(func(fd uintptr) {
		if opts.Mode != transport.ModeRx {
			out[0] = transport.ApplyBuffer(fd, transport.BufferSend, sndTarget)
		}
		if opts.Mode != transport.ModeTx {
			out[1] = transport.ApplyBuffer(fd, transport.BufferRecv, rcvTarget)
		}
	})
	if out[0].ShortOf() || out[1].ShortOf() {
		msg := fmt.Sprintf(
			"could not reach target UDP buffer sizes: send %d/%d, recv %d/%d",
			out[0].Achieved, out[0].Target, out[1].Achieved, out[1].Target,
		)
		return &msg
	}
	return nil
}
