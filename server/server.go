// Package server implements the single-connection server orchestrator
// (spec.md §4.6): write the banner, exchange handshake messages,
// accept exactly one QUIC connection within a bounded timeout, serve
// GET/PUT on each bidi stream that connection opens, and report
// ClosedownReport on exit. Grounded end to end on
// _examples/original_source/src/server.rs (server_main,
// handle_connection, handle_stream, handle_get, handle_put).
package server

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"

	"github.com/qcp-go/qcp/internal/cert"
	"github.com/qcp-go/qcp/internal/config"
	"github.com/qcp-go/qcp/internal/endpoint"
	"github.com/qcp-go/qcp/internal/protocol/control"
	"github.com/qcp-go/qcp/internal/protocol/session"
	"github.com/qcp-go/qcp/internal/stats"
	"github.com/qcp-go/qcp/internal/transport"
)

// IdleWaitTimeout bounds how long Run waits for the QUIC connection
// to go idle during closedown before giving up (spec.md §5, a warning
// not an error).
const IdleWaitTimeout = 5 * time.Second

type flusher interface{ Flush() error }

func flush(w io.Writer) {
	if f, ok := w.(flusher); ok {
		_ = f.Flush()
	}
}

// Run executes the full server lifecycle against stdin/stdout (the
// SSH-piped control channel) and returns a non-nil error only for
// fatal handshake/transport failures; individual stream failures are
// logged and do not make Run fail (spec.md §4.6 step 5).
func Run(ctx context.Context, cfg config.Configuration, stdin io.Reader, stdout io.Writer, log *logrus.Logger) error {
	if err := control.WriteBanner(stdout); err != nil {
		return err
	}

	clientMsg, err := control.ReadClientMessage(stdin)
	if err != nil {
		return errors.Wrap(err, "in server mode, expected a binary data packet on stdin")
	}

	credential, err := cert.Generate()
	if err != nil {
		return err
	}

	tlsConf, err := endpoint.ServerTLSConfig(credential, clientMsg.Cert)
	if err != nil {
		return err
	}

	// The server doesn't know in advance whether this job is a GET or
	// a PUT, so it configures both directions (grounded on
	// original_source/src/server.rs::create_endpoint: "We don't know
	// whether client will send or receive, so configure for both").
	opts := cfg.TransportOptions(transport.ModeBoth)
	logNetworkConfig(log, opts)

	collector := stats.NewCollector()

	ipv6 := clientMsg.ConnectionType == control.ConnectionIPv6
	listener, err := endpoint.Listen(ctx, ipv6, cfg.Port, tlsConf, opts, collector)
	if err != nil {
		return err
	}
	defer func() { _ = listener.Close() }()

	serverMsg := control.ServerMessage{
		Port:          listener.Port(),
		Cert:          credential.Certificate,
		Name:          credential.Hostname,
		Warning:       listener.Warning,
		BandwidthInfo: bandwidthInfo(cfg),
	}
	if err := control.WriteServerMessage(stdout, serverMsg); err != nil {
		return err
	}
	flush(stdout)

	acceptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	conn, err := listener.Accept(acceptCtx)
	cancel()
	if err != nil {
		return errors.Wrap(err, "timed out waiting for QUIC connection (is UDP reaching this host?)")
	}
	log.Debugf("accepted connection from %s", conn.RemoteAddr())

	connStats := &stats.ConnectionStats{}

	// stdin closing is itself an exit trigger (spec.md §4.6 step 6):
	// watch for it and cancel the stream-accept loop if it fires
	// before the connection's own streams are done.
	servingCtx, cancelServing := context.WithCancel(ctx)
	go func() {
		_, _ = io.Copy(io.Discard, stdin)
		cancelServing()
	}()

	handleConnection(servingCtx, conn, connStats, log)
	cancelServing()

	idleCtx, idleCancel := context.WithTimeout(ctx, IdleWaitTimeout)
	if err := conn.CloseWithError(0, "finished"); err != nil {
		log.Debugf("closing connection: %v", err)
	}
	select {
	case <-conn.Context().Done():
	case <-idleCtx.Done():
		log.Warn("QUIC shutdown timed out")
	}
	idleCancel()

	report := stats.Snapshot(connStats, collector)
	if err := control.WriteClosedownReport(stdout, report); err != nil {
		return err
	}
	flush(stdout)
	return nil
}

func bandwidthInfo(cfg config.Configuration) string {
	return fmt.Sprintf("rx=%s/s tx=%s/s rtt=%s congestion=%s",
		humanize.Bytes(cfg.Rx), humanize.Bytes(cfg.Tx), cfg.RTT, cfg.Congestion)
}

// logNetworkConfig records the tuner-derived windows/buffers at debug
// level (spec.md §4.3; original_source/src/transport.rs's
// debug!("Network configuration: ...") calls, ported as structured
// logrus fields per SPEC_FULL.md "Human-readable bandwidth/window
// logging").
func logNetworkConfig(log *logrus.Logger, opts transport.Options) {
	log.WithFields(logrus.Fields{
		"send_window_bytes": opts.SendWindow(),
		"recv_window_bytes": opts.RecvWindow(),
		"send_buffer_bytes": opts.SendBuffer(),
		"recv_buffer_bytes": opts.RecvBuffer(),
	}).Debug("network configuration")
}

// handleConnection loops accepting bidi streams until the connection
// closes, spawning one goroutine per stream (spec.md §4.6 step 4).
// A stream's error is logged but does not tear down the connection
// (spec.md §4.6 step 5).
func handleConnection(ctx context.Context, conn *quic.Conn, connStats *stats.ConnectionStats, log *logrus.Logger) {
	var wg sync.WaitGroup
	for {
		str, err := conn.AcceptStream(ctx)
		if err != nil {
			// ApplicationClosed / ConnectionClosed / ctx
			// cancellation all end the accept loop the same way:
			// there is nothing more to serve (spec.md §4.6 step 6).
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handleStream(endpoint.Stream{Stream: str}, connStats, log); err != nil {
				log.Debugf("stream failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func handleStream(stream session.Stream, connStats *stats.ConnectionStats, log *logrus.Logger) error {
	cmd, err := session.ReadCommand(stream)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case session.CommandGet:
		return serveGet(stream, cmd.Filename, connStats, log)
	case session.CommandPut:
		return servePut(stream, cmd.Filename, connStats, log)
	default:
		return errors.Errorf("server: unknown command kind %d", cmd.Kind)
	}
}
