package endpoint

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/qcp-go/qcp/internal/cert"
	"github.com/qcp-go/qcp/internal/portrange"
	"github.com/qcp-go/qcp/internal/transport"
)

func TestListenAndDialHandshake(t *testing.T) {
	serverCred, err := cert.Generate()
	if err != nil {
		t.Fatalf("server cert.Generate: %v", err)
	}
	clientCred, err := cert.Generate()
	if err != nil {
		t.Fatalf("client cert.Generate: %v", err)
	}

	serverTLS, err := ServerTLSConfig(serverCred, clientCred.Certificate)
	if err != nil {
		t.Fatalf("ServerTLSConfig: %v", err)
	}
	clientTLS, err := ClientTLSConfig(clientCred, serverCred.Certificate, serverCred.Hostname)
	if err != nil {
		t.Fatalf("ClientTLSConfig: %v", err)
	}

	opts := transport.Options{
		RxBytesPerSec: 1_000_000,
		TxBytesPerSec: 1_000_000,
		RTT:           10 * time.Millisecond,
		Mode:          transport.ModeBoth,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, err := Listen(ctx, false, portrange.PortRange{}, serverTLS, opts, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer func() { _ = listener.Close() }()

	port := listener.Port()
	if port == 0 {
		t.Fatal("Listen bound port 0")
	}

	acceptErr := make(chan error, 1)
	go func() {
		_, err := listener.Accept(ctx)
		acceptErr <- err
	}()

	conn, udpConn, _, err := Dial(ctx, net.ParseIP("127.0.0.1"), port, clientTLS, opts)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer func() { _ = udpConn.Close() }()
	defer func() { _ = conn.CloseWithError(0, "test done") }()

	if err := <-acceptErr; err != nil {
		t.Fatalf("Accept: %v", err)
	}
}
