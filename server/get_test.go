package server

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/qcp-go/qcp/internal/protocol/session"
	"github.com/qcp-go/qcp/internal/stats"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// clientGet drives the client side of the GET sub-protocol directly
// against a session.Stream, mirroring client/get.go::doGet closely
// enough to exercise serveGet end to end without importing the client
// package (which would otherwise make server's tests depend on
// client's unexported internals).
func clientGet(stream session.Stream, filename, destPath string, connStats *stats.ConnectionStats) (uint64, error) {
	if err := session.WriteCommand(stream, session.Command{Kind: session.CommandGet, Filename: filename}); err != nil {
		return 0, err
	}
	resp, err := session.ReadResponse(stream)
	if err != nil {
		return 0, err
	}
	if resp.Status != session.StatusOk {
		if resp.Message != nil {
			return 0, errString(*resp.Message)
		}
		return 0, errString(resp.Status.String())
	}
	header, err := session.ReadFileHeader(stream)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	if _, err := session.CopyPayload(f, stream, header.Size, connStats.AddRecv); err != nil {
		return 0, err
	}
	if _, err := session.ReadFileTrailer(stream); err != nil {
		return 0, err
	}
	return header.Size, nil
}

type errString string

func (e errString) Error() string { return string(e) }

func TestServeGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	const body = "hello from the server"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dest := filepath.Join(dir, "dest.txt")

	serverSide, clientSide := newStreamPair()
	serverStats := &stats.ConnectionStats{}
	clientStats := &stats.ConnectionStats{}

	done := make(chan error, 1)
	go func() {
		cmd, err := session.ReadCommand(serverSide)
		if err != nil {
			done <- err
			return
		}
		done <- serveGet(serverSide, cmd.Filename, serverStats, discardLogger())
	}()

	n, err := clientGet(clientSide, src, dest, clientStats)
	if err != nil {
		t.Fatalf("clientGet: %v", err)
	}
	if n != uint64(len(body)) {
		t.Errorf("clientGet returned %d bytes, want %d", n, len(body))
	}
	if err := <-done; err != nil {
		t.Fatalf("serveGet: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile(dest): %v", err)
	}
	if string(got) != body {
		t.Errorf("dest contents = %q, want %q", got, body)
	}
	if clientStats.BytesRecv() != int64(len(body)) {
		t.Errorf("client BytesRecv = %d, want %d", clientStats.BytesRecv(), len(body))
	}
	if serverStats.BytesSent() != int64(len(body)) {
		t.Errorf("server BytesSent = %d, want %d", serverStats.BytesSent(), len(body))
	}
}

func TestServeGetMissingFile(t *testing.T) {
	dir := t.TempDir()
	serverSide, clientSide := newStreamPair()
	serverStats := &stats.ConnectionStats{}
	clientStats := &stats.ConnectionStats{}

	done := make(chan error, 1)
	go func() {
		cmd, err := session.ReadCommand(serverSide)
		if err != nil {
			done <- err
			return
		}
		done <- serveGet(serverSide, cmd.Filename, serverStats, discardLogger())
	}()

	_, err := clientGet(clientSide, filepath.Join(dir, "missing.txt"), filepath.Join(dir, "dest.txt"), clientStats)
	if err == nil {
		t.Fatal("clientGet succeeded against a missing file, want an error")
	}
	if err := <-done; err != nil {
		t.Fatalf("serveGet: %v", err)
	}
}
