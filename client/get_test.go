package client

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/qcp-go/qcp/internal/protocol/session"
)

// fakeStream is a minimal session.Stream backed by an in-memory buffer
// for Response framing, used to test statusError/serverAbortOr without
// a real stream.
type fakeStream struct {
	io.Reader
	io.Writer
}

func (fakeStream) CloseWrite() error { return nil }

func TestStatusErrorWithMessage(t *testing.T) {
	msg := "permission denied"
	err := statusError("GET", "foo.txt", session.Response{Status: session.StatusIncorrectPermissions, Message: &msg})
	if err == nil {
		t.Fatal("statusError returned nil")
	}
	if got := err.Error(); !strings.Contains(got, "permission denied") || !strings.Contains(got, "foo.txt") {
		t.Errorf("error = %q, want it to mention the filename and message", got)
	}
}

func TestStatusErrorWithoutMessage(t *testing.T) {
	err := statusError("PUT", "bar.txt", session.Response{Status: session.StatusDirectoryDoesNotExist})
	if err == nil || !strings.Contains(err.Error(), "DirectoryDoesNotExist") {
		t.Errorf("error = %v, want it to mention the status", err)
	}
}

func TestServerAbortOrWithResponse(t *testing.T) {
	msg := "disk full"
	resp := session.Response{Status: session.StatusIoError, Message: &msg}
	var buf bytes.Buffer
	if err := session.WriteResponse(&buf, resp); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	stream := fakeStream{Reader: &buf}
	err := serverAbortOr(stream, io.ErrUnexpectedEOF)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("serverAbortOr = %v, want it to surface the server's message", err)
	}
}

func TestServerAbortOrFallback(t *testing.T) {
	stream := fakeStream{Reader: strings.NewReader("")}
	err := serverAbortOr(stream, io.ErrUnexpectedEOF)
	if err == nil || !strings.Contains(err.Error(), "connection closed unexpectedly") {
		t.Errorf("serverAbortOr = %v, want the fallback wrapping", err)
	}
}
