package session

import "io"

// Stream is the minimal surface a QUIC bidirectional stream needs to
// expose for the session protocol: an independently closable send
// side layered over a single io.ReadWriter. A *quic.Stream satisfies
// it through the internal/endpoint.Stream adapter, which supplies
// CloseWrite.
type Stream interface {
	io.Reader
	io.Writer
	// CloseWrite signals the sender has no more data (FIN on the
	// send side), without affecting the receive side.
	CloseWrite() error
}

// CopyPayload copies exactly n bytes from src to dst, counting
// through the supplied accounting function (nil is fine). It is used
// for both the GET send path and the PUT receive path so the
// "FileHeader.size is authoritative" invariant (spec.md §3) is
// enforced in exactly one place: io.CopyN already refuses to copy
// more than n bytes, and returns an error if fewer were available.
func CopyPayload(dst io.Writer, src io.Reader, n uint64, onBytes func(int64)) (int64, error) {
	if onBytes == nil {
		return io.CopyN(dst, src, int64(n))
	}
	counted := &countingReader{r: src, onBytes: onBytes}
	return io.CopyN(dst, counted, int64(n))
}

type countingReader struct {
	r       io.Reader
	onBytes func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.onBytes(int64(n))
	}
	return n, err
}
