package control

import "io"

// newSlowPipe returns a reader that yields exactly one byte and then
// blocks forever, simulating a peer that sent the first byte of the
// banner (e.g. the byte ssh itself prints before a stalled session)
// and never sends the rest.
func newSlowPipe() (io.Reader, io.Closer) {
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte{'q'})
		// then block until the test closes pw, never writing more.
	}()
	return pr, pw
}
