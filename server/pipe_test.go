package server

import "io"

// pipeStream adapts a pair of io.Pipe halves into a session.Stream,
// letting tests exercise serveGet/servePut and their client-side
// counterparts directly, without a real QUIC connection.
type pipeStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p pipeStream) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeStream) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipeStream) CloseWrite() error           { return p.w.Close() }

// newStreamPair returns two connected pipeStreams: writes on one are
// reads on the other, in both directions.
func newStreamPair() (a, b pipeStream) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	return pipeStream{r: r1, w: w2}, pipeStream{r: r2, w: w1}
}
