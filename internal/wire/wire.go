// Package wire implements the length-prefixed binary framing used by
// qcp's control and session protocols: fixed-width integers are
// big-endian, strings and byte slices are a uint32 length followed by
// the raw bytes, the same conventions the SSH wire format itself uses.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MaxFrameSize bounds a single frame body to guard against a
// corrupted or hostile length prefix causing an unbounded allocation.
const MaxFrameSize = 16 << 20 // 16MiB

// WriteFrame writes body prefixed with its 4-byte big-endian length.
func WriteFrame(w io.Writer, body []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "wire: write frame header")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "wire: write frame body")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame. A truncated read (EOF
// before any bytes of the length header arrive) is reported as
// io.EOF so callers can distinguish "peer closed cleanly" from a
// frame that began but never completed.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "control channel closed unexpectedly")
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if size > MaxFrameSize {
		return nil, errors.Errorf("wire: frame size %d exceeds maximum %d", size, MaxFrameSize)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "control channel closed unexpectedly")
	}
	return body, nil
}

// Writer accumulates a frame body using ssh-style field encoding.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated frame body.
func (w *Writer) Bytes() []byte { return w.buf }

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint16 appends a big-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint32 appends a big-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint64 appends a big-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutBytes appends a uint32 length prefix followed by b.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// PutString appends a uint32 length prefix followed by the string's bytes.
func (w *Writer) PutString(s string) { w.PutBytes([]byte(s)) }

// PutOptionalString writes a presence byte followed by the string
// (empty if absent). Used for fields like ServerMessage.warning that
// are optional on the wire but always present structurally.
func (w *Writer) PutOptionalString(s *string) {
	if s == nil {
		w.PutUint8(0)
		w.PutString("")
		return
	}
	w.PutUint8(1)
	w.PutString(*s)
}

// Reader consumes a frame body written by Writer, field by field.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader wraps body for sequential field decoding.
func NewReader(body []byte) *Reader { return &Reader{buf: body} }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) need(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.buf) {
		r.err = errors.New("wire: truncated frame")
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	b := r.need(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16() uint16 {
	b := r.need(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32() uint32 {
	b := r.need(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Uint64 reads a big-endian uint64.
func (r *Reader) Uint64() uint64 {
	b := r.need(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Bytes reads a uint32-length-prefixed byte slice.
func (r *Reader) Bytes() []byte {
	n := r.Uint32()
	if r.err != nil {
		return nil
	}
	b := r.need(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// String reads a uint32-length-prefixed string.
func (r *Reader) String() string { return string(r.Bytes()) }

// OptionalString reads a presence byte followed by a string.
func (r *Reader) OptionalString() *string {
	present := r.Uint8()
	s := r.String()
	if r.err != nil || present == 0 {
		return nil
	}
	return &s
}

// Remaining reports how many unconsumed bytes remain, used by decoders
// to reject trailing garbage within a record (spec.md §4.1).
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }
