// Package session implements the per-stream wire protocol that moves
// a single file over one QUIC bidirectional stream: Command, Response,
// FileHeader, FileTrailer, exactly as spec.md §3/§4.2 describes.
package session

import (
	"io"

	"github.com/pkg/errors"

	"github.com/qcp-go/qcp/internal/wire"
)

// Status is the outcome of a Command, reported in a Response.
type Status uint8

// Status values. Ok must be zero so a zero-valued Response defaults
// to failure-shaped handling only when explicitly set otherwise.
const (
	StatusOk Status = iota
	StatusFileNotFound
	StatusIncorrectPermissions
	StatusDirectoryDoesNotExist
	StatusIoError
	StatusItIsADirectory
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusFileNotFound:
		return "FileNotFound"
	case StatusIncorrectPermissions:
		return "IncorrectPermissions"
	case StatusDirectoryDoesNotExist:
		return "DirectoryDoesNotExist"
	case StatusIoError:
		return "IoError"
	case StatusItIsADirectory:
		return "ItIsADirectory"
	default:
		return "Unknown"
	}
}

// CommandKind distinguishes GET from PUT.
type CommandKind uint8

const (
	// CommandGet requests the peer send the named file.
	CommandGet CommandKind = iota
	// CommandPut announces the sender is about to send a file to be
	// written at the named destination.
	CommandPut
)

// Command is the first message sent on a session stream.
type Command struct {
	Kind     CommandKind
	Filename string
}

// Marshal encodes a Command as a frame body.
func (c Command) Marshal() []byte {
	w := wire.NewWriter()
	w.PutUint8(uint8(c.Kind))
	w.PutString(c.Filename)
	return w.Bytes()
}

// WriteCommand writes a length-framed Command.
func WriteCommand(w io.Writer, c Command) error {
	return wire.WriteFrame(w, c.Marshal())
}

// ReadCommand reads and decodes a Command frame.
func ReadCommand(r io.Reader) (Command, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return Command{}, err
	}
	rd := wire.NewReader(body)
	kind := CommandKind(rd.Uint8())
	filename := rd.String()
	if err := rd.Err(); err != nil {
		return Command{}, errors.Wrap(err, "incompatible Command")
	}
	if rd.Remaining() != 0 {
		return Command{}, errors.New("incompatible Command: trailing data")
	}
	if kind != CommandGet && kind != CommandPut {
		return Command{}, errors.Errorf("incompatible Command: unknown kind %d", kind)
	}
	return Command{Kind: kind, Filename: filename}, nil
}

// Response answers a Command (and, on PUT, also acknowledges the
// completed write).
type Response struct {
	Status  Status
	Message *string
}

// OkResponse is a convenience constructor for a successful Response.
func OkResponse() Response { return Response{Status: StatusOk} }

// ErrResponse builds a failure Response carrying a diagnostic message.
func ErrResponse(status Status, message string) Response {
	return Response{Status: status, Message: &message}
}

// Marshal encodes a Response as a frame body.
func (r Response) Marshal() []byte {
	w := wire.NewWriter()
	w.PutUint8(uint8(r.Status))
	w.PutOptionalString(r.Message)
	return w.Bytes()
}

// WriteResponse writes a length-framed Response.
func WriteResponse(w io.Writer, r Response) error {
	return wire.WriteFrame(w, r.Marshal())
}

// ReadResponse reads and decodes a Response frame.
func ReadResponse(r io.Reader) (Response, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return Response{}, err
	}
	rd := wire.NewReader(body)
	status := Status(rd.Uint8())
	msg := rd.OptionalString()
	if err := rd.Err(); err != nil {
		return Response{}, errors.Wrap(err, "incompatible Response")
	}
	if rd.Remaining() != 0 {
		return Response{}, errors.New("incompatible Response: trailing data")
	}
	return Response{Status: status, Message: msg}, nil
}

// FileHeader precedes the payload bytes. Filename is always a leaf
// name: the sender strips any directory components before sending
// (spec.md §4.2 "Filename normalisation").
type FileHeader struct {
	Size     uint64
	Filename string
}

// Marshal encodes a FileHeader as a frame body.
func (h FileHeader) Marshal() []byte {
	w := wire.NewWriter()
	w.PutUint64(h.Size)
	w.PutString(h.Filename)
	return w.Bytes()
}

// WriteFileHeader writes a length-framed FileHeader.
func WriteFileHeader(w io.Writer, h FileHeader) error {
	return wire.WriteFrame(w, h.Marshal())
}

// ReadFileHeader reads and decodes a FileHeader frame.
func ReadFileHeader(r io.Reader) (FileHeader, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return FileHeader{}, err
	}
	rd := wire.NewReader(body)
	size := rd.Uint64()
	filename := rd.String()
	if err := rd.Err(); err != nil {
		return FileHeader{}, errors.Wrap(err, "incompatible FileHeader")
	}
	if rd.Remaining() != 0 {
		return FileHeader{}, errors.New("incompatible FileHeader: trailing data")
	}
	return FileHeader{Size: size, Filename: filename}, nil
}

// FileTrailer is an empty marker the sender emits once it has written
// what it believes is the complete, intact payload.
type FileTrailer struct{}

// WriteFileTrailer writes a length-framed (empty) FileTrailer.
func WriteFileTrailer(w io.Writer) error {
	return wire.WriteFrame(w, nil)
}

// ReadFileTrailer reads and validates a FileTrailer frame.
func ReadFileTrailer(r io.Reader) (FileTrailer, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return FileTrailer{}, err
	}
	if len(body) != 0 {
		return FileTrailer{}, errors.New("incompatible FileTrailer: expected empty body")
	}
	return FileTrailer{}, nil
}
