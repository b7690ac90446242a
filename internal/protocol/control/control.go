// Package control implements the banner and framed handshake messages
// carried over the SSH-piped stdio control channel (spec.md §4.1).
package control

import (
	"io"

	"github.com/pkg/errors"

	"github.com/qcp-go/qcp/internal/wire"
)

// Banner is the fixed ASCII line the server writes to stdout before
// any framed message, identifying the wire protocol version this
// implementation speaks. It intentionally differs from the original
// Rust project's "qcp-server-1\n" (a CapnProto-framed wire format);
// this is "qcp-server-2\n", a distinct hand-rolled length-framed wire
// format (see SPEC_FULL.md, "Control channel").
const Banner = "qcp-server-2\n"

// ConnectionType selects the IP family the client used to resolve the
// remote host, and therefore which family the server should bind.
type ConnectionType uint8

const (
	ConnectionIPv4 ConnectionType = iota
	ConnectionIPv6
)

// ClientMessage is sent once, client to server, after the banner.
type ClientMessage struct {
	Cert           []byte
	ConnectionType ConnectionType
}

// Marshal encodes a ClientMessage as a frame body.
func (m ClientMessage) Marshal() []byte {
	w := wire.NewWriter()
	w.PutBytes(m.Cert)
	w.PutUint8(uint8(m.ConnectionType))
	return w.Bytes()
}

// WriteClientMessage writes a length-framed ClientMessage.
func WriteClientMessage(w io.Writer, m ClientMessage) error {
	return wire.WriteFrame(w, m.Marshal())
}

// ReadClientMessage reads and decodes a ClientMessage frame.
func ReadClientMessage(r io.Reader) (ClientMessage, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return ClientMessage{}, err
	}
	rd := wire.NewReader(body)
	cert := rd.Bytes()
	ct := ConnectionType(rd.Uint8())
	if err := rd.Err(); err != nil {
		return ClientMessage{}, errors.Wrap(err, "incompatible ClientMessage")
	}
	if rd.Remaining() != 0 {
		return ClientMessage{}, errors.New("incompatible ClientMessage: trailing data")
	}
	if ct != ConnectionIPv4 && ct != ConnectionIPv6 {
		return ClientMessage{}, errors.Errorf("incompatible ClientMessage: unknown connection type %d", ct)
	}
	return ClientMessage{Cert: cert, ConnectionType: ct}, nil
}

// ServerMessage is sent once, server to client, in reply to
// ClientMessage. Name must match the subject in Cert.
type ServerMessage struct {
	Port          uint16
	Cert          []byte
	Name          string
	Warning       *string
	BandwidthInfo string
}

// Marshal encodes a ServerMessage as a frame body.
func (m ServerMessage) Marshal() []byte {
	w := wire.NewWriter()
	w.PutUint16(m.Port)
	w.PutBytes(m.Cert)
	w.PutString(m.Name)
	w.PutOptionalString(m.Warning)
	w.PutString(m.BandwidthInfo)
	return w.Bytes()
}

// WriteServerMessage writes a length-framed ServerMessage.
func WriteServerMessage(w io.Writer, m ServerMessage) error {
	return wire.WriteFrame(w, m.Marshal())
}

// ReadServerMessage reads and decodes a ServerMessage frame.
func ReadServerMessage(r io.Reader) (ServerMessage, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return ServerMessage{}, err
	}
	rd := wire.NewReader(body)
	port := rd.Uint16()
	cert := rd.Bytes()
	name := rd.String()
	warning := rd.OptionalString()
	bandwidthInfo := rd.String()
	if err := rd.Err(); err != nil {
		return ServerMessage{}, errors.Wrap(err, "incompatible ServerMessage")
	}
	if rd.Remaining() != 0 {
		return ServerMessage{}, errors.New("incompatible ServerMessage: trailing data")
	}
	return ServerMessage{
		Port:          port,
		Cert:          cert,
		Name:          name,
		Warning:       warning,
		BandwidthInfo: bandwidthInfo,
	}, nil
}

// ClosedownReport carries the server's connection statistics to the
// client just before the server exits (spec.md §3).
type ClosedownReport struct {
	Cwnd               uint64
	SentPackets        uint64
	SentBytes          uint64
	LostPackets        uint64
	LostBytes          uint64
	CongestionEvents   uint64
	BlackHolesDetected uint64
}

// Marshal encodes a ClosedownReport as a frame body.
func (r ClosedownReport) Marshal() []byte {
	w := wire.NewWriter()
	w.PutUint64(r.Cwnd)
	w.PutUint64(r.SentPackets)
	w.PutUint64(r.SentBytes)
	w.PutUint64(r.LostPackets)
	w.PutUint64(r.LostBytes)
	w.PutUint64(r.CongestionEvents)
	w.PutUint64(r.BlackHolesDetected)
	return w.Bytes()
}

// WriteClosedownReport writes a length-framed ClosedownReport.
func WriteClosedownReport(w io.Writer, r ClosedownReport) error {
	return wire.WriteFrame(w, r.Marshal())
}

// ReadClosedownReport reads and decodes a ClosedownReport frame.
func ReadClosedownReport(r io.Reader) (ClosedownReport, error) {
	body, err := wire.ReadFrame(r)
	if err != nil {
		return ClosedownReport{}, err
	}
	rd := wire.NewReader(body)
	out := ClosedownReport{
		Cwnd:               rd.Uint64(),
		SentPackets:        rd.Uint64(),
		SentBytes:          rd.Uint64(),
		LostPackets:        rd.Uint64(),
		LostBytes:          rd.Uint64(),
		CongestionEvents:   rd.Uint64(),
		BlackHolesDetected: rd.Uint64(),
	}
	if err := rd.Err(); err != nil {
		return ClosedownReport{}, errors.Wrap(err, "incompatible ClosedownReport")
	}
	if rd.Remaining() != 0 {
		return ClosedownReport{}, errors.New("incompatible ClosedownReport: trailing data")
	}
	return out, nil
}
