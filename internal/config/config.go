// Package config defines the Configuration record the core consumes
// (spec.md §3). Building one from layered defaults/system-file/
// user-file/command-line sources is out of scope (spec.md §1); this
// package only defines the shape and the handful of SSH invocation
// parameters cmd/qcp needs to pass through.
package config

import (
	"time"

	"github.com/qcp-go/qcp/internal/addrfamily"
	"github.com/qcp-go/qcp/internal/portrange"
	"github.com/qcp-go/qcp/internal/transport"
)

// Configuration is the final, fully-resolved set of inputs the
// control channel, session protocol, and transport tuner all consume.
type Configuration struct {
	// Rx/Tx are the expected one-way throughputs, in bytes/sec, used
	// to size QUIC windows and OS buffers (spec.md §4.3).
	Rx uint64
	Tx uint64

	// RTT is the expected round-trip time to the remote host.
	RTT time.Duration

	Congestion              transport.CongestionController
	InitialCongestionWindow uint64

	Port       portrange.PortRange
	RemotePort portrange.PortRange

	Timeout time.Duration

	AddressFamily addrfamily.AddressFamily

	// SSH invocation parameters.
	SSHClientPath string   // defaults to "ssh"
	SSHOptions    []string // extra options inserted before the hostname
	RemoteCommand string   // defaults to "qcp"

	// Debug enables verbose logging on both sides; server-side this
	// also affects the SSH-relayed stderr (spec.md §6 "Environment").
	Debug bool

	// Quiet suppresses the client's human-readable progress/summary
	// output (rendering itself is external per spec.md §1, but the
	// flag still gates whether the core emits its summary events).
	Quiet bool
}

// DefaultTimeout is the conventional handshake/setup timeout, equal to
// cmd/qcp's --timeout default. A Configuration with a zero Timeout is
// not filled in from it.
const DefaultTimeout = 5 * time.Second

// Mode derives the transport throughput mode for a job given which
// side is remote (spec.md §4.5 "source-remote -> Rx, else Tx").
func (c Configuration) Mode(sourceIsRemote bool) transport.ThroughputMode {
	if sourceIsRemote {
		return transport.ModeRx
	}
	return transport.ModeTx
}

// TransportOptions builds the tuner Options this Configuration implies
// for the given throughput mode.
func (c Configuration) TransportOptions(mode transport.ThroughputMode) transport.Options {
	return transport.Options{
		RxBytesPerSec:           c.Rx,
		TxBytesPerSec:           c.Tx,
		RTT:                     c.RTT,
		Congestion:              c.Congestion,
		InitialCongestionWindow: c.InitialCongestionWindow,
		Mode:                    mode,
	}
}
