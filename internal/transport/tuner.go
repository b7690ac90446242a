// Package transport derives QUIC and OS socket tuning parameters from
// a declared bandwidth/RTT budget (spec.md §4.3). Grounded on
// _examples/original_source/src/transport.rs (create_config,
// ThroughputMode, CongestionControllerType) and
// _examples/original_source/src/util/socket.rs (buffer sizing policy,
// implemented in socket.go/socket_linux.go/socket_other.go in this
// package).
package transport

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
)

// ThroughputMode selects which windows/buffers to size, so a one-way
// flow doesn't waste kernel memory on the direction it won't use
// (spec.md §4.3).
type ThroughputMode uint8

const (
	// ModeTx expects to send a lot but not receive much.
	ModeTx ThroughputMode = iota
	// ModeRx expects to receive a lot but not send much.
	ModeRx
	// ModeBoth expects substantial traffic in both directions.
	ModeBoth
)

// CongestionController names a QUIC congestion control algorithm. The
// value is carried in the configuration, passed to the server on its
// command line and reported in BandwidthInfo; QUICConfig does not apply
// it, so connections use quic-go's built-in congestion controller
// whichever value is chosen.
type CongestionController uint8

const (
	// Cubic is the algorithm TCP uses; a safe default.
	Cubic CongestionController = iota
	// Bbr trades more in-flight data and retransmission for higher
	// goodput on long, fat, shallow-buffered paths.
	Bbr
)

func (c CongestionController) String() string {
	if c == Bbr {
		return "bbr"
	}
	return "cubic"
}

// ParseCongestionController accepts the two algorithm names "cubic" and
// "bbr", case-insensitively, with "" meaning cubic (spec.md §4.3).
func ParseCongestionController(s string) (CongestionController, error) {
	switch strings.ToLower(s) {
	case "", "cubic":
		return Cubic, nil
	case "bbr":
		return Bbr, nil
	default:
		return 0, errors.Errorf("invalid congestion controller %q (expected cubic or bbr)", s)
	}
}

// Keepalive is the QUIC connection keepalive interval (spec.md §4.3).
const Keepalive = 5 * time.Second

// MinUDPBuffer is the fixed minimum OS UDP socket buffer size
// (spec.md §4.3: "fixed 2 MiB minimum").
const MinUDPBuffer = 2 << 20

// MaxConcurrentBidiStreams and MaxConcurrentUniStreams are today's
// fixed concurrency limits (spec.md §4.3; §9 notes these may be
// raised without a protocol change since the scheduler and per-stream
// error handling already support it).
const (
	MaxConcurrentBidiStreams = 1
	MaxConcurrentUniStreams  = 0
)

// Options bundles the tuner's inputs (the subset of
// internal/config.Configuration relevant to transport sizing, kept
// separate so this package has no dependency on the config package).
type Options struct {
	RxBytesPerSec uint64
	TxBytesPerSec uint64
	RTT           time.Duration

	Congestion              CongestionController
	InitialCongestionWindow uint64

	Mode ThroughputMode
}

// BDPRx returns the receive-direction bandwidth-delay product in bytes.
func (o Options) BDPRx() uint64 { return bdp(o.RxBytesPerSec, o.RTT) }

// BDPTx returns the send-direction bandwidth-delay product in bytes.
func (o Options) BDPTx() uint64 { return bdp(o.TxBytesPerSec, o.RTT) }

func bdp(bytesPerSec uint64, rtt time.Duration) uint64 {
	return uint64(float64(bytesPerSec) * rtt.Seconds())
}

// RecvWindow is the QUIC receive window: the theoretical in-flight
// data is sufficient (spec.md §4.3).
func (o Options) RecvWindow() uint64 { return o.BDPRx() }

// SendWindow is the QUIC send window: 2x BDP to provision for jitter
// (spec.md §4.3).
func (o Options) SendWindow() uint64 { return 2 * o.BDPTx() }

// SendBuffer is the OS UDP send buffer target: max(MinUDPBuffer, BDPTx
// when it exceeds the minimum by enough to matter). Implementers may
// adopt the fixed minimum as specified; this implementation raises it
// only when the BDP itself would exceed the minimum, so very long fat
// pipes still get a correspondingly large buffer.
func (o Options) SendBuffer() uint64 {
	return maxU64(MinUDPBuffer, o.BDPTx())
}

// RecvBuffer mirrors SendBuffer for the receive direction (spec.md
// §4.3, "symmetric policy").
func (o Options) RecvBuffer() uint64 {
	return maxU64(MinUDPBuffer, o.BDPRx())
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// QUICConfig builds the quic.Config for this job's mode and window
// sizing (spec.md §4.3, §4.4). QUIC flow-control receive windows are
// granted by the receiving side to its peer, so only the
// receive-shaped knobs have a direct quic.Config field. SendBuffer
// drives the OS UDP send buffer (applied by internal/endpoint through
// socket.go); SendWindow is only logged. Congestion and
// InitialCongestionWindow are not applied here or anywhere else: the
// connection runs quic-go's default congestion controller with its
// default initial window.
func (o Options) QUICConfig() *quic.Config {
	cfg := &quic.Config{
		MaxIdleTimeout:        Keepalive * 4,
		KeepAlivePeriod:       Keepalive,
		EnableDatagrams:       true,
		MaxIncomingStreams:    MaxConcurrentBidiStreams,
		MaxIncomingUniStreams: MaxConcurrentUniStreams,
		// max_early_data_size = max (spec.md §4.4): enable 0-RTT
		// resumption support even though a fresh process on each
		// side means it's never actually exercised.
		Allow0RTT: true,
	}

	switch o.Mode {
	case ModeRx, ModeBoth:
		cfg.InitialStreamReceiveWindow = o.RecvWindow()
		cfg.MaxStreamReceiveWindow = o.RecvWindow()
		cfg.InitialConnectionReceiveWindow = o.RecvWindow()
		cfg.MaxConnectionReceiveWindow = o.RecvWindow()
	}

	return cfg
}
