package stats

import (
	"context"
	"sync/atomic"

	"github.com/quic-go/quic-go/logging"

	"github.com/qcp-go/qcp/internal/protocol/control"
)

// Collector accumulates the congestion/loss telemetry that becomes
// ClosedownReport.{Cwnd,SentPackets,SentBytes,LostPackets,
// CongestionEvents}, by hanging a logging.ConnectionTracer off
// quic.Config.Tracer for the lifetime of one connection. There is no
// public API on quic.Connection itself for these counters; qlog-style
// tracing is the only way the library exposes them. LostBytes is
// reported but never incremented, since the LostPacket callback
// carries no packet size, so it is always zero.
type Collector struct {
	cwnd             atomic.Uint64
	sentPackets      atomic.Uint64
	sentBytes        atomic.Uint64
	lostPackets      atomic.Uint64
	lostBytes        atomic.Uint64
	congestionEvents atomic.Uint64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// Tracer builds the quic.Config.Tracer hook that feeds this Collector.
func (c *Collector) Tracer() func(context.Context, logging.Perspective, logging.ConnectionID) *logging.ConnectionTracer {
	return func(context.Context, logging.Perspective, logging.ConnectionID) *logging.ConnectionTracer {
		return &logging.ConnectionTracer{
			SentLongHeaderPacket: func(_ *logging.ExtendedHeader, size logging.ByteCount, _ logging.ECN, _ *logging.AckFrame) {
				c.sentPackets.Add(1)
				c.sentBytes.Add(uint64(size))
			},
			SentShortHeaderPacket: func(_ *logging.ShortHeader, size logging.ByteCount, _ logging.ECN, _ *logging.AckFrame) {
				c.sentPackets.Add(1)
				c.sentBytes.Add(uint64(size))
			},
			LostPacket: func(_ logging.EncryptionLevel, _ logging.PacketNumber, _ logging.PacketLossReason) {
				c.lostPackets.Add(1)
			},
			UpdatedMetrics: func(_ *logging.RTTStats, cwnd, _ logging.ByteCount, _ int) {
				c.cwnd.Store(uint64(cwnd))
			},
			UpdatedCongestionState: func(_ logging.CongestionState) {
				c.congestionEvents.Add(1)
			},
		}
	}
}

func (c *Collector) fill(r *control.ClosedownReport) {
	r.Cwnd = c.cwnd.Load()
	r.SentPackets = c.sentPackets.Load()
	r.SentBytes = c.sentBytes.Load()
	r.LostPackets = c.lostPackets.Load()
	r.LostBytes = c.lostBytes.Load()
	r.CongestionEvents = c.congestionEvents.Load()
}
