// Package stats accounts bytes moved during a session and collects
// the QUIC connection-level counters that become a
// control.ClosedownReport (spec.md §3, §4.6). Grounded on
// accounting.go's Account/Stats.Bytes at the root of rclone, adapted
// from its package-level singleton into an explicitly-passed,
// per-connection struct: qcp runs one job per process, so there is no
// "current global transfer" to hang a singleton off.
package stats

import (
	"sync/atomic"

	"github.com/qcp-go/qcp/internal/protocol/control"
)

// ConnectionStats is the client- or server-local view of one QUIC
// connection's traffic, read once at closedown (spec.md §5 "Shared
// resources").
type ConnectionStats struct {
	bytesSent atomic.Int64
	bytesRecv atomic.Int64
}

// AddSent records n bytes written to a stream.
func (s *ConnectionStats) AddSent(n int64) { s.bytesSent.Add(n) }

// AddRecv records n bytes read from a stream.
func (s *ConnectionStats) AddRecv(n int64) { s.bytesRecv.Add(n) }

// BytesSent returns the running total of payload bytes sent.
func (s *ConnectionStats) BytesSent() int64 { return s.bytesSent.Load() }

// BytesRecv returns the running total of payload bytes received.
func (s *ConnectionStats) BytesRecv() int64 { return s.bytesRecv.Load() }

// Snapshot reports stats as a control.ClosedownReport. SentBytes
// starts as the payload byte count from c; a non-nil Collector then
// fills in the QUIC-level counters, replacing SentBytes with its
// wire-level count. With a nil Collector every field other than
// SentBytes is zero.
func Snapshot(c *ConnectionStats, q *Collector) control.ClosedownReport {
	report := control.ClosedownReport{
		SentBytes: uint64(c.BytesSent()),
	}
	if q != nil {
		q.fill(&report)
	}
	return report
}
