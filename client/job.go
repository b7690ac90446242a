// Package client implements the client orchestrator (spec.md §4.5):
// generate credentials, launch ssh, run the control-channel
// handshake, build the QUIC data channel, dispatch GET/PUT for each
// file, and collect statistics. Grounded end to end on
// _examples/original_source/src/client/main_loop.rs (client_main,
// manage_request, launch_server, wait_for_banner) and
// _examples/original_source/src/client/job.rs (FileSpec, CopyJobSpec).
package client

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/qcp-go/qcp/internal/transport"
)

// FileSpec is one side (source or destination) of a copy job: either
// a bare local path, or host:path / [ipv6]:path for a remote file
// (spec.md §3, "Exactly one endpoint of any copy job is remote").
type FileSpec struct {
	Host     string // empty if local
	Filename string
}

// IsRemote reports whether this side names a remote host.
func (f FileSpec) IsRemote() bool { return f.Host != "" }

// ParseFileSpec parses a SOURCE or DEST argument. Grounded on
// original_source/src/client/job.rs's FromStr impl for FileSpec:
// a leading '[' assumes a bracketed IPv6 literal ("[::1]:file"),
// otherwise the first ':' splits host from filename, and a spec with
// no ':' at all is a local path.
func ParseFileSpec(s string) FileSpec {
	if strings.HasPrefix(s, "[") {
		if host, filename, ok := strings.Cut(s[1:], "]:"); ok {
			return FileSpec{Host: host, Filename: filename}
		}
		return FileSpec{Filename: s}
	}
	if host, filename, ok := strings.Cut(s, ":"); ok {
		return FileSpec{Host: host, Filename: filename}
	}
	return FileSpec{Filename: s}
}

// Job describes one file copy: exactly one of Source/Destination must
// be remote (spec.md §8 property 8).
type Job struct {
	Source      FileSpec
	Destination FileSpec
}

// Validate checks the exactly-one-remote invariant before any process
// is launched (spec.md §8 property 8).
func (j Job) Validate() error {
	if j.Source.IsRemote() == j.Destination.IsRemote() {
		return errors.New("exactly one of source and destination must be a remote host")
	}
	return nil
}

// RemoteHost returns the job's remote endpoint's host.
func (j Job) RemoteHost() string {
	if j.Source.IsRemote() {
		return j.Source.Host
	}
	return j.Destination.Host
}

// IsGet reports whether this job fetches a file from the remote
// (true) or sends one to it (false).
func (j Job) IsGet() bool { return j.Source.IsRemote() }

// Mode derives the throughput mode to request from the transport
// tuner (spec.md §4.5 "source-remote -> Rx, else Tx").
func (j Job) Mode() transport.ThroughputMode {
	if j.IsGet() {
		return transport.ModeRx
	}
	return transport.ModeTx
}
