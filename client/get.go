package client

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/qcp-go/qcp/internal/protocol/session"
	"github.com/qcp-go/qcp/internal/stats"
)

// doGet runs the client side of the GET sub-protocol for one stream
// (spec.md §4.2 "Wire order (GET)"). Grounded on
// original_source/src/client/main_loop.rs::do_get.
func doGet(stream session.Stream, job Job, connStats *stats.ConnectionStats) (uint64, error) {
	if err := session.WriteCommand(stream, session.Command{
		Kind:     session.CommandGet,
		Filename: job.Source.Filename,
	}); err != nil {
		return 0, err
	}

	response, err := session.ReadResponse(stream)
	if err != nil {
		return 0, err
	}
	if response.Status != session.StatusOk {
		return 0, statusError("GET", job.Source.Filename, response)
	}

	header, err := session.ReadFileHeader(stream)
	if err != nil {
		return 0, err
	}

	destPath := job.Destination.Filename
	if info, statErr := os.Stat(destPath); statErr == nil && info.IsDir() {
		destPath = filepath.Join(destPath, filepath.Base(header.Filename))
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, errors.Wrapf(err, "GET %s: create destination %s", job.Source.Filename, destPath)
	}
	defer func() { _ = f.Close() }()

	if _, err := session.CopyPayload(f, stream, header.Size, connStats.AddRecv); err != nil {
		return 0, serverAbortOr(stream, errors.Wrapf(err, "GET %s: payload copy", job.Source.Filename))
	}

	if _, err := session.ReadFileTrailer(stream); err != nil {
		return 0, err
	}

	if err := f.Sync(); err != nil {
		return 0, errors.Wrap(err, "GET: flush destination")
	}

	// GET has no final Response on success (spec.md §9 asymmetry,
	// preserved as specified).
	return header.Size, nil
}

// statusError renders a failure Response as an error, preferring its
// diagnostic message when present.
func statusError(op, filename string, r session.Response) error {
	if r.Message != nil && *r.Message != "" {
		return errors.Errorf("%s %s failed: %s (%s)", op, filename, r.Status, *r.Message)
	}
	return errors.Errorf("%s %s failed: %s", op, filename, r.Status)
}

// serverAbortOr distinguishes a server-initiated abort mid-transfer
// from an ordinary I/O error: on any payload failure, the client tries
// one more Response read to surface the server's diagnostic message,
// if one arrives, before giving up (spec.md §4.2 "Server-initiated
// abort mid-transfer").
func serverAbortOr(stream session.Stream, fallback error) error {
	if resp, err := session.ReadResponse(stream); err == nil && resp.Message != nil {
		return errors.Errorf("connection closed unexpectedly: %s", *resp.Message)
	}
	return errors.Wrap(fallback, "connection closed unexpectedly")
}
