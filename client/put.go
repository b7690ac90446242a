package client

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/qcp-go/qcp/internal/protocol/session"
	"github.com/qcp-go/qcp/internal/stats"
)

// doPut runs the client side of the PUT sub-protocol for one stream
// (spec.md §4.2 "Wire order (PUT)"). Grounded on
// original_source/src/client/main_loop.rs::do_put.
func doPut(stream session.Stream, job Job, connStats *stats.ConnectionStats) (uint64, error) {
	f, err := os.Open(job.Source.Filename)
	if err != nil {
		return 0, errors.Wrapf(err, "PUT %s: open source", job.Source.Filename)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, errors.Errorf("PUT %s: source is a directory", job.Source.Filename)
	}
	size := uint64(info.Size())

	if err := session.WriteCommand(stream, session.Command{
		Kind:     session.CommandPut,
		Filename: job.Destination.Filename,
	}); err != nil {
		return 0, err
	}

	response, err := session.ReadResponse(stream)
	if err != nil {
		return 0, err
	}
	if response.Status != session.StatusOk {
		return 0, statusError("PUT", job.Source.Filename, response)
	}

	header := session.FileHeader{Size: size, Filename: filepath.Base(job.Source.Filename)}
	if err := session.WriteFileHeader(stream, header); err != nil {
		return 0, err
	}

	if _, err := session.CopyPayload(stream, f, size, connStats.AddSent); err != nil {
		return 0, serverAbortOr(stream, errors.Wrapf(err, "PUT %s: payload copy", job.Source.Filename))
	}

	if err := session.WriteFileTrailer(stream); err != nil {
		return 0, err
	}

	final, err := session.ReadResponse(stream)
	if err != nil {
		return 0, err
	}
	if final.Status != session.StatusOk {
		return 0, statusError("PUT", job.Source.Filename, final)
	}

	return size, stream.CloseWrite()
}
