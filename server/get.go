package server

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/qcp-go/qcp/internal/protocol/session"
	"github.com/qcp-go/qcp/internal/stats"
)

// serveGet implements the Server GET policy (spec.md §4.2 "Server GET
// policy"). Grounded on original_source/src/server.rs::handle_get and
// util/io.rs::open_file's OS-error-to-Status mapping.
func serveGet(stream session.Stream, filename string, connStats *stats.ConnectionStats, log *logrus.Logger) error {
	f, status, msg, err := openForGet(filename)
	if err != nil {
		return session.WriteResponse(stream, session.ErrResponse(status, msg))
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return session.WriteResponse(stream, session.ErrResponse(session.StatusIoError, err.Error()))
	}
	if info.IsDir() {
		return session.WriteResponse(stream, session.ErrResponse(session.StatusItIsADirectory, ""))
	}

	if err := session.WriteResponse(stream, session.OkResponse()); err != nil {
		return err
	}

	size := uint64(info.Size())
	header := session.FileHeader{Size: size, Filename: filepath.Base(filename)}
	if err := session.WriteFileHeader(stream, header); err != nil {
		return err
	}

	log.Debugf("GET %s: sending %d bytes", filename, size)
	if _, err := session.CopyPayload(stream, f, size, connStats.AddSent); err != nil {
		// A file that shrank fails here: CopyPayload hits EOF early.
		return errors.Wrapf(err, "GET %s: payload copy", filename)
	}
	if now, err := f.Stat(); err == nil && uint64(now.Size()) != size {
		// The file's length changed during transfer: refuse to lie
		// about size having been honoured (spec.md §4.2 "the server
		// must refuse to proceed if the file's length changes").
		return errors.Errorf("GET %s: file length changed during transfer (now %d, declared %d)", filename, now.Size(), size)
	}

	if err := session.WriteFileTrailer(stream); err != nil {
		return err
	}
	// GET sends no final Response; this asymmetry with PUT is
	// preserved as specified (spec.md §9).
	return stream.CloseWrite()
}

func openForGet(filename string) (*os.File, session.Status, string, error) {
	f, err := os.Open(filename)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, session.StatusFileNotFound, err.Error(), err
		case os.IsPermission(err):
			return nil, session.StatusIncorrectPermissions, err.Error(), err
		default:
			return nil, session.StatusIoError, err.Error(), err
		}
	}
	return f, session.StatusOk, "", nil
}
