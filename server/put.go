package server

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/qcp-go/qcp/internal/protocol/session"
	"github.com/qcp-go/qcp/internal/stats"
)

// servePut implements the Server PUT policy (spec.md §4.2 "Server PUT
// policy"). Grounded on original_source/src/server.rs::handle_put.
func servePut(stream session.Stream, destination string, connStats *stats.ConnectionStats, log *logrus.Logger) error {
	resolved, appendFilename, status, msg, err := resolvePutDestination(destination)
	if err != nil {
		return session.WriteResponse(stream, session.ErrResponse(status, msg))
	}

	if err := session.WriteResponse(stream, session.OkResponse()); err != nil {
		return err
	}

	header, err := session.ReadFileHeader(stream)
	if err != nil {
		return err
	}

	path := resolved
	if appendFilename {
		// Only the leaf component is ever used, regardless of what
		// the wire filename contains, so a header.Filename of ".."
		// or an absolute path can't escape the destination directory
		// (spec.md §4.2 "Filename normalisation", §8 property 4).
		path = filepath.Join(resolved, filepath.Base(header.Filename))
	}
	log.Debugf("PUT %s -> %s", header.Filename, path)

	f, err := os.Create(path)
	if err != nil {
		log.Debugf("could not create destination %s: %v", path, err)
		return session.WriteResponse(stream, session.ErrResponse(session.StatusIoError, err.Error()))
	}
	defer func() { _ = f.Close() }()

	if err := f.Truncate(int64(header.Size)); err != nil {
		log.Debugf("could not set destination file length: %v", err)
		return session.WriteResponse(stream, session.ErrResponse(session.StatusIoError, err.Error()))
	}

	if _, err := session.CopyPayload(f, stream, header.Size, connStats.AddRecv); err != nil {
		return errors.Wrapf(err, "PUT %s: payload copy", path)
	}

	if _, err := session.ReadFileTrailer(stream); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "PUT: flush destination")
	}

	return session.WriteResponse(stream, session.OkResponse())
}

// resolvePutDestination classifies destination per spec.md §4.2's
// table: empty -> cwd; directory -> append the wire filename later;
// existing file -> overwrite in place; nonexistent file in a writable
// parent -> create; anything else is an error.
func resolvePutDestination(destination string) (resolved string, appendFilename bool, status session.Status, msg string, err error) {
	path := destination
	if path == "" {
		path = "."
	}

	info, statErr := os.Stat(path)
	if statErr == nil {
		if !writable(path, info) {
			return "", false, session.StatusIncorrectPermissions, "cannot write to destination", errors.New("not writable")
		}
		return path, info.IsDir(), session.StatusOk, "", nil
	}

	parent := filepath.Dir(path)
	if parent == "" {
		parent = "."
	}
	parentInfo, parentErr := os.Stat(parent)
	if parentErr != nil || !parentInfo.IsDir() {
		return "", false, session.StatusDirectoryDoesNotExist, "", errors.New("parent directory does not exist")
	}
	if !writable(parent, parentInfo) {
		return "", false, session.StatusIncorrectPermissions, "cannot write to destination", errors.New("not writable")
	}
	return path, false, session.StatusOk, "", nil
}

// writable is a best-effort writability probe. os.Stat alone can't
// tell us this on most filesystems, so for a directory it creates and
// removes a throwaway temp file inside it, and for an existing file it
// opens the file write-only and closes it again.
func writable(path string, info os.FileInfo) bool {
	if info.IsDir() {
		probe, err := os.CreateTemp(path, ".qcp-write-check-*")
		if err != nil {
			return false
		}
		name := probe.Name()
		_ = probe.Close()
		_ = os.Remove(name)
		return true
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
