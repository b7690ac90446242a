//go:build !linux && !windows

package transport

import "golang.org/x/sys/unix"

// applyBuffer sets the socket buffer option best-effort: non-Linux
// Unixes neither double the value on read-back nor offer a privileged
// FORCE setter (spec.md §9 "OS buffer-sizing quirks").
func applyBuffer(fd uintptr, opt, target int) BufferResult {
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, target)
	got, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, opt)
	if err != nil {
		got = 0
	}
	return BufferResult{Target: target, Achieved: got}
}
