//go:build linux

package transport

import "golang.org/x/sys/unix"

// applyBuffer sets the SO_SNDBUF/SO_RCVBUF socket option to target,
// escalating to the privileged *FORCE variant if the kernel silently
// capped the value below target (spec.md §4.3, §9 "OS buffer-sizing
// quirks"). Linux's getsockopt reports double what was set by
// setsockopt, so the read-back is halved before comparing.
func applyBuffer(fd uintptr, opt, target int) BufferResult {
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, target)
	got := readBack(fd, opt)

	if got < target {
		forceOpt := forceVariant(opt)
		if forceOpt != 0 {
			if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, forceOpt, target); err == nil {
				got = readBack(fd, opt)
				return BufferResult{Target: target, Achieved: got, Forced: true}
			}
		}
	}
	return BufferResult{Target: target, Achieved: got}
}

func readBack(fd uintptr, opt int) int {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, opt)
	if err != nil {
		return 0
	}
	return v / 2
}

func forceVariant(opt int) int {
	switch opt {
	case unix.SO_SNDBUF:
		return unix.SO_SNDBUFFORCE
	case unix.SO_RCVBUF:
		return unix.SO_RCVBUFFORCE
	default:
		return 0
	}
}
