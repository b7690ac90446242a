//go:build !windows

package transport

import "syscall"

// BufferSend and BufferRecv identify which socket option ApplyBuffer
// should tune.
const (
	BufferSend = syscall.SO_SNDBUF
	BufferRecv = syscall.SO_RCVBUF
)

// BufferResult reports what buffer size was actually achieved against
// a requested target, so callers can surface a warning without
// treating the shortfall as fatal (spec.md §4.3 "OS socket buffer
// application policy").
type BufferResult struct {
	Target   int
	Achieved int
	Forced   bool
}

// ShortOf reports whether the achieved size fell short of the target.
func (r BufferResult) ShortOf() bool { return r.Achieved < r.Target }

// ApplyBuffer sets the given socket buffer option on fd to target,
// returning what was actually achieved. Platform-specific escalation
// (Linux's *FORCE setters and getsockopt doubling) lives in
// socket_linux.go/socket_other.go.
func ApplyBuffer(fd uintptr, opt, target int) BufferResult {
	return applyBuffer(fd, opt, target)
}
