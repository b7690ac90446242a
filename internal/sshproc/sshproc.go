// Package sshproc spawns and reaps the ssh subprocess that carries
// the control channel (spec.md §1 "The SSH transport"). Adapted from
// backend/sftp/ssh_external.go's sshSessionExternal: exec.CommandContext
// plus a cancellation func driving Close, and a bounded WaitDelay so a
// wedged ssh doesn't hang shutdown forever. Where ssh_external.go
// spawns a generic external SSH session for SFTP, this package spawns
// exactly one remote command: the qcp server in --server mode.
package sshproc

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

// Process is one spawned ssh subprocess whose stdio carries the
// control channel.
type Process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
}

// Options configures how ssh is invoked.
type Options struct {
	// Path is the ssh client binary; defaults to "ssh".
	Path string
	// ExtraArgs are inserted before the hostname (user-supplied -o
	// options, -4/-6, etc, per spec.md §4.5 "Control channel").
	ExtraArgs []string
	Host      string
	// RemoteArgs are the remote command and its arguments, e.g.
	// ["qcp", "--server", "-b", "..."] (spec.md §6).
	RemoteArgs []string
	// StderrMirror receives a copy of the remote process's stderr
	// (relayed to the client's console per spec.md §6 "CLI surface").
	StderrMirror io.Writer
}

// WaitDelay is set as exec.Cmd.WaitDelay: it bounds how long Wait
// keeps waiting, once ssh has exited or the context has been
// cancelled, for ssh to exit and its stdio pipes to close. Close does
// not wait; it cancels the context, which kills ssh at once.
const WaitDelay = 5 * time.Second

// Launch starts ssh <ExtraArgs...> <Host> <RemoteArgs...>, wiring its
// stdin/stdout to the control channel and mirroring its stderr.
func Launch(ctx context.Context, opts Options) (*Process, error) {
	path := opts.Path
	if path == "" {
		path = "ssh"
	}

	runCtx, cancel := context.WithCancel(ctx)

	args := append([]string(nil), opts.ExtraArgs...)
	args = append(args, opts.Host)
	args = append(args, opts.RemoteArgs...)

	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.WaitDelay = WaitDelay
	if opts.StderrMirror != nil {
		cmd.Stderr = opts.StderrMirror
	} else {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "sshproc: stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "sshproc: stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "sshproc: start")
	}

	return &Process{
		cmd:    cmd,
		cancel: cancel,
		Stdin:  stdin,
		Stdout: stdout,
	}, nil
}

// CloseStdin closes the client's write side of the control channel,
// signalling the remote server to exit (spec.md §2 step 5).
func (p *Process) CloseStdin() error {
	return errors.Wrap(p.Stdin.Close(), "sshproc: close stdin")
}

// Wait blocks until ssh exits, returning its exit error if non-zero.
func (p *Process) Wait() error {
	return errors.Wrap(p.cmd.Wait(), "sshproc: ssh exited with error")
}

// Close kills the subprocess and releases its resources. Safe to call
// after Wait. Dropping the orchestrator calls this (spec.md §4.5
// "Cancellation": "dropping the orchestrator kills the SSH subprocess").
func (p *Process) Close() {
	p.cancel()
}
