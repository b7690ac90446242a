// Command qcp is the CLI entry point: in --server mode it runs the
// server orchestrator against stdin/stdout (spec.md §4.6); otherwise
// it parses a SOURCE/DEST pair and runs the client orchestrator
// (spec.md §4.5). Grounded on _examples/restic-restic/cmd/restic's
// cobra root-command style and _examples/original_source/qcp/src
// (client/args.rs, server/args.rs) for the flag contract (spec.md §6).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qcp-go/qcp/client"
	"github.com/qcp-go/qcp/internal/addrfamily"
	"github.com/qcp-go/qcp/internal/config"
	"github.com/qcp-go/qcp/internal/portrange"
	"github.com/qcp-go/qcp/internal/transport"
	"github.com/qcp-go/qcp/server"
)

// flags collects the raw command-line values before they're resolved
// into a config.Configuration.
type flags struct {
	server bool

	rx       uint64
	tx       uint64
	rttMs    uint64
	congest  string
	timeout  uint64
	initCwnd uint64
	port     string

	debug bool
	quiet bool

	addressFamily string
	sshPath       string
	sshOptions    []string
	remoteCommand string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var f flags

	root := &cobra.Command{
		Use:   "qcp [flags] SOURCE DEST",
		Short: "Securely and quickly copy a file over the network",
		Long: `qcp copies a single file to or from a remote host.

It uses SSH to authenticate and to carry a small control channel, then
opens a QUIC connection directly between the two hosts for the file
data itself. Exactly one of SOURCE/DEST must name a remote host, as
host:path or [ipv6]:path; the other is a local path.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		Args:              cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			return dispatch(cmd.Context(), f, cmdArgs, stdin, stdout, stderr)
		},
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	fs := root.Flags()
	fs.BoolVar(&f.server, "server", false, "run in server mode (invoked over SSH; not for interactive use)")
	fs.Uint64VarP(&f.rx, "rx", "b", 12_500_000, "expected receive throughput, in bytes/sec")
	fs.Uint64VarP(&f.tx, "tx", "B", 12_500_000, "expected send throughput, in bytes/sec")
	fs.Uint64Var(&f.rttMs, "rtt", 300, "expected round-trip time to the remote host, in milliseconds")
	fs.StringVar(&f.congest, "congestion", "cubic", "congestion control algorithm: cubic or bbr")
	fs.Uint64Var(&f.timeout, "timeout", 5, "timeout, in seconds, for handshake and connection setup")
	fs.Uint64Var(&f.initCwnd, "initial-congestion-window", 0, "initial congestion window, in bytes (0: algorithm default)")
	fs.StringVar(&f.port, "port", "", "UDP port or port range to bind, e.g. 30000-30010 (default: any)")
	fs.BoolVar(&f.debug, "debug", false, "enable verbose logging on both sides")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress the client's progress/summary output")
	fs.StringVar(&f.addressFamily, "address-family", "any", "constrain remote host resolution: any, 4, or 6")
	fs.StringVar(&f.sshPath, "ssh", "ssh", "path to the ssh client binary")
	fs.StringArrayVarP(&f.sshOptions, "ssh-option", "S", nil, "extra option passed through to ssh (-o ...), repeatable")
	fs.StringVar(&f.remoteCommand, "remote-command", "qcp", "remote program name to invoke over ssh")

	// spec.md §6 "Exit codes" defines exactly two: 0 on success, 1 for
	// any operational failure. dispatch's own failures and a partial
	// copy failure both surface as a non-nil error here.
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, f flags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	log := newLogger(f.debug, stderr)

	cfg, err := resolveConfig(f)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if f.server {
		return server.Run(ctx, cfg, stdin, stdout, log)
	}

	if len(args) != 2 {
		return fmt.Errorf("expected exactly SOURCE and DEST arguments, got %d", len(args))
	}
	job := client.Job{
		Source:      client.ParseFileSpec(args[0]),
		Destination: client.ParseFileSpec(args[1]),
	}

	result, err := client.Run(ctx, cfg, []client.Job{job}, log)
	if err != nil {
		return err
	}

	if !f.quiet {
		printSummary(stdout, result)
	}
	if !result.AllOk {
		for _, jr := range result.Jobs {
			if jr.Err != nil {
				return jr.Err
			}
		}
	}
	return nil
}

func resolveConfig(f flags) (config.Configuration, error) {
	var cfg config.Configuration

	congestion, err := transport.ParseCongestionController(f.congest)
	if err != nil {
		return cfg, err
	}
	family, err := addrfamily.Parse(f.addressFamily)
	if err != nil {
		return cfg, err
	}
	var ports portrange.PortRange
	if f.port != "" {
		ports, err = portrange.Parse(f.port)
		if err != nil {
			return cfg, err
		}
	}
	if f.timeout == 0 {
		return cfg, fmt.Errorf("--timeout must be greater than zero")
	}

	cfg = config.Configuration{
		Rx:                      f.rx,
		Tx:                      f.tx,
		RTT:                     time.Duration(f.rttMs) * time.Millisecond,
		Congestion:              congestion,
		InitialCongestionWindow: f.initCwnd,
		Port:                    ports,
		RemotePort:              ports,
		Timeout:                 time.Duration(f.timeout) * time.Second,
		AddressFamily:           family,
		SSHClientPath:           f.sshPath,
		SSHOptions:              f.sshOptions,
		RemoteCommand:           f.remoteCommand,
		Debug:                   f.debug,
		Quiet:                   f.quiet,
	}
	return cfg, nil
}

// newLogger builds the process logger, honoring --debug and the
// RUST_LOG/RUST_LOG_FILE_DETAIL environment variables (spec.md §6
// "Environment"): either one requesting anything other than "off"/
// "error" raises the level to Debug.
func newLogger(debug bool, stderr io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if debug || verboseEnv("RUST_LOG") || verboseEnv("RUST_LOG_FILE_DETAIL") {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

func verboseEnv(name string) bool {
	switch os.Getenv(name) {
	case "", "off", "error":
		return false
	default:
		return true
	}
}

func printSummary(w io.Writer, result *client.Result) {
	for _, jr := range result.Jobs {
		if jr.Err != nil {
			fmt.Fprintf(w, "FAILED %s -> %s: %v\n", jr.Job.Source.Filename, jr.Job.Destination.Filename, jr.Err)
			continue
		}
		fmt.Fprintf(w, "%s -> %s: %d bytes\n", jr.Job.Source.Filename, jr.Job.Destination.Filename, jr.Bytes)
	}
	if result.Local != nil {
		fmt.Fprintf(w, "sent %d bytes, received %d bytes\n", result.Local.BytesSent(), result.Local.BytesRecv())
	}
}
