package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/qcp-go/qcp/internal/addrfamily"
	"github.com/qcp-go/qcp/internal/cert"
	"github.com/qcp-go/qcp/internal/config"
	"github.com/qcp-go/qcp/internal/endpoint"
	"github.com/qcp-go/qcp/internal/protocol/control"
	"github.com/qcp-go/qcp/internal/sshproc"
	"github.com/qcp-go/qcp/internal/stats"
)

// CloseIdleTimeout bounds how long Run waits for the QUIC connection
// to report idle once closed (spec.md §4.5 step 5).
const CloseIdleTimeout = 5 * time.Second

// JobResult is the per-file outcome of a dispatched GET/PUT.
type JobResult struct {
	Job   Job
	Bytes uint64
	Err   error
}

// Result aggregates one invocation's outcome (spec.md §4.5 step 6).
type Result struct {
	Jobs      []JobResult
	Local     *stats.ConnectionStats
	Remote    control.ClosedownReport
	AllOk     bool
}

// Run executes the full client lifecycle for jobs, which must all
// share the same remote host (spec.md §2 data flow, §4.5). Returns a
// non-nil error only for setup/handshake/transport failures; a job
// failing its own GET/PUT is recorded in Result.Jobs and does not stop
// the others (spec.md §4.5 "Partial failure", §8 property 7).
func Run(ctx context.Context, cfg config.Configuration, jobs []Job, log *logrus.Logger) (*Result, error) {
	if len(jobs) == 0 {
		return nil, errors.New("client: no jobs to run")
	}
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return nil, err
		}
	}
	host := jobs[0].RemoteHost()
	for _, j := range jobs[1:] {
		if j.RemoteHost() != host {
			return nil, errors.New("client: all jobs in one invocation must share the same remote host")
		}
	}

	credential, err := cert.Generate()
	if err != nil {
		return nil, err
	}

	remoteIP, err := addrfamily.LookupHost(ctx, host, cfg.AddressFamily)
	if err != nil {
		return nil, err
	}
	ipv6 := remoteIP.To4() == nil

	proc, err := launchSSH(ctx, cfg, host)
	if err != nil {
		return nil, err
	}
	defer proc.Close()

	bannerCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	err = control.ReadBanner(bannerCtx, proc.Stdout)
	cancel()
	if err != nil {
		return nil, err
	}

	connType := control.ConnectionIPv4
	if ipv6 {
		connType = control.ConnectionIPv6
	}
	if err := control.WriteClientMessage(proc.Stdin, control.ClientMessage{
		Cert:           credential.Certificate,
		ConnectionType: connType,
	}); err != nil {
		return nil, err
	}

	serverMsg, err := control.ReadServerMessage(proc.Stdout)
	if err != nil {
		return nil, err
	}
	if serverMsg.Warning != nil {
		log.Warnf("remote endpoint warning: %s", *serverMsg.Warning)
	}
	log.Debugf("remote endpoint network config: %s", serverMsg.BandwidthInfo)

	tlsConf, err := endpoint.ClientTLSConfig(credential, serverMsg.Cert, serverMsg.Name)
	if err != nil {
		return nil, err
	}

	mode := jobs[0].Mode()
	opts := cfg.TransportOptions(mode)
	log.WithFields(logrus.Fields{
		"send_window_bytes": opts.SendWindow(),
		"recv_window_bytes": opts.RecvWindow(),
		"send_buffer_bytes": opts.SendBuffer(),
		"recv_buffer_bytes": opts.RecvBuffer(),
	}).Debug("network configuration")

	conn, udpConn, bufWarning, err := endpoint.Dial(ctx, remoteIP, serverMsg.Port, tlsConf, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = udpConn.Close() }()
	if bufWarning != nil {
		log.Warnf("local endpoint warning: %s", *bufWarning)
	}

	connStats := &stats.ConnectionStats{}
	results := make([]JobResult, len(jobs))
	allOk := true
	for i, job := range jobs {
		// Tag each job's log lines with a short correlation id, the way
		// rclone's Debugf calls tag a line with the remote object name.
		jobLog := log.WithField("job", uuid.NewString()[:8])

		stream, err := conn.OpenStreamSync(ctx)
		if err != nil {
			results[i] = JobResult{Job: job, Err: errors.Wrap(err, "client: open stream")}
			allOk = false
			continue
		}
		wrapped := endpoint.Stream{Stream: stream}
		var n uint64
		if job.IsGet() {
			n, err = doGet(wrapped, job, connStats)
		} else {
			n, err = doPut(wrapped, job, connStats)
		}
		results[i] = JobResult{Job: job, Bytes: n, Err: err}
		if err != nil {
			allOk = false
			jobLog.Errorf("%s: %v", describeJob(job), err)
		} else {
			jobLog.Debugf("%s: %d bytes", describeJob(job), n)
		}
	}

	closeCtx, closeCancel := context.WithTimeout(ctx, CloseIdleTimeout)
	_ = conn.CloseWithError(1, "finished")
	select {
	case <-conn.Context().Done():
	case <-closeCtx.Done():
		log.Warn("QUIC shutdown timed out")
	}
	closeCancel()

	if err := proc.CloseStdin(); err != nil {
		log.Debugf("closing control channel stdin: %v", err)
	}

	report, err := control.ReadClosedownReport(proc.Stdout)
	if err != nil {
		log.Debugf("no closedown report from server: %v", err)
	}

	if err := proc.Wait(); err != nil {
		log.Debugf("ssh exited: %v", err)
	}

	return &Result{Jobs: results, Local: connStats, Remote: report, AllOk: allOk}, nil
}

func launchSSH(ctx context.Context, cfg config.Configuration, host string) (*sshproc.Process, error) {
	family := "-4"
	if cfg.AddressFamily == addrfamily.Inet6 {
		family = "-6"
	}
	args := append([]string{family}, cfg.SSHOptions...)

	remoteCmd := cfg.RemoteCommand
	if remoteCmd == "" {
		remoteCmd = "qcp"
	}
	remoteArgs := []string{
		remoteCmd, "--server",
		"-b", fmt.Sprintf("%d", cfg.Rx),
		"-B", fmt.Sprintf("%d", cfg.Tx),
		"--rtt", fmt.Sprintf("%d", cfg.RTT.Milliseconds()),
		"--congestion", cfg.Congestion.String(),
		"--timeout", fmt.Sprintf("%d", int(cfg.Timeout.Seconds())),
	}
	if cfg.InitialCongestionWindow > 0 {
		remoteArgs = append(remoteArgs, "--initial-congestion-window", fmt.Sprintf("%d", cfg.InitialCongestionWindow))
	}
	if !cfg.RemotePort.IsDefault() {
		remoteArgs = append(remoteArgs, "--port", cfg.RemotePort.String())
	}
	if cfg.Debug {
		remoteArgs = append(remoteArgs, "--debug")
	}

	return sshproc.Launch(ctx, sshproc.Options{
		Path:       cfg.SSHClientPath,
		ExtraArgs:  args,
		Host:       host,
		RemoteArgs: remoteArgs,
	})
}

func describeJob(j Job) string {
	if j.IsGet() {
		return fmt.Sprintf("GET %s", j.Source.Filename)
	}
	return fmt.Sprintf("PUT %s", j.Destination.Filename)
}
