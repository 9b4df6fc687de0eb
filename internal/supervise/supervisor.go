package supervise

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/programme-lv/ircrun/internal/logcapture"
	"github.com/programme-lv/ircrun/internal/report"
	"github.com/programme-lv/ircrun/internal/valgrind"
	"github.com/programme-lv/ircrun/pkg/runphase"
)

const (
	readinessTimeout = 10 * time.Second
	readinessBackoff = 50 * time.Millisecond
	dialTimeout      = 500 * time.Millisecond
	shutdownGrace    = 2 * time.Second
)

// Outcome is the RunResult precursor: exit information, timestamps and
// termination reasons for both children. The verdict reducer turns it into
// the final RunResult.
type Outcome struct {
	Server *ProcessHandle
	Tester *ProcessHandle

	ServerNotReady bool
	TesterTimedOut bool
	// InternalFailure describes a supervision failure that is neither a
	// readiness nor a tester-timeout problem (e.g. the tester would not
	// start). Empty on the happy path.
	InternalFailure string

	ReadyAfter time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// Supervisor runs one full test cycle: server up, readiness, tester,
// tester deadline, graceful server shutdown, log drain.
type Supervisor struct {
	log      *slog.Logger
	reporter report.Reporter
	analyzer *valgrind.Analyzer
}

func New(log *slog.Logger, reporter report.Reporter, analyzer *valgrind.Analyzer) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	if reporter == nil {
		reporter = report.Nop{}
	}
	return &Supervisor{log: log, reporter: reporter, analyzer: analyzer}
}

// Run drives the state machine Idle → ServerStarting → ServerReady →
// TesterRunning → {TesterCompleted|TesterTimedOut} → ShuttingDown →
// Finalized. Failures short-circuit to ShuttingDown with a recorded
// reason; Finalized is always reached. A non-nil error means diagnostic
// capture itself failed and the run is invalid.
func (s *Supervisor) Run(ctx context.Context, rc *RunContext) (*Outcome, error) {
	out := &Outcome{StartedAt: time.Now()}
	defer func() {
		rc.Phase = runphase.Finalized
		out.FinishedAt = time.Now()
	}()

	rc.Phase = runphase.ServerStarting
	serverCap, err := logcapture.New(rc.Dir, string(RoleServer))
	if err != nil {
		// losing diagnostic capture invalidates the run
		return nil, err
	}
	server, err := s.launchServer(rc, serverCap)
	if err != nil {
		s.log.Error("server failed to launch", "error", err)
		out.ServerNotReady = true
		out.InternalFailure = err.Error()
		return out, nil
	}
	rc.Server = server
	out.Server = server
	s.log.Info("server started", "pid", server.PID, "port", rc.Cfg.Port)

	limit := readinessTimeout
	if rc.Cfg.Timeout < limit {
		limit = rc.Cfg.Timeout
	}
	waited, ready := s.waitForListen(ctx, server, rc.Cfg.Port, limit)
	out.ReadyAfter = waited
	if !ready {
		s.log.Error("server did not start listening in time", "waited", waited)
		out.ServerNotReady = true
		rc.Phase = runphase.ShuttingDown
		server.KillOnTimeout()
		return out, nil
	}
	rc.Phase = runphase.ServerReady
	s.reporter.ServerReady(waited)
	s.log.Info("server ready", "waited", waited)

	testerCap, err := logcapture.New(rc.Dir, string(RoleTester))
	if err != nil {
		rc.Phase = runphase.ShuttingDown
		server.Shutdown(shutdownGrace)
		return nil, err
	}
	tester, cmdline, err := s.launchTester(rc, testerCap)
	if err != nil {
		s.log.Error("tester failed to launch", "error", err)
		out.InternalFailure = err.Error()
		rc.Phase = runphase.ShuttingDown
		server.Shutdown(shutdownGrace)
		return out, nil
	}
	rc.Tester = tester
	out.Tester = tester
	rc.Phase = runphase.TesterRunning
	s.reporter.StartTester(cmdline)
	s.log.Info("tester started", "pid", tester.PID)

	if tester.WaitDone(rc.Cfg.Timeout) {
		rc.Phase = runphase.TesterCompleted
	} else {
		s.log.Warn("tester exceeded its deadline", "timeout", rc.Cfg.Timeout)
		tester.KillOnTimeout()
		out.TesterTimedOut = true
		rc.Phase = runphase.TesterTimedOut
	}
	s.reporter.FinishTester(tester.Termination.ExitCode, out.TesterTimedOut)

	rc.Phase = runphase.ShuttingDown
	server.Shutdown(shutdownGrace)
	s.log.Info("server shut down",
		"exit_code", server.Termination.ExitCode,
		"force_killed", server.Termination.KilledOnShutdown)

	// both collectors have finished here, so logs are fully drained
	if err := server.Err(); err != nil {
		return nil, fmt.Errorf("server log capture failed: %w", err)
	}
	if err := tester.Err(); err != nil {
		return nil, fmt.Errorf("tester log capture failed: %w", err)
	}
	return out, nil
}

func (s *Supervisor) launchServer(rc *RunContext, capture *logcapture.Capture) (*ProcessHandle, error) {
	argv := append([]string{rc.Cfg.ServerPath, strconv.Itoa(rc.Cfg.Port), rc.Cfg.Password}, rc.Cfg.ExtraArgs...)
	argv = s.analyzer.WrapCommand(argv)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(),
		"FT_IRC_PORT="+strconv.Itoa(rc.Cfg.Port),
		"FT_IRC_PASS="+rc.Cfg.Password,
	)
	s.log.Debug("starting server", "cmd", strings.Join(argv, " "))
	return startProcess(RoleServer, cmd, capture)
}

func (s *Supervisor) launchTester(rc *RunContext, capture *logcapture.Capture) (*ProcessHandle, string, error) {
	args := []string{
		rc.Cfg.TesterPath,
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(rc.Cfg.Port),
		"--password", rc.Cfg.Password,
	}
	if rc.Cfg.Verbose {
		args = append(args, "--verbose")
	}
	if len(rc.Cfg.Only) > 0 {
		args = append(args, "--only")
		args = append(args, rc.Cfg.Only...)
	}

	cmd := exec.Command("python3", args...)
	cmdline := strings.Join(append([]string{"python3"}, args...), " ")
	s.log.Debug("starting tester", "cmd", cmdline)
	h, err := startProcess(RoleTester, cmd, capture)
	return h, cmdline, err
}

// waitForListen polls until the server accepts a connection on its port,
// up to the readiness sub-timeout (capped by the run timeout). Returns
// early if the server exits first.
func (s *Supervisor) waitForListen(ctx context.Context, server *ProcessHandle, port int, limit time.Duration) (time.Duration, bool) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	start := time.Now()
	deadline := start.Add(limit)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil || server.Done() {
			return time.Since(start), false
		}
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			conn.Close()
			return time.Since(start), true
		}
		time.Sleep(readinessBackoff)
	}
	return time.Since(start), false
}
