package supervise

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/programme-lv/ircrun/internal/logcapture"
)

// Role identifies which child a ProcessHandle supervises.
type Role string

const (
	RoleServer Role = "server"
	RoleTester Role = "tester"
)

// Termination is the terminal outcome of a supervised child. ExitCode is
// nil when the child was killed by a signal.
type Termination struct {
	ExitCode         *int64
	KilledOnTimeout  bool
	KilledOnShutdown bool
}

// ProcessHandle wraps one running child process. Handles are owned
// exclusively by the supervisor and never shared.
type ProcessHandle struct {
	Role        Role
	PID         int
	StartedAt   time.Time
	Termination Termination

	cmd     *exec.Cmd
	capture *logcapture.Capture
	done    chan struct{}
	waitErr error
}

// startProcess attaches the log capture, starts the command in its own
// process group (so signals reach valgrind's children too), and spawns the
// collector goroutine that drains output and reaps the process.
func startProcess(role Role, cmd *exec.Cmd, capture *logcapture.Capture) (*ProcessHandle, error) {
	if err := capture.Attach(cmd); err != nil {
		// no drains running yet, Join just flushes and closes the log file
		_ = capture.Join()
		return nil, err
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		// a failed Start closes the pipes, so the drains unblock
		_ = capture.Join()
		return nil, fmt.Errorf("failed to start %s: %w", role, err)
	}

	h := &ProcessHandle{
		Role:      role,
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
		cmd:       cmd,
		capture:   capture,
		done:      make(chan struct{}),
	}
	go h.collect()
	return h, nil
}

// collect drains both output streams to EOF, then reaps the process and
// records its exit code. Drain-before-wait ordering guarantees the log file
// holds everything the child wrote before it exited.
func (h *ProcessHandle) collect() {
	defer close(h.done)

	capErr := h.capture.Join()

	err := h.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.waitErr = err
			return
		}
	}
	if capErr != nil {
		h.waitErr = capErr
	}
	if code := h.cmd.ProcessState.ExitCode(); code >= 0 {
		c := int64(code)
		h.Termination.ExitCode = &c
	}
}

// WaitDone blocks until the child has terminated and its logs are drained,
// or the timeout elapses. Reports whether the child finished in time.
func (h *ProcessHandle) WaitDone(timeout time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Done reports whether the child has already terminated.
func (h *ProcessHandle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// KillOnTimeout forcibly terminates the child's process group and records
// the timeout on the handle. Blocks until logs are drained.
func (h *ProcessHandle) KillOnTimeout() {
	h.Termination.KilledOnTimeout = true
	h.signal(syscall.SIGKILL)
	<-h.done
}

// Shutdown gives the child a graceful termination opportunity: SIGINT to
// the process group, a bounded grace period, then SIGKILL. Blocks until
// logs are drained.
func (h *ProcessHandle) Shutdown(grace time.Duration) {
	if h.Done() {
		return
	}
	h.signal(syscall.SIGINT)
	if h.WaitDone(grace) {
		return
	}
	h.Termination.KilledOnShutdown = true
	h.signal(syscall.SIGKILL)
	<-h.done
}

func (h *ProcessHandle) signal(sig syscall.Signal) {
	// negative pid targets the whole group
	_ = syscall.Kill(-h.PID, sig)
}

// Err returns any non-exit error observed while supervising the child
// (failed reap, log IO failure).
func (h *ProcessHandle) Err() error {
	return h.waitErr
}

// LogPath returns the child's log file location.
func (h *ProcessHandle) LogPath() string {
	if h.capture == nil {
		return ""
	}
	return h.capture.Path()
}
