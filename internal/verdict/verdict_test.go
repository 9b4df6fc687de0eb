package verdict_test

import (
	"testing"
	"time"

	"github.com/programme-lv/ircrun/api"
	"github.com/programme-lv/ircrun/internal/supervise"
	"github.com/programme-lv/ircrun/internal/verdict"
	"github.com/stretchr/testify/require"
)

func handleWithExit(role supervise.Role, code int64) *supervise.ProcessHandle {
	return &supervise.ProcessHandle{
		Role:        role,
		Termination: supervise.Termination{ExitCode: &code},
	}
}

func outcome(tester *supervise.ProcessHandle) *supervise.Outcome {
	start := time.Now().Add(-3 * time.Second)
	return &supervise.Outcome{
		Server:     handleWithExit(supervise.RoleServer, 0),
		Tester:     tester,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}
}

func TestTesterExitZeroPasses(t *testing.T) {
	res := verdict.Reduce("run-1", outcome(handleWithExit(supervise.RoleTester, 0)), nil)

	require.True(t, res.Passed)
	require.Nil(t, res.FailureReason)
	require.InDelta(t, 3.0, res.DurationSeconds, 0.01)
}

func TestTesterExitOneFails(t *testing.T) {
	res := verdict.Reduce("run-1", outcome(handleWithExit(supervise.RoleTester, 1)), nil)

	require.False(t, res.Passed)
	require.NotNil(t, res.FailureReason)
	require.Equal(t, "tester exit code 1", *res.FailureReason)
}

func TestTimeoutOutranksExitCode(t *testing.T) {
	out := outcome(handleWithExit(supervise.RoleTester, 1))
	out.TesterTimedOut = true
	out.Tester.Termination.KilledOnTimeout = true

	res := verdict.Reduce("run-1", out, nil)

	require.False(t, res.Passed)
	require.Equal(t, "tester timeout", *res.FailureReason)
}

func TestLeaksFailDespiteTesterSuccess(t *testing.T) {
	leak := &api.LeakReport{ErrorCount: 2, DefinitelyLost: 48}
	res := verdict.Reduce("run-1", outcome(handleWithExit(supervise.RoleTester, 0)), leak)

	require.False(t, res.Passed)
	require.Equal(t, "memory leak detected", *res.FailureReason)
	require.Same(t, leak, res.LeakReport)
}

func TestCleanLeakReportStillPasses(t *testing.T) {
	leak := &api.LeakReport{StillReachable: 24}
	res := verdict.Reduce("run-1", outcome(handleWithExit(supervise.RoleTester, 0)), leak)

	require.True(t, res.Passed)
}

func TestServerNotReady(t *testing.T) {
	out := &supervise.Outcome{
		Server:         &supervise.ProcessHandle{Role: supervise.RoleServer},
		ServerNotReady: true,
		StartedAt:      time.Now(),
		FinishedAt:     time.Now(),
	}
	res := verdict.Reduce("run-1", out, nil)

	require.False(t, res.Passed)
	require.Equal(t, "server failed to become ready", *res.FailureReason)
	require.Nil(t, res.TesterExitCode)
}
