// Package verdict reduces a supervision outcome and an optional leak
// report into the final RunResult.
package verdict

import (
	"fmt"
	"time"

	"github.com/programme-lv/ircrun/api"
	"github.com/programme-lv/ircrun/internal/supervise"
)

// Reduce is a pure function; it inspects the outcome and never touches the
// filesystem or the processes. The run passes iff the tester exited zero
// within its deadline and, when memory analysis was requested, the report
// shows zero errors and zero leaked bytes.
func Reduce(runID string, out *supervise.Outcome, leak *api.LeakReport) api.RunResult {
	res := api.RunResult{
		RunID:           runID,
		LeakReport:      leak,
		StartTime:       out.StartedAt.Format(time.RFC3339),
		FinishTime:      out.FinishedAt.Format(time.RFC3339),
		DurationSeconds: out.FinishedAt.Sub(out.StartedAt).Seconds(),
	}
	if out.Server != nil {
		res.ServerLogPath = out.Server.LogPath()
		res.ServerExitCode = out.Server.Termination.ExitCode
	}
	if out.Tester != nil {
		res.TesterLogPath = out.Tester.LogPath()
		res.TesterExitCode = out.Tester.Termination.ExitCode
	}

	testerOK := out.Tester != nil &&
		!out.TesterTimedOut &&
		res.TesterExitCode != nil && *res.TesterExitCode == 0
	leaksOK := leak == nil || (leak.ErrorCount == 0 && leak.LeakedBytes() == 0)

	res.Passed = testerOK && leaksOK && !out.ServerNotReady
	if res.Passed {
		return res
	}

	// first applicable cause wins
	var reason string
	switch {
	case out.TesterTimedOut:
		reason = "tester timeout"
	case res.TesterExitCode != nil && *res.TesterExitCode != 0:
		reason = fmt.Sprintf("tester exit code %d", *res.TesterExitCode)
	case !leaksOK:
		reason = "memory leak detected"
	case out.ServerNotReady:
		reason = "server failed to become ready"
	case out.InternalFailure != "":
		reason = out.InternalFailure
	default:
		reason = "tester did not produce an exit code"
	}
	res.FailureReason = &reason
	return res
}
