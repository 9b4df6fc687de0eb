package termrep

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/ircrun/api"
)

// TerminalReporter prints run progress to stdout.
type TerminalReporter struct {
	StartedAt time.Time
}

func New() *TerminalReporter { return &TerminalReporter{StartedAt: time.Now()} }

func (t *TerminalReporter) StartRun(serverPath, tester string, port int, valgrind bool) {
	fmt.Println("== Run started ==")
	fmt.Printf("server=%s tester=%s port=%d valgrind=%v\n", serverPath, tester, port, valgrind)
}

func (t *TerminalReporter) ServerReady(waited time.Duration) {
	fmt.Printf("-- Server ready after %s --\n", waited.Round(time.Millisecond))
}

func (t *TerminalReporter) StartTester(command string) {
	fmt.Printf("-- Tester started: %s --\n", command)
}

func (t *TerminalReporter) FinishTester(exitCode *int64, timedOut bool) {
	if timedOut {
		fmt.Println("-- Tester timed out --")
		return
	}
	if exitCode != nil {
		fmt.Printf("-- Tester finished: exit=%d --\n", *exitCode)
	}
}

func (t *TerminalReporter) FinishRun(result api.RunResult) {
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	if result.Passed {
		color.Green("== PASS (%s) ==", dur)
	} else {
		reason := ""
		if result.FailureReason != nil {
			reason = *result.FailureReason
		}
		color.Red("== FAIL: %s (%s) ==", reason, dur)
	}
	fmt.Printf("server log: %s\n", result.ServerLogPath)
	fmt.Printf("tester log: %s\n", result.TesterLogPath)
	if lr := result.LeakReport; lr != nil {
		fmt.Printf("valgrind: errors=%d definitely=%dB indirectly=%dB possibly=%dB reachable=%dB fds=%d\n",
			lr.ErrorCount, lr.DefinitelyLost, lr.IndirectlyLost, lr.PossiblyLost, lr.StillReachable, lr.OpenFDs)
	}
}
