// Package report defines where run progress and the final verdict are
// delivered. Implementations exist for the terminal, NATS and SQS; the
// supervisor and harness only see the Reporter interface.
package report

import (
	"time"

	"github.com/programme-lv/ircrun/api"
)

// Reporter receives progress events of a single run, in order. FinishRun
// is always the last call, even for runs that failed early.
type Reporter interface {
	StartRun(serverPath string, tester string, port int, valgrind bool)
	ServerReady(waited time.Duration)
	StartTester(command string)
	FinishTester(exitCode *int64, timedOut bool)
	FinishRun(result api.RunResult)
}

// Nop discards all events.
type Nop struct{}

func (Nop) StartRun(string, string, int, bool) {}
func (Nop) ServerReady(time.Duration)          {}
func (Nop) StartTester(string)                 {}
func (Nop) FinishTester(*int64, bool)          {}
func (Nop) FinishRun(api.RunResult)            {}

// Multi fans events out to several reporters.
type Multi []Reporter

func (m Multi) StartRun(serverPath, tester string, port int, valgrind bool) {
	for _, r := range m {
		r.StartRun(serverPath, tester, port, valgrind)
	}
}

func (m Multi) ServerReady(waited time.Duration) {
	for _, r := range m {
		r.ServerReady(waited)
	}
}

func (m Multi) StartTester(command string) {
	for _, r := range m {
		r.StartTester(command)
	}
}

func (m Multi) FinishTester(exitCode *int64, timedOut bool) {
	for _, r := range m {
		r.FinishTester(exitCode, timedOut)
	}
}

func (m Multi) FinishRun(result api.RunResult) {
	for _, r := range m {
		r.FinishRun(result)
	}
}
