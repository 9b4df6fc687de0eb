package natsrep

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/programme-lv/ircrun/api"
)

type natsReporter struct {
	nc      *nats.Conn
	subject string
	runID   string
}

func (n *natsReporter) StartRun(serverPath, tester string, port int, valgrind bool) {
	n.send(api.NewStartRun(n.runID, serverPath, tester, port, valgrind))
}

func (n *natsReporter) ServerReady(waited time.Duration) {
	n.send(api.NewServerReady(n.runID, waited))
}

func (n *natsReporter) StartTester(command string) {
	n.send(api.NewStartTester(n.runID, command))
}

func (n *natsReporter) FinishTester(exitCode *int64, timedOut bool) {
	n.send(api.NewFinishTester(n.runID, exitCode, timedOut))
}

func (n *natsReporter) FinishRun(result api.RunResult) {
	n.send(api.NewFinishRun(n.runID, result))
}
