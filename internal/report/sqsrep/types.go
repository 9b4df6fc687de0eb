package sqsrep

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/ircrun/api"
)

type sqsReporter struct {
	sqsClient *sqs.Client
	queueUrl  string
	runID     string
}

func (s *sqsReporter) StartRun(serverPath, tester string, port int, valgrind bool) {
	s.send(api.NewStartRun(s.runID, serverPath, tester, port, valgrind))
}

func (s *sqsReporter) ServerReady(waited time.Duration) {
	s.send(api.NewServerReady(s.runID, waited))
}

func (s *sqsReporter) StartTester(command string) {
	s.send(api.NewStartTester(s.runID, command))
}

func (s *sqsReporter) FinishTester(exitCode *int64, timedOut bool) {
	s.send(api.NewFinishTester(s.runID, exitCode, timedOut))
}

func (s *sqsReporter) FinishRun(result api.RunResult) {
	s.send(api.NewFinishRun(s.runID, result))
}
