package api

import "time"

// MsgType is a message type for streaming run progress
type MsgType string

// Streaming message type constants
const (
	StartRunMsg     MsgType = "run_start"
	ServerReadyMsg  MsgType = "server_ready"
	StartTesterMsg  MsgType = "tester_start"
	FinishTesterMsg MsgType = "tester_finish"
	FinishRunMsg    MsgType = "run_finish"
)

// Header is the common header for all streaming progress messages
type Header struct {
	RunID   string  `json:"run_id"`
	MsgType MsgType `json:"msg_type"`
}

// StartRun message sent when a run begins
type StartRun struct {
	Header
	ServerPath  string `json:"server_path"`
	Tester      string `json:"tester"`
	Port        int    `json:"port"`
	Valgrind    bool   `json:"valgrind"`
	StartedTime string `json:"started_time"`
}

// ServerReady message sent once the server accepts connections
type ServerReady struct {
	Header
	WaitedMillis int64 `json:"waited_ms"`
}

// StartTester message sent when the tester is launched
type StartTester struct {
	Header
	Command string `json:"command"`
}

// FinishTester message sent when the tester exits or is killed
type FinishTester struct {
	Header
	ExitCode *int64 `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// FinishRun message sent when the run is finalized
type FinishRun struct {
	Header
	Result RunResult `json:"result"`
}

// Helper function to create a header
func NewHeader(runID string, msgType MsgType) Header {
	return Header{
		RunID:   runID,
		MsgType: msgType,
	}
}

// Helper functions to create specific streaming message types
func NewStartRun(runID, serverPath, tester string, port int, valgrind bool) StartRun {
	return StartRun{
		Header:      NewHeader(runID, StartRunMsg),
		ServerPath:  serverPath,
		Tester:      tester,
		Port:        port,
		Valgrind:    valgrind,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewServerReady(runID string, waited time.Duration) ServerReady {
	return ServerReady{
		Header:       NewHeader(runID, ServerReadyMsg),
		WaitedMillis: waited.Milliseconds(),
	}
}

func NewStartTester(runID string, command string) StartTester {
	return StartTester{
		Header:  NewHeader(runID, StartTesterMsg),
		Command: command,
	}
}

func NewFinishTester(runID string, exitCode *int64, timedOut bool) FinishTester {
	return FinishTester{
		Header:   NewHeader(runID, FinishTesterMsg),
		ExitCode: exitCode,
		TimedOut: timedOut,
	}
}

func NewFinishRun(runID string, result RunResult) FinishRun {
	return FinishRun{
		Header: NewHeader(runID, FinishRunMsg),
		Result: result,
	}
}
