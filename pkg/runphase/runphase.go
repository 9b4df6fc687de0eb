package runphase

// Phase is the supervision state of a run. Every run ends in Finalized,
// even when an earlier phase failed.
type Phase string

const (
	Idle            Phase = "idle"
	ServerStarting  Phase = "server_starting"
	ServerReady     Phase = "server_ready"
	TesterRunning   Phase = "tester_running"
	TesterCompleted Phase = "tester_completed"
	TesterTimedOut  Phase = "tester_timed_out"
	ShuttingDown    Phase = "shutting_down"
	Finalized       Phase = "finalized"
)

// Terminal reports whether no further phase transitions are possible.
func (p Phase) Terminal() bool {
	return p == Finalized
}
