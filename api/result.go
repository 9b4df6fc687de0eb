package api

// Simple, non-streaming result types for a finished test run

// LeakReport summarizes an external memory-analysis report for the
// server process. Byte counts follow valgrind's leak categories.
type LeakReport struct {
	ErrorCount     int64 `json:"error_count"`
	DefinitelyLost int64 `json:"definitely_lost_bytes"`
	IndirectlyLost int64 `json:"indirectly_lost_bytes"`
	PossiblyLost   int64 `json:"possibly_lost_bytes"`
	StillReachable int64 `json:"still_reachable_bytes"`
	OpenFDs        int64 `json:"open_fds"`

	// Full report text, kept for diagnostics
	RawText string `json:"-"`
}

// LeakedBytes is the number of bytes counted against the verdict.
func (r *LeakReport) LeakedBytes() int64 {
	return r.DefinitelyLost + r.IndirectlyLost
}

// RunResult is the complete outcome of one test run. It is the only
// artifact that crosses the harness boundary; once built it is never
// mutated.
type RunResult struct {
	RunID string `json:"run_id"`

	Passed        bool    `json:"passed"`
	FailureReason *string `json:"failure_reason,omitempty"`

	// Log artifacts under the run directory
	ServerLogPath string `json:"server_log_path"`
	TesterLogPath string `json:"tester_log_path"`

	LeakReport *LeakReport `json:"leak_report,omitempty"`

	// Exit information for both children
	TesterExitCode *int64 `json:"tester_exit_code,omitempty"`
	ServerExitCode *int64 `json:"server_exit_code,omitempty"`

	// Run metadata
	StartTime       string  `json:"start_time"`
	FinishTime      string  `json:"finish_time"`
	DurationSeconds float64 `json:"duration_seconds"`
}
