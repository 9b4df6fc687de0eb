// Package valgrind wraps the server launch command with a valgrind
// invocation and parses the emitted report into a leak summary. When not
// requested the adapter is inert and passes commands through unchanged.
package valgrind

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/programme-lv/ircrun/api"
)

const logFileName = "valgrind.log"

// Analyzer is the memory-analysis adapter for one run.
type Analyzer struct {
	enabled bool
	logPath string
}

// New creates an analyzer writing its report under runDir. Availability of
// the valgrind tool itself is checked at configuration time, not here.
func New(enabled bool, runDir string) *Analyzer {
	return &Analyzer{
		enabled: enabled,
		logPath: filepath.Join(runDir, logFileName),
	}
}

func (a *Analyzer) Enabled() bool {
	return a.enabled
}

// LogPath returns where the raw report is written. Empty when disabled.
func (a *Analyzer) LogPath() string {
	if !a.enabled {
		return ""
	}
	return a.logPath
}

// WrapCommand prefixes argv with the valgrind invocation, or returns argv
// unchanged when analysis is disabled. The flag set mirrors what ft_irc
// defenses conventionally run with.
func (a *Analyzer) WrapCommand(argv []string) []string {
	if !a.enabled {
		return argv
	}
	prefix := []string{
		"valgrind",
		"-s",
		"--trace-children=no",
		"--leak-check=full",
		"--show-leak-kinds=all",
		"--track-origins=yes",
		"--track-fds=yes",
		"--error-limit=no",
		"--log-file=" + a.logPath,
	}
	return append(prefix, argv...)
}

// Report reads and parses the report written during the run. Returns nil
// when analysis is disabled. Must be called after the server terminated,
// since valgrind completes the report on exit.
func (a *Analyzer) Report() (*api.LeakReport, error) {
	if !a.enabled {
		return nil, nil
	}
	body, err := os.ReadFile(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read valgrind report: %w", err)
	}
	return Parse(string(body)), nil
}
