package config

import (
	"fmt"
	"os"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// TesterVariant selects which generation of the tester script drives the run.
type TesterVariant string

const (
	TesterV1 TesterVariant = "v1"
	TesterV2 TesterVariant = "v2"
)

// ScriptName returns the conventional filename of the tester script.
func (v TesterVariant) ScriptName() string {
	if v == TesterV1 {
		return "irc_super_tester.py"
	}
	return "irc_super_tester_v2.py"
}

// RunConfig is a fully resolved configuration for one test run. It is only
// ever constructed by Resolve; downstream components may assume every
// invariant below holds.
type RunConfig struct {
	ServerPath string
	TesterPath string
	Tester     TesterVariant

	Port     int
	Password string
	Timeout  time.Duration

	Valgrind bool

	Verbose   bool
	Only      []string
	ExtraArgs []string

	// OutDir overrides the default runs/<timestamp> directory when set.
	OutDir string
}

// Validate checks the invariants that Resolve promises to downstream
// components. It is re-run on externally supplied configs.
func (c *RunConfig) Validate() error {
	if err := checkExecutable(c.ServerPath); err != nil {
		return &Error{Field: "binary", Err: err}
	}
	if c.Tester != TesterV1 && c.Tester != TesterV2 {
		return &Error{Field: "tester", Err: fmt.Errorf("unknown tester variant %q", c.Tester)}
	}
	if _, err := os.Stat(c.TesterPath); err != nil {
		return &Error{Field: "tester", Err: ErrTesterNotFound}
	}
	if c.Port < 1024 || c.Port > 65535 {
		return &Error{Field: "port", Err: fmt.Errorf("port %d outside [1024,65535]", c.Port)}
	}
	if c.Timeout <= 0 {
		return &Error{Field: "timeout", Err: fmt.Errorf("timeout must be positive, got %s", c.Timeout)}
	}
	return nil
}

// checkExecutable verifies that path names an executable regular file.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return ErrBinaryNotFound
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// dedupeOnly collapses repeated --only test names preserving first-seen order.
func dedupeOnly(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	res := make([]string, 0, len(names))
	for _, n := range names {
		if seen.Add(n) {
			res = append(res, n)
		}
	}
	return res
}
