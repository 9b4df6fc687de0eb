// Package exitcodes defines the exit codes of the ircrun CLI.
//
// * Success (0): the run passed
// * TestFailure (1): the tester failed, timed out, or leaks were detected
// * ConfigErr (2): the run never started (unresolved configuration)
// * RuntimeErr (3): diagnostic capture failed; the verdict is invalid
package exitcodes

const (
	Success     = 0
	TestFailure = 1
	ConfigErr   = 2
	RuntimeErr  = 3
)
