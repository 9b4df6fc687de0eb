package config

import (
	"errors"
	"fmt"
)

// Sentinel causes for configuration failure. They are always wrapped in an
// *Error naming the unresolved field.
var (
	ErrBinaryNotFound            = errors.New("server binary not found")
	ErrTesterNotFound            = errors.New("tester script not found")
	ErrPortAllocationFailed      = errors.New("could not allocate a free port")
	ErrMemoryAnalyzerUnavailable = errors.New("valgrind is not installed")
)

// Error is a configuration error. A run never starts once one is returned;
// no process has been spawned and no run directory created.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
