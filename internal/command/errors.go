package command

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no registered command matches the id.
	ErrNotFound = errors.New("command not found")
	// ErrDuplicateID is returned when registering an id that is already
	// bound to a running command.
	ErrDuplicateID = errors.New("duplicate command id")
	// ErrNoTerminal is returned for terminal operations (input, resize,
	// screen) on a command that runs without a PTY.
	ErrNoTerminal = errors.New("command has no terminal")
)

// ExecutableNotFoundError is returned by Run when the requested executable
// does not exist or cannot be resolved via PATH. Nothing is spawned or
// registered in this case.
type ExecutableNotFoundError struct {
	Path string
	Err  error
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable not found: %s", e.Path)
}

func (e *ExecutableNotFoundError) Unwrap() error { return e.Err }

// SpawnError is returned by Run when the OS-level process launch fails after
// validation passed. Failed spawns are never registered.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
