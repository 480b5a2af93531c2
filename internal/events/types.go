// Package events provides event types and utilities for the procdock event system.
package events

// Event types for command I/O
const (
	CommandOutput = "command.output" // Command output data
	CommandStatus = "command.status" // Command status updates
)

// Event types for registry lifecycle
const (
	CommandRegistered = "command.registered" // Command entered the registry
	CommandRemoved    = "command.removed"    // Command left the registry
)

// BuildCommandOutputSubject creates a command output subject for a specific command
func BuildCommandOutputSubject(commandID string) string {
	return CommandOutput + "." + commandID
}

// BuildCommandOutputWildcardSubject creates a wildcard subscription for all command output events
func BuildCommandOutputWildcardSubject() string {
	return CommandOutput + ".*"
}

// BuildCommandStatusSubject creates a command status subject for a specific command
func BuildCommandStatusSubject(commandID string) string {
	return CommandStatus + "." + commandID
}

// BuildCommandStatusWildcardSubject creates a wildcard subscription for all command status events
func BuildCommandStatusWildcardSubject() string {
	return CommandStatus + ".*"
}
