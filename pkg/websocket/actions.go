package websocket

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Command actions (client -> server)
	ActionCommandRun       = "command.run"
	ActionCommandList      = "command.list"
	ActionCommandGet       = "command.get"
	ActionCommandStop      = "command.stop"
	ActionCommandRestart   = "command.restart"
	ActionCommandRemove    = "command.remove"
	ActionCommandRemoveAll = "command.remove_all"
	ActionCommandInput     = "command.input"
	ActionCommandResize    = "command.resize"
	ActionCommandScreen    = "command.screen"

	// Subscription actions
	ActionCommandSubscribe   = "command.subscribe"
	ActionCommandUnsubscribe = "command.unsubscribe"

	// Notification actions (server -> client)
	ActionCommandRegistered = "command.registered"
	ActionCommandRemoved    = "command.removed"
	ActionCommandStatus     = "command.status"
	ActionCommandOutput     = "command.output"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeConflict      = "CONFLICT"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
