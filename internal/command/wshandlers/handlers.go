// Package wshandlers provides WebSocket message handlers for the command
// runner.
package wshandlers

import (
	"errors"

	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/command"
	"github.com/procdock/procdock/internal/common/logger"
	ws "github.com/procdock/procdock/pkg/websocket"
)

// Handlers contains WebSocket handlers for the command API
type Handlers struct {
	runner *command.Runner
	logger *logger.Logger
}

// NewHandlers creates a new WebSocket handlers instance
func NewHandlers(runner *command.Runner, log *logger.Logger) *Handlers {
	return &Handlers{
		runner: runner,
		logger: log.WithFields(zap.String("component", "command-ws-handlers")),
	}
}

// RegisterHandlers registers all command handlers with the dispatcher
func (h *Handlers) RegisterHandlers(d *ws.Dispatcher) {
	d.RegisterFunc(ws.ActionCommandRun, h.RunCommand)
	d.RegisterFunc(ws.ActionCommandList, h.ListCommands)
	d.RegisterFunc(ws.ActionCommandGet, h.GetCommand)
	d.RegisterFunc(ws.ActionCommandStop, h.StopCommand)
	d.RegisterFunc(ws.ActionCommandRestart, h.RestartCommand)
	d.RegisterFunc(ws.ActionCommandRemove, h.RemoveCommand)
	d.RegisterFunc(ws.ActionCommandRemoveAll, h.RemoveAllCommands)
	d.RegisterFunc(ws.ActionCommandInput, h.SendInput)
	d.RegisterFunc(ws.ActionCommandResize, h.ResizeCommand)
	d.RegisterFunc(ws.ActionCommandScreen, h.GetScreen)
}

// errorResponse maps command errors onto protocol error codes
func errorResponse(msg *ws.Message, err error) (*ws.Message, error) {
	switch {
	case errors.Is(err, command.ErrNotFound):
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeNotFound, err.Error(), nil)
	case errors.Is(err, command.ErrDuplicateID):
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeConflict, err.Error(), nil)
	case errors.Is(err, command.ErrNoTerminal):
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, err.Error(), nil)
	}
	var notFound *command.ExecutableNotFoundError
	if errors.As(err, &notFound) {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, err.Error(), nil)
	}
	return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeInternalError, err.Error(), nil)
}

// parseScope maps the wire scope value onto a registry scope. An empty value
// selects the full scope.
func parseScope(value string) (command.Scope, bool) {
	switch value {
	case "", string(command.ScopeAll):
		return command.ScopeAll, true
	case string(command.ScopeRecent):
		return command.ScopeRecent, true
	default:
		return "", false
	}
}
