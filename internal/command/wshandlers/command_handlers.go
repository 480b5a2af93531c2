package wshandlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/command"
	v1 "github.com/procdock/procdock/pkg/api/v1"
	ws "github.com/procdock/procdock/pkg/websocket"
)

// RunCommandRequest is the payload for command.run
type RunCommandRequest struct {
	Category         string            `json:"category,omitempty"`
	Kind             string            `json:"kind,omitempty"`
	Command          string            `json:"command"`
	Args             []string          `json:"args,omitempty"`
	WorkingDir       string            `json:"working_dir,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	Pty              bool              `json:"pty,omitempty"`
	Cols             int               `json:"cols,omitempty"`
	Rows             int               `json:"rows,omitempty"`
	DisableStreaming bool              `json:"disable_streaming,omitempty"`
}

// CommandIDRequest is the payload for actions that target a single command
type CommandIDRequest struct {
	CommandID string `json:"command_id"`
	Scope     string `json:"scope,omitempty"`
	Output    bool   `json:"include_output,omitempty"`
}

// ListCommandsRequest is the payload for command.list
type ListCommandsRequest struct {
	Scope string `json:"scope,omitempty"`
}

// InputRequest is the payload for command.input
type InputRequest struct {
	CommandID string `json:"command_id"`
	Data      string `json:"data"`
}

// ResizeRequest is the payload for command.resize
type ResizeRequest struct {
	CommandID string `json:"command_id"`
	Cols      uint16 `json:"cols"`
	Rows      uint16 `json:"rows"`
}

// RunCommand handles command.run
func (h *Handlers) RunCommand(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req RunCommandRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.Command == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command is required", nil)
	}

	info, err := h.runner.Run(ctx, command.RunRequest{
		Category:         req.Category,
		Kind:             req.Kind,
		Command:          req.Command,
		Args:             req.Args,
		WorkingDir:       req.WorkingDir,
		Env:              req.Env,
		Pty:              req.Pty,
		Cols:             req.Cols,
		Rows:             req.Rows,
		DisableStreaming: req.DisableStreaming,
	})
	if err != nil {
		h.logger.Warn("failed to run command",
			zap.String("command", req.Command),
			zap.Error(err))
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, info.ToAPI())
}

// ListCommands handles command.list
func (h *Handlers) ListCommands(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req ListCommandsRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	scope, ok := parseScope(req.Scope)
	if !ok {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "scope must be recent or all", nil)
	}

	commands := h.runner.List(scope)
	list := v1.CommandList{Commands: make([]*v1.Command, 0, len(commands)), Total: len(commands)}
	for _, info := range commands {
		list.Commands = append(list.Commands, info.ToAPI())
	}
	return ws.NewResponse(msg.ID, msg.Action, list)
}

// GetCommand handles command.get
func (h *Handlers) GetCommand(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req CommandIDRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}
	scope, ok := parseScope(req.Scope)
	if !ok {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "scope must be recent or all", nil)
	}

	info, err := h.runner.Find(req.CommandID, scope, req.Output)
	if err != nil {
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, info.ToAPI())
}

// StopCommand handles command.stop
func (h *Handlers) StopCommand(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req CommandIDRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}

	if err := h.runner.Stop(req.CommandID); err != nil {
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"success":    true,
		"command_id": req.CommandID,
	})
}

// RestartCommand handles command.restart
func (h *Handlers) RestartCommand(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req CommandIDRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}

	info, err := h.runner.Restart(ctx, req.CommandID)
	if err != nil {
		h.logger.Warn("failed to restart command",
			zap.String("command_id", req.CommandID),
			zap.Error(err))
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, info.ToAPI())
}

// RemoveCommand handles command.remove
func (h *Handlers) RemoveCommand(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req CommandIDRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}

	if err := h.runner.Remove(req.CommandID); err != nil {
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"success":    true,
		"command_id": req.CommandID,
	})
}

// RemoveAllCommands handles command.remove_all
func (h *Handlers) RemoveAllCommands(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	h.runner.RemoveAll()
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"success": true,
	})
}

// SendInput handles command.input
func (h *Handlers) SendInput(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req InputRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}

	if err := h.runner.Input(req.CommandID, []byte(req.Data)); err != nil {
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"success":    true,
		"command_id": req.CommandID,
	})
}

// ResizeCommand handles command.resize
func (h *Handlers) ResizeCommand(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req ResizeRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}
	if req.Cols == 0 || req.Rows == 0 {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "cols and rows are required", nil)
	}

	if err := h.runner.Resize(req.CommandID, req.Cols, req.Rows); err != nil {
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"success":    true,
		"command_id": req.CommandID,
	})
}

// GetScreen handles command.screen
func (h *Handlers) GetScreen(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req CommandIDRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.CommandID == "" {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "command_id is required", nil)
	}

	screen, err := h.runner.Screen(req.CommandID)
	if err != nil {
		return errorResponse(msg, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
		"command_id": req.CommandID,
		"screen":     screen,
	})
}
